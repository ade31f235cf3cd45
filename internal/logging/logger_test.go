package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediasort/internal/logging"
	"mediasort/internal/services"
)

func TestConsoleFormatWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("scan complete", logging.Int("accepted", 42), logging.String("root", "/media/in"))

	out := buf.String()
	if !strings.Contains(out, "INFO") {
		t.Fatalf("expected level label in output, got %q", out)
	}
	if !strings.Contains(out, "scan complete") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "accepted=42") || !strings.Contains(out, "root=/media/in") {
		t.Fatalf("expected key=value attrs in output, got %q", out)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestJSONFormatEmitsParsableRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("json message", logging.String("k", "v"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log record: %v (raw %q)", err, buf.String())
	}
	if record["msg"] != "json message" {
		t.Fatalf("unexpected msg field: %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Fatalf("unexpected level field: %v", record["level"])
	}
	if record["k"] != "v" {
		t.Fatalf("unexpected attr: %v", record["k"])
	}
}

func TestFileSinkReceivesOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "run.log")
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{
		Format:    "console",
		Level:     "info",
		Console:   &buf,
		FilePaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("persisted line")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "persisted line") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestInvalidFormatRejected(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "chatty", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug output should be suppressed, got %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("info output should be present, got %q", out)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-777")
	ctx = services.WithStage(ctx, "plan")

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WithContext(ctx, logger).Info("contextual log")

	out := buf.String()
	if !strings.Contains(out, "run_id=run-777") {
		t.Fatalf("expected run_id field, got %q", out)
	}
	if !strings.Contains(out, "stage=plan") {
		t.Fatalf("expected stage field, got %q", out)
	}
}

func TestComponentPrefixesMessage(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "scanner").Info("walk finished")

	if !strings.Contains(buf.String(), "scanner: walk finished") {
		t.Fatalf("expected component prefix, got %q", buf.String())
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	logger.Info("discarded")
	logger.Error("also discarded", logging.Error(nil))
}
