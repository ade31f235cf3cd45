package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"mediasort/internal/pipeline"
	"mediasort/internal/plan"
	"mediasort/internal/store"
)

// progressRenderer turns pipeline callbacks into terminal output. On a TTY
// it draws live bars; otherwise it stays quiet and lets the structured log
// carry progress. Callbacks arrive on the pipeline goroutine, so no locking
// is needed here.
type progressRenderer struct {
	interactive bool
	bar         *progressbar.ProgressBar
	skipped     int64
}

func newProgressRenderer() *progressRenderer {
	fd := os.Stderr.Fd()
	return &progressRenderer{
		interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func (r *progressRenderer) events() pipeline.Events {
	return pipeline.Events{
		StageStarted:    r.stageStarted,
		ScanProgress:    r.scanProgress,
		ScanSkip:        r.scanSkip,
		HashProgress:    r.hashProgress,
		PlanBuilt:       r.planBuilt,
		ExecuteProgress: r.executeProgress,
	}
}

func (r *progressRenderer) stageStarted(stage string) {
	r.closeBar()
	fmt.Fprintf(os.Stderr, "==> %s\n", stage)
}

func (r *progressRenderer) scanProgress(count int64, path string) {
	if !r.interactive {
		return
	}
	if r.bar == nil {
		r.bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("scanning"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = r.bar.Set64(count)
}

func (r *progressRenderer) scanSkip(reason, path string) {
	r.skipped++
}

func (r *progressRenderer) hashProgress(done, total int, path string) {
	r.countedProgress("hashing", done, total)
}

func (r *progressRenderer) executeProgress(done, total int, item *store.PlanItemDetail) {
	r.countedProgress("copying", done, total)
}

func (r *progressRenderer) countedProgress(description string, done, total int) {
	if !r.interactive {
		return
	}
	if r.bar == nil {
		r.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = r.bar.Set(done)
}

func (r *progressRenderer) planBuilt(result plan.Result) {
	fmt.Fprintf(os.Stderr, "planned %s item(s): %d duplicate(s), %d name collision(s)\n",
		humanize.Comma(int64(result.Items)), result.Duplicates, result.Collisions)
}

func (r *progressRenderer) closeBar() {
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}

func (r *progressRenderer) finish() {
	r.closeBar()
	if r.skipped > 0 {
		fmt.Fprintf(os.Stderr, "skipped %d file(s) during scan; see the run log for reasons\n", r.skipped)
	}
}
