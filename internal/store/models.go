package store

import (
	"strings"
	"time"

	"mediasort/internal/media"
)

// RunStatus represents the lifecycle of an organization run.
type RunStatus string

const (
	RunStatusCreated    RunStatus = "CREATED"
	RunStatusScanned    RunStatus = "SCANNED"
	RunStatusPlanned    RunStatus = "PLANNED"
	RunStatusRunning    RunStatus = "RUNNING"
	RunStatusPaused     RunStatus = "PAUSED"
	RunStatusCompleted  RunStatus = "COMPLETED"
	RunStatusFailed     RunStatus = "FAILED"
	RunStatusRolledBack RunStatus = "ROLLED_BACK"
)

var allRunStatuses = []RunStatus{
	RunStatusCreated,
	RunStatusScanned,
	RunStatusPlanned,
	RunStatusRunning,
	RunStatusPaused,
	RunStatusCompleted,
	RunStatusFailed,
	RunStatusRolledBack,
}

var runStatusSet = func() map[RunStatus]struct{} {
	set := make(map[RunStatus]struct{}, len(allRunStatuses))
	for _, status := range allRunStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// incompleteRunStatuses lists the statuses a resume operation may pick up.
// FAILED is deliberately included: scan and hash are idempotent, so a failed
// run can be retried from wherever it stopped. PAUSED is reserved for a
// future pause operation; nothing produces it today but a paused run still
// resumes.
var incompleteRunStatuses = []RunStatus{
	RunStatusCreated,
	RunStatusScanned,
	RunStatusPlanned,
	RunStatusRunning,
	RunStatusPaused,
	RunStatusFailed,
}

// AllRunStatuses returns the ordered list of known run statuses.
func AllRunStatuses() []RunStatus {
	cp := make([]RunStatus, len(allRunStatuses))
	copy(cp, allRunStatuses)
	return cp
}

// IncompleteRunStatuses returns the statuses eligible for resume.
func IncompleteRunStatuses() []RunStatus {
	cp := make([]RunStatus, len(incompleteRunStatuses))
	copy(cp, incompleteRunStatuses)
	return cp
}

// ParseRunStatus converts a string into a known RunStatus.
func ParseRunStatus(value string) (RunStatus, bool) {
	normalized := RunStatus(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := runStatusSet[normalized]
	return normalized, ok
}

// IsIncomplete reports whether the status is eligible for resume.
func (s RunStatus) IsIncomplete() bool {
	for _, candidate := range incompleteRunStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the run reached a final state.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusRolledBack
}

func (s RunStatus) String() string { return string(s) }

// PlanStatus represents the lifecycle of a single planned copy.
type PlanStatus string

const (
	PlanStatusPending  PlanStatus = "PENDING"
	PlanStatusCopying  PlanStatus = "COPYING"
	PlanStatusCopied   PlanStatus = "COPIED"
	PlanStatusVerified PlanStatus = "VERIFIED"
	PlanStatusFailed   PlanStatus = "FAILED"
	PlanStatusSkipped  PlanStatus = "SKIPPED"
)

// runnablePlanStatuses selects the items a (re-)invoked Execute picks up:
// fresh items, items interrupted mid-copy, and previous failures.
var runnablePlanStatuses = []PlanStatus{
	PlanStatusPending,
	PlanStatusCopying,
	PlanStatusFailed,
}

var planStatusSet = map[PlanStatus]struct{}{
	PlanStatusPending:  {},
	PlanStatusCopying:  {},
	PlanStatusCopied:   {},
	PlanStatusVerified: {},
	PlanStatusFailed:   {},
	PlanStatusSkipped:  {},
}

// ParsePlanStatus converts a string into a known PlanStatus.
func ParsePlanStatus(value string) (PlanStatus, bool) {
	normalized := PlanStatus(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := planStatusSet[normalized]
	return normalized, ok
}

func (s PlanStatus) String() string { return string(s) }

// Action identifies how a planned item is routed.
type Action string

const (
	ActionCopy             Action = "COPY"
	ActionCopyToDuplicates Action = "COPY_TO_DUPLICATES"
)

func (a Action) String() string { return string(a) }

// Phase tags error records with the pipeline stage that produced them.
type Phase string

const (
	PhaseScan     Phase = "SCAN"
	PhaseHash     Phase = "HASH"
	PhasePlan     Phase = "PLAN"
	PhaseCopy     Phase = "COPY"
	PhaseVerify   Phase = "VERIFY"
	PhaseRollback Phase = "ROLLBACK"
)

var phaseSet = map[Phase]struct{}{
	PhaseScan: {}, PhaseHash: {}, PhasePlan: {},
	PhaseCopy: {}, PhaseVerify: {}, PhaseRollback: {},
}

// ParsePhase converts a string into a known Phase.
func ParsePhase(value string) (Phase, bool) {
	normalized := Phase(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := phaseSet[normalized]
	return normalized, ok
}

func (p Phase) String() string { return string(p) }

// ArtifactKind identifies a rendered report artifact.
type ArtifactKind string

const (
	ArtifactLog         ArtifactKind = "LOG"
	ArtifactCSV         ArtifactKind = "CSV"
	ArtifactPlanJSON    ArtifactKind = "PLAN_JSON"
	ArtifactSummaryText ArtifactKind = "SUMMARY_TXT"
)

// RunConfig is the immutable configuration snapshot recorded with each run.
// The policy strings and resource hints are provenance only; the pipeline
// does not consult them.
type RunConfig struct {
	MinFileSize   int64
	IncludePhotos bool
	IncludeVideos bool
	IncludeRAW    bool
	IncludeOther  bool

	OverwritePolicy string
	OnErrorPolicy   string
	LivePhotoPolicy string
	ThumbsPolicy    string
	CPULimitPct     int
	IOLimitMbps     int
}

// IncludesClass reports whether the snapshot admits the given media class.
func (c RunConfig) IncludesClass(class media.Class) bool {
	switch class {
	case media.ClassPhoto:
		return c.IncludePhotos
	case media.ClassVideo:
		return c.IncludeVideos
	case media.ClassRAW:
		return c.IncludeRAW
	default:
		return c.IncludeOther
	}
}

// Run represents one end-to-end organization job.
type Run struct {
	ID            string
	Name          string
	SourceRoot    string
	DestRoot      string
	ArtifactsRoot string
	Status        RunStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Config        RunConfig
}

// FileRecord represents one scanned source file and its derived metadata.
type FileRecord struct {
	ID         int64
	RunID      string
	SourcePath string
	Ext        string
	Class      media.Class
	Size       int64
	MTime      time.Time
	CaptureAt  *time.Time
	ChosenDate string
	DateSource media.DateSource
	Checksum   string
	CreatedAt  time.Time
}

// HashGroup represents the set of files sharing one checksum within a run.
type HashGroup struct {
	ID            int64
	RunID         string
	Checksum      string
	PrimaryFileID *int64
	CreatedAt     time.Time
}

// PlanItem represents one intended copy operation and its outcome.
type PlanItem struct {
	ID              int64
	RunID           string
	FileID          int64
	Action          Action
	DestRelPath     string
	DestAbsPath     string
	CollisionSuffix int
	GroupID         *int64
	IsPrimary       bool
	Status          PlanStatus
	StartedAt       *time.Time
	FinishedAt      *time.Time
	BytesCopied     int64
	ErrorCode       string
	ErrorMessage    string
}

// PlanItemDetail joins a plan item with the source file fields the executor
// and report writers need.
type PlanItemDetail struct {
	PlanItem
	SourcePath     string
	SourceChecksum string
	SourceSize     int64
}

// ErrorRecord is one append-only diagnostic entry.
type ErrorRecord struct {
	ID         int64
	RunID      string
	Phase      Phase
	PlanItemID *int64
	Code       string
	Message    string
	SourcePath string
	DestPath   string
	CreatedAt  time.Time
}

// Artifact points at an externally rendered report file.
type Artifact struct {
	ID        int64
	RunID     string
	Kind      ArtifactKind
	Path      string
	CreatedAt time.Time
}
