package journal

import "time"

// Status represents the lifecycle state of an export run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one invocation of the export pipeline.
type Run struct {
	ID           string
	Project      string
	Destination  string
	LabelFormat  string
	Status       Status
	FailureKind  string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration reports how long a finished run took, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SplitRecord summarizes the materialization of one split within a run.
type SplitRecord struct {
	RunID      string
	Split      string
	DatasetARN string
	Entries    int
	Records    int
	Images     int
	Labels     int
	Boxes      int
	Classes    []string
}

// FileRecord maps one source image to the files written for it.
type FileRecord struct {
	RunID     string
	Split     string
	SourceURI string
	ImagePath string
	LabelPath string
	Boxes     int
}
