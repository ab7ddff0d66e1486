package reporting

import (
	"time"
)

// RunReport is the persisted summary of one fuzzing run: its rounds,
// final tree statistics, and whether a bug was found.
type RunReport struct {
	RunID     string    `json:"run_id"`
	Binary    string    `json:"binary"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  string    `json:"duration"`

	Status   RunStatus `json:"status"`
	BugFound bool      `json:"bug_found"`
	Message  string    `json:"message,omitempty"`

	Rounds []RoundSummary `json:"rounds"`

	TreeSize      int `json:"tree_size"`
	NewPathsTotal int `json:"new_paths_total"`

	Errors []string `json:"errors,omitempty"`
}

// RunStatus represents the status of a fuzzing run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RoundSummary records what one Selection/Simulation/Expansion/
// Propagation round did, for persistence and for the progress reporter.
type RoundSummary struct {
	Round          int       `json:"round"`
	Timestamp      time.Time `json:"timestamp"`
	SelectedNode   int       `json:"selected_node"`
	SelectedAddr   int64     `json:"selected_addr"`
	BatchSize      int       `json:"batch_size"`
	NewPaths       int       `json:"new_paths"`
	BugFound       bool      `json:"bug_found"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
}

// LiveRunState is the subset of run state broadcast to the optional live
// feed (pkg/telemetry) and printed by the progress reporter.
type LiveRunState struct {
	RunID     string        `json:"run_id"`
	Round     int           `json:"round"`
	State     string        `json:"state"`
	Elapsed   time.Duration `json:"elapsed"`
	TreeSize  int           `json:"tree_size"`
	BugFound  bool          `json:"bug_found"`
	NewPaths  int           `json:"new_paths"`
}
