package models

import "time"

type WorkerOutcome string

const (
	WorkerOutcomeSuccess WorkerOutcome = "success"
	WorkerOutcomeFailed  WorkerOutcome = "failed"
)

// WorkerStatus records the last run of a background job, one row per job
// name. Written after every run so operators can see when aggregation last
// made progress and why it stopped if it failed.
type WorkerStatus struct {
	ID             int64         `json:"-" db:"id"`
	WorkerName     string        `json:"workerName" db:"worker_name"`
	LastRunAt      time.Time     `json:"lastRunAt" db:"last_run_at"`
	Status         WorkerOutcome `json:"status" db:"status"`
	VotesProcessed int           `json:"votesProcessed" db:"votes_processed"`
	ErrorMessage   *string       `json:"errorMessage,omitempty" db:"error_message"`
}
