package models

import "time"

// TimetableSource records which solving path produced a saved grid.
type TimetableSource string

const (
	TimetableSourceExact  TimetableSource = "exact"
	TimetableSourceGreedy TimetableSource = "greedy"
)

// TimetableSet is a persisted weekly grid with its generation metadata.
type TimetableSet struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	OwnerID     string          `db:"owner_id" json:"owner_id"`
	Periods     int             `db:"periods" json:"periods"`
	LunchPeriod int             `db:"lunch_period" json:"lunch_period"`
	Source      TimetableSource `db:"source" json:"source"`
	Valid       bool            `db:"valid" json:"valid"`
	Score       float64         `db:"score" json:"score"`
	SolveMillis int64           `db:"solve_millis" json:"solve_millis"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// TimetableEntry is one cell of a persisted grid. Period is 0-based.
type TimetableEntry struct {
	ID     string `db:"id" json:"id"`
	SetID  string `db:"set_id" json:"set_id"`
	Day    string `db:"day" json:"day"`
	Period int    `db:"period" json:"period"`
	Label  string `db:"label" json:"label"`
}

// TimetableSetFilter captures filtering criteria for listing sets.
type TimetableSetFilter struct {
	OwnerID  string
	Valid    *bool
	Page     int
	PageSize int
}

// GenerationJobStatus tracks the lifecycle of an asynchronous solve.
type GenerationJobStatus string

const (
	JobQueued    GenerationJobStatus = "queued"
	JobRunning   GenerationJobStatus = "running"
	JobSucceeded GenerationJobStatus = "succeeded"
	JobFailed    GenerationJobStatus = "failed"
	JobCancelled GenerationJobStatus = "cancelled"
)

// GenerationJob is the in-memory record of a queued timetable solve.
type GenerationJob struct {
	ID         string              `json:"id"`
	OwnerID    string              `json:"owner_id"`
	Status     GenerationJobStatus `json:"status"`
	ProposalID string              `json:"proposal_id,omitempty"`
	Error      string              `json:"error,omitempty"`
	EnqueuedAt time.Time           `json:"enqueued_at"`
	StartedAt  *time.Time          `json:"started_at,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}
