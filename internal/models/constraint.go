package models

import "time"

// ConstraintKind distinguishes how a placement rule is enforced.
type ConstraintKind string

const (
	// ConstraintHard requires at least one placement inside the period range.
	ConstraintHard ConstraintKind = "Hard"
	// ConstraintExact requires the whole period range to be covered.
	ConstraintExact ConstraintKind = "Exact"
)

// SchedulingConstraint pins a course reference to a day and period range.
// CourseName is free text resolved against the course catalog at solve time.
type SchedulingConstraint struct {
	ID          int64          `db:"id" json:"id"`
	CourseName  string         `db:"course_name" json:"course_name"`
	Section     string         `db:"section" json:"section"`
	Day         string         `db:"day" json:"day"`
	PeriodRange string         `db:"period_range" json:"period_range"`
	Kind        ConstraintKind `db:"kind" json:"kind"`
	Mode        string         `db:"mode" json:"mode,omitempty"`
	Enabled     bool           `db:"enabled" json:"enabled"`
	OwnerID     string         `db:"owner_id" json:"owner_id"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// ConstraintFilter captures filtering criteria for listing constraints.
type ConstraintFilter struct {
	Day      string
	Kind     string
	Enabled  *bool
	OwnerID  string
	Search   string
	Page     int
	PageSize int
}
