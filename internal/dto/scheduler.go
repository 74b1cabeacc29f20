package dto

// CourseInput is an inline course supplied with a generate request. When the
// request carries no inline courses the caller's stored catalog is used.
type CourseInput struct {
	ID      int64  `json:"id"`
	Name    string `json:"name" validate:"required"`
	Code    string `json:"code"`
	Credits int    `json:"credits" validate:"omitempty,min=1,max=40"`
	Section string `json:"section"`
	// Free-form teacher reference; courses sharing one are never scheduled
	// into the same slot.
	TeacherID string `json:"teacherId"`
}

// ConstraintInput is an inline placement rule supplied with a request.
type ConstraintInput struct {
	CourseName  string `json:"courseName" validate:"required"`
	Section     string `json:"section"`
	Day         string `json:"day" validate:"required"`
	PeriodRange string `json:"periodRange" validate:"required"`
	Kind        string `json:"kind" validate:"required,oneof=Hard Exact"`
	Mode        string `json:"mode"`
}

// GenerateTimetableRequest instructs the engine to build a weekly grid.
type GenerateTimetableRequest struct {
	Name              string            `json:"name"`
	Periods           int               `json:"periods" validate:"omitempty,min=1,max=16"`
	LunchPeriod       int               `json:"lunchPeriod" validate:"omitempty,min=0,max=16"`
	Courses           []CourseInput     `json:"courses" validate:"omitempty,dive"`
	Constraints       []ConstraintInput `json:"constraints" validate:"omitempty,dive"`
	Seed              int64             `json:"seed"`
	TimeLimitMs       int               `json:"timeLimitMs" validate:"omitempty,min=0,max=120000"`
	ImproveIterations int               `json:"improveIterations" validate:"omitempty,min=0,max=10000"`
}

// GenerateDiagnostics mirrors what the engine reports about one solve.
type GenerateDiagnostics struct {
	Source      string   `json:"source"`
	Valid       bool     `json:"valid"`
	Violations  []string `json:"violations,omitempty"`
	Unmatched   []string `json:"unmatched,omitempty"`
	Skipped     []string `json:"skipped,omitempty"`
	SwapsTaken  int      `json:"swapsTaken"`
	Score       float64  `json:"score"`
	SolveMillis int64    `json:"solveMillis"`
}

// GenerateTimetableResponse returns the built proposal. The proposal is held
// in cache until saved or expired.
type GenerateTimetableResponse struct {
	ProposalID  string              `json:"proposalId"`
	Name        string              `json:"name"`
	Periods     int                 `json:"periods"`
	LunchPeriod int                 `json:"lunchPeriod"`
	Grid        map[string][]string `json:"grid"`
	Diagnostics GenerateDiagnostics `json:"diagnostics"`
}

// SaveTimetableRequest persists a cached proposal as a timetable set.
type SaveTimetableRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Name       string `json:"name"`
}

// TimetableSetQuery filters saved sets.
type TimetableSetQuery struct {
	Valid    *bool `form:"valid"`
	Page     int   `form:"page"`
	PageSize int   `form:"pageSize"`
}

// ValidateTimetableRequest checks an arbitrary grid against constraints.
// When Constraints is empty the caller's stored enabled constraints apply.
type ValidateTimetableRequest struct {
	Grid        map[string][]string `json:"grid" validate:"required"`
	LunchPeriod int                 `json:"lunchPeriod" validate:"omitempty,min=0,max=16"`
	Constraints []ConstraintInput   `json:"constraints" validate:"omitempty,dive"`
}

// ValidateTimetableResponse reports the validation outcome.
type ValidateTimetableResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
	Score      float64  `json:"score"`
}

// GenerationJobResponse reports async solve state.
type GenerationJobResponse struct {
	JobID      string `json:"jobId"`
	Status     string `json:"status"`
	ProposalID string `json:"proposalId,omitempty"`
	Error      string `json:"error,omitempty"`
}
