// Package solver builds weekly timetable grids from a course list and a set
// of day/period placement constraints. It offers an exact CNF-based solver
// and a greedy constructive fallback, plus validation and a randomized
// diversity-improvement pass over finished grids.
package solver

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/arkan-dev/timetable-api/pkg/errors"
)

// Weekdays is the canonical day vocabulary for generated grids.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// LunchLabel marks the blocked lunch period in grid cells.
const LunchLabel = "LUNCH"

// SectionAll disables section filtering on a constraint.
const SectionAll = "ALL"

// Kind distinguishes constraint enforcement semantics.
type Kind string

const (
	// KindHard requires at least one qualifying placement inside the range.
	KindHard Kind = "Hard"
	// KindExact requires the whole range to be covered by the matched course(s).
	KindExact Kind = "Exact"
)

// Course is one schedulable activity. Negative IDs are reserved for
// synthetic placeholders created for unmatched constraints.
type Course struct {
	ID        int    `json:"id"`
	Name      string `json:"course_name"`
	Code      string `json:"course_code,omitempty"`
	Credits   int    `json:"credits"`
	Section   string `json:"section"`
	TeacherID int    `json:"teacher_id,omitempty"`
}

// Constraint ties a free-text course reference to a day and period range.
type Constraint struct {
	CourseName  string `json:"course_name"`
	Section     string `json:"section,omitempty"`
	Day         string `json:"day"`
	PeriodRange string `json:"period_range"`
	Kind        Kind   `json:"type"`
	Mode        string `json:"mode,omitempty"`
}

// Grid maps a day name to its ordered period cells. Empty string means free.
type Grid map[string][]string

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for day, row := range g {
		cells := make([]string, len(row))
		copy(cells, row)
		out[day] = cells
	}
	return out
}

// Request is an immutable snapshot of one solve.
type Request struct {
	Courses     []Course
	Constraints []Constraint
	Periods     int
	Lunch       int // 1-based period index, 0 disables the lunch block
	TimeLimit   time.Duration
	Seed        int64
	// ImproveIterations caps the diversity pass; 0 skips it.
	ImproveIterations int
}

// Diagnostics reports how a grid was produced and what the validator found.
type Diagnostics struct {
	Path        string   `json:"path"` // "exact" or "greedy"
	Valid       bool     `json:"valid"`
	Violations  []string `json:"violations,omitempty"`
	Unmatched   []string `json:"unmatched,omitempty"`
	Skipped     []string `json:"skipped,omitempty"`
	SwapsTaken  int      `json:"swaps_taken"`
	Score       float64  `json:"score"`
	SolveMillis int64    `json:"solve_millis"`
}

// Result bundles the generated grid with its diagnostics.
type Result struct {
	Grid        Grid        `json:"grid"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// ExactSolver attempts a complete assignment. ok=false signals infeasibility
// or budget exhaustion and is not an error: the caller falls back.
type ExactSolver interface {
	Solve(req Request) (Grid, bool)
}

// Engine orchestrates matching, solving, validation and improvement.
// The exact strategy is chosen at construction; a nil exact solver means
// every request takes the greedy path.
type Engine struct {
	exact  ExactSolver
	logger *zap.Logger
}

// NewEngine wires the engine with an optional exact solving strategy.
func NewEngine(exact ExactSolver, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{exact: exact, logger: logger}
}

// Generate produces one grid for the request. It always returns a populated
// grid unless the effective course list is empty; recoverable issues are
// absorbed into the diagnostics.
func (e *Engine) Generate(req Request) (*Result, error) {
	if req.Periods <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "periods must be greater than zero")
	}
	if req.Lunch < 0 || req.Lunch > req.Periods {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lunch period %d is outside 1-%d", req.Lunch, req.Periods))
	}

	courses, unmatched := withSyntheticCourses(req.Courses, req.Constraints, req.Periods)
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no courses supplied")
	}
	for _, name := range unmatched {
		e.logger.Warn("constraint matched no course, placeholder created", zap.String("course_name", name))
	}

	solveReq := req
	solveReq.Courses = courses

	started := time.Now()
	var grid Grid
	path := "greedy"
	if e.exact != nil {
		if exactGrid, ok := e.exact.Solve(solveReq); ok {
			grid = exactGrid
			path = "exact"
		} else {
			e.logger.Info("exact solver returned no result, using greedy fallback",
				zap.Int("courses", len(courses)), zap.Int("constraints", len(req.Constraints)))
		}
	}

	var skipped []string
	if grid == nil {
		grid, skipped = solveGreedy(courses, req.Constraints, req.Periods, req.Lunch, req.Seed)
	}

	ok, violations := Validate(grid, req.Constraints, req.Lunch)
	if !ok {
		e.logger.Warn("generated grid violates constraints", zap.Strings("violations", violations))
	}

	swaps := 0
	if ok && req.ImproveIterations > 0 {
		grid, swaps = Improve(grid, req.Constraints, req.Lunch, req.ImproveIterations, req.Seed)
	}

	return &Result{
		Grid: grid,
		Diagnostics: Diagnostics{
			Path:        path,
			Valid:       ok,
			Violations:  violations,
			Unmatched:   unmatched,
			Skipped:     skipped,
			SwapsTaken:  swaps,
			Score:       DiversityScore(grid),
			SolveMillis: time.Since(started).Milliseconds(),
		},
	}, nil
}

// withSyntheticCourses appends a negative-ID placeholder for every constraint
// whose course text resolves to no supplied course, so both solvers can place
// the literal label. Returns the augmented list and the unmatched texts.
func withSyntheticCourses(courses []Course, constraints []Constraint, periods int) ([]Course, []string) {
	known := make(map[string]struct{}, len(courses)*2)
	for _, c := range courses {
		if key := normalizeText(c.Name); key != "" {
			known[key] = struct{}{}
		}
		if key := normalizeText(c.Code); key != "" {
			known[key] = struct{}{}
		}
	}

	out := make([]Course, len(courses))
	copy(out, courses)

	var unmatched []string
	nextID := -1
	for _, cons := range constraints {
		name := normalizeText(cons.CourseName)
		if name == "" {
			continue
		}
		if _, ok := known[name]; ok {
			continue
		}
		credits := 1
		if start, end, ok := parsePeriodRange(cons.PeriodRange); ok {
			span := end - start + 1
			if span > periods {
				span = periods
			}
			if span > credits {
				credits = span
			}
		}
		section := cons.Section
		if section == "" {
			section = SectionAll
		}
		out = append(out, Course{
			ID:      nextID,
			Name:    cons.CourseName,
			Code:    cons.CourseName,
			Credits: credits,
			Section: section,
		})
		known[name] = struct{}{}
		unmatched = append(unmatched, cons.CourseName)
		nextID--
	}
	return out, unmatched
}
