package solver

import (
	"strings"
	"time"

	gsat "github.com/crillab/gophersat/solver"
	"go.uber.org/zap"
)

// SATSolver encodes the timetable as boolean cardinality constraints and
// solves them with gophersat. One decision variable exists per
// (course, day, period) triple. Slot utilization is maximized by repeatedly
// re-solving with a raised lower bound on the count of true variables until
// the problem becomes unsatisfiable or the wall-clock budget runs out.
type SATSolver struct {
	logger *zap.Logger
}

// NewSATSolver returns the exact solving strategy.
func NewSATSolver(logger *zap.Logger) *SATSolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SATSolver{logger: logger}
}

// satModel holds the encoded problem and the variable numbering.
type satModel struct {
	courses  []Course
	periods  int
	lunchIdx int
	constrs  []gsat.CardConstr
	allLits  []int
}

// Solve builds and solves the model. ok=false covers both infeasibility and
// budget exhaustion before any model was found; the engine falls back either way.
func (s *SATSolver) Solve(req Request) (Grid, bool) {
	model := s.encode(req)
	if model == nil {
		return nil, false
	}

	budget := req.TimeLimit
	if budget <= 0 {
		budget = 10 * time.Second
	}
	deadline := time.Now().Add(budget)

	var best []bool
	constrs := model.constrs
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		assignment, status := solveWithin(constrs, remaining)
		if status != gsat.Sat {
			break
		}
		// gophersat can report Sat with a model that breaks the cardinality
		// set once extra lower-bound constraints are stacked on. Only models
		// that re-check clean are ever accepted.
		if !satisfiesAll(assignment, constrs) {
			s.logger.Debug("sat solver returned an unverified model, keeping previous",
				zap.Int("constraints", len(constrs)))
			break
		}
		best = assignment
		count := 0
		for _, v := range assignment {
			if v {
				count++
			}
		}
		if count >= len(model.allLits) {
			break
		}
		// Ask for one more occupied slot and try again.
		constrs = append(constrs, gsat.CardConstr{Lits: model.allLits, AtLeast: count + 1})
	}

	if best == nil {
		s.logger.Debug("sat solver found no model within budget",
			zap.Duration("budget", budget), zap.Int("variables", len(model.allLits)))
		return nil, false
	}
	return model.decode(best), true
}

// satisfiesAll re-checks a reported model against the cardinality set.
// Variables are 1-based; a negative literal is satisfied when its variable
// is false.
func satisfiesAll(assignment []bool, constrs []gsat.CardConstr) bool {
	for _, c := range constrs {
		trues := 0
		for _, lit := range c.Lits {
			v := lit
			if v < 0 {
				v = -v
			}
			val := v-1 < len(assignment) && assignment[v-1]
			if lit < 0 {
				val = !val
			}
			if val {
				trues++
			}
		}
		if trues < c.AtLeast {
			return false
		}
	}
	return true
}

// solveWithin runs one satisfiability check bounded by the remaining budget.
// The underlying search is not interruptible; on timeout the worker goroutine
// is abandoned and its eventual result discarded.
func solveWithin(constrs []gsat.CardConstr, budget time.Duration) ([]bool, gsat.Status) {
	type outcome struct {
		model  []bool
		status gsat.Status
	}
	done := make(chan outcome, 1)
	go func() {
		pb := gsat.ParseCardConstrs(constrs)
		solver := gsat.New(pb)
		status := solver.Solve()
		var model []bool
		if status == gsat.Sat {
			model = solver.Model()
		}
		done <- outcome{model: model, status: status}
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()
	select {
	case res := <-done:
		return res.model, res.status
	case <-timer.C:
		return nil, gsat.Indet
	}
}

// encode translates the request into cardinality constraints. Returns nil
// when there is nothing to schedule.
func (s *SATSolver) encode(req Request) *satModel {
	if len(req.Courses) == 0 || req.Periods <= 0 {
		return nil
	}
	m := &satModel{
		courses:  req.Courses,
		periods:  req.Periods,
		lunchIdx: lunchIndex(req.Periods, req.Lunch),
	}

	lit := func(courseIdx, day, period int) int {
		return 1 + courseIdx*len(Weekdays)*m.periods + day*m.periods + period
	}

	for ci := range m.courses {
		var courseLits []int
		for d := range Weekdays {
			var dayLits []int
			for p := 0; p < m.periods; p++ {
				v := lit(ci, d, p)
				courseLits = append(courseLits, v)
				dayLits = append(dayLits, v)
				m.allLits = append(m.allLits, v)
				if p == m.lunchIdx {
					m.constrs = append(m.constrs, gsat.CardConstr{Lits: []int{-v}, AtLeast: 1})
				}
			}
			m.constrs = append(m.constrs, atMostOne(dayLits))
		}
		// Every supplied course appears at least once somewhere in the week.
		m.constrs = append(m.constrs, gsat.CardConstr{Lits: courseLits, AtLeast: 1})
	}

	// Resource conflicts: a teacher or a section occupies one slot at a time.
	teacherGroups := make(map[int][]int)
	sectionGroups := make(map[string][]int)
	for ci, c := range m.courses {
		if c.TeacherID != 0 {
			teacherGroups[c.TeacherID] = append(teacherGroups[c.TeacherID], ci)
		}
		section := c.Section
		if section == "" {
			section = "A"
		}
		sectionGroups[section] = append(sectionGroups[section], ci)
	}
	addConflicts := func(group []int) {
		if len(group) < 2 {
			return
		}
		for d := range Weekdays {
			for p := 0; p < m.periods; p++ {
				lits := make([]int, 0, len(group))
				for _, ci := range group {
					lits = append(lits, lit(ci, d, p))
				}
				m.constrs = append(m.constrs, atMostOne(lits))
			}
		}
	}
	for _, group := range teacherGroups {
		addConflicts(group)
	}
	for _, group := range sectionGroups {
		addConflicts(group)
	}

	index := courseIndex(m.courses)
	indexPos := make(map[int]int, len(m.courses))
	for ci, c := range m.courses {
		indexPos[c.ID] = ci
	}

	for _, cons := range req.Constraints {
		day, dayOK := canonicalDay(cons.Day)
		indices, rangeOK := allowedPeriods(cons, m.periods, req.Lunch)
		if !dayOK || !rangeOK {
			continue
		}
		didx := dayOrdinal(day)
		cids := matchConstraint(cons, index)
		if len(cids) == 0 {
			continue
		}

		exact := cons.Kind == KindExact || containsFold(cons.Mode, "exact")
		if exact {
			// Single candidate: it must cover the whole window. Multiple
			// candidates: the aggregate occupancy must cover the window
			// (a documented approximation, not a per-course reservation).
			var lits []int
			for _, cid := range cids {
				for _, p := range indices {
					lits = append(lits, lit(indexPos[cid], didx, p))
				}
			}
			m.constrs = append(m.constrs, gsat.CardConstr{Lits: lits, AtLeast: len(indices)})
		} else {
			var lits []int
			for _, cid := range cids {
				for _, p := range indices {
					lits = append(lits, lit(indexPos[cid], didx, p))
				}
			}
			m.constrs = append(m.constrs, gsat.CardConstr{Lits: lits, AtLeast: 1})
		}
	}
	return m
}

// decode turns a satisfying assignment back into a grid. Each cell bears the
// label of the first course whose variable is true there.
func (m *satModel) decode(assignment []bool) Grid {
	grid := emptyGrid(m.periods, m.lunchIdx+1)
	varAt := func(courseIdx, day, period int) bool {
		idx := courseIdx*len(Weekdays)*m.periods + day*m.periods + period
		return idx < len(assignment) && assignment[idx]
	}
	for d, day := range Weekdays {
		for p := 0; p < m.periods; p++ {
			if p == m.lunchIdx {
				continue
			}
			for ci, c := range m.courses {
				if varAt(ci, d, p) {
					grid[day][p] = courseLabel(c)
					break
				}
			}
		}
	}
	return grid
}

// atMostOne encodes "at most one of lits" as "at least len-1 negations".
func atMostOne(lits []int) gsat.CardConstr {
	negated := make([]int, len(lits))
	for i, l := range lits {
		negated[i] = -l
	}
	return gsat.CardConstr{Lits: negated, AtLeast: len(lits) - 1}
}

// dayOrdinal returns the position of a canonical day within Weekdays.
func dayOrdinal(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return 0
}

func containsFold(haystack, needle string) bool {
	return haystack != "" && strings.Contains(normalizeText(haystack), needle)
}
