package solver

import (
	"fmt"
	"strings"
)

// Validate re-checks a grid against the Hard and Exact constraints,
// independent of how the grid was produced. Cell contents are compared via
// normalized substring containment against the constraint's course text, so
// literal placeholder labels satisfy their own constraint. The grid is never
// mutated and repeated runs yield identical results.
func Validate(grid Grid, constraints []Constraint, lunch int) (bool, []string) {
	ok := true
	var violations []string

	for _, cons := range constraints {
		if cons.Kind != KindHard && cons.Kind != KindExact {
			continue
		}
		if strings.TrimSpace(cons.CourseName) == "" {
			continue
		}
		day, dayOK := canonicalDay(cons.Day)
		if !dayOK {
			continue
		}
		row, present := grid[day]
		if !present {
			violations = append(violations, fmt.Sprintf("constraint for %s on %s (%s): day missing from grid", cons.CourseName, day, cons.PeriodRange))
			ok = false
			continue
		}
		indices, rangeOK := allowedPeriods(cons, len(row), lunch)
		if !rangeOK {
			continue
		}

		target := normalizeText(cons.CourseName)
		matched := 0
		var found []string
		for _, p := range indices {
			cell := row[p]
			found = append(found, cell)
			if cellMatches(cell, target) {
				matched++
			}
		}

		satisfied := matched >= 1
		if cons.Kind == KindExact {
			satisfied = matched == len(indices)
		}
		if !satisfied {
			violations = append(violations, fmt.Sprintf("%s constraint violated: %q expected on %s in %s, found %v",
				cons.Kind, cons.CourseName, day, cons.PeriodRange, found))
			ok = false
		}
	}
	return ok, violations
}

// cellMatches compares a grid cell against a normalized course reference.
// Cells may carry a " - " suffix (e.g. teacher annotation) which is ignored.
func cellMatches(cell, target string) bool {
	if cell == "" {
		return false
	}
	subject, _, _ := strings.Cut(cell, " - ")
	normalized := normalizeText(subject)
	if normalized == "" || normalized == strings.ToLower(LunchLabel) {
		return false
	}
	return normalized == target || strings.Contains(normalized, target) || strings.Contains(target, normalized)
}
