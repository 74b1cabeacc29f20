package solver

import (
	"fmt"
	"strconv"
	"strings"
)

// normalizeText collapses internal whitespace, trims, and case-folds a raw
// string into a comparison key. Non-strings in the original payloads map to "".
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// canonicalDay maps a raw day token onto the five-weekday vocabulary.
func canonicalDay(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	candidate := strings.ToUpper(trimmed[:1]) + strings.ToLower(trimmed[1:])
	for _, day := range Weekdays {
		if day == candidate {
			return day, true
		}
	}
	return "", false
}

// parsePeriodRange parses a 1-based inclusive token such as "P1-P3" or "P2"
// into 0-based start/end indices. Reversed bounds are swapped.
func parsePeriodRange(token string) (int, int, bool) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return 0, 0, false
	}
	parse := func(part string) (int, bool) {
		n, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(part, "P", "")))
		if err != nil || n < 1 {
			return 0, false
		}
		return n - 1, true
	}
	if a, b, found := strings.Cut(token, "-"); found {
		start, okA := parse(a)
		end, okB := parse(b)
		if !okA || !okB {
			return 0, 0, false
		}
		if start > end {
			start, end = end, start
		}
		return start, end, true
	}
	idx, ok := parse(token)
	if !ok {
		return 0, 0, false
	}
	return idx, idx, true
}

// CanonicalDay maps a raw day token onto the weekday vocabulary, reporting
// whether the token is recognised. Exposed for input validation at the edges.
func CanonicalDay(raw string) (string, bool) {
	return canonicalDay(raw)
}

// ValidPeriodRange reports whether a period-range token such as "P1-P3" parses.
func ValidPeriodRange(token string) bool {
	_, _, ok := parsePeriodRange(token)
	return ok
}

// allowedPeriods computes the 0-based period indices a constraint may use:
// its parsed range clamped to the grid width, minus the lunch index.
// ok=false means the constraint is malformed or the range collapses to nothing.
func allowedPeriods(cons Constraint, periods, lunch int) ([]int, bool) {
	start, end, ok := parsePeriodRange(cons.PeriodRange)
	if !ok {
		return nil, false
	}
	if start < 0 {
		start = 0
	}
	if end > periods-1 {
		end = periods - 1
	}
	if start > end {
		return nil, false
	}
	lunchIdx := lunchIndex(periods, lunch)
	var out []int
	for p := start; p <= end; p++ {
		if p == lunchIdx {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// lunchIndex converts the 1-based lunch setting to a 0-based index, -1 when
// no lunch block is configured.
func lunchIndex(periods, lunch int) int {
	if lunch >= 1 && lunch <= periods {
		return lunch - 1
	}
	return -1
}

// courseLabel picks the display label for a course: name, then code, then a
// generated fallback.
func courseLabel(c Course) string {
	if label := strings.TrimSpace(c.Name); label != "" {
		return label
	}
	if label := strings.TrimSpace(c.Code); label != "" {
		return label
	}
	return fmt.Sprintf("C%d", c.ID)
}

// labelMap builds the normalized-key to display-label lookup for a course
// list, keyed by label, code and name. Blank entries are skipped.
func labelMap(courses []Course) map[string]string {
	mapping := make(map[string]string, len(courses)*2)
	for _, c := range courses {
		label := courseLabel(c)
		if key := normalizeText(label); key != "" {
			mapping[key] = label
		}
		if key := normalizeText(c.Code); key != "" {
			mapping[key] = label
		}
		if key := normalizeText(c.Name); key != "" {
			mapping[key] = label
		}
	}
	return mapping
}

// emptyGrid allocates a grid with one row per weekday, lunch pre-marked.
func emptyGrid(periods, lunch int) Grid {
	lunchIdx := lunchIndex(periods, lunch)
	grid := make(Grid, len(Weekdays))
	for _, day := range Weekdays {
		row := make([]string, periods)
		if lunchIdx >= 0 {
			row[lunchIdx] = LunchLabel
		}
		grid[day] = row
	}
	return grid
}
