package solver

import (
	"math/rand"
	"strings"
)

// earlyExitFraction stops the swap loop once the diversity score reaches this
// share of the theoretical maximum (one distinct label per day per column).
const earlyExitFraction = 0.7

// DiversityScore counts the distinct non-empty, non-lunch labels in each
// period column, summed over all periods. Higher means more varied days.
func DiversityScore(grid Grid) float64 {
	periods := 0
	for _, row := range grid {
		periods = len(row)
		break
	}
	score := 0.0
	for p := 0; p < periods; p++ {
		seen := make(map[string]struct{})
		for _, row := range grid {
			if p >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[p])
			if cell == "" || strings.EqualFold(cell, LunchLabel) {
				continue
			}
			seen[strings.ToLower(cell)] = struct{}{}
		}
		score += float64(len(seen))
	}
	return score
}

// Improve runs randomized pairwise cell swaps to raise the diversity score
// without breaking constraint validity. A swap is kept only when the swapped
// grid still validates and strictly improves the score. The lunch column is
// never touched. Returns the improved grid and the number of accepted swaps.
func Improve(grid Grid, constraints []Constraint, lunch int, maxIters int, seed int64) (Grid, int) {
	best := grid.Clone()
	bestScore := DiversityScore(best)

	days := make([]string, 0, len(best))
	periods := 0
	for _, day := range Weekdays {
		if row, ok := best[day]; ok {
			days = append(days, day)
			periods = len(row)
		}
	}
	lunchIdx := lunchIndex(periods, lunch)

	type cell struct {
		day    string
		period int
	}
	var slots []cell
	for _, day := range days {
		for p := 0; p < periods; p++ {
			if p == lunchIdx {
				continue
			}
			slots = append(slots, cell{day: day, period: p})
		}
	}
	if len(slots) < 2 {
		return best, 0
	}

	ceiling := float64(len(slots)) * earlyExitFraction
	rng := rand.New(rand.NewSource(seed))
	accepted := 0
	for i := 0; i < maxIters; i++ {
		a := slots[rng.Intn(len(slots))]
		b := slots[rng.Intn(len(slots))]
		if a == b || best[a.day][a.period] == best[b.day][b.period] {
			continue
		}
		candidate := best.Clone()
		candidate[a.day][a.period], candidate[b.day][b.period] = candidate[b.day][b.period], candidate[a.day][a.period]
		if valid, _ := Validate(candidate, constraints, lunch); !valid {
			continue
		}
		if score := DiversityScore(candidate); score > bestScore {
			best = candidate
			bestScore = score
			accepted++
			if bestScore >= ceiling {
				break
			}
		}
	}
	return best, accepted
}
