package solver

import (
	"fmt"
	"math/rand"
)

// solveGreedy is the always-available constructive fallback. Constraints are
// placed first in input order, then every remaining free cell is filled
// round-robin from a seeded shuffle of the course labels. The filler phase
// does not check teacher or section conflicts; the exact solver is the only
// path that guarantees those.
//
// Returns the grid and the descriptions of constraints skipped as malformed.
func solveGreedy(courses []Course, constraints []Constraint, periods, lunch int, seed int64) (Grid, []string) {
	grid := emptyGrid(periods, lunch)
	index := courseIndex(courses)

	var skipped []string
	for _, cons := range constraints {
		day, dayOK := canonicalDay(cons.Day)
		indices, rangeOK := allowedPeriods(cons, periods, lunch)
		if !dayOK || !rangeOK {
			skipped = append(skipped, fmt.Sprintf("%s on %q (%s)", cons.CourseName, cons.Day, cons.PeriodRange))
			continue
		}

		cids := matchConstraint(cons, index)
		if len(cids) == 0 {
			// No known course: drop the literal text into the window.
			placeOne(grid[day], indices, cons.CourseName)
			continue
		}

		label := courseLabel(index[cids[0]])
		if cons.Kind == KindExact {
			for _, p := range indices {
				if grid[day][p] == "" {
					grid[day][p] = label
				}
			}
		} else {
			placeOne(grid[day], indices, label)
		}
	}

	labels := make([]string, 0, len(courses))
	for _, c := range courses {
		labels = append(labels, courseLabel(c))
	}
	if len(labels) == 0 {
		labels = []string{"Free"}
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(labels), func(i, j int) {
		labels[i], labels[j] = labels[j], labels[i]
	})

	next := 0
	for p := 0; p < periods; p++ {
		for _, day := range Weekdays {
			if grid[day][p] == "" {
				grid[day][p] = labels[next%len(labels)]
				next++
			}
		}
	}
	return grid, skipped
}

// placeOne writes the label into the first empty allowed cell, overwriting
// the first allowed cell when none is free.
func placeOne(row []string, indices []int, label string) {
	for _, p := range indices {
		if row[p] == "" {
			row[p] = label
			return
		}
	}
	row[indices[0]] = label
}
