package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTextCollapsesWhitespaceAndCase(t *testing.T) {
	assert.Equal(t, "advanced math", normalizeText("  Advanced\t Math "))
	assert.Equal(t, "", normalizeText("   "))
}

func TestCanonicalDay(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"monday", "Monday", true},
		{" FRIDAY ", "Friday", true},
		{"Wednesday", "Wednesday", true},
		{"Funday", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		day, ok := canonicalDay(tc.raw)
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.want, day, tc.raw)
	}
}

func TestParsePeriodRange(t *testing.T) {
	start, end, ok := parsePeriodRange("P1-P3")
	require.True(t, ok)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)

	start, end, ok = parsePeriodRange("p4")
	require.True(t, ok)
	assert.Equal(t, 3, start)
	assert.Equal(t, 3, end)

	start, end, ok = parsePeriodRange("P5-P2")
	require.True(t, ok)
	assert.Equal(t, 1, start)
	assert.Equal(t, 4, end)

	_, _, ok = parsePeriodRange("first-third")
	assert.False(t, ok)
	_, _, ok = parsePeriodRange("")
	assert.False(t, ok)
}

func TestAllowedPeriodsExcludesLunchAndClamps(t *testing.T) {
	cons := Constraint{PeriodRange: "P1-P4"}
	indices, ok := allowedPeriods(cons, 4, 3)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 3}, indices)

	cons = Constraint{PeriodRange: "P3"}
	_, ok = allowedPeriods(cons, 4, 3)
	assert.False(t, ok, "a range made of only the lunch period collapses")

	cons = Constraint{PeriodRange: "P2-P9"}
	indices, ok = allowedPeriods(cons, 4, 0)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, indices)
}

func TestLabelMapKeysByNameAndCode(t *testing.T) {
	mapping := labelMap([]Course{
		{ID: 1, Name: "Advanced Math", Code: "MATH201"},
		{ID: 2, Name: "", Code: "ENG10"},
		{ID: 3},
	})
	assert.Equal(t, "Advanced Math", mapping["advanced math"])
	assert.Equal(t, "Advanced Math", mapping["math201"])
	assert.Equal(t, "ENG10", mapping["eng10"])
	assert.Equal(t, "C3", mapping["c3"])
}

func TestEmptyGridMarksLunch(t *testing.T) {
	grid := emptyGrid(4, 3)
	require.Len(t, grid, len(Weekdays))
	for _, day := range Weekdays {
		require.Len(t, grid[day], 4)
		assert.Equal(t, LunchLabel, grid[day][2])
	}
}
