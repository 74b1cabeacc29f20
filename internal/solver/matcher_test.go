package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func matcherFixture() map[int]Course {
	return courseIndex([]Course{
		{ID: 1, Name: "Advanced Math", Code: "MATH201", Section: "A"},
		{ID: 2, Name: "English Literature", Code: "ENG10", Section: "B"},
		{ID: 3, Name: "Chemistry", Code: "CHEM1", Section: "A"},
		{ID: 4, Name: "Math Lab", Code: "MATH201L", Section: "B"},
	})
}

func TestMatchConstraintExactTierWins(t *testing.T) {
	cids := matchConstraint(Constraint{CourseName: "advanced math"}, matcherFixture())
	assert.Equal(t, []int{1}, cids, "exact name match only, token tier never reached")

	cids = matchConstraint(Constraint{CourseName: "ENG10"}, matcherFixture())
	assert.Equal(t, []int{2}, cids, "code matches count as exact")
}

func TestMatchConstraintTokenTier(t *testing.T) {
	cids := matchConstraint(Constraint{CourseName: "math/science"}, matcherFixture())
	assert.Equal(t, []int{1, 4}, cids, "token containment in ascending ID order")
}

func TestMatchConstraintNoTierMatches(t *testing.T) {
	cids := matchConstraint(Constraint{CourseName: "Ancient History"}, matcherFixture())
	assert.Empty(t, cids)
}

func TestHasAffix(t *testing.T) {
	assert.True(t, hasAffix("english literature", "english literature and composition"))
	assert.True(t, hasAffix("advanced math", "math"))
	assert.False(t, hasAffix("chemistry", "physics"))
	assert.False(t, hasAffix("", "math"))
}

func TestMatchConstraintSectionFilter(t *testing.T) {
	cids := matchConstraint(Constraint{CourseName: "Advanced Math", Section: "B"}, matcherFixture())
	assert.Equal(t, []int{4}, cids, "section filter empties the exact tier; the token tier still matches Math Lab")

	cids = matchConstraint(Constraint{CourseName: "Advanced Math", Section: "ALL"}, matcherFixture())
	assert.Equal(t, []int{1}, cids)

	cids = matchConstraint(Constraint{CourseName: "math", Section: "B"}, matcherFixture())
	assert.Equal(t, []int{4}, cids, "token tier also honors the section filter")
}

func TestMatchConstraintBlankReference(t *testing.T) {
	assert.Empty(t, matchConstraint(Constraint{CourseName: "   "}, matcherFixture()))
}
