package solver

import (
	"sort"
	"strings"
)

// matchConstraint resolves a constraint's free-text course reference to the
// ordered IDs of candidate courses. Matching is tiered and the first tier
// producing candidates wins:
//
//  1. exact: normalized constraint text equals a course's normalized name or code
//  2. token: any whitespace//-delimited token of the text is contained in, or
//     contains, the course's normalized name or code
//  3. affix: the text is a prefix or suffix of the name/code, or vice versa
//
// A non-ALL section filter restricts every tier. Candidates are returned in
// ascending course-ID order so results are reproducible.
func matchConstraint(cons Constraint, courses map[int]Course) []int {
	target := normalizeText(cons.CourseName)
	if target == "" {
		return nil
	}
	section := strings.TrimSpace(cons.Section)
	if section == "" {
		section = SectionAll
	}

	ids := make([]int, 0, len(courses))
	for id := range courses {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	sectionOK := func(c Course) bool {
		if strings.EqualFold(section, SectionAll) {
			return true
		}
		courseSection := strings.TrimSpace(c.Section)
		if courseSection == "" {
			courseSection = SectionAll
		}
		return courseSection == section
	}

	var matches []int
	for _, id := range ids {
		c := courses[id]
		if !sectionOK(c) {
			continue
		}
		if normalizeText(c.Name) == target || normalizeText(c.Code) == target {
			matches = append(matches, id)
		}
	}
	if len(matches) > 0 {
		return matches
	}

	tokens := tokenizeReference(target)
	for _, id := range ids {
		c := courses[id]
		if !sectionOK(c) {
			continue
		}
		name := normalizeText(c.Name)
		code := normalizeText(c.Code)
		for _, tk := range tokens {
			if containsEither(tk, name) || containsEither(tk, code) {
				matches = append(matches, id)
				break
			}
		}
	}
	if len(matches) > 0 {
		return matches
	}

	for _, id := range ids {
		c := courses[id]
		if !sectionOK(c) {
			continue
		}
		name := normalizeText(c.Name)
		code := normalizeText(c.Code)
		if hasAffix(name, target) || hasAffix(code, target) {
			matches = append(matches, id)
		}
	}
	return matches
}

// tokenizeReference splits a normalized reference on whitespace, "/" and "-".
func tokenizeReference(target string) []string {
	replaced := strings.NewReplacer("/", " ", "-", " ").Replace(target)
	return strings.Fields(replaced)
}

// containsEither reports substring containment in either direction, treating
// empty values as non-matching.
func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// hasAffix reports whether either string is a prefix or suffix of the other.
func hasAffix(value, target string) bool {
	if value == "" || target == "" {
		return false
	}
	return strings.HasPrefix(value, target) || strings.HasSuffix(value, target) ||
		strings.HasPrefix(target, value) || strings.HasSuffix(target, value)
}

// courseIndex builds the ID-keyed lookup both solvers work from.
func courseIndex(courses []Course) map[int]Course {
	index := make(map[int]Course, len(courses))
	for _, c := range courses {
		index[c.ID] = c
	}
	return index
}
