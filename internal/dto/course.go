package dto

// CreateCourseRequest registers a course in the catalog.
type CreateCourseRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=120"`
	Code      string `json:"code" validate:"omitempty,max=32"`
	Credits   int    `json:"credits" validate:"required,min=1,max=40"`
	Section   string `json:"section" validate:"omitempty,max=32"`
	TeacherID string `json:"teacherId" validate:"omitempty,uuid"`
	Published bool   `json:"published"`
}

// UpdateCourseRequest patches mutable course fields.
type UpdateCourseRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=120"`
	Code      *string `json:"code" validate:"omitempty,max=32"`
	Credits   *int    `json:"credits" validate:"omitempty,min=1,max=40"`
	Section   *string `json:"section" validate:"omitempty,max=32"`
	// An empty string clears the assignment, so UUID shape is checked in the
	// service rather than by tag.
	TeacherID *string `json:"teacherId"`
	Published *bool   `json:"published"`
}

// CreateConstraintRequest registers a placement rule.
type CreateConstraintRequest struct {
	CourseName  string `json:"courseName" validate:"required,min=1,max=120"`
	Section     string `json:"section" validate:"omitempty,max=32"`
	Day         string `json:"day" validate:"required"`
	PeriodRange string `json:"periodRange" validate:"required,max=16"`
	Kind        string `json:"kind" validate:"required,oneof=Hard Exact"`
	Mode        string `json:"mode" validate:"omitempty,max=32"`
	Enabled     *bool  `json:"enabled"`
}

// UpdateConstraintRequest patches mutable constraint fields.
type UpdateConstraintRequest struct {
	CourseName  *string `json:"courseName" validate:"omitempty,min=1,max=120"`
	Section     *string `json:"section" validate:"omitempty,max=32"`
	Day         *string `json:"day"`
	PeriodRange *string `json:"periodRange" validate:"omitempty,max=16"`
	Kind        *string `json:"kind" validate:"omitempty,oneof=Hard Exact"`
	Mode        *string `json:"mode" validate:"omitempty,max=32"`
	Enabled     *bool   `json:"enabled"`
}
