package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arkan-dev/timetable-api/internal/dto"
	"github.com/arkan-dev/timetable-api/internal/models"
	appErrors "github.com/arkan-dev/timetable-api/pkg/errors"
)

type mockCourseRepo struct {
	courses    map[int64]*models.Course
	nextID     int64
	codeExists bool
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var out []models.Course
	for _, c := range m.courses {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	return m.codeExists, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.courses == nil {
		m.courses = make(map[int64]*models.Course)
	}
	m.nextID++
	course.ID = m.nextID
	copied := *course
	m.courses[course.ID] = &copied
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	copied := *course
	m.courses[course.ID] = &copied
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id int64) error {
	delete(m.courses, id)
	return nil
}

func TestCourseServiceCreateUppercasesCode(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := NewCourseService(repo, validator.New(), zap.NewNop())

	course, err := svc.Create(context.Background(), dto.CreateCourseRequest{Name: "Algorithms", Code: "cs201", Credits: 3})
	require.NoError(t, err)
	assert.Equal(t, "CS201", course.Code)
	assert.NotZero(t, course.ID)
}

func TestCourseServiceCreateDuplicateCode(t *testing.T) {
	repo := &mockCourseRepo{codeExists: true}
	svc := NewCourseService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), dto.CreateCourseRequest{Name: "Algorithms", Code: "CS201", Credits: 3})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceCreateInvalidCredits(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := NewCourseService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), dto.CreateCourseRequest{Name: "Algorithms", Credits: 0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceUpdatePatchesFields(t *testing.T) {
	repo := &mockCourseRepo{courses: map[int64]*models.Course{
		1: {ID: 1, Name: "Algorithms", Code: "CS201", Credits: 3},
	}}
	svc := NewCourseService(repo, validator.New(), zap.NewNop())

	credits := 4
	published := true
	course, err := svc.Update(context.Background(), 1, dto.UpdateCourseRequest{Credits: &credits, Published: &published})
	require.NoError(t, err)
	assert.Equal(t, 4, course.Credits)
	assert.True(t, course.Published)
	assert.Equal(t, "Algorithms", course.Name)
}

func TestCourseServiceUpdateClearsTeacher(t *testing.T) {
	teacherID := "t-1"
	repo := &mockCourseRepo{courses: map[int64]*models.Course{
		1: {ID: 1, Name: "Algorithms", Credits: 3, TeacherID: &teacherID},
	}}
	svc := NewCourseService(repo, validator.New(), zap.NewNop())

	empty := ""
	course, err := svc.Update(context.Background(), 1, dto.UpdateCourseRequest{TeacherID: &empty})
	require.NoError(t, err)
	assert.Nil(t, course.TeacherID)
}

func TestCourseServiceUpdateRejectsMalformedTeacher(t *testing.T) {
	repo := &mockCourseRepo{courses: map[int64]*models.Course{
		1: {ID: 1, Name: "Algorithms", Credits: 3},
	}}
	svc := NewCourseService(repo, validator.New(), zap.NewNop())

	bad := "not-a-uuid"
	_, err := svc.Update(context.Background(), 1, dto.UpdateCourseRequest{TeacherID: &bad})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	valid := "7b4a1f6e-0c2d-4f3a-9a61-1d2e3f4a5b6c"
	course, err := svc.Update(context.Background(), 1, dto.UpdateCourseRequest{TeacherID: &valid})
	require.NoError(t, err)
	require.NotNil(t, course.TeacherID)
	assert.Equal(t, valid, *course.TeacherID)
}

func TestCourseServiceGetNotFound(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceDelete(t *testing.T) {
	repo := &mockCourseRepo{courses: map[int64]*models.Course{1: {ID: 1, Name: "Algorithms", Credits: 3}}}
	svc := NewCourseService(repo, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.Empty(t, repo.courses)
}
