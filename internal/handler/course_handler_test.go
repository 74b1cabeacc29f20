package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkan-dev/timetable-api/internal/dto"
	"github.com/arkan-dev/timetable-api/internal/models"
	appErrors "github.com/arkan-dev/timetable-api/pkg/errors"
)

type courseManagerMock struct {
	lastFilter models.CourseFilter
	createReq  dto.CreateCourseRequest
	createErr  error
	getErr     error
}

func (m *courseManagerMock) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	m.lastFilter = filter
	return []models.Course{{ID: 1, Name: "Algorithms"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *courseManagerMock) Get(ctx context.Context, id int64) (*models.Course, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &models.Course{ID: id, Name: "Algorithms"}, nil
}

func (m *courseManagerMock) Create(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	m.createReq = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Course{ID: 1, Name: req.Name, Code: req.Code}, nil
}

func (m *courseManagerMock) Update(ctx context.Context, id int64, req dto.UpdateCourseRequest) (*models.Course, error) {
	return &models.Course{ID: id}, nil
}

func (m *courseManagerMock) Delete(ctx context.Context, id int64) error {
	return nil
}

func TestCourseHandlerListParsesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &courseManagerMock{}
	h := &CourseHandler{service: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/courses?published=true&section=A&page=2", nil)
	c.Request = req

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastFilter.Published)
	assert.True(t, *mockSvc.lastFilter.Published)
	assert.Equal(t, "A", mockSvc.lastFilter.Section)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
}

func TestCourseHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &courseManagerMock{}
	h := &CourseHandler{service: mockSvc}

	payload := []byte(`{"name":"Algorithms","code":"CS201","credits":3}`)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/courses", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Algorithms", mockSvc.createReq.Name)
	assert.Equal(t, 3, mockSvc.createReq.Credits)
}

func TestCourseHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &courseManagerMock{createErr: appErrors.Clone(appErrors.ErrConflict, "course code already exists")}
	h := &CourseHandler{service: mockSvc}

	payload := []byte(`{"name":"Algorithms","code":"CS201","credits":3}`)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/courses", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCourseHandlerGetBadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &CourseHandler{service: &courseManagerMock{}}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/courses/abc", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	h.Get(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
