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
	"github.com/arkan-dev/timetable-api/internal/middleware"
	"github.com/arkan-dev/timetable-api/internal/models"
)

type constraintManagerMock struct {
	lastFilter  models.ConstraintFilter
	lastOwnerID string
	created     *models.SchedulingConstraint
}

func (m *constraintManagerMock) List(ctx context.Context, filter models.ConstraintFilter) ([]models.SchedulingConstraint, *models.Pagination, error) {
	m.lastFilter = filter
	return nil, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (m *constraintManagerMock) Get(ctx context.Context, id int64) (*models.SchedulingConstraint, error) {
	return &models.SchedulingConstraint{ID: id}, nil
}

func (m *constraintManagerMock) Create(ctx context.Context, ownerID string, req dto.CreateConstraintRequest) (*models.SchedulingConstraint, error) {
	m.lastOwnerID = ownerID
	m.created = &models.SchedulingConstraint{ID: 1, CourseName: req.CourseName, OwnerID: ownerID}
	return m.created, nil
}

func (m *constraintManagerMock) Update(ctx context.Context, id int64, actor *models.JWTClaims, req dto.UpdateConstraintRequest) (*models.SchedulingConstraint, error) {
	return &models.SchedulingConstraint{ID: id}, nil
}

func (m *constraintManagerMock) Delete(ctx context.Context, id int64, actor *models.JWTClaims) error {
	return nil
}

func TestConstraintHandlerListScopesTeachers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &constraintManagerMock{}
	h := &ConstraintHandler{service: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/constraints?day=Monday", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher})

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", mockSvc.lastFilter.OwnerID)
	assert.Equal(t, "Monday", mockSvc.lastFilter.Day)
}

func TestConstraintHandlerListAdminUnscoped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &constraintManagerMock{}
	h := &ConstraintHandler{service: mockSvc}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/constraints", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin})

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, mockSvc.lastFilter.OwnerID)
}

func TestConstraintHandlerCreateSetsOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &constraintManagerMock{}
	h := &ConstraintHandler{service: mockSvc}

	payload := []byte(`{"courseName":"Algorithms","day":"Monday","periodRange":"P1-P2","kind":"Hard"}`)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/constraints", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher})

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "u1", mockSvc.lastOwnerID)
}

func TestConstraintHandlerGetBadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &ConstraintHandler{service: &constraintManagerMock{}}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/constraints/abc", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	h.Get(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
