package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arkan-dev/timetable-api/internal/dto"
	"github.com/arkan-dev/timetable-api/internal/models"
	"github.com/arkan-dev/timetable-api/internal/service"
	appErrors "github.com/arkan-dev/timetable-api/pkg/errors"
	"github.com/arkan-dev/timetable-api/pkg/response"
)

type constraintManager interface {
	List(ctx context.Context, filter models.ConstraintFilter) ([]models.SchedulingConstraint, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.SchedulingConstraint, error)
	Create(ctx context.Context, ownerID string, req dto.CreateConstraintRequest) (*models.SchedulingConstraint, error)
	Update(ctx context.Context, id int64, actor *models.JWTClaims, req dto.UpdateConstraintRequest) (*models.SchedulingConstraint, error)
	Delete(ctx context.Context, id int64, actor *models.JWTClaims) error
}

// ConstraintHandler handles placement rule endpoints.
type ConstraintHandler struct {
	service constraintManager
}

// NewConstraintHandler creates a new constraint handler.
func NewConstraintHandler(svc *service.ConstraintService) *ConstraintHandler {
	return &ConstraintHandler{service: svc}
}

// List godoc
// @Summary List constraints
// @Description List scheduling constraints. Teachers see their own rules.
// @Tags Constraints
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param day query string false "Day filter"
// @Param kind query string false "Kind filter"
// @Param enabled query bool false "Enabled filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /constraints [get]
func (h *ConstraintHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.ConstraintFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if enabled := c.Query("enabled"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			filter.Enabled = &val
		}
	}
	filter.Day = c.Query("day")
	filter.Kind = c.Query("kind")
	filter.Search = c.Query("search")
	if claims.Role != models.RoleAdmin {
		filter.OwnerID = claims.UserID
	}

	constraints, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, constraints, pagination)
}

// Get godoc
// @Summary Get constraint
// @Tags Constraints
// @Produce json
// @Param id path int true "Constraint ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /constraints/{id} [get]
func (h *ConstraintHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "constraint id must be numeric"))
		return
	}

	cons, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, cons, nil)
}

// Create godoc
// @Summary Create constraint
// @Tags Constraints
// @Accept json
// @Produce json
// @Param payload body dto.CreateConstraintRequest true "Create constraint payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /constraints [post]
func (h *ConstraintHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateConstraintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid constraint payload"))
		return
	}

	cons, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, cons)
}

// Update godoc
// @Summary Update constraint
// @Tags Constraints
// @Accept json
// @Produce json
// @Param id path int true "Constraint ID"
// @Param payload body dto.UpdateConstraintRequest true "Update constraint payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /constraints/{id} [put]
func (h *ConstraintHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "constraint id must be numeric"))
		return
	}

	var req dto.UpdateConstraintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid constraint payload"))
		return
	}

	cons, err := h.service.Update(c.Request.Context(), id, claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, cons, nil)
}

// Delete godoc
// @Summary Delete constraint
// @Tags Constraints
// @Produce json
// @Param id path int true "Constraint ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /constraints/{id} [delete]
func (h *ConstraintHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "constraint id must be numeric"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, claims); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
