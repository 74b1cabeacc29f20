package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arkan-dev/timetable-api/internal/dto"
	"github.com/arkan-dev/timetable-api/internal/models"
	"github.com/arkan-dev/timetable-api/internal/service"
	"github.com/arkan-dev/timetable-api/internal/solver"
	appErrors "github.com/arkan-dev/timetable-api/pkg/errors"
	"github.com/arkan-dev/timetable-api/pkg/export"
	"github.com/arkan-dev/timetable-api/pkg/response"
)

type timetableManager interface {
	Generate(ctx context.Context, actor *models.JWTClaims, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	Save(ctx context.Context, actor *models.JWTClaims, req dto.SaveTimetableRequest) (string, error)
	List(ctx context.Context, actor *models.JWTClaims, query dto.TimetableSetQuery) ([]models.TimetableSet, *models.Pagination, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.TimetableSet, solver.Grid, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	Validate(ctx context.Context, actor *models.JWTClaims, req dto.ValidateTimetableRequest) (*dto.ValidateTimetableResponse, error)
	ExportDataset(ctx context.Context, actor *models.JWTClaims, id string) (export.Dataset, string, error)
}

type generationManager interface {
	Enqueue(actor *models.JWTClaims, req dto.GenerateTimetableRequest) (*models.GenerationJob, error)
	Status(jobID string, actor *models.JWTClaims) (*models.GenerationJob, error)
	Cancel(jobID string, actor *models.JWTClaims) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// TimetableHandler exposes the timetable generation and management endpoints.
type TimetableHandler struct {
	service    timetableManager
	generation generationManager
	csv        csvRenderer
	pdf        pdfRenderer
}

// NewTimetableHandler constructs the handler. The generation service may be
// nil, which disables the async endpoints.
func NewTimetableHandler(svc *service.TimetableService, generation *service.GenerationService) *TimetableHandler {
	h := &TimetableHandler{
		service: svc,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
	if generation != nil {
		h.generation = generation
	}
	return h
}

// Generate godoc
// @Summary Generate a timetable proposal
// @Description Builds a weekly grid and caches it as a proposal until saved.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generate payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}

	res, err := h.service.Generate(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// GenerateAsync godoc
// @Summary Queue a timetable generation job
// @Description Runs the solve on the background worker pool.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generate payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/generate/async [post]
func (h *TimetableHandler) GenerateAsync(c *gin.Context) {
	if h.generation == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "async generation is disabled"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}

	job, err := h.generation.Enqueue(claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusAccepted, jobToDTO(job), nil)
}

// JobStatus godoc
// @Summary Get generation job status
// @Tags Timetables
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/jobs/{id} [get]
func (h *TimetableHandler) JobStatus(c *gin.Context) {
	if h.generation == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "async generation is disabled"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	job, err := h.generation.Status(c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, jobToDTO(job), nil)
}

// CancelJob godoc
// @Summary Cancel a queued generation job
// @Tags Timetables
// @Produce json
// @Param id path string true "Job ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/jobs/{id} [delete]
func (h *TimetableHandler) CancelJob(c *gin.Context) {
	if h.generation == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "async generation is disabled"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.generation.Cancel(c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Save godoc
// @Summary Save a cached proposal
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.SaveTimetableRequest true "Save payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables [post]
func (h *TimetableHandler) Save(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}

	id, err := h.service.Save(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"timetableId": id})
}

// List godoc
// @Summary List saved timetables
// @Tags Timetables
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Param valid query bool false "Validity filter"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.TimetableSetQuery
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("pageSize", "20")); err == nil {
		query.PageSize = size
	}
	if valid := c.Query("valid"); valid != "" {
		if val, err := strconv.ParseBool(valid); err == nil {
			query.Valid = &val
		}
	}

	sets, pagination, err := h.service.List(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sets, pagination)
}

// Get godoc
// @Summary Get a saved timetable with its grid
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	set, grid, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"timetable": set, "grid": grid}, nil)
}

// Delete godoc
// @Summary Delete a saved timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Validate godoc
// @Summary Validate a grid against constraints
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.ValidateTimetableRequest true "Validate payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/validate [post]
func (h *TimetableHandler) Validate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ValidateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validate payload"))
		return
	}

	res, err := h.service.Validate(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Export godoc
// @Summary Export a saved timetable as CSV or PDF
// @Tags Timetables
// @Produce octet-stream
// @Param id path string true "Timetable ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} byte
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dataset, title, err := h.service.ExportDataset(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	switch format {
	case "csv":
		payload, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(title, "csv")))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(dataset, title)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(title, "pdf")))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

func jobToDTO(job *models.GenerationJob) dto.GenerationJobResponse {
	return dto.GenerationJobResponse{
		JobID:      job.ID,
		Status:     string(job.Status),
		ProposalID: job.ProposalID,
		Error:      job.Error,
	}
}

func exportFilename(title, ext string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, title)
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "timetable"
	}
	return cleaned + "." + ext
}
