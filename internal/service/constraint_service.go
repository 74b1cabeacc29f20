package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/arkan-dev/timetable-api/internal/dto"
	"github.com/arkan-dev/timetable-api/internal/models"
	"github.com/arkan-dev/timetable-api/internal/solver"
	appErrors "github.com/arkan-dev/timetable-api/pkg/errors"
)

type constraintRepository interface {
	List(ctx context.Context, filter models.ConstraintFilter) ([]models.SchedulingConstraint, int, error)
	FindByID(ctx context.Context, id int64) (*models.SchedulingConstraint, error)
	Create(ctx context.Context, cons *models.SchedulingConstraint) error
	Update(ctx context.Context, cons *models.SchedulingConstraint) error
	Delete(ctx context.Context, id int64) error
}

// ConstraintService handles placement rule workflows. Days and period ranges
// are canonicalised at write time so stored rules never need re-parsing.
type ConstraintService struct {
	repo      constraintRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConstraintService creates a new constraint service.
func NewConstraintService(repo constraintRepository, validate *validator.Validate, logger *zap.Logger) *ConstraintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated constraints.
func (s *ConstraintService) List(ctx context.Context, filter models.ConstraintFilter) ([]models.SchedulingConstraint, *models.Pagination, error) {
	constraints, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list constraints")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return constraints, pagination, nil
}

// Get returns a constraint by identifier.
func (s *ConstraintService) Get(ctx context.Context, id int64) (*models.SchedulingConstraint, error) {
	cons, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "constraint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load constraint")
	}
	return cons, nil
}

// Create adds a new placement rule for the owner.
func (s *ConstraintService) Create(ctx context.Context, ownerID string, req dto.CreateConstraintRequest) (*models.SchedulingConstraint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid constraint payload")
	}

	day, ok := solver.CanonicalDay(req.Day)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day must be a weekday Monday through Friday")
	}
	if !solver.ValidPeriodRange(req.PeriodRange) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period range must look like P2 or P1-P3")
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	cons := &models.SchedulingConstraint{
		CourseName:  strings.TrimSpace(req.CourseName),
		Section:     strings.TrimSpace(req.Section),
		Day:         day,
		PeriodRange: strings.ToUpper(strings.TrimSpace(req.PeriodRange)),
		Kind:        models.ConstraintKind(req.Kind),
		Mode:        strings.TrimSpace(req.Mode),
		Enabled:     enabled,
		OwnerID:     ownerID,
	}

	if err := s.repo.Create(ctx, cons); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create constraint")
	}
	return cons, nil
}

// Update modifies an existing constraint. Only the owner or an admin may
// touch a rule; the handler enforces the role, this check covers ownership.
func (s *ConstraintService) Update(ctx context.Context, id int64, actor *models.JWTClaims, req dto.UpdateConstraintRequest) (*models.SchedulingConstraint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid constraint payload")
	}

	cons, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.Role != models.RoleAdmin && cons.OwnerID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "constraint belongs to another user")
	}

	if req.CourseName != nil {
		cons.CourseName = strings.TrimSpace(*req.CourseName)
	}
	if req.Section != nil {
		cons.Section = strings.TrimSpace(*req.Section)
	}
	if req.Day != nil {
		day, ok := solver.CanonicalDay(*req.Day)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "day must be a weekday Monday through Friday")
		}
		cons.Day = day
	}
	if req.PeriodRange != nil {
		if !solver.ValidPeriodRange(*req.PeriodRange) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "period range must look like P2 or P1-P3")
		}
		cons.PeriodRange = strings.ToUpper(strings.TrimSpace(*req.PeriodRange))
	}
	if req.Kind != nil {
		cons.Kind = models.ConstraintKind(*req.Kind)
	}
	if req.Mode != nil {
		cons.Mode = strings.TrimSpace(*req.Mode)
	}
	if req.Enabled != nil {
		cons.Enabled = *req.Enabled
	}

	if err := s.repo.Update(ctx, cons); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update constraint")
	}
	return cons, nil
}

// Delete removes a constraint.
func (s *ConstraintService) Delete(ctx context.Context, id int64, actor *models.JWTClaims) error {
	cons, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if actor != nil && actor.Role != models.RoleAdmin && cons.OwnerID != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "constraint belongs to another user")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete constraint")
	}
	return nil
}
