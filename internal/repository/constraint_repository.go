package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arkan-dev/timetable-api/internal/models"
)

// ConstraintRepository handles persistence for scheduling constraints.
type ConstraintRepository struct {
	db *sqlx.DB
}

// NewConstraintRepository creates a new repository instance.
func NewConstraintRepository(db *sqlx.DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

// List returns constraints matching filters with pagination metadata.
func (r *ConstraintRepository) List(ctx context.Context, filter models.ConstraintFilter) ([]models.SchedulingConstraint, int, error) {
	base := "FROM scheduling_constraints WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day = $%d", len(args)+1))
		args = append(args, filter.Day)
	}
	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, filter.Kind)
	}
	if filter.Enabled != nil {
		conditions = append(conditions, fmt.Sprintf("enabled = $%d", len(args)+1))
		args = append(args, *filter.Enabled)
	}
	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)+1))
		args = append(args, filter.OwnerID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(course_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, course_name, section, day, period_range, kind, mode, enabled, owner_id, created_at, updated_at %s ORDER BY created_at ASC LIMIT %d OFFSET %d", base, size, offset)
	var constraints []models.SchedulingConstraint
	if err := r.db.SelectContext(ctx, &constraints, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list constraints: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count constraints: %w", err)
	}

	return constraints, total, nil
}

// ListEnabledByOwner returns the active rules for a user in insertion order.
// Order matters: the greedy solver honours constraints first-come-first-served.
func (r *ConstraintRepository) ListEnabledByOwner(ctx context.Context, ownerID string) ([]models.SchedulingConstraint, error) {
	const query = `SELECT id, course_name, section, day, period_range, kind, mode, enabled, owner_id, created_at, updated_at FROM scheduling_constraints WHERE owner_id = $1 AND enabled = TRUE ORDER BY id ASC`
	var constraints []models.SchedulingConstraint
	if err := r.db.SelectContext(ctx, &constraints, query, ownerID); err != nil {
		return nil, fmt.Errorf("list enabled constraints: %w", err)
	}
	return constraints, nil
}

// FindByID returns a constraint by id.
func (r *ConstraintRepository) FindByID(ctx context.Context, id int64) (*models.SchedulingConstraint, error) {
	const query = `SELECT id, course_name, section, day, period_range, kind, mode, enabled, owner_id, created_at, updated_at FROM scheduling_constraints WHERE id = $1`
	var cons models.SchedulingConstraint
	if err := r.db.GetContext(ctx, &cons, query, id); err != nil {
		return nil, err
	}
	return &cons, nil
}

// Create persists a new constraint, filling in the generated id.
func (r *ConstraintRepository) Create(ctx context.Context, cons *models.SchedulingConstraint) error {
	now := time.Now().UTC()
	if cons.CreatedAt.IsZero() {
		cons.CreatedAt = now
	}
	cons.UpdatedAt = now

	const query = `INSERT INTO scheduling_constraints (course_name, section, day, period_range, kind, mode, enabled, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.GetContext(ctx, &cons.ID, query, cons.CourseName, cons.Section, cons.Day, cons.PeriodRange, cons.Kind, cons.Mode, cons.Enabled, cons.OwnerID, cons.CreatedAt, cons.UpdatedAt); err != nil {
		return fmt.Errorf("create constraint: %w", err)
	}
	return nil
}

// Update modifies a constraint.
func (r *ConstraintRepository) Update(ctx context.Context, cons *models.SchedulingConstraint) error {
	cons.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scheduling_constraints SET course_name = :course_name, section = :section, day = :day, period_range = :period_range, kind = :kind, mode = :mode, enabled = :enabled, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, cons); err != nil {
		return fmt.Errorf("update constraint: %w", err)
	}
	return nil
}

// Delete removes a constraint record.
func (r *ConstraintRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM scheduling_constraints WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete constraint: %w", err)
	}
	return nil
}
