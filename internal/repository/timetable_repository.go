package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arkan-dev/timetable-api/internal/models"
)

// TimetableRepository handles persistence for saved timetable sets and their
// grid entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new repository instance.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// SaveWithEntries persists a set and all its grid cells in one transaction.
func (r *TimetableRepository) SaveWithEntries(ctx context.Context, set *models.TimetableSet, entries []models.TimetableEntry) error {
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if set.CreatedAt.IsZero() {
		set.CreatedAt = now
	}
	set.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin timetable tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const setQuery = `INSERT INTO timetable_sets (id, name, owner_id, periods, lunch_period, source, valid, score, solve_millis, created_at, updated_at) VALUES (:id, :name, :owner_id, :periods, :lunch_period, :source, :valid, :score, :solve_millis, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, setQuery, set); err != nil {
		return fmt.Errorf("insert timetable set: %w", err)
	}

	const entryQuery = `INSERT INTO timetable_entries (id, set_id, day, period, label) VALUES (:id, :set_id, :day, :period, :label)`
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		entries[i].SetID = set.ID
	}
	if len(entries) > 0 {
		if _, err := tx.NamedExecContext(ctx, entryQuery, entries); err != nil {
			return fmt.Errorf("insert timetable entries: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit timetable tx: %w", err)
	}
	return nil
}

// List returns sets matching filters with pagination metadata.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableSetFilter) ([]models.TimetableSet, int, error) {
	base := "FROM timetable_sets WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)+1))
		args = append(args, filter.OwnerID)
	}
	if filter.Valid != nil {
		conditions = append(conditions, fmt.Sprintf("valid = $%d", len(args)+1))
		args = append(args, *filter.Valid)
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

	query := fmt.Sprintf("SELECT id, name, owner_id, periods, lunch_period, source, valid, score, solve_millis, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)
	var sets []models.TimetableSet
	if err := r.db.SelectContext(ctx, &sets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetable sets: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetable sets: %w", err)
	}

	return sets, total, nil
}

// FindByID returns a set by id.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableSet, error) {
	const query = `SELECT id, name, owner_id, periods, lunch_period, source, valid, score, solve_millis, created_at, updated_at FROM timetable_sets WHERE id = $1`
	var set models.TimetableSet
	if err := r.db.GetContext(ctx, &set, query, id); err != nil {
		return nil, err
	}
	return &set, nil
}

// ListEntries returns the grid cells for a set ordered by day and period.
func (r *TimetableRepository) ListEntries(ctx context.Context, setID string) ([]models.TimetableEntry, error) {
	const query = `SELECT id, set_id, day, period, label FROM timetable_entries WHERE set_id = $1 ORDER BY day ASC, period ASC`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, setID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// Delete removes a set and cascades to its entries.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE set_id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable_sets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable set: %w", err)
	}
	return tx.Commit()
}
