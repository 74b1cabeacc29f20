package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arkan-dev/timetable-api/internal/dto"
	"github.com/arkan-dev/timetable-api/internal/models"
	"github.com/arkan-dev/timetable-api/internal/solver"
	appErrors "github.com/arkan-dev/timetable-api/pkg/errors"
	"github.com/arkan-dev/timetable-api/pkg/export"
)

type catalogSource interface {
	ListPublished(ctx context.Context) ([]models.Course, error)
	ListPublishedByTeacher(ctx context.Context, teacherID string) ([]models.Course, error)
}

type ruleSource interface {
	ListEnabledByOwner(ctx context.Context, ownerID string) ([]models.SchedulingConstraint, error)
}

type timetableStore interface {
	SaveWithEntries(ctx context.Context, set *models.TimetableSet, entries []models.TimetableEntry) error
	List(ctx context.Context, filter models.TimetableSetFilter) ([]models.TimetableSet, int, error)
	FindByID(ctx context.Context, id string) (*models.TimetableSet, error)
	ListEntries(ctx context.Context, setID string) ([]models.TimetableEntry, error)
	Delete(ctx context.Context, id string) error
}

type proposalCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type gridEngine interface {
	Generate(req solver.Request) (*solver.Result, error)
}

type solveObserver interface {
	ObserveSolve(source string, duration time.Duration, fallback bool)
	RecordCacheOperation(hit bool)
}

const proposalKeyPrefix = "timetable:proposal:"

// TimetableConfig tunes generation defaults and proposal retention.
type TimetableConfig struct {
	DefaultPeriods    int
	DefaultLunch      int
	TimeLimit         time.Duration
	ImproveIterations int
	ProposalTTL       time.Duration
}

// timetableProposal is the cached payload between generate and save.
type timetableProposal struct {
	ID          string             `json:"id"`
	OwnerID     string             `json:"owner_id"`
	Name        string             `json:"name"`
	Periods     int                `json:"periods"`
	LunchPeriod int                `json:"lunch_period"`
	Grid        solver.Grid        `json:"grid"`
	Diagnostics solver.Diagnostics `json:"diagnostics"`
}

// TimetableService orchestrates grid generation, proposal caching,
// persistence, validation and export.
type TimetableService struct {
	courses     catalogSource
	constraints ruleSource
	store       timetableStore
	cache       proposalCache
	engine      gridEngine
	metrics     solveObserver
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         TimetableConfig
}

// NewTimetableService wires the service. The metrics observer may be nil.
func NewTimetableService(courses catalogSource, constraints ruleSource, store timetableStore, cache proposalCache, engine gridEngine, metrics solveObserver, validate *validator.Validate, logger *zap.Logger, cfg TimetableConfig) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPeriods <= 0 {
		cfg.DefaultPeriods = 8
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	return &TimetableService{
		courses:     courses,
		constraints: constraints,
		store:       store,
		cache:       cache,
		engine:      engine,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate builds a weekly grid for the caller and caches it as a proposal.
// Inline courses and constraints take precedence over the stored catalog.
func (s *TimetableService) Generate(ctx context.Context, actor *models.JWTClaims, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}

	periods := req.Periods
	if periods <= 0 {
		periods = s.cfg.DefaultPeriods
	}
	lunch := req.LunchPeriod
	if lunch == 0 {
		lunch = s.cfg.DefaultLunch
	}
	if lunch > periods {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lunch period %d is outside 1-%d", lunch, periods))
	}

	courses, err := s.resolveCourses(ctx, actor, req.Courses)
	if err != nil {
		return nil, err
	}
	constraints, err := s.resolveConstraints(ctx, actor.UserID, req.Constraints)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 && len(constraints) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to schedule: no courses and no constraints")
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	improve := req.ImproveIterations
	if improve == 0 {
		improve = s.cfg.ImproveIterations
	}
	timeLimit := s.cfg.TimeLimit
	if req.TimeLimitMs > 0 {
		timeLimit = time.Duration(req.TimeLimitMs) * time.Millisecond
	}

	solveReq := solver.Request{
		Courses:           courses,
		Constraints:       constraints,
		Periods:           periods,
		Lunch:             lunch,
		TimeLimit:         timeLimit,
		Seed:              seed,
		ImproveIterations: improve,
	}

	started := time.Now()
	result, err := s.engine.Generate(solveReq)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveSolve(result.Diagnostics.Path, time.Since(started), result.Diagnostics.Path != "exact")
	}

	proposal := timetableProposal{
		ID:          uuid.NewString(),
		OwnerID:     actor.UserID,
		Name:        strings.TrimSpace(req.Name),
		Periods:     periods,
		LunchPeriod: lunch,
		Grid:        result.Grid,
		Diagnostics: result.Diagnostics,
	}
	if err := s.cache.Set(ctx, proposalKeyPrefix+proposal.ID, proposal, s.cfg.ProposalTTL); err != nil {
		s.logger.Warn("failed to cache timetable proposal", zap.Error(err))
	}

	s.logger.Info("timetable generated",
		zap.String("proposal_id", proposal.ID),
		zap.String("source", result.Diagnostics.Path),
		zap.Bool("valid", result.Diagnostics.Valid),
		zap.Int64("solve_millis", result.Diagnostics.SolveMillis))

	return &dto.GenerateTimetableResponse{
		ProposalID:  proposal.ID,
		Name:        proposal.Name,
		Periods:     periods,
		LunchPeriod: lunch,
		Grid:        result.Grid,
		Diagnostics: toDiagnosticsDTO(result.Diagnostics),
	}, nil
}

// Save persists a cached proposal as a timetable set owned by the caller.
func (s *TimetableService) Save(ctx context.Context, actor *models.JWTClaims, req dto.SaveTimetableRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save payload")
	}
	if actor == nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}

	var proposal timetableProposal
	if err := s.cache.Get(ctx, proposalKeyPrefix+req.ProposalID, &proposal); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(false)
			}
			return "", appErrors.Clone(appErrors.ErrNotFound, "proposal expired or unknown")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(true)
	}
	if proposal.OwnerID != actor.UserID && actor.Role != models.RoleAdmin {
		return "", appErrors.Clone(appErrors.ErrForbidden, "proposal belongs to another user")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = proposal.Name
	}
	if name == "" {
		name = "Timetable " + time.Now().UTC().Format("2006-01-02 15:04")
	}

	source := models.TimetableSourceGreedy
	if proposal.Diagnostics.Path == "exact" {
		source = models.TimetableSourceExact
	}

	set := &models.TimetableSet{
		Name:        name,
		OwnerID:     proposal.OwnerID,
		Periods:     proposal.Periods,
		LunchPeriod: proposal.LunchPeriod,
		Source:      source,
		Valid:       proposal.Diagnostics.Valid,
		Score:       proposal.Diagnostics.Score,
		SolveMillis: proposal.Diagnostics.SolveMillis,
	}

	var entries []models.TimetableEntry
	for _, day := range solver.Weekdays {
		for period, label := range proposal.Grid[day] {
			if label == "" {
				continue
			}
			entries = append(entries, models.TimetableEntry{
				Day:    day,
				Period: period,
				Label:  label,
			})
		}
	}

	if err := s.store.SaveWithEntries(ctx, set, entries); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save timetable")
	}
	return set.ID, nil
}

// List returns the caller's saved sets; admins see every owner.
func (s *TimetableService) List(ctx context.Context, actor *models.JWTClaims, query dto.TimetableSetQuery) ([]models.TimetableSet, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}
	filter := models.TimetableSetFilter{
		Valid:    query.Valid,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if actor.Role != models.RoleAdmin {
		filter.OwnerID = actor.UserID
	}

	sets, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return sets, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a saved set and reconstructs its grid.
func (s *TimetableService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.TimetableSet, solver.Grid, error) {
	set, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.store.ListEntries(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}

	grid := make(solver.Grid, len(solver.Weekdays))
	for _, day := range solver.Weekdays {
		grid[day] = make([]string, set.Periods)
	}
	for _, entry := range entries {
		row, ok := grid[entry.Day]
		if !ok || entry.Period < 0 || entry.Period >= len(row) {
			continue
		}
		row[entry.Period] = entry.Label
	}
	return set, grid, nil
}

// Delete removes a saved set after an ownership check.
func (s *TimetableService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if _, err := s.findOwned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

// Validate checks an arbitrary grid against inline or stored constraints.
func (s *TimetableService) Validate(ctx context.Context, actor *models.JWTClaims, req dto.ValidateTimetableRequest) (*dto.ValidateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validate payload")
	}
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}

	constraints, err := s.resolveConstraints(ctx, actor.UserID, req.Constraints)
	if err != nil {
		return nil, err
	}

	grid := solver.Grid(req.Grid)
	valid, violations := solver.Validate(grid, constraints, req.LunchPeriod)
	return &dto.ValidateTimetableResponse{
		Valid:      valid,
		Violations: violations,
		Score:      solver.DiversityScore(grid),
	}, nil
}

// ExportDataset renders a saved set as a tabular dataset with one row per
// period and one column per weekday.
func (s *TimetableService) ExportDataset(ctx context.Context, actor *models.JWTClaims, id string) (export.Dataset, string, error) {
	set, grid, err := s.Get(ctx, actor, id)
	if err != nil {
		return export.Dataset{}, "", err
	}

	headers := append([]string{"Period"}, solver.Weekdays...)
	rows := make([]map[string]string, 0, set.Periods)
	for period := 0; period < set.Periods; period++ {
		row := map[string]string{"Period": fmt.Sprintf("P%d", period+1)}
		for _, day := range solver.Weekdays {
			cell := ""
			if cells := grid[day]; period < len(cells) {
				cell = cells[period]
			}
			row[day] = cell
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}, set.Name, nil
}

func (s *TimetableService) findOwned(ctx context.Context, actor *models.JWTClaims, id string) (*models.TimetableSet, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}
	set, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if set.OwnerID != actor.UserID && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "timetable belongs to another user")
	}
	return set, nil
}

// resolveCourses prefers inline courses; otherwise the stored published
// catalog scoped to the caller's role. Stored teacher references are folded
// into ordinal IDs so the solver can group conflicting assignments.
func (s *TimetableService) resolveCourses(ctx context.Context, actor *models.JWTClaims, inline []dto.CourseInput) ([]solver.Course, error) {
	if len(inline) > 0 {
		teacherOrdinals := make(map[string]int)
		out := make([]solver.Course, 0, len(inline))
		for i, c := range inline {
			id := int(c.ID)
			if id == 0 {
				id = i + 1
			}
			credits := c.Credits
			if credits <= 0 {
				credits = 1
			}
			teacherID := 0
			if ref := strings.TrimSpace(c.TeacherID); ref != "" {
				ord, ok := teacherOrdinals[ref]
				if !ok {
					ord = len(teacherOrdinals) + 1
					teacherOrdinals[ref] = ord
				}
				teacherID = ord
			}
			out = append(out, solver.Course{
				ID:        id,
				Name:      c.Name,
				Code:      c.Code,
				Credits:   credits,
				Section:   c.Section,
				TeacherID: teacherID,
			})
		}
		return out, nil
	}

	var stored []models.Course
	var err error
	if actor.Role == models.RoleAdmin {
		stored, err = s.courses.ListPublished(ctx)
	} else {
		stored, err = s.courses.ListPublishedByTeacher(ctx, actor.UserID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course catalog")
	}

	teacherOrdinals := make(map[string]int)
	out := make([]solver.Course, 0, len(stored))
	for _, c := range stored {
		teacherID := 0
		if c.TeacherID != nil && *c.TeacherID != "" {
			ord, ok := teacherOrdinals[*c.TeacherID]
			if !ok {
				ord = len(teacherOrdinals) + 1
				teacherOrdinals[*c.TeacherID] = ord
			}
			teacherID = ord
		}
		out = append(out, solver.Course{
			ID:        int(c.ID),
			Name:      c.Name,
			Code:      c.Code,
			Credits:   c.Credits,
			Section:   c.Section,
			TeacherID: teacherID,
		})
	}
	return out, nil
}

func (s *TimetableService) resolveConstraints(ctx context.Context, ownerID string, inline []dto.ConstraintInput) ([]solver.Constraint, error) {
	if len(inline) > 0 {
		out := make([]solver.Constraint, 0, len(inline))
		for _, c := range inline {
			out = append(out, solver.Constraint{
				CourseName:  c.CourseName,
				Section:     c.Section,
				Day:         c.Day,
				PeriodRange: c.PeriodRange,
				Kind:        solver.Kind(c.Kind),
				Mode:        c.Mode,
			})
		}
		return out, nil
	}

	stored, err := s.constraints.ListEnabledByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load constraints")
	}
	out := make([]solver.Constraint, 0, len(stored))
	for _, c := range stored {
		out = append(out, solver.Constraint{
			CourseName:  c.CourseName,
			Section:     c.Section,
			Day:         c.Day,
			PeriodRange: c.PeriodRange,
			Kind:        solver.Kind(c.Kind),
			Mode:        c.Mode,
		})
	}
	return out, nil
}

func toDiagnosticsDTO(d solver.Diagnostics) dto.GenerateDiagnostics {
	return dto.GenerateDiagnostics{
		Source:      d.Path,
		Valid:       d.Valid,
		Violations:  d.Violations,
		Unmatched:   d.Unmatched,
		Skipped:     d.Skipped,
		SwapsTaken:  d.SwapsTaken,
		Score:       d.Score,
		SolveMillis: d.SolveMillis,
	}
}
