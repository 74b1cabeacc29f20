package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arkan-dev/timetable-api/internal/dto"
	"github.com/arkan-dev/timetable-api/internal/models"
	"github.com/arkan-dev/timetable-api/internal/solver"
	appErrors "github.com/arkan-dev/timetable-api/pkg/errors"
)

type fakeCatalog struct {
	published []models.Course
	byTeacher []models.Course
	err       error
}

func (f *fakeCatalog) ListPublished(ctx context.Context) ([]models.Course, error) {
	return f.published, f.err
}

func (f *fakeCatalog) ListPublishedByTeacher(ctx context.Context, teacherID string) ([]models.Course, error) {
	return f.byTeacher, f.err
}

type fakeRules struct {
	constraints []models.SchedulingConstraint
	err         error
}

func (f *fakeRules) ListEnabledByOwner(ctx context.Context, ownerID string) ([]models.SchedulingConstraint, error) {
	return f.constraints, f.err
}

type fakeTimetableStore struct {
	savedSet     *models.TimetableSet
	savedEntries []models.TimetableEntry
	saveErr      error
	sets         map[string]*models.TimetableSet
	entries      map[string][]models.TimetableEntry
	listSets     []models.TimetableSet
	listTotal    int
	lastFilter   models.TimetableSetFilter
	deleted      []string
}

func (f *fakeTimetableStore) SaveWithEntries(ctx context.Context, set *models.TimetableSet, entries []models.TimetableEntry) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	set.ID = "set-1"
	f.savedSet = set
	f.savedEntries = entries
	return nil
}

func (f *fakeTimetableStore) List(ctx context.Context, filter models.TimetableSetFilter) ([]models.TimetableSet, int, error) {
	f.lastFilter = filter
	return f.listSets, f.listTotal, nil
}

func (f *fakeTimetableStore) FindByID(ctx context.Context, id string) (*models.TimetableSet, error) {
	if set, ok := f.sets[id]; ok {
		copied := *set
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTimetableStore) ListEntries(ctx context.Context, setID string) ([]models.TimetableEntry, error) {
	return f.entries[setID], nil
}

func (f *fakeTimetableStore) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeProposalCache stores marshalled values like the redis-backed repository.
type fakeProposalCache struct {
	values map[string][]byte
	setErr error
}

func (f *fakeProposalCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeProposalCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if f.values == nil {
		f.values = make(map[string][]byte)
	}
	f.values[key] = raw
	return nil
}

type fakeEngine struct {
	lastReq solver.Request
	result  *solver.Result
	err     error
}

func (f *fakeEngine) Generate(req solver.Request) (*solver.Result, error) {
	f.lastReq = req
	return f.result, f.err
}

type fakeObserver struct {
	source      string
	fallback    bool
	calls       int
	cacheHits   int
	cacheMisses int
}

func (f *fakeObserver) ObserveSolve(source string, duration time.Duration, fallback bool) {
	f.source = source
	f.fallback = fallback
	f.calls++
}

func (f *fakeObserver) RecordCacheOperation(hit bool) {
	if hit {
		f.cacheHits++
	} else {
		f.cacheMisses++
	}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func teacherClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}
}

func newTimetableFixture(engine *fakeEngine) (*TimetableService, *fakeTimetableStore, *fakeProposalCache, *fakeObserver) {
	store := &fakeTimetableStore{sets: map[string]*models.TimetableSet{}, entries: map[string][]models.TimetableEntry{}}
	cache := &fakeProposalCache{}
	observer := &fakeObserver{}
	svc := NewTimetableService(&fakeCatalog{}, &fakeRules{}, store, cache, engine, observer, validator.New(), zap.NewNop(), TimetableConfig{})
	return svc, store, cache, observer
}

func sampleResult(path string) *solver.Result {
	grid := solver.Grid{
		"Monday":    {"Algorithms", "", "", "", "Lunch", "", "", ""},
		"Tuesday":   make([]string, 8),
		"Wednesday": make([]string, 8),
		"Thursday":  make([]string, 8),
		"Friday":    make([]string, 8),
	}
	return &solver.Result{
		Grid: grid,
		Diagnostics: solver.Diagnostics{
			Path:        path,
			Valid:       true,
			Score:       0.5,
			SolveMillis: 12,
		},
	}
}

func TestTimetableServiceGenerateInlineCourses(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("exact")}
	svc, _, cache, observer := newTimetableFixture(engine)

	res, err := svc.Generate(context.Background(), teacherClaims(), dto.GenerateTimetableRequest{
		Courses: []dto.CourseInput{
			{Name: "Algorithms", Credits: 3},
			{Name: "Physics", Credits: 2},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ProposalID)
	assert.Equal(t, 8, res.Periods)
	assert.Equal(t, "exact", res.Diagnostics.Source)

	// Inline courses without IDs get ordinal ones.
	require.Len(t, engine.lastReq.Courses, 2)
	assert.Equal(t, 1, engine.lastReq.Courses[0].ID)
	assert.Equal(t, 2, engine.lastReq.Courses[1].ID)

	assert.Equal(t, 1, observer.calls)
	assert.False(t, observer.fallback)
	assert.Contains(t, cache.values, proposalKeyPrefix+res.ProposalID)
}

func TestTimetableServiceGenerateInlineTeacherFold(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("exact")}
	svc, _, _, _ := newTimetableFixture(engine)

	_, err := svc.Generate(context.Background(), teacherClaims(), dto.GenerateTimetableRequest{
		Courses: []dto.CourseInput{
			{Name: "Algorithms", TeacherID: "alice"},
			{Name: "Data Structures", TeacherID: "alice"},
			{Name: "Physics", TeacherID: "bob"},
			{Name: "Art"},
		},
	})
	require.NoError(t, err)

	// Shared teacher references fold to the same ordinal so the solver can
	// keep those courses out of the same slot; no reference means no group.
	require.Len(t, engine.lastReq.Courses, 4)
	assert.Equal(t, engine.lastReq.Courses[0].TeacherID, engine.lastReq.Courses[1].TeacherID)
	assert.NotZero(t, engine.lastReq.Courses[0].TeacherID)
	assert.NotEqual(t, engine.lastReq.Courses[0].TeacherID, engine.lastReq.Courses[2].TeacherID)
	assert.NotZero(t, engine.lastReq.Courses[2].TeacherID)
	assert.Zero(t, engine.lastReq.Courses[3].TeacherID)
}

func TestTimetableServiceGenerateFallbackObserved(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("greedy")}
	svc, _, _, observer := newTimetableFixture(engine)

	_, err := svc.Generate(context.Background(), teacherClaims(), dto.GenerateTimetableRequest{
		Courses: []dto.CourseInput{{Name: "Algorithms"}},
	})
	require.NoError(t, err)
	assert.True(t, observer.fallback)
	assert.Equal(t, "greedy", observer.source)
}

func TestTimetableServiceGenerateNothingToSchedule(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("exact")}
	svc, _, _, _ := newTimetableFixture(engine)

	_, err := svc.Generate(context.Background(), teacherClaims(), dto.GenerateTimetableRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestTimetableServiceGenerateLunchOutOfRange(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("exact")}
	svc, _, _, _ := newTimetableFixture(engine)

	_, err := svc.Generate(context.Background(), teacherClaims(), dto.GenerateTimetableRequest{
		Periods:     6,
		LunchPeriod: 9,
		Courses:     []dto.CourseInput{{Name: "Algorithms"}},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestTimetableServiceSaveRoundTrip(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("exact")}
	svc, store, _, observer := newTimetableFixture(engine)

	res, err := svc.Generate(context.Background(), teacherClaims(), dto.GenerateTimetableRequest{
		Courses: []dto.CourseInput{{Name: "Algorithms"}},
	})
	require.NoError(t, err)

	id, err := svc.Save(context.Background(), teacherClaims(), dto.SaveTimetableRequest{ProposalID: res.ProposalID, Name: "Week 1"})
	require.NoError(t, err)
	assert.Equal(t, "set-1", id)
	assert.Equal(t, 1, observer.cacheHits)

	require.NotNil(t, store.savedSet)
	assert.Equal(t, "Week 1", store.savedSet.Name)
	assert.Equal(t, models.TimetableSourceExact, store.savedSet.Source)
	assert.Equal(t, "teacher-1", store.savedSet.OwnerID)
	// Only non-empty cells become entries.
	assert.Len(t, store.savedEntries, 2)
}

func TestTimetableServiceSaveUnknownProposal(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("exact")}
	svc, _, _, observer := newTimetableFixture(engine)

	_, err := svc.Save(context.Background(), teacherClaims(), dto.SaveTimetableRequest{ProposalID: "missing"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, 1, observer.cacheMisses)
}

func TestTimetableServiceSaveForeignProposal(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("exact")}
	svc, _, _, _ := newTimetableFixture(engine)

	res, err := svc.Generate(context.Background(), teacherClaims(), dto.GenerateTimetableRequest{
		Courses: []dto.CourseInput{{Name: "Algorithms"}},
	})
	require.NoError(t, err)

	other := &models.JWTClaims{UserID: "teacher-2", Role: models.RoleTeacher}
	_, err = svc.Save(context.Background(), other, dto.SaveTimetableRequest{ProposalID: res.ProposalID})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	// Admins may adopt any proposal.
	_, err = svc.Save(context.Background(), adminClaims(), dto.SaveTimetableRequest{ProposalID: res.ProposalID})
	require.NoError(t, err)
}

func TestTimetableServiceListScopesNonAdmins(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("exact")}
	svc, store, _, _ := newTimetableFixture(engine)

	_, _, err := svc.List(context.Background(), teacherClaims(), dto.TimetableSetQuery{})
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", store.lastFilter.OwnerID)

	_, _, err = svc.List(context.Background(), adminClaims(), dto.TimetableSetQuery{})
	require.NoError(t, err)
	assert.Empty(t, store.lastFilter.OwnerID)
}

func TestTimetableServiceGetRebuildsGrid(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("exact")}
	svc, store, _, _ := newTimetableFixture(engine)

	store.sets["set-1"] = &models.TimetableSet{ID: "set-1", OwnerID: "teacher-1", Periods: 8}
	store.entries["set-1"] = []models.TimetableEntry{
		{Day: "Monday", Period: 0, Label: "Algorithms"},
		{Day: "Friday", Period: 7, Label: "Physics"},
	}

	set, grid, err := svc.Get(context.Background(), teacherClaims(), "set-1")
	require.NoError(t, err)
	assert.Equal(t, "set-1", set.ID)
	assert.Equal(t, "Algorithms", grid["Monday"][0])
	assert.Equal(t, "Physics", grid["Friday"][7])
	assert.Empty(t, grid["Tuesday"][3])
}

func TestTimetableServiceGetForeignSet(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("exact")}
	svc, store, _, _ := newTimetableFixture(engine)

	store.sets["set-1"] = &models.TimetableSet{ID: "set-1", OwnerID: "someone-else", Periods: 8}

	_, _, err := svc.Get(context.Background(), teacherClaims(), "set-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	// Admins bypass the ownership check.
	_, _, err = svc.Get(context.Background(), adminClaims(), "set-1")
	require.NoError(t, err)
}

func TestTimetableServiceValidateInlineConstraints(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("exact")}
	svc, _, _, _ := newTimetableFixture(engine)

	grid := map[string][]string{
		"Monday":    {"Algorithms", "", "", "", "", "", "", ""},
		"Tuesday":   make([]string, 8),
		"Wednesday": make([]string, 8),
		"Thursday":  make([]string, 8),
		"Friday":    make([]string, 8),
	}

	res, err := svc.Validate(context.Background(), teacherClaims(), dto.ValidateTimetableRequest{
		Grid: grid,
		Constraints: []dto.ConstraintInput{
			{CourseName: "Algorithms", Day: "Monday", PeriodRange: "P1", Kind: "Exact"},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Violations)
}

func TestTimetableServiceExportDataset(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("exact")}
	svc, store, _, _ := newTimetableFixture(engine)

	store.sets["set-1"] = &models.TimetableSet{ID: "set-1", Name: "Week 1", OwnerID: "teacher-1", Periods: 4}
	store.entries["set-1"] = []models.TimetableEntry{
		{Day: "Monday", Period: 1, Label: "Algorithms"},
	}

	dataset, title, err := svc.ExportDataset(context.Background(), teacherClaims(), "set-1")
	require.NoError(t, err)
	assert.Equal(t, "Week 1", title)
	assert.Equal(t, append([]string{"Period"}, solver.Weekdays...), dataset.Headers)
	require.Len(t, dataset.Rows, 4)
	assert.Equal(t, "P2", dataset.Rows[1]["Period"])
	assert.Equal(t, "Algorithms", dataset.Rows[1]["Monday"])
	assert.Empty(t, dataset.Rows[0]["Monday"])
}

func TestTimetableServiceDelete(t *testing.T) {
	engine := &fakeEngine{result: sampleResult("exact")}
	svc, store, _, _ := newTimetableFixture(engine)

	store.sets["set-1"] = &models.TimetableSet{ID: "set-1", OwnerID: "teacher-1", Periods: 8}

	require.NoError(t, svc.Delete(context.Background(), teacherClaims(), "set-1"))
	assert.Equal(t, []string{"set-1"}, store.deleted)
}
