package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arkan-dev/timetable-api/internal/dto"
	"github.com/arkan-dev/timetable-api/internal/models"
	appErrors "github.com/arkan-dev/timetable-api/pkg/errors"
	"github.com/arkan-dev/timetable-api/pkg/jobs"
)

type timetableGenerator interface {
	Generate(ctx context.Context, actor *models.JWTClaims, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

type generationPayload struct {
	JobID string
	Actor *models.JWTClaims
	Req   dto.GenerateTimetableRequest
}

// GenerationService runs timetable solves on a background worker pool and
// tracks job state in memory. Jobs do not survive a restart; callers are
// expected to re-submit.
type GenerationService struct {
	generator timetableGenerator
	queue     *jobs.Queue
	logger    *zap.Logger

	mu       sync.RWMutex
	jobsByID map[string]*models.GenerationJob
}

// NewGenerationService wires the worker queue around the generator.
func NewGenerationService(generator timetableGenerator, logger *zap.Logger, cfg jobs.QueueConfig) *GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &GenerationService{
		generator: generator,
		logger:    logger,
		jobsByID:  make(map[string]*models.GenerationJob),
	}
	// Solves are not retried: a failed solve reports through job state.
	cfg.MaxRetries = 1
	s.queue = jobs.NewQueue("timetable-generation", s.handle, cfg)
	return s
}

// Start begins consuming queued solves.
func (s *GenerationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *GenerationService) Stop() {
	s.queue.Stop()
}

// Enqueue registers a job and schedules the solve.
func (s *GenerationService) Enqueue(actor *models.JWTClaims, req dto.GenerateTimetableRequest) (*models.GenerationJob, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}

	job := &models.GenerationJob{
		ID:         uuid.NewString(),
		OwnerID:    actor.UserID,
		Status:     models.JobQueued,
		EnqueuedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobsByID[job.ID] = job
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{
		ID:      job.ID,
		Type:    "generate",
		Payload: generationPayload{JobID: job.ID, Actor: actor, Req: req},
	})
	if err != nil {
		s.mu.Lock()
		delete(s.jobsByID, job.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation job")
	}
	return s.snapshot(job.ID), nil
}

// Status returns the job state for its owner (admins may inspect any job).
func (s *GenerationService) Status(jobID string, actor *models.JWTClaims) (*models.GenerationJob, error) {
	job := s.snapshot(jobID)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
	}
	if actor == nil || (job.OwnerID != actor.UserID && actor.Role != models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "job belongs to another user")
	}
	return job, nil
}

// Cancel marks a queued job cancelled. Running solves are not interrupted;
// the flag is honoured when the worker picks the job up.
func (s *GenerationService) Cancel(jobID string, actor *models.JWTClaims) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobsByID[jobID]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
	}
	if actor == nil || (job.OwnerID != actor.UserID && actor.Role != models.RoleAdmin) {
		return appErrors.Clone(appErrors.ErrForbidden, "job belongs to another user")
	}
	if job.Status != models.JobQueued {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("job is %s and can no longer be cancelled", job.Status))
	}

	job.Status = models.JobCancelled
	now := time.Now().UTC()
	job.FinishedAt = &now
	return nil
}

func (s *GenerationService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(generationPayload)
	if !ok {
		s.logger.Error("generation job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	if !s.markRunning(payload.JobID) {
		return nil
	}

	resp, err := s.generator.Generate(ctx, payload.Actor, payload.Req)

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.jobsByID[payload.JobID]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	stored.FinishedAt = &now
	if err != nil {
		stored.Status = models.JobFailed
		stored.Error = err.Error()
		s.logger.Warn("generation job failed", zap.String("job_id", payload.JobID), zap.Error(err))
		return nil
	}
	stored.Status = models.JobSucceeded
	stored.ProposalID = resp.ProposalID
	return nil
}

// markRunning transitions queued to running; cancelled jobs are skipped.
func (s *GenerationService) markRunning(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobsByID[jobID]
	if !ok || job.Status != models.JobQueued {
		return false
	}
	job.Status = models.JobRunning
	now := time.Now().UTC()
	job.StartedAt = &now
	return true
}

func (s *GenerationService) snapshot(jobID string) *models.GenerationJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobsByID[jobID]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}
