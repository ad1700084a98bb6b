// Package scheduler manages background timers, used here to drive the
// Anime Identity Database's per-source refresh cycles.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// TaskFunc is the function signature for scheduled tasks.
type TaskFunc func(ctx context.Context) error

// TaskConfig contains configuration for a scheduled task.
type TaskConfig struct {
	ID         string
	Name       string
	Interval   time.Duration
	Func       TaskFunc
	RunOnStart bool
}

type taskEntry struct {
	config  TaskConfig
	job     gocron.Job
	lastRun *time.Time
	lastErr error
}

// Scheduler manages independent per-task refresh timers.
type Scheduler struct {
	gocron gocron.Scheduler
	logger zerolog.Logger
	tasks  map[string]*taskEntry
	mu     sync.RWMutex
}

// New creates a new scheduler.
func New(logger zerolog.Logger) (*Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		gocron: gs,
		logger: logger.With().Str("component", "scheduler").Logger(),
		tasks:  make(map[string]*taskEntry),
	}, nil
}

// RegisterTask registers a task to run on a fixed interval, independent of
// every other task's timer.
func (s *Scheduler) RegisterTask(cfg TaskConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[cfg.ID]; exists {
		return fmt.Errorf("task with ID %q already registered", cfg.ID)
	}

	entry := &taskEntry{config: cfg}

	opts := []gocron.JobOption{
		gocron.WithName(cfg.Name),
		gocron.WithTags(cfg.ID),
	}
	// A RunOnStart task fires once at registration (below); adding an
	// immediate start on top would run it twice back to back.
	if !cfg.RunOnStart {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	job, err := s.gocron.NewJob(
		gocron.DurationJob(cfg.Interval),
		gocron.NewTask(func() { s.executeTask(cfg.ID) }),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to create job for task %q: %w", cfg.ID, err)
	}
	entry.job = job
	s.tasks[cfg.ID] = entry

	s.logger.Info().
		Str("id", cfg.ID).
		Str("name", cfg.Name).
		Dur("interval", cfg.Interval).
		Msg("registered refresh task")

	if cfg.RunOnStart {
		go s.executeTask(cfg.ID)
	}

	return nil
}

func (s *Scheduler) executeTask(taskID string) {
	s.mu.RLock()
	entry, exists := s.tasks[taskID]
	s.mu.RUnlock()
	if !exists {
		return
	}

	ctx := context.Background()
	now := time.Now()
	err := entry.config.Func(ctx)

	s.mu.Lock()
	entry.lastRun = &now
	entry.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Str("task", taskID).Msg("scheduled task failed")
		return
	}
	s.logger.Debug().Str("task", taskID).Msg("scheduled task completed")
}

// Start begins running all registered tasks.
func (s *Scheduler) Start() {
	s.gocron.Start()
}

// Stop halts all refresh timers. Safe to call multiple times.
func (s *Scheduler) Stop() error {
	return s.gocron.Shutdown()
}

// TaskStatus reports the last-run outcome of a registered task.
type TaskStatus struct {
	ID      string
	LastRun *time.Time
	LastErr error
}

// Status returns the current status of every registered task.
func (s *Scheduler) Status() []TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TaskStatus, 0, len(s.tasks))
	for id, entry := range s.tasks {
		out = append(out, TaskStatus{ID: id, LastRun: entry.lastRun, LastErr: entry.lastErr})
	}
	return out
}
