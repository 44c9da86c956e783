// Package scheduler runs named jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"igtracker/pkg/logger"
)

// Job is a scheduled task
type Job func(ctx context.Context) error

// JobInfo describes a scheduled job
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	NextRun  time.Time `json:"next_run"`
	LastRun  time.Time `json:"last_run"`
}

type entry struct {
	id       cron.EntryID
	schedule string
}

// Scheduler manages periodic jobs. A run that is still going when its next
// tick fires is not overlapped; the tick is skipped.
type Scheduler struct {
	cron       *cron.Cron
	mu         sync.Mutex
	jobs       map[string]entry
	jobTimeout time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	logger     logger.Logger
}

// New creates a scheduler in the given timezone ("" means local time).
// jobTimeout bounds every run; zero means unbounded.
func New(timezone string, jobTimeout time.Duration, log logger.Logger) (*Scheduler, error) {
	loc := time.Local
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
		}
	}

	log = logger.OrNop(log).WithField("component", "scheduler")
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       c,
		jobs:       make(map[string]entry),
		jobTimeout: jobTimeout,
		ctx:        ctx,
		cancel:     cancel,
		logger:     log,
	}, nil
}

// ValidateSchedule reports whether schedule is a valid five-field cron expression
// or descriptor such as "@every 1h"
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// AddJob registers job under name, replacing any job with the same name.
// schedule uses the standard five-field format, e.g. "0 */6 * * *".
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	id, err := s.cron.AddFunc(schedule, func() {
		_ = s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.mu.Lock()
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old.id)
	}
	s.jobs[name] = entry{id: id, schedule: schedule}
	s.mu.Unlock()

	s.logger.InfoWithFields("job added", map[string]interface{}{
		"job":      name,
		"schedule": schedule,
	})
	return nil
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.jobs[name]; ok {
		s.cron.Remove(e.id)
		delete(s.jobs, name)
		s.logger.InfoWithFields("job removed", map[string]interface{}{"job": name})
	}
}

// RunNow runs job immediately in the caller's goroutine
func (s *Scheduler) RunNow(name string, job Job) error {
	return s.run(name, job)
}

func (s *Scheduler) run(name string, job Job) error {
	ctx := s.ctx
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	log := s.logger.WithField("job", name)
	log.Info("job started")
	start := time.Now()

	if err := job(ctx); err != nil {
		log.WithError(err).ErrorWithFields("job failed", map[string]interface{}{
			"duration": time.Since(start),
		})
		return err
	}

	log.InfoWithFields("job completed", map[string]interface{}{
		"duration": time.Since(start),
	})
	return nil
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	logger.LogComponentStart(s.logger, "scheduler", map[string]interface{}{
		"jobs": len(s.ListJobs()),
	})
	s.cron.Start()
}

// Stop stops the scheduler and cancels running jobs. The returned context is
// done once they have returned.
func (s *Scheduler) Stop() context.Context {
	s.cancel()
	logger.LogComponentStop(s.logger, "scheduler", "stopped")
	return s.cron.Stop()
}

// ListJobs returns the scheduled jobs sorted by name
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, e := range s.jobs {
		info := JobInfo{Name: name, Schedule: e.schedule}
		if ce := s.cron.Entry(e.id); ce.Valid() {
			info.NextRun = ce.Next
			info.LastRun = ce.Prev
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// cronLogger adapts logger.Logger to cron.Logger
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.DebugWithFields(msg, kvFields(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.WithError(err).ErrorWithFields(msg, kvFields(keysAndValues))
}

func kvFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
