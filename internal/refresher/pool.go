// Package refresher re-runs the tracking pipeline for stored profiles
// through a bounded pool of workers.
package refresher

import (
	"context"
	"errors"
	"sync"
	"time"

	"igtracker/pkg/config"
	errs "igtracker/pkg/errors"
	"igtracker/pkg/logger"
	"igtracker/pkg/metrics"
	"igtracker/pkg/models"
	"igtracker/pkg/retry"
	"igtracker/pkg/tracker"
)

// ErrPoolStopped is returned by Submit once Stop has been called
var ErrPoolStopped = errors.New("refresh pool is shutting down")

// Job is one (owner, username) pair to refresh
type Job = models.TrackedRef

// Result is the outcome of one refresh job
type Result struct {
	Job      Job
	Success  bool
	Error    error
	Attempts int
	Duration time.Duration
}

// Runner runs the tracking pipeline for one profile
type Runner interface {
	Run(ctx context.Context, username, ownerID string) (*tracker.Result, error)
}

// Options tunes a Pool
type Options struct {
	Workers     int
	MaxAttempts int
	// RetryDelay is the base delay between attempts; zero picks a delay from
	// the failure type
	RetryDelay time.Duration
	// JobTimeout bounds one job including its retries; zero means no bound
	JobTimeout time.Duration
}

// OptionsFromConfig maps the schedule section onto Options
func OptionsFromConfig(cfg config.ScheduleConfig) Options {
	return Options{
		Workers:     cfg.Workers,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		JobTimeout:  cfg.JobTimeout,
	}
}

// Pool runs refresh jobs on a fixed number of workers. Retryable failures
// (network, rate limit, server and store errors) are retried up to
// MaxAttempts; auth and not-found failures are reported at once.
type Pool struct {
	opts        Options
	runner      Runner
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      logger.Logger

	mu      sync.Mutex
	stopped bool
}

// NewPool creates a pool; call Start before submitting jobs
func NewPool(runner Runner, opts Options, log logger.Logger) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	return &Pool{
		opts:        opts,
		runner:      runner,
		jobQueue:    make(chan Job, opts.Workers*2),
		resultQueue: make(chan Result, opts.Workers),
		logger:      logger.OrNop(log).WithField("component", "refresher"),
	}
}

// Start launches the workers. Cancelling ctx aborts in-flight jobs.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	logger.LogComponentStart(p.logger, "refresh pool", map[string]interface{}{
		"workers":      p.opts.Workers,
		"max_attempts": p.opts.MaxAttempts,
	})

	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop waits for queued jobs to finish, then closes the result channel
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.wg.Wait()
	close(p.resultQueue)
	p.cancel()

	logger.LogComponentStop(p.logger, "refresh pool", "stopped")
}

// Submit queues a job, blocking while the queue is full
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.jobQueue <- job:
		p.logger.DebugWithFields("refresh job queued", map[string]interface{}{
			"owner":    job.OwnerID,
			"username": job.Username,
		})
		return nil
	case <-p.ctx.Done():
		return ErrPoolStopped
	}
}

// Results returns the channel of finished jobs; it is closed by Stop
func (p *Pool) Results() <-chan Result {
	return p.resultQueue
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		var result Result
		if p.ctx.Err() != nil {
			result = Result{Job: job, Error: p.ctx.Err()}
		} else {
			result = p.process(job, id)
		}
		if result.Success {
			metrics.RefreshJobs.WithLabelValues("success").Inc()
		} else {
			metrics.RefreshJobs.WithLabelValues("failure").Inc()
		}

		// results are always delivered; Stop waits for workers before closing
		p.resultQueue <- result
	}
}

func (p *Pool) process(job Job, workerID int) Result {
	start := time.Now()
	log := p.logger.WithFields(map[string]interface{}{
		"worker_id": workerID,
		"owner":     job.OwnerID,
		"username":  job.Username,
	})

	ctx := p.ctx
	if p.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.JobTimeout)
		defer cancel()
	}

	cfg := &retry.Config{
		MaxAttempts: p.opts.MaxAttempts,
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      log,
	}
	if p.opts.RetryDelay > 0 {
		cfg.Backoff = &retry.ExponentialBackoff{
			BaseDelay:    p.opts.RetryDelay,
			MaxDelay:     p.opts.RetryDelay * 8,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		}
	}

	attempts := 0
	_, err := retry.DoWithResult(func() (*tracker.Result, error) {
		attempts++
		return p.runner.Run(ctx, job.Username, job.OwnerID)
	}, cfg)

	result := Result{
		Job:      job,
		Success:  err == nil,
		Error:    err,
		Attempts: attempts,
		Duration: time.Since(start),
	}

	if err != nil {
		log.WithError(err).ErrorWithFields("refresh failed", map[string]interface{}{
			"attempts":   attempts,
			"error_type": string(errs.TypeOf(err)),
		})
		return result
	}

	log.DebugWithFields("refresh completed", map[string]interface{}{
		"attempts": attempts,
		"duration": result.Duration,
	})
	return result
}

// Summary aggregates the results of one refresh cycle
type Summary struct {
	Total     int
	Succeeded int
	Failed    []Result
	Duration  time.Duration
}

// RefreshAll runs jobs through a fresh pool and waits for all of them
func RefreshAll(ctx context.Context, runner Runner, jobs []Job, opts Options, log logger.Logger) Summary {
	start := time.Now()
	pool := NewPool(runner, opts, log)
	pool.Start(ctx)

	go func() {
		defer pool.Stop()
		for _, job := range jobs {
			if err := pool.Submit(job); err != nil {
				return
			}
		}
	}()

	summary := Summary{}
	for result := range pool.Results() {
		summary.Total++
		if result.Success {
			summary.Succeeded++
		} else {
			summary.Failed = append(summary.Failed, result)
		}
	}
	summary.Duration = time.Since(start)

	pool.logger.InfoWithFields("refresh cycle finished", map[string]interface{}{
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"failed":    len(summary.Failed),
		"duration":  summary.Duration,
	})
	return summary
}
