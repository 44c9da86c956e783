// Package enrichment attaches AI analysis to profile snapshots.
//
// Every inference call is isolated: a failure or timeout leaves only that
// call's field nil and never aborts the snapshot.
package enrichment

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"igtracker/pkg/config"
	"igtracker/pkg/inference"
	"igtracker/pkg/logger"
	"igtracker/pkg/metrics"
	"igtracker/pkg/models"
)

// Analyzer is the inference collaborator used by the Enricher
type Analyzer interface {
	AnalyzeImage(ctx context.Context, imageURL, caption string) (*models.AiAnalysis, error)
	AnalyzeAudience(ctx context.Context, in inference.AudienceInput) (*models.AudienceDemographics, error)
}

// Options controls how the Enricher issues calls
type Options struct {
	CallTimeout        time.Duration
	Concurrency        int
	CaptionSampleLimit int
}

// OptionsFromConfig builds Options from the inference configuration
func OptionsFromConfig(cfg config.InferenceConfig) Options {
	return Options{
		CallTimeout:        cfg.CallTimeout,
		Concurrency:        cfg.Concurrency,
		CaptionSampleLimit: cfg.CaptionSampleLimit,
	}
}

// Enricher runs image and audience inference over a snapshot
type Enricher struct {
	analyzer Analyzer
	opts     Options
	logger   logger.Logger
}

// New creates an Enricher. A nil analyzer disables enrichment: snapshots
// pass through with nil analysis fields.
func New(analyzer Analyzer, opts Options, log logger.Logger) *Enricher {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 45 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.CaptionSampleLimit <= 0 {
		opts.CaptionSampleLimit = 500
	}
	return &Enricher{
		analyzer: analyzer,
		opts:     opts,
		logger:   logger.OrNop(log).WithField("component", "enrichment"),
	}
}

// Enrich returns a copy of snapshot with AiAnalysis set on every post whose
// image could be analyzed and Demographics set when audience inference
// succeeded. The input snapshot is not modified.
func (e *Enricher) Enrich(ctx context.Context, snapshot *models.ProfileSnapshot) *models.ProfileSnapshot {
	enriched := *snapshot
	enriched.Posts = make([]models.PostSnapshot, len(snapshot.Posts))
	copy(enriched.Posts, snapshot.Posts)
	enriched.Demographics = nil

	if e.analyzer == nil {
		for i := range enriched.Posts {
			enriched.Posts[i].AiAnalysis = nil
		}
		enriched.SplitReels()
		return &enriched
	}

	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)

	g.Go(func() error {
		enriched.Demographics = e.audience(ctx, snapshot)
		return nil
	})

	for i := range enriched.Posts {
		post := &enriched.Posts[i]
		post.AiAnalysis = nil
		if post.ImageURL == "" {
			metrics.RecordInference("image", "skipped", 0)
			continue
		}
		g.Go(func() error {
			post.AiAnalysis = e.image(ctx, post)
			return nil
		})
	}

	_ = g.Wait()

	enriched.SplitReels()
	return &enriched
}

func (e *Enricher) image(ctx context.Context, post *models.PostSnapshot) *models.AiAnalysis {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	start := time.Now()
	analysis, err := e.analyzer.AnalyzeImage(callCtx, post.ImageURL, post.Caption)
	e.record("image", post.PostURL, start, err)
	if err != nil {
		return nil
	}
	return analysis
}

func (e *Enricher) audience(ctx context.Context, snapshot *models.ProfileSnapshot) *models.AudienceDemographics {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	start := time.Now()
	demographics, err := e.analyzer.AnalyzeAudience(callCtx, inference.AudienceInput{
		Username:      snapshot.Username,
		FullName:      snapshot.FullName,
		Followers:     snapshot.Followers,
		CaptionSample: CaptionSample(snapshot.Captions(), e.opts.CaptionSampleLimit),
	})
	e.record("audience", snapshot.Username, start, err)
	if err != nil {
		return nil
	}
	return demographics
}

func (e *Enricher) record(kind, subject string, start time.Time, err error) {
	duration := time.Since(start)
	outcome := "success"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case err != nil:
		outcome = "failure"
	}
	metrics.RecordInference(kind, outcome, duration)
	logger.LogInference(e.logger, kind, subject, duration, err)
}

// CaptionSample joins captions with newlines and truncates the result to at
// most limit runes
func CaptionSample(captions []string, limit int) string {
	sample := strings.Join(captions, "\n")
	if limit <= 0 {
		return sample
	}
	runes := []rune(sample)
	if len(runes) <= limit {
		return sample
	}
	return string(runes[:limit])
}
