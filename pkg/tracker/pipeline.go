package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"igtracker/pkg/analytics"
	errs "igtracker/pkg/errors"
	"igtracker/pkg/instagram"
	"igtracker/pkg/logger"
	"igtracker/pkg/metrics"
	"igtracker/pkg/models"
	"igtracker/pkg/normalizer"
	"igtracker/pkg/storage"
)

// Pipeline stages, used as metric and log labels
const (
	StageFetch     = "fetch"
	StageNormalize = "normalize"
	StageEnrich    = "enrich"
	StagePersist   = "persist"
	StageAnalytics = "analytics"
)

// Fetcher retrieves the raw payload for a username
type Fetcher interface {
	FetchProfile(ctx context.Context, username string) (*instagram.RawProfilePayload, error)
}

// Enricher attaches inference results to a snapshot
type Enricher interface {
	Enrich(ctx context.Context, snapshot *models.ProfileSnapshot) *models.ProfileSnapshot
}

// Store persists snapshots and serves the analytics reads
type Store interface {
	analytics.Reader
	Persist(ctx context.Context, snapshot *models.ProfileSnapshot, ownerID string) (*storage.PersistResult, error)
}

// Result is the outcome of one successful run
type Result struct {
	Profile   *models.ProfileSnapshot `json:"profile"`
	Analytics *models.Analytics       `json:"analytics"`
	Persisted *storage.PersistResult  `json:"-"`
}

// Pipeline wires the pipeline components together
type Pipeline struct {
	fetcher    Fetcher
	normalizer *normalizer.Normalizer
	enricher   Enricher
	store      Store
	analytics  *analytics.Engine
	logger     logger.Logger
}

// New creates a Pipeline. A nil enricher skips enrichment.
func New(fetcher Fetcher, enricher Enricher, store Store, log logger.Logger) *Pipeline {
	log = logger.OrNop(log).WithField("component", "pipeline")
	return &Pipeline{
		fetcher:    fetcher,
		normalizer: normalizer.New(log),
		enricher:   enricher,
		store:      store,
		analytics:  analytics.NewEngine(store, log),
		logger:     log,
	}
}

// Analytics returns the engine used for the analytics step
func (p *Pipeline) Analytics() *analytics.Engine {
	return p.analytics
}

// Run tracks username on behalf of ownerID and returns the enriched snapshot
// together with the profile's updated analytics
func (p *Pipeline) Run(ctx context.Context, username, ownerID string) (*Result, error) {
	username = instagram.SanitizeUsername(username)
	log := p.logger.WithFields(map[string]interface{}{
		"username": username,
		"owner":    ownerID,
	})

	result, err := p.run(ctx, username, ownerID, log)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues(string(errs.TypeOf(err))).Inc()
		return nil, err
	}
	metrics.PipelineRuns.WithLabelValues("success").Inc()
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, username, ownerID string, log logger.Logger) (*Result, error) {
	if !instagram.IsValidUsername(username) {
		return nil, errs.New(errs.ErrorTypeProfileNotFound, fmt.Sprintf("invalid username %q", username))
	}
	if ownerID == "" {
		return nil, errs.New(errs.ErrorTypeStoreUnavailable, "owner id is required")
	}

	start := time.Now()
	raw, err := p.fetcher.FetchProfile(ctx, username)
	p.stage(log, StageFetch, username, start, err)
	if err != nil {
		return nil, sourceError(username, err)
	}

	start = time.Now()
	snapshot, err := p.normalizer.Normalize(raw)
	p.stage(log, StageNormalize, username, start, err)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeProfileNotFound, fmt.Sprintf("unusable data for %s", username), err)
	}

	if p.enricher != nil {
		start = time.Now()
		snapshot = p.enricher.Enrich(ctx, snapshot)
		p.stage(log, StageEnrich, username, start, nil)
	}

	start = time.Now()
	persisted, err := p.store.Persist(ctx, snapshot, ownerID)
	p.stage(log, StagePersist, username, start, err)
	if err != nil {
		return nil, storeError("failed to persist snapshot", err)
	}

	// read back under the name the store keyed the profile on
	start = time.Now()
	computed, err := p.analytics.Compute(ctx, ownerID, strings.ToLower(snapshot.Username))
	p.stage(log, StageAnalytics, username, start, err)
	if err != nil {
		return nil, storeError("failed to compute analytics", err)
	}

	log.InfoWithFields("profile tracked", map[string]interface{}{
		"followers":     snapshot.Followers,
		"posts":         len(snapshot.Posts),
		"reels":         len(snapshot.Reels),
		"posts_saved":   persisted.PostsSaved,
		"posts_skipped": persisted.PostsSkipped,
	})

	return &Result{
		Profile:   snapshot,
		Analytics: computed,
		Persisted: persisted,
	}, nil
}

func (p *Pipeline) stage(log logger.Logger, stage, username string, start time.Time, err error) {
	metrics.RecordStage(stage, start)
	logger.LogPipelineStage(log, stage, username, time.Since(start), err)
}

// sourceError maps a fetch failure onto the pipeline's error types
func sourceError(username string, err error) error {
	switch errs.TypeOf(err) {
	case errs.ErrorTypeNotFound, errs.ErrorTypeMalformedSourceData:
		return errs.Wrap(errs.ErrorTypeProfileNotFound, fmt.Sprintf("profile %s not found", username), err)
	default:
		return errs.Wrap(errs.ErrorTypeSourceUnavailable, fmt.Sprintf("failed to fetch %s", username), err)
	}
}

func storeError(message string, err error) error {
	if errs.TypeOf(err) == errs.ErrorTypeStoreUnavailable {
		return err
	}
	return errs.Wrap(errs.ErrorTypeStoreUnavailable, message, err)
}
