package main

import (
	"context"
	"fmt"

	"igtracker/pkg/config"
	"igtracker/pkg/enrichment"
	"igtracker/pkg/inference"
	"igtracker/pkg/instagram"
	"igtracker/pkg/logger"
	"igtracker/pkg/ratelimit"
	"igtracker/pkg/storage"
	"igtracker/pkg/tracker"
)

// app holds the components shared by the tracking commands
type app struct {
	cfg      *config.Config
	store    *storage.Store
	pipeline *tracker.Pipeline
	logger   logger.Logger
}

// newApp opens the store and wires the pipeline from cfg
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.GetLogger()

	store, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if !cfg.HasSession() {
		log.Warn("no Instagram session configured, run 'igtracker auth login'")
	}

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
	source := instagram.NewClient(cfg.Instagram, limiter, log)

	var enricher tracker.Enricher
	if cfg.Inference.Enabled && cfg.Inference.APIKey != "" {
		analyzer := inference.NewClient(cfg.Inference, log)
		enricher = enrichment.New(analyzer, enrichment.OptionsFromConfig(cfg.Inference), log)
	} else {
		log.Debug("AI enrichment disabled")
	}

	return &app{
		cfg:      cfg,
		store:    store,
		pipeline: tracker.New(source, enricher, store, log),
		logger:   log,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).Warn("failed to close store")
	}
}
