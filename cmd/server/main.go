// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

// Package main is the entry point for the Cadencia server.
//
// Cadencia indexes bachata dance clips as multimodal embeddings (audio,
// text, lead pose, follow pose, couple interaction) in Elasticsearch and
// serves weighted similarity recommendations over a REST API.
//
// Startup order:
//
//  1. Configuration: defaults, optional YAML file, CADENCIA_* env vars
//  2. Logging: global zerolog instance
//  3. Vector store: Elasticsearch client, index bootstrap
//  4. Recommendation engine, clip pipeline, backup manager
//  5. HTTP server with graceful shutdown on SIGINT/SIGTERM
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cadencia/cadencia/internal/api"
	"github.com/cadencia/cadencia/internal/backup"
	"github.com/cadencia/cadencia/internal/batch"
	"github.com/cadencia/cadencia/internal/config"
	"github.com/cadencia/cadencia/internal/detector"
	"github.com/cadencia/cadencia/internal/embedding"
	"github.com/cadencia/cadencia/internal/interaction"
	"github.com/cadencia/cadencia/internal/logging"
	"github.com/cadencia/cadencia/internal/recommend"
	"github.com/cadencia/cadencia/internal/vectorstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("configuration load failed")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()
	logger.Info().Str("index", cfg.Store.Index).Msg("starting cadencia")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := vectorstore.NewClient(vectorstore.Config{
		Addresses:         cfg.Store.Addresses,
		Username:          cfg.Store.Username,
		Password:          cfg.Store.Password,
		Index:             cfg.Store.Index,
		MaxRetries:        cfg.Store.MaxRetries,
		SelfManaged:       cfg.Store.SelfManaged,
		BulkRatePerSecond: cfg.Store.BulkRatePerSecond,
	}, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("vector store client failed")
	}

	bootCtx, bootCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := store.CreateIndex(bootCtx); err != nil {
		bootCancel()
		logging.Fatal().Err(err).Msg("index bootstrap failed")
	}
	bootCancel()

	var catalog recommend.CatalogProvider = store
	var invalidator api.CatalogInvalidator
	if cfg.Recommend.CacheTTL > 0 {
		cached := recommend.NewCachedCatalog(store, cfg.Recommend.CacheTTL, logger)
		catalog = cached
		invalidator = cached
	}
	engine, err := recommend.NewEngine(catalog, recommend.Weights{
		Text:        cfg.Recommend.TextWeight,
		Audio:       cfg.Recommend.AudioWeight,
		Lead:        cfg.Recommend.LeadWeight,
		Follow:      cfg.Recommend.FollowWeight,
		Interaction: cfg.Recommend.InteractionWeight,
	}, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("recommendation engine failed")
	}
	if cfg.Recommend.HybridThreshold > 0 {
		engine.UseHybridSearch(store, cfg.Recommend.HybridThreshold)
	}

	analysisCfg := interaction.Config{
		ConfidenceThreshold:   cfg.Analysis.ConfidenceThreshold,
		HandDistanceThreshold: cfg.Analysis.HandDistanceThreshold,
		AlignmentThreshold:    cfg.Analysis.AlignmentThreshold,
		SyncWindowSize:        cfg.Analysis.SyncWindowSize,
	}
	generator := embedding.NewGenerator(analysisCfg, logger)
	poseDetector := detector.NewFileDetector(logger)
	processor := batch.NewProcessor(batch.Config{
		Concurrency: cfg.Pipeline.Concurrency,
		TargetFPS:   cfg.Pipeline.TargetFPS,
		Version:     cfg.Pipeline.Version,
	}, poseDetector, generator, store, logger)

	archiver := backup.NewManager(store, cfg.Store.Index, logger)

	handler := api.NewHandler(engine, store, processor, archiver, invalidator, logger)
	router := api.NewRouter(handler, api.MiddlewareConfig{
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitRequests: cfg.Server.RateLimitReqs,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
	}, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}
	logger.Info().Msg("stopped")
}
