// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter assembles the full route tree with the global middleware
// stack applied.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(h *Handler, cfg MiddlewareConfig, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger.With().Str("component", "http").Logger()))
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(cfg.CORSOrigins))

	r.Get("/healthz", h.HealthLive)
	r.Get("/readyz", h.HealthReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimiter(cfg))
		r.Post("/recommend", h.Recommend)
		r.Get("/moves", h.ListMoves)
		r.Get("/moves/{clip_id}", h.GetMove)
		r.Post("/clips", h.ProcessClips)
		r.Get("/backup", h.ExportBackup)
		r.Post("/restore", h.RestoreBackup)
	})

	return r
}
