// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cadencia/cadencia/internal/batch"
	"github.com/cadencia/cadencia/internal/recommend"
	"github.com/cadencia/cadencia/internal/vectorstore"
)

// Recommender ranks catalog moves against a multimodal query.
type Recommender interface {
	RecommendMoves(ctx context.Context, req *recommend.Request, topK int) ([]recommend.RecommendationScore, error)
}

// Catalog is the read slice of the vector store the API serves from.
type Catalog interface {
	GetEmbeddingByID(ctx context.Context, clipID string) (*vectorstore.MoveDocument, error)
	GetAllEmbeddings(ctx context.Context, filters *vectorstore.Filters) ([]vectorstore.MoveDocument, error)
	CountDocuments(ctx context.Context) (int, error)
	IndexExists(ctx context.Context) (bool, error)
}

// ClipProcessor runs the ingestion pipeline for submitted clips.
type ClipProcessor interface {
	ProcessClips(ctx context.Context, clips []batch.ClipSpec) ([]batch.ClipResult, error)
}

// Archiver exports and restores catalog snapshots.
type Archiver interface {
	Export(ctx context.Context, w io.Writer) (int, error)
	Restore(ctx context.Context, r io.Reader) (*vectorstore.BulkResult, error)
}

// CatalogInvalidator drops cached catalog snapshots after writes.
// Implemented by the recommendation engine's cached catalog.
type CatalogInvalidator interface {
	Invalidate()
}

// Handler owns the endpoint implementations.
type Handler struct {
	recommender Recommender
	catalog     Catalog
	processor   ClipProcessor
	archiver    Archiver
	invalidator CatalogInvalidator
	logger      zerolog.Logger
}

// NewHandler creates a Handler. invalidator may be nil when no catalog
// cache is in play.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(rec Recommender, catalog Catalog, proc ClipProcessor, arch Archiver, inv CatalogInvalidator, logger zerolog.Logger) *Handler {
	return &Handler{
		recommender: rec,
		catalog:     catalog,
		processor:   proc,
		archiver:    arch,
		invalidator: inv,
		logger:      logger.With().Str("component", "api").Logger(),
	}
}

// invalidateCatalog drops cached snapshots so queries after a write see
// the new documents.
func (h *Handler) invalidateCatalog() {
	if h.invalidator != nil {
		h.invalidator.Invalidate()
	}
}

// Recommend handles POST /api/v1/recommend.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}
	if !req.hasQueryVector() {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "at least one query embedding is required", nil)
		return
	}

	scores, err := h.recommender.RecommendMoves(r.Context(), &req.Request, req.TopK)
	if err != nil {
		h.logger.Error().Err(err).Msg("recommendation failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "recommendation failed", nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]any{
		"recommendations": scores,
		"count":           len(scores),
	})
}

// GetMove handles GET /api/v1/moves/{clip_id}.
func (h *Handler) GetMove(w http.ResponseWriter, r *http.Request) {
	clipID := chi.URLParam(r, "clip_id")
	doc, err := h.catalog.GetEmbeddingByID(r.Context(), clipID)
	if errors.Is(err, vectorstore.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "clip not found", nil)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("clip_id", clipID).Msg("get move failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeStoreUnavailable, "store lookup failed", nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, doc)
}

// ListMoves handles GET /api/v1/moves. Exact-match filters come from
// query parameters.
func (h *Handler) ListMoves(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)
	docs, err := h.catalog.GetAllEmbeddings(r.Context(), filters)
	if err != nil {
		h.logger.Error().Err(err).Msg("list moves failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeStoreUnavailable, "store retrieval failed", nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]any{
		"moves": docs,
		"count": len(docs),
	})
}

// filtersFromQuery builds store filters from list query parameters, nil
// when no filter is set.
func filtersFromQuery(r *http.Request) *vectorstore.Filters {
	q := r.URL.Query()
	f := vectorstore.Filters{
		MoveLabel:       q.Get("move_label"),
		Difficulty:      q.Get("difficulty"),
		EnergyLevel:     q.Get("energy_level"),
		LeadFollowRoles: q.Get("role"),
	}
	if f == (vectorstore.Filters{}) {
		return nil
	}
	return &f
}

// ProcessClips handles POST /api/v1/clips.
func (h *Handler) ProcessClips(w http.ResponseWriter, r *http.Request) {
	var req ProcessClipsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	results, err := h.processor.ProcessClips(r.Context(), req.Clips)
	if err != nil {
		h.logger.Error().Err(err).Msg("clip processing failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "clip processing failed", results)
		return
	}

	indexed := 0
	for _, res := range results {
		if res.Indexed {
			indexed++
		}
	}
	if indexed > 0 {
		h.invalidateCatalog()
	}
	respondSuccess(w, r, http.StatusOK, map[string]any{
		"results": results,
		"indexed": indexed,
		"failed":  len(results) - indexed,
	})
}

// ExportBackup handles GET /api/v1/backup. The archive streams as a JSON
// attachment.
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="cadencia-backup.json"`)
	if _, err := h.archiver.Export(r.Context(), w); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error().Err(err).Msg("backup export failed")
	}
}

// RestoreBackup handles POST /api/v1/restore with an archive body.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	result, err := h.archiver.Restore(r.Context(), r.Body)
	if err != nil {
		h.logger.Error().Err(err).Msg("backup restore failed")
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "restore failed: "+err.Error(), nil)
		return
	}
	if result.Indexed > 0 {
		h.invalidateCatalog()
	}
	respondSuccess(w, r, http.StatusOK, map[string]any{
		"indexed": result.Indexed,
		"failed":  result.Failed,
	})
}

// HealthLive handles GET /healthz.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady handles GET /readyz: the store must be reachable and the
// index present.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	exists, err := h.catalog.IndexExists(r.Context())
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "store unreachable", nil)
		return
	}
	if !exists {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "catalog index missing", nil)
		return
	}
	count, err := h.catalog.CountDocuments(r.Context())
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "store unreachable", nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]any{
		"status":    "ready",
		"documents": count,
	})
}
