// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/cadencia/cadencia/internal/metrics"
	"github.com/cadencia/cadencia/internal/vectorstore"
)

// CatalogProvider fetches candidate documents. Implemented by the store
// client.
type CatalogProvider interface {
	GetAllEmbeddings(ctx context.Context, filters *vectorstore.Filters) ([]vectorstore.MoveDocument, error)
}

// Searcher narrows candidates store-side with weighted kNN. Implemented
// by the store client.
type Searcher interface {
	HybridSearch(ctx context.Context, req *vectorstore.SearchRequest) ([]vectorstore.SearchHit, error)
	CountDocuments(ctx context.Context) (int, error)
}

// hybridCandidateMultiplier oversizes the approximate candidate pool so
// exact rescoring has headroom beyond topK.
const hybridCandidateMultiplier = 2

// Engine scores and ranks catalog moves. Safe for concurrent use once
// configured.
type Engine struct {
	catalog CatalogProvider
	weights Weights
	logger  zerolog.Logger

	searcher        Searcher
	hybridThreshold int
}

// NewEngine creates an Engine with the given default weights.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(catalog CatalogProvider, weights Weights, logger zerolog.Logger) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default weights: %w", err)
	}
	return &Engine{
		catalog: catalog,
		weights: weights,
		logger:  logger.With().Str("component", "recommend").Logger(),
	}, nil
}

// UseHybridSearch routes candidate retrieval through store-side weighted
// kNN once the catalog holds at least threshold documents. Smaller
// catalogs keep exhaustive retrieval, where exact scoring over the full
// catalog is both cheaper and better. Call before serving queries.
func (e *Engine) UseHybridSearch(s Searcher, threshold int) {
	e.searcher = s
	e.hybridThreshold = threshold
}

// RecommendMoves retrieves the (optionally pre-filtered) catalog, scores
// every candidate against the query, and returns the top topK results
// sorted descending by overall score. Ties keep retrieval order.
func (e *Engine) RecommendMoves(ctx context.Context, req *Request, topK int) ([]RecommendationScore, error) {
	if topK <= 0 {
		topK = 10
	}
	start := time.Now()

	weights := e.weights
	if req.Weights != nil {
		weights = *req.Weights
		if err := weights.Validate(); err != nil {
			return nil, fmt.Errorf("invalid request weights: %w", err)
		}
	}

	docs, err := e.retrieveCandidates(ctx, req, weights, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve candidates: %w", err)
	}

	scores := make([]RecommendationScore, 0, len(docs))
	for i := range docs {
		if docs[i].QualityScore < req.MinQuality {
			continue
		}
		scores = append(scores, scoreCandidate(req, &docs[i], weights))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].OverallScore > scores[j].OverallScore
	})
	if len(scores) > topK {
		scores = scores[:topK]
	}

	metrics.RecordRecommendation(time.Since(start), len(docs))
	e.logger.Debug().
		Int("candidates", len(docs)).
		Int("returned", len(scores)).
		Int("top_k", topK).
		Msg("ranked moves")

	return scores, nil
}

// retrieveCandidates picks the candidate pool for one query. Catalogs at
// or above the hybrid threshold are narrowed store-side with weighted kNN
// and exactly rescored here; everything else is retrieved exhaustively. A
// failed count falls back to exhaustive retrieval rather than failing the
// query.
func (e *Engine) retrieveCandidates(ctx context.Context, req *Request, weights Weights, topK int) ([]vectorstore.MoveDocument, error) {
	embeddings := req.embeddingsByField()
	if e.searcher == nil || e.hybridThreshold <= 0 || len(embeddings) == 0 {
		return e.catalog.GetAllEmbeddings(ctx, req.filters())
	}

	count, err := e.searcher.CountDocuments(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("catalog count failed, retrieving exhaustively")
		return e.catalog.GetAllEmbeddings(ctx, req.filters())
	}
	if count < e.hybridThreshold {
		return e.catalog.GetAllEmbeddings(ctx, req.filters())
	}

	hits, err := e.searcher.HybridSearch(ctx, &vectorstore.SearchRequest{
		Embeddings: embeddings,
		Weights:    weights.ToFieldMap(),
		Filters:    req.filters(),
		TopK:       hybridCandidateMultiplier * topK,
	})
	if err != nil {
		return nil, err
	}

	docs := make([]vectorstore.MoveDocument, len(hits))
	for i := range hits {
		docs[i] = hits[i].Document
	}
	e.logger.Debug().Int("catalog", count).Int("candidates", len(docs)).Msg("narrowed candidates store-side")
	return docs, nil
}

// scoreCandidate computes the per-modality breakdown and weighted overall
// score for one candidate.
func scoreCandidate(req *Request, doc *vectorstore.MoveDocument, weights Weights) RecommendationScore {
	sims := map[string]float64{
		ModalityText:        modalitySimilarity(req.QueryTextEmbedding, doc.TextEmbedding),
		ModalityAudio:       modalitySimilarity(req.QueryAudioEmbedding, doc.AudioEmbedding),
		ModalityLead:        modalitySimilarity(req.QueryLeadEmbedding, doc.LeadEmbedding),
		ModalityFollow:      modalitySimilarity(req.QueryFollowEmbedding, doc.FollowEmbedding),
		ModalityInteraction: modalitySimilarity(req.QueryInteractionEmbedding, doc.InteractionEmbedding),
	}

	overall := weights.Text*sims[ModalityText] +
		weights.Audio*sims[ModalityAudio] +
		weights.Lead*sims[ModalityLead] +
		weights.Follow*sims[ModalityFollow] +
		weights.Interaction*sims[ModalityInteraction]

	return RecommendationScore{
		ClipID:          doc.ClipID,
		VideoPath:       doc.VideoPath,
		MoveLabel:       doc.MoveLabel,
		Difficulty:      doc.Difficulty,
		EnergyLevel:     doc.EnergyLevel,
		EstimatedTempo:  doc.EstimatedTempo,
		QualityScore:    doc.QualityScore,
		OverallScore:    overall,
		Similarities:    sims,
		MetadataMatches: req.matches(doc),
		Weights:         weights,
	}
}

// modalitySimilarity is the remapped cosine similarity in [0, 1]. A
// missing query vector contributes 0 while its weight still spends
// against the overall score. Degenerate candidates (missing vector,
// dimension mismatch, near-zero norm) also score 0.
func modalitySimilarity(query, candidate []float64) float64 {
	if len(query) == 0 || len(candidate) == 0 || len(query) != len(candidate) {
		return 0
	}

	const normEpsilon = 1e-12
	qNorm := floats.Norm(query, 2)
	cNorm := floats.Norm(candidate, 2)
	if qNorm < normEpsilon || cNorm < normEpsilon {
		return 0
	}

	cos := floats.Dot(query, candidate) / (qNorm * cNorm)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return (cos + 1) / 2
}
