// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

// Package batch runs the clip pipeline across many videos. Clips are
// independent, so the driver parallelizes across them while each clip's
// pipeline stays sequential. One failed clip never aborts the batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cadencia/cadencia/internal/detector"
	"github.com/cadencia/cadencia/internal/embedding"
	"github.com/cadencia/cadencia/internal/metrics"
	"github.com/cadencia/cadencia/internal/vectorstore"
)

// Failure causes reported for clips excluded from the catalog.
const (
	CauseDetection        = "detection"
	CauseInsufficientData = "insufficient_pose_data"
	CauseValidation       = "validation"
	CauseStoreWrite       = "store_write"
)

// ClipSpec describes one video to process. Audio and text embeddings are
// produced by external collaborators and attached as-is.
type ClipSpec struct {
	// ClipID is the catalog key; generated when empty.
	ClipID    string `json:"clip_id"`
	VideoPath string `json:"video_path" validate:"required"`

	MoveLabel       string  `json:"move_label"`
	Difficulty      string  `json:"difficulty"`
	EnergyLevel     string  `json:"energy_level"`
	LeadFollowRoles string  `json:"lead_follow_roles"`
	EstimatedTempo  float64 `json:"estimated_tempo"`

	AudioEmbedding []float64 `json:"audio_embedding,omitempty"`
	TextEmbedding  []float64 `json:"text_embedding,omitempty"`
}

// ClipResult is the outcome for one clip.
type ClipResult struct {
	ClipID  string `json:"clip_id"`
	Indexed bool   `json:"indexed"`

	// Cause names the failing stage; empty on success.
	Cause string `json:"cause,omitempty"`
	Err   error  `json:"-"`
}

// Indexer is the store slice the processor writes through.
type Indexer interface {
	BulkIndex(ctx context.Context, docs []vectorstore.MoveDocument) (*vectorstore.BulkResult, error)
}

// Config tunes the batch driver.
type Config struct {
	// Concurrency bounds parallel clip pipelines. Default: 4.
	Concurrency int `json:"concurrency"`

	// TargetFPS is the sampling rate requested from the detector.
	// Default: 15.
	TargetFPS float64 `json:"target_fps"`

	// Version is stamped on every indexed document.
	Version string `json:"version"`
}

// Processor drives detection, embedding generation and indexing for a
// set of clips.
type Processor struct {
	cfg       Config
	detector  detector.PoseDetector
	generator *embedding.Generator
	store     Indexer
	logger    zerolog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewProcessor creates a Processor. Zero config fields get defaults.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewProcessor(cfg Config, det detector.PoseDetector, gen *embedding.Generator, store Indexer, logger zerolog.Logger) *Processor {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 15
	}
	return &Processor{
		cfg:       cfg,
		detector:  det,
		generator: gen,
		store:     store,
		logger:    logger.With().Str("component", "batch").Logger(),
		now:       time.Now,
	}
}

// ProcessClips runs the pipeline for every clip with bounded concurrency,
// then writes all successful documents in one bulk call. The returned
// results are positionally aligned with clips.
func (p *Processor) ProcessClips(ctx context.Context, clips []ClipSpec) ([]ClipResult, error) {
	results := make([]ClipResult, len(clips))
	docs := make([]*vectorstore.MoveDocument, len(clips))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i := range clips {
		g.Go(func() error {
			doc, result := p.processClip(gctx, &clips[i])
			docs[i], results[i] = doc, result
			return nil
		})
	}
	// Workers never return errors; per-clip failures live in results.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}

	var toIndex []vectorstore.MoveDocument
	var indexed []int
	for i, doc := range docs {
		if doc != nil {
			toIndex = append(toIndex, *doc)
			indexed = append(indexed, i)
		}
	}
	if len(toIndex) == 0 {
		return results, nil
	}

	bulk, err := p.store.BulkIndex(ctx, toIndex)
	if err != nil {
		for _, i := range indexed {
			results[i] = ClipResult{ClipID: results[i].ClipID, Cause: CauseStoreWrite, Err: err}
		}
		return results, fmt.Errorf("bulk index batch: %w", err)
	}

	failed := make(map[string]bool, len(bulk.FailedIDs))
	for _, id := range bulk.FailedIDs {
		failed[id] = true
	}
	for _, i := range indexed {
		if failed[results[i].ClipID] {
			results[i].Indexed = false
			results[i].Cause = CauseStoreWrite
			results[i].Err = errors.New("document rejected by store")
		} else {
			results[i].Indexed = true
		}
	}

	p.logger.Info().
		Int("clips", len(clips)).
		Int("indexed", bulk.Indexed).
		Int("failed", len(clips)-bulk.Indexed).
		Msg("processed batch")
	return results, nil
}

// processClip runs one clip's pipeline. A non-nil document means the clip
// is ready for indexing.
func (p *Processor) processClip(ctx context.Context, spec *ClipSpec) (*vectorstore.MoveDocument, ClipResult) {
	clipID := spec.ClipID
	if clipID == "" {
		clipID = uuid.NewString()
	}
	result := ClipResult{ClipID: clipID}
	start := p.now()

	det, err := p.detector.DetectCouplePoses(ctx, spec.VideoPath, p.cfg.TargetFPS)
	if err != nil {
		p.logger.Warn().Err(err).Str("clip_id", clipID).Str("video", spec.VideoPath).Msg("detection failed")
		result.Cause, result.Err = CauseDetection, err
		metrics.RecordClipOutcome(CauseDetection, time.Since(start))
		return nil, result
	}

	emb, err := p.generator.GenerateEmbeddings(det.Couples, det.FrameWidth, det.FrameHeight)
	if err != nil {
		cause := CauseValidation
		if errors.Is(err, embedding.ErrInsufficientData) {
			cause = CauseInsufficientData
		}
		p.logger.Warn().Err(err).Str("clip_id", clipID).Msg("embedding generation failed")
		result.Cause, result.Err = cause, err
		metrics.RecordClipOutcome(cause, time.Since(start))
		return nil, result
	}
	if !emb.Validate() {
		p.logger.Warn().Str("clip_id", clipID).Msg("embedding validation failed")
		result.Cause, result.Err = CauseValidation, embedding.ErrInvalidEmbedding
		metrics.RecordClipOutcome(CauseValidation, time.Since(start))
		return nil, result
	}

	doc := &vectorstore.MoveDocument{
		ClipID:               clipID,
		AudioEmbedding:       spec.AudioEmbedding,
		LeadEmbedding:        emb.Lead,
		FollowEmbedding:      emb.Follow,
		InteractionEmbedding: emb.Interaction,
		TextEmbedding:        spec.TextEmbedding,
		MoveLabel:            spec.MoveLabel,
		Difficulty:           spec.Difficulty,
		EnergyLevel:          spec.EnergyLevel,
		LeadFollowRoles:      spec.LeadFollowRoles,
		EstimatedTempo:       spec.EstimatedTempo,
		VideoPath:            spec.VideoPath,
		QualityScore:         emb.Quality.QualityScore,
		DetectionRate:        emb.Quality.DetectionRate,
		FrameCount:           emb.Quality.FrameCount,
		ProcessingTime:       time.Since(start).Seconds(),
		Version:              p.cfg.Version,
		CreatedAt:            p.now().UTC(),
	}
	metrics.RecordClipOutcome("indexed", time.Since(start))
	metrics.ClipQualityScore.Observe(emb.Quality.QualityScore)
	return doc, result
}
