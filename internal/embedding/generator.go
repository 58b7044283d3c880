// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package embedding

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cadencia/cadencia/internal/interaction"
	"github.com/cadencia/cadencia/internal/pose"
)

// ErrInsufficientData indicates a dancer had zero valid frames in the
// clip. Clips failing this way are excluded from the catalog; they are
// never indexed as zero vectors.
var ErrInsufficientData = errors.New("insufficient pose data")

// ErrInvalidEmbedding indicates a generated embedding failed validation
// (NaN/Inf values or a wrong dimension). Callers must not index it.
var ErrInvalidEmbedding = errors.New("invalid embedding")

// Generator produces PoseEmbeddings for a clip from frame-aligned couple
// poses. It holds no mutable state and is safe for concurrent use.
type Generator struct {
	extractor *pose.Extractor
	analyzer  *interaction.Analyzer
	logger    zerolog.Logger
}

// NewGenerator creates a Generator sharing one analyzer configuration
// across the pose and interaction stages.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGenerator(cfg interaction.Config, logger zerolog.Logger) *Generator {
	return &Generator{
		extractor: pose.NewExtractor(cfg.ConfidenceThreshold, logger),
		analyzer:  interaction.NewAnalyzer(cfg, logger),
		logger:    logger.With().Str("component", "embedding").Logger(),
	}
}

// GenerateEmbeddings aggregates the clip's temporal features and projects
// them into the index dimensions. Returns ErrInsufficientData when either
// dancer has zero valid frames.
func (g *Generator) GenerateEmbeddings(couples []pose.CouplePose, frameWidth, frameHeight float64) (*PoseEmbeddings, error) {
	leadSeq := g.extractor.ExtractTemporalSequence(couples, pose.RoleLead)
	if leadSeq.FrameCount() == 0 {
		return nil, fmt.Errorf("lead dancer has no valid frames: %w", ErrInsufficientData)
	}
	followSeq := g.extractor.ExtractTemporalSequence(couples, pose.RoleFollow)
	if followSeq.FrameCount() == 0 {
		return nil, fmt.Errorf("follow dancer has no valid frames: %w", ErrInsufficientData)
	}

	interSeq := g.analyzer.AnalyzeTemporalSequence(couples, frameWidth, frameHeight)

	emb := &PoseEmbeddings{
		Lead:        Normalize(projectToDimension(leadSeq.FeatureVector(), LeadDim)),
		Follow:      Normalize(projectToDimension(followSeq.FeatureVector(), FollowDim)),
		Interaction: Normalize(projectToDimension(interSeq.FeatureVector(), InteractionDim)),
		Quality:     qualityMetadata(couples, leadSeq, followSeq),
	}

	g.logger.Debug().
		Int("frames", len(couples)).
		Float64("quality_score", emb.Quality.QualityScore).
		Float64("detection_rate", emb.Quality.DetectionRate).
		Msg("generated pose embeddings")

	return emb, nil
}

// qualityMetadata scores the clip: 0.6 weighted on the both-dancer
// detection rate, 0.4 on the mean non-zero keypoint confidence across all
// detected poses.
func qualityMetadata(couples []pose.CouplePose, leadSeq, followSeq *pose.TemporalPoseSequence) QualityMetadata {
	var both int
	var confSum float64
	var confN int

	for i := range couples {
		c := &couples[i]
		if c.BothPresent() {
			both++
		}
		for _, p := range []*pose.PersonPose{c.Lead, c.Follow} {
			if p == nil {
				continue
			}
			for _, kp := range p.Keypoints {
				if kp.Confidence > 0 {
					confSum += kp.Confidence
					confN++
				}
			}
		}
	}

	var detectionRate, avgConfidence float64
	if len(couples) > 0 {
		detectionRate = float64(both) / float64(len(couples))
	}
	if confN > 0 {
		avgConfidence = confSum / float64(confN)
	}

	return QualityMetadata{
		QualityScore:     0.6*detectionRate + 0.4*avgConfidence,
		DetectionRate:    detectionRate,
		AvgConfidence:    avgConfidence,
		FrameCount:       len(couples),
		LeadFrameCount:   leadSeq.FrameCount(),
		FollowFrameCount: followSeq.FrameCount(),
	}
}
