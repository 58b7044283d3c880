// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package embedding

import "math"

// Index dimensions for the pose-derived vector fields.
const (
	// LeadDim is the lead dancer embedding dimension.
	LeadDim = 512

	// FollowDim is the follow dancer embedding dimension.
	FollowDim = 512

	// InteractionDim is the couple interaction embedding dimension.
	InteractionDim = 256
)

// QualityMetadata summarizes how reliable a clip's embeddings are.
type QualityMetadata struct {
	// QualityScore is the combined clip quality in [0, 1]:
	// 0.6*detection_rate + 0.4*avg_confidence.
	QualityScore float64 `json:"quality_score"`

	// DetectionRate is the fraction of sampled frames with both dancers
	// detected.
	DetectionRate float64 `json:"detection_rate"`

	// AvgConfidence is the mean of all non-zero keypoint confidences
	// across both dancers' detected poses.
	AvgConfidence float64 `json:"avg_confidence"`

	// FrameCount is the number of sampled frames in the clip.
	FrameCount int `json:"frame_count"`

	// LeadFrameCount and FollowFrameCount are the per-dancer valid frame
	// counts feeding the temporal aggregation.
	LeadFrameCount   int `json:"lead_frame_count"`
	FollowFrameCount int `json:"follow_frame_count"`
}

// PoseEmbeddings is the generated vector set for one clip. Each vector is
// unit L2-normalized unless its pre-normalization norm was below the
// degenerate threshold, in which case it is left as-is.
type PoseEmbeddings struct {
	Lead        []float64 `json:"lead_embedding"`
	Follow      []float64 `json:"follow_embedding"`
	Interaction []float64 `json:"interaction_embedding"`

	Quality QualityMetadata `json:"quality"`
}

// Validate reports whether every embedding has its expected dimension and
// contains only finite values. Callers must not index embeddings that fail
// this check.
func (e *PoseEmbeddings) Validate() bool {
	return validVector(e.Lead, LeadDim) &&
		validVector(e.Follow, FollowDim) &&
		validVector(e.Interaction, InteractionDim)
}

func validVector(v []float64, dim int) bool {
	if len(v) != dim {
		return false
	}
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
