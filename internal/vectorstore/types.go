// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package vectorstore

import (
	"errors"
	"time"
)

// Dimensions of the externally produced vector fields. The pose-derived
// dimensions live in the embedding package.
const (
	// AudioDim is the audio embedding dimension.
	AudioDim = 128

	// TextDim is the text embedding dimension.
	TextDim = 384
)

// Vector field names in the index.
const (
	FieldAudioEmbedding       = "audio_embedding"
	FieldLeadEmbedding        = "lead_embedding"
	FieldFollowEmbedding      = "follow_embedding"
	FieldInteractionEmbedding = "interaction_embedding"
	FieldTextEmbedding        = "text_embedding"
)

// ErrNotFound indicates the requested clip is not in the catalog.
var ErrNotFound = errors.New("document not found")

// MoveDocument is one indexed clip: the five embeddings plus metadata.
// Immutable once indexed except for path corrections.
type MoveDocument struct {
	ClipID string `json:"clip_id"`

	AudioEmbedding       []float64 `json:"audio_embedding,omitempty"`
	LeadEmbedding        []float64 `json:"lead_embedding,omitempty"`
	FollowEmbedding      []float64 `json:"follow_embedding,omitempty"`
	InteractionEmbedding []float64 `json:"interaction_embedding,omitempty"`
	TextEmbedding        []float64 `json:"text_embedding,omitempty"`

	MoveLabel       string  `json:"move_label"`
	Difficulty      string  `json:"difficulty"`
	EnergyLevel     string  `json:"energy_level"`
	LeadFollowRoles string  `json:"lead_follow_roles"`
	EstimatedTempo  float64 `json:"estimated_tempo"`
	VideoPath       string  `json:"video_path"`
	QualityScore    float64 `json:"quality_score"`
	DetectionRate   float64 `json:"detection_rate"`
	FrameCount      int     `json:"frame_count"`
	ProcessingTime  float64 `json:"processing_time"`
	Version         string  `json:"version"`

	CreatedAt time.Time `json:"created_at"`
}

// Filters restricts search and retrieval by exact metadata values. Empty
// fields are ignored.
type Filters struct {
	MoveLabel       string `json:"move_label,omitempty"`
	Difficulty      string `json:"difficulty,omitempty"`
	EnergyLevel     string `json:"energy_level,omitempty"`
	LeadFollowRoles string `json:"lead_follow_roles,omitempty"`
}

// termPairs lists the non-empty filters as field/value pairs targeting the
// keyword sub-fields.
func (f *Filters) termPairs() [][2]string {
	if f == nil {
		return nil
	}
	var pairs [][2]string
	for _, p := range [][2]string{
		{"move_label.keyword", f.MoveLabel},
		{"difficulty.keyword", f.Difficulty},
		{"energy_level.keyword", f.EnergyLevel},
		{"lead_follow_roles", f.LeadFollowRoles},
	} {
		if p[1] != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// SearchRequest is a hybrid query: any subset of per-field query vectors,
// optional free text, optional filters. At least one vector or the text
// must be present.
type SearchRequest struct {
	// Embeddings maps vector field name to query vector.
	Embeddings map[string][]float64

	// QueryText searches move label, difficulty and energy level fields.
	QueryText string

	// Weights maps vector field name to its kNN boost; fields without an
	// entry default to weight 1.
	Weights map[string]float64

	Filters *Filters

	// TopK is the number of hits to return.
	TopK int
}

// SearchHit is one scored catalog document.
type SearchHit struct {
	Document MoveDocument `json:"document"`
	Score    float64      `json:"score"`
}

// BulkResult reports per-document outcomes of a bulk index call.
type BulkResult struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`

	// FailedIDs lists clip IDs rejected by the store.
	FailedIDs []string `json:"failed_ids,omitempty"`
}
