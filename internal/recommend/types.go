// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package recommend

import (
	"fmt"
	"math"

	"github.com/cadencia/cadencia/internal/vectorstore"
)

// Modality names used in score breakdowns and weight maps.
const (
	ModalityText        = "text"
	ModalityAudio       = "audio"
	ModalityLead        = "lead"
	ModalityFollow      = "follow"
	ModalityInteraction = "interaction"
)

// Weights distributes scoring influence across the five modalities. The
// weights used for a score are always recorded alongside it.
type Weights struct {
	Text        float64 `json:"text"`
	Audio       float64 `json:"audio"`
	Lead        float64 `json:"lead"`
	Follow      float64 `json:"follow"`
	Interaction float64 `json:"interaction"`
}

// DefaultWeights returns the calibrated modality weights.
func DefaultWeights() Weights {
	return Weights{
		Text:        0.35,
		Audio:       0.35,
		Lead:        0.10,
		Follow:      0.10,
		Interaction: 0.10,
	}
}

// Validate checks the weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	for name, v := range w.byModality() {
		if v < 0 {
			return fmt.Errorf("weight %s is negative: %v", name, v)
		}
	}
	sum := w.Text + w.Audio + w.Lead + w.Follow + w.Interaction
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("weights sum to %v, want 1.0", sum)
	}
	return nil
}

func (w Weights) byModality() map[string]float64 {
	return map[string]float64{
		ModalityText:        w.Text,
		ModalityAudio:       w.Audio,
		ModalityLead:        w.Lead,
		ModalityFollow:      w.Follow,
		ModalityInteraction: w.Interaction,
	}
}

// ToFieldMap keys the weights by vector field name, the form the store's
// hybrid search consumes as kNN boosts.
func (w Weights) ToFieldMap() map[string]float64 {
	return map[string]float64{
		vectorstore.FieldTextEmbedding:        w.Text,
		vectorstore.FieldAudioEmbedding:       w.Audio,
		vectorstore.FieldLeadEmbedding:        w.Lead,
		vectorstore.FieldFollowEmbedding:      w.Follow,
		vectorstore.FieldInteractionEmbedding: w.Interaction,
	}
}

// Request is one recommendation query: any subset of modality embeddings
// plus optional exact-match pre-filters.
type Request struct {
	QueryTextEmbedding        []float64 `json:"query_text_embedding,omitempty"`
	QueryAudioEmbedding       []float64 `json:"query_audio_embedding,omitempty"`
	QueryLeadEmbedding        []float64 `json:"query_lead_embedding,omitempty"`
	QueryFollowEmbedding      []float64 `json:"query_follow_embedding,omitempty"`
	QueryInteractionEmbedding []float64 `json:"query_interaction_embedding,omitempty"`

	// Pre-filters. Candidates failing any of them are excluded before
	// scoring.
	Difficulty  string `json:"difficulty,omitempty"`
	EnergyLevel string `json:"energy_level,omitempty"`
	MoveLabel   string `json:"move_label,omitempty"`
	RoleFocus   string `json:"role_focus,omitempty"`

	// MinQuality excludes candidates whose quality score is below the
	// threshold.
	MinQuality float64 `json:"min_quality,omitempty"`

	// Weights overrides the engine defaults for this request.
	Weights *Weights `json:"weights,omitempty"`
}

// embeddingsByField collects the provided query vectors keyed by store
// field name, the form the store's hybrid search consumes.
func (r *Request) embeddingsByField() map[string][]float64 {
	m := make(map[string][]float64, 5)
	for field, v := range map[string][]float64{
		vectorstore.FieldTextEmbedding:        r.QueryTextEmbedding,
		vectorstore.FieldAudioEmbedding:       r.QueryAudioEmbedding,
		vectorstore.FieldLeadEmbedding:        r.QueryLeadEmbedding,
		vectorstore.FieldFollowEmbedding:      r.QueryFollowEmbedding,
		vectorstore.FieldInteractionEmbedding: r.QueryInteractionEmbedding,
	} {
		if len(v) > 0 {
			m[field] = v
		}
	}
	return m
}

// filters converts the exact-match constraints into store filters, nil
// when unconstrained.
func (r *Request) filters() *vectorstore.Filters {
	if r.Difficulty == "" && r.EnergyLevel == "" && r.MoveLabel == "" && r.RoleFocus == "" {
		return nil
	}
	return &vectorstore.Filters{
		MoveLabel:       r.MoveLabel,
		Difficulty:      r.Difficulty,
		EnergyLevel:     r.EnergyLevel,
		LeadFollowRoles: r.RoleFocus,
	}
}

// MetadataMatches flags, per filterable attribute, whether the candidate
// matches the request's constraint. An attribute the request leaves
// unconstrained matches by definition.
type MetadataMatches struct {
	Difficulty  bool `json:"difficulty"`
	EnergyLevel bool `json:"energy_level"`
	MoveLabel   bool `json:"move_label"`
	RoleFocus   bool `json:"role_focus"`
}

// matches evaluates the request's metadata constraints against one
// candidate document.
func (r *Request) matches(doc *vectorstore.MoveDocument) MetadataMatches {
	return MetadataMatches{
		Difficulty:  r.Difficulty == "" || r.Difficulty == doc.Difficulty,
		EnergyLevel: r.EnergyLevel == "" || r.EnergyLevel == doc.EnergyLevel,
		MoveLabel:   r.MoveLabel == "" || r.MoveLabel == doc.MoveLabel,
		RoleFocus:   r.RoleFocus == "" || r.RoleFocus == doc.LeadFollowRoles,
	}
}

// RecommendationScore is one ranked candidate with its full score
// breakdown, self-contained enough to sequence moves without another
// store round-trip.
type RecommendationScore struct {
	ClipID     string `json:"clip_id"`
	VideoPath  string `json:"video_path"`
	MoveLabel  string `json:"move_label"`
	Difficulty string `json:"difficulty"`

	EnergyLevel    string  `json:"energy_level"`
	EstimatedTempo float64 `json:"estimated_tempo"`
	QualityScore   float64 `json:"quality_score"`

	// OverallScore is the weighted sum of the per-modality similarities.
	OverallScore float64 `json:"overall_score"`

	// Similarities maps modality name to its remapped cosine similarity
	// in [0, 1]. Modalities absent from the query score 0.
	Similarities map[string]float64 `json:"similarities"`

	// MetadataMatches reports which request filters the candidate
	// satisfies, so callers can sequence moves without re-querying.
	MetadataMatches MetadataMatches `json:"metadata_matches"`

	// Weights records the weights this score was computed with.
	Weights Weights `json:"weights"`
}
