// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package vectorstore

import "github.com/cadencia/cadencia/internal/embedding"

// indexMapping builds the index-creation body. Shard and replica settings
// apply only to self-managed clusters; serverless deployments reject them.
func indexMapping(selfManaged bool) map[string]any {
	denseVector := func(dims int) map[string]any {
		return map[string]any{
			"type":       "dense_vector",
			"dims":       dims,
			"index":      true,
			"similarity": "cosine",
		}
	}
	// Text for multi-field matching, keyword sub-field for term filters.
	searchableText := map[string]any{
		"type": "text",
		"fields": map[string]any{
			"keyword": map[string]any{"type": "keyword"},
		},
	}

	body := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"clip_id": map[string]any{"type": "keyword"},

				FieldAudioEmbedding:       denseVector(AudioDim),
				FieldLeadEmbedding:        denseVector(embedding.LeadDim),
				FieldFollowEmbedding:      denseVector(embedding.FollowDim),
				FieldInteractionEmbedding: denseVector(embedding.InteractionDim),
				FieldTextEmbedding:        denseVector(TextDim),

				"move_label":        searchableText,
				"difficulty":        searchableText,
				"energy_level":      searchableText,
				"lead_follow_roles": map[string]any{"type": "keyword"},
				"estimated_tempo":   map[string]any{"type": "float"},
				"video_path":        map[string]any{"type": "keyword"},
				"quality_score":     map[string]any{"type": "float"},
				"detection_rate":    map[string]any{"type": "float"},
				"frame_count":       map[string]any{"type": "integer"},
				"processing_time":   map[string]any{"type": "float"},
				"version":           map[string]any{"type": "keyword"},
				"created_at":        map[string]any{"type": "date"},
			},
		},
	}

	if selfManaged {
		body["settings"] = map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		}
	}
	return body
}

// sourceFields is the explicit source include list for retrieval. Managed
// vector backends exclude dense vectors from default source responses, so
// every field, vectors included, is requested by name.
var sourceFields = []string{
	"clip_id",
	FieldAudioEmbedding,
	FieldLeadEmbedding,
	FieldFollowEmbedding,
	FieldInteractionEmbedding,
	FieldTextEmbedding,
	"move_label",
	"difficulty",
	"energy_level",
	"lead_follow_roles",
	"estimated_tempo",
	"video_path",
	"quality_score",
	"detection_rate",
	"frame_count",
	"processing_time",
	"version",
	"created_at",
}
