// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package vectorstore

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/cadencia/cadencia/internal/embedding"
)

// ErrEmptyQuery indicates a search with neither query embeddings nor text.
var ErrEmptyQuery = errors.New("search requires at least one query embedding or query text")

// defaultTopK applies when a request leaves TopK unset.
const defaultTopK = 10

// retrievalPageSize bounds full-catalog retrieval, matching the store's
// default result-window ceiling.
const retrievalPageSize = 10000

// fieldDims maps each vector field to its indexed dimension.
var fieldDims = map[string]int{
	FieldAudioEmbedding:       AudioDim,
	FieldLeadEmbedding:        embedding.LeadDim,
	FieldFollowEmbedding:      embedding.FollowDim,
	FieldInteractionEmbedding: embedding.InteractionDim,
	FieldTextEmbedding:        TextDim,
}

// knnFieldOrder fixes the kNN clause order so identical requests produce
// identical query bodies.
var knnFieldOrder = []string{
	FieldAudioEmbedding,
	FieldLeadEmbedding,
	FieldFollowEmbedding,
	FieldInteractionEmbedding,
	FieldTextEmbedding,
}

// buildHybridQuery assembles the search body: one kNN clause per provided
// embedding (boosted by its modality weight), an optional multi-field text
// clause, and term filters. Sub-query scores are summed by the store.
func buildHybridQuery(req *SearchRequest) (map[string]any, error) {
	if len(req.Embeddings) == 0 && req.QueryText == "" {
		return nil, ErrEmptyQuery
	}

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	k := 2 * topK
	numCandidates := 10 * topK
	if numCandidates > 100 {
		numCandidates = 100
	}
	if numCandidates < k {
		numCandidates = k
	}

	terms := termFilters(req.Filters)

	var knn []map[string]any
	for _, field := range knnFieldOrder {
		vector, ok := req.Embeddings[field]
		if !ok {
			continue
		}
		if want := fieldDims[field]; len(vector) != want {
			return nil, fmt.Errorf("query vector for %s has dimension %d, want %d", field, len(vector), want)
		}

		weight := 1.0
		if w, ok := req.Weights[field]; ok {
			weight = w
		}

		clause := map[string]any{
			"field":          field,
			"query_vector":   vector,
			"k":              k,
			"num_candidates": numCandidates,
			"boost":          weight,
		}
		if len(terms) > 0 {
			clause["filter"] = map[string]any{"bool": map[string]any{"filter": terms}}
		}
		knn = append(knn, clause)
	}

	// Reject vectors for fields the index does not carry.
	for field := range req.Embeddings {
		if _, ok := fieldDims[field]; !ok {
			return nil, fmt.Errorf("unknown vector field %q", field)
		}
	}

	body := map[string]any{
		"size":    topK,
		"_source": map[string]any{"includes": sourceFields},
	}
	if len(knn) > 0 {
		body["knn"] = knn
	}

	if req.QueryText != "" {
		boolQuery := map[string]any{
			"must": []any{
				map[string]any{
					"multi_match": map[string]any{
						"query":  req.QueryText,
						"fields": []string{"move_label^2", "difficulty", "energy_level"},
					},
				},
			},
		}
		if len(terms) > 0 {
			boolQuery["filter"] = terms
		}
		body["query"] = map[string]any{"bool": boolQuery}
	}

	return body, nil
}

// matchAllQuery builds the full-catalog retrieval body, filters applied.
func matchAllQuery(filters *Filters) map[string]any {
	body := map[string]any{
		"size":    retrievalPageSize,
		"_source": map[string]any{"includes": sourceFields},
	}
	if terms := termFilters(filters); len(terms) > 0 {
		body["query"] = map[string]any{"bool": map[string]any{"filter": terms}}
	} else {
		body["query"] = map[string]any{"match_all": map[string]any{}}
	}
	return body
}

// termFilters converts the non-empty filters into term clauses.
func termFilters(f *Filters) []any {
	pairs := f.termPairs()
	if len(pairs) == 0 {
		return nil
	}
	terms := make([]any, 0, len(pairs))
	for _, p := range pairs {
		terms = append(terms, map[string]any{"term": map[string]any{p[0]: p[1]}})
	}
	return terms
}

// parseSearchResponse extracts scored documents from a search body.
func parseSearchResponse(body []byte) ([]SearchHit, error) {
	var res struct {
		Hits struct {
			Hits []struct {
				Score  float64      `json:"_score"`
				Source MoveDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]SearchHit, len(res.Hits.Hits))
	for i, h := range res.Hits.Hits {
		hits[i] = SearchHit{Document: h.Source, Score: h.Score}
	}
	return hits, nil
}
