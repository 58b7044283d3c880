// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cadencia/cadencia/internal/batch"
	"github.com/cadencia/cadencia/internal/recommend"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RecommendRequest is the POST /api/v1/recommend body. The embedded
// recommend.Request carries the modality embeddings and filters.
type RecommendRequest struct {
	recommend.Request

	// TopK bounds the result count. Zero means the server default.
	TopK int `json:"top_k" validate:"min=0,max=100"`
}

// hasQueryVector reports whether at least one modality embedding was
// supplied. A query with none would rank the whole catalog at score 0.
func (r *RecommendRequest) hasQueryVector() bool {
	return len(r.QueryTextEmbedding) > 0 ||
		len(r.QueryAudioEmbedding) > 0 ||
		len(r.QueryLeadEmbedding) > 0 ||
		len(r.QueryFollowEmbedding) > 0 ||
		len(r.QueryInteractionEmbedding) > 0
}

// ProcessClipsRequest is the POST /api/v1/clips body.
type ProcessClipsRequest struct {
	Clips []batch.ClipSpec `json:"clips" validate:"required,min=1,max=500,dive"`
}

// validateRequest runs struct validation and flattens the failures into
// field: tag pairs for the error details.
func validateRequest(v any) *APIError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	details := make([]string, 0)
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details = append(details, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: "request validation failed",
		Details: details,
	}
}
