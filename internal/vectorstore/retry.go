// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// StatusError is a non-2xx response from the store.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("store returned status %d: %s", e.StatusCode, e.Message)
}

// transient reports whether the status is worth retrying.
func (e *StatusError) transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// RetryPolicy retries transient store failures with exponential backoff:
// 1s, 2s, 4s and so on, doubling per attempt.
type RetryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	logger     zerolog.Logger
}

// NewRetryPolicy creates a policy allowing maxRetries retries after the
// initial attempt.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetryPolicy(maxRetries int, logger zerolog.Logger) *RetryPolicy {
	return &RetryPolicy{
		maxRetries: maxRetries,
		baseDelay:  time.Second,
		logger:     logger.With().Str("component", "vectorstore.retry").Logger(),
	}
}

// Do runs fn until it succeeds, fails terminally, or exhausts the retry
// budget. Backoff waits are cancellable through ctx.
func (r *RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt >= r.maxRetries {
			break
		}

		delay := r.baseDelay << attempt
		r.logger.Warn().
			Err(err).
			Str("operation", op).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("retrying store operation")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// retryable distinguishes transient transport failures from terminal
// conditions. Connection-level errors retry; missing documents, cancelled
// contexts and an open circuit breaker do not.
func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.transient()
	}
	return true
}
