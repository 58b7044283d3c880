// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

// Package api exposes the recommendation service over HTTP using the Chi
// router. All endpoints return the standard response envelope with a
// request ID for tracing.
package api
