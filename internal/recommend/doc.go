// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

// Package recommend ranks catalog moves against a multimodal query.
//
// Scoring is exact and exhaustive: every candidate is compared to the
// query in all five modalities and the weighted sum decides the order.
// For the catalog sizes this engine serves, exhaustive cosine scoring is
// cheaper and more faithful than approximate vector search.
//
// The CatalogProvider interface decouples the engine from the store
// client so the two packages compose without a circular import.
package recommend
