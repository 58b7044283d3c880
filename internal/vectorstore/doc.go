// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

// Package vectorstore is the Elasticsearch-backed move catalog: one
// document per clip carrying five cosine-indexed dense vectors plus the
// clip metadata.
//
// All operations share a bounded exponential-backoff retry policy and a
// circuit breaker. Vector fields are always requested explicitly, since
// managed deployments may exclude dense vectors from default source
// retrieval.
package vectorstore
