// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

// Package embedding turns per-clip pose and interaction features into
// fixed-dimension, unit-normalized vectors ready for indexing.
//
// Feature vectors rarely match the index dimensions, so each vector is
// either zero-padded up or reduced with a deterministic Gaussian random
// projection. Determinism matters: the projection seed is derived from
// the feature vector itself, so re-embedding an unchanged clip always
// produces the identical vector.
package embedding
