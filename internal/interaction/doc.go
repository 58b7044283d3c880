// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

// Package interaction derives couple-level features from frame-aligned
// dancer pairs: normalized inter-dancer distance, hand-to-hand connections,
// relative body orientation, and frame-to-frame movement synchronization.
//
// All pixel distances are normalized by the frame diagonal so features are
// scale-invariant across source resolutions. Frames missing either dancer
// are dropped from the interaction sequence entirely.
//
// The classifier and connection thresholds are configuration, not
// constants: they were tuned empirically and have no stated calibration
// procedure, so deployments can adjust them without a rebuild.
package interaction
