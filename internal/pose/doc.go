// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

// Package pose converts per-frame dance keypoints into biomechanical features.
//
// The package consumes the detector's raw output (COCO 17-point body
// keypoints plus optional hand keypoints, two tracked dancers per frame) and
// derives per-frame joint angles, center of mass, and velocity, then
// aggregates a clip into a fixed-layout feature vector per dancer.
//
// # Pipeline position
//
//	CouplePose sequence -> Extractor.ExtractTemporalSequence -> TemporalPoseSequence
//	                                                              |
//	                                              FeatureVector() -> embedding generation
//
// # Confidence gating
//
// Every derived quantity is gated on keypoint confidence: a joint angle is
// only present when all three contributing keypoints exceed the configured
// threshold, and the center of mass is a confidence-weighted centroid over
// valid keypoints only. Per-frame gaps are absorbed locally (missing map
// entries, nil velocity); they never abort a clip.
//
// # Determinism
//
// FeatureVector has a fixed layout (angles in declaration order, then center
// of mass, velocity, confidence, bounding-box moments) so that identical
// input sequences always produce identical vectors. Missing values enter the
// aggregation as NaN and are excluded by NaN-aware moments; an all-NaN column
// is coerced to 0.
package pose
