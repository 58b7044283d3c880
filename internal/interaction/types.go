// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package interaction

import "math"

// RelativePosition classifies how the two dancers are oriented toward
// each other in a frame.
type RelativePosition string

const (
	// PositionFacing indicates the dancers face each other (open/closed position).
	PositionFacing RelativePosition = "facing"

	// PositionSideBySide indicates parallel shoulder lines.
	PositionSideBySide RelativePosition = "side_by_side"

	// PositionShadow indicates the lead faces the follow's back.
	PositionShadow RelativePosition = "shadow"

	// PositionUnknown is the fallback when orientation cannot be determined.
	PositionUnknown RelativePosition = "unknown"
)

// positionOrder fixes the categorical-distribution layout in the
// aggregated feature vector.
var positionOrder = []RelativePosition{
	PositionFacing,
	PositionSideBySide,
	PositionShadow,
	PositionUnknown,
}

// Hand-connection labels for the four wrist pairings.
const (
	ConnLeadLeftFollowLeft   = "lead_left-follow_left"
	ConnLeadLeftFollowRight  = "lead_left-follow_right"
	ConnLeadRightFollowLeft  = "lead_right-follow_left"
	ConnLeadRightFollowRight = "lead_right-follow_right"
)

// Features holds the per-frame couple-level derived quantities.
type Features struct {
	// FrameIndex is the sampled frame this was derived from.
	FrameIndex int `json:"frame_index"`

	// Distance is the distance between the dancers' centers of mass,
	// normalized by the frame diagonal.
	Distance float64 `json:"distance"`

	// HandConnections lists the wrist pairings within connection range,
	// e.g. "lead_left-follow_right".
	HandConnections []string `json:"hand_connections"`

	// RelativePosition is the orientation classification for this frame.
	RelativePosition RelativePosition `json:"relative_position"`

	// SynchronizationScore is the windowed movement-correlation score in
	// [0, 1]; nil until back-filled by temporal analysis.
	SynchronizationScore *float64 `json:"synchronization_score,omitempty"`
}

// TemporalSequence is the ordered per-frame interaction features for a
// clip, restricted to frames where both dancers were detected.
type TemporalSequence struct {
	// Features holds per-frame interaction features in frame order.
	Features []*Features `json:"features"`
}

// FrameCount returns the number of analyzed frames.
func (s *TemporalSequence) FrameCount() int {
	return len(s.Features)
}

// FeatureVectorSize is the length of the aggregated interaction vector:
// mean+std for distance, hand-connection count, and synchronization, plus
// the relative-position categorical distribution.
const FeatureVectorSize = 3*2 + 4

// FeatureVector aggregates the sequence into a fixed-layout vector:
//
//	[distance mean/std] [connection count mean/std] [sync mean/std]
//	[position fraction: facing, side_by_side, shadow, unknown]
//
// An empty sequence returns the zero vector.
func (s *TemporalSequence) FeatureVector() []float64 {
	vec := make([]float64, 0, FeatureVectorSize)
	n := len(s.Features)
	if n == 0 {
		return make([]float64, FeatureVectorSize)
	}

	col := make([]float64, n)

	for i, f := range s.Features {
		col[i] = f.Distance
	}
	vec = append(vec, meanStd(col)...)

	for i, f := range s.Features {
		col[i] = float64(len(f.HandConnections))
	}
	vec = append(vec, meanStd(col)...)

	for i, f := range s.Features {
		if f.SynchronizationScore != nil {
			col[i] = *f.SynchronizationScore
		} else {
			col[i] = math.NaN()
		}
	}
	vec = append(vec, meanStd(col)...)

	counts := make(map[RelativePosition]int, len(positionOrder))
	for _, f := range s.Features {
		counts[f.RelativePosition]++
	}
	for _, p := range positionOrder {
		vec = append(vec, float64(counts[p])/float64(n))
	}

	return vec
}

// meanStd returns [mean, population std] over non-NaN values; an all-NaN
// column coerces to zeros. Matches the NaN-aware aggregation used for
// per-dancer features.
func meanStd(values []float64) []float64 {
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return []float64{0, 0}
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		sq += d * d
	}
	return []float64{mean, math.Sqrt(sq / float64(n))}
}
