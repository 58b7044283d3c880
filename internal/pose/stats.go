// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package pose

import "math"

// NaN-aware moments. gonum/stat rejects NaN inputs, so columns with
// per-frame gaps (missing joint angles, velocity resets) are aggregated
// with these helpers instead: NaN samples are excluded, and an all-NaN
// column collapses to 0 rather than poisoning the feature vector.

// nanMean returns the mean of non-NaN values, or 0 if none exist.
func nanMean(values []float64) float64 {
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
		return 0
	}
	return sum / float64(n)
}

// nanStd returns the population standard deviation of non-NaN values,
// or 0 if fewer than one value exists. Population (not sample) std keeps
// aggregated vectors identical to previously generated embeddings.
func nanStd(values []float64) float64 {
	mean := nanMean(values)
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		sum += d * d
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
