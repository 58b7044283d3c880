// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

// Package detector defines the boundary to the external pose tracker.
//
// The engine never runs pose estimation itself; it consumes keypoint
// sequences a tracker produced. PoseDetector is the capability interface
// the pipeline is wired with, and FileDetector is the production
// implementation reading tracker sidecar files.
package detector

import (
	"context"
	"math"

	"github.com/cadencia/cadencia/internal/pose"
)

// Detection is one clip's tracker output sampled at the requested rate.
type Detection struct {
	// Couples holds the frame-aligned couple poses after decimation,
	// renumbered to consecutive frame indices.
	Couples []pose.CouplePose

	// FrameWidth and FrameHeight are the source video dimensions in
	// pixels.
	FrameWidth  float64
	FrameHeight float64

	// SourceFPS is the tracker's sampling rate; SampledFPS the effective
	// rate after decimation.
	SourceFPS  float64
	SampledFPS float64
}

// PoseDetector produces couple-pose sequences for a video. Implementations
// must honor ctx cancellation on long reads.
type PoseDetector interface {
	DetectCouplePoses(ctx context.Context, videoPath string, targetFPS float64) (*Detection, error)
}

// DecimationInterval is the frame-keep stride for downsampling sourceFPS
// to targetFPS: round(source/target), never below 1. A target at or above
// the source keeps every frame.
func DecimationInterval(sourceFPS, targetFPS float64) int {
	if targetFPS <= 0 || sourceFPS <= 0 || targetFPS >= sourceFPS {
		return 1
	}
	interval := int(math.Round(sourceFPS / targetFPS))
	if interval < 1 {
		return 1
	}
	return interval
}
