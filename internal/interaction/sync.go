// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package interaction

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cadencia/cadencia/internal/pose"
)

// neutralSync is emitted when a window holds fewer than two paired
// velocity samples: no evidence either way.
const neutralSync = 0.5

// AnalyzeTemporalSequence runs the two-pass clip analysis: pass one
// computes per-frame interaction features (dropping frames missing a
// dancer), pass two computes windowed movement synchronization from the
// two dancers' velocity tracks and back-fills SynchronizationScore.
func (a *Analyzer) AnalyzeTemporalSequence(couples []pose.CouplePose, frameWidth, frameHeight float64) *TemporalSequence {
	seq := &TemporalSequence{}

	for i := range couples {
		if f := a.AnalyzeFrame(&couples[i], frameWidth, frameHeight); f != nil {
			seq.Features = append(seq.Features, f)
		}
	}

	if len(seq.Features) == 0 {
		a.logger.Debug().Int("frames", len(couples)).Msg("no frames with both dancers present")
		return seq
	}

	leadByFrame := velocityByFrame(a.extractor.ExtractTemporalSequence(couples, pose.RoleLead))
	followByFrame := velocityByFrame(a.extractor.ExtractTemporalSequence(couples, pose.RoleFollow))

	for _, f := range seq.Features {
		score := a.CalculateSynchronization(leadByFrame, followByFrame, f.FrameIndex)
		f.SynchronizationScore = &score
	}

	a.logger.Debug().
		Int("frames", len(couples)).
		Int("analyzed_frames", seq.FrameCount()).
		Msg("analyzed interaction sequence")

	return seq
}

// CalculateSynchronization scores how correlated the two dancers' movement
// is around a frame. It takes a window of exactly SyncWindowSize frames
// centered on frameIndex (one frame short on the trailing side when the
// size is even), collects paired lead/follow velocities where both exist,
// and computes the Pearson correlation of the flattened velocity arrays
// remapped from [-1,1] to [0,1]. Fewer than two paired samples yields the
// neutral 0.5; an undefined correlation (constant velocity) maps to 0
// before remapping.
func (a *Analyzer) CalculateSynchronization(leadByFrame, followByFrame map[int]pose.Point, frameIndex int) float64 {
	lo := frameIndex - a.cfg.SyncWindowSize/2
	hi := lo + a.cfg.SyncWindowSize - 1

	var leadFlat, followFlat []float64
	for f := lo; f <= hi; f++ {
		lv, okL := leadByFrame[f]
		fv, okF := followByFrame[f]
		if !okL || !okF {
			continue
		}
		leadFlat = append(leadFlat, lv.X, lv.Y)
		followFlat = append(followFlat, fv.X, fv.Y)
	}

	// Two velocity samples flatten to four scalars.
	if len(leadFlat) < 4 {
		return neutralSync
	}

	r := stat.Correlation(leadFlat, followFlat, nil)
	if math.IsNaN(r) {
		r = 0
	}
	return (r + 1) / 2
}

// velocityByFrame indexes a dancer's per-frame velocities by frame index,
// skipping frames without velocity (sequence start, tracking gaps).
func velocityByFrame(seq *pose.TemporalPoseSequence) map[int]pose.Point {
	m := make(map[int]pose.Point, len(seq.Features))
	for _, f := range seq.Features {
		if f.Velocity != nil {
			m[f.FrameIndex] = *f.Velocity
		}
	}
	return m
}
