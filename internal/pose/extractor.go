// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package pose

import (
	"math"

	"github.com/rs/zerolog"
)

// angleTriple names the three COCO keypoints contributing to a joint angle,
// measured at the middle joint.
type angleTriple struct {
	name string
	a    int // outer keypoint
	b    int // middle joint (angle vertex)
	c    int // outer keypoint
}

// jointTriples are the limb angles computed per frame. Torso tilt is
// handled separately because it uses shoulder/hip midpoints.
var jointTriples = []angleTriple{
	{AngleLeftElbow, KeypointLeftShoulder, KeypointLeftElbow, KeypointLeftWrist},
	{AngleRightElbow, KeypointRightShoulder, KeypointRightElbow, KeypointRightWrist},
	{AngleLeftKnee, KeypointLeftHip, KeypointLeftKnee, KeypointLeftAnkle},
	{AngleRightKnee, KeypointRightHip, KeypointRightKnee, KeypointRightAnkle},
}

// Extractor derives per-frame biomechanical features from detected poses.
// Instantiate one per batch run or request; it holds no mutable state.
type Extractor struct {
	confidenceThreshold float64
	logger              zerolog.Logger
}

// NewExtractor creates an Extractor.
// Keypoints below confidenceThreshold are treated as invalid everywhere.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewExtractor(confidenceThreshold float64, logger zerolog.Logger) *Extractor {
	return &Extractor{
		confidenceThreshold: confidenceThreshold,
		logger:              logger.With().Str("component", "pose").Logger(),
	}
}

// ExtractFeatures computes joint angles, center of mass, and velocity for a
// single dancer in a single frame. prev is the dancer's features from the
// previous valid frame; pass nil at sequence start or after a tracking gap,
// which leaves Velocity unset.
func (e *Extractor) ExtractFeatures(p *PersonPose, frameIndex int, prev *PoseFeatures) *PoseFeatures {
	f := &PoseFeatures{
		FrameIndex:  frameIndex,
		JointAngles: e.jointAngles(p),
		Box:         p.Box,
		Keypoints:   append([]Keypoint(nil), p.Keypoints...),
	}

	f.CenterOfMass = e.centerOfMass(p, frameIndex)

	if prev != nil {
		v := f.CenterOfMass.Sub(prev.CenterOfMass)
		f.Velocity = &v
	}

	return f
}

// jointAngles computes all named angles whose contributing keypoints pass
// confidence gating.
func (e *Extractor) jointAngles(p *PersonPose) map[string]float64 {
	angles := make(map[string]float64, len(jointTriples)+1)

	for _, t := range jointTriples {
		a, b, c := p.Keypoint(t.a), p.Keypoint(t.b), p.Keypoint(t.c)
		if !a.Valid(e.confidenceThreshold) || !b.Valid(e.confidenceThreshold) || !c.Valid(e.confidenceThreshold) {
			continue
		}
		angles[t.name] = vectorAngle(
			Point{X: a.X - b.X, Y: a.Y - b.Y},
			Point{X: c.X - b.X, Y: c.Y - b.Y},
		)
	}

	if tilt, ok := e.torsoTilt(p); ok {
		angles[AngleTorsoTilt] = tilt
	}

	return angles
}

// torsoTilt is the angle between the hip-midpoint-to-shoulder-midpoint
// vector and image-vertical. Requires both shoulders and both hips.
func (e *Extractor) torsoTilt(p *PersonPose) (float64, bool) {
	ls, rs := p.Keypoint(KeypointLeftShoulder), p.Keypoint(KeypointRightShoulder)
	lh, rh := p.Keypoint(KeypointLeftHip), p.Keypoint(KeypointRightHip)

	for _, k := range []Keypoint{ls, rs, lh, rh} {
		if !k.Valid(e.confidenceThreshold) {
			return 0, false
		}
	}

	shoulderMid := Point{X: (ls.X + rs.X) / 2, Y: (ls.Y + rs.Y) / 2}
	hipMid := Point{X: (lh.X + rh.X) / 2, Y: (lh.Y + rh.Y) / 2}
	torso := shoulderMid.Sub(hipMid)

	// Image coordinates are down-positive, so "up" is -Y.
	return vectorAngle(torso, Point{X: 0, Y: -1}), true
}

// vectorAngle returns the angle in radians between two vectors using
// arccos(dot/(|v1||v2|)). The cosine is clamped to [-1, 1] before arccos so
// floating-point drift never causes a domain error; degenerate (near-zero)
// vectors yield 0.
func vectorAngle(v1, v2 Point) float64 {
	n1, n2 := v1.Norm(), v2.Norm()
	if n1 < 1e-12 || n2 < 1e-12 {
		return 0
	}
	cos := (v1.X*v2.X + v1.Y*v2.Y) / (n1 * n2)
	return math.Acos(clamp(cos, -1, 1))
}

// centerOfMass wraps CenterOfMass with a warning on the origin fallback;
// a single bad frame must not abort a clip.
func (e *Extractor) centerOfMass(p *PersonPose, frameIndex int) Point {
	com, ok := CenterOfMass(p, e.confidenceThreshold)
	if !ok {
		e.logger.Warn().
			Int("person_id", p.PersonID).
			Int("frame", frameIndex).
			Msg("no keypoints above confidence threshold, center of mass defaulting to origin")
	}
	return com
}

// CenterOfMass is the confidence-weighted centroid over keypoints passing
// the confidence threshold. With no valid keypoints it returns the origin
// and false.
func CenterOfMass(p *PersonPose, confidenceThreshold float64) (Point, bool) {
	var sumX, sumY, sumW float64
	for _, k := range p.Keypoints {
		if !k.Valid(confidenceThreshold) {
			continue
		}
		sumX += k.X * k.Confidence
		sumY += k.Y * k.Confidence
		sumW += k.Confidence
	}

	if sumW < 1e-12 {
		return Point{}, false
	}

	return Point{X: sumX / sumW, Y: sumY / sumW}, true
}

// ExtractTemporalSequence walks a clip and extracts features for the
// requested dancer, returning only the valid subsequence. Frames where the
// dancer is undetected are skipped and reset velocity continuity, so the
// first feature after a gap carries no velocity.
func (e *Extractor) ExtractTemporalSequence(couples []CouplePose, personID int) *TemporalPoseSequence {
	seq := &TemporalPoseSequence{PersonID: personID}

	var prev *PoseFeatures
	for i := range couples {
		p := couples[i].PoseFor(personID)
		if p == nil {
			prev = nil
			continue
		}
		f := e.ExtractFeatures(p, couples[i].FrameIndex, prev)
		seq.Features = append(seq.Features, f)
		prev = f
	}

	e.logger.Debug().
		Int("person_id", personID).
		Int("frames", len(couples)).
		Int("valid_frames", seq.FrameCount()).
		Msg("extracted temporal sequence")

	return seq
}

// FeatureVectorSize is the length of the aggregated per-dancer vector:
// mean+std for 5 joint angles, center of mass, and velocity, mean
// confidence for 17 keypoints, and mean+std for the 4 bounding-box edges.
const FeatureVectorSize = 5*2 + 2*2 + 2*2 + NumBodyKeypoints + 4*2

// FeatureVector aggregates the sequence into a fixed-layout vector:
//
//	[angle mean/std x5] [com x mean/std, y mean/std] [vel x mean/std, y mean/std]
//	[keypoint mean confidence x17] [box mean x1,y1,x2,y2, std x1,y1,x2,y2]
//
// Missing per-frame values (gated angles, reset velocities) contribute NaN
// and are excluded by NaN-aware moments; empty columns coerce to 0.
// An empty sequence returns the zero vector.
func (s *TemporalPoseSequence) FeatureVector() []float64 {
	vec := make([]float64, 0, FeatureVectorSize)
	n := len(s.Features)
	if n == 0 {
		return make([]float64, FeatureVectorSize)
	}

	col := make([]float64, n)

	// Joint angle moments in canonical order.
	for _, name := range angleOrder {
		for i, f := range s.Features {
			if v, ok := f.JointAngles[name]; ok {
				col[i] = v
			} else {
				col[i] = math.NaN()
			}
		}
		vec = append(vec, nanMean(col), nanStd(col))
	}

	// Center-of-mass moments.
	vec = append(vec, s.momentPair(func(f *PoseFeatures) (float64, bool) { return f.CenterOfMass.X, true })...)
	vec = append(vec, s.momentPair(func(f *PoseFeatures) (float64, bool) { return f.CenterOfMass.Y, true })...)

	// Velocity moments; frames without velocity contribute NaN.
	vec = append(vec, s.momentPair(func(f *PoseFeatures) (float64, bool) {
		if f.Velocity == nil {
			return 0, false
		}
		return f.Velocity.X, true
	})...)
	vec = append(vec, s.momentPair(func(f *PoseFeatures) (float64, bool) {
		if f.Velocity == nil {
			return 0, false
		}
		return f.Velocity.Y, true
	})...)

	// Mean confidence per keypoint.
	for k := 0; k < NumBodyKeypoints; k++ {
		for i, f := range s.Features {
			if k < len(f.Keypoints) {
				col[i] = f.Keypoints[k].Confidence
			} else {
				col[i] = math.NaN()
			}
		}
		vec = append(vec, nanMean(col))
	}

	// Bounding-box moments.
	edges := []func(*PoseFeatures) float64{
		func(f *PoseFeatures) float64 { return f.Box.X1 },
		func(f *PoseFeatures) float64 { return f.Box.Y1 },
		func(f *PoseFeatures) float64 { return f.Box.X2 },
		func(f *PoseFeatures) float64 { return f.Box.Y2 },
	}
	stds := make([]float64, 0, 4)
	for _, edge := range edges {
		for i, f := range s.Features {
			col[i] = edge(f)
		}
		vec = append(vec, nanMean(col))
		stds = append(stds, nanStd(col))
	}
	vec = append(vec, stds...)

	return vec
}

// momentPair returns [mean, std] of a per-frame scalar; frames where the
// scalar is unavailable are excluded.
func (s *TemporalPoseSequence) momentPair(get func(*PoseFeatures) (float64, bool)) []float64 {
	col := make([]float64, len(s.Features))
	for i, f := range s.Features {
		if v, ok := get(f); ok {
			col[i] = v
		} else {
			col[i] = math.NaN()
		}
	}
	return []float64{nanMean(col), nanStd(col)}
}
