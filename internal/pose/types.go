// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package pose

import "math"

// COCO 17-point body keypoint indices.
//
//	0: Nose        5: Left Shoulder  11: Left Hip
//	1: Left Eye    6: Right Shoulder 12: Right Hip
//	2: Right Eye   7: Left Elbow     13: Left Knee
//	3: Left Ear    8: Right Elbow    14: Right Knee
//	4: Right Ear   9: Left Wrist     15: Left Ankle
//	               10: Right Wrist   16: Right Ankle
const (
	KeypointNose = iota
	KeypointLeftEye
	KeypointRightEye
	KeypointLeftEar
	KeypointRightEar
	KeypointLeftShoulder
	KeypointRightShoulder
	KeypointLeftElbow
	KeypointRightElbow
	KeypointLeftWrist
	KeypointRightWrist
	KeypointLeftHip
	KeypointRightHip
	KeypointLeftKnee
	KeypointRightKnee
	KeypointLeftAnkle
	KeypointRightAnkle
)

// NumBodyKeypoints is the size of the COCO body keypoint layout.
const NumBodyKeypoints = 17

// NumHandKeypoints is the size of a single-hand keypoint layout.
const NumHandKeypoints = 21

// Dancer roles tracked as stable person identifiers.
const (
	// RoleLead is the leading partner (person ID 1).
	RoleLead = 1

	// RoleFollow is the following partner (person ID 2).
	RoleFollow = 2
)

// Keypoint is one anatomical landmark estimate in image coordinates.
type Keypoint struct {
	// X is the horizontal pixel coordinate.
	X float64 `json:"x"`

	// Y is the vertical pixel coordinate (image convention, down-positive).
	Y float64 `json:"y"`

	// Confidence is the detector's confidence in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Valid reports whether the keypoint meets the confidence threshold.
func (k Keypoint) Valid(threshold float64) bool {
	return k.Confidence >= threshold
}

// Point is a 2D position or displacement.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Norm returns the Euclidean length of p treated as a vector.
func (p Point) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// BoundingBox is an axis-aligned box around a detected person.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Center returns the box center.
func (b BoundingBox) Center() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// PersonPose is one detected dancer in one frame.
// It is produced by the external detector+tracker, consumed once by feature
// extraction, and never persisted.
type PersonPose struct {
	// PersonID is the stable tracked identity (RoleLead or RoleFollow).
	PersonID int `json:"person_id"`

	// Keypoints is the fixed-size COCO body keypoint array.
	Keypoints []Keypoint `json:"keypoints"`

	// LeftHand holds optional 21-point left hand keypoints.
	LeftHand []Keypoint `json:"left_hand,omitempty"`

	// RightHand holds optional 21-point right hand keypoints.
	RightHand []Keypoint `json:"right_hand,omitempty"`

	// Box is the person's bounding box.
	Box BoundingBox `json:"box"`

	// Confidence is the overall detection confidence.
	Confidence float64 `json:"confidence"`
}

// Keypoint returns the body keypoint at the given COCO index.
// Out-of-range indices return a zero keypoint, which never passes
// confidence gating.
func (p *PersonPose) Keypoint(idx int) Keypoint {
	if idx < 0 || idx >= len(p.Keypoints) {
		return Keypoint{}
	}
	return p.Keypoints[idx]
}

// CouplePose is a frame-aligned pair of optional dancer poses.
type CouplePose struct {
	// FrameIndex is the index within the sampled clip.
	FrameIndex int `json:"frame_index"`

	// Timestamp is the frame time in seconds from clip start.
	Timestamp float64 `json:"timestamp"`

	// Lead is the leading dancer, nil when undetected in this frame.
	Lead *PersonPose `json:"lead,omitempty"`

	// Follow is the following dancer, nil when undetected in this frame.
	Follow *PersonPose `json:"follow,omitempty"`
}

// BothPresent reports whether both dancers were detected in this frame.
func (c *CouplePose) BothPresent() bool {
	return c.Lead != nil && c.Follow != nil
}

// PoseFor returns the pose for the requested person ID, or nil.
func (c *CouplePose) PoseFor(personID int) *PersonPose {
	switch personID {
	case RoleLead:
		return c.Lead
	case RoleFollow:
		return c.Follow
	default:
		return nil
	}
}

// Named joint angles derived per frame. The declaration order here fixes the
// layout of the aggregated feature vector.
const (
	AngleLeftElbow  = "left_elbow"
	AngleRightElbow = "right_elbow"
	AngleLeftKnee   = "left_knee"
	AngleRightKnee  = "right_knee"
	AngleTorsoTilt  = "torso_tilt"
)

// angleOrder is the canonical ordering of joint angles in feature vectors.
var angleOrder = []string{
	AngleLeftElbow,
	AngleRightElbow,
	AngleLeftKnee,
	AngleRightKnee,
	AngleTorsoTilt,
}

// PoseFeatures holds the per-frame derived quantities for one dancer.
// Ephemeral: one per valid frame per dancer.
type PoseFeatures struct {
	// FrameIndex is the sampled frame this was derived from.
	FrameIndex int `json:"frame_index"`

	// JointAngles maps angle names to radians. An angle is present only
	// when all three contributing keypoints passed confidence gating.
	JointAngles map[string]float64 `json:"joint_angles"`

	// CenterOfMass is the confidence-weighted centroid of valid keypoints.
	CenterOfMass Point `json:"center_of_mass"`

	// Box is the dancer's bounding box for this frame.
	Box BoundingBox `json:"box"`

	// Velocity is the center-of-mass displacement since the previous valid
	// frame; nil at sequence start or after a tracking gap.
	Velocity *Point `json:"velocity,omitempty"`

	// Keypoints is the raw per-keypoint positions and confidences.
	Keypoints []Keypoint `json:"keypoints"`
}

// TemporalPoseSequence is the ordered valid-frame subsequence of one
// dancer's features across a clip.
type TemporalPoseSequence struct {
	// PersonID identifies the dancer (RoleLead or RoleFollow).
	PersonID int `json:"person_id"`

	// Features holds per-frame features for frames where the dancer was
	// detected, in frame order.
	Features []*PoseFeatures `json:"features"`
}

// FrameCount returns the number of valid frames in the sequence.
func (s *TemporalPoseSequence) FrameCount() int {
	return len(s.Features)
}
