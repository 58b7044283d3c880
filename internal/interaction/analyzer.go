// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package interaction

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/cadencia/cadencia/internal/pose"
)

// Config contains the analyzer thresholds. The defaults reproduce the
// calibration the move catalog was built with; changing them re-ranks
// existing clips only at query time, not in the index.
type Config struct {
	// ConfidenceThreshold gates keypoints, as in pose extraction.
	ConfidenceThreshold float64 `json:"confidence_threshold"`

	// HandDistanceThreshold is the maximum normalized wrist distance for a
	// hand connection. Default: 0.15.
	HandDistanceThreshold float64 `json:"hand_distance_threshold"`

	// AlignmentThreshold is the |cosine| cutoff for the relative-position
	// classifier. Default: 0.7.
	AlignmentThreshold float64 `json:"alignment_threshold"`

	// SyncWindowSize is the sliding-window length (frames) for movement
	// synchronization. An even size spans one frame less after the center
	// than before it. Default: 5.
	SyncWindowSize int `json:"sync_window_size"`
}

// DefaultConfig returns the analyzer defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:   0.3,
		HandDistanceThreshold: 0.15,
		AlignmentThreshold:    0.7,
		SyncWindowSize:        5,
	}
}

// Analyzer computes couple-level interaction features.
// Instantiate one per batch run or request; it holds no mutable state.
type Analyzer struct {
	cfg       Config
	extractor *pose.Extractor
	logger    zerolog.Logger
}

// NewAnalyzer creates an Analyzer. Zero-valued config fields fall back to
// the defaults.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAnalyzer(cfg Config, logger zerolog.Logger) *Analyzer {
	def := DefaultConfig()
	if cfg.HandDistanceThreshold == 0 {
		cfg.HandDistanceThreshold = def.HandDistanceThreshold
	}
	if cfg.AlignmentThreshold == 0 {
		cfg.AlignmentThreshold = def.AlignmentThreshold
	}
	if cfg.SyncWindowSize == 0 {
		cfg.SyncWindowSize = def.SyncWindowSize
	}

	return &Analyzer{
		cfg:       cfg,
		extractor: pose.NewExtractor(cfg.ConfidenceThreshold, logger),
		logger:    logger.With().Str("component", "interaction").Logger(),
	}
}

// AnalyzeFrame computes interaction features for one frame-aligned couple.
// Returns nil when either dancer is undetected. frameWidth and frameHeight
// are the sampled video dimensions used for scale normalization.
func (a *Analyzer) AnalyzeFrame(c *pose.CouplePose, frameWidth, frameHeight float64) *Features {
	if !c.BothPresent() {
		return nil
	}

	diag := math.Sqrt(frameWidth*frameWidth + frameHeight*frameHeight)
	if diag < 1e-12 {
		// Degenerate frame geometry; distances would be meaningless.
		a.logger.Warn().Int("frame", c.FrameIndex).Msg("zero frame diagonal, skipping interaction frame")
		return nil
	}

	return &Features{
		FrameIndex:       c.FrameIndex,
		Distance:         a.coupleDistance(c, diag),
		HandConnections:  a.handConnections(c, diag),
		RelativePosition: a.classifyRelativePosition(c),
	}
}

// coupleDistance is the normalized distance between the two dancers'
// centers of mass. Frames where a center of mass is undeterminable fall
// back to the origin, matching per-dancer extraction.
func (a *Analyzer) coupleDistance(c *pose.CouplePose, diag float64) float64 {
	leadCOM, _ := pose.CenterOfMass(c.Lead, a.cfg.ConfidenceThreshold)
	followCOM, _ := pose.CenterOfMass(c.Follow, a.cfg.ConfidenceThreshold)
	return leadCOM.Sub(followCOM).Norm() / diag
}

// wristPairing maps a connection label to the contributing wrists.
type wristPairing struct {
	label       string
	leadWrist   int
	followWrist int
}

var wristPairings = []wristPairing{
	{ConnLeadLeftFollowLeft, pose.KeypointLeftWrist, pose.KeypointLeftWrist},
	{ConnLeadLeftFollowRight, pose.KeypointLeftWrist, pose.KeypointRightWrist},
	{ConnLeadRightFollowLeft, pose.KeypointRightWrist, pose.KeypointLeftWrist},
	{ConnLeadRightFollowRight, pose.KeypointRightWrist, pose.KeypointRightWrist},
}

// handConnections returns the labels of wrist pairings within the
// normalized connection threshold (inclusive). Both wrists must pass
// confidence gating.
func (a *Analyzer) handConnections(c *pose.CouplePose, diag float64) []string {
	conns := make([]string, 0, len(wristPairings))
	for _, wp := range wristPairings {
		lw := c.Lead.Keypoint(wp.leadWrist)
		fw := c.Follow.Keypoint(wp.followWrist)
		if !lw.Valid(a.cfg.ConfidenceThreshold) || !fw.Valid(a.cfg.ConfidenceThreshold) {
			continue
		}
		d := math.Hypot(lw.X-fw.X, lw.Y-fw.Y) / diag
		if d <= a.cfg.HandDistanceThreshold {
			conns = append(conns, wp.label)
		}
	}
	return conns
}

// classifyRelativePosition derives the couple orientation from shoulder-line
// vectors and the lead-to-follow direction:
//
//   - parallel shoulder lines            -> side_by_side
//   - lead faces follow, follow faces lead -> facing
//   - lead faces follow's back             -> shadow
//
// Any required keypoint below the confidence threshold forces unknown.
func (a *Analyzer) classifyRelativePosition(c *pose.CouplePose) RelativePosition {
	leadShoulder, ok := a.shoulderVector(c.Lead)
	if !ok {
		return PositionUnknown
	}
	followShoulder, ok := a.shoulderVector(c.Follow)
	if !ok {
		return PositionUnknown
	}

	leadCOM, okL := pose.CenterOfMass(c.Lead, a.cfg.ConfidenceThreshold)
	followCOM, okF := pose.CenterOfMass(c.Follow, a.cfg.ConfidenceThreshold)
	if !okL || !okF {
		return PositionUnknown
	}
	leadToFollow, ok := normalize(followCOM.Sub(leadCOM))
	if !ok {
		return PositionUnknown
	}

	if math.Abs(dot(leadShoulder, followShoulder)) > a.cfg.AlignmentThreshold {
		return PositionSideBySide
	}

	leadFacing := math.Abs(dot(perp(leadShoulder), leadToFollow))
	if leadFacing > a.cfg.AlignmentThreshold {
		followToLead := pose.Point{X: -leadToFollow.X, Y: -leadToFollow.Y}
		if math.Abs(dot(perp(followShoulder), followToLead)) > a.cfg.AlignmentThreshold {
			return PositionFacing
		}
		return PositionShadow
	}

	return PositionUnknown
}

// shoulderVector is the normalized left-to-right shoulder line.
func (a *Analyzer) shoulderVector(p *pose.PersonPose) (pose.Point, bool) {
	ls := p.Keypoint(pose.KeypointLeftShoulder)
	rs := p.Keypoint(pose.KeypointRightShoulder)
	if !ls.Valid(a.cfg.ConfidenceThreshold) || !rs.Valid(a.cfg.ConfidenceThreshold) {
		return pose.Point{}, false
	}
	return normalize(pose.Point{X: rs.X - ls.X, Y: rs.Y - ls.Y})
}

// normalize returns the unit vector, or false for a near-zero input.
func normalize(v pose.Point) (pose.Point, bool) {
	n := v.Norm()
	if n < 1e-12 {
		return pose.Point{}, false
	}
	return pose.Point{X: v.X / n, Y: v.Y / n}, true
}

// dot is the 2D dot product.
func dot(a, b pose.Point) float64 {
	return a.X*b.X + a.Y*b.Y
}

// perp rotates a vector 90 degrees counter-clockwise (image coordinates).
func perp(v pose.Point) pose.Point {
	return pose.Point{X: -v.Y, Y: v.X}
}
