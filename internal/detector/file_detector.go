// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package detector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cadencia/cadencia/internal/pose"
)

// FileDetector reads tracker sidecar files: one JSONL file per video,
// a header line followed by one frame record per line.
type FileDetector struct {
	logger zerolog.Logger
}

// NewFileDetector creates a FileDetector.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFileDetector(logger zerolog.Logger) *FileDetector {
	return &FileDetector{logger: logger.With().Str("component", "detector").Logger()}
}

// sidecar header, first line of the file.
type headerRecord struct {
	FrameWidth  float64 `json:"frame_width"`
	FrameHeight float64 `json:"frame_height"`
	SourceFPS   float64 `json:"source_fps"`
}

// frameRecord is one tracked frame. Absent dancers are null.
type frameRecord struct {
	FrameIndex int           `json:"frame_index"`
	Timestamp  float64       `json:"timestamp"`
	Lead       *personRecord `json:"lead,omitempty"`
	Follow     *personRecord `json:"follow,omitempty"`
}

// personRecord carries raw keypoint triples [x, y, confidence].
type personRecord struct {
	Keypoints  [][3]float64 `json:"keypoints"`
	LeftHand   [][3]float64 `json:"left_hand,omitempty"`
	RightHand  [][3]float64 `json:"right_hand,omitempty"`
	Box        [4]float64   `json:"box"`
	Confidence float64      `json:"confidence"`
}

// SidecarPath maps a video path to its tracker output file.
func SidecarPath(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".poses.jsonl"
}

// DetectCouplePoses loads the sidecar for videoPath and decimates it to
// targetFPS. Frame indices are renumbered consecutively so downstream
// velocity windows see an unbroken sequence.
func (d *FileDetector) DetectCouplePoses(ctx context.Context, videoPath string, targetFPS float64) (*Detection, error) {
	path := SidecarPath(videoPath)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tracker sidecar: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read sidecar header: %w", err)
		}
		return nil, fmt.Errorf("sidecar %s is empty", path)
	}
	var header headerRecord
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return nil, fmt.Errorf("decode sidecar header: %w", err)
	}
	if header.FrameWidth <= 0 || header.FrameHeight <= 0 || header.SourceFPS <= 0 {
		return nil, fmt.Errorf("sidecar %s has invalid header: %+v", path, header)
	}

	interval := DecimationInterval(header.SourceFPS, targetFPS)

	det := &Detection{
		FrameWidth:  header.FrameWidth,
		FrameHeight: header.FrameHeight,
		SourceFPS:   header.SourceFPS,
		SampledFPS:  header.SourceFPS / float64(interval),
	}

	line := 1
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var rec frameRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("decode frame record at line %d: %w", line, err)
		}
		if rec.FrameIndex%interval != 0 {
			continue
		}

		couple := pose.CouplePose{
			FrameIndex: len(det.Couples),
			Timestamp:  rec.Timestamp,
		}
		if couple.Lead, err = rec.Lead.toPose(pose.RoleLead); err != nil {
			return nil, fmt.Errorf("lead at line %d: %w", line, err)
		}
		if couple.Follow, err = rec.Follow.toPose(pose.RoleFollow); err != nil {
			return nil, fmt.Errorf("follow at line %d: %w", line, err)
		}
		det.Couples = append(det.Couples, couple)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read sidecar: %w", err)
	}

	d.logger.Debug().
		Str("video", videoPath).
		Int("frames", len(det.Couples)).
		Int("interval", interval).
		Float64("sampled_fps", det.SampledFPS).
		Msg("loaded tracker output")
	return det, nil
}

// toPose converts a raw record into a PersonPose, nil for an absent
// dancer.
func (r *personRecord) toPose(role int) (*pose.PersonPose, error) {
	if r == nil {
		return nil, nil
	}
	if len(r.Keypoints) != pose.NumBodyKeypoints {
		return nil, fmt.Errorf("expected %d body keypoints, got %d", pose.NumBodyKeypoints, len(r.Keypoints))
	}

	p := &pose.PersonPose{
		PersonID:  role,
		Keypoints: toKeypoints(r.Keypoints),
		Box: pose.BoundingBox{
			X1: r.Box[0], Y1: r.Box[1], X2: r.Box[2], Y2: r.Box[3],
		},
		Confidence: r.Confidence,
	}

	if r.LeftHand != nil {
		if len(r.LeftHand) != pose.NumHandKeypoints {
			return nil, fmt.Errorf("expected %d left hand keypoints, got %d", pose.NumHandKeypoints, len(r.LeftHand))
		}
		p.LeftHand = toKeypoints(r.LeftHand)
	}
	if r.RightHand != nil {
		if len(r.RightHand) != pose.NumHandKeypoints {
			return nil, fmt.Errorf("expected %d right hand keypoints, got %d", pose.NumHandKeypoints, len(r.RightHand))
		}
		p.RightHand = toKeypoints(r.RightHand)
	}
	return p, nil
}

func toKeypoints(raw [][3]float64) []pose.Keypoint {
	kps := make([]pose.Keypoint, len(raw))
	for i, t := range raw {
		kps[i] = pose.Keypoint{X: t[0], Y: t[1], Confidence: t[2]}
	}
	return kps
}
