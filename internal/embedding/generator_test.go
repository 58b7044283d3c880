// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package embedding

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/cadencia/cadencia/internal/interaction"
	"github.com/cadencia/cadencia/internal/pose"
)

func testGenerator() *Generator {
	return NewGenerator(interaction.DefaultConfig(), zerolog.New(io.Discard))
}

// fullPose spreads all 17 keypoints around a center with 0.9 confidence.
func fullPose(id int, cx, cy float64) *pose.PersonPose {
	kps := make([]pose.Keypoint, pose.NumBodyKeypoints)
	for i := range kps {
		kps[i] = pose.Keypoint{
			X:          cx + 4*float64(i%4),
			Y:          cy + 6*float64(i/4),
			Confidence: 0.9,
		}
	}
	return &pose.PersonPose{PersonID: id, Keypoints: kps, Confidence: 0.9}
}

func testClip(frames int) []pose.CouplePose {
	couples := make([]pose.CouplePose, frames)
	for i := range couples {
		couples[i] = pose.CouplePose{
			FrameIndex: i,
			Timestamp:  float64(i) / 15,
			Lead:       fullPose(pose.RoleLead, 100+2*float64(i), 100),
			Follow:     fullPose(pose.RoleFollow, 300+2*float64(i), 100),
		}
	}
	return couples
}

func TestGenerateEmbeddingsShapeAndNorm(t *testing.T) {
	g := testGenerator()
	emb, err := g.GenerateEmbeddings(testClip(15), 640, 480)
	if err != nil {
		t.Fatalf("GenerateEmbeddings: %v", err)
	}

	if !emb.Validate() {
		t.Fatal("generated embeddings failed validation")
	}
	for name, v := range map[string][]float64{
		"lead": emb.Lead, "follow": emb.Follow, "interaction": emb.Interaction,
	} {
		if n := floats.Norm(v, 2); math.Abs(n-1.0) > 1e-5 {
			t.Errorf("%s embedding norm = %v, want 1.0", name, n)
		}
	}
}

func TestGenerateEmbeddingsQuality(t *testing.T) {
	g := testGenerator()
	couples := testClip(10)
	couples[4].Follow = nil
	couples[9].Follow = nil

	emb, err := g.GenerateEmbeddings(couples, 640, 480)
	if err != nil {
		t.Fatalf("GenerateEmbeddings: %v", err)
	}

	q := emb.Quality
	if math.Abs(q.DetectionRate-0.8) > 1e-12 {
		t.Errorf("detection rate = %v, want 0.8", q.DetectionRate)
	}
	if math.Abs(q.AvgConfidence-0.9) > 1e-12 {
		t.Errorf("avg confidence = %v, want 0.9", q.AvgConfidence)
	}
	if want := 0.6*0.8 + 0.4*0.9; math.Abs(q.QualityScore-want) > 1e-12 {
		t.Errorf("quality score = %v, want %v", q.QualityScore, want)
	}
	if q.FrameCount != 10 || q.LeadFrameCount != 10 || q.FollowFrameCount != 8 {
		t.Errorf("frame counts = %d/%d/%d, want 10/10/8",
			q.FrameCount, q.LeadFrameCount, q.FollowFrameCount)
	}
}

func TestGenerateEmbeddingsInsufficientData(t *testing.T) {
	g := testGenerator()

	couples := testClip(5)
	for i := range couples {
		couples[i].Follow = nil
	}
	if _, err := g.GenerateEmbeddings(couples, 640, 480); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData for missing follow", err)
	}

	if _, err := g.GenerateEmbeddings(nil, 640, 480); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData for empty clip", err)
	}
}

func TestGenerateEmbeddingsDeterminism(t *testing.T) {
	g := testGenerator()

	a, err := g.GenerateEmbeddings(testClip(20), 640, 480)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := g.GenerateEmbeddings(testClip(20), 640, 480)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	for name, pair := range map[string][2][]float64{
		"lead":        {a.Lead, b.Lead},
		"follow":      {a.Follow, b.Follow},
		"interaction": {a.Interaction, b.Interaction},
	} {
		for i := range pair[0] {
			if pair[0][i] != pair[1][i] {
				t.Fatalf("%s embedding differs at %d on identical input", name, i)
			}
		}
	}
}

func TestValidateRejectsBadVectors(t *testing.T) {
	good := &PoseEmbeddings{
		Lead:        make([]float64, LeadDim),
		Follow:      make([]float64, FollowDim),
		Interaction: make([]float64, InteractionDim),
	}
	if !good.Validate() {
		t.Fatal("well-formed embeddings rejected")
	}

	nan := &PoseEmbeddings{
		Lead:        make([]float64, LeadDim),
		Follow:      make([]float64, FollowDim),
		Interaction: make([]float64, InteractionDim),
	}
	nan.Follow[17] = math.NaN()
	if nan.Validate() {
		t.Error("NaN embedding passed validation")
	}

	short := &PoseEmbeddings{
		Lead:        make([]float64, LeadDim-1),
		Follow:      make([]float64, FollowDim),
		Interaction: make([]float64, InteractionDim),
	}
	if short.Validate() {
		t.Error("wrong-dimension embedding passed validation")
	}
}
