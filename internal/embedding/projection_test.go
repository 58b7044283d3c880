// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package embedding

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestProjectPassThrough(t *testing.T) {
	v := []float64{1, 2, 3, 4}
	got := projectToDimension(v, 4)
	if len(got) != 4 {
		t.Fatalf("length = %d, want 4", len(got))
	}
	for i := range v {
		if got[i] != v[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], v[i])
		}
	}
	got[0] = 99
	if v[0] != 1 {
		t.Error("projection must not alias the input slice")
	}
}

func TestProjectZeroPad(t *testing.T) {
	v := []float64{1, 2, 3}
	got := projectToDimension(v, 8)
	if len(got) != 8 {
		t.Fatalf("length = %d, want 8", len(got))
	}
	for i := 3; i < 8; i++ {
		if got[i] != 0 {
			t.Errorf("pad slot %d = %v, want 0", i, got[i])
		}
	}
}

func TestRandomProjectionDeterminism(t *testing.T) {
	v := make([]float64, 600)
	for i := range v {
		v[i] = math.Sin(float64(i)) * 3
	}

	a := projectToDimension(v, 256)
	b := projectToDimension(v, 256)
	if len(a) != 256 || len(b) != 256 {
		t.Fatalf("lengths = %d, %d, want 256", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("repeated projection differs at %d: %v vs %v", i, a[i], b[i])
		}
	}

	// A perturbed input changes the seed and therefore the projection.
	v[0] += 0.5
	c := projectToDimension(v, 256)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("perturbed input produced an identical projection")
	}
}

func TestProjectionSeedIgnoresSign(t *testing.T) {
	a := projectionSeed([]float64{1.5, -2.5})
	b := projectionSeed([]float64{-1.5, 2.5})
	if a != b {
		t.Errorf("seeds differ for vectors with equal absolute sums: %d vs %d", a, b)
	}
	if a != 4000 {
		t.Errorf("seed = %d, want 4000 for absolute sum 4.0", a)
	}
}

func TestNormalizeUnitNorm(t *testing.T) {
	v := []float64{3, 4}
	got := Normalize(v)
	if !almostEqual(got[0], 0.6, 1e-12) || !almostEqual(got[1], 0.8, 1e-12) {
		t.Errorf("normalized = %v, want [0.6 0.8]", got)
	}
	if v[0] != 3 {
		t.Error("Normalize must not mutate its input")
	}
}

func TestNormalizeDegenerateVectorUnchanged(t *testing.T) {
	v := []float64{1e-10, -1e-10, 0}
	got := Normalize(v)
	for i := range v {
		if got[i] != v[i] {
			t.Errorf("degenerate vector changed at %d: %v vs %v", i, got[i], v[i])
		}
	}
}
