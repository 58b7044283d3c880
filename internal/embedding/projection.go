// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

package embedding

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// normEpsilon is the norm below which a vector is considered degenerate
// and left unnormalized.
const normEpsilon = 1e-8

// projectToDimension resizes a feature vector to the target dimension:
// pass-through when it already matches, zero-pad when shorter, seeded
// Gaussian random projection when longer. Always returns a fresh slice.
func projectToDimension(v []float64, target int) []float64 {
	if len(v) > target {
		return randomProject(v, target)
	}
	out := make([]float64, target)
	copy(out, v)
	return out
}

// projectionSeed derives the RNG seed from the vector itself so repeated
// runs on unchanged input reproduce the same projection. The scaled sum of
// absolute values is truncated and reduced mod 2^32. Changing this scheme
// invalidates every previously indexed embedding.
func projectionSeed(v []float64) int64 {
	var sum float64
	for _, x := range v {
		sum += math.Abs(x)
	}
	return int64(math.Mod(math.Trunc(sum*1000), 1<<32))
}

// randomProject multiplies the vector by a seeded (input, target) Gaussian
// projection matrix scaled by 1/sqrt(input).
func randomProject(v []float64, target int) []float64 {
	in := len(v)
	//nolint:gosec // deterministic projection requires a seeded generator
	rng := rand.New(rand.NewSource(projectionSeed(v)))
	scale := 1 / math.Sqrt(float64(in))

	data := make([]float64, in*target)
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	p := mat.NewDense(in, target, data)

	var out mat.VecDense
	out.MulVec(p.T(), mat.NewVecDense(in, v))

	res := make([]float64, target)
	copy(res, out.RawVector().Data)
	return res
}

// Normalize returns the unit-L2 copy of v. Vectors with norm below the
// degenerate threshold are returned unchanged rather than amplified by a
// near-zero divisor.
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	n := floats.Norm(out, 2)
	if n < normEpsilon {
		return out
	}
	floats.Scale(1/n, out)
	return out
}
