// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/bornprof/internal/nn"
	"github.com/born-ml/bornprof/tensor"
)

// Layers

// Linear represents a fully connected (dense) layer computing x @ W.T + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// LinearOption configures NewLinear.
type LinearOption = nn.LinearOption

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B, opts ...LinearOption) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend, opts...)
}

// NewLinearSeeded creates a linear layer whose weights are drawn from seed.
//
// Example:
//
//	layer := nn.NewLinearSeeded(500, 10, 1, device.New())
func NewLinearSeeded[B tensor.Backend](inFeatures, outFeatures int, seed int64, backend B, opts ...LinearOption) *Linear[B] {
	return nn.NewLinearSeeded(inFeatures, outFeatures, seed, backend, opts...)
}

// WithoutBias builds the layer without a bias term.
func WithoutBias() LinearOption {
	return nn.WithoutBias()
}

// WithRand draws the initial weights from rng.
func WithRand(rng *rand.Rand) LinearOption {
	return nn.WithRand(rng)
}

// Initialization

// Xavier returns a tensor drawn from U(-sqrt(6/(fanIn+fanOut)), sqrt(6/(fanIn+fanOut))).
// A nil rng uses the math/rand global source.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, rng, backend)
}

// Zeros creates a float32 tensor filled with zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones creates a float32 tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}

// Randn creates a float32 tensor drawn from N(0, 1).
func Randn[B tensor.Backend](shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.Randn(shape, rng, backend)
}
