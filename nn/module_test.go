// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math/rand"
	"testing"

	"github.com/born-ml/bornprof/backend/cpu"
	"github.com/born-ml/bornprof/backend/device"
	"github.com/born-ml/bornprof/nn"
	"github.com/born-ml/bornprof/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestModuleInterface verifies that concrete types implement Module interface.
func TestModuleInterface(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name   string
		module nn.Module[*cpu.Backend]
		params int
	}{
		{"Linear", nn.NewLinear(10, 5, backend), 2},
		{"LinearWithoutBias", nn.NewLinear(10, 5, backend, nn.WithoutBias()), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tensor.Randn[float32](tensor.Shape{2, 10}, rand.New(rand.NewSource(1)), backend)
			out := tt.module.Forward(input)
			assert.Equal(t, tensor.Shape{2, 5}, out.Shape())
			assert.Len(t, tt.module.Parameters(), tt.params)
		})
	}
}

func TestNewLinearSeeded(t *testing.T) {
	a := nn.NewLinearSeeded(6, 3, 42, cpu.New())
	b := nn.NewLinearSeeded(6, 3, 42, cpu.New())
	assert.Equal(t, a.Weight().Tensor().Data(), b.Weight().Tensor().Data())

	c := nn.NewLinearSeeded(6, 3, 43, cpu.New())
	assert.NotEqual(t, a.Weight().Tensor().Data(), c.Weight().Tensor().Data())
}

func TestLinear_OnDevice(t *testing.T) {
	host := cpu.New()
	dev := device.New()

	layer := nn.NewLinearSeeded(4, 2, 7, dev)
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 4}, host)
	require.NoError(t, err)

	y := layer.Forward(tensor.To(x, dev))
	assert.Equal(t, tensor.Accelerator, y.Device())
	assert.Equal(t, tensor.Shape{2, 2}, y.Shape())
	assert.NotZero(t, dev.MemoryStats().TotalAllocatedBytes)
}

// TestNewParameter verifies parameter creation.
func TestNewParameter(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name        string
		paramName   string
		tensorShape tensor.Shape
	}{
		{"weight parameter", "layer1.weight", tensor.Shape{128, 784}},
		{"bias parameter", "layer1.bias", tensor.Shape{128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := nn.Zeros(tt.tensorShape, backend)
			param := nn.NewParameter(tt.paramName, data)

			assert.Equal(t, tt.paramName, param.Name())
			assert.Same(t, data, param.Tensor())
			assert.Equal(t, tt.tensorShape.NumElements(), param.NumElements())
		})
	}
}

func TestXavier_Bounds(t *testing.T) {
	w := nn.Xavier(10, 5, tensor.Shape{5, 10}, rand.New(rand.NewSource(3)), cpu.New())
	for _, v := range w.Data() {
		assert.LessOrEqual(t, v, float32(0.6325))
		assert.GreaterOrEqual(t, v, float32(-0.6325))
	}
}
