// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural network layers used by the profiling demos.
//
// # Overview
//
// This package contains:
//   - Layers: Linear
//   - Utilities: Module interface, Parameter
//   - Initialization: Xavier, Zeros, Ones, Randn
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/bornprof/backend/device"
//	    "github.com/born-ml/bornprof/nn"
//	    "github.com/born-ml/bornprof/tensor"
//	)
//
//	func main() {
//	    dev := device.New()
//
//	    // Same weights on every run
//	    layer := nn.NewLinearSeeded(500, 10, 1, dev)
//
//	    x := tensor.To(hostInput, dev)
//	    y := layer.Forward(x)  // [batch, 10] on the device
//	}
//
// Layers run on whatever backend they were built with, so wrapping that
// backend with profiler.Instrument records every op of the forward pass.
package nn
