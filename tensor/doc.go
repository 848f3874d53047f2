// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for bornprof.
//
// # Overview
//
// Tensors are the data structure every profiling demo is written against.
// This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Host and device placement with explicit transfers (To)
//   - Seeded random creation for reproducible runs
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/bornprof/backend/cpu"
//	    "github.com/born-ml/bornprof/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//	}
//
// # Supported Data Types
//
// The DType constraint covers:
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers, int64 is used for coordinates)
//   - uint8
//   - bool (comparison masks)
//
// # Device Support
//
// Tensors live either on the host (CPU) or on the simulated accelerator
// (Accelerator, see backend/device). Kernels never move data implicitly:
// an operand on the wrong device panics. Use To to copy between backends.
//
//	dev := device.New()
//	mask := tensor.To(hostMask, dev)      // host -> device
//	back := tensor.To(mask, cpu.New())    // device -> host
//
// # Broadcasting
//
// Binary operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend)     // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)      // (3, 4)
//	c := a.Add(b)                                                // (3, 4)
//
// # Memory Management
//
// The underlying data is reference-counted. Reshape and same-dtype casts
// share the buffer; every other operation allocates a new one.
package tensor
