// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Row-parallel matrix multiplication and chunked Nonzero
//   - NumPy-compatible broadcasting
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/bornprof/backend/cpu"
//	    "github.com/born-ml/bornprof/nn"
//	    "github.com/born-ml/bornprof/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//
//	    model := nn.NewLinear(784, 10, backend)
//	}
//
// # Host Memory
//
// The CPU backend is the host. tensor.To between two host backends shares
// the buffer; copies from the accelerator land here as plain host tensors
// that can be scanned directly.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation
// is isolated and does not share mutable state.
package cpu
