// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device provides the simulated accelerator backend.
//
// Tensors created on it carry tensor.Accelerator and count against a
// device memory pool separate from the host. Every kernel advances a kernel
// clock, which the profiler uses as the op's device time. Host<->device
// copies can be throttled to a fixed bandwidth so the cost of moving a large
// mask shows up in reports.
//
// Example:
//
//	import (
//	    "github.com/born-ml/bornprof/backend/cpu"
//	    "github.com/born-ml/bornprof/backend/device"
//	    "github.com/born-ml/bornprof/tensor"
//	)
//
//	func main() {
//	    dev := device.NewWithConfig(device.Config{Bandwidth: 12e9})
//	    mask := tensor.To(hostMask, dev)
//	    idx := mask.GreaterScalar(0.5).Nonzero()  // stays on the device
//	    fmt.Println(dev.MemoryStats().PeakMemoryBytes)
//	}
package device

import (
	internaldevice "github.com/born-ml/bornprof/internal/backend/device"
	"github.com/born-ml/bornprof/tensor"
)

// Backend represents the simulated accelerator.
type Backend = internaldevice.Backend

// Config configures copy bandwidth and kernel fan-out.
type Config = internaldevice.Config

// MemoryStats reports resident and peak device memory.
type MemoryStats = internaldevice.MemoryStats

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates an unthrottled device backend.
func New() *Backend {
	return internaldevice.New()
}

// NewWithConfig creates a device backend with cfg.
func NewWithConfig(cfg Config) *Backend {
	return internaldevice.NewWithConfig(cfg)
}

// DefaultConfig returns an unthrottled device using every CPU.
func DefaultConfig() Config {
	return internaldevice.DefaultConfig()
}
