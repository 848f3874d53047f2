// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package profiler records what a tensor program spends its time and memory on.
//
// # Overview
//
// A Profiler owns at most one active Session. While a session is open:
//   - Backends wrapped with Instrument record one "born::<op>" event per call
//   - StartRegion opens a named scope that nests everything recorded inside it
//   - Device time comes from the backend's kernel clock when it has one
//
// Stopping the session returns a Result: the event tree with self and total
// metrics per event. KeyAverages folds the events into one Row per name
// (optionally split by call site or input shapes) and Table renders the
// familiar fixed-width report.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/bornprof/backend/device"
//	    "github.com/born-ml/bornprof/profiler"
//	    "github.com/born-ml/bornprof/tensor"
//	)
//
//	func main() {
//	    p := profiler.New(profiler.Options{RecordShapes: true, ProfileMemory: true})
//	    dev := profiler.Instrument(p, device.New())
//	    ctx := profiler.WithProfiler(context.Background(), p)
//
//	    res, err := profiler.Profile(ctx, p, func(ctx context.Context) error {
//	        r := profiler.StartRegion(ctx, "MASK INDICES")
//	        defer r.End()
//	        idx = mask.GreaterScalar(th).Nonzero()
//	        return nil
//	    })
//
//	    table, _ := res.KeyAverages(profiler.GroupBy{}).Table(profiler.TableOptions{
//	        SortBy:   "self_cpu_time_total",
//	        RowLimit: 5,
//	    })
//	    fmt.Println(table)
//	}
//
// # Sort Keys
//
// Averages.Sort and TableOptions.SortBy accept the keys listed by SortKeys,
// for example "self_cpu_time_total", "cpu_time_total", "self_device_time_total"
// and "self_device_memory_usage".
package profiler
