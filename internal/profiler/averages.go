package profiler

import (
	"fmt"
	"sort"
	"time"
)

// GroupBy selects the aggregation key beyond the event name.
type GroupBy struct {
	// StackDepth > 0 splits rows by the first StackDepth captured frames.
	StackDepth int
	// InputShapes splits op rows by their recorded input shapes.
	InputShapes bool
}

// Row is the aggregate of every event sharing one key.
type Row struct {
	Name        string
	Kind        Kind
	InputShapes string
	Stack       []Frame
	Count       int

	CPUTotal    time.Duration
	SelfCPU     time.Duration
	DeviceTotal time.Duration
	SelfDevice  time.Duration

	HostBytes       int64
	SelfHostBytes   int64
	DeviceBytes     int64
	SelfDeviceBytes int64
}

// CPUTimeAvg is CPUTotal per call.
func (r Row) CPUTimeAvg() time.Duration {
	if r.Count == 0 {
		return 0
	}
	return r.CPUTotal / time.Duration(r.Count)
}

// DeviceTimeAvg is DeviceTotal per call.
func (r Row) DeviceTimeAvg() time.Duration {
	if r.Count == 0 {
		return 0
	}
	return r.DeviceTotal / time.Duration(r.Count)
}

func (r *Row) add(e Event) {
	r.Count++
	r.CPUTotal += e.CPUTime
	r.SelfCPU += e.SelfCPUTime
	r.DeviceTotal += e.DeviceTime
	r.SelfDevice += e.SelfDeviceTime
	r.HostBytes += e.HostBytes
	r.SelfHostBytes += e.SelfHostBytes
	r.DeviceBytes += e.DeviceBytes
	r.SelfDeviceBytes += e.SelfDeviceBytes
}

// Averages is an ordered set of rows, one per distinct key.
type Averages struct {
	rows            []Row
	groupBy         GroupBy
	selfCPUTotal    time.Duration
	selfDeviceTotal time.Duration
	profileMemory   bool
}

// KeyAverages aggregates the result's events. Rows appear in the order
// their key was first seen.
func (r *Result) KeyAverages(by GroupBy) *Averages {
	avg := &Averages{
		groupBy:         by,
		selfCPUTotal:    r.SelfCPUTotal(),
		selfDeviceTotal: r.SelfDeviceTotal(),
		profileMemory:   r.opts.ProfileMemory,
	}

	index := make(map[string]int)
	for _, e := range r.events {
		key := e.Name
		var shapes string
		if by.InputShapes {
			shapes = shapesKey(e.InputShapes)
			key += "\x00" + shapes
		}
		var stack []Frame
		if by.StackDepth > 0 {
			stack = e.Stack
			if len(stack) > by.StackDepth {
				stack = stack[:by.StackDepth]
			}
			key += "\x00" + stackKey(stack)
		}

		i, ok := index[key]
		if !ok {
			i = len(avg.rows)
			index[key] = i
			avg.rows = append(avg.rows, Row{
				Name:        e.Name,
				Kind:        e.Kind,
				InputShapes: shapes,
				Stack:       stack,
			})
		}
		avg.rows[i].add(e)
	}
	return avg
}

// Rows returns a copy of the rows in their current order.
func (a *Averages) Rows() []Row {
	out := make([]Row, len(a.rows))
	copy(out, a.rows)
	return out
}

// Len returns the number of rows.
func (a *Averages) Len() int {
	return len(a.rows)
}

// Find returns the first row named name.
func (a *Averages) Find(name string) (Row, bool) {
	for _, r := range a.rows {
		if r.Name == name {
			return r, true
		}
	}
	return Row{}, false
}

// SelfCPUTotal is the sum of self CPU time over all rows.
func (a *Averages) SelfCPUTotal() time.Duration {
	return a.selfCPUTotal
}

// SelfDeviceTotal is the sum of self device time over all rows.
func (a *Averages) SelfDeviceTotal() time.Duration {
	return a.selfDeviceTotal
}

// HasDevice reports whether any row recorded device time or device memory.
func (a *Averages) HasDevice() bool {
	for _, r := range a.rows {
		if r.DeviceTotal > 0 || r.DeviceBytes != 0 {
			return true
		}
	}
	return false
}

var sortKeys = map[string]func(Row) int64{
	"self_cpu_time_total":      func(r Row) int64 { return int64(r.SelfCPU) },
	"cpu_time_total":           func(r Row) int64 { return int64(r.CPUTotal) },
	"cpu_time":                 func(r Row) int64 { return int64(r.CPUTimeAvg()) },
	"self_device_time_total":   func(r Row) int64 { return int64(r.SelfDevice) },
	"device_time_total":        func(r Row) int64 { return int64(r.DeviceTotal) },
	"device_time":              func(r Row) int64 { return int64(r.DeviceTimeAvg()) },
	"cpu_memory_usage":         func(r Row) int64 { return r.HostBytes },
	"self_cpu_memory_usage":    func(r Row) int64 { return r.SelfHostBytes },
	"device_memory_usage":      func(r Row) int64 { return r.DeviceBytes },
	"self_device_memory_usage": func(r Row) int64 { return r.SelfDeviceBytes },
	"count":                    func(r Row) int64 { return int64(r.Count) },
}

// sortAliases accepts the CUDA spellings users know from other profilers.
var sortAliases = map[string]string{
	"self_cuda_time_total":   "self_device_time_total",
	"cuda_time_total":        "device_time_total",
	"cuda_time":              "device_time",
	"cuda_memory_usage":      "device_memory_usage",
	"self_cuda_memory_usage": "self_device_memory_usage",
}

// SortKeys lists the accepted sort keys.
func SortKeys() []string {
	keys := make([]string, 0, len(sortKeys))
	for k := range sortKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidSortKey reports whether key is accepted by Sort.
func ValidSortKey(key string) bool {
	_, err := sortFunc(key)
	return err == nil
}

func sortFunc(key string) (func(Row) int64, error) {
	if alias, ok := sortAliases[key]; ok {
		key = alias
	}
	f, ok := sortKeys[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSortKey, key)
	}
	return f, nil
}

// Sort returns a copy ordered by key, largest first. Ties keep first-seen
// order. An empty key keeps the current order.
func (a *Averages) Sort(key string) (*Averages, error) {
	out := *a
	out.rows = a.Rows()
	if key == "" {
		return &out, nil
	}

	f, err := sortFunc(key)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out.rows, func(i, j int) bool {
		return f(out.rows[i]) > f(out.rows[j])
	})
	return &out, nil
}
