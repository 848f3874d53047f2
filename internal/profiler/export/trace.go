// Package export writes profiling results in formats other tools read:
// Chrome trace JSON, Prometheus textfiles and runtime/pprof profiles.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/born-ml/bornprof/internal/profiler"
)

// Trace thread ids. Device spans get their own row in the viewer.
const (
	hostTID   = 0
	deviceTID = 1
)

type traceEvent struct {
	Name string         `json:"name"`
	Cat  string         `json:"cat"`
	Ph   string         `json:"ph"`
	TS   float64        `json:"ts"`
	Dur  float64        `json:"dur"`
	PID  int            `json:"pid"`
	TID  int            `json:"tid"`
	Args map[string]any `json:"args,omitempty"`
}

type traceFile struct {
	TraceEvents     []traceEvent      `json:"traceEvents"`
	DisplayTimeUnit string            `json:"displayTimeUnit"`
	OtherData       map[string]string `json:"otherData"`
}

func micros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

// ChromeTrace writes res as a Chrome trace-event document, loadable in
// chrome://tracing or Perfetto. Every event becomes a complete ("X") span on
// the host row; ops that consumed device time get a second span on the
// device row starting at the same offset.
func ChromeTrace(w io.Writer, res *profiler.Result) error {
	events := res.Events()
	out := traceFile{
		TraceEvents:     make([]traceEvent, 0, len(events)),
		DisplayTimeUnit: "ms",
		OtherData: map[string]string{
			"session": res.ID(),
			"start":   res.StartTime().UTC().Format(time.RFC3339Nano),
		},
	}

	for _, e := range events {
		args := map[string]any{}
		if len(e.InputShapes) > 0 {
			args["input_shapes"] = e.InputShapes
		}
		if e.HostBytes != 0 {
			args["host_bytes"] = e.HostBytes
		}
		if e.DeviceBytes != 0 {
			args["device_bytes"] = e.DeviceBytes
		}
		if len(e.Stack) > 0 {
			args["source"] = e.Stack[0].String()
		}
		if len(args) == 0 {
			args = nil
		}

		out.TraceEvents = append(out.TraceEvents, traceEvent{
			Name: e.Name,
			Cat:  e.Kind.String(),
			Ph:   "X",
			TS:   micros(e.Start),
			Dur:  micros(e.CPUTime),
			TID:  hostTID,
			Args: args,
		})
		if e.Kind == profiler.KindOp && e.DeviceTime > 0 {
			out.TraceEvents = append(out.TraceEvents, traceEvent{
				Name: e.Name,
				Cat:  "device",
				Ph:   "X",
				TS:   micros(e.Start),
				Dur:  micros(e.DeviceTime),
				TID:  deviceTID,
			})
		}
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode chrome trace: %w", err)
	}
	return nil
}
