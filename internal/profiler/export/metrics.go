package export

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/born-ml/bornprof/internal/profiler"
)

// Metrics holds one gauge family per aggregated column. Every series is
// labelled with the row name plus the constant labels passed to NewMetrics.
type Metrics struct {
	selfCPU     *prometheus.GaugeVec
	cpuTotal    *prometheus.GaugeVec
	selfDevice  *prometheus.GaugeVec
	calls       *prometheus.GaugeVec
	selfHost    *prometheus.GaugeVec
	selfDevMem  *prometheus.GaugeVec
	sessionSecs prometheus.Gauge
}

// NewMetrics creates the gauges and registers them with reg.
func NewMetrics(reg prometheus.Registerer, labels prometheus.Labels) (*Metrics, error) {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "bornprof",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, []string{"name", "kind"})
	}

	m := &Metrics{
		selfCPU:    gauge("self_cpu_seconds", "Self CPU time per event name."),
		cpuTotal:   gauge("cpu_total_seconds", "CPU time including nested events per event name."),
		selfDevice: gauge("self_device_seconds", "Self device time per event name."),
		calls:      gauge("calls", "Number of recorded events per event name."),
		selfHost:   gauge("self_host_bytes", "Host bytes allocated by the event itself."),
		selfDevMem: gauge("self_device_bytes", "Device bytes allocated by the event itself."),
		sessionSecs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "bornprof",
			Name:        "session_seconds",
			Help:        "Wall time of the profiled session.",
			ConstLabels: labels,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.selfCPU, m.cpuTotal, m.selfDevice, m.calls, m.selfHost, m.selfDevMem, m.sessionSecs,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// Observe sets the gauges from res aggregated by name.
func (m *Metrics) Observe(res *profiler.Result) {
	m.sessionSecs.Set(res.Duration().Seconds())
	for _, r := range res.KeyAverages(profiler.GroupBy{}).Rows() {
		kind := r.Kind.String()
		m.selfCPU.WithLabelValues(r.Name, kind).Set(r.SelfCPU.Seconds())
		m.cpuTotal.WithLabelValues(r.Name, kind).Set(r.CPUTotal.Seconds())
		m.selfDevice.WithLabelValues(r.Name, kind).Set(r.SelfDevice.Seconds())
		m.calls.WithLabelValues(r.Name, kind).Set(float64(r.Count))
		m.selfHost.WithLabelValues(r.Name, kind).Set(float64(r.SelfHostBytes))
		m.selfDevMem.WithLabelValues(r.Name, kind).Set(float64(r.SelfDeviceBytes))
	}
}

// PromTextfile writes res to path in the Prometheus text exposition format,
// for the node_exporter textfile collector. The file is replaced atomically.
func PromTextfile(path string, res *profiler.Result, labels prometheus.Labels) error {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg, labels)
	if err != nil {
		return err
	}
	m.Observe(res)

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write textfile %s: %w", path, err)
	}
	return nil
}
