package runstore

import (
	"time"

	"github.com/born-ml/bornprof/internal/profiler"
)

// Run is one profiled variant execution. The id is the profiling session id.
type Run struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Variant      string    `gorm:"index;size:64;not null"`
	StartedAt    time.Time `gorm:"index;not null"`
	DurationNS   int64
	SelfCPUNS    int64
	SelfDeviceNS int64
	HostBytes    int64
	DeviceBytes  int64
	IndexCount   int64
	Threshold    float64
	CreatedAt    time.Time

	Rows []RunRow `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (Run) TableName() string {
	return "runs"
}

// RunRow is one aggregated row of a run's report.
type RunRow struct {
	ID              uint   `gorm:"primaryKey"`
	RunID           string `gorm:"index;size:36;not null"`
	Position        int    `gorm:"not null"`
	Name            string `gorm:"size:255;not null"`
	Kind            string `gorm:"size:16"`
	Calls           int64
	SelfCPUNS       int64
	CPUTotalNS      int64
	SelfDeviceNS    int64
	SelfHostBytes   int64
	SelfDeviceBytes int64
}

// TableName returns the table name for GORM.
func (RunRow) TableName() string {
	return "run_rows"
}

// SelfCPU returns the run's self CPU total.
func (r *Run) SelfCPU() time.Duration {
	return time.Duration(r.SelfCPUNS)
}

// SelfDevice returns the run's self device total.
func (r *Run) SelfDevice() time.Duration {
	return time.Duration(r.SelfDeviceNS)
}

// Row returns the stored row named name.
func (r *Run) Row(name string) (RunRow, bool) {
	for _, row := range r.Rows {
		if row.Name == name {
			return row, true
		}
	}
	return RunRow{}, false
}

// FromResult converts a profiling result into a Run with one row per
// event name, in first-seen order.
func FromResult(variant string, res *profiler.Result, indexCount int, threshold float64) *Run {
	avg := res.KeyAverages(profiler.GroupBy{})
	run := &Run{
		ID:           res.ID(),
		Variant:      variant,
		StartedAt:    res.StartTime().UTC(),
		DurationNS:   int64(res.Duration()),
		SelfCPUNS:    int64(avg.SelfCPUTotal()),
		SelfDeviceNS: int64(avg.SelfDeviceTotal()),
		IndexCount:   int64(indexCount),
		Threshold:    threshold,
	}

	for i, r := range avg.Rows() {
		run.HostBytes += r.SelfHostBytes
		run.DeviceBytes += r.SelfDeviceBytes
		run.Rows = append(run.Rows, RunRow{
			RunID:           run.ID,
			Position:        i,
			Name:            r.Name,
			Kind:            r.Kind.String(),
			Calls:           int64(r.Count),
			SelfCPUNS:       int64(r.SelfCPU),
			CPUTotalNS:      int64(r.CPUTotal),
			SelfDeviceNS:    int64(r.SelfDevice),
			SelfHostBytes:   r.SelfHostBytes,
			SelfDeviceBytes: r.SelfDeviceBytes,
		})
	}
	return run
}
