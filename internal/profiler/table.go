package profiler

import (
	"fmt"
	"strings"
)

// Table layout defaults.
const (
	DefaultMaxNameWidth      = 55
	DefaultMaxSrcColumnWidth = 75
	maxShapesColumnWidth     = 80
	columnWidth              = 12
	columnSpacing            = 2
)

// TableOptions controls Averages.Table.
type TableOptions struct {
	// SortBy is a sort key accepted by Sort. Empty keeps first-seen order.
	SortBy string
	// RowLimit truncates the table. Zero or negative prints every row.
	RowLimit int
	// MaxNameWidth bounds the Name column. Zero means DefaultMaxNameWidth.
	MaxNameWidth int
	// MaxSrcColumnWidth bounds the Source Location column. Zero means
	// DefaultMaxSrcColumnWidth.
	MaxSrcColumnWidth int
}

type column struct {
	header string
	width  int
	left   bool
	cell   func(Row) string
}

// Table renders the rows as a fixed-width text table followed by the self
// time totals.
func (a *Averages) Table(opts TableOptions) (string, error) {
	sorted, err := a.Sort(opts.SortBy)
	if err != nil {
		return "", err
	}
	rows := sorted.rows
	if opts.RowLimit > 0 && len(rows) > opts.RowLimit {
		rows = rows[:opts.RowLimit]
	}

	maxName := opts.MaxNameWidth
	if maxName <= 0 {
		maxName = DefaultMaxNameWidth
	}
	maxSrc := opts.MaxSrcColumnWidth
	if maxSrc <= 0 {
		maxSrc = DefaultMaxSrcColumnWidth
	}

	cols := a.columns(rows, maxName, maxSrc)
	hasStack := a.groupBy.StackDepth > 0

	var sb strings.Builder
	sep := separator(cols)

	sb.WriteString(sep)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.header
	}
	writeLine(&sb, cols, headers)
	sb.WriteString(sep)

	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = c.cell(r)
		}
		writeLine(&sb, cols, cells)

		if hasStack && len(r.Stack) > 1 {
			for _, f := range r.Stack[1:] {
				extra := make([]string, len(cols))
				extra[len(cols)-1] = truncate(f.String(), cols[len(cols)-1].width)
				writeLine(&sb, cols, extra)
			}
		}
	}

	sb.WriteString(sep)
	fmt.Fprintf(&sb, "Self CPU time total: %s\n", FormatTime(a.selfCPUTotal))
	if a.selfDeviceTotal > 0 {
		fmt.Fprintf(&sb, "Self Device time total: %s\n", FormatTime(a.selfDeviceTotal))
	}
	return sb.String(), nil
}

func (a *Averages) columns(rows []Row, maxName, maxSrc int) []column {
	nameWidth := len("Name")
	for _, r := range rows {
		nameWidth = max(nameWidth, len(r.Name)+4)
	}
	nameWidth = min(nameWidth, maxName)

	cpuTotal := a.selfCPUTotal
	devTotal := a.selfDeviceTotal
	hasDevice := a.HasDevice()

	timeCol := func(header string, cell func(Row) string) column {
		return column{header: header, width: columnWidth, cell: cell}
	}

	cols := []column{
		{header: "Name", width: nameWidth, left: true, cell: func(r Row) string { return truncate(r.Name, nameWidth) }},
		timeCol("Self CPU %", func(r Row) string { return formatPercent(r.SelfCPU, cpuTotal) }),
		timeCol("Self CPU", func(r Row) string { return FormatTime(r.SelfCPU) }),
		timeCol("CPU total %", func(r Row) string { return formatPercent(r.CPUTotal, cpuTotal) }),
		timeCol("CPU total", func(r Row) string { return FormatTime(r.CPUTotal) }),
		timeCol("CPU time avg", func(r Row) string { return FormatTime(r.CPUTimeAvg()) }),
	}
	if hasDevice {
		cols = append(cols,
			timeCol("Self Device", func(r Row) string { return FormatTime(r.SelfDevice) }),
			timeCol("Self Device %", func(r Row) string { return formatPercent(r.SelfDevice, devTotal) }),
			timeCol("Device total", func(r Row) string { return FormatTime(r.DeviceTotal) }),
			timeCol("Device time avg", func(r Row) string { return FormatTime(r.DeviceTimeAvg()) }),
		)
	}
	if a.profileMemory {
		cols = append(cols,
			timeCol("CPU Mem", func(r Row) string { return FormatMemory(r.HostBytes) }),
			timeCol("Self CPU Mem", func(r Row) string { return FormatMemory(r.SelfHostBytes) }),
		)
		if hasDevice {
			cols = append(cols,
				timeCol("Device Mem", func(r Row) string { return FormatMemory(r.DeviceBytes) }),
				timeCol("Self Device Mem", func(r Row) string { return FormatMemory(r.SelfDeviceBytes) }),
			)
		}
	}
	cols = append(cols, timeCol("# of Calls", func(r Row) string { return fmt.Sprint(r.Count) }))

	if a.groupBy.InputShapes {
		w := len("Input Shapes")
		for _, r := range rows {
			w = max(w, len(r.InputShapes)+4)
		}
		w = min(w, maxShapesColumnWidth)
		cols = append(cols, column{header: "Input Shapes", width: w, left: true,
			cell: func(r Row) string { return truncate(r.InputShapes, w) }})
	}
	if a.groupBy.StackDepth > 0 {
		w := len("Source Location")
		for _, r := range rows {
			for _, f := range r.Stack {
				w = max(w, len(f.String())+4)
			}
		}
		w = min(w, maxSrc)
		cols = append(cols, column{header: "Source Location", width: w, left: true,
			cell: func(r Row) string {
				if len(r.Stack) == 0 {
					return ""
				}
				return truncate(r.Stack[0].String(), w)
			}})
	}

	// Headers wider than the default width widen their column.
	for i := range cols {
		cols[i].width = max(cols[i].width, len(cols[i].header))
	}
	return cols
}

func separator(cols []column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = strings.Repeat("-", c.width)
	}
	return strings.Join(parts, strings.Repeat(" ", columnSpacing)) + "\n"
}

func writeLine(sb *strings.Builder, cols []column, cells []string) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		if c.left {
			parts[i] = fmt.Sprintf("%-*s", c.width, cells[i])
		} else {
			parts[i] = fmt.Sprintf("%*s", c.width, cells[i])
		}
	}
	sb.WriteString(strings.TrimRight(strings.Join(parts, strings.Repeat(" ", columnSpacing)), " "))
	sb.WriteByte('\n')
}

// truncate shortens s to width, marking the cut with "...".
func truncate(s string, width int) string {
	if len(s) <= width || width <= 3 {
		return s
	}
	return s[:width-3] + "..."
}
