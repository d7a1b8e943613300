package bench

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTableStyle() table.Style {
	style := table.Style{
		Name:    "StyleRounded",
		Box:     table.StyleBoxRounded,
		Format:  table.FormatOptionsDefault,
		HTML:    table.DefaultHTMLOptions,
		Options: table.OptionsDefault,
		Title:   table.TitleOptionsDefault,
		Color:   table.ColorOptionsDefault,
	}
	style.Format.Header = text.FormatUpper
	return style
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(newTableStyle())
	t.SetTitle(title)
	return t
}

// Render writes the probe result as a table.
func (p *ProbeResult) Render(w io.Writer) {
	t := newTable(w, "Device probe")
	t.AppendHeader(table.Row{"Property", "Value"})
	t.AppendRows([]table.Row{
		{"Device", p.Device.Name},
		{"Workers", p.Device.Workers},
		{"Block rows", p.Device.BlockRows},
		{"GOMAXPROCS", p.GOMAXPROCS},
		{"CPUs", p.NumCPU},
		{"Go", p.GoVersion},
		{"Memory cap", formatCap(p.Device.MemoryCap)},
		{"Pinned cap", formatCap(p.Device.PinnedCap)},
		{"Smoke kernel", fmt.Sprintf("EMA(1) %dx%d in %s", p.SmokeShape[0], p.SmokeShape[1], p.SmokeElapsed.Round(time.Microsecond))},
		{"Smoke result", okString(p.SmokeOK)},
	})
	t.Render()
}

// Render writes the benchmark results as a table.
func (r *Report) Render(w io.Writer) {
	t := newTable(w, fmt.Sprintf("Indicator benchmark (%d symbols x %d points, %d iterations, %s)",
		r.Symbols, r.Length, r.Iterations, r.Device.Name))
	t.AppendHeader(table.Row{"Indicator", "Time", "Cells/s", "Baseline", "Speedup", "Max diff", "Samples", "Range"})
	for _, res := range r.Results {
		baseline, speedup, diff := "-", "-", "-"
		if res.Baseline > 0 {
			baseline = res.Baseline.Round(time.Microsecond).String()
			speedup = fmt.Sprintf("%.2fx", res.Speedup)
			diff = fmt.Sprintf("%.2e", res.MaxAbsDiff)
		}
		t.AppendRow(table.Row{
			res.Name,
			res.Elapsed.Round(time.Microsecond).String(),
			fmt.Sprintf("%.0f", res.Throughput),
			baseline,
			speedup,
			diff,
			formatSamples(res.Samples),
			fmt.Sprintf("%.2f - %.2f", res.Min, res.Max),
		})
	}
	t.AppendFooter(table.Row{"Pool after clear", "", "", "", "", "",
		"in use " + formatBytes(r.DevicePool.InUseBytes), "cached " + formatBytes(r.DevicePool.CachedBytes)})
	t.Render()
}

func formatSamples(v []float32) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.2f", x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatCap(n int64) string {
	if n <= 0 {
		return "unlimited"
	}
	return formatBytes(n)
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func okString(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAILED"
}
