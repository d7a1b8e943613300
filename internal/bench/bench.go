package bench

import (
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"batch-indicators/internal/device"
	"batch-indicators/internal/indicator"
	"batch-indicators/internal/model"
	"batch-indicators/internal/synth"
)

// sampleCount is the number of final-column values kept per result.
const sampleCount = 5

// Options configures a benchmark run.
type Options struct {
	Data       synth.Config
	Iterations int
	Configs    []indicator.IndicatorConfig

	// SkipBaseline disables the sequential comparison.
	SkipBaseline bool
}

// DefaultOptions benchmarks RSI(14) over 100 symbols x 1000 points.
func DefaultOptions() Options {
	return Options{
		Data:       synth.DefaultConfig(),
		Iterations: 1,
		Configs:    []indicator.IndicatorConfig{{Type: indicator.TypeRSI, Period: 14}},
	}
}

// Result holds the measurements for one indicator config.
type Result struct {
	Name  string
	Cells int

	Elapsed    time.Duration // mean batched wall time per iteration
	Throughput float64       // cells per second

	Baseline   time.Duration // sequential wall time, 0 when skipped
	Speedup    float64       // Baseline / Elapsed
	MaxAbsDiff float64       // largest deviation from the baseline over all outputs

	// Final column of the first output
	Samples []float32 // first available values in row order
	Valid   int       // rows with an available final value
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64
}

// Report is the outcome of Run.
type Report struct {
	Device     device.Info
	Symbols    int
	Length     int
	Iterations int
	Results    []Result

	// Pool state after ClearMemory.
	DevicePool device.PoolStats
	PinnedPool device.PoolStats
}

// Run benchmarks every config in opts over a synthetic matrix and releases
// the engine's cached memory when done.
func Run(e *indicator.Engine, opts Options) (*Report, error) {
	if opts.Iterations < 1 {
		opts.Iterations = 1
	}
	if len(opts.Configs) == 0 {
		return nil, fmt.Errorf("bench: no indicators: %w", indicator.ErrInvalidArgument)
	}

	prices, err := synth.RandomWalk(opts.Data)
	if err != nil {
		return nil, fmt.Errorf("bench data: %w", err)
	}

	logger := log.WithField("component", "bench")
	rep := &Report{
		Device:     e.Device().Info(),
		Symbols:    prices.Rows(),
		Length:     prices.Cols(),
		Iterations: opts.Iterations,
	}
	defer func() {
		e.ClearMemory()
		rep.DevicePool, rep.PinnedPool = e.PoolStats()
	}()

	for _, c := range opts.Configs {
		cfgs := []indicator.IndicatorConfig{c}
		res := Result{Name: c.Name(), Cells: prices.Len()}

		var outs []indicator.Output
		start := time.Now()
		for it := 0; it < opts.Iterations; it++ {
			if outs, err = e.Compute(prices, cfgs); err != nil {
				return nil, fmt.Errorf("bench %s: %w", res.Name, err)
			}
		}
		res.Elapsed = time.Since(start) / time.Duration(opts.Iterations)
		if res.Elapsed > 0 {
			res.Throughput = float64(res.Cells) / res.Elapsed.Seconds()
		}

		if !opts.SkipBaseline {
			start = time.Now()
			base, err := indicator.ComputeSequential(prices, cfgs)
			if err != nil {
				return nil, fmt.Errorf("bench %s baseline: %w", res.Name, err)
			}
			res.Baseline = time.Since(start)
			if res.Elapsed > 0 {
				res.Speedup = res.Baseline.Seconds() / res.Elapsed.Seconds()
			}
			for k := range outs {
				res.MaxAbsDiff = math.Max(res.MaxAbsDiff, maxAbsDiff(outs[k].Values, base[k].Values))
			}
		}

		summarize(&res, outs[0].Values)
		logger.WithFields(log.Fields{
			"indicator":  res.Name,
			"elapsed":    res.Elapsed,
			"throughput": int64(res.Throughput),
			"speedup":    res.Speedup,
		}).Info("benchmark done")
		rep.Results = append(rep.Results, res)
	}
	return rep, nil
}

// summarize fills the final-column statistics of res from m.
func summarize(res *Result, m *model.Matrix) {
	last := make([]float64, 0, m.Rows())
	for i := 0; i < m.Rows(); i++ {
		v := m.Last(i)
		if model.IsNotAvailable(v) {
			continue
		}
		if len(res.Samples) < sampleCount {
			res.Samples = append(res.Samples, v)
		}
		last = append(last, float64(v))
	}
	res.Valid = len(last)
	if len(last) == 0 {
		res.Min, res.Max, res.Mean, res.StdDev = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return
	}
	res.Min = floats.Min(last)
	res.Max = floats.Max(last)
	res.Mean, res.StdDev = stat.MeanStdDev(last, nil)
}

// maxAbsDiff compares two same-shaped matrices, skipping cells that are not
// available in both. A cell available in only one counts as infinite.
func maxAbsDiff(a, b *model.Matrix) float64 {
	x, y := a.Data(), b.Data()
	var worst float64
	for k := range x {
		na, nb := model.IsNotAvailable(x[k]), model.IsNotAvailable(y[k])
		if na && nb {
			continue
		}
		if na != nb {
			return math.Inf(1)
		}
		worst = math.Max(worst, math.Abs(float64(x[k])-float64(y[k])))
	}
	return worst
}
