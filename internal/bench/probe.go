// Package bench probes the compute device and benchmarks the batched
// indicator kernels against the per-symbol sequential baseline.
package bench

import (
	"fmt"
	"runtime"
	"time"

	"batch-indicators/internal/device"
	"batch-indicators/internal/indicator"
	"batch-indicators/internal/synth"
)

// ProbeResult describes the device and the outcome of a smoke kernel.
type ProbeResult struct {
	Device     device.Info
	GOMAXPROCS int
	NumCPU     int
	GoVersion  string

	SmokeShape   [2]int
	SmokeElapsed time.Duration
	SmokeOK      bool
}

// smokeRows x smokeCols is the matrix the smoke kernel runs on.
const (
	smokeRows = 256
	smokeCols = 256
)

// Probe reports device capabilities and runs EMA with period 1 over a
// random matrix, which must reproduce its input exactly. A mismatch or a
// kernel error is returned as an error alongside the partial result.
func Probe(e *indicator.Engine) (*ProbeResult, error) {
	res := &ProbeResult{
		Device:     e.Device().Info(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
		NumCPU:     runtime.NumCPU(),
		GoVersion:  runtime.Version(),
		SmokeShape: [2]int{smokeRows, smokeCols},
	}

	cfg := synth.DefaultConfig()
	cfg.Symbols, cfg.Length = smokeRows, smokeCols
	prices, err := synth.RandomWalk(cfg)
	if err != nil {
		return res, fmt.Errorf("probe data: %w", err)
	}

	start := time.Now()
	out, err := e.EMA(prices, 1)
	res.SmokeElapsed = time.Since(start)
	if err != nil {
		return res, fmt.Errorf("probe kernel: %w", err)
	}

	in, got := prices.Data(), out.Data()
	for k := range in {
		if in[k] != got[k] {
			return res, fmt.Errorf("probe kernel: cell %d = %v, want %v", k, got[k], in[k])
		}
	}
	res.SmokeOK = true
	return res, nil
}
