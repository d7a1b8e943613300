// Package synth generates deterministic synthetic price data for tests,
// benchmarks and seeding the candle store.
package synth

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"batch-indicators/internal/model"
)

// Config describes a random-walk price matrix.
type Config struct {
	Symbols int
	Length  int
	Seed    uint64

	MinBase float64 // lower bound of the uniform starting price
	MaxBase float64 // upper bound of the uniform starting price
	Sigma   float64 // std of the normal per-step return (mean 0)
}

// DefaultConfig returns 100 symbols x 1000 steps, seed 42, starting prices
// in [50, 200] and 2% step volatility.
func DefaultConfig() Config {
	return Config{
		Symbols: 100,
		Length:  1000,
		Seed:    42,
		MinBase: 50,
		MaxBase: 200,
		Sigma:   0.02,
	}
}

func (c Config) validate() error {
	if c.Symbols < 0 || c.Length < 0 {
		return fmt.Errorf("synth: negative size %dx%d", c.Symbols, c.Length)
	}
	if c.MinBase > c.MaxBase {
		return fmt.Errorf("synth: min base %v above max base %v", c.MinBase, c.MaxBase)
	}
	if c.Sigma < 0 {
		return fmt.Errorf("synth: negative sigma %v", c.Sigma)
	}
	return nil
}

// walk returns the float64 random-walk rows. Each row starts at a uniform
// base and compounds normal returns: p[0] = base, p[j] = p[j-1] * (1 + r).
func walk(cfg Config) ([][]float64, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	src := rand.NewSource(cfg.Seed)
	base := distuv.Uniform{Min: cfg.MinBase, Max: cfg.MaxBase, Src: src}
	ret := distuv.Normal{Mu: 0, Sigma: cfg.Sigma, Src: src}

	bases := make([]float64, cfg.Symbols)
	for i := range bases {
		bases[i] = base.Rand()
	}

	rows := make([][]float64, cfg.Symbols)
	for i := range rows {
		row := make([]float64, cfg.Length)
		p := bases[i]
		for j := range row {
			if j > 0 && cfg.Sigma > 0 {
				p *= 1 + ret.Rand()
			}
			row[j] = p
		}
		rows[i] = row
	}
	return rows, nil
}

// RandomWalk returns a Symbols x Length price matrix. The same Config
// always yields the same matrix.
func RandomWalk(cfg Config) (*model.Matrix, error) {
	rows, err := walk(cfg)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return model.NewMatrix(0, cfg.Length)
	}
	return model.FromFloat64Rows(rows)
}

// Constant returns a rows x cols matrix with every cell set to v.
func Constant(rows, cols int, v float32) (*model.Matrix, error) {
	m, err := model.NewMatrix(rows, cols)
	if err != nil {
		return nil, err
	}
	data := m.Data()
	for k := range data {
		data[k] = v
	}
	return m, nil
}

// Linear returns a rows x cols matrix where every row is
// start, start+step, start+2*step, ...
func Linear(rows, cols int, start, step float32) (*model.Matrix, error) {
	m, err := model.NewMatrix(rows, cols)
	if err != nil {
		return nil, err
	}
	for i := 0; i < rows; i++ {
		row := m.Row(i)
		for j := range row {
			row[j] = start + step*float32(j)
		}
	}
	return m, nil
}

// Symbols returns n synthetic symbol names SYM000, SYM001, ...
func Symbols(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("SYM%03d", i)
	}
	return out
}

// Candles builds one candle per step for every symbol from a random walk.
// Closes follow the walk; the open is the previous close, high and low
// bracket both, and volume is uniform in [1000, 10000). Candle i of a
// symbol is stamped start + i*interval.
func Candles(cfg Config, symbols []string, start time.Time, interval time.Duration) ([]model.Candle, error) {
	if len(symbols) != cfg.Symbols {
		return nil, fmt.Errorf("synth: %d symbols for %d rows", len(symbols), cfg.Symbols)
	}
	rows, err := walk(cfg)
	if err != nil {
		return nil, err
	}

	src := rand.NewSource(cfg.Seed + 1)
	vol := distuv.Uniform{Min: 1000, Max: 10000, Src: src}
	wick := distuv.Uniform{Min: 0, Max: cfg.Sigma / 2, Src: src}

	candles := make([]model.Candle, 0, cfg.Symbols*cfg.Length)
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		prev := row[0]
		for j, c := range row {
			o := prev
			prev = c
			candles = append(candles, model.Candle{
				Symbol: symbols[i],
				TS:     start.Add(time.Duration(j) * interval),
				Open:   o,
				High:   math.Max(o, c) * (1 + wick.Rand()),
				Low:    math.Min(o, c) * (1 - wick.Rand()),
				Close:  c,
				Volume: math.Floor(vol.Rand()),
			})
		}
	}
	return candles, nil
}
