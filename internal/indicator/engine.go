package indicator

import (
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"batch-indicators/internal/device"
	"batch-indicators/internal/metrics"
	"batch-indicators/internal/model"
)

// Engine computes indicators for many symbols at once.
//
// Every call uploads its input into the engine's device pool, launches the
// kernels across rows and downloads fresh output matrices; intermediate
// buffers go back to the pool for reuse by later calls. An Engine is safe
// for concurrent use.
type Engine struct {
	dev     *device.Device
	mem     *device.Memory
	metrics *metrics.Metrics
	log     *log.Entry
}

// NewEngine creates an engine on dev with its own memory pools. m may be nil.
func NewEngine(dev *device.Device, m *metrics.Metrics) *Engine {
	info := dev.Info()
	l := log.WithField("component", "indicator")
	l.WithFields(log.Fields{
		"device":     info.Name,
		"workers":    info.Workers,
		"block_rows": info.BlockRows,
		"memory_cap": info.MemoryCap,
	}).Debug("engine created")

	return &Engine{
		dev:     dev,
		mem:     device.NewMemory(info),
		metrics: m,
		log:     l,
	}
}

// Device returns the device kernels run on.
func (e *Engine) Device() *device.Device { return e.dev }

// PoolStats returns the current device and pinned pool statistics.
func (e *Engine) PoolStats() (dev, pinned device.PoolStats) {
	return e.mem.Device.Stats(), e.mem.Pinned.Stats()
}

// ClearMemory frees every cached block of the device and pinned pools.
// Buffers held by in-flight calls are unaffected. Safe to call at any time,
// including repeatedly.
func (e *Engine) ClearMemory() {
	e.mem.Clear()
	dev, pinned := e.PoolStats()
	e.metrics.ObservePool(dev)
	e.metrics.ObservePool(pinned)
	e.log.WithFields(log.Fields{
		"device_in_use": dev.InUseBytes,
		"pinned_in_use": pinned.InUseBytes,
	}).Debug("memory pools cleared")
}

// EMA returns the exponential moving average of every row, seeded with the
// row's first value. There is no warm-up: every cell is available.
func (e *Engine) EMA(data *model.Matrix, period int) (*model.Matrix, error) {
	if err := checkInput(data); err != nil {
		return nil, err
	}
	if period < 1 {
		return nil, fmt.Errorf("%w: ema period %d", ErrInvalidArgument, period)
	}

	var out *model.Matrix
	err := e.run("ema", data.Len(), func() error {
		rows, cols := data.Shape()
		in, err := e.mem.Upload(data)
		if err != nil {
			return err
		}
		defer e.mem.Free(in)

		res, err := e.emaOnDevice(in, rows, cols, period)
		if err != nil {
			return err
		}
		defer e.mem.Free(res)

		out, err = e.mem.Download(res, rows, cols)
		return err
	})
	return out, err
}

// RSI returns the relative strength index of every row. Columns
// 0..period-1 are not available; rows with fewer than period+1 columns are
// not available everywhere.
func (e *Engine) RSI(prices *model.Matrix, period int) (*model.Matrix, error) {
	if err := checkInput(prices); err != nil {
		return nil, err
	}
	if period < 1 {
		return nil, fmt.Errorf("%w: rsi period %d", ErrInvalidArgument, period)
	}

	var out *model.Matrix
	err := e.run("rsi", prices.Len(), func() error {
		rows, cols := prices.Shape()
		n := prices.Len()

		in, err := e.mem.Upload(prices)
		if err != nil {
			return err
		}
		defer e.mem.Free(in)

		gains, err := e.mem.Alloc(n)
		if err != nil {
			return err
		}
		defer e.mem.Free(gains)
		losses, err := e.mem.Alloc(n)
		if err != nil {
			return err
		}
		defer e.mem.Free(losses)
		res, err := e.mem.Alloc(n)
		if err != nil {
			return err
		}
		defer e.mem.Free(res)

		e.dev.Launch(rows, splitKernel(in.Data(), gains.Data(), losses.Data(), cols))
		e.dev.Launch(rows, rsiKernel(gains.Data(), losses.Data(), res.Data(), cols, period))

		out, err = e.mem.Download(res, rows, cols)
		return err
	})
	return out, err
}

// Bollinger returns the upper, middle and lower bands: the trailing
// period-window mean plus and minus stdMultiplier population standard
// deviations. Columns before period-1 are not available.
func (e *Engine) Bollinger(prices *model.Matrix, period int, stdMultiplier float64) (model.BollingerBands, error) {
	var bands model.BollingerBands
	if err := checkInput(prices); err != nil {
		return bands, err
	}
	if period < 1 {
		return bands, fmt.Errorf("%w: bollinger period %d", ErrInvalidArgument, period)
	}
	if math.IsNaN(stdMultiplier) || math.IsInf(stdMultiplier, 0) {
		return bands, fmt.Errorf("%w: bollinger multiplier %v", ErrInvalidArgument, stdMultiplier)
	}

	err := e.run("bollinger", prices.Len(), func() error {
		rows, cols := prices.Shape()
		n := prices.Len()

		in, err := e.mem.Upload(prices)
		if err != nil {
			return err
		}
		defer e.mem.Free(in)

		bufs := make([]*device.Buffer, 0, 3)
		defer func() { e.mem.Free(bufs...) }()
		for k := 0; k < 3; k++ {
			b, err := e.mem.Alloc(n)
			if err != nil {
				return err
			}
			bufs = append(bufs, b)
		}
		up, mid, low := bufs[0], bufs[1], bufs[2]

		e.dev.Launch(rows, bollingerKernel(in.Data(), up.Data(), mid.Data(), low.Data(), cols, period, stdMultiplier))

		var result model.BollingerBands
		if result.Upper, err = e.mem.Download(up, rows, cols); err != nil {
			return err
		}
		if result.Middle, err = e.mem.Download(mid, rows, cols); err != nil {
			return err
		}
		if result.Lower, err = e.mem.Download(low, rows, cols); err != nil {
			return err
		}
		bands = result
		return nil
	})
	return bands, err
}

// MACD returns EMA(fast) - EMA(slow), its EMA(signal) and their difference.
// All three inherit the EMA first-value seed, so no cell is a warm-up cell.
func (e *Engine) MACD(prices *model.Matrix, fast, slow, signal int) (model.MACD, error) {
	var res model.MACD
	if err := checkInput(prices); err != nil {
		return res, err
	}
	if fast < 1 || slow < 1 || signal < 1 {
		return res, fmt.Errorf("%w: macd periods %d/%d/%d", ErrInvalidArgument, fast, slow, signal)
	}

	err := e.run("macd", prices.Len(), func() error {
		rows, cols := prices.Shape()
		n := prices.Len()

		in, err := e.mem.Upload(prices)
		if err != nil {
			return err
		}
		defer e.mem.Free(in)

		fastBuf, err := e.emaOnDevice(in, rows, cols, fast)
		if err != nil {
			return err
		}
		defer e.mem.Free(fastBuf)
		slowBuf, err := e.emaOnDevice(in, rows, cols, slow)
		if err != nil {
			return err
		}
		defer e.mem.Free(slowBuf)

		line, err := e.mem.Alloc(n)
		if err != nil {
			return err
		}
		defer e.mem.Free(line)
		e.dev.Launch(rows, subKernel(fastBuf.Data(), slowBuf.Data(), line.Data(), cols))

		sig, err := e.emaOnDevice(line, rows, cols, signal)
		if err != nil {
			return err
		}
		defer e.mem.Free(sig)

		hist, err := e.mem.Alloc(n)
		if err != nil {
			return err
		}
		defer e.mem.Free(hist)
		e.dev.Launch(rows, subKernel(line.Data(), sig.Data(), hist.Data(), cols))

		var out model.MACD
		if out.Line, err = e.mem.Download(line, rows, cols); err != nil {
			return err
		}
		if out.Signal, err = e.mem.Download(sig, rows, cols); err != nil {
			return err
		}
		if out.Histogram, err = e.mem.Download(hist, rows, cols); err != nil {
			return err
		}
		res = out
		return nil
	})
	return res, err
}

// emaOnDevice runs the EMA kernel from a device buffer into a new one. The
// caller owns the returned buffer.
func (e *Engine) emaOnDevice(in *device.Buffer, rows, cols, period int) (*device.Buffer, error) {
	out, err := e.mem.Alloc(rows * cols)
	if err != nil {
		return nil, err
	}
	e.dev.Launch(rows, emaKernel(in.Data(), out.Data(), cols, period))
	return out, nil
}

// run times fn and records kernel and pool metrics around it.
func (e *Engine) run(kernel string, cells int, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	dev, pinned := e.PoolStats()
	e.metrics.ObservePool(dev)
	e.metrics.ObservePool(pinned)

	if err != nil {
		if errors.Is(err, device.ErrOutOfMemory) && e.metrics != nil {
			e.metrics.AllocFailures.Inc()
		}
		e.log.WithError(err).WithFields(log.Fields{
			"kernel": kernel,
			"cells":  cells,
		}).Warn("kernel failed")
		return fmt.Errorf("%s: %w", kernel, err)
	}

	e.metrics.ObserveKernel(kernel, cells, elapsed)
	return nil
}

func checkInput(m *model.Matrix) error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrInvalidArgument)
	}
	return nil
}
