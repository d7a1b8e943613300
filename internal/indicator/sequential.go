package indicator

import (
	"fmt"
	"math"

	"batch-indicators/internal/model"
)

// The Sequential* functions compute the batch indicators one symbol and one
// price at a time with the streaming types, without the device. They are
// the per-symbol baseline the batched kernels are measured against.

// SequentialEMA is the row-by-row equivalent of Engine.EMA.
func SequentialEMA(data *model.Matrix, period int) (*model.Matrix, error) {
	if err := checkInput(data); err != nil {
		return nil, err
	}
	if period < 1 {
		return nil, fmt.Errorf("%w: ema period %d", ErrInvalidArgument, period)
	}
	return sequential(data, NewEMA(period))
}

// SequentialRSI is the row-by-row equivalent of Engine.RSI.
func SequentialRSI(prices *model.Matrix, period int) (*model.Matrix, error) {
	if err := checkInput(prices); err != nil {
		return nil, err
	}
	if period < 1 {
		return nil, fmt.Errorf("%w: rsi period %d", ErrInvalidArgument, period)
	}
	return sequential(prices, NewRSI(period))
}

// SequentialBollinger is the row-by-row equivalent of Engine.Bollinger.
func SequentialBollinger(prices *model.Matrix, period int, stdMultiplier float64) (model.BollingerBands, error) {
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

	rows, cols := prices.Shape()
	bands.Upper, _ = model.NewMatrix(rows, cols)
	bands.Middle, _ = model.NewMatrix(rows, cols)
	bands.Lower, _ = model.NewMatrix(rows, cols)

	b := NewBollinger(period, stdMultiplier)
	for i := 0; i < rows; i++ {
		b.Reset()
		for j, p := range prices.Row(i) {
			b.Update(float64(p))
			up, mid, low := b.Bands()
			bands.Upper.Set(i, j, toCell(up))
			bands.Middle.Set(i, j, toCell(mid))
			bands.Lower.Set(i, j, toCell(low))
		}
	}
	return bands, nil
}

// SequentialMACD is the row-by-row equivalent of Engine.MACD.
func SequentialMACD(prices *model.Matrix, fast, slow, signal int) (model.MACD, error) {
	var res model.MACD
	if err := checkInput(prices); err != nil {
		return res, err
	}
	if fast < 1 || slow < 1 || signal < 1 {
		return res, fmt.Errorf("%w: macd periods %d/%d/%d", ErrInvalidArgument, fast, slow, signal)
	}

	rows, cols := prices.Shape()
	res.Line, _ = model.NewMatrix(rows, cols)
	res.Signal, _ = model.NewMatrix(rows, cols)
	res.Histogram, _ = model.NewMatrix(rows, cols)

	m := NewMACD(fast, slow, signal)
	for i := 0; i < rows; i++ {
		m.Reset()
		for j, p := range prices.Row(i) {
			m.Update(float64(p))
			res.Line.Set(i, j, toCell(m.Value()))
			res.Signal.Set(i, j, toCell(m.Signal()))
			res.Histogram.Set(i, j, toCell(m.Histogram()))
		}
	}
	return res, nil
}

func sequential(data *model.Matrix, ind Indicator) (*model.Matrix, error) {
	rows, cols := data.Shape()
	out, err := model.NewMatrix(rows, cols)
	if err != nil {
		return nil, err
	}
	for i := 0; i < rows; i++ {
		ind.Reset()
		for j, p := range data.Row(i) {
			ind.Update(float64(p))
			out.Set(i, j, toCell(ind.Value()))
		}
	}
	return out, nil
}

func toCell(v float64) float32 {
	if math.IsNaN(v) {
		return model.NotAvailable
	}
	return float32(v)
}

// ComputeSequential is the baseline counterpart of Engine.Compute and
// returns outputs with the same names in the same order.
func ComputeSequential(prices *model.Matrix, configs []IndicatorConfig) ([]Output, error) {
	outputs := make([]Output, 0, len(configs))
	for _, c := range configs {
		name := c.Name()
		switch c.Type {
		case TypeEMA:
			m, err := SequentialEMA(prices, c.Period)
			if err != nil {
				return nil, fmt.Errorf("sequential %s: %w", name, err)
			}
			outputs = append(outputs, Output{Name: name, Values: m})
		case TypeRSI:
			m, err := SequentialRSI(prices, c.Period)
			if err != nil {
				return nil, fmt.Errorf("sequential %s: %w", name, err)
			}
			outputs = append(outputs, Output{Name: name, Values: m})
		case TypeBollinger:
			b, err := SequentialBollinger(prices, c.Period, c.Mult)
			if err != nil {
				return nil, fmt.Errorf("sequential %s: %w", name, err)
			}
			outputs = append(outputs,
				Output{Name: name + "_upper", Values: b.Upper},
				Output{Name: name + "_middle", Values: b.Middle},
				Output{Name: name + "_lower", Values: b.Lower},
			)
		case TypeMACD:
			m, err := SequentialMACD(prices, c.Period, c.Slow, c.Signal)
			if err != nil {
				return nil, fmt.Errorf("sequential %s: %w", name, err)
			}
			outputs = append(outputs,
				Output{Name: name + "_line", Values: m.Line},
				Output{Name: name + "_signal", Values: m.Signal},
				Output{Name: name + "_hist", Values: m.Histogram},
			)
		default:
			return nil, fmt.Errorf("sequential: %w: unknown indicator type %q", ErrInvalidArgument, c.Type)
		}
	}
	return outputs, nil
}
