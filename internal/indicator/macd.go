package indicator

import (
	"strconv"
)

// MACD is the difference of a fast and a slow EMA together with an EMA of
// that difference. Like EMA it is available from the first price.
type MACD struct {
	fastPeriod, slowPeriod, signalPeriod int

	fast, slow, signal *EMA
	line               float64
}

// NewMACD creates a MACD indicator, typically NewMACD(12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
		fast:         NewEMA(fast),
		slow:         NewEMA(slow),
		signal:       NewEMA(signal),
	}
}

func (m *MACD) Name() string {
	return TypeMACD + "_" + strconv.Itoa(m.fastPeriod) + "_" + strconv.Itoa(m.slowPeriod) + "_" + strconv.Itoa(m.signalPeriod)
}

func (m *MACD) Update(price float64) {
	m.fast.Update(price)
	m.slow.Update(price)
	m.line = m.fast.Value() - m.slow.Value()
	m.signal.Update(m.line)
}

// Value returns the MACD line.
func (m *MACD) Value() float64 {
	if !m.Ready() {
		return m.fast.Value() // NaN
	}
	return m.line
}

// Signal returns the signal line.
func (m *MACD) Signal() float64 { return m.signal.Value() }

// Histogram returns line minus signal.
func (m *MACD) Histogram() float64 { return m.Value() - m.Signal() }

func (m *MACD) Ready() bool { return m.fast.Ready() }

// Reset clears all three EMAs.
func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
	m.line = 0
}
