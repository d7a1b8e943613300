package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────────────────
// EMA Correctness
// ────────────────────────────────────────────────────────────

func TestEMA_Correctness_Period3(t *testing.T) {
	// EMA(3): multiplier = 2/(3+1) = 0.5, seeded with the first price
	// Prices: 100, 102, 104, 103, 105
	//
	// 1: 100
	// 2: 102*0.5 + 100*0.5    = 101
	// 3: 104*0.5 + 101*0.5    = 102.5
	// 4: 103*0.5 + 102.5*0.5  = 102.75
	// 5: 105*0.5 + 102.75*0.5 = 103.875
	ema := NewEMA(3)
	assert.False(t, ema.Ready())
	assert.True(t, math.IsNaN(ema.Value()))

	prices := []float64{100, 102, 104, 103, 105}
	expected := []float64{100, 101, 102.5, 102.75, 103.875}
	for i, p := range prices {
		ema.Update(p)
		require.True(t, ema.Ready())
		assert.InDelta(t, expected[i], ema.Value(), 1e-9, "price %d", i)
	}
	assert.Equal(t, "EMA_3", ema.Name())
}

func TestEMA_PeriodOneFollowsPrice(t *testing.T) {
	ema := NewEMA(1)
	for _, p := range []float64{5, 7, 3, 11} {
		ema.Update(p)
		assert.Equal(t, p, ema.Value())
	}
}

// ────────────────────────────────────────────────────────────
// RSI Correctness
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period3(t *testing.T) {
	// Prices: 44, 45, 44, 46, 47
	// Changes: +1, -1, +2, +1
	//
	// Price 4 (seed): avgGain = (1+0+2)/3 = 1, avgLoss = 1/3
	//   RS = 3 → RSI = 100 - 100/4 = 75
	// Price 5 (+1): avgGain = 1/3*1 + 2/3*1 = 1, avgLoss = 2/3 * 1/3 = 2/9
	//   RS = 4.5 → RSI = 100 - 100/5.5 = 81.818181...
	rsi := NewRSI(3)
	prices := []float64{44, 45, 44, 46, 47}
	ready := []bool{false, false, false, true, true}

	for i, p := range prices {
		rsi.Update(p)
		assert.Equal(t, ready[i], rsi.Ready(), "price %d", i)
		if !ready[i] {
			assert.True(t, math.IsNaN(rsi.Value()))
		}
	}
	assert.InDelta(t, 100-100/5.5, rsi.Value(), 1e-6)
	assert.Equal(t, "RSI_3", rsi.Name())
}

func TestRSI_SeedValue(t *testing.T) {
	rsi := NewRSI(3)
	for _, p := range []float64{44, 45, 44, 46} {
		rsi.Update(p)
	}
	assert.InDelta(t, 75.0, rsi.Value(), 1e-6)
}

func TestRSI_ConstantIsZero(t *testing.T) {
	// no gains and no losses: RS = 0/(0+eps) = 0
	rsi := NewRSI(14)
	for i := 0; i < 30; i++ {
		rsi.Update(100)
	}
	assert.Equal(t, 0.0, rsi.Value())
}

func TestRSI_AllGainsNear100(t *testing.T) {
	rsi := NewRSI(14)
	for i := 0; i < 30; i++ {
		rsi.Update(float64(100 + i))
	}
	assert.InDelta(t, 100.0, rsi.Value(), 1e-6)
}

func TestRSI_Reset(t *testing.T) {
	rsi := NewRSI(2)
	for _, p := range []float64{1, 2, 3, 4} {
		rsi.Update(p)
	}
	require.True(t, rsi.Ready())

	rsi.Reset()
	assert.False(t, rsi.Ready())
	rsi.Update(10)
	assert.True(t, math.IsNaN(rsi.Value()))
}

func TestRSI_HugePeriodNeverReady(t *testing.T) {
	rsi := NewRSI(math.MaxInt)
	for _, p := range []float64{1, 3, 2, 5, 4, 6} {
		rsi.Update(p)
		assert.False(t, rsi.Ready())
		assert.True(t, math.IsNaN(rsi.Value()))
	}
}

// ────────────────────────────────────────────────────────────
// Bollinger Correctness
// ────────────────────────────────────────────────────────────

func TestBollinger_Correctness_Period3(t *testing.T) {
	// Window 1, 2, 3: mean 2, population std sqrt(2/3) = 0.816497
	b := NewBollinger(3, 2)
	b.Update(1)
	b.Update(2)
	up, mid, low := b.Bands()
	assert.False(t, b.Ready())
	assert.True(t, math.IsNaN(up) && math.IsNaN(mid) && math.IsNaN(low))

	b.Update(3)
	require.True(t, b.Ready())
	std := math.Sqrt(2.0 / 3.0)
	up, mid, low = b.Bands()
	assert.InDelta(t, 2.0, mid, 1e-12)
	assert.InDelta(t, 2+2*std, up, 1e-12)
	assert.InDelta(t, 2-2*std, low, 1e-12)

	// Window slides to 2, 3, 10: mean 5
	b.Update(10)
	assert.InDelta(t, 5.0, b.Value(), 1e-12)
	assert.Equal(t, "BOLL_3_2", b.Name())
}

func TestBollinger_PeriodOneHasZeroWidth(t *testing.T) {
	b := NewBollinger(1, 2)
	b.Update(42)
	up, mid, low := b.Bands()
	assert.Equal(t, 42.0, up)
	assert.Equal(t, 42.0, mid)
	assert.Equal(t, 42.0, low)
}

// ────────────────────────────────────────────────────────────
// MACD Correctness
// ────────────────────────────────────────────────────────────

func TestMACD_Composition(t *testing.T) {
	m := NewMACD(3, 6, 2)
	fast, slow, sig := NewEMA(3), NewEMA(6), NewEMA(2)

	for _, p := range []float64{10, 11, 12, 11, 13, 15, 14, 16} {
		m.Update(p)
		fast.Update(p)
		slow.Update(p)
		line := fast.Value() - slow.Value()
		sig.Update(line)

		assert.InDelta(t, line, m.Value(), 1e-12)
		assert.InDelta(t, sig.Value(), m.Signal(), 1e-12)
		assert.Equal(t, m.Value()-m.Signal(), m.Histogram())
	}
	assert.Equal(t, "MACD_3_6_2", m.Name())
}

func TestMACD_FirstValueIsZero(t *testing.T) {
	m := NewMACD(12, 26, 9)
	assert.False(t, m.Ready())
	m.Update(100)
	assert.True(t, m.Ready())
	assert.Equal(t, 0.0, m.Value())
	assert.Equal(t, 0.0, m.Signal())
	assert.Equal(t, 0.0, m.Histogram())
}

func TestIndicators_ImplementInterface(t *testing.T) {
	var _ Indicator = NewEMA(3)
	var _ Indicator = NewRSI(3)
	var _ Indicator = NewBollinger(3, 2)
	var _ Indicator = NewMACD(3, 6, 2)
}
