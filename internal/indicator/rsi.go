package indicator

import (
	"math"
	"strconv"
)

// RSI calculates the Relative Strength Index. The first value appears after
// period+1 prices, seeded with the simple mean of the first period gains and
// losses; later values use Wilder's smoothing.
type RSI struct {
	period    int
	count     int
	prevClose float64
	avgGain   float64
	avgLoss   float64
	current   float64
}

// NewRSI creates a new RSI indicator with the given period (typically 14).
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string { return TypeRSI + "_" + strconv.Itoa(r.period) }

func (r *RSI) Update(price float64) {
	r.count++

	if r.count == 1 {
		// first price, no delta yet
		r.prevClose = price
		return
	}

	delta := price - r.prevClose
	r.prevClose = price

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else if delta < 0 {
		loss = -delta
	}

	if r.count-1 <= r.period {
		// Accumulation phase: build initial averages
		r.avgGain += gain
		r.avgLoss += loss

		if r.count-1 == r.period {
			r.avgGain /= float64(r.period)
			r.avgLoss /= float64(r.period)
			r.current = rsiFrom(r.avgGain, r.avgLoss)
		}
		return
	}

	alpha := 1.0 / float64(r.period)
	r.avgGain = alpha*gain + (1-alpha)*r.avgGain
	r.avgLoss = alpha*loss + (1-alpha)*r.avgLoss
	r.current = rsiFrom(r.avgGain, r.avgLoss)
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	rs := avgGain / (avgLoss + rsiEpsilon)
	return 100.0 - (100.0 / (1.0 + rs))
}

func (r *RSI) Value() float64 {
	if !r.Ready() {
		return math.NaN()
	}
	return r.current
}

func (r *RSI) Ready() bool { return r.count > r.period }

// Reset clears the RSI state for reuse.
func (r *RSI) Reset() {
	r.count = 0
	r.prevClose = 0
	r.avgGain = 0
	r.avgLoss = 0
	r.current = 0
}
