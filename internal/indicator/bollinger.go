package indicator

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Bollinger tracks the trailing window mean and population standard
// deviation. Uses a preallocated circular buffer for the window.
type Bollinger struct {
	period int
	mult   float64
	buf    []float64 // preallocated circular buffer
	idx    int       // current write position
	count  int       // total values received

	middle, std float64
}

// NewBollinger creates a Bollinger indicator over period prices with bands
// mult standard deviations away from the mean.
func NewBollinger(period int, mult float64) *Bollinger {
	return &Bollinger{
		period: period,
		mult:   mult,
		buf:    make([]float64, period),
	}
}

func (b *Bollinger) Name() string {
	return TypeBollinger + "_" + strconv.Itoa(b.period) + "_" + strconv.FormatFloat(b.mult, 'f', -1, 64)
}

func (b *Bollinger) Update(price float64) {
	b.buf[b.idx] = price
	b.idx = (b.idx + 1) % b.period
	b.count++

	if b.count >= b.period {
		b.middle, b.std = stat.PopMeanStdDev(b.buf, nil)
	}
}

// Value returns the middle band.
func (b *Bollinger) Value() float64 {
	if !b.Ready() {
		return math.NaN()
	}
	return b.middle
}

// Bands returns (upper, middle, lower), all NaN before warm-up.
func (b *Bollinger) Bands() (float64, float64, float64) {
	if !b.Ready() {
		return math.NaN(), math.NaN(), math.NaN()
	}
	return b.middle + b.mult*b.std, b.middle, b.middle - b.mult*b.std
}

func (b *Bollinger) Ready() bool { return b.count >= b.period }

// Reset clears the window for reuse.
func (b *Bollinger) Reset() {
	b.idx = 0
	b.count = 0
	b.middle = 0
	b.std = 0
	for i := range b.buf {
		b.buf[i] = 0
	}
}
