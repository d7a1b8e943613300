// Package indicator computes technical indicators over price matrices.
//
// Engine runs batched kernels on a device.Device: every row of the input
// matrix is one symbol and every column one timestep, rows are processed in
// parallel and time is walked sequentially inside each row. The streaming
// types (EMA, RSI, Bollinger, MACD) compute the same values one price at a
// time and back the Sequential* helpers used as a per-symbol baseline.
package indicator

import "errors"

// ErrInvalidArgument is returned for periods below 1, non-finite multipliers,
// nil inputs and unparseable indicator configs.
var ErrInvalidArgument = errors.New("invalid argument")

// rsiEpsilon is added to the average loss before dividing.
const rsiEpsilon = 1e-10

// Indicator is a single-symbol streaming indicator.
type Indicator interface {
	// Name returns the indicator name (e.g., "EMA_9", "RSI_14").
	Name() string

	// Update feeds the next price.
	Update(price float64)

	// Value returns the current value, or NaN before warm-up completes.
	Value() float64

	// Ready returns true when enough prices have been accumulated.
	Ready() bool

	// Reset clears all state for reuse on another symbol.
	Reset()
}
