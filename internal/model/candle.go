package model

import (
	"time"
)

// Candle is one OHLCV bar for a single symbol as held by the candle store.
type Candle struct {
	Symbol string    `json:"symbol"`
	TS     time.Time `json:"ts"` // bar start time (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceBatch is a price matrix together with the symbol of each row.
// Symbols[i] labels Prices.Row(i).
type PriceBatch struct {
	Symbols []string
	Prices  *Matrix
	AsOf    time.Time // timestamp of the last column
}
