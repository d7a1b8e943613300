package model

import (
	"encoding/json"
	"time"
)

// IndicatorResult is the latest value of one indicator output for one symbol.
// Value is nil while the indicator is still warming up.
type IndicatorResult struct {
	Name   string    `json:"name"` // e.g. "RSI_14", "BOLL_20_2_upper"
	Symbol string    `json:"symbol"`
	Value  *float64  `json:"value"`
	Ready  bool      `json:"ready"`
	TS     time.Time `json:"ts"`
}

// NewIndicatorResult builds a result from a raw cell, mapping the sentinel to nil.
func NewIndicatorResult(name, symbol string, v float32, ts time.Time) IndicatorResult {
	r := IndicatorResult{Name: name, Symbol: symbol, TS: ts}
	if !IsNotAvailable(v) {
		f := float64(v)
		r.Value = &f
		r.Ready = true
	}
	return r
}

// LatestKey returns the Redis key holding the latest value: "ind:{name}:latest:{symbol}".
func (r *IndicatorResult) LatestKey() string {
	return "ind:" + r.Name + ":latest:" + r.Symbol
}

// PubSubChannel returns the Redis PubSub channel: "pub:ind:{name}:{symbol}".
func (r *IndicatorResult) PubSubChannel() string {
	return "pub:ind:" + r.Name + ":" + r.Symbol
}

// JSON returns the JSON-encoded result.
func (r *IndicatorResult) JSON() []byte {
	b, _ := json.Marshal(r)
	return b
}
