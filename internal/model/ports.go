package model

import (
	"context"
)

// ── Storage Port Interfaces ──
// These interfaces decouple the refresh loop from concrete storage
// implementations (SQLite, Redis).

// MatrixSource supplies the latest price history for a set of symbols.
type MatrixSource interface {
	// ReadCloses returns up to length closes per symbol, oldest first.
	ReadCloses(ctx context.Context, symbols []string, length int) (*PriceBatch, error)

	// Close releases underlying resources.
	Close() error
}

// CandleWriter stores candles.
type CandleWriter interface {
	InsertCandles(ctx context.Context, candles []Candle) error

	// Close releases underlying resources.
	Close() error
}

// ResultPublisher publishes the latest indicator values.
type ResultPublisher interface {
	// PublishResults writes results in a single batch and returns how many
	// were written.
	PublishResults(ctx context.Context, results []IndicatorResult) (int, error)

	// Close releases underlying resources.
	Close() error
}
