package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"batch-indicators/internal/model"
)

// Reader provides read-only access to the candle store and assembles price
// matrices from it.
type Reader struct {
	db  *sql.DB
	log *log.Entry
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	l := log.WithField("component", "sqlite-reader")
	l.WithField("path", dbPath).Info("opened database")
	return &Reader{db: db, log: l}, nil
}

// Symbols returns every symbol with at least one candle, sorted.
func (r *Reader) Symbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM candles ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("sqlite scan symbols: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReadCandles returns the latest limit candles of symbol, oldest first.
func (r *Reader) ReadCandles(ctx context.Context, symbol string, limit int) ([]model.Candle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, ts, open, high, low, close, volume
		FROM candles
		WHERE symbol = ?
		ORDER BY ts DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	var candles []model.Candle
	for rows.Next() {
		var c model.Candle
		var tsUnix int64
		var volume sql.NullFloat64
		if err := rows.Scan(&c.Symbol, &tsUnix, &c.Open, &c.High, &c.Low, &c.Close, &volume); err != nil {
			return nil, fmt.Errorf("sqlite scan candles: %w", err)
		}
		c.TS = time.Unix(tsUnix, 0).UTC()
		c.Volume = volume.Float64
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite iterate candles: %w", err)
	}

	// newest first from the query; replay order is oldest first
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// ReadCloses builds a price matrix from the latest closes of each symbol,
// oldest first. Rows are truncated to the shortest non-empty history (at most
// length) so every row ends at its own latest candle. Symbols without
// candles are dropped and logged.
func (r *Reader) ReadCloses(ctx context.Context, symbols []string, length int) (*model.PriceBatch, error) {
	if length < 1 {
		return nil, fmt.Errorf("sqlite read closes: length must be positive, got %d", length)
	}

	histories := make([][]model.Candle, 0, len(symbols))
	kept := make([]string, 0, len(symbols))
	common := length
	var asOf time.Time

	for _, s := range symbols {
		candles, err := r.ReadCandles(ctx, s, length)
		if err != nil {
			return nil, fmt.Errorf("sqlite read closes %s: %w", s, err)
		}
		if len(candles) == 0 {
			r.log.WithField("symbol", s).Warn("no candles, symbol dropped")
			continue
		}
		if len(candles) < common {
			common = len(candles)
		}
		if last := candles[len(candles)-1].TS; last.After(asOf) {
			asOf = last
		}
		histories = append(histories, candles)
		kept = append(kept, s)
	}

	if len(kept) == 0 {
		common = 0
	}
	prices, err := model.NewMatrix(len(kept), common)
	if err != nil {
		return nil, err
	}
	for i, candles := range histories {
		row := prices.Row(i)
		tail := candles[len(candles)-common:]
		for j, c := range tail {
			row[j] = float32(c.Close)
		}
	}

	return &model.PriceBatch{Symbols: kept, Prices: prices, AsOf: asOf}, nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
