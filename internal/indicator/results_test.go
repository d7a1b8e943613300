package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batch-indicators/internal/model"
)

func TestLatestResults(t *testing.T) {
	asOf := time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)
	prices := mustRows(t, []float32{1, 2, 3}, []float32{4, 5, 6})
	batch := &model.PriceBatch{Symbols: []string{"AAA", "BBB"}, Prices: prices, AsOf: asOf}

	e := newTestEngine(t)
	outs, err := e.Compute(prices, mustParse(t, "EMA:1,RSI:5"))
	require.NoError(t, err)

	results := LatestResults(batch, outs)
	require.Len(t, results, 4)

	assert.Equal(t, "EMA_1", results[0].Name)
	assert.Equal(t, "AAA", results[0].Symbol)
	require.NotNil(t, results[0].Value)
	assert.Equal(t, 3.0, *results[0].Value)
	assert.True(t, results[0].Ready)
	assert.Equal(t, asOf, results[0].TS)

	assert.Equal(t, "BBB", results[1].Symbol)
	assert.Equal(t, 6.0, *results[1].Value)

	// RSI(5) needs six columns
	assert.Equal(t, "RSI_5", results[2].Name)
	assert.Nil(t, results[2].Value)
	assert.False(t, results[2].Ready)
}
