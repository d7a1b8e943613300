package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIndicatorResult(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	ready := NewIndicatorResult("RSI_14", "BTCUSDT", 55.5, ts)
	require.NotNil(t, ready.Value)
	assert.True(t, ready.Ready)
	assert.InDelta(t, 55.5, *ready.Value, 1e-6)

	warming := NewIndicatorResult("RSI_14", "BTCUSDT", NotAvailable, ts)
	assert.Nil(t, warming.Value)
	assert.False(t, warming.Ready)
}

func TestIndicatorResult_Keys(t *testing.T) {
	r := NewIndicatorResult("BOLL_20_2_upper", "ETHUSDT", 1, time.Time{})
	assert.Equal(t, "ind:BOLL_20_2_upper:latest:ETHUSDT", r.LatestKey())
	assert.Equal(t, "pub:ind:BOLL_20_2_upper:ETHUSDT", r.PubSubChannel())
}

func TestIndicatorResult_JSONEncodesSentinelAsNull(t *testing.T) {
	r := NewIndicatorResult("RSI_14", "X", NotAvailable, time.Time{})

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(r.JSON(), &decoded))
	v, ok := decoded["value"]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, false, decoded["ready"])
}
