package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []IndicatorConfig
	}{
		{
			name: "empty uses defaults",
			in:   "",
			want: []IndicatorConfig{
				{Type: TypeRSI, Period: 14},
				{Type: TypeBollinger, Period: 20, Mult: 2},
				{Type: TypeMACD, Period: 12, Slow: 26, Signal: 9},
			},
		},
		{
			name: "full",
			in:   "RSI:14,EMA:9,BOLL:20:2.5,MACD:5:35:5",
			want: []IndicatorConfig{
				{Type: TypeRSI, Period: 14},
				{Type: TypeEMA, Period: 9},
				{Type: TypeBollinger, Period: 20, Mult: 2.5},
				{Type: TypeMACD, Period: 5, Slow: 35, Signal: 5},
			},
		},
		{
			name: "lower case, spaces and omitted arguments",
			in:   " rsi , boll:10 , macd ,",
			want: []IndicatorConfig{
				{Type: TypeRSI, Period: 14},
				{Type: TypeBollinger, Period: 10, Mult: 2},
				{Type: TypeMACD, Period: 12, Slow: 26, Signal: 9},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigs(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseConfigs_Invalid(t *testing.T) {
	for _, in := range []string{
		"SMA:20",
		"EMA",
		"EMA:0",
		"RSI:-3",
		"RSI:abc",
		"RSI:14:2",
		"BOLL:20:x",
		"BOLL:20:2:1",
		"BOLL:20:NaN",
		"BOLL:20:Inf",
		"BOLL:20:+Inf",
		"BOLL:20:-inf",
		"MACD:12:26",
		"MACD:12:0:9",
		",,",
	} {
		_, err := ParseConfigs(in)
		assert.ErrorIs(t, err, ErrInvalidArgument, in)
	}
}

func TestIndicatorConfig_Name(t *testing.T) {
	assert.Equal(t, "RSI_14", IndicatorConfig{Type: TypeRSI, Period: 14}.Name())
	assert.Equal(t, "EMA_9", IndicatorConfig{Type: TypeEMA, Period: 9}.Name())
	assert.Equal(t, "BOLL_20_2", IndicatorConfig{Type: TypeBollinger, Period: 20, Mult: 2}.Name())
	assert.Equal(t, "BOLL_20_2.5", IndicatorConfig{Type: TypeBollinger, Period: 20, Mult: 2.5}.Name())
	assert.Equal(t, "MACD_12_26_9", IndicatorConfig{Type: TypeMACD, Period: 12, Slow: 26, Signal: 9}.Name())
}

func TestEngine_Compute(t *testing.T) {
	e := newTestEngine(t)
	prices := walk(t, 6, 50)

	outs, err := e.Compute(prices, mustParse(t, "RSI:14,EMA:9,BOLL:20:2,MACD:12:26:9"))
	require.NoError(t, err)

	names := make([]string, len(outs))
	for i, o := range outs {
		names[i] = o.Name
		assert.True(t, o.Values.SameShape(prices), o.Name)
	}
	assert.Equal(t, []string{
		"RSI_14",
		"EMA_9",
		"BOLL_20_2_upper", "BOLL_20_2_middle", "BOLL_20_2_lower",
		"MACD_12_26_9_line", "MACD_12_26_9_signal", "MACD_12_26_9_hist",
	}, names)

	rsi, err := e.RSI(prices, 14)
	require.NoError(t, err)
	assertMatrixIdentical(t, rsi, outs[0].Values)
}

func TestEngine_Compute_UnknownType(t *testing.T) {
	e := newTestEngine(t)
	prices := walk(t, 1, 10)

	_, err := e.Compute(prices, []IndicatorConfig{{Type: "VWAP", Period: 3}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.Compute(prices, []IndicatorConfig{{Type: TypeEMA, Period: 0}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
