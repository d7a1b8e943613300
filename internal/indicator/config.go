package indicator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"batch-indicators/internal/model"
)

// Indicator types accepted by ParseConfigs.
const (
	TypeEMA       = "EMA"
	TypeRSI       = "RSI"
	TypeBollinger = "BOLL"
	TypeMACD      = "MACD"
)

// DefaultConfigs is used when no indicators are configured.
const DefaultConfigs = "RSI:14,BOLL:20:2,MACD:12:26:9"

// IndicatorConfig specifies a single indicator to compute.
//
//	EMA:  Period
//	RSI:  Period
//	BOLL: Period, Mult
//	MACD: Period (fast), Slow, Signal
type IndicatorConfig struct {
	Type   string
	Period int
	Slow   int
	Signal int
	Mult   float64
}

// Name returns the output name prefix, e.g. "RSI_14" or "BOLL_20_2".
func (c IndicatorConfig) Name() string {
	switch c.Type {
	case TypeBollinger:
		return c.Type + "_" + strconv.Itoa(c.Period) + "_" + strconv.FormatFloat(c.Mult, 'f', -1, 64)
	case TypeMACD:
		return c.Type + "_" + strconv.Itoa(c.Period) + "_" + strconv.Itoa(c.Slow) + "_" + strconv.Itoa(c.Signal)
	default:
		return c.Type + "_" + strconv.Itoa(c.Period)
	}
}

// ParseConfigs parses "TYPE:ARG[:ARG...],..." into configs, e.g.
// "RSI:14,EMA:9,BOLL:20:2,MACD:12:26:9". Omitted trailing arguments take
// the conventional defaults (RSI 14, BOLL 20:2, MACD 12:26:9); EMA needs its
// period. An empty string yields DefaultConfigs.
func ParseConfigs(s string) ([]IndicatorConfig, error) {
	if strings.TrimSpace(s) == "" {
		s = DefaultConfigs
	}

	var configs []IndicatorConfig
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cfg, err := parseConfig(part)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("%w: no indicators in %q", ErrInvalidArgument, s)
	}
	return configs, nil
}

func parseConfig(part string) (IndicatorConfig, error) {
	tokens := strings.Split(part, ":")
	typ := strings.ToUpper(strings.TrimSpace(tokens[0]))
	args := tokens[1:]

	cfg := IndicatorConfig{Type: typ}
	var err error
	switch typ {
	case TypeEMA:
		if len(args) != 1 {
			return cfg, fmt.Errorf("%w: %q wants EMA:PERIOD", ErrInvalidArgument, part)
		}
		cfg.Period, err = parsePeriod(part, args[0])
	case TypeRSI:
		if len(args) > 1 {
			return cfg, fmt.Errorf("%w: %q wants RSI[:PERIOD]", ErrInvalidArgument, part)
		}
		cfg.Period = 14
		if len(args) == 1 {
			cfg.Period, err = parsePeriod(part, args[0])
		}
	case TypeBollinger:
		if len(args) > 2 {
			return cfg, fmt.Errorf("%w: %q wants BOLL[:PERIOD[:MULT]]", ErrInvalidArgument, part)
		}
		cfg.Period, cfg.Mult = 20, 2
		if len(args) >= 1 {
			cfg.Period, err = parsePeriod(part, args[0])
		}
		if err == nil && len(args) == 2 {
			cfg.Mult, err = strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
			if err != nil {
				err = fmt.Errorf("%w: %q: bad multiplier", ErrInvalidArgument, part)
			} else if math.IsNaN(cfg.Mult) || math.IsInf(cfg.Mult, 0) {
				err = fmt.Errorf("%w: %q: multiplier must be finite", ErrInvalidArgument, part)
			}
		}
	case TypeMACD:
		if len(args) != 0 && len(args) != 3 {
			return cfg, fmt.Errorf("%w: %q wants MACD[:FAST:SLOW:SIGNAL]", ErrInvalidArgument, part)
		}
		cfg.Period, cfg.Slow, cfg.Signal = 12, 26, 9
		if len(args) == 3 {
			if cfg.Period, err = parsePeriod(part, args[0]); err != nil {
				break
			}
			if cfg.Slow, err = parsePeriod(part, args[1]); err != nil {
				break
			}
			cfg.Signal, err = parsePeriod(part, args[2])
		}
	default:
		return cfg, fmt.Errorf("%w: unknown indicator type %q", ErrInvalidArgument, typ)
	}
	return cfg, err
}

func parsePeriod(part, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q: bad period %q", ErrInvalidArgument, part, s)
	}
	return n, nil
}

// Output is one named indicator matrix.
type Output struct {
	Name   string
	Values *model.Matrix
}

// Compute runs every config over prices. BOLL and MACD expand into three
// outputs each, suffixed _upper/_middle/_lower and _line/_signal/_hist.
func (e *Engine) Compute(prices *model.Matrix, configs []IndicatorConfig) ([]Output, error) {
	outputs := make([]Output, 0, len(configs))
	for _, c := range configs {
		name := c.Name()
		switch c.Type {
		case TypeEMA:
			m, err := e.EMA(prices, c.Period)
			if err != nil {
				return nil, fmt.Errorf("compute %s: %w", name, err)
			}
			outputs = append(outputs, Output{Name: name, Values: m})
		case TypeRSI:
			m, err := e.RSI(prices, c.Period)
			if err != nil {
				return nil, fmt.Errorf("compute %s: %w", name, err)
			}
			outputs = append(outputs, Output{Name: name, Values: m})
		case TypeBollinger:
			b, err := e.Bollinger(prices, c.Period, c.Mult)
			if err != nil {
				return nil, fmt.Errorf("compute %s: %w", name, err)
			}
			outputs = append(outputs,
				Output{Name: name + "_upper", Values: b.Upper},
				Output{Name: name + "_middle", Values: b.Middle},
				Output{Name: name + "_lower", Values: b.Lower},
			)
		case TypeMACD:
			m, err := e.MACD(prices, c.Period, c.Slow, c.Signal)
			if err != nil {
				return nil, fmt.Errorf("compute %s: %w", name, err)
			}
			outputs = append(outputs,
				Output{Name: name + "_line", Values: m.Line},
				Output{Name: name + "_signal", Values: m.Signal},
				Output{Name: name + "_hist", Values: m.Histogram},
			)
		default:
			return nil, fmt.Errorf("compute: %w: unknown indicator type %q", ErrInvalidArgument, c.Type)
		}
	}
	return outputs, nil
}
