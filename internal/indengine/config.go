package indengine

import (
	"fmt"
	"time"

	"batch-indicators/config"
	"batch-indicators/internal/indicator"
)

// ConfigChannel is the Redis PubSub channel carrying indicator set updates,
// e.g. "RSI:14,EMA:21,BOLL:20:2".
const ConfigChannel = "config:indicators"

// Options holds the refresh loop settings of a Service.
type Options struct {
	Symbols         []string // empty = every symbol in the store
	History         int      // closes loaded per symbol
	RefreshInterval time.Duration
	Indicators      []indicator.IndicatorConfig
}

// NewOptions derives service options from the application config. An empty
// indicator list selects indicator.DefaultConfigs.
func NewOptions(cfg *config.Config) (Options, error) {
	inds, err := indicator.ParseConfigs(cfg.Indicators)
	if err != nil {
		return Options{}, fmt.Errorf("indicators %q: %w", cfg.Indicators, err)
	}
	return Options{
		Symbols:         cfg.Symbols,
		History:         cfg.History,
		RefreshInterval: cfg.RefreshInterval,
		Indicators:      inds,
	}, nil
}

func (o *Options) defaults() {
	if o.History <= 0 {
		o.History = 200
	}
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = time.Second
	}
	if len(o.Indicators) == 0 {
		o.Indicators, _ = indicator.ParseConfigs(indicator.DefaultConfigs)
	}
}

// configNames returns the names of cfgs for logging.
func configNames(cfgs []indicator.IndicatorConfig) []string {
	names := make([]string, len(cfgs))
	for i, c := range cfgs {
		names[i] = c.Name()
	}
	return names
}
