package indengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"batch-indicators/internal/indicator"
	"batch-indicators/internal/metrics"
	"batch-indicators/internal/model"
	"batch-indicators/internal/notification"
	redisstore "batch-indicators/internal/store/redis"
)

// Source supplies price history for the refresh loop.
type Source interface {
	model.MatrixSource

	// Symbols lists every symbol with stored history.
	Symbols(ctx context.Context) ([]string, error)
}

// Service periodically loads the latest closes of every symbol, computes the
// configured indicators in one batch and publishes the final column.
type Service struct {
	opts      Options
	engine    *indicator.Engine
	source    Source
	publisher model.ResultPublisher
	prom      *metrics.Metrics
	health    *metrics.HealthStatus
	log       *log.Entry

	mu         sync.RWMutex
	indicators []indicator.IndicatorConfig
}

// New creates a Service. prom and health may be nil.
func New(opts Options, engine *indicator.Engine, source Source, publisher model.ResultPublisher,
	prom *metrics.Metrics, health *metrics.HealthStatus) *Service {
	opts.defaults()
	return &Service{
		opts:       opts,
		engine:     engine,
		source:     source,
		publisher:  publisher,
		prom:       prom,
		health:     health,
		log:        log.WithField("component", "indengine"),
		indicators: opts.Indicators,
	}
}

// Run refreshes once immediately and then every RefreshInterval until ctx
// is cancelled. Refresh errors are logged and never stop the loop.
func (s *Service) Run(ctx context.Context) error {
	s.log.WithFields(log.Fields{
		"interval":   s.opts.RefreshInterval.String(),
		"history":    s.opts.History,
		"indicators": configNames(s.Indicators()),
		"device":     s.engine.Device().Info().Name,
	}).Info("refresh loop started")

	s.refreshAndRecord(ctx)

	ticker := time.NewTicker(s.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("refresh loop stopped")
			return nil
		case <-ticker.C:
			s.refreshAndRecord(ctx)
		}
	}
}

func (s *Service) refreshAndRecord(ctx context.Context) {
	start := time.Now()
	n, err := s.Refresh(ctx)
	elapsed := time.Since(start)

	s.prom.ObserveRefresh(elapsed, n, err)
	if err != nil && ctx.Err() == nil {
		s.log.WithError(err).Warn("refresh failed")
		return
	}
	s.log.WithFields(log.Fields{
		"published":  n,
		"elapsed_ms": float64(elapsed.Microseconds()) / 1000.0,
	}).Debug("refresh done")
}

// Refresh runs one load, compute and publish cycle and returns the number of
// results published.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	symbols := s.opts.Symbols
	if len(symbols) == 0 {
		var err error
		symbols, err = s.source.Symbols(ctx)
		if err != nil {
			s.setHealth(0, 0, err)
			return 0, fmt.Errorf("list symbols: %w", err)
		}
		if len(symbols) == 0 {
			s.setHealth(0, 0, nil)
			return 0, nil
		}
	}

	batch, err := s.source.ReadCloses(ctx, symbols, s.opts.History)
	if err != nil {
		s.setHealth(0, 0, err)
		return 0, fmt.Errorf("load closes: %w", err)
	}
	rows, cols := batch.Prices.Shape()
	if rows == 0 || cols == 0 {
		s.setHealth(rows, cols, nil)
		return 0, nil
	}

	outputs, err := s.engine.Compute(batch.Prices, s.Indicators())
	if err != nil {
		s.setHealth(rows, cols, err)
		return 0, fmt.Errorf("compute: %w", err)
	}
	s.setHealth(rows, cols, nil)

	n, err := s.publisher.PublishResults(ctx, indicator.LatestResults(batch, outputs))
	if err != nil {
		return n, fmt.Errorf("publish: %w", err)
	}
	return n, nil
}

func (s *Service) setHealth(rows, cols int, err error) {
	if s.health != nil {
		s.health.SetRefresh(rows, cols, err)
	}
}

// Indicators returns the active indicator set.
func (s *Service) Indicators() []indicator.IndicatorConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]indicator.IndicatorConfig, len(s.indicators))
	copy(out, s.indicators)
	return out
}

// Reload parses list and replaces the active indicator set. The set is left
// unchanged on error. An empty list restores the defaults.
func (s *Service) Reload(list string) ([]indicator.IndicatorConfig, error) {
	cfgs, err := indicator.ParseConfigs(list)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.indicators = cfgs
	s.mu.Unlock()

	s.log.WithField("indicators", configNames(cfgs)).Info("indicator set reloaded")
	return cfgs, nil
}

// WatchConfig applies every indicator list received on updates until ctx is
// cancelled or updates is closed.
func (s *Service) WatchConfig(ctx context.Context, updates <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case list, ok := <-updates:
			if !ok {
				return
			}
			if _, err := s.Reload(list); err != nil {
				s.log.WithError(err).WithField("list", list).Warn("ignoring invalid indicator update")
			}
		}
	}
}

// Close releases the source and the publisher and drops cached device
// memory.
func (s *Service) Close() error {
	s.engine.ClearMemory()
	return multierr.Combine(
		s.source.Close(),
		s.publisher.Close(),
	)
}

// ObserveBreaker exports the state of cb to prom on every transition and
// alerts through n when the breaker opens or recovers. n may be nil.
func ObserveBreaker(cb *redisstore.CircuitBreaker, prom *metrics.Metrics, n notification.Notifier) {
	cb.OnStateChange = func(from, to redisstore.State) {
		prom.ObserveBreaker(int(to))
		log.WithFields(log.Fields{
			"component": "redis",
			"from":      from.String(),
			"to":        to.String(),
		}).Warn("circuit breaker state changed")

		if n == nil {
			return
		}
		var alert notification.Alert
		switch {
		case to == redisstore.StateOpen && from == redisstore.StateClosed:
			alert = notification.Alert{
				Level:   notification.AlertCritical,
				Title:   "indicator publishing stopped",
				Message: "Redis circuit breaker opened, results are buffered until Redis recovers",
			}
		case to == redisstore.StateClosed:
			alert = notification.Alert{
				Level:   notification.AlertInfo,
				Title:   "indicator publishing recovered",
				Message: "Redis circuit breaker closed after " + from.String(),
			}
		default:
			return
		}
		// called under the breaker lock
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := n.Send(ctx, alert); err != nil {
				log.WithError(err).WithField("component", "notify").Warn("alert delivery failed")
			}
		}()
	}
}
