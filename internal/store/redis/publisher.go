package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"batch-indicators/internal/indicator"
	"batch-indicators/internal/model"
)

const (
	defaultLatestTTL    = 30 * time.Minute
	defaultMaxFailures  = 5
	defaultResetTimeout = 10 * time.Second
	defaultMaxPending   = 10000
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int

	LatestTTL    time.Duration // expiry of ind:*:latest:* keys
	MaxFailures  int           // consecutive failures before the breaker opens
	ResetTimeout time.Duration // breaker open time before a probe
	MaxPending   int           // results kept while Redis is unavailable
}

func (c *PublisherConfig) defaults() {
	if c.LatestTTL <= 0 {
		c.LatestTTL = defaultLatestTTL
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = defaultMaxFailures
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = defaultResetTimeout
	}
	if c.MaxPending <= 0 {
		c.MaxPending = defaultMaxPending
	}
}

// Publisher writes the latest indicator values to Redis. Every publish is a
// single pipeline of SET ind:{name}:latest:{symbol} and
// PUBLISH pub:ind:{name}:{symbol} run through a circuit breaker. Results
// that could not be written are kept, newest per key, and retried with the
// next publish.
type Publisher struct {
	client  *goredis.Client
	cb      *CircuitBreaker
	ttl     time.Duration
	pending *pendingResults
	log     *log.Entry
}

// New connects to Redis, pings the server and returns a Publisher.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	p := NewPublisher(client, cfg)
	p.log.WithField("addr", cfg.Addr).Info("connected")
	return p, nil
}

// NewPublisher wraps an existing client.
func NewPublisher(client *goredis.Client, cfg PublisherConfig) *Publisher {
	cfg.defaults()
	return &Publisher{
		client:  client,
		cb:      NewCircuitBreaker(cfg.MaxFailures, cfg.ResetTimeout),
		ttl:     cfg.LatestTTL,
		pending: newPendingResults(cfg.MaxPending),
		log:     log.WithField("component", "redis"),
	}
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// Breaker returns the circuit breaker guarding the pipeline.
func (p *Publisher) Breaker() *CircuitBreaker { return p.cb }

// Pending returns the number of results waiting for a retry.
func (p *Publisher) Pending() int { return p.pending.Len() }

// Publish publishes the final column of every output for every symbol of batch.
func (p *Publisher) Publish(ctx context.Context, batch *model.PriceBatch, outputs []indicator.Output) (int, error) {
	return p.PublishResults(ctx, indicator.LatestResults(batch, outputs))
}

// PublishResults writes results together with any earlier results still
// pending, in one pipeline, and returns how many were written. On failure
// nothing is counted as written and everything is kept for the next call;
// ErrCircuitOpen is returned (wrapped) while the breaker is open.
func (p *Publisher) PublishResults(ctx context.Context, results []model.IndicatorResult) (int, error) {
	batch := p.pending.Drain(results)
	if len(batch) == 0 {
		return 0, nil
	}

	err := p.cb.Execute(func() error {
		pipe := p.client.Pipeline()
		for i := range batch {
			r := &batch[i]
			data := r.JSON()
			pipe.Set(ctx, r.LatestKey(), data, p.ttl)
			pipe.Publish(ctx, r.PubSubChannel(), data)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		dropped := p.pending.Put(batch)
		p.log.WithError(err).WithFields(log.Fields{
			"results": len(batch),
			"pending": p.pending.Len(),
			"dropped": dropped,
			"breaker": p.cb.CurrentState().String(),
		}).Warn("publish failed, results kept for retry")
		return 0, fmt.Errorf("redis publish %d results: %w", len(batch), err)
	}
	return len(batch), nil
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
