package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"batch-indicators/internal/model"
)

// Reader reads the latest indicator values written by a Publisher.
type Reader struct {
	client *goredis.Client
	log    *log.Entry
}

// NewReader connects to Redis and pings the server.
func NewReader(cfg PublisherConfig) (*Reader, error) {
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
	return NewReaderWithClient(client), nil
}

// NewReaderWithClient wraps an existing client.
func NewReaderWithClient(client *goredis.Client) *Reader {
	return &Reader{client: client, log: log.WithField("component", "redis-reader")}
}

// Latest returns the latest result of indicator output name for symbol, or
// nil if none is stored.
func (r *Reader) Latest(ctx context.Context, name, symbol string) (*model.IndicatorResult, error) {
	key := (&model.IndicatorResult{Name: name, Symbol: symbol}).LatestKey()
	data, err := r.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", key, err)
	}

	var res model.IndicatorResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("redis decode %s: %w", key, err)
	}
	return &res, nil
}

// LatestMany returns the latest result of output name for each symbol with
// one MGET. Missing or undecodable entries are nil.
func (r *Reader) LatestMany(ctx context.Context, name string, symbols []string) ([]*model.IndicatorResult, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	keys := make([]string, len(symbols))
	for i, s := range symbols {
		keys[i] = (&model.IndicatorResult{Name: name, Symbol: s}).LatestKey()
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis MGET %s: %w", name, err)
	}

	out := make([]*model.IndicatorResult, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var res model.IndicatorResult
		if err := json.Unmarshal([]byte(s), &res); err != nil {
			r.log.WithError(err).WithField("key", keys[i]).Warn("skipping undecodable value")
			continue
		}
		out[i] = &res
	}
	return out, nil
}

// Subscribe forwards every result published on pub:ind:{pattern} to out
// until ctx is cancelled. pattern is a Redis glob such as "RSI_14:*".
func (r *Reader) Subscribe(ctx context.Context, pattern string, out chan<- model.IndicatorResult) error {
	channel := "pub:ind:" + strings.TrimPrefix(pattern, "pub:ind:")
	ps := r.client.PSubscribe(ctx, channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("redis PSUBSCRIBE %s: %w", channel, err)
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var res model.IndicatorResult
			if err := json.Unmarshal([]byte(msg.Payload), &res); err != nil {
				r.log.WithError(err).WithField("channel", msg.Channel).Warn("skipping undecodable message")
				continue
			}
			select {
			case out <- res:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// SubscribeChannel forwards every message payload published on channel to
// out until ctx is cancelled.
func (r *Reader) SubscribeChannel(ctx context.Context, channel string, out chan<- string) error {
	ps := r.client.Subscribe(ctx, channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("redis SUBSCRIBE %s: %w", channel, err)
	}
	r.log.WithField("channel", channel).Info("subscribed")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Close closes the Redis client.
func (r *Reader) Close() error {
	return r.client.Close()
}
