package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batch-indicators/internal/indicator"
	"batch-indicators/internal/model"
)

var asOf = time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)

func expectResult(mock redismock.ClientMock, r model.IndicatorResult, ttl time.Duration) {
	data := r.JSON()
	mock.ExpectSet(r.LatestKey(), data, ttl).SetVal("OK")
	mock.ExpectPublish(r.PubSubChannel(), data).SetVal(1)
}

func TestPublisher_PublishResults(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewPublisher(db, PublisherConfig{LatestTTL: time.Minute})

	results := []model.IndicatorResult{
		model.NewIndicatorResult("RSI_14", "AAA", 55.5, asOf),
		model.NewIndicatorResult("RSI_14", "BBB", model.NotAvailable, asOf),
	}
	for _, r := range results {
		expectResult(mock, r, time.Minute)
	}

	n, err := p.PublishResults(context.Background(), results)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, p.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisher_EmptyIsNoop(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewPublisher(db, PublisherConfig{})

	n, err := p.PublishResults(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisher_FailureKeepsResults(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewPublisher(db, PublisherConfig{LatestTTL: time.Minute})

	first := model.NewIndicatorResult("EMA_10", "AAA", 101, asOf)
	mock.ExpectSet(first.LatestKey(), first.JSON(), time.Minute).SetErr(goredis.TxFailedErr)

	n, err := p.PublishResults(context.Background(), []model.IndicatorResult{first})
	require.Error(t, err)
	assert.ErrorIs(t, err, goredis.TxFailedErr)
	assert.Zero(t, n)
	assert.Equal(t, 1, p.Pending())

	// the pending result goes out ahead of the new one
	other := model.NewIndicatorResult("EMA_10", "BBB", 7, asOf)
	expectResult(mock, first, time.Minute)
	expectResult(mock, other, time.Minute)

	n, err = p.PublishResults(context.Background(), []model.IndicatorResult{other})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, p.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisher_FreshResultReplacesPending(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewPublisher(db, PublisherConfig{LatestTTL: time.Minute})

	stale := model.NewIndicatorResult("EMA_10", "AAA", 101, asOf)
	mock.ExpectSet(stale.LatestKey(), stale.JSON(), time.Minute).SetErr(goredis.TxFailedErr)
	_, err := p.PublishResults(context.Background(), []model.IndicatorResult{stale})
	require.Error(t, err)

	fresh := model.NewIndicatorResult("EMA_10", "AAA", 102, asOf.Add(time.Minute))
	expectResult(mock, fresh, time.Minute)

	n, err := p.PublishResults(context.Background(), []model.IndicatorResult{fresh})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisher_CircuitOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewPublisher(db, PublisherConfig{LatestTTL: time.Minute, MaxFailures: 1, ResetTimeout: time.Hour})

	r := model.NewIndicatorResult("RSI_14", "AAA", 40, asOf)
	mock.ExpectSet(r.LatestKey(), r.JSON(), time.Minute).SetErr(goredis.TxFailedErr)

	_, err := p.PublishResults(context.Background(), []model.IndicatorResult{r})
	require.Error(t, err)
	assert.Equal(t, StateOpen, p.Breaker().CurrentState())

	// rejected without touching redis
	_, err = p.PublishResults(context.Background(), []model.IndicatorResult{r})
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, 1, p.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisher_Publish(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewPublisher(db, PublisherConfig{LatestTTL: time.Minute})

	prices, err := model.FromRows([][]float32{{1, 2, 3}})
	require.NoError(t, err)
	values, err := model.FromRows([][]float32{{1, 1.5, 2.25}})
	require.NoError(t, err)

	batch := &model.PriceBatch{Symbols: []string{"AAA"}, Prices: prices, AsOf: asOf}
	outputs := []indicator.Output{{Name: "EMA_3", Values: values}}

	expectResult(mock, model.NewIndicatorResult("EMA_3", "AAA", 2.25, asOf), time.Minute)

	n, err := p.Publish(context.Background(), batch, outputs)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingResults_Bounded(t *testing.T) {
	pr := newPendingResults(2)

	dropped := pr.Put([]model.IndicatorResult{
		model.NewIndicatorResult("X", "A", 1, asOf),
		model.NewIndicatorResult("X", "B", 2, asOf),
		model.NewIndicatorResult("X", "C", 3, asOf),
	})
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 2, pr.Len())

	out := pr.Drain(nil)
	require.Len(t, out, 2)
	assert.Equal(t, "B", out[0].Symbol)
	assert.Equal(t, "C", out[1].Symbol)
	assert.Equal(t, 0, pr.Len())
}

func TestPendingResults_KeepsNewest(t *testing.T) {
	pr := newPendingResults(10)

	newer := model.NewIndicatorResult("X", "A", 2, asOf.Add(time.Minute))
	older := model.NewIndicatorResult("X", "A", 1, asOf)
	pr.Put([]model.IndicatorResult{newer})
	pr.Put([]model.IndicatorResult{older})

	out := pr.Drain(nil)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Value)
	assert.Equal(t, 2.0, *out[0].Value)
}

func TestPublisher_ImplementsResultPublisher(t *testing.T) {
	var _ model.ResultPublisher = (*Publisher)(nil)
}
