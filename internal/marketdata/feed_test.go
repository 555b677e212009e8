package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/types"
)

type stubTickStore struct {
	ticks []types.Tick
	err   error
}

func (s *stubTickStore) GetTicks(ctx context.Context, symbol string, from, to *time.Time) ([]types.Tick, error) {
	return s.ticks, s.err
}

type stubCandleStore struct {
	candles []types.Candle
	err     error
}

func (s *stubCandleStore) GetCandles(ctx context.Context, symbol string, interval types.Interval, from, to time.Time) ([]types.Candle, error) {
	return s.candles, s.err
}

func TestGetTicksPrefersStoredTicks(t *testing.T) {
	stored := []types.Tick{
		{Symbol: "BTCUSD", Price: decimal.NewFromInt(100), Timestamp: time.Unix(1, 0)},
		{Symbol: "BTCUSD", Price: decimal.NewFromInt(101), Timestamp: time.Unix(2, 0)},
	}
	feed := NewFeed(&stubTickStore{ticks: stored}, &stubCandleStore{})

	ticks, err := feed.GetTicks(context.Background(), "BTCUSD", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, stored, ticks)
}

func TestGetTicksSynthesizesFromCandles(t *testing.T) {
	candles := []types.Candle{
		{Symbol: "BTCUSD", Close: decimal.NewFromInt(100), Timestamp: time.Unix(60, 0)},
		{Symbol: "BTCUSD", Close: decimal.NewFromInt(105), Timestamp: time.Unix(120, 0)},
	}
	feed := NewFeed(&stubTickStore{}, &stubCandleStore{candles: candles})

	ticks, err := feed.GetTicks(context.Background(), "BTCUSD", nil, nil)
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	for i, tick := range ticks {
		assert.Equal(t, "BTCUSD", tick.Symbol)
		assert.True(t, tick.Price.Equal(candles[i].Close))
		assert.Equal(t, candles[i].Timestamp, tick.Timestamp)
	}
}

func TestGetTicksNoData(t *testing.T) {
	feed := NewFeed(&stubTickStore{err: ErrDataUnavailable}, &stubCandleStore{})

	_, err := feed.GetTicks(context.Background(), "BTCUSD", nil, nil)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestGetTicksStoreFailure(t *testing.T) {
	boom := errors.New("connection reset")
	feed := NewFeed(&stubTickStore{err: boom}, &stubCandleStore{})

	_, err := feed.GetTicks(context.Background(), "BTCUSD", nil, nil)
	assert.ErrorIs(t, err, boom)
}

func TestSubscribeReceivesIngestedTicks(t *testing.T) {
	feed := NewFeed(&stubTickStore{}, nil)

	var seen []types.Tick
	handler := func(tick types.Tick) { seen = append(seen, tick) }
	require.NoError(t, feed.Subscribe(handler))

	first := types.Tick{Symbol: "BTCUSD", Price: decimal.NewFromInt(100), Timestamp: time.Unix(1, 0)}
	second := types.Tick{Symbol: "BTCUSD", Price: decimal.NewFromInt(101), Timestamp: time.Unix(2, 0)}
	feed.IngestTick(first)
	feed.IngestTick(second)

	require.NoError(t, feed.Unsubscribe(handler))
	feed.IngestTick(types.Tick{Symbol: "BTCUSD", Price: decimal.NewFromInt(102)})

	assert.Equal(t, []types.Tick{first, second}, seen)
}
