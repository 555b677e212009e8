// Package marketdata is the boundary between the replay engine and wherever
// price data actually lives. A Feed reads ordered ticks out of a store,
// synthesizing them from candles when no ticks exist, and fans every ingested
// tick out on an event bus for external consumers.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"

	"papertrade/types"
)

var ErrDataUnavailable = errors.New("no market data available")

// TickTopic is the bus topic ticks are published on.
const TickTopic = "marketdata:tick"

type TickStore interface {
	GetTicks(ctx context.Context, symbol string, from, to *time.Time) ([]types.Tick, error)
}

type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, interval types.Interval, from, to time.Time) ([]types.Candle, error)
}

type Feed struct {
	ticks            TickStore
	candles          CandleStore
	fallbackInterval types.Interval
	bus              EventBus.Bus
}

func NewFeed(ticks TickStore, candles CandleStore) *Feed {
	return &Feed{
		ticks:            ticks,
		candles:          candles,
		fallbackInterval: types.OneMinute,
		bus:              EventBus.New(),
	}
}

// GetTicks returns the ordered tick sequence for a symbol within [from, to).
// When the tick store has nothing for the range it falls back to synthesizing
// one tick per stored candle close, so a replay can still run over symbols
// that were never tick-recorded.
func (f *Feed) GetTicks(ctx context.Context, symbol string, from, to *time.Time) ([]types.Tick, error) {
	ticks, err := f.ticks.GetTicks(ctx, symbol, from, to)
	if err != nil && !errors.Is(err, ErrDataUnavailable) {
		return nil, fmt.Errorf("get ticks %s: %w", symbol, err)
	}
	if len(ticks) > 0 {
		return ticks, nil
	}

	if f.candles == nil {
		return nil, ErrDataUnavailable
	}
	log.WithField("symbol", symbol).Info("no persisted ticks, synthesizing from candles")
	return f.synthesize(ctx, symbol, from, to)
}

// IngestTick publishes a tick on the bus so downstream consumers (dashboards,
// recorders) see the replayed stream as it plays.
func (f *Feed) IngestTick(tick types.Tick) {
	f.bus.Publish(TickTopic, tick)
}

// Subscribe registers a callback for every ingested tick.
func (f *Feed) Subscribe(fn func(types.Tick)) error {
	return f.bus.Subscribe(TickTopic, fn)
}

// Unsubscribe removes a previously registered callback.
func (f *Feed) Unsubscribe(fn func(types.Tick)) error {
	return f.bus.Unsubscribe(TickTopic, fn)
}

func (f *Feed) synthesize(ctx context.Context, symbol string, from, to *time.Time) ([]types.Tick, error) {
	start := time.UnixMilli(0)
	if from != nil {
		start = *from
	}
	end := time.Now().UTC()
	if to != nil {
		end = *to
	}

	candles, err := f.candles.GetCandles(ctx, symbol, f.fallbackInterval, start, end)
	if err != nil {
		return nil, fmt.Errorf("synthesize ticks %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		return nil, ErrDataUnavailable
	}

	ticks := make([]types.Tick, 0, len(candles))
	for _, c := range candles {
		ticks = append(ticks, types.Tick{
			Symbol:    symbol,
			Price:     c.Close,
			Timestamp: c.Timestamp,
		})
	}
	return ticks, nil
}
