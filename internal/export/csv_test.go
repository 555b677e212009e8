package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/pnl"
	"papertrade/types"
)

func TestWriteFillsCSV(t *testing.T) {
	fills := []types.Fill{
		{
			ID:        "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			Symbol:    "BTCUSD",
			Qty:       decimal.NewFromInt(10),
			Price:     decimal.RequireFromString("100.5"),
			Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:        "01ARZ3NDEKTSV4RRFFQ69G5FAW",
			Symbol:    "BTCUSD",
			Qty:       decimal.NewFromInt(-5),
			Price:     decimal.RequireFromString("110"),
			Timestamp: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFillsCSV(&buf, fills))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,symbol,qty,price,ts", lines[0])
	assert.Equal(t,
		"01ARZ3NDEKTSV4RRFFQ69G5FAV,BTCUSD,10.0000000000,100.5000000000,2024-03-01T12:00:00Z",
		lines[1])
	assert.Equal(t,
		"01ARZ3NDEKTSV4RRFFQ69G5FAW,BTCUSD,-5.0000000000,110.0000000000,2024-03-02T12:00:00Z",
		lines[2])
}

func TestWriteEquityCSV(t *testing.T) {
	series := []pnl.EquityPoint{
		{Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Equity: decimal.NewFromInt(10000)},
		{Timestamp: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Equity: decimal.RequireFromString("10006.5")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEquityCSV(&buf, series))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ts,equity", lines[0])
	assert.Equal(t, "2024-03-01T00:00:00Z,10000.0000000000", lines[1])
	assert.Equal(t, "2024-03-02T00:00:00Z,10006.5000000000", lines[2])
}

func TestWriteFillsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFillsCSV(&buf, nil))
	assert.Equal(t, "id,symbol,qty,price,ts\n", buf.String())
}
