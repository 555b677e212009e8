package pnl

import (
	"testing"
	"time"

	"papertrade/types"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func fill(symbol, qty, price, fee string, ms int64) types.Fill {
	return types.Fill{
		Symbol:    symbol,
		Qty:       d(qty),
		Price:     d(price),
		Fee:       d(fee),
		Timestamp: time.UnixMilli(ms),
	}
}

func TestComputeRealizedFromFills(t *testing.T) {
	tests := []struct {
		name         string
		fills        []types.Fill
		wantRealized string
		wantDetails  int
	}{
		{
			name: "simple buy then partial sell",
			fills: []types.Fill{
				fill("BTCUSD", "10", "100", "0", 1),
				fill("BTCUSD", "-5", "110", "1", 2),
			},
			wantRealized: "49",
			wantDetails:  1,
		},
		{
			name: "fifo order across two lots",
			fills: []types.Fill{
				fill("BTCUSD", "10", "100", "0", 1),
				fill("BTCUSD", "10", "120", "0", 2),
				fill("BTCUSD", "-15", "130", "2", 3),
			},
			// 10*(130-100) + 5*(130-120) = 350, minus the 2 fee = 348
			wantRealized: "348",
			wantDetails:  2,
		},
		{
			name: "oversell beyond lots is pure proceeds",
			fills: []types.Fill{
				fill("BTCUSD", "5", "100", "0", 1),
				fill("BTCUSD", "-8", "110", "0", 2),
			},
			// 5*(110-100) + 3*110 with zero cost basis
			wantRealized: "380",
			wantDetails:  2,
		},
		{
			name: "sell with no lots at all",
			fills: []types.Fill{
				fill("BTCUSD", "-4", "50", "1", 1),
			},
			wantRealized: "199",
			wantDetails:  1,
		},
		{
			name: "zero qty fills are skipped",
			fills: []types.Fill{
				fill("BTCUSD", "0", "100", "0", 1),
				fill("BTCUSD", "10", "100", "0", 2),
				fill("BTCUSD", "0", "130", "0", 3),
			},
			wantRealized: "0",
			wantDetails:  0,
		},
		{
			name:         "no fills",
			fills:        nil,
			wantRealized: "0",
			wantDetails:  0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeRealizedFromFills(tc.fills)
			if !got.Realized.Equal(d(tc.wantRealized)) {
				t.Errorf("realized = %s, want %s", got.Realized, tc.wantRealized)
			}
			if len(got.Details) != tc.wantDetails {
				t.Errorf("details len = %d, want %d", len(got.Details), tc.wantDetails)
			}
		})
	}
}

func TestComputeRealizedFeeAllocation(t *testing.T) {
	fills := []types.Fill{
		fill("BTCUSD", "10", "100", "0", 1),
		fill("BTCUSD", "10", "120", "0", 2),
		fill("BTCUSD", "-15", "130", "2", 3),
	}

	res := ComputeRealizedFromFills(fills)
	if len(res.Details) != 2 {
		t.Fatalf("details len = %d, want 2", len(res.Details))
	}

	// Fee split proportionally to matched quantity: 2*(10/15) and 2*(5/15).
	feeSum := res.Details[0].FeeAlloc.Add(res.Details[1].FeeAlloc)
	if !feeSum.Equal(d("2")) {
		t.Errorf("fee allocations sum = %s, want 2", feeSum)
	}
	if !res.Details[0].FeeAlloc.GreaterThan(res.Details[1].FeeAlloc) {
		t.Errorf("larger match should carry the larger fee share")
	}
	if res.String() != "348.0000000000" {
		t.Errorf("String() = %s, want 348.0000000000", res.String())
	}
}

func TestComputeRealizedBySymbol(t *testing.T) {
	fills := []types.Fill{
		fill("BTCUSD", "10", "100", "0", 1),
		fill("ETHUSD", "5", "20", "0", 2),
		fill("BTCUSD", "-10", "110", "0", 3),
		fill("ETHUSD", "-5", "30", "0", 4),
	}

	got := ComputeRealizedBySymbol(fills)
	if len(got) != 2 {
		t.Fatalf("symbols = %d, want 2", len(got))
	}
	if !got["BTCUSD"].Realized.Equal(d("100")) {
		t.Errorf("BTCUSD realized = %s, want 100", got["BTCUSD"].Realized)
	}
	if !got["ETHUSD"].Realized.Equal(d("50")) {
		t.Errorf("ETHUSD realized = %s, want 50", got["ETHUSD"].Realized)
	}
}
