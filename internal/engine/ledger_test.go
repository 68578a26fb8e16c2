package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"backsim/types"
)

func fill(id int64, side types.Side, price, qty, commission string, bar int) types.Fill {
	return types.NewFill(
		id,
		side,
		dec(price),
		dec(qty),
		dec(commission),
		decimal.Zero,
		bar,
		time.UnixMilli(int64(bar)*60000),
	)
}

func TestLedgerApply(t *testing.T) {
	tests := []struct {
		name         string
		fills        []types.Fill
		wantCash     string
		wantQty      string
		wantAvgCost  string
		wantRealized string
		wantTrades   int
	}{
		{
			name:         "open long",
			fills:        []types.Fill{fill(1, types.SideBuy, "100", "10", "1", 0)},
			wantCash:     "8999", // 10000 - 1000 - 1
			wantQty:      "10",
			wantAvgCost:  "100",
			wantRealized: "0",
			wantTrades:   0,
		},
		{
			name: "scale in averages cost",
			fills: []types.Fill{
				fill(1, types.SideBuy, "100", "10", "0", 0),
				fill(2, types.SideBuy, "110", "10", "0", 1),
			},
			wantCash:     "7900",
			wantQty:      "20",
			wantAvgCost:  "105",
			wantRealized: "0",
			wantTrades:   0,
		},
		{
			name: "partial reduction realizes at average cost",
			fills: []types.Fill{
				fill(1, types.SideBuy, "100", "10", "0", 0),
				fill(2, types.SideSell, "120", "4", "0", 1),
			},
			wantCash:     "9480", // 10000 - 1000 + 480
			wantQty:      "6",
			wantAvgCost:  "100",
			wantRealized: "80", // (120 - 100) * 4
			wantTrades:   0,
		},
		{
			name: "full close books a trade",
			fills: []types.Fill{
				fill(1, types.SideBuy, "100", "10", "1", 0),
				fill(2, types.SideSell, "110", "10", "1.1", 3),
			},
			wantCash:     "10097.9", // 10000 - 1000 - 1 + 1100 - 1.1
			wantQty:      "0",
			wantAvgCost:  "0",
			wantRealized: "100",
			wantTrades:   1,
		},
		{
			name: "short round trip",
			fills: []types.Fill{
				fill(1, types.SideSell, "100", "10", "0", 0),
				fill(2, types.SideBuy, "90", "10", "0", 2),
			},
			wantCash:     "10100",
			wantQty:      "0",
			wantAvgCost:  "0",
			wantRealized: "100", // (100 - 90) * 10
			wantTrades:   1,
		},
		{
			name: "flip long to short",
			fills: []types.Fill{
				fill(1, types.SideBuy, "100", "10", "0", 0),
				fill(2, types.SideSell, "110", "15", "0", 1),
			},
			wantCash:     "10650", // 10000 - 1000 + 1650
			wantQty:      "-5",
			wantAvgCost:  "110",
			wantRealized: "100",
			wantTrades:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger("AAPL", dec("10000"))
			for _, f := range tt.fills {
				l.apply(f)
			}
			if !l.cash.Equal(dec(tt.wantCash)) {
				t.Errorf("cash = %s, want %s", l.cash, tt.wantCash)
			}
			if !l.quantity.Equal(dec(tt.wantQty)) {
				t.Errorf("quantity = %s, want %s", l.quantity, tt.wantQty)
			}
			if !l.avgCost.Equal(dec(tt.wantAvgCost)) {
				t.Errorf("avgCost = %s, want %s", l.avgCost, tt.wantAvgCost)
			}
			if !l.grossRealized.Equal(dec(tt.wantRealized)) {
				t.Errorf("grossRealized = %s, want %s", l.grossRealized, tt.wantRealized)
			}
			if len(l.trades) != tt.wantTrades {
				t.Errorf("trades = %d, want %d", len(l.trades), tt.wantTrades)
			}
		})
	}
}

func TestLedgerClosedTrade(t *testing.T) {
	l := newLedger("AAPL", dec("10000"))
	l.apply(fill(1, types.SideBuy, "100", "10", "1", 2))
	l.apply(fill(2, types.SideSell, "112", "10", "1.12", 7))

	if len(l.trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(l.trades))
	}
	trade := l.trades[0]
	if trade.Side != types.SideBuy {
		t.Errorf("side = %s, want BUY", trade.Side)
	}
	if !trade.EntryPrice.Equal(dec("100")) {
		t.Errorf("entry = %s, want 100", trade.EntryPrice)
	}
	if !trade.ExitPrice.Equal(dec("112")) {
		t.Errorf("exit = %s, want 112", trade.ExitPrice)
	}
	// 120 gross minus both commissions
	if !trade.RealizedPnL.Equal(dec("117.88")) {
		t.Errorf("realized = %s, want 117.88", trade.RealizedPnL)
	}
	if trade.Bars != 5 {
		t.Errorf("bars = %d, want 5", trade.Bars)
	}
}

func TestLedgerFlipCommissionStaysWithClosingTrade(t *testing.T) {
	l := newLedger("AAPL", dec("10000"))
	l.apply(fill(1, types.SideBuy, "100", "10", "1", 0))
	l.apply(fill(2, types.SideSell, "110", "15", "2", 1))

	if len(l.trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(l.trades))
	}
	// gross 100, minus opening commission 1 and the full flip commission 2
	if !l.trades[0].RealizedPnL.Equal(dec("97")) {
		t.Errorf("closing trade pnl = %s, want 97", l.trades[0].RealizedPnL)
	}

	// The new short trip carries no commission, so closing it flat nets
	// only its own exit commission.
	l.apply(fill(3, types.SideBuy, "105", "5", "0.5", 2))
	if len(l.trades) != 2 {
		t.Fatalf("trades = %d, want 2", len(l.trades))
	}
	// (110 - 105) * 5 - 0.5
	if !l.trades[1].RealizedPnL.Equal(dec("24.5")) {
		t.Errorf("short trade pnl = %s, want 24.5", l.trades[1].RealizedPnL)
	}
}

func TestLedgerMark(t *testing.T) {
	l := newLedger("AAPL", dec("10000"))
	l.apply(fill(1, types.SideBuy, "100", "10", "0", 0))

	l.mark(dec("108"))
	if !l.unrealized.Equal(dec("80")) {
		t.Errorf("unrealized = %s, want 80", l.unrealized)
	}
	if !l.equity().Equal(dec("10080")) {
		t.Errorf("equity = %s, want 10080", l.equity())
	}

	// marking below cost flips the sign
	l.mark(dec("95"))
	if !l.unrealized.Equal(dec("-50")) {
		t.Errorf("unrealized = %s, want -50", l.unrealized)
	}
}

func TestLedgerMarkShortPosition(t *testing.T) {
	l := newLedger("AAPL", dec("10000"))
	l.apply(fill(1, types.SideSell, "100", "10", "0", 0))

	l.mark(dec("90"))
	if !l.unrealized.Equal(dec("100")) {
		t.Errorf("unrealized = %s, want 100", l.unrealized)
	}
	// cash 11000, position -10 * 90
	if !l.equity().Equal(dec("10100")) {
		t.Errorf("equity = %s, want 10100", l.equity())
	}
}

func TestLedgerEquityIdentityWhenFlat(t *testing.T) {
	l := newLedger("AAPL", dec("10000"))
	fills := []types.Fill{
		fill(1, types.SideBuy, "100", "10", "1", 0),
		fill(2, types.SideSell, "110", "10", "1.1", 2),
		fill(3, types.SideSell, "105", "5", "0.5", 4),
		fill(4, types.SideBuy, "101", "5", "0.5", 6),
	}
	for _, f := range fills {
		l.apply(f)
	}
	if !l.quantity.IsZero() {
		t.Fatalf("expected flat position, got %s", l.quantity)
	}

	want := dec("10000").Add(l.grossRealized).Sub(l.totalCommissions)
	if !l.equity().Equal(want) {
		t.Errorf("equity = %s, want initial + realized - commissions = %s", l.equity(), want)
	}
}

func TestLedgerReplayMatchesIncremental(t *testing.T) {
	l := newLedger("AAPL", dec("10000"))
	fills := []types.Fill{
		fill(1, types.SideBuy, "100", "10", "1", 0),
		fill(2, types.SideBuy, "104", "6", "0.6", 1),
		fill(3, types.SideSell, "110", "12", "1.3", 3),
		fill(4, types.SideSell, "108", "10", "1.1", 5),
		fill(5, types.SideBuy, "99", "6", "0.6", 8),
	}
	for _, f := range fills {
		l.apply(f)
	}

	replayed := replayLedger("AAPL", dec("10000"), l.fills)

	if !replayed.cash.Equal(l.cash) {
		t.Errorf("cash = %s, want %s", replayed.cash, l.cash)
	}
	if !replayed.quantity.Equal(l.quantity) {
		t.Errorf("quantity = %s, want %s", replayed.quantity, l.quantity)
	}
	if !replayed.avgCost.Equal(l.avgCost) {
		t.Errorf("avgCost = %s, want %s", replayed.avgCost, l.avgCost)
	}
	if !replayed.grossRealized.Equal(l.grossRealized) {
		t.Errorf("grossRealized = %s, want %s", replayed.grossRealized, l.grossRealized)
	}
	if len(replayed.trades) != len(l.trades) {
		t.Fatalf("trades = %d, want %d", len(replayed.trades), len(l.trades))
	}
	for i := range l.trades {
		if !replayed.trades[i].RealizedPnL.Equal(l.trades[i].RealizedPnL) {
			t.Errorf("trade %d pnl = %s, want %s", i, replayed.trades[i].RealizedPnL, l.trades[i].RealizedPnL)
		}
	}
}

func TestWeightedAvg(t *testing.T) {
	tests := []struct {
		name                                       string
		existingAvg, existingQty, newPrice, newQty string
		want                                       string
	}{
		{"equal weights", "100", "10", "110", "10", "105"},
		{"uneven weights", "100", "30", "120", "10", "105"},
		{"zero existing", "0", "0", "120", "10", "120"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := weightedAvg(dec(tt.existingAvg), dec(tt.existingQty), dec(tt.newPrice), dec(tt.newQty))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("weightedAvg() = %s, want %s", got, tt.want)
			}
		})
	}
}
