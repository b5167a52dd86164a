package journal

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/qtraderlab/qtrader/environment/trading"
)

func TestJournalCountsFillsBySide(t *testing.T) {
	j := New()

	j.RecordFill(1, trading.Buy, 100.50, 9899.50, 1)
	j.RecordFill(2, trading.Buy, 99.25, 9800.25, 2)
	j.RecordFill(5, trading.Sell, 101.00, 9901.25, 1)

	if j.Bought() != 2 {
		t.Errorf("expected 2 buys, got %v", j.Bought())
	}
	if j.Sold() != 1 {
		t.Errorf("expected 1 sell, got %v", j.Sold())
	}
	if len(j.Fills()) != 3 {
		t.Errorf("expected 3 fills, got %v", len(j.Fills()))
	}
}

func TestNetFlowIsSellProceedsMinusBuyCosts(t *testing.T) {
	j := New()

	j.RecordFill(1, trading.Buy, 100.10, 0, 1)
	j.RecordFill(2, trading.Sell, 101.30, 0, 0)
	j.RecordFill(3, trading.Buy, 0.10, 0, 1)

	// 101.30 - 100.10 - 0.10, computed exactly in decimal arithmetic
	want := decimal.RequireFromString("1.10")
	if flow := j.NetFlow(); !flow.Equal(want) {
		t.Errorf("expected net flow %v, got %v", want, flow)
	}
}

func TestNetFlowOfEmptyJournalIsZero(t *testing.T) {
	j := New()

	if flow := j.NetFlow(); !flow.Equal(decimal.Zero) {
		t.Errorf("expected zero net flow, got %v", flow)
	}
}

func TestFillSide(t *testing.T) {
	j := New()
	j.RecordFill(1, trading.Buy, 100, 9900, 1)
	j.RecordFill(2, trading.Sell, 100, 10000, 0)

	fills := j.Fills()
	if fills[0].Side() != "BUY" {
		t.Errorf("expected side BUY, got %v", fills[0].Side())
	}
	if fills[1].Side() != "SELL" {
		t.Errorf("expected side SELL, got %v", fills[1].Side())
	}
}

func TestResetClearsFills(t *testing.T) {
	j := New()
	j.RecordFill(1, trading.Buy, 100, 9900, 1)

	j.Reset()

	if len(j.Fills()) != 0 {
		t.Errorf("expected no fills after reset, got %v", len(j.Fills()))
	}
	if j.Bought() != 0 {
		t.Errorf("expected no buys after reset, got %v", j.Bought())
	}
}
