// Package journal implements a trade journal that records every fill
// the simulator executes. Cash amounts are kept as decimals so the
// journal can report exact aggregates even after long runs.
package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/qtraderlab/qtrader/environment/trading"
)

// Fill records one executed order
type Fill struct {
	Step      int
	Action    int
	Price     decimal.Decimal
	CashAfter decimal.Decimal
	HeldAfter int
}

// Side returns the human-readable side of the fill
func (f Fill) Side() string {
	if f.Action == trading.Buy {
		return "BUY"
	}
	return "SELL"
}

func (f Fill) String() string {
	return fmt.Sprintf("%4v %-4v %v @ %v (cash %v, held %v)", f.Step,
		f.Side(), 1, f.Price.StringFixed(2), f.CashAfter.StringFixed(2),
		f.HeldAfter)
}

// Journal implements the trading.Recorder interface, accumulating the
// fills of the current episode. Reset is expected between episodes if
// only the latest episode's activity is of interest.
type Journal struct {
	fills []Fill
}

// New creates and returns a new empty Journal
func New() *Journal {
	return &Journal{}
}

// RecordFill records one executed order
func (j *Journal) RecordFill(step, action int, price, cashAfter float64,
	heldAfter int) {
	j.fills = append(j.fills, Fill{
		Step:      step,
		Action:    action,
		Price:     decimal.NewFromFloat(price),
		CashAfter: decimal.NewFromFloat(cashAfter),
		HeldAfter: heldAfter,
	})
}

// Reset discards all recorded fills
func (j *Journal) Reset() {
	j.fills = j.fills[:0]
}

// Fills returns all recorded fills in execution order
func (j *Journal) Fills() []Fill {
	out := make([]Fill, len(j.fills))
	copy(out, j.fills)
	return out
}

// Bought returns the number of executed buy orders
func (j *Journal) Bought() int {
	return j.count(trading.Buy)
}

// Sold returns the number of executed sell orders
func (j *Journal) Sold() int {
	return j.count(trading.Sell)
}

// NetFlow returns the exact net cash flow of all recorded fills: sell
// proceeds minus buy costs. A negative flow means the journal's
// position cost more than it returned.
func (j *Journal) NetFlow() decimal.Decimal {
	flow := decimal.Zero
	for _, fill := range j.fills {
		if fill.Action == trading.Buy {
			flow = flow.Sub(fill.Price)
		} else {
			flow = flow.Add(fill.Price)
		}
	}
	return flow
}

func (j *Journal) count(action int) int {
	n := 0
	for _, fill := range j.fills {
		if fill.Action == action {
			n++
		}
	}
	return n
}
