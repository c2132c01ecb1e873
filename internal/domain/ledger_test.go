package domain

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLedger_BuyThenSell(t *testing.T) {
	l := NewLedger(dec("10000.00"), 0)

	assert.Equal(t, OutcomeFilled, l.Buy(10, 50.00))
	assert.True(t, l.Cash().Equal(dec("9500")), "cash=%s", l.Cash())
	assert.Equal(t, int64(10), l.Shares())

	assert.Equal(t, OutcomeFilled, l.Sell(5, 50.00))
	assert.True(t, l.Cash().Equal(dec("9750")), "cash=%s", l.Cash())
	assert.Equal(t, int64(5), l.Shares())
}

func TestLedger_BuyInsufficientCash(t *testing.T) {
	l := NewLedger(dec("40.00"), 0)

	assert.Equal(t, OutcomeInsufficientCash, l.Buy(1, 50.00))
	assert.True(t, l.Cash().Equal(dec("40")))
	assert.Equal(t, int64(0), l.Shares())
}

func TestLedger_SellInsufficientShares(t *testing.T) {
	l := NewLedger(dec("0"), 3)

	assert.Equal(t, OutcomeInsufficientShares, l.Sell(5, 50.00))
	assert.Equal(t, int64(3), l.Shares())
	assert.True(t, l.Cash().IsZero())
}

func TestLedger_BuyExactCash(t *testing.T) {
	l := NewLedger(dec("50"), 0)

	assert.Equal(t, OutcomeFilled, l.Buy(1, 50))
	assert.True(t, l.Cash().IsZero())
	assert.Equal(t, int64(1), l.Shares())
}

func TestLedger_BuyMax(t *testing.T) {
	l := NewLedger(dec("205.00"), 2)

	amount, outcome := l.BuyMax(50.00)
	assert.Equal(t, int64(4), amount)
	assert.Equal(t, OutcomeFilled, outcome)
	assert.True(t, l.Cash().Equal(dec("5")), "cash=%s", l.Cash())
	assert.Equal(t, int64(6), l.Shares())
}

func TestLedger_BuyMaxFractionalPrice(t *testing.T) {
	l := NewLedger(dec("100"), 0)

	amount, outcome := l.BuyMax(0.1)
	assert.Equal(t, int64(1000), amount)
	assert.Equal(t, OutcomeFilled, outcome)
	assert.True(t, l.Cash().IsZero(), "cash=%s", l.Cash())
}

func TestLedger_BuyMaxNothingAffordable(t *testing.T) {
	l := NewLedger(dec("10"), 0)

	amount, outcome := l.BuyMax(50)
	assert.Equal(t, int64(0), amount)
	assert.Equal(t, OutcomeInvalidAmount, outcome)
	assert.True(t, l.Cash().Equal(dec("10")))
}

func TestLedger_MaxAffordableNonPositivePrice(t *testing.T) {
	l := NewLedger(dec("1000"), 0)

	assert.Equal(t, int64(0), l.MaxAffordable(0))
	assert.Equal(t, int64(0), l.MaxAffordable(-5))
	assert.Equal(t, int64(0), l.MaxAffordable(math.NaN()))
}

func TestLedger_SellMax(t *testing.T) {
	l := NewLedger(dec("0"), 7)

	amount, outcome := l.SellMax(12.5)
	assert.Equal(t, int64(7), amount)
	assert.Equal(t, OutcomeFilled, outcome)
	assert.True(t, l.Cash().Equal(dec("87.5")))
	assert.Equal(t, int64(0), l.Shares())

	amount, outcome = l.SellMax(12.5)
	assert.Equal(t, int64(0), amount)
	assert.Equal(t, OutcomeInvalidAmount, outcome)
}

func TestLedger_NoOpsNeverChangeState(t *testing.T) {
	tests := []struct {
		name    string
		op      func(l *Ledger) Outcome
		outcome Outcome
	}{
		{name: "buy zero", op: func(l *Ledger) Outcome { return l.Buy(0, 50) }, outcome: OutcomeInvalidAmount},
		{name: "buy negative", op: func(l *Ledger) Outcome { return l.Buy(-5, 50) }, outcome: OutcomeInvalidAmount},
		{name: "sell zero", op: func(l *Ledger) Outcome { return l.Sell(0, 50) }, outcome: OutcomeInvalidAmount},
		{name: "sell negative", op: func(l *Ledger) Outcome { return l.Sell(-1, 50) }, outcome: OutcomeInvalidAmount},
		{name: "buy zero price", op: func(l *Ledger) Outcome { return l.Buy(1, 0) }, outcome: OutcomeInvalidPrice},
		{name: "sell nan price", op: func(l *Ledger) Outcome { return l.Sell(1, math.NaN()) }, outcome: OutcomeInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(dec("1000"), 10)
			assert.Equal(t, tt.outcome, tt.op(l))
			assert.False(t, tt.outcome.Filled())
			assert.True(t, l.Cash().Equal(dec("1000")))
			assert.Equal(t, int64(10), l.Shares())
		})
	}
}

func TestLedger_RandomSequenceKeepsInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 9))
	l := NewLedger(dec("10000"), 0)

	for i := 0; i < 5000; i++ {
		price := 1 + rng.Float64()*200
		amount := rng.Int64N(200) - 20
		cashBefore, sharesBefore := l.Cash(), l.Shares()

		var outcome Outcome
		if rng.IntN(2) == 0 {
			outcome = l.Buy(amount, price)
			if outcome.Filled() {
				cost := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(amount))
				require.True(t, cashBefore.Sub(cost).Equal(l.Cash()))
				require.Equal(t, sharesBefore+amount, l.Shares())
			}
		} else {
			outcome = l.Sell(amount, price)
			if outcome.Filled() {
				proceeds := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(amount))
				require.True(t, cashBefore.Add(proceeds).Equal(l.Cash()))
				require.Equal(t, sharesBefore-amount, l.Shares())
			}
		}

		if !outcome.Filled() {
			require.True(t, cashBefore.Equal(l.Cash()))
			require.Equal(t, sharesBefore, l.Shares())
		}
		require.False(t, l.Cash().IsNegative())
		require.GreaterOrEqual(t, l.Shares(), int64(0))
	}
}

func TestLedger_Value(t *testing.T) {
	l := NewLedger(dec("0"), 4)
	assert.True(t, l.Value(12.25).Equal(dec("49")))
	assert.True(t, l.Value(0).IsZero())
}

func TestNewLedger_ClampsNegativeStart(t *testing.T) {
	l := NewLedger(dec("-5"), -2)
	assert.True(t, l.Cash().IsZero())
	assert.Equal(t, int64(0), l.Shares())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "filled", OutcomeFilled.String())
	assert.Equal(t, "insufficient cash", OutcomeInsufficientCash.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}
