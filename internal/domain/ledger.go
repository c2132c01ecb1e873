package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Outcome reports what a buy or sell did. Rejections are not errors: the
// ledger is left unchanged and the caller may surface the reason to the player.
type Outcome int

const (
	OutcomeFilled Outcome = iota
	OutcomeInvalidAmount
	OutcomeInvalidPrice
	OutcomeInsufficientCash
	OutcomeInsufficientShares
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeFilled:
		return "filled"
	case OutcomeInvalidAmount:
		return "invalid amount"
	case OutcomeInvalidPrice:
		return "invalid price"
	case OutcomeInsufficientCash:
		return "insufficient cash"
	case OutcomeInsufficientShares:
		return "insufficient shares"
	default:
		return "unknown"
	}
}

// Filled reports whether the transaction executed.
func (o Outcome) Filled() bool {
	return o == OutcomeFilled
}

// Ledger holds the player's cash and share inventory.
// Cash and shares never go negative; buys and sells either fill completely or not at all.
type Ledger struct {
	cash   decimal.Decimal
	shares int64
}

// NewLedger creates a ledger. Negative starting values are raised to zero.
func NewLedger(cash decimal.Decimal, shares int64) *Ledger {
	l := &Ledger{}
	l.Reset(cash, shares)
	return l
}

// Reset overwrites cash and shares.
func (l *Ledger) Reset(cash decimal.Decimal, shares int64) {
	if cash.IsNegative() {
		cash = decimal.Zero
	}
	if shares < 0 {
		shares = 0
	}
	l.cash = cash
	l.shares = shares
}

func (l *Ledger) Cash() decimal.Decimal { return l.cash }

func (l *Ledger) Shares() int64 { return l.shares }

// Value returns the market value of held shares at price.
func (l *Ledger) Value(price float64) decimal.Decimal {
	if !validPrice(price) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(l.shares))
}

// Buy purchases amount shares at price if cash covers price*amount.
func (l *Ledger) Buy(amount int64, price float64) Outcome {
	if amount <= 0 {
		return OutcomeInvalidAmount
	}
	if !validPrice(price) {
		return OutcomeInvalidPrice
	}

	cost := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(amount))
	if l.cash.LessThan(cost) {
		return OutcomeInsufficientCash
	}

	l.cash = l.cash.Sub(cost)
	l.shares += amount

	return OutcomeFilled
}

// Sell disposes of amount shares at price if that many shares are held.
func (l *Ledger) Sell(amount int64, price float64) Outcome {
	if amount <= 0 {
		return OutcomeInvalidAmount
	}
	if !validPrice(price) {
		return OutcomeInvalidPrice
	}
	if l.shares < amount {
		return OutcomeInsufficientShares
	}

	proceeds := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(amount))
	l.cash = l.cash.Add(proceeds)
	l.shares -= amount

	return OutcomeFilled
}

// MaxAffordable returns floor(cash / price), or zero for a non-positive price.
func (l *Ledger) MaxAffordable(price float64) int64 {
	if !validPrice(price) {
		return 0
	}
	q, _ := l.cash.QuoRem(decimal.NewFromFloat(price), 0)
	if !q.IsPositive() {
		return 0
	}
	if q.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return math.MaxInt64
	}
	return q.IntPart()
}

// BuyMax spends as much cash as possible on whole shares.
func (l *Ledger) BuyMax(price float64) (int64, Outcome) {
	amount := l.MaxAffordable(price)
	return amount, l.Buy(amount, price)
}

// SellMax sells every held share.
func (l *Ledger) SellMax(price float64) (int64, Outcome) {
	amount := l.shares
	return amount, l.Sell(amount, price)
}

func validPrice(price float64) bool {
	return price > 0 && !math.IsInf(price, 0)
}
