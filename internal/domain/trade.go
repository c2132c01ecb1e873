package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Trade describes a filled buy or sell together with the ledger state right after it.
type Trade struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Side      Side            `json:"side"`
	Amount    int64           `json:"amount"`
	Price     float64         `json:"price"`
	Cash      decimal.Decimal `json:"cash"`
	Shares    int64           `json:"shares"`
	Time      time.Time       `json:"time"`
}

// Notional returns price * amount.
func (t Trade) Notional() decimal.Decimal {
	return decimal.NewFromFloat(t.Price).Mul(decimal.NewFromInt(t.Amount))
}

// TradeRecord bundles a trade with its journal index.
type TradeRecord struct {
	Index uint64
	Trade Trade
}
