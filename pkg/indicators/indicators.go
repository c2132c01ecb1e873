// Package indicators computes moving averages and momentum over a price history.
package indicators

import (
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
)

const (
	SummaryMAPeriod  = 20
	SummaryRSIPeriod = 14
)

// SMA calculates the Simple Moving Average for the given period.
func SMA(prices []float64, period int) ([]float64, error) {
	if err := checkPeriod(prices, period, period); err != nil {
		return nil, err
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	return helper.ChanToSlice(sma.Compute(helper.SliceToChan(prices))), nil
}

// EMA calculates the Exponential Moving Average for the given period.
func EMA(prices []float64, period int) ([]float64, error) {
	if err := checkPeriod(prices, period, period); err != nil {
		return nil, err
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	return helper.ChanToSlice(ema.Compute(helper.SliceToChan(prices))), nil
}

// RSI calculates the Relative Strength Index for the given period.
func RSI(prices []float64, period int) ([]float64, error) {
	if err := checkPeriod(prices, period, period+1); err != nil {
		return nil, err
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	return helper.ChanToSlice(rsi.Compute(helper.SliceToChan(prices))), nil
}

// Summary holds the latest indicator values. A field is only meaningful when
// its Has flag is set; short histories leave them unset.
type Summary struct {
	SMA    float64
	HasSMA bool
	EMA    float64
	HasEMA bool
	RSI    float64
	HasRSI bool
}

// Summarize returns the most recent SMA20, EMA20 and RSI14 of prices.
func Summarize(prices []float64) Summary {
	var s Summary
	if v, ok := last(SMA(prices, SummaryMAPeriod)); ok {
		s.SMA, s.HasSMA = v, true
	}
	if v, ok := last(EMA(prices, SummaryMAPeriod)); ok {
		s.EMA, s.HasEMA = v, true
	}
	if v, ok := last(RSI(prices, SummaryRSIPeriod)); ok {
		s.RSI, s.HasRSI = v, true
	}
	return s
}

func checkPeriod(prices []float64, period, need int) error {
	if period < 1 {
		return fmt.Errorf("period must be positive, got %d", period)
	}
	if len(prices) < need {
		return fmt.Errorf("not enough data points: need %d, got %d", need, len(prices))
	}
	return nil
}

func last(values []float64, err error) (float64, bool) {
	if err != nil || len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}
