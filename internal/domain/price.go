package domain

import (
	"math"

	"github.com/pkg/errors"
)

const (
	DefaultDrift      = 0.0005
	DefaultVolatility = 0.02
	DefaultFloor      = 1.0

	// stepDt is the length of one simulation step.
	stepDt = 1.0
)

// NormalSource draws from the standard normal distribution.
// *rand.Rand from math/rand/v2 satisfies it.
type NormalSource interface {
	NormFloat64() float64
}

// PriceParams configures the geometric random walk.
type PriceParams struct {
	Drift      float64
	Volatility float64
	Floor      float64
}

// DefaultPriceParams returns the drift, volatility and floor used by a fresh game.
func DefaultPriceParams() PriceParams {
	return PriceParams{
		Drift:      DefaultDrift,
		Volatility: DefaultVolatility,
		Floor:      DefaultFloor,
	}
}

// Validate checks that the parameters describe a usable process.
func (p PriceParams) Validate() error {
	if math.IsNaN(p.Drift) || math.IsInf(p.Drift, 0) {
		return errors.Errorf("drift must be finite, got %v", p.Drift)
	}
	if math.IsNaN(p.Volatility) || math.IsInf(p.Volatility, 0) || p.Volatility < 0 {
		return errors.Errorf("volatility must be a finite non-negative number, got %v", p.Volatility)
	}
	if math.IsNaN(p.Floor) || math.IsInf(p.Floor, 0) || p.Floor <= 0 {
		return errors.Errorf("floor must be a finite positive number, got %v", p.Floor)
	}
	return nil
}

// PriceProcess advances the instrument price one step at a time and records
// every new price in its history.
type PriceProcess struct {
	params  PriceParams
	price   float64
	source  NormalSource
	history *History
}

// NewPriceProcess creates a process starting at price. The start price is
// not appended to history; callers seed the history themselves.
func NewPriceProcess(params PriceParams, price float64, source NormalSource, history *History) (*PriceProcess, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid price params")
	}
	if source == nil {
		return nil, errors.New("normal source is required")
	}
	if history == nil {
		return nil, errors.New("history is required")
	}

	p := &PriceProcess{
		params:  params,
		source:  source,
		history: history,
	}
	p.Reset(price)

	return p, nil
}

// Step moves the price by one time unit:
//
//	change = price * (mu*dt + sigma*Z*sqrt(dt))
//	price' = max(price + change, floor)
//
// and appends the new price to history.
func (p *PriceProcess) Step() float64 {
	z := p.source.NormFloat64()
	change := p.price * (p.params.Drift*stepDt + p.params.Volatility*z*math.Sqrt(stepDt))
	p.price = p.clamp(p.price + change)
	p.history.Append(p.price)

	return p.price
}

// Price returns the current price.
func (p *PriceProcess) Price() float64 {
	return p.price
}

// Reset sets the current price without touching history. Prices below the
// floor (or NaN) are clamped to the floor.
func (p *PriceProcess) Reset(price float64) {
	p.price = p.clamp(price)
}

// SetSource swaps the normal source, e.g. after re-seeding for a new game.
func (p *PriceProcess) SetSource(source NormalSource) {
	if source != nil {
		p.source = source
	}
}

func (p *PriceProcess) clamp(price float64) float64 {
	// NaN fails every comparison, so test the valid range instead of the invalid one.
	if !(price >= p.params.Floor) {
		return p.params.Floor
	}
	return price
}
