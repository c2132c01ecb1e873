package simulation

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/stocksim/internal/domain"
	"github.com/vadiminshakov/stocksim/internal/storage/simstate"
	"go.uber.org/zap"
)

// Store loads and saves the simulation state. Load returns (nil, nil) when no save exists.
type Store interface {
	Load(ctx context.Context) (*simstate.State, error)
	Save(ctx context.Context, state simstate.State) error
}

// Journal records filled trades.
type Journal interface {
	Record(trade domain.Trade) error
}

// Exporter writes the history snapshot somewhere outside the save file.
type Exporter interface {
	Export(history []float64) (string, error)
}

// Config describes a fresh game and the price process.
type Config struct {
	Params          domain.PriceParams
	InitialPrice    float64
	InitialCash     decimal.Decimal
	HistoryCapacity int
	// Seed makes the price path reproducible. Zero means a random seed.
	Seed uint64
}

// DefaultConfig returns the configuration of the reference game.
func DefaultConfig() Config {
	return Config{
		Params:          domain.DefaultPriceParams(),
		InitialPrice:    50,
		InitialCash:     decimal.NewFromInt(10000),
		HistoryCapacity: domain.DefaultHistoryCapacity,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if math.IsNaN(c.InitialPrice) || math.IsInf(c.InitialPrice, 0) || c.InitialPrice < c.Params.Floor {
		return errors.Errorf("initial price must be at least the floor %v, got %v", c.Params.Floor, c.InitialPrice)
	}
	if c.InitialCash.IsNegative() {
		return errors.Errorf("initial cash must not be negative, got %s", c.InitialCash.String())
	}
	if c.HistoryCapacity <= 0 {
		return errors.Errorf("history capacity must be positive, got %d", c.HistoryCapacity)
	}
	return nil
}

// Session owns the price process, its history and the player's ledger, and is
// the only unit that gets saved and restored.
type Session struct {
	mu sync.RWMutex

	cfg      Config
	logger   *zap.Logger
	store    Store
	journal  Journal
	exporter Exporter
	now      func() time.Time
	inMemory bool

	history   *domain.History
	process   *domain.PriceProcess
	ledger    *domain.Ledger
	sessionID string
}

// Option customizes a Session.
type Option func(*Session)

// WithStore sets the persistence backend used by LoadGame and SaveGame.
func WithStore(store Store) Option {
	return func(s *Session) {
		s.store = store
	}
}

// WithJournal records every filled trade.
func WithJournal(journal Journal) Option {
	return func(s *Session) {
		s.journal = journal
	}
}

// WithExporter sets the destination of ExportLog.
func WithExporter(exporter Exporter) Option {
	return func(s *Session) {
		s.exporter = exporter
	}
}

// WithClock overrides time.Now for trade timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession creates a session already set up as a fresh game.
func NewSession(cfg Config, logger *zap.Logger, opts ...Option) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid simulation config")
	}

	s := &Session{
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		history: domain.NewHistory(cfg.HistoryCapacity),
		ledger:  domain.NewLedger(cfg.InitialCash, 0),
	}
	for _, opt := range opts {
		opt(s)
	}

	process, err := domain.NewPriceProcess(cfg.Params, cfg.InitialPrice, newSource(cfg.Seed), s.history)
	if err != nil {
		return nil, err
	}
	s.process = process
	s.resetLocked()

	return s, nil
}

func newSource(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// StartNewGame resets cash, shares, price and history to the configured defaults.
func (s *Session) StartNewGame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Seed != 0 {
		s.process.SetSource(newSource(s.cfg.Seed))
	}
	s.resetLocked()

	s.logger.Info("new game started",
		zap.String("session", s.sessionID),
		zap.String("cash", s.ledger.Cash().String()),
		zap.Float64("price", s.process.Price()))
}

func (s *Session) resetLocked() {
	s.ledger.Reset(s.cfg.InitialCash, 0)
	s.process.Reset(s.cfg.InitialPrice)
	s.history.Clear()
	s.history.Append(s.process.Price())
	s.sessionID = uuid.New().String()
}

// Tick advances the price by one step.
func (s *Session) Tick() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.process.Step()
}

// CurrentPrice returns the latest price.
func (s *Session) CurrentPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.process.Price()
}

// PreviousPrice returns the price before the latest step, or the current
// price when there is no earlier one.
func (s *Session) PreviousPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if prev, ok := s.history.Previous(); ok {
		return prev
	}
	return s.process.Price()
}

// HistorySnapshot returns the price history, oldest first.
func (s *Session) HistorySnapshot() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.history.Snapshot()
}

func (s *Session) Cash() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.Cash()
}

func (s *Session) Shares() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.Shares()
}

// PortfolioValue returns shares * current price.
func (s *Session) PortfolioValue() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.Value(s.process.Price())
}

// SessionID identifies the current game in the trade journal.
func (s *Session) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sessionID
}

// Buy purchases amount shares at the current price. Invalid amounts and
// unaffordable purchases leave the ledger untouched.
func (s *Session) Buy(amount int64) (domain.Trade, domain.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price := s.process.Price()
	return s.settleLocked(domain.SideBuy, amount, price, s.ledger.Buy(amount, price))
}

// Sell disposes of amount shares at the current price.
func (s *Session) Sell(amount int64) (domain.Trade, domain.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price := s.process.Price()
	return s.settleLocked(domain.SideSell, amount, price, s.ledger.Sell(amount, price))
}

// BuyMax buys floor(cash / price) shares.
func (s *Session) BuyMax() (domain.Trade, domain.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price := s.process.Price()
	amount, outcome := s.ledger.BuyMax(price)
	return s.settleLocked(domain.SideBuy, amount, price, outcome)
}

// SellMax sells every held share.
func (s *Session) SellMax() (domain.Trade, domain.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price := s.process.Price()
	amount, outcome := s.ledger.SellMax(price)
	return s.settleLocked(domain.SideSell, amount, price, outcome)
}

func (s *Session) settleLocked(side domain.Side, amount int64, price float64, outcome domain.Outcome) (domain.Trade, domain.Outcome) {
	if !outcome.Filled() {
		s.logger.Debug("trade skipped",
			zap.String("side", string(side)),
			zap.Int64("amount", amount),
			zap.Float64("price", price),
			zap.Stringer("outcome", outcome))
		return domain.Trade{}, outcome
	}

	trade := domain.Trade{
		ID:        uuid.New().String(),
		SessionID: s.sessionID,
		Side:      side,
		Amount:    amount,
		Price:     price,
		Cash:      s.ledger.Cash(),
		Shares:    s.ledger.Shares(),
		Time:      s.now(),
	}

	s.logger.Debug("trade filled",
		zap.String("id", trade.ID),
		zap.String("side", string(side)),
		zap.Int64("amount", amount),
		zap.Float64("price", price),
		zap.String("cash", trade.Cash.String()),
		zap.Int64("shares", trade.Shares))

	if s.journal != nil {
		if err := s.journal.Record(trade); err != nil {
			s.logger.Warn("failed to journal trade", zap.String("id", trade.ID), zap.Error(err))
		}
	}

	return trade, outcome
}
