package simulation

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/stocksim/internal/storage/simstate"
	"go.uber.org/zap"
)

// ErrNoStore is returned by SaveGame and LoadGame when the session has no store.
var ErrNoStore = errors.New("simulation store is not configured")

// ErrNoExporter is returned by ExportLog when the session has no exporter.
var ErrNoExporter = errors.New("history exporter is not configured")

// ErrInMemory is returned by SaveGame once the session has been detached from its store.
var ErrInMemory = errors.New("session is in-memory only, the save is left untouched")

// DetachStore switches the session to in-memory play: SaveGame stops writing
// and returns ErrInMemory. Used when the existing save could not be read, so
// that a fresh game never replaces it.
func (s *Session) DetachStore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inMemory = true
}

// Persistent reports whether SaveGame writes to a store.
func (s *Session) Persistent() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store != nil && !s.inMemory
}

// State returns a copy of the persistable aggregate.
func (s *Session) State() simstate.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stateLocked()
}

func (s *Session) stateLocked() simstate.State {
	return simstate.State{
		Cash:    s.ledger.Cash(),
		Shares:  s.ledger.Shares(),
		Price:   s.process.Price(),
		History: s.history.Snapshot(),
	}
}

// SaveGame writes cash, shares, price and history to the store.
func (s *Session) SaveGame(ctx context.Context) error {
	s.mu.RLock()
	inMemory := s.inMemory
	state := s.stateLocked()
	s.mu.RUnlock()

	if inMemory {
		return ErrInMemory
	}
	if s.store == nil {
		return ErrNoStore
	}

	if err := s.store.Save(ctx, state); err != nil {
		return errors.Wrap(err, "save game")
	}

	s.logger.Info("game saved",
		zap.String("cash", state.Cash.String()),
		zap.Int64("shares", state.Shares),
		zap.Float64("price", state.Price),
		zap.Int("history", len(state.History)))
	return nil
}

// LoadGame restores a previously saved game. It reports false with a nil
// error when there is no save. A save that cannot be decoded or breaks the
// ledger/price invariants yields an error wrapping simstate.ErrMalformedState.
// The session is left untouched whenever LoadGame does not return true.
func (s *Session) LoadGame(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, ErrNoStore
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return false, errors.Wrap(err, "load game")
	}
	if state == nil {
		s.logger.Info("no saved game found")
		return false, nil
	}

	if err := s.Restore(*state); err != nil {
		return false, err
	}

	s.logger.Info("game loaded",
		zap.String("cash", state.Cash.String()),
		zap.Int64("shares", state.Shares),
		zap.Float64("price", state.Price),
		zap.Int("history", len(state.History)))
	return true, nil
}

// Restore replaces the session state with state after validating it.
// History longer than the capacity keeps its most recent values; an empty
// history is seeded with the price.
func (s *Session) Restore(state simstate.State) error {
	if err := s.validateState(state); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.Reset(state.Cash, state.Shares)
	s.process.Reset(state.Price)
	if len(state.History) == 0 {
		s.history.Clear()
		s.history.Append(state.Price)
	} else {
		s.history.Restore(state.History)
	}

	return nil
}

func (s *Session) validateState(state simstate.State) error {
	floor := s.cfg.Params.Floor

	if state.Cash.IsNegative() {
		return errors.Wrapf(simstate.ErrMalformedState, "negative cash %s", state.Cash.String())
	}
	if state.Shares < 0 {
		return errors.Wrapf(simstate.ErrMalformedState, "negative shares %d", state.Shares)
	}
	if !finite(state.Price) || state.Price < floor {
		return errors.Wrapf(simstate.ErrMalformedState, "price %v below floor %v", state.Price, floor)
	}
	for i, v := range state.History {
		if !finite(v) || v <= 0 {
			return errors.Wrapf(simstate.ErrMalformedState, "history[%d] = %v is not a positive price", i, v)
		}
	}
	return nil
}

// ExportLog writes the full history snapshot, one price per line, and returns
// where it was written.
func (s *Session) ExportLog(_ context.Context) (string, error) {
	if s.exporter == nil {
		return "", ErrNoExporter
	}

	history := s.HistorySnapshot()
	path, err := s.exporter.Export(history)
	if err != nil {
		return "", errors.Wrap(err, "export history")
	}

	s.logger.Info("history exported", zap.String("path", path), zap.Int("prices", len(history)))
	return path, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
