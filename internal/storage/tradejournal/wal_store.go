package tradejournal

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/stocksim/internal/domain"
)

const (
	defaultJournalDir  = "./wal/trades"
	tradeSegmentLimit  = 1000
	tradeMaxSegments   = 100
	tradeKeyPrefix     = "trade_"
	journalPermissions = 0o755
)

var errNotInitialized = errors.New("trade journal is not initialized")

// WALStore appends filled trades to a write-ahead log. Old segments are
// dropped once the journal grows past tradeMaxSegments, so replay covers the
// most recent fills only.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// Stats summarizes the journaled fills.
type Stats struct {
	Trades    int
	Buys      int
	Sells     int
	Sessions  int
	Volume    decimal.Decimal
	LastIndex uint64
	LastTrade time.Time
}

// NewWALStore opens the trade journal under dir, creating it when missing.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultJournalDir
	}
	if err := os.MkdirAll(dir, journalPermissions); err != nil {
		return nil, errors.Wrapf(err, "ensure trade journal dir %s", dir)
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "trades_",
		SegmentThreshold: tradeSegmentLimit,
		MaxSegments:      tradeMaxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open trade journal")
	}

	return &WALStore{wal: wal}, nil
}

// Record appends a filled trade. Trades without an ID are rejected.
func (s *WALStore) Record(trade domain.Trade) error {
	if s == nil || s.wal == nil {
		return errNotInitialized
	}
	if trade.ID == "" {
		return errors.New("trade id is required")
	}

	payload, err := json.Marshal(trade)
	if err != nil {
		return errors.Wrapf(err, "encode trade %s", trade.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.wal.Write(s.wal.CurrentIndex()+1, tradeKeyPrefix+trade.ID, payload); err != nil {
		return errors.Wrapf(err, "journal trade %s", trade.ID)
	}
	return nil
}

// TradesAfter returns the journaled trades with an index above index, oldest
// first. Indexes whose segment was already dropped are skipped.
func (s *WALStore) TradesAfter(index uint64) ([]domain.TradeRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errNotInitialized
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	var records []domain.TradeRecord
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			return nil, errors.Wrapf(err, "read trade journal index %d", idx)
		}
		if !strings.HasPrefix(key, tradeKeyPrefix) {
			continue
		}

		var trade domain.Trade
		if err := json.Unmarshal(payload, &trade); err != nil {
			return nil, errors.Wrapf(err, "decode trade at index %d", idx)
		}
		records = append(records, domain.TradeRecord{Index: idx, Trade: trade})
	}

	return records, nil
}

// Stats replays the journal and summarizes it.
func (s *WALStore) Stats() (Stats, error) {
	records, err := s.TradesAfter(0)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Volume: decimal.Zero}
	sessions := make(map[string]struct{})
	for _, rec := range records {
		stats.Trades++
		switch rec.Trade.Side {
		case domain.SideBuy:
			stats.Buys++
		case domain.SideSell:
			stats.Sells++
		}
		sessions[rec.Trade.SessionID] = struct{}{}
		stats.Volume = stats.Volume.Add(rec.Trade.Notional())
		stats.LastIndex = rec.Index
		stats.LastTrade = rec.Trade.Time
	}
	stats.Sessions = len(sessions)

	return stats, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errNotInitialized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
