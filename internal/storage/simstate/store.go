package simstate

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const defaultStatePath = "./saves/stocksim.json"

// ErrMalformedState is returned when a save exists but cannot be decoded or
// describes an impossible game.
var ErrMalformedState = errors.New("malformed simulation state")

// State is the persisted simulation aggregate.
type State struct {
	Cash    decimal.Decimal
	Shares  int64
	Price   float64
	History []float64
}

// document is the on-disk layout. Cash is written as a JSON number holding the
// exact decimal string so the round trip is lossless.
type document struct {
	Cash    json.Number `json:"player_cash"`
	Shares  int64       `json:"player_shares"`
	Price   float64     `json:"stock_price"`
	History []float64   `json:"stock_history"`
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	history := s.History
	if history == nil {
		history = []float64{}
	}
	return json.Marshal(document{
		Cash:    json.Number(s.Cash.String()),
		Shares:  s.Shares,
		Price:   s.Price,
		History: history,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Cash == "" {
		return errors.New("player_cash is missing")
	}
	cash, err := decimal.NewFromString(doc.Cash.String())
	if err != nil {
		return errors.Wrap(err, "decode player_cash")
	}

	*s = State{
		Cash:    cash,
		Shares:  doc.Shares,
		Price:   doc.Price,
		History: doc.History,
	}
	return nil
}

// Encode serialises a state into the saved document format.
func Encode(state State) ([]byte, error) {
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode simulate state")
	}
	return payload, nil
}

// Decode parses a saved document. An empty payload means no save and yields nil.
func Decode(payload []byte) (*State, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, errors.Wrapf(ErrMalformedState, "decode simulate state: %v", err)
	}
	return &state, nil
}

// FileStore persists the simulation state as a JSON file so restarts resume the game.
type FileStore struct {
	path string
}

// NewFileStore creates a file store, making sure the parent directory exists.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = defaultStatePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create simulate state dir")
	}

	return &FileStore{path: path}, nil
}

// Path returns the save file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads simulation state from disk. A missing file yields (nil, nil).
func (s *FileStore) Load(_ context.Context) (*State, error) {
	if s == nil || s.path == "" {
		return nil, nil
	}

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "read simulate state")
	}

	return Decode(payload)
}

// Save writes simulation state to disk atomically via temp file.
func (s *FileStore) Save(_ context.Context, state State) error {
	if s == nil || s.path == "" {
		return errors.New("simulate state store is not initialized")
	}

	payload, err := Encode(state)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write simulate state temp file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "persist simulate state")
	}

	return nil
}
