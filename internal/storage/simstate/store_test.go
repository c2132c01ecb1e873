package simstate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "save.json"))
	require.NoError(t, err)
	return store
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved := State{
		Cash:    decimal.RequireFromString("9876.123456789012345678"),
		Shares:  42,
		Price:   51.23456789012345,
		History: []float64{50, 50.5, 0.1 + 0.2, 51.23456789012345},
	}
	require.NoError(t, store.Save(ctx, saved))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.True(t, saved.Cash.Equal(loaded.Cash), "cash %s != %s", saved.Cash, loaded.Cash)
	assert.Equal(t, saved.Shares, loaded.Shares)
	assert.Equal(t, saved.Price, loaded.Price)
	assert.Equal(t, saved.History, loaded.History)

	_, err = os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")
}

func TestFileStore_DocumentLayout(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), State{
		Cash:    decimal.RequireFromString("10000"),
		Shares:  0,
		Price:   50,
		History: []float64{50},
	}))

	payload, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &raw))
	assert.Len(t, raw, 4)
	assert.JSONEq(t, `10000`, string(raw["player_cash"]))
	assert.JSONEq(t, `0`, string(raw["player_shares"]))
	assert.JSONEq(t, `50`, string(raw["stock_price"]))
	assert.JSONEq(t, `[50]`, string(raw["stock_history"]))
}

func TestFileStore_EmptyHistoryIsWrittenAsArray(t *testing.T) {
	payload, err := Encode(State{Cash: decimal.Zero, Price: 1})
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"stock_history": []`)
}

func TestFileStore_EmptyFileMeansNoSave(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("  \n"), 0o644))

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `{{{`},
		{name: "missing cash", payload: `{"player_shares": 1, "stock_price": 50, "stock_history": []}`},
		{name: "fractional shares", payload: `{"player_cash": 1, "player_shares": 1.5, "stock_price": 50}`},
		{name: "history of strings", payload: `{"player_cash": 1, "player_shares": 1, "stock_price": 50, "stock_history": ["a"]}`},
		{name: "array root", payload: `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := Decode([]byte(tt.payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedState)
			assert.Nil(t, state)
		})
	}
}

func TestDecode_AcceptsLegacyFloatCash(t *testing.T) {
	state, err := Decode([]byte(`{"player_cash": 9750.5, "player_shares": 5, "stock_price": 48.25, "stock_history": [50, 48.25]}`))
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.True(t, state.Cash.Equal(decimal.RequireFromString("9750.5")))
	assert.Equal(t, int64(5), state.Shares)
	assert.Equal(t, 48.25, state.Price)
	assert.Equal(t, []float64{50, 48.25}, state.History)
}

func TestFileStore_MalformedFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`not a save`), 0o644))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrMalformedState)
}
