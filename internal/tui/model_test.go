package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/stocksim/internal/services/simulation"
	"github.com/vadiminshakov/stocksim/internal/storage/historylog"
	"github.com/vadiminshakov/stocksim/internal/storage/simstate"
)

func newTestModel(t *testing.T) (*Model, *simulation.Session, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := simstate.NewFileStore(filepath.Join(dir, "save.json"))
	require.NoError(t, err)

	cfg := simulation.DefaultConfig()
	cfg.Seed = 11
	session, err := simulation.NewSession(cfg, nil,
		simulation.WithStore(store),
		simulation.WithExporter(historylog.NewExporter(filepath.Join(dir, "exports"))),
	)
	require.NoError(t, err)

	return NewModel(session, time.Millisecond, nil), session, dir
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m *Model, msgs ...tea.Msg) tea.Cmd {
	t.Helper()

	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModel_QuickTrades(t *testing.T) {
	m, session, _ := newTestModel(t)

	press(t, m, runes("w"))
	assert.Equal(t, int64(10), session.Shares())
	assert.True(t, session.Cash().Equal(decimal.NewFromInt(9500)))
	assert.Equal(t, "Bought 10 @ $50.00", m.status)
	assert.False(t, m.statusFailed)

	press(t, m, runes("q"), runes("e"), runes("r"))
	assert.Equal(t, int64(161), session.Shares())

	press(t, m, runes("a"), runes("s"), runes("d"), runes("f"))
	assert.Equal(t, int64(0), session.Shares())
	assert.True(t, session.Cash().Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, "Sold 100 @ $50.00", m.status)
}

func TestModel_RejectedTradeShowsReason(t *testing.T) {
	m, session, _ := newTestModel(t)

	press(t, m, runes("a"))
	assert.Equal(t, "Not enough shares", m.status)
	assert.True(t, m.statusFailed)
	assert.Equal(t, int64(0), session.Shares())

	press(t, m, runes("n"))
	assert.Equal(t, "Nothing to trade", m.status)
}

func TestModel_MaxTrades(t *testing.T) {
	m, session, _ := newTestModel(t)

	press(t, m, runes("m"))
	assert.Equal(t, int64(200), session.Shares())
	assert.True(t, session.Cash().IsZero())

	press(t, m, runes("n"))
	assert.Equal(t, int64(0), session.Shares())
	assert.True(t, session.Cash().Equal(decimal.NewFromInt(10000)))
}

func TestModel_CustomAmounts(t *testing.T) {
	m, session, _ := newTestModel(t)

	press(t, m, runes("b"))
	require.Equal(t, "buy", string(m.inputSide))

	// trading keys are typed into the input while it is focused
	press(t, m, runes("2"), runes("5"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, int64(25), session.Shares())
	assert.Empty(t, m.inputSide)

	press(t, m, runes("v"), runes("5"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, int64(20), session.Shares())

	press(t, m, runes("b"), runes("a"), runes("b"), runes("c"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, int64(20), session.Shares())
	assert.True(t, m.statusFailed)

	press(t, m, runes("v"), runes("5"), runes("0"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, int64(20), session.Shares())
	assert.Equal(t, "Not enough shares", m.status)
}

func TestModel_EscCancelsInputThenQuits(t *testing.T) {
	m, session, _ := newTestModel(t)

	press(t, m, runes("b"), runes("7"))
	cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, isQuit(cmd))
	assert.Empty(t, m.inputSide)
	assert.Equal(t, int64(0), session.Shares())

	cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, isQuit(cmd))

	cmd = press(t, m, runes("v"), tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, isQuit(cmd))
}

func TestModel_TickAdvancesPrice(t *testing.T) {
	m, session, _ := newTestModel(t)

	cmd := press(t, m, tickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Len(t, session.HistorySnapshot(), 2)

	press(t, m, tickMsg(time.Now()), tickMsg(time.Now()))
	assert.Len(t, session.HistorySnapshot(), 4)
}

func TestModel_SaveAndExport(t *testing.T) {
	m, _, dir := newTestModel(t)

	cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	press(t, m, cmd())
	assert.Equal(t, "Game saved", m.status)
	assert.FileExists(t, filepath.Join(dir, "save.json"))

	cmd = press(t, m, runes("x"))
	require.NotNil(t, cmd)
	press(t, m, cmd())
	assert.False(t, m.statusFailed)

	entries, err := os.ReadDir(filepath.Join(dir, "exports"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestModel_SaveWithoutStoreReportsFailure(t *testing.T) {
	session, err := simulation.NewSession(simulation.DefaultConfig(), nil)
	require.NoError(t, err)
	m := NewModel(session, time.Millisecond, nil)

	cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	press(t, m, cmd())
	assert.True(t, m.statusFailed)
	assert.Contains(t, m.status, "Save failed")
}

func TestModel_SaveInMemorySessionLeavesFileAlone(t *testing.T) {
	m, session, dir := newTestModel(t)
	session.DetachStore()

	cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	press(t, m, cmd())
	assert.True(t, m.statusFailed)
	assert.Contains(t, m.status, "in-memory")
	assert.NoFileExists(t, filepath.Join(dir, "save.json"))
}

func TestModel_NewGame(t *testing.T) {
	m, session, _ := newTestModel(t)

	press(t, m, runes("w"), tickMsg(time.Now()), tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, int64(0), session.Shares())
	assert.Equal(t, []float64{50}, session.HistorySnapshot())
	assert.Equal(t, "New game started", m.status)
}

func TestModel_View(t *testing.T) {
	m, _, _ := newTestModel(t)
	press(t, m, tea.WindowSizeMsg{Width: 100, Height: 40}, runes("w"))

	view := m.View()
	assert.Contains(t, view, "$9500.00")
	assert.Contains(t, view, "$500.00")
	assert.Contains(t, view, "$50.00")
	assert.Contains(t, view, "Bought 10")
	assert.Contains(t, view, "SMA20")

	press(t, m, runes("b"))
	assert.Contains(t, m.View(), "Buy amount")
}
