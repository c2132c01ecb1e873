package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/stocksim/internal/domain"
	"github.com/vadiminshakov/stocksim/pkg/indicators"
	"go.uber.org/zap"
)

// statsWindow bounds how many recent prices feed the indicator line.
const statsWindow = 200

// Game is what the terminal driver needs from a simulation session.
type Game interface {
	Tick() float64
	CurrentPrice() float64
	PreviousPrice() float64
	HistorySnapshot() []float64
	Cash() decimal.Decimal
	Shares() int64
	PortfolioValue() decimal.Decimal
	Buy(amount int64) (domain.Trade, domain.Outcome)
	Sell(amount int64) (domain.Trade, domain.Outcome)
	BuyMax() (domain.Trade, domain.Outcome)
	SellMax() (domain.Trade, domain.Outcome)
	StartNewGame()
	SaveGame(ctx context.Context) error
	ExportLog(ctx context.Context) (string, error)
}

// tickMsg advances the price.
type tickMsg time.Time

// actionResultMsg reports the result of a save or export.
type actionResultMsg struct {
	message string
	failed  bool
}

// Model is the terminal trading screen.
type Model struct {
	game     Game
	logger   *zap.Logger
	interval time.Duration

	keys  keyMap
	help  help.Model
	input textinput.Model
	// inputSide is the side of the focused custom amount input, empty when
	// no input is focused.
	inputSide domain.Side

	status       string
	statusFailed bool

	width  int
	height int
}

// NewModel creates the trading screen for game, stepping it every interval.
func NewModel(game Game, interval time.Duration, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	input := textinput.New()
	input.Placeholder = "shares"
	input.CharLimit = 19
	input.Width = 12

	return &Model{
		game:     game,
		logger:   logger,
		interval: interval,
		keys:     defaultKeyMap(),
		help:     help.New(),
		input:    input,
	}
}

// Init starts the price ticker.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.game.Tick()
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case actionResultMsg:
		m.setStatus(msg.message, msg.failed)
		return m, nil

	case tea.KeyMsg:
		if m.inputSide != "" {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	for i, amount := range quickAmounts {
		if key.Matches(msg, m.keys.Buy[i]) {
			m.report(m.game.Buy(amount))
			return m, nil
		}
		if key.Matches(msg, m.keys.Sell[i]) {
			m.report(m.game.Sell(amount))
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.BuyMax):
		m.report(m.game.BuyMax())
	case key.Matches(msg, m.keys.SellMax):
		m.report(m.game.SellMax())
	case key.Matches(msg, m.keys.CustomBuy):
		return m, m.focusInput(domain.SideBuy)
	case key.Matches(msg, m.keys.CustomSell):
		return m, m.focusInput(domain.SideSell)
	case key.Matches(msg, m.keys.Save):
		return m, m.save()
	case key.Matches(msg, m.keys.Export):
		return m, m.export()
	case key.Matches(msg, m.keys.NewGame):
		m.game.StartNewGame()
		m.setStatus("New game started", false)
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.blurInput()
		return m, nil
	case tea.KeyEnter:
		side := m.inputSide
		amount, ok := domain.ParseAmount(m.input.Value())
		m.blurInput()
		if !ok {
			m.setStatus("Enter a positive whole number of shares", true)
			return m, nil
		}
		if side == domain.SideBuy {
			m.report(m.game.Buy(amount))
		} else {
			m.report(m.game.Sell(amount))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) focusInput(side domain.Side) tea.Cmd {
	m.inputSide = side
	m.input.Reset()
	return m.input.Focus()
}

func (m *Model) blurInput() {
	m.inputSide = ""
	m.input.Reset()
	m.input.Blur()
}

func (m *Model) save() tea.Cmd {
	return func() tea.Msg {
		if err := m.game.SaveGame(context.Background()); err != nil {
			m.logger.Error("failed to save game", zap.Error(err))
			return actionResultMsg{message: "Save failed: " + err.Error(), failed: true}
		}
		return actionResultMsg{message: "Game saved"}
	}
}

func (m *Model) export() tea.Cmd {
	return func() tea.Msg {
		path, err := m.game.ExportLog(context.Background())
		if err != nil {
			m.logger.Error("failed to export history", zap.Error(err))
			return actionResultMsg{message: "Export failed: " + err.Error(), failed: true}
		}
		return actionResultMsg{message: "History exported to " + path}
	}
}

func (m *Model) report(trade domain.Trade, outcome domain.Outcome) {
	switch outcome {
	case domain.OutcomeFilled:
		verb := "Bought"
		if trade.Side == domain.SideSell {
			verb = "Sold"
		}
		m.setStatus(fmt.Sprintf("%s %d @ $%.2f", verb, trade.Amount, trade.Price), false)
	case domain.OutcomeInsufficientCash:
		m.setStatus("Not enough cash", true)
	case domain.OutcomeInsufficientShares:
		m.setStatus("Not enough shares", true)
	case domain.OutcomeInvalidAmount:
		m.setStatus("Nothing to trade", true)
	default:
		m.setStatus("Trade rejected: "+outcome.String(), true)
	}
}

func (m *Model) setStatus(text string, failed bool) {
	m.status = text
	m.statusFailed = failed
}

// View renders the screen.
func (m *Model) View() string {
	price := m.game.CurrentPrice()
	priceStyle := upStyle
	if price < m.game.PreviousPrice() {
		priceStyle = downStyle
	}

	account := lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render("Cash       ")+valueStyle.Render("$"+m.game.Cash().StringFixed(2)),
		labelStyle.Render("Shares     ")+valueStyle.Render(fmt.Sprintf("%d", m.game.Shares())),
		labelStyle.Render("Portfolio  ")+valueStyle.Render("$"+m.game.PortfolioValue().StringFixed(2)),
	)
	quote := lipgloss.JoinVertical(lipgloss.Right,
		labelStyle.Render("Stock price"),
		priceStyle.Render(fmt.Sprintf("$%.2f", price)),
	)
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(account),
		panelStyle.Render(quote),
	)

	history := m.game.HistorySnapshot()
	chartWidth, chartHeight := defaultChartWidth, defaultChartHeight
	if m.width > 0 {
		chartWidth = max(m.width-15, 10)
	}
	if m.height > 0 {
		chartHeight = max(m.height-20, 5)
	}
	chart := panelStyle.Render(renderChart(history, chartWidth, chartHeight))

	sections := []string{
		titleStyle.Render("STOCKSIM"),
		header,
		chart,
		m.renderStats(history),
	}
	if m.inputSide != "" {
		label := "Buy amount"
		if m.inputSide == domain.SideSell {
			label = "Sell amount"
		}
		sections = append(sections, focusedPanelStyle.Render(labelStyle.Render(label+" ")+m.input.View()))
	}
	if m.status != "" {
		style := statusOKStyle
		if m.statusFailed {
			style = statusWarnStyle
		}
		sections = append(sections, style.Render(m.status))
	}
	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderStats(history []float64) string {
	if len(history) > statsWindow {
		history = history[len(history)-statsWindow:]
	}
	s := indicators.Summarize(history)

	format := func(name string, v float64, ok bool) string {
		if !ok {
			return labelStyle.Render(name+" ") + labelStyle.Render("n/a")
		}
		return labelStyle.Render(name+" ") + valueStyle.Render(fmt.Sprintf("%.2f", v))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		format(fmt.Sprintf("SMA%d", indicators.SummaryMAPeriod), s.SMA, s.HasSMA), "   ",
		format(fmt.Sprintf("EMA%d", indicators.SummaryMAPeriod), s.EMA, s.HasEMA), "   ",
		format(fmt.Sprintf("RSI%d", indicators.SummaryRSIPeriod), s.RSI, s.HasRSI),
	)
}
