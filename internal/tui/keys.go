package tui

import "github.com/charmbracelet/bubbles/key"

// quickAmounts are the lot sizes of the one-key buy and sell bindings.
var quickAmounts = [4]int64{1, 10, 50, 100}

type keyMap struct {
	Buy        [4]key.Binding
	Sell       [4]key.Binding
	BuyMax     key.Binding
	SellMax    key.Binding
	CustomBuy  key.Binding
	CustomSell key.Binding
	Save       key.Binding
	Export     key.Binding
	NewGame    key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Buy: [4]key.Binding{
			key.NewBinding(key.WithKeys("q"), key.WithHelp("q/w/e/r", "buy 1/10/50/100")),
			key.NewBinding(key.WithKeys("w")),
			key.NewBinding(key.WithKeys("e")),
			key.NewBinding(key.WithKeys("r")),
		},
		Sell: [4]key.Binding{
			key.NewBinding(key.WithKeys("a"), key.WithHelp("a/s/d/f", "sell 1/10/50/100")),
			key.NewBinding(key.WithKeys("s")),
			key.NewBinding(key.WithKeys("d")),
			key.NewBinding(key.WithKeys("f")),
		},
		BuyMax:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "buy max")),
		SellMax:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "sell max")),
		CustomBuy:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "custom buy")),
		CustomSell: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "custom sell")),
		Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Export:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export")),
		NewGame:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new game")),
		Quit:       key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Buy[0], k.Sell[0], k.BuyMax, k.SellMax, k.CustomBuy, k.CustomSell, k.Save, k.Export, k.NewGame, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Buy[0], k.BuyMax, k.CustomBuy},
		{k.Sell[0], k.SellMax, k.CustomSell},
		{k.Save, k.Export, k.NewGame, k.Quit},
	}
}
