package setup

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
)

// Choice is the answer of the start menu.
type Choice string

const (
	ChoiceContinue Choice = "continue"
	ChoiceNewGame  Choice = "new"
)

// SaveSummary describes a found save for the start menu.
type SaveSummary struct {
	Cash   decimal.Decimal
	Shares int64
	Price  float64
}

// Value is cash plus the holding at the saved price.
func (s SaveSummary) Value() decimal.Decimal {
	return s.Cash.Add(decimal.NewFromFloat(s.Price).Mul(decimal.NewFromInt(s.Shares)))
}

func (s SaveSummary) String() string {
	return fmt.Sprintf("Cash: $%s\nShares: %d\nPrice: $%.2f\nNet worth: $%s",
		s.Cash.StringFixed(2), s.Shares, s.Price, s.Value().StringFixed(2))
}

// ChooseStart asks whether to continue the saved game or start a new one.
func ChooseStart(save SaveSummary) (Choice, error) {
	choice := ChoiceContinue

	clearScreen()
	fmt.Println(headerStyle.Render("STOCKSIM"))
	fmt.Println(stepStyle.Render("SAVED GAME FOUND"))
	fmt.Println(boxStyle.Render(save.String()))

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Choice]().
				Title("How do you want to start?").
				Options(
					huh.NewOption("Continue saved game", ChoiceContinue),
					huh.NewOption("Start a new game", ChoiceNewGame),
				).
				Value(&choice),
		),
	).Run()
	if err != nil {
		return "", err
	}

	return choice, nil
}
