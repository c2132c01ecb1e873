package setup

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/stocksim/config"
	"gopkg.in/yaml.v3"
)

// GeneratedConfig is where RunWizard writes its result.
const GeneratedConfig = "stocksim.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)

	boxStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1)
)

// Answers holds the raw wizard input.
type Answers struct {
	InitialPrice string
	InitialCash  string
	Drift        string
	Volatility   string
	Seed         string
	Tick         string
	Backend      string
	StatePath    string
	RedisAddr    string
}

// DefaultAnswers pre-fills the wizard with the default game.
func DefaultAnswers() Answers {
	def := config.Default()
	return Answers{
		InitialPrice: strconv.FormatFloat(def.Simulation.InitialPrice, 'f', -1, 64),
		InitialCash:  def.Simulation.InitialCash.String(),
		Drift:        strconv.FormatFloat(def.Simulation.Params.Drift, 'f', -1, 64),
		Volatility:   strconv.FormatFloat(def.Simulation.Params.Volatility, 'f', -1, 64),
		Seed:         "0",
		Tick:         def.TickInterval.String(),
		Backend:      def.Storage.Backend,
		StatePath:    def.Storage.StatePath,
	}
}

// ConfigTmp converts the answers into the YAML document read by config.Load.
func (a Answers) ConfigTmp() (config.ConfigTmp, error) {
	var c config.ConfigTmp
	def := config.Default()

	price, err := parsePositive(a.InitialPrice)
	if err != nil {
		return c, fmt.Errorf("initial price: %w", err)
	}
	if err := validateCash(a.InitialCash); err != nil {
		return c, fmt.Errorf("initial cash: %w", err)
	}
	drift, err := strconv.ParseFloat(a.Drift, 64)
	if err != nil {
		return c, fmt.Errorf("drift: %w", err)
	}
	volatility, err := parseNonNegative(a.Volatility)
	if err != nil {
		return c, fmt.Errorf("volatility: %w", err)
	}
	seed, err := strconv.ParseUint(a.Seed, 10, 64)
	if err != nil {
		return c, fmt.Errorf("seed: %w", err)
	}
	if err := validateDuration(a.Tick); err != nil {
		return c, fmt.Errorf("tick: %w", err)
	}

	c.Simulation.Drift = drift
	c.Simulation.Volatility = volatility
	c.Simulation.Floor = def.Simulation.Params.Floor
	c.Simulation.HistoryCapacity = def.Simulation.HistoryCapacity
	c.Simulation.InitialPrice = price
	c.Simulation.InitialCash = a.InitialCash
	c.Simulation.Seed = seed
	c.Simulation.TickInterval = a.Tick

	c.Storage.Backend = a.Backend
	c.Storage.StatePath = a.StatePath
	c.Storage.RedisAddr = a.RedisAddr
	c.Storage.RedisKey = def.Storage.RedisKey
	c.Storage.JournalDir = def.Storage.JournalDir
	c.Storage.ExportDir = def.Storage.ExportDir

	c.Log.Level = def.LogLevel
	c.Log.File = def.LogFile

	return c, nil
}

// WriteConfig stores the answers as YAML at path.
func WriteConfig(path string, a Answers) error {
	c, err := a.ConfigTmp()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// RunWizard asks for the game parameters and writes them to path.
func RunWizard(path string) error {
	a := DefaultAnswers()
	var confirm bool

	// step 1: market
	clearScreen()
	fmt.Println(headerStyle.Render("STOCKSIM SETUP"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Tune the market before the bell rings.\n"))
	fmt.Println(stepStyle.Render("STEP 1: MARKET"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Starting price").
				Description("Must be at least 1").
				Value(&a.InitialPrice).
				Validate(func(s string) error {
					v, err := parsePositive(s)
					if err != nil {
						return err
					}
					if v < 1 {
						return fmt.Errorf("must be at least 1")
					}
					return nil
				}),
			huh.NewInput().
				Title("Drift per step").
				Description("Expected relative change per tick (e.g. 0.0005)").
				Value(&a.Drift).
				Validate(func(s string) error {
					_, err := strconv.ParseFloat(s, 64)
					return err
				}),
			huh.NewInput().
				Title("Volatility per step").
				Description("Standard deviation of the relative change (e.g. 0.02)").
				Value(&a.Volatility).
				Validate(func(s string) error {
					_, err := parseNonNegative(s)
					return err
				}),
			huh.NewInput().
				Title("Seed").
				Description("0 picks a random seed").
				Value(&a.Seed).
				Validate(func(s string) error {
					_, err := strconv.ParseUint(s, 10, 64)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 2: player
	clearScreen()
	fmt.Println(headerStyle.Render("STOCKSIM SETUP"))
	fmt.Println(stepStyle.Render("STEP 2: PLAYER"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Starting cash").
				Value(&a.InitialCash).
				Validate(validateCash),
			huh.NewInput().
				Title("Tick interval").
				Description("Duration string (e.g. 250ms, 1s)").
				Value(&a.Tick).
				Validate(validateDuration),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 3: storage
	clearScreen()
	fmt.Println(headerStyle.Render("STOCKSIM SETUP"))
	fmt.Println(stepStyle.Render("STEP 3: SAVES"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should the game be saved?").
				Options(
					huh.NewOption("JSON file", config.BackendFile),
					huh.NewOption("Redis", config.BackendRedis),
				).
				Value(&a.Backend),
		),
	).Run()
	if err != nil {
		return err
	}

	var storageField huh.Field
	if a.Backend == config.BackendRedis {
		a.RedisAddr = "localhost:6379"
		storageField = huh.NewInput().
			Title("Redis address").
			Value(&a.RedisAddr).
			Validate(notEmpty)
	} else {
		storageField = huh.NewInput().
			Title("Save file").
			Value(&a.StatePath).
			Validate(notEmpty)
	}
	if err := huh.NewForm(huh.NewGroup(storageField)).Run(); err != nil {
		return err
	}

	// confirmation
	clearScreen()
	fmt.Println(headerStyle.Render("STOCKSIM SETUP"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))
	fmt.Println(boxStyle.Render(summarize(a)))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save configuration?").
				Affirmative("Yes, save and play").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	if err := WriteConfig(path, a); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\nConfiguration saved to %s\nStarting game...", path)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

func summarize(a Answers) string {
	storage := a.StatePath
	if a.Backend == config.BackendRedis {
		storage = a.RedisAddr
	}
	return fmt.Sprintf(
		"Price: %s\nCash: %s\nDrift: %s\nVolatility: %s\nSeed: %s\nTick: %s\nSaves: %s (%s)\n",
		a.InitialPrice, a.InitialCash, a.Drift, a.Volatility, a.Seed, a.Tick, a.Backend, storage,
	)
}

func clearScreen() {
	fmt.Print("\033[H\033[2J")
}

func parsePositive(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("must be a valid number")
	}
	if v <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return v, nil
}

func parseNonNegative(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("must be a valid number")
	}
	if v < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return v, nil
}

func validateCash(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.IsNegative() {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func notEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}
