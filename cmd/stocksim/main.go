// Command stocksim runs a single-stock trading game in the terminal.
// The price follows a geometric random walk; the player buys and sells
// whole shares with the keyboard. The game is saved on exit and restored
// on the next start.
//
// Usage:
//
//	stocksim --config stocksim.yaml
//	stocksim --state ./saves/game.json --seed 42 --no-menu
//	stocksim --setup (runs the configuration wizard)
//
// Environment variables (also read from .env):
//
//	STOCKSIM_STATE_PATH, STOCKSIM_STORE, STOCKSIM_REDIS_ADDR,
//	STOCKSIM_REDIS_PASSWORD, STOCKSIM_SEED, STOCKSIM_LOG_LEVEL
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/stocksim/config"
	"github.com/vadiminshakov/stocksim/internal/services/simulation"
	"github.com/vadiminshakov/stocksim/internal/setup"
	"github.com/vadiminshakov/stocksim/internal/storage/historylog"
	"github.com/vadiminshakov/stocksim/internal/storage/simstate"
	"github.com/vadiminshakov/stocksim/internal/storage/tradejournal"
	"github.com/vadiminshakov/stocksim/internal/tui"
	"github.com/vadiminshakov/stocksim/pkg/retrier"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const saveTimeout = 30 * time.Second

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Setup {
		if err := setup.RunWizard(setup.GeneratedConfig); err != nil {
			log.Fatal(err)
		}
		cfg, err = config.Load(setupArgs(os.Args[1:], setup.GeneratedConfig), config.EnvLookup(".env"))
		if err != nil {
			log.Fatal(err)
		}
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}

	err = run(cfg, logger)
	if err != nil {
		logger.Error("stocksim stopped with error", zap.Error(err))
	}
	_ = logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupArgs rewrites the command line after the wizard: the generated config
// replaces any --config and --setup is dropped, other flags are kept.
func setupArgs(args []string, generated string) []string {
	out := make([]string, 0, len(args)+2)
	for i := 0; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "-") {
			out = append(out, args[i])
			continue
		}
		name, _, hasValue := strings.Cut(strings.TrimLeft(args[i], "-"), "=")
		switch name {
		case "setup":
			continue
		case "config":
			if !hasValue {
				i++
			}
			continue
		}
		out = append(out, args[i])
	}
	return append(out, "--config", generated)
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{cfg.LogFile}
	zcfg.ErrorOutputPaths = []string{cfg.LogFile}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zcfg.Build()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []simulation.Option{
		simulation.WithStore(store),
		simulation.WithExporter(historylog.NewExporter(cfg.Storage.ExportDir)),
	}

	journal, err := tradejournal.NewWALStore(cfg.Storage.JournalDir)
	if err != nil {
		logger.Warn("trade journal disabled", zap.String("dir", cfg.Storage.JournalDir), zap.Error(err))
	} else {
		defer journal.Close()
		logJournal(journal, logger)
		opts = append(opts, simulation.WithJournal(journal))
	}

	session, err := simulation.NewSession(cfg.Simulation, logger, opts...)
	if err != nil {
		return err
	}

	play, err := startGame(ctx, session, cfg, logger)
	if err != nil || !play {
		return err
	}

	p := tea.NewProgram(tui.NewModel(session, cfg.TickInterval, logger), tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, runErr := p.Run()
	if runErr != nil {
		logger.Error("terminal ui failed", zap.Error(runErr))
	}

	// the game is saved however the session ended
	saved, err := saveOnExit(session, logger)
	if err != nil {
		return err
	}

	if saved {
		fmt.Printf("Saved. Cash $%s, %d shares at $%.2f\n",
			session.Cash().StringFixed(2), session.Shares(), session.CurrentPrice())
	} else {
		fmt.Println("Not saved: the previous save could not be read and was left untouched.")
	}
	return runErr
}

func logJournal(journal *tradejournal.WALStore, logger *zap.Logger) {
	stats, err := journal.Stats()
	if err != nil {
		logger.Warn("failed to replay trade journal", zap.Error(err))
		return
	}

	logger.Info("trade journal opened",
		zap.Int("trades", stats.Trades),
		zap.Int("buys", stats.Buys),
		zap.Int("sells", stats.Sells),
		zap.Int("sessions", stats.Sessions),
		zap.String("volume", stats.Volume.StringFixed(2)),
		zap.Uint64("last_index", stats.LastIndex))
}

func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (simulation.Store, func(), error) {
	if cfg.Storage.Backend != config.BackendRedis {
		store, err := simstate.NewFileStore(cfg.Storage.StatePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file store", zap.String("path", store.Path()))
		return store, func() {}, nil
	}

	r := retrier.New(retrier.WithOnRetry(func(attempt int, err error) {
		logger.Warn("redis is not reachable, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}))
	store, err := retrier.DoWithData(r, ctx, func(ctx context.Context) (*simstate.RedisStore, error) {
		return simstate.NewRedisStore(ctx, simstate.RedisConfig{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
			Key:      cfg.Storage.RedisKey,
		})
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect to redis")
	}

	logger.Info("using redis store", zap.String("addr", cfg.Storage.RedisAddr), zap.String("key", store.Key()))
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close redis store", zap.Error(err))
		}
	}, nil
}

// startGame loads the saved game or starts a new one. It reports false when
// the player left the start menu.
func startGame(ctx context.Context, session *simulation.Session, cfg config.Config, logger *zap.Logger) (bool, error) {
	if cfg.NewGame {
		session.StartNewGame()
		return true, nil
	}

	found, err := session.LoadGame(ctx)
	switch {
	case errors.Is(err, simstate.ErrMalformedState):
		logger.Warn("saved game is malformed, starting a new game", zap.Error(err))
		session.StartNewGame()
		return true, nil
	case err != nil:
		logger.Error("failed to load saved game, playing in memory without saving", zap.Error(err))
		session.StartNewGame()
		session.DetachStore()
		return true, nil
	case !found:
		session.StartNewGame()
		return true, nil
	case !cfg.Menu:
		return true, nil
	}

	state := session.State()
	choice, err := setup.ChooseStart(setup.SaveSummary{
		Cash:   state.Cash,
		Shares: state.Shares,
		Price:  state.Price,
	})
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if choice == setup.ChoiceNewGame {
		session.StartNewGame()
	}
	return true, nil
}

// saveOnExit saves the game with retries. It reports false when the session
// plays in memory and nothing was written.
func saveOnExit(session *simulation.Session, logger *zap.Logger) (bool, error) {
	if !session.Persistent() {
		logger.Warn("session is in-memory only, skipping save on exit")
		return false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	r := retrier.New(retrier.WithOnRetry(func(attempt int, err error) {
		logger.Warn("failed to save game, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}))
	if err := r.Do(ctx, session.SaveGame); err != nil {
		return false, errors.Wrap(err, "save game on exit")
	}
	return true, nil
}
