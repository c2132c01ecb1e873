package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/stocksim/internal/domain"
	"github.com/vadiminshakov/stocksim/internal/services/simulation"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"

	defaultTickInterval = 250 * time.Millisecond
	defaultStatePath    = "./saves/stocksim.json"
	defaultJournalDir   = "./wal/trades"
	defaultExportDir    = "./exports"
	defaultLogFile      = "stocksim.log"
	defaultRedisKey     = "stocksim:state"
	envFile             = ".env"
)

type Config struct {
	Simulation   simulation.Config
	TickInterval time.Duration
	Storage      StorageConfig
	LogLevel     string
	LogFile      string
	// NewGame skips loading the save file.
	NewGame bool
	// Menu asks whether to continue a found save or start over.
	Menu bool
	// Setup runs the configuration wizard before the game.
	Setup bool
}

type StorageConfig struct {
	Backend       string
	StatePath     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
	JournalDir    string
	ExportDir     string
}

// ConfigTmp mirrors the YAML file. Absent keys keep their defaults.
type ConfigTmp struct {
	Simulation struct {
		Drift           float64 `yaml:"drift"`
		Volatility      float64 `yaml:"volatility"`
		Floor           float64 `yaml:"floor"`
		HistoryCapacity int     `yaml:"history_capacity"`
		InitialPrice    float64 `yaml:"initial_price"`
		InitialCash     string  `yaml:"initial_cash"`
		Seed            uint64  `yaml:"seed"`
		TickInterval    string  `yaml:"tick_interval"`
	} `yaml:"simulation"`
	Storage struct {
		Backend       string `yaml:"backend"`
		StatePath     string `yaml:"state_path"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		RedisKey      string `yaml:"redis_key"`
		JournalDir    string `yaml:"journal_dir"`
		ExportDir     string `yaml:"export_dir"`
	} `yaml:"storage"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Menu *bool `yaml:"menu"`
}

// Default returns the configuration of the reference game.
func Default() Config {
	return Config{
		Simulation:   simulation.DefaultConfig(),
		TickInterval: defaultTickInterval,
		Storage: StorageConfig{
			Backend:    BackendFile,
			StatePath:  defaultStatePath,
			RedisKey:   defaultRedisKey,
			JournalDir: defaultJournalDir,
			ExportDir:  defaultExportDir,
		},
		LogLevel: "info",
		LogFile:  defaultLogFile,
		Menu:     true,
	}
}

// Get builds the configuration from the command line, the optional YAML
// file, a .env file in the working directory and the process environment.
func Get() (Config, error) {
	return Load(os.Args[1:], EnvLookup(envFile))
}

// EnvLookup returns a lookup over the process environment, falling back to
// the variables of the given .env file. A missing file is ignored.
func EnvLookup(path string) func(string) (string, bool) {
	fileEnv, err := godotenv.Read(path)
	if err != nil {
		fileEnv = nil
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}
}

// Load layers defaults, YAML file, environment and flags, in that order.
func Load(args []string, lookup func(string) (string, bool)) (Config, error) {
	fs := flag.NewFlagSet("stocksim", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml config")
	statePath := fs.String("state", "", "path to the save file")
	backend := fs.String("store", "", "save backend: file or redis")
	seed := fs.Uint64("seed", 0, "seed for the price process, 0 means random")
	newGame := fs.Bool("new", false, "start a new game instead of loading the save")
	noMenu := fs.Bool("no-menu", false, "do not ask whether to continue a saved game")
	tick := fs.Duration("tick", 0, "interval between price steps, example: 250ms")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	setup := fs.Bool("setup", false, "run the configuration wizard")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if *configPath != "" {
		var err error
		cfg, err = getYaml(*configPath, cfg)
		if err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "state":
			cfg.Storage.StatePath = *statePath
		case "store":
			cfg.Storage.Backend = *backend
		case "seed":
			cfg.Simulation.Seed = *seed
		case "new":
			cfg.NewGame = *newGame
		case "no-menu":
			cfg.Menu = !*noMenu
		case "tick":
			cfg.TickInterval = *tick
		case "log-level":
			cfg.LogLevel = *logLevel
		case "setup":
			cfg.Setup = *setup
		}
	})

	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getYaml(path string, defaults Config) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var c ConfigTmp
	c.Simulation.Drift = defaults.Simulation.Params.Drift
	c.Simulation.Volatility = defaults.Simulation.Params.Volatility
	c.Simulation.Floor = defaults.Simulation.Params.Floor
	c.Simulation.HistoryCapacity = defaults.Simulation.HistoryCapacity
	c.Simulation.InitialPrice = defaults.Simulation.InitialPrice
	c.Simulation.Seed = defaults.Simulation.Seed
	c.Storage.Backend = defaults.Storage.Backend
	c.Storage.StatePath = defaults.Storage.StatePath
	c.Storage.RedisKey = defaults.Storage.RedisKey
	c.Storage.JournalDir = defaults.Storage.JournalDir
	c.Storage.ExportDir = defaults.Storage.ExportDir
	c.Log.Level = defaults.LogLevel
	c.Log.File = defaults.LogFile

	if err := yaml.Unmarshal(f, &c); err != nil {
		return Config{}, fmt.Errorf("incorrect yaml config %s: %w", path, err)
	}

	cfg := defaults
	cfg.Simulation.Params = domain.PriceParams{
		Drift:      c.Simulation.Drift,
		Volatility: c.Simulation.Volatility,
		Floor:      c.Simulation.Floor,
	}
	cfg.Simulation.HistoryCapacity = c.Simulation.HistoryCapacity
	cfg.Simulation.InitialPrice = c.Simulation.InitialPrice
	cfg.Simulation.Seed = c.Simulation.Seed

	if c.Simulation.InitialCash != "" {
		cash, err := decimal.NewFromString(c.Simulation.InitialCash)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'initial_cash' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.Simulation.InitialCash = cash
	}
	if c.Simulation.TickInterval != "" {
		tick, err := time.ParseDuration(c.Simulation.TickInterval)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'tick_interval' param in yaml config (e.g. 250ms), error: %w", err)
		}
		cfg.TickInterval = tick
	}

	cfg.Storage = StorageConfig{
		Backend:       c.Storage.Backend,
		StatePath:     c.Storage.StatePath,
		RedisAddr:     c.Storage.RedisAddr,
		RedisPassword: c.Storage.RedisPassword,
		RedisDB:       c.Storage.RedisDB,
		RedisKey:      c.Storage.RedisKey,
		JournalDir:    c.Storage.JournalDir,
		ExportDir:     c.Storage.ExportDir,
	}
	cfg.LogLevel = c.Log.Level
	cfg.LogFile = c.Log.File
	if c.Menu != nil {
		cfg.Menu = *c.Menu
	}

	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	if v, ok := lookup("STOCKSIM_STATE_PATH"); ok && v != "" {
		cfg.Storage.StatePath = v
	}
	if v, ok := lookup("STOCKSIM_STORE"); ok && v != "" {
		cfg.Storage.Backend = v
	}
	if v, ok := lookup("STOCKSIM_REDIS_ADDR"); ok && v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v, ok := lookup("STOCKSIM_REDIS_PASSWORD"); ok {
		cfg.Storage.RedisPassword = v
	}
	if v, ok := lookup("STOCKSIM_SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid STOCKSIM_SEED=%s: %w", v, err)
		}
		cfg.Simulation.Seed = seed
	}
	if v, ok := lookup("STOCKSIM_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("invalid tick interval %s, must be positive", c.TickInterval)
	}

	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.StatePath == "" {
			return fmt.Errorf("state path is required for the file backend")
		}
	case BackendRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	return nil
}
