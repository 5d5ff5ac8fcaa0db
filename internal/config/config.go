package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrInvalidConfig               = errors.New("invalid configuration")
)

// Corpus source kinds.
const (
	CorpusSourceXLSX     = "xlsx"
	CorpusSourceYAML     = "yaml"
	CorpusSourcePostgres = "postgres"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string   `mapstructure:"env"`      // current application environment (local, dev, production etc)
	TelegramAPIToken string   `mapstructure:"-"`        // Telegram API token loaded from environment
	Log              Log      `mapstructure:"log"`      // logging section
	Corpus           Corpus   `mapstructure:"corpus"`   // word corpus section
	Ratings          Ratings  `mapstructure:"ratings"`  // rating file section
	Quiz             Quiz     `mapstructure:"quiz"`     // quiz session section
	Rating           Rating   `mapstructure:"rating"`   // Elo section
	DB               DB       `mapstructure:"database"` // database configuration section
	Redis            Redis    `mapstructure:"redis"`    // optional shared session lock
	Telegram         Telegram `mapstructure:"telegram"` // bot client section
}

type Log struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// Corpus selects where word groups are loaded from.
type Corpus struct {
	Source       string `mapstructure:"source"`        // xlsx, yaml or postgres
	Path         string `mapstructure:"path"`          // workbook or YAML file
	FallbackPath string `mapstructure:"fallback_path"` // optional fallback workbook (xlsx only)
}

type Ratings struct {
	Path string `mapstructure:"path"` // CSV file with one user_id,rating record per line
}

// Quiz holds quiz session defaults and limits.
type Quiz struct {
	DefaultRounds      int           `mapstructure:"default_rounds"`
	DefaultRoundLength int           `mapstructure:"default_round_length"` // seconds
	MaxRounds          int           `mapstructure:"max_rounds"`
	MaxRoundLength     int           `mapstructure:"max_round_length"` // seconds
	Tick               time.Duration `mapstructure:"tick"`             // length of one countdown second
	Pause              time.Duration `mapstructure:"pause"`            // pause between rounds
	Concurrency        string        `mapstructure:"concurrency"`      // serialize or reject
	LeaderboardSize    int           `mapstructure:"leaderboard_size"`
}

type Rating struct {
	KFactor float64 `mapstructure:"k_factor"`
	Initial float64 `mapstructure:"initial"`
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Redis enables the shared session lock when Addr is set.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"-"` // loaded from environment
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type Telegram struct {
	Debug       bool `mapstructure:"debug"`
	PollTimeout int  `mapstructure:"poll_timeout"` // seconds
}

// Token returns the Telegram API token if it is configured.
func (c *Config) Token() (string, error) {
	if c.TelegramAPIToken == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return c.TelegramAPIToken, nil
}

// Load reads configuration from config files, a .env file and environment
// variables. configFile overrides the default ./config/config.yaml lookup.
func Load(configFile string) (*Config, error) {
	// Values already set in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Initialize Viper instance and base config options.
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")
	cfg.Redis.Password = v.GetString("redis_password")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("log.level", "info")

	v.SetDefault("corpus.source", CorpusSourceXLSX)
	v.SetDefault("corpus.path", "words/Word-Groups-with-meanings.xlsx")
	v.SetDefault("corpus.fallback_path", "words/words.xlsx")
	v.SetDefault("ratings.path", "ratings.csv")

	v.SetDefault("quiz.default_rounds", 5)
	v.SetDefault("quiz.default_round_length", 10)
	v.SetDefault("quiz.max_rounds", 50)
	v.SetDefault("quiz.max_round_length", 120)
	v.SetDefault("quiz.tick", "1s")
	v.SetDefault("quiz.pause", "2s")
	v.SetDefault("quiz.concurrency", "serialize")
	v.SetDefault("quiz.leaderboard_size", 10)

	v.SetDefault("rating.k_factor", 32)
	v.SetDefault("rating.initial", 1000)

	v.SetDefault("database.max_connections", 4)
	v.SetDefault("database.max_conn_lifetime", "30s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "30m")

	v.SetDefault("telegram.debug", false)
	v.SetDefault("telegram.poll_timeout", 60)
}

func (c *Config) validate() error {
	switch c.Corpus.Source {
	case CorpusSourceXLSX, CorpusSourceYAML:
		if c.Corpus.Path == "" {
			return fmt.Errorf("%w: corpus.path is required for %s corpus", ErrInvalidConfig, c.Corpus.Source)
		}
	case CorpusSourcePostgres:
		if _, err := c.DB.DSN(); err != nil {
			return fmt.Errorf("%w: DATABASE_URL is required for postgres corpus", err)
		}
	default:
		return fmt.Errorf("%w: unknown corpus.source %q", ErrInvalidConfig, c.Corpus.Source)
	}

	switch c.Quiz.Concurrency {
	case "serialize", "reject":
	default:
		return fmt.Errorf("%w: quiz.concurrency must be serialize or reject", ErrInvalidConfig)
	}

	if c.Quiz.DefaultRounds < 1 || c.Quiz.DefaultRoundLength < 1 {
		return fmt.Errorf("%w: quiz defaults must be positive", ErrInvalidConfig)
	}
	if c.Quiz.Tick <= 0 {
		return fmt.Errorf("%w: quiz.tick must be positive", ErrInvalidConfig)
	}
	if c.Ratings.Path == "" {
		return fmt.Errorf("%w: ratings.path is required", ErrInvalidConfig)
	}

	return nil
}
