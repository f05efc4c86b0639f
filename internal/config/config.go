// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment keys that map onto config paths.
// GAMEBOT_BOT__TOKEN -> bot.token
const EnvPrefix = "GAMEBOT_"

type RuntimeConfig struct {
	Dev       bool `koanf:"-"`
	Preflight bool `koanf:"preflight"` // run buildcheck before starting the bot
}

type BotConfig struct {
	Token           string        `koanf:"token"`
	Mode            string        `koanf:"mode"` // polling|noop
	Username        string        `koanf:"username"`
	Workers         int           `koanf:"workers"` // update workers
	AdminIDs        []int64       `koanf:"admin_ids"`
	LogChannelID    int64         `koanf:"log_channel_id"`
	Language        string        `koanf:"language"`
	RateLimit       int           `koanf:"rate_limit"` // messages per user per minute
	BroadcastPacing time.Duration `koanf:"broadcast_pacing"`
}

type GameConfig struct {
	JoinWindow      time.Duration `koanf:"join_window"`
	QuizRound       time.Duration `koanf:"quiz_round"`
	GuessRound      time.Duration `koanf:"guess_round"`
	TurnTimeout     time.Duration `koanf:"turn_timeout"`
	InactivityLimit time.Duration `koanf:"inactivity_limit"`
	TickInterval    time.Duration `koanf:"tick_interval"`
	QuizItems       int           `koanf:"quiz_items"`
	GuessItems      int           `koanf:"guess_items"`
}

type LogConfig struct {
	Level    string `koanf:"level"`    // trace|debug|info|warn|error
	Format   string `koanf:"format"`   // json|console
	Sampling bool   `koanf:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port        int           `koanf:"port"`
	AdminAPIKey string        `koanf:"admin_api_key"`
	JWTSecret   string        `koanf:"jwt_secret"`
	TokenTTL    time.Duration `koanf:"token_ttl"`
}

type DatabaseConfig struct {
	URL      string `koanf:"url"`
	MaxConns int32  `koanf:"max_conns"`
}

type RedisConfig struct {
	URL      string `koanf:"url"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type BuildCheckConfig struct {
	Module  string `koanf:"module"`
	Version string `koanf:"version"`
}

type Config struct {
	Bot        BotConfig        `koanf:"bot"`
	Game       GameConfig       `koanf:"game"`
	Log        LogConfig        `koanf:"log"`
	HTTP       HTTPConfig       `koanf:"http"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	BuildCheck BuildCheckConfig `koanf:"buildcheck"`
	Runtime    RuntimeConfig    `koanf:"runtime"`
}

// Defaults returns the configuration used when neither the file nor the
// environment provide a value.
func Defaults() Config {
	return Config{
		Bot: BotConfig{
			Mode:            "polling",
			Workers:         8,
			Language:        "hi",
			RateLimit:       30,
			BroadcastPacing: 100 * time.Millisecond,
		},
		Game: GameConfig{
			JoinWindow:      60 * time.Second,
			QuizRound:       20 * time.Second,
			GuessRound:      60 * time.Second,
			TurnTimeout:     60 * time.Second,
			InactivityLimit: 5 * time.Minute,
			TickInterval:    time.Second,
			QuizItems:       10,
			GuessItems:      5,
		},
		Log:      LogConfig{Level: "info", Format: "json"},
		HTTP:     HTTPConfig{Port: 8000, TokenTTL: 30 * time.Minute},
		Database: DatabaseConfig{MaxConns: 10},
		BuildCheck: BuildCheckConfig{
			Module:  "github.com/go-telegram-bot-api/telegram-bot-api/v5",
			Version: "v5.5.1",
		},
		Runtime: RuntimeConfig{Preflight: true},
	}
}

// LoadConfig layers defaults, the YAML file at path (optional when missing)
// and the environment, then validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := applyLegacyEnv(&cfg); err != nil {
		return nil, err
	}
	normalize(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// applyLegacyEnv honours the plain variable names used by existing deployments.
func applyLegacyEnv(cfg *Config) error {
	for _, name := range []string{"BOT_TOKEN", "YOUR_BOT_TOKEN"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" && cfg.Bot.Token == "" {
			cfg.Bot.Token = v
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && cfg.Database.URL == "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" && cfg.Redis.URL == "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.HTTP.Port = p
	}
	if v := os.Getenv("ADMIN_USER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ADMIN_USER_ID: %w", err)
		}
		cfg.Bot.AdminIDs = appendUnique(cfg.Bot.AdminIDs, id)
	}
	if v := os.Getenv("LOG_CHANNEL_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LOG_CHANNEL_ID: %w", err)
		}
		cfg.Bot.LogChannelID = id
	}
	return nil
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func normalize(cfg *Config) {
	d := Defaults()
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = d.Bot.Workers
	}
	if cfg.Bot.RateLimit <= 0 {
		cfg.Bot.RateLimit = d.Bot.RateLimit
	}
	if cfg.Game.TickInterval <= 0 {
		cfg.Game.TickInterval = d.Game.TickInterval
	}
	if cfg.Game.QuizItems <= 0 {
		cfg.Game.QuizItems = d.Game.QuizItems
	}
	if cfg.Game.GuessItems <= 0 {
		cfg.Game.GuessItems = d.Game.GuessItems
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = d.Log.Format
	}
	if cfg.HTTP.TokenTTL <= 0 {
		cfg.HTTP.TokenTTL = d.HTTP.TokenTTL
	}
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	switch c.Bot.Mode {
	case "polling":
		if c.Bot.Token == "" {
			return errors.New("bot.token is required")
		}
	case "noop":
	default:
		return fmt.Errorf("bot.mode must be polling or noop, got %q", c.Bot.Mode)
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	return nil
}
