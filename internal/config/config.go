package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string
	Env  string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string

	SessionTTL      time.Duration
	StaleSessionAge time.Duration

	Games GameConfig
}

// GameConfig holds the tunable limits of the settlement engine. Pay tables
// are not configurable.
type GameConfig struct {
	MinBet int64 `yaml:"min_bet"`
	MaxBet int64 `yaml:"max_bet"`

	DailyBonus         int64 `yaml:"daily_bonus"`
	ReferralBonus      int64 `yaml:"referral_bonus"`
	ReferralMinDeposit int64 `yaml:"referral_min_deposit"`
	ReferralMaxClaims  int64 `yaml:"referral_max_claims"`

	CrashGrowthRate   float64       `yaml:"crash_growth_rate"`
	CrashLatencySlack time.Duration `yaml:"crash_latency_slack"`

	BetsPerMinute int `yaml:"bets_per_minute"`
}

func DefaultGameConfig() GameConfig {
	return GameConfig{
		MinBet:             10,
		MaxBet:             50000,
		DailyBonus:         50,
		ReferralBonus:      100,
		ReferralMinDeposit: 100,
		ReferralMaxClaims:  50,
		CrashGrowthRate:    0.15,
		CrashLatencySlack:  time.Second,
		BetsPerMinute:      120,
	}
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		RedisURL:  getEnv("REDIS_URL", "localhost:6379"),
		RedisPass: os.Getenv("REDIS_PASSWORD"),
		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = db

	if cfg.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", "168h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.StaleSessionAge, err = time.ParseDuration(getEnv("STALE_SESSION_AGE", "24h")); err != nil {
		return nil, fmt.Errorf("invalid STALE_SESSION_AGE: %w", err)
	}
	if cfg.StaleSessionAge >= cfg.SessionTTL {
		return nil, errors.New("STALE_SESSION_AGE must be shorter than SESSION_TTL")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	cfg.Games, err = LoadGameConfig(getEnv("GAME_CONFIG", "config.yaml"))
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadGameConfig reads limits from a YAML file on top of the defaults. A
// missing file yields the defaults.
func LoadGameConfig(path string) (GameConfig, error) {
	cfg := DefaultGameConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read game config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse game config: %w", err)
	}

	return cfg, cfg.Validate()
}

func (g GameConfig) Validate() error {
	switch {
	case g.MinBet <= 0 || g.MaxBet < g.MinBet:
		return fmt.Errorf("invalid bet limits: min=%d max=%d", g.MinBet, g.MaxBet)
	case g.DailyBonus < 0 || g.ReferralBonus < 0:
		return errors.New("bonus amounts must not be negative")
	case g.ReferralMaxClaims <= 0:
		return errors.New("referral_max_claims must be positive")
	case g.CrashGrowthRate <= 0:
		return errors.New("crash_growth_rate must be positive")
	case g.BetsPerMinute <= 0:
		return errors.New("bets_per_minute must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
