package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pscheid92/veritas/internal/domain"
	"go-simpler.org/env"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	AppEnv       string `env:"APP_ENV" default:"development"`
	Port         string `env:"PORT" default:"8080"`
	StoreBackend string `env:"STORE_BACKEND" default:"postgres"`
	DatabaseURL  string `env:"DATABASE_URL"`
	RedisURL     string `env:"REDIS_URL"`
	LogLevel     string `env:"LOG_LEVEL" default:"info"`
	LogFormat    string `env:"LOG_FORMAT" default:"text"`

	FeedLimit        int    `env:"FEED_LIMIT" default:"100"`
	MaxContentLength int    `env:"MAX_CONTENT_LENGTH" default:"2000"`
	SweepSchedule    string `env:"SWEEP_SCHEDULE" default:"@every 5m"`
	SweepBatchSize   int    `env:"SWEEP_BATCH_SIZE" default:"200"`

	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" default:"20"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" default:"40"`
	ActionRateCapacity int     `env:"ACTION_RATE_CAPACITY" default:"30"`
	ActionRatePerMin   int     `env:"ACTION_RATE_PER_MINUTE" default:"30"`

	Rules Rules
}

// Rules mirrors domain.Rules with env bindings.
type Rules struct {
	InitialReputation float64       `env:"RULES_REP_INITIAL" default:"50"`
	MaxReputation     float64       `env:"RULES_REP_MAX" default:"100"`
	SeniorThreshold   float64       `env:"RULES_REP_SENIOR" default:"80"`
	MidThreshold      float64       `env:"RULES_REP_MID_THRESHOLD" default:"60"`
	VoteMultiplier    float64       `env:"RULES_VOTE_MULTIPLIER" default:"0.02"`
	CostLow           float64       `env:"RULES_COST_LOW" default:"5"`
	CostHigh          float64       `env:"RULES_COST_HIGH" default:"10"`
	RewardConsensus   float64       `env:"RULES_REWARD_CONSENSUS" default:"5"`
	PenaltySlash      float64       `env:"RULES_PENALTY_SLASH" default:"15"`
	JitterMin         time.Duration `env:"RULES_JITTER_MIN" default:"1m"`
	JitterMax         time.Duration `env:"RULES_JITTER_MAX" default:"60m"`
	SettlementWindow  time.Duration `env:"RULES_SETTLEMENT_WINDOW" default:"168h"`
	ReviewDuration    time.Duration `env:"RULES_REVIEW_DURATION" default:"2h"`
	RejectionRate     float64       `env:"RULES_REJECTION_RATE" default:"0.4"`
}

func (r Rules) Domain() domain.Rules {
	return domain.Rules{
		InitialReputation: r.InitialReputation,
		MaxReputation:     r.MaxReputation,
		SeniorThreshold:   r.SeniorThreshold,
		MidThreshold:      r.MidThreshold,
		VoteMultiplier:    r.VoteMultiplier,
		CostLow:           r.CostLow,
		CostHigh:          r.CostHigh,
		RewardConsensus:   r.RewardConsensus,
		PenaltySlash:      r.PenaltySlash,
		JitterMin:         r.JitterMin,
		JitterMax:         r.JitterMax,
		SettlementWindow:  r.SettlementWindow,
		ReviewDuration:    r.ReviewDuration,
		RejectionRate:     r.RejectionRate,
	}
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.StoreBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
	case BackendMemory:
		if cfg.AppEnv == "production" {
			return errors.New("STORE_BACKEND=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMemory, cfg.StoreBackend)
	}

	if cfg.AppEnv == "production" && cfg.DatabaseURL != "" {
		if mode := sslMode(cfg.DatabaseURL); mode == "disable" || mode == "allow" {
			return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
		}
	}

	if cfg.FeedLimit <= 0 {
		return errors.New("FEED_LIMIT must be positive")
	}
	if cfg.MaxContentLength <= 0 {
		return errors.New("MAX_CONTENT_LENGTH must be positive")
	}
	if cfg.RateLimitPerSecond <= 0 || cfg.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}
	if cfg.ActionRateCapacity <= 0 || cfg.ActionRatePerMin <= 0 {
		return errors.New("ACTION_RATE_CAPACITY and ACTION_RATE_PER_MINUTE must be positive")
	}

	if err := cfg.Rules.Domain().Validate(); err != nil {
		return fmt.Errorf("invalid rules: %w", err)
	}

	return nil
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Query().Get("sslmode"))
}
