package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/ipc/ipc/internal/platform/db"
	"github.com/ipc/ipc/internal/stewardship"
)

type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	DBSchema             string        `mapstructure:"DB_SCHEMA"`
	CORSOrigins          []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS         float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst       int           `mapstructure:"RATE_LIMIT_BURST"`
	MaxUploadSize        string        `mapstructure:"MAX_UPLOAD_SIZE"`
	RequestTimeout       time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ReassessAfterDays    int           `mapstructure:"REASSESS_AFTER_DAYS"`
	ProphylaxisTerms     []string      `mapstructure:"PROPHYLAXIS_TERMS"`
	BacterialSourceTerms []string      `mapstructure:"BACTERIAL_SOURCE_TERMS"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_SCHEMA",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "MAX_UPLOAD_SIZE", "REQUEST_TIMEOUT",
	"REASSESS_AFTER_DAYS", "PROPHYLAXIS_TERMS", "BACTERIAL_SOURCE_TERMS",
}

// Load reads .env (when present) and the environment. DATABASE_URL is
// required; everything else has a default.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	defaults := stewardship.DefaultHeuristics()
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DB_SCHEMA", "ipc")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("MAX_UPLOAD_SIZE", "5M")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("REASSESS_AFTER_DAYS", defaults.ReassessAfterDays)
	v.SetDefault("PROPHYLAXIS_TERMS", strings.Join(defaults.ProphylaxisTerms, ","))
	v.SetDefault("BACTERIAL_SOURCE_TERMS", strings.Join(defaults.BacterialSourceTerms, ","))

	for _, k := range keys {
		v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	cfg.ProphylaxisTerms = splitList(cfg.ProphylaxisTerms)
	cfg.BacterialSourceTerms = splitList(cfg.BacterialSourceTerms)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if !c.IsDev() && !c.IsProduction() {
		return fmt.Errorf("ENV must be \"development\" or \"production\", got %q", c.Env)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	if c.ReassessAfterDays <= 0 {
		return fmt.Errorf("REASSESS_AFTER_DAYS must be positive, got %d", c.ReassessAfterDays)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if err := db.ValidateSchema(c.DBSchema); err != nil {
		return fmt.Errorf("DB_SCHEMA: %w", err)
	}
	return nil
}

// Heuristics returns the stewardship thresholds and term lists.
func (c *Config) Heuristics() stewardship.Heuristics {
	h := stewardship.DefaultHeuristics()
	h.ReassessAfterDays = c.ReassessAfterDays
	if len(c.ProphylaxisTerms) > 0 {
		h.ProphylaxisTerms = c.ProphylaxisTerms
	}
	if len(c.BacterialSourceTerms) > 0 {
		h.BacterialSourceTerms = c.BacterialSourceTerms
	}
	return h
}

// PoolConfig returns the database pool settings.
func (c *Config) PoolConfig() db.PoolConfig {
	return db.PoolConfig{
		DatabaseURL: c.DatabaseURL,
		Schema:      c.DBSchema,
		MaxConns:    c.DBMaxConns,
		MinConns:    c.DBMinConns,
	}
}
