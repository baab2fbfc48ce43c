/*
Package config loads the runtime configuration of the payroll engine.

SOURCES (later wins):
  1. Built-in defaults (2024 legal figures, default rate table)
  2. .env file in the working directory, if present (godotenv)
  3. Process environment
  4. YAML file named by CONFIG_FILE: rate table and legal constants
  5. MINIMUM_WAGE / TRANSPORT_ALLOWANCE environment overrides

YAML FILE:
  rates:
    night_surcharge: 2166      # category key or code (RN, HED, ...)
    HED: 7736.41
  legal:
    minimum_wage: 1300000
    transport_allowance: 162000
    health_rate: 0.04
    pension_rate: 0.04

  Omitted entries keep their defaults. Numbers are read as decimals, never
  through float64.
*/
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
	"gopkg.in/yaml.v3"
)

// Holiday source modes.
const (
	HolidaySourceComputed = "computed"
	HolidaySourceRemote   = "remote"
)

type Config struct {
	Addr                string
	DBPath              string
	ConfigFile          string
	HolidaySource       string
	HolidayAPIURL       string
	HolidayCountry      string
	HolidayFetchTimeout time.Duration
	HolidayAPIRate      float64 // requests per second to the holiday API
	RateLimitPerMinute  int
	MaxBodyBytes        int64
	BatchConcurrency    int
	CORSOrigins         []string
	LogLevel            string

	Rates payroll.RateTable
	Legal payroll.LegalConstants
}

// Load reads the configuration from the environment and the optional YAML
// file. Malformed numbers and durations are errors, never silently replaced
// by defaults. It does not validate; call Validate.
func Load() (Config, error) {
	_ = godotenv.Load()

	env := &envReader{}
	cfg := Config{
		Addr:                getEnv("APP_ADDR", ":8080"),
		DBPath:              getEnv("DB_PATH", "payroll.db"),
		ConfigFile:          getEnv("CONFIG_FILE", ""),
		HolidaySource:       strings.ToLower(getEnv("HOLIDAY_SOURCE", HolidaySourceComputed)),
		HolidayAPIURL:       getEnv("HOLIDAY_API_URL", "https://date.nager.at"),
		HolidayCountry:      getEnv("HOLIDAY_COUNTRY", "CO"),
		HolidayFetchTimeout: env.getDuration("HOLIDAY_FETCH_TIMEOUT", 10*time.Second),
		HolidayAPIRate:      env.getFloat("HOLIDAY_API_RPS", 1),
		RateLimitPerMinute:  env.getInt("RATE_LIMIT_PER_MINUTE", 120),
		MaxBodyBytes:        int64(env.getInt("MAX_BODY_BYTES", 1048576)),
		BatchConcurrency:    env.getInt("BATCH_CONCURRENCY", 0),
		CORSOrigins:         getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Rates:               payroll.DefaultRateTable(),
		Legal:               payroll.DefaultLegalConstants(),
	}
	if err := env.err(); err != nil {
		return Config{}, err
	}

	if cfg.ConfigFile != "" {
		file, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		if err := file.Apply(&cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Legal.MinimumWage = env.getDecimal("MINIMUM_WAGE", cfg.Legal.MinimumWage)
	cfg.Legal.TransportAllowance = env.getDecimal("TRANSPORT_ALLOWANCE", cfg.Legal.TransportAllowance)
	if err := env.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	switch c.HolidaySource {
	case HolidaySourceComputed:
	case HolidaySourceRemote:
		if strings.TrimSpace(c.HolidayAPIURL) == "" {
			return fmt.Errorf("HOLIDAY_API_URL must be set when HOLIDAY_SOURCE is remote")
		}
		if len(c.HolidayCountry) != 2 {
			return fmt.Errorf("HOLIDAY_COUNTRY must be a two-letter country code")
		}
	default:
		return fmt.Errorf("HOLIDAY_SOURCE must be %q or %q, got %q", HolidaySourceComputed, HolidaySourceRemote, c.HolidaySource)
	}
	if c.HolidayFetchTimeout <= 0 {
		return fmt.Errorf("HOLIDAY_FETCH_TIMEOUT must be positive")
	}
	if c.HolidayAPIRate <= 0 {
		return fmt.Errorf("HOLIDAY_API_RPS must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.BatchConcurrency < 0 {
		return fmt.Errorf("BATCH_CONCURRENCY must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return c.Legal.Validate()
}

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q: must be debug, info, warn or error", s)
	}
	return level, nil
}

// =============================================================================
// YAML FILE
// =============================================================================

// File is the YAML configuration file.
type File struct {
	Rates map[string]Amount `yaml:"rates"`
	Legal LegalFile         `yaml:"legal"`
}

// LegalFile holds optional legal constant overrides.
type LegalFile struct {
	MinimumWage        *Amount `yaml:"minimum_wage"`
	TransportAllowance *Amount `yaml:"transport_allowance"`
	HealthRate         *Amount `yaml:"health_rate"`
	PensionRate        *Amount `yaml:"pension_rate"`
}

// Amount is a decimal read from its YAML literal.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", n.Line)
	}
	d, err := decimal.NewFromString(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %q is not a number", n.Line, n.Value)
	}
	a.Decimal = d
	return nil
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	return &f, nil
}

// Apply overrides the rates and legal constants of cfg.
func (f *File) Apply(cfg *Config) error {
	rates := cfg.Rates
	for key, amount := range f.Rates {
		c, err := payroll.ParseCategory(key)
		if err != nil {
			return fmt.Errorf("config: rates: %w", err)
		}
		if !c.IsSurcharge() {
			return fmt.Errorf("config: rates: %s is paid by the base salary and takes no rate", c)
		}
		if amount.IsNegative() {
			return fmt.Errorf("config: rates.%s must not be negative", key)
		}
		rates = rates.With(c, amount.Decimal)
	}
	cfg.Rates = rates

	legal := &cfg.Legal
	for _, o := range []struct {
		src *Amount
		dst *decimal.Decimal
	}{
		{f.Legal.MinimumWage, &legal.MinimumWage},
		{f.Legal.TransportAllowance, &legal.TransportAllowance},
		{f.Legal.HealthRate, &legal.HealthRate},
		{f.Legal.PensionRate, &legal.PensionRate},
	} {
		if o.src != nil {
			*o.dst = o.src.Decimal
		}
	}
	return nil
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envReader parses typed environment values. A malformed value is
// recorded and the fallback returned; err reports every failure at once.
type envReader struct {
	errs []error
}

func (e *envReader) err() error {
	err := errors.Join(e.errs...)
	e.errs = nil
	return err
}

func (e *envReader) fail(key, value, want string) {
	e.errs = append(e.errs, fmt.Errorf("config: %s %q is not %s", key, value, want))
}

func (e *envReader) getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, value, "an integer")
		return fallback
	}
	return parsed
}

func (e *envReader) getFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		e.fail(key, value, "a number")
		return fallback
	}
	return parsed
}

func (e *envReader) getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		e.fail(key, value, "a duration (e.g. 10s)")
		return fallback
	}
	return parsed
}

func (e *envReader) getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		e.fail(key, value, "a number")
		return fallback
	}
	return parsed
}
