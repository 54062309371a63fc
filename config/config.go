package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		IdleTimeout     time.Duration `yaml:"idle_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	AI struct {
		APIKey      string        `yaml:"api_key"`
		APIURL      string        `yaml:"api_url"`
		Model       string        `yaml:"model"`
		MaxTokens   int           `yaml:"max_tokens"`
		Temperature *float64      `yaml:"temperature"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"ai"`
	Storage struct {
		Driver        string `yaml:"driver"`
		Key           string `yaml:"key"`
		DataDir       string `yaml:"data_dir"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
	} `yaml:"storage"`
	History struct {
		// SQLitePath empty keeps payment history in memory.
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"history"`
	Limits struct {
		MaxLoanAmount   float64 `yaml:"max_loan_amount"`
		MaxInterestRate float64 `yaml:"max_interest_rate"`
		MaxTermMonths   int     `yaml:"max_term_months"`
	} `yaml:"limits"`
	RateLimit struct {
		Requests int           `yaml:"requests"`
		Window   time.Duration `yaml:"window"`
	} `yaml:"rate_limit"`
	Reminder struct {
		Enabled    bool   `yaml:"enabled"`
		Cron       string `yaml:"cron"`
		WindowDays int    `yaml:"window_days"`
	} `yaml:"reminder"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Tracing struct {
		Endpoint    string `yaml:"endpoint"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"tracing"`
}

// Load reads .env (if present), then the YAML file at path (if present), then
// applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Path returns the config file location, honouring CONFIG_PATH.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_URL"); v != "" {
		c.AI.APIURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Storage.RedisPassword = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("HISTORY_SQLITE_PATH"); v != "" {
		c.History.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("OTEL_ENDPOINT"); v != "" {
		c.Tracing.Endpoint = v
	}
	if v := os.Getenv("REMINDER_CRON"); v != "" {
		c.Reminder.Cron = v
		c.Reminder.Enabled = true
	}
	if v := os.Getenv("REMINDER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Reminder.Enabled = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// chat calls can take most of the AI timeout
		c.Server.WriteTimeout = 45 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 30 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
	}
	if c.Storage.Key == "" {
		c.Storage.Key = "loans"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.RedisAddr == "" {
		c.Storage.RedisAddr = "localhost:6379"
	}
	if c.Limits.MaxLoanAmount == 0 {
		c.Limits.MaxLoanAmount = 1_000_000_000
	}
	if c.Limits.MaxInterestRate == 0 {
		c.Limits.MaxInterestRate = 1000
	}
	if c.Limits.MaxTermMonths == 0 {
		c.Limits.MaxTermMonths = 600
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 5
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Reminder.Cron == "" {
		c.Reminder.Cron = "0 0 9 * * *"
	}
	if c.Reminder.WindowDays == 0 {
		c.Reminder.WindowDays = 3
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "loan-dashboard"
	}
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverRedis:
	default:
		return fmt.Errorf("storage.driver must be one of memory, file, redis (got %q)", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverFile && c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required for the file driver")
	}
	if c.Storage.Driver == DriverRedis && c.Storage.RedisAddr == "" {
		return fmt.Errorf("storage.redis_addr is required for the redis driver")
	}
	if c.Limits.MaxLoanAmount <= 0 || c.Limits.MaxInterestRate <= 0 || c.Limits.MaxTermMonths <= 0 {
		return fmt.Errorf("limits must be positive")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.requests and rate_limit.window must be positive")
	}
	if c.Reminder.Enabled && c.Reminder.Cron == "" {
		return fmt.Errorf("reminder.cron is required when the reminder is enabled")
	}
	if t := c.AI.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("ai.temperature must be between 0 and 2")
	}
	return nil
}
