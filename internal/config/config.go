package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when Load is given no path and the file exists.
const DefaultPath = "config.yaml"

type Server struct {
	Port              string `yaml:"port" default:"8080" validate:"required,numeric"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec" default:"75" validate:"gt=0"`
}

type Market struct {
	TimeoutDefault int    `yaml:"timeout_default" default:"30" validate:"gt=0"`
	TimeoutMax     int    `yaml:"timeout_max" default:"60" validate:"gt=0"`
	Workers        int    `yaml:"workers" default:"2" validate:"gt=0"`
	NewsCount      int    `yaml:"news_count" default:"5" validate:"gte=0"`
	Period         string `yaml:"period" default:"1y" validate:"required"`
	Interval       string `yaml:"interval" default:"1d" validate:"required"`
}

// Timeouts returns the default and maximum query timeouts.
func (m Market) Timeouts() (def, limit time.Duration) {
	return time.Duration(m.TimeoutDefault) * time.Second, time.Duration(m.TimeoutMax) * time.Second
}

type Yahoo struct {
	BaseURL              string `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"required,url"`
	NewsURL              string `yaml:"news_url" default:"https://finance.yahoo.com/xhr/ncp" validate:"required,url"`
	CookieURL            string `yaml:"cookie_url" default:"https://fc.yahoo.com" validate:"omitempty,url"`
	UserAgent            string `yaml:"user_agent"`
	MaxRequestsPerMinute int    `yaml:"max_requests_per_minute" default:"60" validate:"gte=0"`
	Burst                int    `yaml:"burst" default:"5" validate:"gt=0"`
	Retries              int    `yaml:"retries" default:"2" validate:"gte=0,lte=10"`
}

type Log struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stderr" validate:"oneof=stdout stderr"`
}

type Metrics struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics" validate:"startswith=/"`
}

type Config struct {
	Server  Server  `yaml:"server"`
	Market  Market  `yaml:"market"`
	Yahoo   Yahoo   `yaml:"yahoo"`
	Log     Log     `yaml:"log"`
	Metrics Metrics `yaml:"metrics"`
}

var validate = validator.New()

func Default() Config {
	var cfg Config
	// Only malformed default tags make Set fail.
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load reads YAML config from path. If path is empty and config.yaml does not
// exist, it starts from defaults. Environment variables override select
// fields, then the result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Market.TimeoutDefault > c.Market.TimeoutMax {
		return errors.New("market.timeout_default must not exceed market.timeout_max")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.Yahoo.BaseURL = v
	}
	if v := os.Getenv("YAHOO_NEWS_URL"); v != "" {
		cfg.Yahoo.NewsURL = v
	}
	if v := os.Getenv("YAHOO_USER_AGENT"); v != "" {
		cfg.Yahoo.UserAgent = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			cfg.Metrics.Enabled = true
		case "0", "false", "no", "n":
			cfg.Metrics.Enabled = false
		default:
			return fmt.Errorf("parse METRICS_ENABLED: unexpected value %q", v)
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec},
		{"MARKET_TIMEOUT_DEFAULT", &cfg.Market.TimeoutDefault},
		{"MARKET_TIMEOUT_MAX", &cfg.Market.TimeoutMax},
		{"MARKET_WORKERS", &cfg.Market.Workers},
		{"YAHOO_MAX_RPM", &cfg.Yahoo.MaxRequestsPerMinute},
		{"YAHOO_BURST", &cfg.Yahoo.Burst},
	}
	for _, e := range ints {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		x, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parse %s: %w", e.name, err)
		}
		*e.dst = x
	}
	return nil
}
