package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 30, cfg.Market.TimeoutDefault)
	require.Equal(t, 60, cfg.Market.TimeoutMax)
	require.Equal(t, 2, cfg.Market.Workers)
	require.Equal(t, 5, cfg.Market.NewsCount)
	require.Equal(t, "1y", cfg.Market.Period)
	require.Equal(t, "1d", cfg.Market.Interval)
	require.Equal(t, "https://query1.finance.yahoo.com", cfg.Yahoo.BaseURL)
	require.Equal(t, "info", cfg.Log.Level)
	require.True(t, cfg.Metrics.Enabled)
	require.NoError(t, cfg.Validate())

	def, limit := cfg.Market.Timeouts()
	require.Equal(t, 30*time.Second, def)
	require.Equal(t, 60*time.Second, limit)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// Tests below touch the process environment and do not run in parallel.

func TestLoad_FileAndEnv(t *testing.T) {
	// Arrange
	path := writeConfig(t, `
market:
  timeout_default: 10
  workers: 4
log:
  format: console
metrics:
  enabled: false
`)
	t.Setenv("PORT", "9090")
	t.Setenv("MARKET_TIMEOUT_MAX", "20")
	t.Setenv("LOG_LEVEL", "DEBUG")

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, 10, cfg.Market.TimeoutDefault)
	require.Equal(t, 20, cfg.Market.TimeoutMax)
	require.Equal(t, 4, cfg.Market.Workers)
	require.Equal(t, "1y", cfg.Market.Period)
	require.Equal(t, "console", cfg.Log.Format)
	require.Equal(t, "debug", cfg.Log.Level)
	require.False(t, cfg.Metrics.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{name: "bad yaml", body: "market: [", want: "parse config"},
		{name: "zero timeout", body: "market:\n  timeout_default: 0\n", want: "validate config"},
		{name: "default above max", body: "market:\n  timeout_default: 90\n", want: "must not exceed"},
		{name: "bad level", body: "log:\n  level: loud\n", want: "validate config"},
		{name: "bad url", body: "yahoo:\n  base_url: not a url\n", want: "validate config"},
		{name: "bad env int", env: map[string]string{"MARKET_WORKERS": "two"}, want: "parse MARKET_WORKERS"},
		{name: "bad env bool", env: map[string]string{"METRICS_ENABLED": "maybe"}, want: "parse METRICS_ENABLED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(path)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorContains(t, err, "read config")
}
