package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, environ env.EnvSet) Config {
	t.Helper()
	var config Config
	require.NoError(t, env.Unmarshal(environ, &config))
	return config
}

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)

	config := load(t, env.EnvSet{})

	req.NoError(config.Validate())
	req.Equal("0.0.0.0:8080", config.Address())
	req.Equal("INFO", config.LogLevel)
	req.Equal("https://api.privatbank.ua/p24api/exchange_rates", config.RatesAPIURL)
	req.Equal(10*time.Second, config.FetchTimeout)
	req.Equal("exchange.log", config.AuditLogPath)
	req.True(config.InMemoryCache())
}

func TestConfig_Overrides(t *testing.T) {
	req := require.New(t)

	config := load(t, env.EnvSet{
		"HOST":            "127.0.0.1",
		"PORT":            "9000",
		"FETCH_TIMEOUT":   "2s",
		"BADGER_FILEPATH": "/tmp/rates",
		"LOG_LEVEL":       "DEBUG",
	})

	req.NoError(config.Validate())
	req.Equal("127.0.0.1:9000", config.Address())
	req.Equal(2*time.Second, config.FetchTimeout)
	req.False(config.InMemoryCache())
}

func TestConfig_Validate_Rejects_Invalid_Values(t *testing.T) {
	tests := []struct {
		name    string
		environ env.EnvSet
	}{
		{name: "port out of range", environ: env.EnvSet{"PORT": "70000"}},
		{name: "unknown log level", environ: env.EnvSet{"LOG_LEVEL": "TRACE"}},
		{name: "malformed api url", environ: env.EnvSet{"RATES_API_URL": "not a url"}},
		{name: "zero fetch timeout", environ: env.EnvSet{"FETCH_TIMEOUT": "0s"}},
		{name: "pong wait shorter than ping interval", environ: env.EnvSet{"PING_INTERVAL": "1m", "PONG_WAIT": "30s"}},
		{name: "pong wait shorter than a served command", environ: env.EnvSet{
			"PING_INTERVAL": "5s", "PONG_WAIT": "12s", "FETCH_TIMEOUT": "10s", "DELIVERY_TIMEOUT": "5s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := load(t, tt.environ)
			require.Error(t, config.Validate())
		})
	}
}
