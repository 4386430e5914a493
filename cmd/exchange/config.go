package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	RatesAPIURL  string        `envconfig:"RATES_API_URL" default:"https://api.privatbank.ua/p24api/exchange_rates"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
	FetchRetries int           `envconfig:"FETCH_RETRIES" default:"2"`
	RetryBackoff time.Duration `envconfig:"RETRY_BACKOFF" default:"300ms"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"WARN"`
	Colours      bool          `envconfig:"EXCHANGE_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
