package internal

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Host            string        `env:"HOST,default=0.0.0.0" validate:"required"`
	Port            int           `env:"PORT,default=8080" validate:"min=1,max=65535"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	RatesAPIURL     string        `env:"RATES_API_URL,default=https://api.privatbank.ua/p24api/exchange_rates" validate:"required,url"`
	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT,default=10s" validate:"gt=0"`
	FetchRetries    int           `env:"FETCH_RETRIES,default=2" validate:"min=0,max=10"`
	RetryBackoff    time.Duration `env:"RETRY_BACKOFF,default=300ms" validate:"gte=0"`
	DeliveryTimeout time.Duration `env:"DELIVERY_TIMEOUT,default=5s" validate:"gt=0"`
	PingInterval    time.Duration `env:"PING_INTERVAL,default=30s" validate:"gt=0"`
	PongWait        time.Duration `env:"PONG_WAIT,default=60s" validate:"gtfield=PingInterval"`
	MaxMessageSize  int           `env:"MAX_MESSAGE_SIZE,default=65536" validate:"gt=0"`
	AuditLogPath    string        `env:"AUDIT_LOG_PATH,default=exchange.log" validate:"required"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH"`
	RateCacheTTL    time.Duration `env:"RATE_CACHE_TTL,default=720h" validate:"gt=0"`
	CacheGCInterval time.Duration `env:"CACHE_GC_INTERVAL,default=10m" validate:"gt=0"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
}

var validate = validator.New()

// Validate checks ranges and cross-field constraints the env tags can't express.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	// A peer's read loop is blocked while its command is served.
	if busy := c.FetchTimeout + c.DeliveryTimeout; c.PongWait <= busy {
		return fmt.Errorf("invalid configuration: PONG_WAIT (%s) must exceed FETCH_TIMEOUT + DELIVERY_TIMEOUT (%s)",
			c.PongWait, busy)
	}
	return nil
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// InMemoryCache reports whether the rate cache lives only for the lifetime of the process.
func (c Config) InMemoryCache() bool {
	return c.BadgerFilepath == ""
}
