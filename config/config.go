// config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// New reads an optional .env file and then the process environment. The
// result is read-only for the lifetime of the process.
func New() (*Config, error) {
	var cfg Config
	if err := godotenv.Load(".env"); err != nil {
		logrus.Debug("no .env file loaded, using process environment")
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	APP
	Checkout
	Kafka
	GRPC
	UserContext
	MCP
}

type APP struct {
	PORT            string        `env:"PORT" envDefault:"5000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func (a APP) Addr() string { return ":" + a.PORT }

type Checkout struct {
	SecretKey              string        `env:"CKO_SECRET_KEY"`
	PublicKey              string        `env:"CKO_PUBLIC_KEY"`
	BaseURL                string        `env:"CKO_API_URL" envDefault:"https://api.sandbox.checkout.com"`
	Timeout                time.Duration `env:"CKO_TIMEOUT" envDefault:"15s"`
	PaymentLinkDescription string        `env:"CKO_PAYMENT_LINK_DESCRIPTION" envDefault:"Generated By MCP Server"`
	DefaultBillingCountry  string        `env:"CKO_DEFAULT_BILLING_COUNTRY" envDefault:"AE"`
	DefaultPhoneCode       string        `env:"CKO_DEFAULT_PHONE_COUNTRY_CODE" envDefault:"+971"`
	BreakerMaxFailures     uint32        `env:"CKO_BREAKER_MAX_FAILURES" envDefault:"10"`
	BreakerOpenTimeout     time.Duration `env:"CKO_BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
}

type Kafka struct {
	Brokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	EventsTopic string   `env:"KAFKA_EVENTS_TOPIC" envDefault:"checkout.operations"`
}

func (k Kafka) Enabled() bool {
	for _, b := range k.Brokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

type GRPC struct {
	HealthAddr string `env:"GRPC_HEALTH_ADDR" envDefault:":9090"`
}

type MCP struct {
	MCPAddr string `env:"MCP_ADDR" envDefault:":8000"`
}

type UserContext struct {
	Directory string `env:"CUSTOMER_DIRECTORY"`
	Threshold int    `env:"USER_CONTEXT_THRESHOLD" envDefault:"1000"`
	Tier      string `env:"USER_CONTEXT_TIER" envDefault:"standard"`
	Language  string `env:"USER_CONTEXT_LANGUAGE" envDefault:"en"`
	Timezone  string `env:"USER_CONTEXT_TIMEZONE" envDefault:"UTC"`
}

var ErrMissingCredentials = errors.New("CKO_SECRET_KEY and CKO_PUBLIC_KEY must be set in environment variables")

func (c Config) Validate() error {
	if strings.TrimSpace(c.Checkout.SecretKey) == "" || strings.TrimSpace(c.Checkout.PublicKey) == "" {
		return ErrMissingCredentials
	}
	if c.Checkout.Timeout <= 0 {
		return fmt.Errorf("CKO_TIMEOUT must be positive, got %s", c.Checkout.Timeout)
	}
	if _, err := logrus.ParseLevel(c.APP.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}
