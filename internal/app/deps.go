// internal/app/deps.go
package app

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/example/checkout-adapter/config"
	"github.com/example/checkout-adapter/services/api-gateway/clients"
	"github.com/example/checkout-adapter/services/api-gateway/customers"
	"github.com/example/checkout-adapter/services/api-gateway/handlers"
	"github.com/example/checkout-adapter/services/api-gateway/queue"
)

// NewDeps builds the operation dependencies shared by the HTTP adapter and the
// MCP server. The caller owns d.Bus and must Close it.
func NewDeps(cfg *config.Config) (handlers.Deps, error) {
	directory, err := customers.Parse(cfg.UserContext.Directory)
	if err != nil {
		return handlers.Deps{}, fmt.Errorf("parse customer directory: %w", err)
	}
	logrus.WithField("customers", directory.Len()).Info("customer directory loaded")

	checkout := clients.NewCheckout(clients.CheckoutConfig{
		BaseURL:            cfg.Checkout.BaseURL,
		SecretKey:          cfg.SecretKey,
		Timeout:            cfg.Checkout.Timeout,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
	})

	var bus queue.Publisher = queue.Nop{}
	if cfg.Kafka.Enabled() {
		bus = queue.New(cfg.Kafka.Brokers, cfg.EventsTopic)
		logrus.WithField("topic", cfg.EventsTopic).Info("operation events enabled")
	}

	return handlers.Deps{
		Checkout:  checkout,
		Bus:       bus,
		Customers: directory,
		Links: handlers.LinkDefaults{
			Description:      cfg.PaymentLinkDescription,
			BillingCountry:   cfg.DefaultBillingCountry,
			PhoneCountryCode: cfg.DefaultPhoneCode,
		},
		UserContext: handlers.ContextDefaults{
			Threshold: cfg.UserContext.Threshold,
			Tier:      cfg.UserContext.Tier,
			Language:  cfg.UserContext.Language,
			Timezone:  cfg.UserContext.Timezone,
		},
	}, nil
}

// SetupLogging applies the JSON formatter and the configured level.
func SetupLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logrus.SetLevel(lvl)
	}
}
