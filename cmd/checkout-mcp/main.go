// cmd/checkout-mcp/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/example/checkout-adapter/config"
	"github.com/example/checkout-adapter/internal/app"
	"github.com/example/checkout-adapter/internal/mcp"
	m "github.com/example/checkout-adapter/pkg/metrics"
	"github.com/example/checkout-adapter/services/api-gateway/handlers"
	"github.com/example/checkout-adapter/services/api-gateway/server"
)

const (
	serviceName = "checkout-mcp"
	version     = "1.0.0"
)

func main() {
	stdio := flag.Bool("stdio", false, "serve MCP over stdin/stdout instead of HTTP")
	flag.Parse()

	// stdout carries protocol frames in stdio mode
	logrus.SetOutput(os.Stderr)

	cfg, err := config.New()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	app.SetupLogging(cfg.LogLevel)

	deps, err := app.NewDeps(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("build dependencies")
	}
	defer func() {
		if err := deps.Bus.Close(); err != nil {
			logrus.WithError(err).Warn("close event bus")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := mcp.NewServer(deps, version)

	if *stdio {
		logrus.Info("mcp serving on stdio")
		if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("mcp stdio stopped")
		}
		return
	}

	r := mux.NewRouter()
	r.Use(m.Middleware(serviceName))
	r.Handle("/mcp", srv).Methods(http.MethodPost)
	r.HandleFunc("/health", handlers.HealthHandler(serviceName)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	httpSrv := &http.Server{
		Addr:         cfg.MCPAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: server.WriteTimeoutFor(cfg.Checkout.Timeout),
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.MCPAddr).Infof("%s listening", serviceName)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
		logrus.Info("shutting down")
	case err := <-errc:
		if err != nil {
			logrus.WithError(err).Error("mcp http server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("mcp http server shutdown")
	}
}
