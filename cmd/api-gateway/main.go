// cmd/api-gateway/main.go
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/example/checkout-adapter/config"
	"github.com/example/checkout-adapter/internal/app"
	"github.com/example/checkout-adapter/internal/grpcserver"
	"github.com/example/checkout-adapter/services/api-gateway/server"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

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

	api := server.New(server.Options{
		Addr:           cfg.Addr(),
		CORSOrigins:    cfg.CORSOrigins,
		GatewayTimeout: cfg.Checkout.Timeout,
	}, deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var health *grpcserver.HealthServer
	if cfg.HealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.HealthAddr)
		if err != nil {
			logrus.WithError(err).WithField("addr", cfg.HealthAddr).Fatal("listen grpc health")
		}
		health = grpcserver.NewHealthServer(server.ServiceName)
		go func() {
			if err := health.Serve(lis); err != nil {
				logrus.WithError(err).Error("grpc health serve")
			}
		}()
	}

	errc := make(chan error, 1)
	go func() { errc <- api.Start() }()

	select {
	case <-ctx.Done():
		logrus.Info("shutting down")
	case err := <-errc:
		if err != nil {
			logrus.WithError(err).Error("http server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if health != nil {
		health.Stop(shutdownCtx)
	}
	if err := api.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("http server shutdown")
	}
	logrus.Info("bye")
}
