// services/api-gateway/server/server.go
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	apperr "github.com/example/checkout-adapter/pkg/errors"
	m "github.com/example/checkout-adapter/pkg/metrics"
	"github.com/example/checkout-adapter/services/api-gateway/handlers"
)

const ServiceName = "checkout-adapter"

type APIServer struct {
	router *mux.Router
	http   *http.Server
}

type Options struct {
	Addr        string
	CORSOrigins []string
	// GatewayTimeout is the per-call Checkout timeout; the write deadline is
	// derived from it.
	GatewayTimeout time.Duration
}

// WriteTimeoutFor covers the longest handler path: two sequential gateway
// calls (lookup of a declined payment, refund) plus encoding slack.
func WriteTimeoutFor(gateway time.Duration) time.Duration {
	if gateway <= 0 {
		gateway = 15 * time.Second
	}
	return 2*gateway + 5*time.Second
}

// New wires the routes onto a gorilla router wrapped in CORS.
func New(opts Options, deps handlers.Deps) *APIServer {
	s := &APIServer{router: mux.NewRouter()}
	s.setupRoutes(deps)

	c := cors.New(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Idempotency-Key"},
	})

	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      c.Handler(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: WriteTimeoutFor(opts.GatewayTimeout),
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *APIServer) setupRoutes(deps handlers.Deps) {
	s.router.Use(requestLogger, m.Middleware(ServiceName))

	s.router.HandleFunc("/health", handlers.HealthHandler(ServiceName)).Methods(http.MethodGet)
	s.router.HandleFunc("/create-payment-link", handlers.CreatePaymentLinkHandler(deps)).Methods(http.MethodGet)
	s.router.HandleFunc("/lookup-payment", handlers.LookupPaymentHandler(deps)).Methods(http.MethodGet)
	s.router.HandleFunc("/refund-payment", handlers.RefundPaymentHandler(deps)).Methods(http.MethodGet)
	s.router.HandleFunc("/get-user-context", handlers.UserContextHandler(deps)).Methods(http.MethodPost)

	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRouteError(w, http.StatusNotFound, apperr.CodeNotFound, "route not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRouteError(w, http.StatusMethodNotAllowed, apperr.CodeValidation, "method "+r.Method+" not allowed on "+r.URL.Path)
	})
}

// Handler exposes the full chain for tests.
func (s *APIServer) Handler() http.Handler { return s.http.Handler }

func (s *APIServer) WriteTimeout() time.Duration { return s.http.WriteTimeout }

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *APIServer) Start() error {
	logrus.WithField("addr", s.http.Addr).Infof("%s listening", ServiceName)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		rec := &m.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		logrus.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"route":      route,
			"status":     rec.Status,
			"elapsed_ms": time.Since(start).Milliseconds(),
		}).Info("request")
	})
}

func writeRouteError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(handlers.ErrorOut{Status: "FAILED", Error: code, Message: msg})
}
