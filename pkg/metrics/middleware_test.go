// pkg/metrics/middleware_test.go
package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	m "github.com/example/checkout-adapter/pkg/metrics"
)

func TestMiddleware_CountsByOutcome(t *testing.T) {
	h := m.Middleware("mw-test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentRequestsTotal.WithLabelValues("mw-test", "SUCCESS", http.MethodGet)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PaymentRequestsTotal.WithLabelValues("mw-test", "FAILED", http.MethodGet)))
}

func TestMiddleware_SkipsScrape(t *testing.T) {
	h := m.Middleware("mw-scrape")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.PaymentRequestsTotal.WithLabelValues("mw-scrape", "SUCCESS", http.MethodGet)))
}

func TestHTTPStatusToBiz(t *testing.T) {
	assert.Equal(t, "SUCCESS", m.HTTPStatusToBiz(http.StatusOK))
	assert.Equal(t, "SUCCESS", m.HTTPStatusToBiz(http.StatusFound))
	assert.Equal(t, "FAILED", m.HTTPStatusToBiz(http.StatusBadRequest))
	assert.Equal(t, "FAILED", m.HTTPStatusToBiz(http.StatusBadGateway))
}

func TestObserveGatewayCall(t *testing.T) {
	m.ObserveGatewayCall("get_payment_test", "not_found", 0.05)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayCallsTotal.WithLabelValues("get_payment_test", "not_found")))
}
