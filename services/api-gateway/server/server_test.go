// services/api-gateway/server/server_test.go
package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/example/checkout-adapter/pkg/errors"
	"github.com/example/checkout-adapter/services/api-gateway/handlers"
	"github.com/example/checkout-adapter/services/api-gateway/queue"
	"github.com/example/checkout-adapter/services/api-gateway/server"
)

func newServer() http.Handler {
	// No gateway call is reachable from these requests.
	return server.New(server.Options{Addr: ":0", CORSOrigins: []string{"*"}}, handlers.Deps{Bus: queue.Nop{}}).Handler()
}

func TestRoutes_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var out handlers.HealthOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, server.ServiceName, out.Service)
}

func TestRoutes_RequestIDPassthrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	newServer().ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestRoutes_UnknownPath(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var out handlers.ErrorOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, apperr.CodeNotFound, out.Error)
}

func TestRoutes_WrongMethod(t *testing.T) {
	cases := []struct {
		method, path string
	}{
		{http.MethodPost, "/create-payment-link"},
		{http.MethodDelete, "/refund-payment"},
		{http.MethodGet, "/get-user-context"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		newServer().ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}")))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, tc.method+" "+tc.path)
	}
}

func TestRoutes_ValidationBeforeGateway(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lookup-payment", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutes_Metrics(t *testing.T) {
	h := newServer()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "payment_requests_total")
}

func TestRoutes_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/create-payment-link", nil)
	req.Header.Set("Origin", "https://agent.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	newServer().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWriteTimeoutCoversTwoGatewayCalls(t *testing.T) {
	srv := server.New(server.Options{Addr: ":0", GatewayTimeout: 15 * time.Second}, handlers.Deps{Bus: queue.Nop{}})
	assert.Equal(t, 35*time.Second, srv.WriteTimeout())
	assert.Greater(t, srv.WriteTimeout(), 2*15*time.Second)

	assert.Equal(t, 65*time.Second, server.WriteTimeoutFor(30*time.Second))
	assert.Equal(t, 35*time.Second, server.WriteTimeoutFor(0))
}
