// internal/mcp/server_test.go
package mcp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/checkout-adapter/internal/mcp"
	"github.com/example/checkout-adapter/services/api-gateway/clients"
	"github.com/example/checkout-adapter/services/api-gateway/handlers"
	"github.com/example/checkout-adapter/services/api-gateway/queue"
)

// fakeCheckout serves the few Checkout endpoints the tools reach and counts
// every call.
func fakeCheckout(t *testing.T) (*mcp.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/payment-links":
			var in clients.PaymentLinkRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "+971", in.Customer.Phone.CountryCode)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":"pl_1","reference":"ORD-1","_links":{"redirect":{"href":"https://pay.example/pl_1"}}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/payments/pay_ok":
			_, _ = io.WriteString(w, `{"id":"pay_ok","status":"Captured","amount":1000,"currency":"AED","approved":true}`)
		case r.Method == http.MethodGet && r.URL.Path == "/payments/pay_refunded":
			_, _ = io.WriteString(w, `{"id":"pay_refunded","status":"Refunded","amount":1000,"currency":"AED"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	d := handlers.Deps{
		Checkout: clients.NewCheckout(clients.CheckoutConfig{
			BaseURL:            srv.URL,
			SecretKey:          "sk_sbox_test",
			Timeout:            2 * time.Second,
			BreakerMaxFailures: 5,
			BreakerOpenTimeout: time.Minute,
		}),
		Bus:   queue.Nop{},
		Links: handlers.LinkDefaults{Description: "Generated By MCP Server", BillingCountry: "AE", PhoneCountryCode: "+971"},
	}
	return mcp.NewServer(d, "test"), &calls
}

func call(t *testing.T, s *mcp.Server, msg string) map[string]any {
	t.Helper()
	resp := s.Handle(context.Background(), []byte(msg))
	require.NotNil(t, resp)
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func toolText(t *testing.T, out map[string]any) (string, bool) {
	t.Helper()
	result, ok := out["result"].(map[string]any)
	require.True(t, ok, "missing result: %v", out)
	content := result["content"].([]any)
	require.Len(t, content, 1)
	isErr, _ := result["isError"].(bool)
	return content[0].(map[string]any)["text"].(string), isErr
}

func TestInitializeAndList(t *testing.T) {
	s, _ := fakeCheckout(t)

	out := call(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`)
	result := out["result"].(map[string]any)
	assert.Equal(t, mcp.ProtocolVersion, result["protocolVersion"])
	assert.Equal(t, mcp.ServerName, result["serverInfo"].(map[string]any)["name"])

	out = call(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	var names []string
	for _, tool := range out["result"].(map[string]any)["tools"].([]any) {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, []string{"create_payment_link", "lookup_payment_info", "refund_payment"}, names)
}

func TestNotificationHasNoResponse(t *testing.T) {
	s, _ := fakeCheckout(t)
	assert.Nil(t, s.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
}

func TestProtocolErrors(t *testing.T) {
	s, _ := fakeCheckout(t)

	cases := []struct {
		msg  string
		code float64
	}{
		{`{"jsonrpc":`, -32700},
		{`{"jsonrpc":"1.0","id":1,"method":"tools/list"}`, -32600},
		{`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, -32601},
		{`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"x"}}`, -32602},
		{`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":[]}`, -32602},
	}
	for _, tc := range cases {
		out := call(t, s, tc.msg)
		require.Contains(t, out, "error", tc.msg)
		assert.Equal(t, tc.code, out["error"].(map[string]any)["code"], tc.msg)
	}
}

func TestCreatePaymentLinkTool(t *testing.T) {
	s, calls := fakeCheckout(t)

	out := call(t, s, `{"jsonrpc":"2.0","id":"a","method":"tools/call","params":{"name":"create_payment_link",
		"arguments":{"amount":1000,"currency":"aed","customer_email":"jane@example.com","phone_number":"547137304"}}}`)

	text, isErr := toolText(t, out)
	require.False(t, isErr, text)
	var link handlers.PaymentLinkOut
	require.NoError(t, json.Unmarshal([]byte(text), &link))
	assert.Equal(t, "https://pay.example/pl_1", link.PaymentLink)
	assert.Equal(t, int64(1000), link.Amount)
	assert.Equal(t, "AED", link.Currency)
	assert.Equal(t, "a", out["id"])
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestCreatePaymentLinkTool_ValidationBeforeGateway(t *testing.T) {
	s, calls := fakeCheckout(t)

	args := []string{
		`{"currency":"AED","customer_email":"jane@example.com","phone_number":"547137304"}`,
		`{"amount":10.5,"currency":"AED","customer_email":"jane@example.com","phone_number":"547137304"}`,
		`{"amount":1e5,"currency":"AED","customer_email":"jane@example.com","phone_number":"547137304"}`,
		`{"amount":"0e-100000000","currency":"AED","customer_email":"jane@example.com","phone_number":"547137304"}`,
		`{"amount":1000,"currency":"AED","customer_email":"jane@example.com","phone_number":"12345"}`,
		`{"amount":{"v":1},"currency":"AED","customer_email":"jane@example.com","phone_number":"547137304"}`,
	}
	for _, a := range args {
		out := call(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"create_payment_link","arguments":`+a+`}}`)
		text, isErr := toolText(t, out)
		assert.True(t, isErr, a)
		assert.Contains(t, text, `"validation_error"`, a)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestLookupPaymentTool(t *testing.T) {
	s, _ := fakeCheckout(t)

	out := call(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"lookup_payment_info","arguments":{"payment_id":"pay_ok"}}}`)
	text, isErr := toolText(t, out)
	require.False(t, isErr, text)
	assert.Contains(t, text, `"status":"Captured"`)

	out = call(t, s, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"lookup_payment_info","arguments":{"payment_id":"pay_missing"}}}`)
	text, isErr = toolText(t, out)
	assert.True(t, isErr)
	assert.Contains(t, text, `"not_found"`)
}

func TestRefundPaymentTool_AlreadyRefunded(t *testing.T) {
	s, calls := fakeCheckout(t)

	out := call(t, s, `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"refund_payment","arguments":{"payment_id":"pay_refunded"}}}`)
	text, isErr := toolText(t, out)
	assert.True(t, isErr)
	assert.Contains(t, text, `"conflict"`)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "only the status fetch reaches Checkout")
}

func TestRunStdio(t *testing.T) {
	s, _ := fakeCheckout(t)

	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	}, "\n"))
	var out bytes.Buffer
	require.NoError(t, s.Run(context.Background(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"protocolVersion"`)
	assert.Contains(t, lines[1], `"id":2`)
}

func TestServeHTTP(t *testing.T) {
	s, _ := fakeCheckout(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "refund_payment")

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
