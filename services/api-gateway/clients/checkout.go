// services/api-gateway/clients/checkout.go
package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	apperr "github.com/example/checkout-adapter/pkg/errors"
	m "github.com/example/checkout-adapter/pkg/metrics"
)

const (
	breakerName       = "checkout"
	maxResponseBytes  = 1 << 20
	idempotencyHeader = "Cko-Idempotency-Key"
)

type CheckoutConfig struct {
	BaseURL            string
	SecretKey          string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Checkout is a thin client for the Checkout.com payments API. Every call
// goes through one circuit breaker; nothing is retried.
type Checkout struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

// apiError is a non-2xx answer from Checkout.
type apiError struct {
	Status int
	Body   ErrorResponse
	Raw    string
}

func (e *apiError) Error() string {
	if len(e.Body.ErrorCodes) > 0 {
		return fmt.Sprintf("checkout status %d: %s", e.Status, strings.Join(e.Body.ErrorCodes, ","))
	}
	return fmt.Sprintf("checkout status %d: %s", e.Status, e.Raw)
}

func NewCheckout(cfg CheckoutConfig) *Checkout {
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 10
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("circuit breaker changed state")
			m.SetBreakerState(name, float64(to))
		},
		// 4xx answers and caller cancellations say nothing about gateway health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var ae *apiError
			return errors.As(err, &ae) && ae.Status < http.StatusInternalServerError
		},
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	m.SetBreakerState(breakerName, float64(gobreaker.StateClosed))

	return &Checkout{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		httpClient: httpClient,
		cb:         gobreaker.NewCircuitBreaker(settings),
	}
}

// CreatePaymentLink issues POST /payment-links.
func (c *Checkout) CreatePaymentLink(ctx context.Context, in PaymentLinkRequest, idempotencyKey string) (*PaymentLink, error) {
	var out PaymentLink
	if err := c.do(ctx, "create_payment_link", http.MethodPost, "/payment-links", nil, in, &out, idempotencyKey); err != nil {
		return nil, classify("create payment link", err)
	}
	if out.RedirectURL() == "" {
		return nil, apperr.Upstream("checkout returned a payment link without a redirect URL", nil)
	}
	return &out, nil
}

// GetPayment issues GET /payments/{id}.
func (c *Checkout) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var out Payment
	path := "/payments/" + url.PathEscape(paymentID)
	if err := c.do(ctx, "get_payment", http.MethodGet, path, nil, nil, &out, ""); err != nil {
		return nil, classify(fmt.Sprintf("payment %s", paymentID), err)
	}
	return &out, nil
}

// FindPaymentByReference returns the first payment carrying the merchant
// reference.
func (c *Checkout) FindPaymentByReference(ctx context.Context, reference string) (*Payment, error) {
	var out PaymentList
	q := url.Values{"reference": {reference}, "limit": {"1"}}
	if err := c.do(ctx, "list_payments", http.MethodGet, "/payments", q, nil, &out, ""); err != nil {
		return nil, classify(fmt.Sprintf("payments with reference %s", reference), err)
	}
	if len(out.Data) == 0 {
		return nil, apperr.NotFound(fmt.Sprintf("no payments found for reference %s", reference), nil)
	}
	return &out.Data[0], nil
}

// GetPaymentActions issues GET /payments/{id}/actions.
func (c *Checkout) GetPaymentActions(ctx context.Context, paymentID string) ([]PaymentAction, error) {
	var out []PaymentAction
	path := "/payments/" + url.PathEscape(paymentID) + "/actions"
	if err := c.do(ctx, "get_payment_actions", http.MethodGet, path, nil, nil, &out, ""); err != nil {
		return nil, classify(fmt.Sprintf("actions of payment %s", paymentID), err)
	}
	return out, nil
}

// RefundPayment issues POST /payments/{id}/refunds. Checkout answers 403
// when the payment cannot be refunded and 422 with a refund_* code when the
// remaining balance does not cover the request; both become conflicts.
func (c *Checkout) RefundPayment(ctx context.Context, paymentID string, in RefundRequest, idempotencyKey string) (*RefundAccepted, error) {
	var out RefundAccepted
	path := "/payments/" + url.PathEscape(paymentID) + "/refunds"
	err := c.do(ctx, "refund_payment", http.MethodPost, path, nil, in, &out, idempotencyKey)
	if err == nil {
		return &out, nil
	}

	var ae *apiError
	if errors.As(err, &ae) {
		switch {
		case ae.Status == http.StatusForbidden, ae.Status == http.StatusConflict:
			return nil, apperr.Conflict(fmt.Sprintf("payment %s cannot be refunded", paymentID), err)
		case ae.Status == http.StatusUnprocessableEntity && hasRefundCode(ae.Body.ErrorCodes):
			return nil, apperr.Conflict(fmt.Sprintf("payment %s cannot be refunded: %s", paymentID, strings.Join(ae.Body.ErrorCodes, ", ")), err)
		}
	}
	return nil, classify(fmt.Sprintf("refund of payment %s", paymentID), err)
}

// SearchLatestPayment returns the most recent payment matching the customer
// email, or nil when there is none.
func (c *Checkout) SearchLatestPayment(ctx context.Context, email string) (*Payment, error) {
	var out PaymentList
	in := SearchRequest{Query: fmt.Sprintf("email:%q", email), Limit: 1}
	if err := c.do(ctx, "search_payments", http.MethodPost, "/payments/search", nil, in, &out, ""); err != nil {
		return nil, classify("payment search", err)
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	return &out.Data[0], nil
}

func (c *Checkout) do(ctx context.Context, op, method, path string, query url.Values, in, out any, idempotencyKey string) error {
	start := time.Now()
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.send(ctx, method, path, query, in, out, idempotencyKey)
	})
	m.ObserveGatewayCall(op, outcome(err), time.Since(start).Seconds())
	if err != nil {
		logrus.WithFields(logrus.Fields{"operation": op, "path": path}).WithError(err).Warn("checkout call failed")
	}
	return err
}

func (c *Checkout) send(ctx context.Context, method, path string, query url.Values, in, out any, idempotencyKey string) error {
	var body io.Reader
	if in != nil {
		payload, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost {
		if idempotencyKey == "" {
			idempotencyKey = uuid.NewString()
		}
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		ae := &apiError{Status: resp.StatusCode, Raw: strings.TrimSpace(string(respBody))}
		_ = sonic.Unmarshal(respBody, &ae.Body)
		return ae
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// classify turns a transport or API failure into the adapter's error codes.
func classify(subject string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperr.Upstream("checkout gateway temporarily unavailable", err)
	}
	var ae *apiError
	if errors.As(err, &ae) {
		switch ae.Status {
		case http.StatusNotFound:
			return apperr.NotFound(subject+" not found", err)
		case http.StatusUnauthorized:
			return apperr.Upstream("checkout rejected the configured credentials", err)
		default:
			return apperr.Upstream(fmt.Sprintf("checkout rejected %s (status %d)", subject, ae.Status), err)
		}
	}
	return apperr.Upstream(fmt.Sprintf("checkout call for %s failed", subject), err)
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "breaker_open"
	}
	var ae *apiError
	if errors.As(err, &ae) {
		if ae.Status == http.StatusNotFound {
			return "not_found"
		}
		if ae.Status < http.StatusInternalServerError {
			return "rejected"
		}
	}
	return "error"
}

func hasRefundCode(codes []string) bool {
	for _, c := range codes {
		if strings.HasPrefix(c, "refund_") || c == "payment_not_refundable" {
			return true
		}
	}
	return false
}
