// internal/mcp/tools.go
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	apperr "github.com/example/checkout-adapter/pkg/errors"
	"github.com/example/checkout-adapter/services/api-gateway/handlers"
)

var errUnknownTool = errors.New("unknown tool")

// ToolHandler runs the same operations as the HTTP routes, so tool input is
// validated by identical rules before Checkout is called.
type ToolHandler struct {
	deps handlers.Deps
}

func NewToolHandler(d handlers.Deps) *ToolHandler {
	return &ToolHandler{deps: d}
}

func (h *ToolHandler) Handle(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "create_payment_link":
		q, err := argValues(args, map[string]string{
			"amount":             "amount",
			"currency":           "currency",
			"customer_email":     "email",
			"phone_number":       "phone_number",
			"phone_country_code": "phone_country_code",
			"billing_country":    "billing_country",
			"reference":          "reference",
		})
		if err != nil {
			return nil, err
		}
		return handlers.CreatePaymentLink(ctx, h.deps, q, stringArg(args, "idempotency_key"))
	case "lookup_payment_info":
		q, err := argValues(args, map[string]string{
			"payment_id":       "payment_id",
			"reference_number": "reference_number",
		})
		if err != nil {
			return nil, err
		}
		return handlers.LookupPayment(ctx, h.deps, q)
	case "refund_payment":
		q, err := argValues(args, map[string]string{
			"payment_id": "payment_id",
			"amount":     "amount",
			"reference":  "reference",
		})
		if err != nil {
			return nil, err
		}
		return handlers.RefundPayment(ctx, h.deps, q, stringArg(args, "idempotency_key"))
	default:
		return nil, errUnknownTool
	}
}

// argValues maps tool arguments onto the query names the operations read.
// Scalars only; numbers keep their literal text.
func argValues(args map[string]any, names map[string]string) (url.Values, error) {
	q := url.Values{}
	for arg, param := range names {
		v, ok := args[arg]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			q.Set(param, t)
		case json.Number:
			q.Set(param, t.String())
		case float64:
			q.Set(param, strconv.FormatFloat(t, 'f', -1, 64))
		case bool:
			q.Set(param, strconv.FormatBool(t))
		default:
			return nil, apperr.Validation(fmt.Sprintf("%s must be a string or a number", arg))
		}
	}
	return q, nil
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func toolError(err error) string {
	text, mErr := codec.MarshalToString(handlers.ErrorOut{
		Status:  "FAILED",
		Error:   apperr.CodeOf(err),
		Message: apperr.Message(err),
	})
	if mErr != nil {
		return "Error: " + apperr.Message(err)
	}
	return text
}

func toolDefinitions() []Tool {
	str := func(desc string) map[string]any { return map[string]any{"type": "string", "description": desc} }
	idem := str("Optional key forwarded as Cko-Idempotency-Key; retries with the same key are deduplicated")

	return []Tool{
		{
			Name: "create_payment_link",
			Description: "Creates a hosted payment page link for the customer to complete a payment. " +
				"Amount is in minor units (1000 AED = 10.00 AED).",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"amount":             map[string]any{"type": "integer", "minimum": 1, "description": "Amount in minor units"},
					"currency":           str("ISO 4217 currency code, e.g. AED"),
					"customer_email":     str("Customer email address"),
					"phone_number":       str("Customer phone number, 6 to 25 digits"),
					"phone_country_code": str("Dialing prefix such as +971; defaults to the configured code"),
					"billing_country":    str("ISO 3166-1 alpha-2 billing country; defaults to the configured country"),
					"reference":          str("Merchant order reference; generated when omitted"),
					"idempotency_key":    idem,
				},
				"required": []string{"amount", "currency", "customer_email", "phone_number"},
			},
		},
		{
			Name: "lookup_payment_info",
			Description: "Looks up payment details using either a payment id or an order reference number. " +
				"payment_id wins when both are given.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"payment_id":       str("Checkout payment id, e.g. pay_..."),
					"reference_number": str("Merchant order reference"),
				},
			},
		},
		{
			Name:        "refund_payment",
			Description: "Requests a refund for a captured payment. Omit amount for a full refund.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"payment_id":      str("Checkout payment id"),
					"amount":          map[string]any{"type": "integer", "minimum": 1, "description": "Partial refund amount in minor units"},
					"reference":       str("Refund reference"),
					"idempotency_key": idem,
				},
				"required": []string{"payment_id"},
			},
		},
	}
}
