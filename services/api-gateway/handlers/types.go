// services/api-gateway/handlers/types.go
package handlers

import (
	"context"

	"github.com/example/checkout-adapter/services/api-gateway/clients"
	"github.com/example/checkout-adapter/services/api-gateway/customers"
	"github.com/example/checkout-adapter/services/api-gateway/queue"
)

// CheckoutAPI is the part of the Checkout client the handlers call.
type CheckoutAPI interface {
	CreatePaymentLink(ctx context.Context, in clients.PaymentLinkRequest, idempotencyKey string) (*clients.PaymentLink, error)
	GetPayment(ctx context.Context, paymentID string) (*clients.Payment, error)
	FindPaymentByReference(ctx context.Context, reference string) (*clients.Payment, error)
	GetPaymentActions(ctx context.Context, paymentID string) ([]clients.PaymentAction, error)
	RefundPayment(ctx context.Context, paymentID string, in clients.RefundRequest, idempotencyKey string) (*clients.RefundAccepted, error)
	SearchLatestPayment(ctx context.Context, email string) (*clients.Payment, error)
}

type Deps struct {
	Checkout    CheckoutAPI
	Bus         queue.Publisher
	Customers   *customers.Directory
	Links       LinkDefaults
	UserContext ContextDefaults
}

type LinkDefaults struct {
	Description      string
	BillingCountry   string
	PhoneCountryCode string
}

type ContextDefaults struct {
	Threshold int
	Tier      string
	Language  string
	Timezone  string
}

type HealthOut struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	TS      string `json:"ts"`
}

type ErrorOut struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type PaymentLinkOut struct {
	ID          string `json:"id"`
	PaymentLink string `json:"payment_link"`
	Reference   string `json:"reference,omitempty"`
	ExpiresOn   string `json:"expires_on,omitempty"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

type PaymentOut struct {
	ID                    string   `json:"id"`
	Status                string   `json:"status"`
	Amount                int64    `json:"amount"`
	Currency              string   `json:"currency"`
	Approved              bool     `json:"approved"`
	Reference             string   `json:"reference,omitempty"`
	DeclinedResponseCodes []string `json:"declined_response_codes,omitempty"`
}

type RefundOut struct {
	PaymentID string `json:"payment_id"`
	ActionID  string `json:"action_id"`
	Reference string `json:"reference,omitempty"`
	Status    string `json:"status"`
}

// Field names follow the variables the voice assistant prompt references.
type DynamicVariables struct {
	LookupResult      string `json:"lookup_result"`
	ErrorMessage      string `json:"error_message,omitempty"`
	PaymentID         string `json:"payment_Id,omitempty"`
	CustomerName      string `json:"customer_name,omitempty"`
	CustomerEmail     string `json:"customer_email,omitempty"`
	LastOrderNumber   string `json:"last_order_number,omitempty"`
	LastPaymentStatus string `json:"last_payment_status,omitempty"`
	LastPaymentAmount string `json:"last_payment_amount,omitempty"`
	Threshold         int    `json:"threshold,omitempty"`
}

type Memory struct {
	ConversationQuery string `json:"conversation_query"`
}

type ConversationMetadata struct {
	CustomerTier      string `json:"customer_tier"`
	PreferredLanguage string `json:"preferred_language"`
	Timezone          string `json:"timezone"`
}

type Conversation struct {
	Metadata ConversationMetadata `json:"metadata"`
}

type UserContextOut struct {
	DynamicVariables DynamicVariables `json:"dynamic_variables"`
	Memory           *Memory          `json:"memory,omitempty"`
	Conversation     *Conversation    `json:"conversation,omitempty"`
}

const (
	LookupSuccess  = "success"
	LookupNotFound = "not_found"
	LookupError    = "error"
)
