// services/api-gateway/handlers/payments.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	apperr "github.com/example/checkout-adapter/pkg/errors"
	"github.com/example/checkout-adapter/pkg/money"
	"github.com/example/checkout-adapter/services/api-gateway/clients"
	"github.com/example/checkout-adapter/services/api-gateway/queue"
)

// LookupPaymentHandler resolves a payment by id, or by merchant reference
// when no id is given.
func LookupPaymentHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := LookupPayment(r.Context(), d, r.URL.Query())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// LookupPayment reads payment_id, falling back to reference_number.
func LookupPayment(ctx context.Context, d Deps, q url.Values) (PaymentOut, error) {
	paymentID := strings.TrimSpace(q.Get("payment_id"))
	reference := strings.TrimSpace(q.Get("reference_number"))

	var (
		p   *clients.Payment
		err error
	)
	switch {
	case paymentID != "":
		p, err = d.Checkout.GetPayment(ctx, paymentID)
	case reference != "":
		p, err = d.Checkout.FindPaymentByReference(ctx, reference)
	default:
		err = apperr.Validation("provide either payment_id or reference_number")
	}
	if err != nil {
		return PaymentOut{}, err
	}

	out := PaymentOut{
		ID:        p.ID,
		Status:    p.Status,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Approved:  p.Approved,
		Reference: p.Reference,
	}

	if p.Status == clients.StatusDeclined {
		actions, err := d.Checkout.GetPaymentActions(ctx, p.ID)
		if err != nil {
			return PaymentOut{}, fmt.Errorf("declined payment %s: %w", p.ID, err)
		}
		out.DeclinedResponseCodes = finalResponseCodes(actions)
	}
	return out, nil
}

func finalResponseCodes(actions []clients.PaymentAction) []string {
	var codes []string
	for _, a := range actions {
		if a.AuthorizationType == clients.AuthorizationTypeFinal && a.ResponseCode != "" {
			codes = append(codes, a.ResponseCode)
		}
	}
	return codes
}

// statuses for which Checkout will not accept a refund
var nonRefundable = map[string]string{
	clients.StatusRefunded: "has already been refunded",
	clients.StatusDeclined: "was declined",
	clients.StatusVoided:   "was voided",
	clients.StatusCanceled: "was canceled",
	clients.StatusExpired:  "has expired",
}

// RefundPaymentHandler checks the payment state before asking Checkout to
// refund, so a second refund is reported as a conflict.
func RefundPaymentHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := RefundPayment(r.Context(), d, r.URL.Query(), r.Header.Get(idempotencyHeader))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// RefundPayment reads payment_id and the optional amount and reference.
func RefundPayment(ctx context.Context, d Deps, q url.Values, idempotencyKey string) (RefundOut, error) {
	paymentID := strings.TrimSpace(q.Get("payment_id"))
	if paymentID == "" {
		return RefundOut{}, apperr.Validation("missing required parameter: payment_id")
	}

	var in clients.RefundRequest
	if raw := strings.TrimSpace(q.Get("amount")); raw != "" {
		amount, err := money.ParseMinor(raw)
		if err != nil {
			return RefundOut{}, apperr.Validation(err.Error())
		}
		in.Amount = amount
	}
	in.Reference = strings.TrimSpace(q.Get("reference"))
	if len(in.Reference) > 80 {
		return RefundOut{}, apperr.Validation("reference must be at most 80 characters")
	}

	p, err := d.Checkout.GetPayment(ctx, paymentID)
	if err != nil {
		return RefundOut{}, err
	}
	if reason, blocked := nonRefundable[p.Status]; blocked {
		return RefundOut{}, apperr.Conflict(fmt.Sprintf("payment %s %s", paymentID, reason), nil)
	}

	res, err := d.Checkout.RefundPayment(ctx, paymentID, in, idempotencyKey)
	if err != nil {
		return RefundOut{}, err
	}

	amount := in.Amount
	if amount == 0 {
		amount = p.Amount
	}
	logrus.WithFields(logrus.Fields{"payment_id": paymentID, "action_id": res.ActionID}).Info("refund requested")
	notify(ctx, d.Bus, queue.NewEvent(queue.EventRefundRequested, paymentID, res.Reference, amount, p.Currency))

	return RefundOut{
		PaymentID: paymentID,
		ActionID:  res.ActionID,
		Reference: res.Reference,
		Status:    clients.StatusPending,
	}, nil
}
