// services/api-gateway/handlers/respond.go
package handlers

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	apperr "github.com/example/checkout-adapter/pkg/errors"
	"github.com/example/checkout-adapter/services/api-gateway/queue"
)

const idempotencyHeader = "Idempotency-Key"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

// writeError is the single place errors leave the service.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	entry := logrus.WithFields(logrus.Fields{
		"path":   r.URL.Path,
		"status": status,
		"code":   apperr.CodeOf(err),
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	writeJSON(w, status, ErrorOut{Status: "FAILED", Error: apperr.CodeOf(err), Message: apperr.Message(err)})
}

// notify publishes best-effort; the operation already succeeded at Checkout.
func notify(ctx context.Context, bus queue.Publisher, e queue.Event) {
	if bus == nil {
		return
	}
	if err := bus.Publish(context.WithoutCancel(ctx), e); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"type": e.Type, "payment_id": e.PaymentID}).Warn("publish operation event")
	}
}
