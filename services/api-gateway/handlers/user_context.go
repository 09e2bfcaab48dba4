// services/api-gateway/handlers/user_context.go
package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"github.com/example/checkout-adapter/pkg/money"
	"github.com/example/checkout-adapter/services/api-gateway/customers"
)

const (
	maxWebhookBytes = 1 << 20
	unknownCustomer = "Valued Customer"
	notAvailable    = "N/A"
)

// UserContextHandler answers the assistant's dynamic-variables webhook. The
// webhook contract expects a 200 even when nothing can be resolved, so
// failures are reported through lookup_result instead of the status code.
func UserContextHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			writeContextError(w, fmt.Sprintf("Failed to read webhook payload: %v", err))
			return
		}

		var payload any
		if err := sonic.Unmarshal(body, &payload); err != nil {
			writeContextError(w, fmt.Sprintf("Failed to parse webhook payload: %v", err))
			return
		}

		target := stringAt(payload, "data", "payload", "telnyx_end_user_target")
		if strings.TrimSpace(target) == "" {
			writeContextError(w, "Missing telnyx_end_user_target in webhook payload.")
			return
		}

		out := UserContextOut{
			Memory: &Memory{
				ConversationQuery: fmt.Sprintf("metadata->telnyx_end_user_target=eq.%s&limit=5&order=last_message_at.desc", target),
			},
			Conversation: &Conversation{Metadata: ConversationMetadata{
				CustomerTier:      d.UserContext.Tier,
				PreferredLanguage: d.UserContext.Language,
				Timezone:          d.UserContext.Timezone,
			}},
		}

		log := logrus.WithField("caller", customers.CleanPhone(target))

		customer, known := d.Customers.Lookup(target)
		if !known {
			log.Info("caller not in customer directory")
			out.DynamicVariables = notFoundVariables(unknownCustomer, notAvailable, d.UserContext.Threshold)
			writeJSON(w, http.StatusOK, out)
			return
		}
		name := customer.Name
		if name == "" {
			name = unknownCustomer
		}

		latest, err := d.Checkout.SearchLatestPayment(r.Context(), customer.Email)
		if err != nil {
			log.WithError(err).Error("payment search for caller failed")
			out.DynamicVariables = DynamicVariables{
				LookupResult:  LookupError,
				ErrorMessage:  "Payment lookup is temporarily unavailable.",
				CustomerName:  name,
				CustomerEmail: customer.Email,
				Threshold:     d.UserContext.Threshold,
			}
			writeJSON(w, http.StatusOK, out)
			return
		}
		if latest == nil {
			out.DynamicVariables = notFoundVariables(name, customer.Email, d.UserContext.Threshold)
			writeJSON(w, http.StatusOK, out)
			return
		}

		vars := DynamicVariables{
			LookupResult:      LookupSuccess,
			PaymentID:         latest.ID,
			CustomerName:      name,
			CustomerEmail:     customer.Email,
			LastOrderNumber:   orNA(latest.Reference),
			LastPaymentStatus: orNA(latest.Status),
			LastPaymentAmount: money.FormatMinor(latest.Amount, currencyOrDefault(latest.Currency)),
			Threshold:         d.UserContext.Threshold,
		}
		if latest.Customer != nil {
			if latest.Customer.Name != "" {
				vars.CustomerName = latest.Customer.Name
			}
			if latest.Customer.Email != "" {
				vars.CustomerEmail = latest.Customer.Email
			}
		}
		out.DynamicVariables = vars
		writeJSON(w, http.StatusOK, out)
	}
}

func writeContextError(w http.ResponseWriter, msg string) {
	logrus.WithField("reason", msg).Warn("user context webhook rejected")
	writeJSON(w, http.StatusOK, UserContextOut{DynamicVariables: DynamicVariables{
		LookupResult: LookupError,
		ErrorMessage: msg,
	}})
}

func notFoundVariables(name, email string, threshold int) DynamicVariables {
	return DynamicVariables{
		LookupResult:      LookupNotFound,
		PaymentID:         notAvailable,
		CustomerName:      name,
		CustomerEmail:     email,
		LastOrderNumber:   notAvailable,
		LastPaymentStatus: "No Recent Transaction",
		LastPaymentAmount: notAvailable,
		Threshold:         threshold,
	}
}

// stringAt walks nested JSON objects; anything other than a string at the
// end of the path yields "".
func stringAt(v any, path ...string) string {
	for _, key := range path {
		obj, ok := v.(map[string]any)
		if !ok {
			return ""
		}
		v = obj[key]
	}
	s, _ := v.(string)
	return s
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}
