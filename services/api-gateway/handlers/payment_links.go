// services/api-gateway/handlers/payment_links.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperr "github.com/example/checkout-adapter/pkg/errors"
	"github.com/example/checkout-adapter/pkg/money"
	"github.com/example/checkout-adapter/services/api-gateway/clients"
	"github.com/example/checkout-adapter/services/api-gateway/customers"
	"github.com/example/checkout-adapter/services/api-gateway/queue"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

type createLinkParams struct {
	Amount           int64  `query:"amount" validate:"gt=0"`
	Currency         string `query:"currency" validate:"required,iso4217"`
	Email            string `query:"email" validate:"required,email"`
	PhoneNumber      string `query:"phone_number" validate:"required,min=6,max=25"`
	PhoneCountryCode string `query:"phone_country_code" validate:"omitempty,startswith=+,min=2,max=7"`
	BillingCountry   string `query:"billing_country" validate:"required,iso3166_1_alpha2"`
	Reference        string `query:"reference" validate:"max=50"`
}

// CreatePaymentLinkHandler validates the query and issues exactly one
// payment-link creation call. Invalid input never reaches Checkout.
func CreatePaymentLinkHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := CreatePaymentLink(r.Context(), d, r.URL.Query(), r.Header.Get(idempotencyHeader))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// CreatePaymentLink is the create operation shared by the HTTP route and the
// MCP tool. Parameters use the query names of /create-payment-link.
func CreatePaymentLink(ctx context.Context, d Deps, q url.Values, idempotencyKey string) (PaymentLinkOut, error) {
	params, err := parseCreateLink(q, d.Links)
	if err != nil {
		return PaymentLinkOut{}, err
	}

	in := clients.PaymentLinkRequest{
		Amount:      params.Amount,
		Currency:    params.Currency,
		Reference:   params.Reference,
		Description: d.Links.Description,
		Capture:     true,
		Billing:     clients.Billing{Address: clients.Address{Country: params.BillingCountry}},
		Customer: &clients.Customer{
			Email: params.Email,
			Phone: &clients.Phone{CountryCode: params.PhoneCountryCode, Number: params.PhoneNumber},
		},
	}

	link, err := d.Checkout.CreatePaymentLink(ctx, in, idempotencyKey)
	if err != nil {
		return PaymentLinkOut{}, err
	}

	logrus.WithFields(logrus.Fields{
		"payment_link_id": link.ID,
		"reference":       params.Reference,
		"amount":          params.Amount,
		"currency":        params.Currency,
	}).Info("payment link created")
	notify(ctx, d.Bus, queue.NewEvent(queue.EventPaymentLinkCreated, link.ID, params.Reference, params.Amount, params.Currency))

	reference := link.Reference
	if reference == "" {
		reference = params.Reference
	}
	return PaymentLinkOut{
		ID:          link.ID,
		PaymentLink: link.RedirectURL(),
		Reference:   reference,
		ExpiresOn:   link.ExpiresOn,
		Amount:      params.Amount,
		Currency:    params.Currency,
	}, nil
}

func parseCreateLink(q url.Values, defaults LinkDefaults) (createLinkParams, error) {
	var missing []string
	for _, name := range []string{"amount", "currency", "email", "phone_number"} {
		if strings.TrimSpace(q.Get(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return createLinkParams{}, apperr.Validation("missing required parameters: " + strings.Join(missing, ", "))
	}

	amount, err := money.ParseMinor(q.Get("amount"))
	if err != nil {
		return createLinkParams{}, apperr.Validation(err.Error())
	}

	p := createLinkParams{
		Amount:           amount,
		Currency:         strings.ToUpper(strings.TrimSpace(q.Get("currency"))),
		Email:            strings.TrimSpace(q.Get("email")),
		PhoneNumber:      customers.CleanPhone(q.Get("phone_number")),
		PhoneCountryCode: customers.CleanPhone(q.Get("phone_country_code")),
		BillingCountry:   strings.ToUpper(strings.TrimSpace(q.Get("billing_country"))),
		Reference:        strings.TrimSpace(q.Get("reference")),
	}
	if p.PhoneCountryCode == "" {
		p.PhoneCountryCode = customers.CleanPhone(defaults.PhoneCountryCode)
	}
	if p.PhoneCountryCode != "" && !strings.HasPrefix(p.PhoneCountryCode, "+") {
		p.PhoneCountryCode = "+" + p.PhoneCountryCode
	}
	if p.BillingCountry == "" {
		p.BillingCountry = strings.ToUpper(defaults.BillingCountry)
	}
	if p.Reference == "" {
		p.Reference = "ORD-" + uuid.NewString()
	}

	if err := validate.Struct(p); err != nil {
		return createLinkParams{}, validationError(err)
	}
	return p, nil
}

func validationError(err error) error {
	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
		return apperr.Validation(strings.Join(fields, "; "))
	}
	return apperr.Validation(err.Error())
}
