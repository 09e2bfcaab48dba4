// services/api-gateway/clients/types.go
package clients

// Request and response bodies of the Checkout.com REST API. Only the fields
// the adapter reads or forwards are modelled.

type Phone struct {
	CountryCode string `json:"country_code,omitempty"`
	Number      string `json:"number"`
}

type Customer struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone *Phone `json:"phone,omitempty"`
}

type Address struct {
	Country string `json:"country"`
}

type Billing struct {
	Address Address `json:"address"`
}

type PaymentLinkRequest struct {
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Reference   string    `json:"reference,omitempty"`
	Description string    `json:"description,omitempty"`
	Capture     bool      `json:"capture"`
	Billing     Billing   `json:"billing"`
	Customer    *Customer `json:"customer,omitempty"`
}

type Link struct {
	Href string `json:"href"`
}

type PaymentLink struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	ExpiresOn string `json:"expires_on"`
	Links     struct {
		Self     *Link `json:"self,omitempty"`
		Redirect *Link `json:"redirect,omitempty"`
	} `json:"_links"`
}

// RedirectURL is the hosted page the customer is sent to.
func (p PaymentLink) RedirectURL() string {
	if p.Links.Redirect == nil {
		return ""
	}
	return p.Links.Redirect.Href
}

type Payment struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Approved    bool      `json:"approved"`
	Reference   string    `json:"reference,omitempty"`
	RequestedOn string    `json:"requested_on,omitempty"`
	Customer    *Customer `json:"customer,omitempty"`
}

// Payment statuses returned by GET /payments/{id}.
const (
	StatusAuthorized         = "Authorized"
	StatusCaptured           = "Captured"
	StatusPartiallyCaptured  = "Partially Captured"
	StatusPartiallyRefunded  = "Partially Refunded"
	StatusRefunded           = "Refunded"
	StatusDeclined           = "Declined"
	StatusVoided             = "Voided"
	StatusCanceled           = "Canceled"
	StatusExpired            = "Expired"
	StatusPending            = "Pending"
	StatusCardVerified       = "Card Verified"
	StatusRetryScheduled     = "Retry Scheduled"
	StatusPaid               = "Paid"
	AuthorizationTypeFinal   = "Final"
	AuthorizationTypeInitial = "Initial"
)

type PaymentList struct {
	TotalCount int       `json:"total_count,omitempty"`
	Data       []Payment `json:"data"`
}

type PaymentAction struct {
	ID                string `json:"id"`
	Type              string `json:"type"`
	Amount            int64  `json:"amount"`
	Approved          bool   `json:"approved"`
	ResponseCode      string `json:"response_code"`
	ResponseSummary   string `json:"response_summary,omitempty"`
	AuthorizationType string `json:"authorization_type,omitempty"`
	Reference         string `json:"reference,omitempty"`
}

type RefundRequest struct {
	Amount    int64  `json:"amount,omitempty"`
	Reference string `json:"reference,omitempty"`
}

type RefundAccepted struct {
	ActionID  string `json:"action_id"`
	Reference string `json:"reference,omitempty"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// ErrorResponse is the body Checkout returns with 4xx statuses.
type ErrorResponse struct {
	RequestID  string   `json:"request_id,omitempty"`
	ErrorType  string   `json:"error_type,omitempty"`
	ErrorCodes []string `json:"error_codes,omitempty"`
}
