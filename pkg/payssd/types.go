package payssd

// SessionStatus is the lifecycle state of a checkout session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionConfirmed SessionStatus = "confirmed"
	SessionFailed    SessionStatus = "failed"
	SessionExpired   SessionStatus = "expired"
	SessionCancelled SessionStatus = "cancelled"
)

// Customer identifies the payer on the hosted page.
type Customer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// CreateSessionRequest opens a hosted checkout. Amount is in minor units.
type CreateSessionRequest struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	Description string            `json:"description,omitempty"`
	CallbackURL string            `json:"callback_url"`
	Customer    Customer          `json:"customer"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Session is a hosted checkout session.
type Session struct {
	ID               string            `json:"id"`
	Status           SessionStatus     `json:"status"`
	CheckoutURL      string            `json:"checkout_url"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Reference        string            `json:"reference"`
	PaymentReference string            `json:"payment_reference,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}
