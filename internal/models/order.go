package models

import "time"

// Order is created at checkout. AmountCents is fixed at creation time and the
// AccessToken is the only identifier ever exposed to the buyer.
type Order struct {
	ID                int64        `db:"id" json:"id"`
	ProductID         int64        `db:"product_id" json:"productId"`
	AccessToken       string       `db:"access_token" json:"accessToken"`
	ReferenceCode     string       `db:"reference_code" json:"referenceCode"`
	BuyerName         *string      `db:"buyer_name" json:"buyerName,omitempty"`
	BuyerEmail        *string      `db:"buyer_email" json:"buyerEmail,omitempty"`
	BuyerPhone        string       `db:"buyer_phone" json:"buyerPhone"`
	LicenseType       LicenseType  `db:"license_type" json:"licenseType"`
	DeliveryType      DeliveryType `db:"delivery_type" json:"deliveryType"`
	AmountCents       int64        `db:"amount_cents" json:"amountCents"`
	Currency          string       `db:"currency" json:"currency"`
	Status            OrderStatus  `db:"status" json:"status"`
	ProviderReference *string      `db:"provider_reference" json:"providerReference,omitempty"`
	GatewaySessionID  *string      `db:"gateway_session_id" json:"gatewaySessionId,omitempty"`
	CheckoutURL       *string      `db:"checkout_url" json:"checkoutUrl,omitempty"`
	PaidAt            *time.Time   `db:"paid_at" json:"paidAt,omitempty"`
	AdminNotes        *string      `db:"admin_notes" json:"adminNotes,omitempty"`
	CreatedAt         time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updatedAt"`
}

// BuyerEmailAddress returns the buyer email or an empty string.
func (o *Order) BuyerEmailAddress() string {
	if o.BuyerEmail == nil {
		return ""
	}
	return *o.BuyerEmail
}

// LicenseKey is issued exactly once per settled order.
type LicenseKey struct {
	ID         int64     `db:"id" json:"id"`
	OrderID    int64     `db:"order_id" json:"orderId"`
	LicenseKey string    `db:"license_key" json:"licenseKey"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// DeployRequest tracks agency-side deployment for orders that include it.
type DeployRequest struct {
	ID        int64        `db:"id" json:"id"`
	OrderID   int64        `db:"order_id" json:"orderId"`
	Status    DeployStatus `db:"status" json:"status"`
	Notes     *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt"`
}
