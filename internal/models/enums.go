package models

import "fmt"

// Currencies accepted by the storefront.
const (
	CurrencyUSD = "USD"
	CurrencySSP = "SSP"
)

// ValidCurrency reports whether c is a supported ISO currency code.
func ValidCurrency(c string) bool {
	return c == CurrencyUSD || c == CurrencySSP
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"      // settled through the gateway
	OrderConfirmed OrderStatus = "confirmed" // settled through manual or auto approval
	OrderFailed    OrderStatus = "failed"
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderConfirmed, OrderFailed, OrderCancelled:
		return true
	}
	return false
}

// IsSettled reports whether payment for the order has been accepted.
func (s OrderStatus) IsSettled() bool {
	switch s {
	case OrderPaid, OrderConfirmed:
		return true
	case OrderPending, OrderFailed, OrderCancelled:
		return false
	}
	return false
}

// ParseOrderStatus converts raw into an OrderStatus.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid order status %q", raw)
	}
	return s, nil
}

// LicenseType selects single-use or multi-use licensing.
type LicenseType string

const (
	LicenseSingle LicenseType = "single"
	LicenseMulti  LicenseType = "multi"
)

// Valid reports whether t is a known license type.
func (t LicenseType) Valid() bool {
	return t == LicenseSingle || t == LicenseMulti
}

// ParseLicenseType converts raw into a LicenseType.
func ParseLicenseType(raw string) (LicenseType, error) {
	t := LicenseType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("invalid license type %q", raw)
	}
	return t, nil
}

// DeliveryType selects how the buyer receives the product.
type DeliveryType string

const (
	DeliveryDownload DeliveryType = "download"
	DeliveryDeploy   DeliveryType = "deploy"
	DeliveryBoth     DeliveryType = "both"
)

// Valid reports whether t is a known delivery type.
func (t DeliveryType) Valid() bool {
	switch t {
	case DeliveryDownload, DeliveryDeploy, DeliveryBoth:
		return true
	}
	return false
}

// IncludesDeploy reports whether the agency deploys the product for the buyer.
func (t DeliveryType) IncludesDeploy() bool {
	switch t {
	case DeliveryDeploy, DeliveryBoth:
		return true
	case DeliveryDownload:
		return false
	}
	return false
}

// IncludesDownload reports whether the buyer may download the deliverable.
func (t DeliveryType) IncludesDownload() bool {
	switch t {
	case DeliveryDownload, DeliveryBoth:
		return true
	case DeliveryDeploy:
		return false
	}
	return false
}

// ParseDeliveryType converts raw into a DeliveryType.
func ParseDeliveryType(raw string) (DeliveryType, error) {
	t := DeliveryType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("invalid delivery type %q", raw)
	}
	return t, nil
}

// PaymentMethod is the rail a buyer used for a manual payment.
type PaymentMethod string

const (
	MethodMomo   PaymentMethod = "momo"   // mobile money, SSP only
	MethodEquity PaymentMethod = "equity" // bank transfer, SSP or USD
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == MethodMomo || m == MethodEquity
}

// AcceptsCurrency reports whether the rail can receive currency.
func (m PaymentMethod) AcceptsCurrency(currency string) bool {
	switch m {
	case MethodMomo:
		return currency == CurrencySSP
	case MethodEquity:
		return currency == CurrencySSP || currency == CurrencyUSD
	}
	return false
}

// ParsePaymentMethod converts raw into a PaymentMethod.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	m := PaymentMethod(raw)
	if !m.Valid() {
		return "", fmt.Errorf("invalid payment method %q", raw)
	}
	return m, nil
}

// ReviewStatus is the admin review state of a payment confirmation.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Valid reports whether s is a known review status.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}

// ParseReviewStatus converts raw into a ReviewStatus.
func ParseReviewStatus(raw string) (ReviewStatus, error) {
	s := ReviewStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid review status %q", raw)
	}
	return s, nil
}

// DeployStatus is the progress of a deploy request.
type DeployStatus string

const (
	DeployNew        DeployStatus = "new"
	DeployInProgress DeployStatus = "in_progress"
	DeployDone       DeployStatus = "done"
)

// Valid reports whether s is a known deploy status.
func (s DeployStatus) Valid() bool {
	switch s {
	case DeployNew, DeployInProgress, DeployDone:
		return true
	}
	return false
}

// ParseDeployStatus converts raw into a DeployStatus.
func ParseDeployStatus(raw string) (DeployStatus, error) {
	s := DeployStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid deploy status %q", raw)
	}
	return s, nil
}

// LeadStatus is the triage state of a system request.
type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadInReview  LeadStatus = "in_review"
	LeadContacted LeadStatus = "contacted"
	LeadClosed    LeadStatus = "closed"
)

// Valid reports whether s is a known lead status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadNew, LeadInReview, LeadContacted, LeadClosed:
		return true
	}
	return false
}

// ParseLeadStatus converts raw into a LeadStatus.
func ParseLeadStatus(raw string) (LeadStatus, error) {
	s := LeadStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid lead status %q", raw)
	}
	return s, nil
}
