package models

import "time"

// PaymentConfirmation is a buyer's claim of a manual mobile-money or bank payment.
type PaymentConfirmation struct {
	ID                   int64         `db:"id" json:"id"`
	OrderID              int64         `db:"order_id" json:"orderId"`
	Method               PaymentMethod `db:"method" json:"method"`
	PayerPhone           *string       `db:"payer_phone" json:"payerPhone,omitempty"`
	TransactionReference string        `db:"transaction_reference" json:"transactionReference"`
	AmountCents          int64         `db:"amount_cents" json:"amountCents"`
	Currency             string        `db:"currency" json:"currency"`
	ReceiptPath          *string       `db:"receipt_path" json:"receiptPath,omitempty"`
	Note                 *string       `db:"note" json:"note,omitempty"`
	AmountMatches        bool          `db:"amount_matches" json:"amountMatches"`
	ReviewStatus         ReviewStatus  `db:"review_status" json:"reviewStatus"`
	AutoApproved         bool          `db:"auto_approved" json:"autoApproved"`
	ReviewedBy           *int64        `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt           *time.Time    `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewNote           *string       `db:"review_note" json:"reviewNote,omitempty"`
	CreatedAt            time.Time     `db:"created_at" json:"createdAt"`
}
