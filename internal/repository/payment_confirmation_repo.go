package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/storefront_api/internal/database"
	"github.com/GTDGit/storefront_api/internal/models"
)

// ConfirmationFilter narrows the admin confirmation list.
type ConfirmationFilter struct {
	ReviewStatus models.ReviewStatus
	Page         int
	Limit        int
}

// ConfirmationView is a confirmation joined with its order summary.
type ConfirmationView struct {
	models.PaymentConfirmation
	ReferenceCode    string             `db:"reference_code" json:"referenceCode"`
	OrderStatus      models.OrderStatus `db:"order_status" json:"orderStatus"`
	OrderAmountCents int64              `db:"order_amount_cents" json:"orderAmountCents"`
	OrderCurrency    string             `db:"order_currency" json:"orderCurrency"`
	ProductName      string             `db:"product_name" json:"productName"`
}

// RejectParams describes an admin rejection.
type RejectParams struct {
	ConfirmationID  int64
	ReviewedBy      *int64
	Reason          *string
	MarkOrderFailed bool
}

// RejectResult reports the rejected row and whether the order moved to failed.
type RejectResult struct {
	Confirmation *models.PaymentConfirmation
	OrderFailed  bool
}

// PaymentConfirmationRepository handles data access for manual payment claims.
type PaymentConfirmationRepository struct {
	db *sqlx.DB
}

// NewPaymentConfirmationRepository creates a new PaymentConfirmationRepository.
func NewPaymentConfirmationRepository(db *sqlx.DB) *PaymentConfirmationRepository {
	return &PaymentConfirmationRepository{db: db}
}

// Create inserts a pending confirmation. A second pending row for the same
// order yields ErrDuplicate.
func (r *PaymentConfirmationRepository) Create(ctx context.Context, pc *models.PaymentConfirmation) error {
	const q = `
		INSERT INTO payment_confirmations (
			order_id, method, payer_phone, transaction_reference, amount_cents, currency,
			receipt_path, note, amount_matches, review_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending')
		RETURNING id, review_status, created_at`
	err := r.db.QueryRowxContext(ctx, q,
		pc.OrderID, pc.Method, pc.PayerPhone, pc.TransactionReference, pc.AmountCents, pc.Currency,
		pc.ReceiptPath, pc.Note, pc.AmountMatches,
	).Scan(&pc.ID, &pc.ReviewStatus, &pc.CreatedAt)
	return translate(err)
}

// GetByID returns a single confirmation by id.
func (r *PaymentConfirmationRepository) GetByID(ctx context.Context, id int64) (*models.PaymentConfirmation, error) {
	var pc models.PaymentConfirmation
	if err := r.db.GetContext(ctx, &pc, `SELECT * FROM payment_confirmations WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &pc, nil
}

// GetPendingByOrder returns the pending confirmation of an order, if any.
func (r *PaymentConfirmationRepository) GetPendingByOrder(ctx context.Context, orderID int64) (*models.PaymentConfirmation, error) {
	const q = `SELECT * FROM payment_confirmations WHERE order_id = $1 AND review_status = 'pending'`
	var pc models.PaymentConfirmation
	if err := r.db.GetContext(ctx, &pc, q, orderID); err != nil {
		return nil, err
	}
	return &pc, nil
}

// ListByOrder returns every confirmation of an order, newest first.
func (r *PaymentConfirmationRepository) ListByOrder(ctx context.Context, orderID int64) ([]models.PaymentConfirmation, error) {
	const q = `SELECT * FROM payment_confirmations WHERE order_id = $1 ORDER BY created_at DESC, id DESC`
	list := []models.PaymentConfirmation{}
	if err := r.db.SelectContext(ctx, &list, q, orderID); err != nil {
		return nil, err
	}
	return list, nil
}

// List returns confirmations for the admin review queue.
func (r *PaymentConfirmationRepository) List(ctx context.Context, filter ConfirmationFilter) ([]ConfirmationView, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argIdx := 1
	if filter.ReviewStatus != "" {
		where += fmt.Sprintf(" AND pc.review_status = $%d", argIdx)
		args = append(args, filter.ReviewStatus)
		argIdx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM payment_confirmations pc`+where, args...); err != nil {
		return nil, 0, err
	}

	limit, offset := offsetFor(filter.Page, filter.Limit)
	q := fmt.Sprintf(`
		SELECT pc.*, o.reference_code, o.status AS order_status,
		       o.amount_cents AS order_amount_cents, o.currency AS order_currency,
		       p.name AS product_name
		FROM payment_confirmations pc
		JOIN orders o ON o.id = pc.order_id
		JOIN products p ON p.id = o.product_id%s
		ORDER BY pc.created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	list := []ConfirmationView{}
	if err := r.db.SelectContext(ctx, &list, q, args...); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Reject moves a pending confirmation to rejected and, when asked, fails a
// still-pending order in the same transaction.
func (r *PaymentConfirmationRepository) Reject(ctx context.Context, p RejectParams) (*RejectResult, error) {
	result := &RejectResult{}
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const reject = `
			UPDATE payment_confirmations
			SET review_status = 'rejected', reviewed_by = $2, reviewed_at = NOW(), review_note = $3
			WHERE id = $1 AND review_status = 'pending'
			RETURNING *`
		var pc models.PaymentConfirmation
		if err := tx.GetContext(ctx, &pc, reject, p.ConfirmationID, p.ReviewedBy, p.Reason); err != nil {
			return err
		}
		result.Confirmation = &pc

		if !p.MarkOrderFailed {
			return nil
		}
		const fail = `UPDATE orders SET status = 'failed', updated_at = NOW() WHERE id = $1 AND status = 'pending'`
		res, err := tx.ExecContext(ctx, fail, pc.OrderID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		result.OrderFailed = n > 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
