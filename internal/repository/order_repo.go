package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/storefront_api/internal/database"
	"github.com/GTDGit/storefront_api/internal/models"
)

// OrderFilter narrows the admin order list.
type OrderFilter struct {
	Status models.OrderStatus
	Search string // matches reference code, buyer name, phone or email
	Page   int
	Limit  int
}

// OrderView is an order joined with its product name.
type OrderView struct {
	models.Order
	ProductName string `db:"product_name" json:"productName"`
}

// ConfirmPaymentParams drives the settle-and-fulfil transaction.
type ConfirmPaymentParams struct {
	OrderID           int64
	Status            models.OrderStatus // paid or confirmed
	ProviderReference *string
	PaidAt            time.Time
	LicenseKey        string

	// When set, the confirmation is moved from pending to approved in the
	// same transaction.
	ConfirmationID *int64
	ReviewedBy     *int64
	ReviewNote     *string
	AutoApproved   bool
}

// ConfirmPaymentResult reports what the transaction found and changed.
type ConfirmPaymentResult struct {
	Order          *models.Order
	License        *models.LicenseKey
	DeployRequest  *models.DeployRequest
	AlreadySettled bool
}

// OrderRepository handles data access for orders and their fulfilment rows.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new pending order.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	const q = `
		INSERT INTO orders (
			product_id, access_token, reference_code, buyer_name, buyer_email, buyer_phone,
			license_type, delivery_type, amount_cents, currency, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, q,
		o.ProductID, o.AccessToken, o.ReferenceCode, o.BuyerName, o.BuyerEmail, o.BuyerPhone,
		o.LicenseType, o.DeliveryType, o.AmountCents, o.Currency, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	return translate(err)
}

// GetByID returns a single order by id.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	if err := r.db.GetContext(ctx, &o, `SELECT * FROM orders WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByAccessToken returns the order a buyer token points to.
func (r *OrderRepository) GetByAccessToken(ctx context.Context, token string) (*models.Order, error) {
	var o models.Order
	if err := r.db.GetContext(ctx, &o, `SELECT * FROM orders WHERE access_token = $1`, token); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByReferenceCode returns an order by its short reference code.
func (r *OrderRepository) GetByReferenceCode(ctx context.Context, code string) (*models.Order, error) {
	var o models.Order
	if err := r.db.GetContext(ctx, &o, `SELECT * FROM orders WHERE reference_code = $1`, code); err != nil {
		return nil, err
	}
	return &o, nil
}

// SetGatewaySession stores the hosted checkout session on the order.
func (r *OrderRepository) SetGatewaySession(ctx context.Context, id int64, sessionID, checkoutURL string) error {
	const q = `UPDATE orders SET gateway_session_id = $2, checkout_url = $3, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, sessionID, checkoutURL)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// UpdateAdminNotes replaces the internal notes on an order.
func (r *OrderRepository) UpdateAdminNotes(ctx context.Context, id int64, notes *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET admin_notes = $2, updated_at = NOW() WHERE id = $1`, id, notes)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// TransitionStatus moves an order to `to` only if it is currently in one of
// `from`. It reports whether a row changed.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id int64, from []models.OrderStatus, to models.OrderStatus) (bool, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	const q = `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 AND status = ANY($3)`
	res, err := r.db.ExecContext(ctx, q, id, to, pqStrings(allowed))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns orders for the admin console with the total count.
func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]OrderView, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		where += fmt.Sprintf(" AND o.status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(` AND (o.reference_code ILIKE $%d OR o.buyer_name ILIKE $%d
			OR o.buyer_phone ILIKE $%d OR o.buyer_email ILIKE $%d)`, argIdx, argIdx, argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM orders o`+where, args...); err != nil {
		return nil, 0, err
	}

	limit, offset := offsetFor(filter.Page, filter.Limit)
	q := fmt.Sprintf(`
		SELECT o.*, p.name AS product_name
		FROM orders o
		JOIN products p ON p.id = o.product_id%s
		ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	orders := []OrderView{}
	if err := r.db.SelectContext(ctx, &orders, q, args...); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListGatewayPending returns pending orders holding a gateway session that
// were created between createdAfter and createdBefore, oldest first.
func (r *OrderRepository) ListGatewayPending(ctx context.Context, createdAfter, createdBefore time.Time, limit int) ([]models.Order, error) {
	const q = `
		SELECT * FROM orders
		WHERE status = 'pending'
		  AND gateway_session_id IS NOT NULL
		  AND created_at > $1
		  AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3`
	orders := []models.Order{}
	if err := r.db.SelectContext(ctx, &orders, q, createdAfter, createdBefore, limit); err != nil {
		return nil, err
	}
	return orders, nil
}

// ConfirmPayment settles an order and issues its fulfilment rows in one
// transaction. Repeated calls are safe: the order compare-and-swap only
// succeeds once and the license and deploy inserts ignore conflicts.
func (r *OrderRepository) ConfirmPayment(ctx context.Context, p ConfirmPaymentParams) (*ConfirmPaymentResult, error) {
	if !p.Status.IsSettled() {
		return nil, fmt.Errorf("confirm payment: %q is not a settled status", p.Status)
	}

	result := &ConfirmPaymentResult{}
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if p.ConfirmationID != nil {
			const approve = `
				UPDATE payment_confirmations
				SET review_status = 'approved', auto_approved = $3, reviewed_by = $4,
				    reviewed_at = NOW(), review_note = $5
				WHERE id = $1 AND order_id = $2 AND review_status = 'pending'`
			res, err := tx.ExecContext(ctx, approve, *p.ConfirmationID, p.OrderID, p.AutoApproved, p.ReviewedBy, p.ReviewNote)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n == 0 {
				return ErrNotPending
			}
		}

		const settle = `
			UPDATE orders
			SET status = $2,
			    provider_reference = COALESCE($3, provider_reference),
			    paid_at = COALESCE(paid_at, $4),
			    updated_at = NOW()
			WHERE id = $1 AND status NOT IN ('paid', 'confirmed')
			RETURNING *`
		var order models.Order
		err := tx.GetContext(ctx, &order, settle, p.OrderID, p.Status, p.ProviderReference, p.PaidAt)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Either missing or settled by an earlier call.
			if err := tx.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, p.OrderID); err != nil {
				return err
			}
			result.AlreadySettled = true
		case err != nil:
			return err
		}
		result.Order = &order

		const issueLicense = `
			INSERT INTO license_keys (order_id, license_key) VALUES ($1, $2)
			ON CONFLICT (order_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, issueLicense, order.ID, p.LicenseKey); err != nil {
			return translate(err)
		}
		var license models.LicenseKey
		if err := tx.GetContext(ctx, &license, `SELECT * FROM license_keys WHERE order_id = $1`, order.ID); err != nil {
			return err
		}
		result.License = &license

		if order.DeliveryType.IncludesDeploy() {
			const openDeploy = `
				INSERT INTO deploy_requests (order_id, status) VALUES ($1, 'new')
				ON CONFLICT (order_id) DO NOTHING`
			if _, err := tx.ExecContext(ctx, openDeploy, order.ID); err != nil {
				return err
			}
			var dr models.DeployRequest
			if err := tx.GetContext(ctx, &dr, `SELECT * FROM deploy_requests WHERE order_id = $1`, order.ID); err != nil {
				return err
			}
			result.DeployRequest = &dr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
