package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/storefront_api/internal/models"
)

// DeployRequestFilter narrows the admin deploy queue.
type DeployRequestFilter struct {
	Status models.DeployStatus
	Page   int
	Limit  int
}

// DeployRequestView is a deploy request joined with the buyer contact.
type DeployRequestView struct {
	models.DeployRequest
	ReferenceCode string  `db:"reference_code" json:"referenceCode"`
	BuyerName     *string `db:"buyer_name" json:"buyerName,omitempty"`
	BuyerEmail    *string `db:"buyer_email" json:"buyerEmail,omitempty"`
	BuyerPhone    string  `db:"buyer_phone" json:"buyerPhone"`
	ProductName   string  `db:"product_name" json:"productName"`
}

// LicenseRepository reads issued license keys.
type LicenseRepository struct {
	db *sqlx.DB
}

// NewLicenseRepository creates a new LicenseRepository.
func NewLicenseRepository(db *sqlx.DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

// GetByOrder returns the license issued for an order.
func (r *LicenseRepository) GetByOrder(ctx context.Context, orderID int64) (*models.LicenseKey, error) {
	var lk models.LicenseKey
	if err := r.db.GetContext(ctx, &lk, `SELECT * FROM license_keys WHERE order_id = $1`, orderID); err != nil {
		return nil, err
	}
	return &lk, nil
}

// DeployRequestRepository handles data access for deploy requests.
type DeployRequestRepository struct {
	db *sqlx.DB
}

// NewDeployRequestRepository creates a new DeployRequestRepository.
func NewDeployRequestRepository(db *sqlx.DB) *DeployRequestRepository {
	return &DeployRequestRepository{db: db}
}

const deployViewSelect = `
	SELECT dr.*, o.reference_code, o.buyer_name, o.buyer_email, o.buyer_phone, p.name AS product_name
	FROM deploy_requests dr
	JOIN orders o ON o.id = dr.order_id
	JOIN products p ON p.id = o.product_id`

// GetByOrder returns the deploy request of an order.
func (r *DeployRequestRepository) GetByOrder(ctx context.Context, orderID int64) (*models.DeployRequest, error) {
	var dr models.DeployRequest
	if err := r.db.GetContext(ctx, &dr, `SELECT * FROM deploy_requests WHERE order_id = $1`, orderID); err != nil {
		return nil, err
	}
	return &dr, nil
}

// GetByID returns a deploy request with buyer details.
func (r *DeployRequestRepository) GetByID(ctx context.Context, id int64) (*DeployRequestView, error) {
	var v DeployRequestView
	if err := r.db.GetContext(ctx, &v, deployViewSelect+` WHERE dr.id = $1`, id); err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns deploy requests for the admin console.
func (r *DeployRequestRepository) List(ctx context.Context, filter DeployRequestFilter) ([]DeployRequestView, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argIdx := 1
	if filter.Status != "" {
		where += fmt.Sprintf(" AND dr.status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM deploy_requests dr`+where, args...); err != nil {
		return nil, 0, err
	}

	limit, offset := offsetFor(filter.Page, filter.Limit)
	q := fmt.Sprintf(`%s%s ORDER BY dr.created_at DESC LIMIT $%d OFFSET $%d`, deployViewSelect, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	list := []DeployRequestView{}
	if err := r.db.SelectContext(ctx, &list, q, args...); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update sets the status and notes of a deploy request.
func (r *DeployRequestRepository) Update(ctx context.Context, id int64, status models.DeployStatus, notes *string) error {
	const q = `UPDATE deploy_requests SET status = $2, notes = $3, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, status, notes)
	if err != nil {
		return err
	}
	return expectRow(res)
}
