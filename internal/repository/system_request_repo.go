package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/storefront_api/internal/models"
)

// SystemRequestFilter narrows the admin lead list.
type SystemRequestFilter struct {
	Status models.LeadStatus
	Search string
	Page   int
	Limit  int
}

// SystemRequestRepository handles data access for leads from the request form.
type SystemRequestRepository struct {
	db *sqlx.DB
}

// NewSystemRequestRepository creates a new SystemRequestRepository.
func NewSystemRequestRepository(db *sqlx.DB) *SystemRequestRepository {
	return &SystemRequestRepository{db: db}
}

// Create inserts a new lead in status new.
func (r *SystemRequestRepository) Create(ctx context.Context, sr *models.SystemRequest) error {
	const q = `
		INSERT INTO system_requests (
			name, email, phone, business_name, project_type, budget, timeline, description, features, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	if sr.Features == nil {
		sr.Features = []string{}
	}
	if sr.Status == "" {
		sr.Status = models.LeadNew
	}
	return r.db.QueryRowxContext(ctx, q,
		sr.Name, sr.Email, sr.Phone, sr.BusinessName, sr.ProjectType, sr.Budget, sr.Timeline,
		sr.Description, sr.Features, sr.Status,
	).Scan(&sr.ID, &sr.CreatedAt, &sr.UpdatedAt)
}

// GetByID returns a single lead.
func (r *SystemRequestRepository) GetByID(ctx context.Context, id int64) (*models.SystemRequest, error) {
	var sr models.SystemRequest
	if err := r.db.GetContext(ctx, &sr, `SELECT * FROM system_requests WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &sr, nil
}

// List returns leads for the admin console with the total count.
func (r *SystemRequestRepository) List(ctx context.Context, filter SystemRequestFilter) ([]models.SystemRequest, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argIdx := 1
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR business_name ILIKE $%d OR email ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM system_requests`+where, args...); err != nil {
		return nil, 0, err
	}

	limit, offset := offsetFor(filter.Page, filter.Limit)
	q := fmt.Sprintf(`SELECT * FROM system_requests%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	list := []models.SystemRequest{}
	if err := r.db.SelectContext(ctx, &list, q, args...); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update sets the triage status and internal notes of a lead.
func (r *SystemRequestRepository) Update(ctx context.Context, id int64, status models.LeadStatus, notes *string) error {
	const q = `UPDATE system_requests SET status = $2, internal_notes = $3, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, status, notes)
	if err != nil {
		return err
	}
	return expectRow(res)
}
