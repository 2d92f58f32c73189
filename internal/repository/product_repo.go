package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/storefront_api/internal/models"
)

// ProductFilter narrows the admin product list.
type ProductFilter struct {
	Search    string
	Published *bool
	Page      int
	Limit     int
}

// ProductRepository handles data access for products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListPublished returns every published product, newest first.
func (r *ProductRepository) ListPublished(ctx context.Context) ([]models.Product, error) {
	const q = `SELECT * FROM products WHERE is_published = true ORDER BY created_at DESC`
	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, q); err != nil {
		return nil, err
	}
	return products, nil
}

// GetBySlug returns a single product by slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE slug = $1 LIMIT 1`
	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, slug); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID returns a single product by id.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE id = $1 LIMIT 1`
	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns products for the admin console with the total count.
func (r *ProductRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argIdx := 1

	if filter.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR slug ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.Published != nil {
		where += fmt.Sprintf(" AND is_published = $%d", argIdx)
		args = append(args, *filter.Published)
		argIdx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM products`+where, args...); err != nil {
		return nil, 0, err
	}

	limit, offset := offsetFor(filter.Page, filter.Limit)
	q := fmt.Sprintf(`SELECT * FROM products%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, q, args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Create inserts p and fills its id and timestamps. A taken slug yields
// ErrDuplicate.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	const q = `
		INSERT INTO products (
			slug, name, description, price_cents, multi_use_price_cents, deploy_price_cents,
			currency, is_published, demo_url, thumbnail_path, screenshot_paths, deliverable_path
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`
	if p.ScreenshotPaths == nil {
		p.ScreenshotPaths = []string{}
	}
	err := r.db.QueryRowxContext(ctx, q,
		p.Slug, p.Name, p.Description, p.PriceCents, p.MultiUsePriceCents, p.DeployPriceCents,
		p.Currency, p.IsPublished, p.DemoURL, p.ThumbnailPath, p.ScreenshotPaths, p.DeliverablePath,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return translate(err)
}

// Update writes every mutable column of p.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	const q = `
		UPDATE products SET
			slug = $2, name = $3, description = $4, price_cents = $5, multi_use_price_cents = $6,
			deploy_price_cents = $7, currency = $8, is_published = $9, demo_url = $10,
			thumbnail_path = $11, screenshot_paths = $12, deliverable_path = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	if p.ScreenshotPaths == nil {
		p.ScreenshotPaths = []string{}
	}
	err := r.db.QueryRowxContext(ctx, q,
		p.ID, p.Slug, p.Name, p.Description, p.PriceCents, p.MultiUsePriceCents,
		p.DeployPriceCents, p.Currency, p.IsPublished, p.DemoURL,
		p.ThumbnailPath, p.ScreenshotPaths, p.DeliverablePath,
	).Scan(&p.UpdatedAt)
	return translate(err)
}

// Delete removes a product. Products with orders yield ErrReferenced.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	return expectRow(res)
}

// AddScreenshot appends an object key to the screenshot list.
func (r *ProductRepository) AddScreenshot(ctx context.Context, id int64, path string) (*models.Product, error) {
	const q = `
		UPDATE products SET screenshot_paths = array_append(screenshot_paths, $2), updated_at = NOW()
		WHERE id = $1 RETURNING *`
	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, id, path); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetDeliverable records the object key of the downloadable archive.
func (r *ProductRepository) SetDeliverable(ctx context.Context, id int64, path string) (*models.Product, error) {
	const q = `UPDATE products SET deliverable_path = $2, updated_at = NOW() WHERE id = $1 RETURNING *`
	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, id, path); err != nil {
		return nil, err
	}
	return &p, nil
}
