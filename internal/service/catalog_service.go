package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// PublicProduct is the storefront view of a product. Storage paths are
// resolved to URLs and the deliverable is never exposed.
type PublicProduct struct {
	ID                 int64    `json:"id"`
	Slug               string   `json:"slug"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	PriceCents         int64    `json:"priceCents"`
	MultiUsePriceCents int64    `json:"multiUsePriceCents"`
	DeployPriceCents   int64    `json:"deployPriceCents"`
	Currency           string   `json:"currency"`
	DemoURL            *string  `json:"demoUrl,omitempty"`
	ThumbnailURL       *string  `json:"thumbnailUrl,omitempty"`
	ScreenshotURLs     []string `json:"screenshotUrls"`
}

// CatalogService serves published products through the catalog cache.
type CatalogService struct {
	products ProductStore
	cache    CatalogCache
	storage  ObjectStorage
}

// NewCatalogService constructs a CatalogService. cache may be nil.
func NewCatalogService(products ProductStore, cache CatalogCache, storage ObjectStorage) *CatalogService {
	return &CatalogService{products: products, cache: cache, storage: storage}
}

// ListProducts returns every published product.
func (s *CatalogService) ListProducts(ctx context.Context) ([]PublicProduct, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetProducts(ctx); ok {
			return s.toPublicList(cached), nil
		}
	}

	products, err := s.products.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published products: %w", err)
	}
	if s.cache != nil {
		s.cache.SetProducts(ctx, products)
	}
	return s.toPublicList(products), nil
}

// GetProduct returns a published product by slug.
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*PublicProduct, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetProduct(ctx, slug); ok {
			return s.toPublic(cached), nil
		}
	}

	p, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %q: %w", slug, err)
	}
	if !p.IsPublished {
		return nil, utils.ErrProductNotFound
	}
	if s.cache != nil {
		s.cache.SetProduct(ctx, p)
	}
	return s.toPublic(p), nil
}

func (s *CatalogService) toPublicList(products []models.Product) []PublicProduct {
	out := make([]PublicProduct, 0, len(products))
	for i := range products {
		out = append(out, *s.toPublic(&products[i]))
	}
	return out
}

func (s *CatalogService) toPublic(p *models.Product) *PublicProduct {
	out := &PublicProduct{
		ID:                 p.ID,
		Slug:               p.Slug,
		Name:               p.Name,
		Description:        p.Description,
		PriceCents:         p.PriceCents,
		MultiUsePriceCents: p.MultiUsePriceCents,
		DeployPriceCents:   p.DeployPriceCents,
		Currency:           p.Currency,
		DemoURL:            p.DemoURL,
		ScreenshotURLs:     make([]string, 0, len(p.ScreenshotPaths)),
	}
	if p.ThumbnailPath != nil && *p.ThumbnailPath != "" {
		u := s.publicURL(*p.ThumbnailPath)
		out.ThumbnailURL = &u
	}
	for _, path := range p.ScreenshotPaths {
		out.ScreenshotURLs = append(out.ScreenshotURLs, s.publicURL(path))
	}
	return out
}

func (s *CatalogService) publicURL(key string) string {
	if s.storage == nil {
		return key
	}
	return s.storage.PublicURL(key)
}
