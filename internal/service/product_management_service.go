package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// ProductRequest creates or replaces a product. Slug is derived from Name
// when empty.
type ProductRequest struct {
	Name               string  `json:"name" binding:"required,min=2,max=200"`
	Slug               string  `json:"slug" binding:"omitempty,max=200"`
	Description        string  `json:"description" binding:"max=20000"`
	PriceCents         int64   `json:"priceCents" binding:"gte=0"`
	MultiUsePriceCents int64   `json:"multiUsePriceCents" binding:"gte=0"`
	DeployPriceCents   int64   `json:"deployPriceCents" binding:"gte=0"`
	Currency           string  `json:"currency" binding:"required,oneof=USD SSP"`
	IsPublished        bool    `json:"isPublished"`
	DemoURL            *string `json:"demoUrl" binding:"omitempty,url"`
}

// ProductManagementService handles product CRUD and uploads for admins.
type ProductManagementService struct {
	products ProductStore
	storage  ObjectStorage
	cache    CatalogCache
}

// NewProductManagementService constructs a ProductManagementService.
func NewProductManagementService(products ProductStore, storage ObjectStorage, cache CatalogCache) *ProductManagementService {
	return &ProductManagementService{products: products, storage: storage, cache: cache}
}

// List returns a page of products, published or not.
func (s *ProductManagementService) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int, error) {
	return s.products.List(ctx, filter)
}

// Get retrieves a product by ID.
func (s *ProductManagementService) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, fmt.Errorf("load product %d: %w", id, err)
	}
	return p, nil
}

// Create creates a new product.
func (s *ProductManagementService) Create(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	p := &models.Product{ScreenshotPaths: []string{}}
	if err := applyProductRequest(p, req); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, utils.ErrSlugTaken
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	log.Info().Int64("product_id", p.ID).Str("slug", p.Slug).Msg("Product created")
	s.invalidate(ctx)
	return p, nil
}

// Update replaces the editable fields of a product.
func (s *ProductManagementService) Update(ctx context.Context, id int64, req *ProductRequest) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProductRequest(p, req); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, utils.ErrSlugTaken
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx)
	return p, nil
}

// Delete removes a product that has no orders.
func (s *ProductManagementService) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return utils.ErrProductNotFound
		case errors.Is(err, repository.ErrReferenced):
			return utils.ErrProductInUse
		default:
			return fmt.Errorf("delete product: %w", err)
		}
	}
	log.Info().Int64("product_id", id).Msg("Product deleted")
	s.invalidate(ctx)
	return nil
}

// UploadThumbnail stores an image and makes it the product thumbnail.
func (s *ProductManagementService) UploadThumbnail(ctx context.Context, id int64, file *Upload) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	key, err := s.storeImage(ctx, "thumbnails", p.Slug, file)
	if err != nil {
		return nil, err
	}
	p.ThumbnailPath = &key
	if err := s.products.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("set thumbnail: %w", err)
	}
	s.invalidate(ctx)
	return p, nil
}

// UploadScreenshot stores an image and appends it to the gallery.
func (s *ProductManagementService) UploadScreenshot(ctx context.Context, id int64, file *Upload) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	key, err := s.storeImage(ctx, "screenshots", p.Slug, file)
	if err != nil {
		return nil, err
	}
	updated, err := s.products.AddScreenshot(ctx, id, key)
	if err != nil {
		return nil, fmt.Errorf("add screenshot: %w", err)
	}
	s.invalidate(ctx)
	return updated, nil
}

// UploadDeliverable stores the downloadable file buyers receive.
func (s *ProductManagementService) UploadDeliverable(ctx context.Context, id int64, file *Upload) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if file == nil || len(file.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", utils.ErrInvalidInput)
	}
	if s.storage == nil {
		return nil, utils.ErrStorageUnavailable
	}
	key := path.Join("deliverables", p.Slug, safeFilename(file.Filename))
	contentType := http.DetectContentType(file.Data)
	if err := s.storage.Upload(ctx, key, file.Data, contentType); err != nil {
		return nil, fmt.Errorf("upload deliverable: %w", err)
	}
	updated, err := s.products.SetDeliverable(ctx, id, key)
	if err != nil {
		return nil, fmt.Errorf("set deliverable: %w", err)
	}
	log.Info().Int64("product_id", id).Str("key", key).Int("bytes", len(file.Data)).Msg("Deliverable uploaded")
	return updated, nil
}

func (s *ProductManagementService) storeImage(ctx context.Context, prefix, productSlug string, file *Upload) (string, error) {
	if file == nil || len(file.Data) == 0 {
		return "", fmt.Errorf("%w: empty file", utils.ErrInvalidInput)
	}
	contentType, ext, ok := sniff(file.Data, imageTypes)
	if !ok {
		return "", fmt.Errorf("%w: unsupported image type %s", utils.ErrInvalidInput, contentType)
	}
	if s.storage == nil {
		return "", utils.ErrStorageUnavailable
	}
	key := objectKey(prefix, productSlug, ext)
	if err := s.storage.Upload(ctx, key, file.Data, contentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", prefix, err)
	}
	return key, nil
}

func (s *ProductManagementService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func applyProductRequest(p *models.Product, req *ProductRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", utils.ErrInvalidInput)
	}
	base := strings.TrimSpace(req.Slug)
	if base == "" {
		base = name
	}
	productSlug := slug.Make(base)
	if productSlug == "" {
		return fmt.Errorf("%w: slug is empty", utils.ErrInvalidInput)
	}
	if req.PriceCents < 0 || req.MultiUsePriceCents < 0 || req.DeployPriceCents < 0 {
		return utils.ErrInvalidPricing
	}
	if !models.ValidCurrency(req.Currency) {
		return fmt.Errorf("%w: currency %q", utils.ErrInvalidInput, req.Currency)
	}

	p.Name = name
	p.Slug = productSlug
	p.Description = strings.TrimSpace(req.Description)
	p.PriceCents = req.PriceCents
	p.MultiUsePriceCents = req.MultiUsePriceCents
	p.DeployPriceCents = req.DeployPriceCents
	p.Currency = req.Currency
	p.IsPublished = req.IsPublished
	p.DemoURL = trimmed(req.DemoURL)
	return nil
}
