package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/utils"
)

func TestCatalogHidesDraftsAndDeliverables(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cache := &memoryCatalogCache{}
	live := h.product(t, models.Product{Slug: "live", IsPublished: true, ThumbnailPath: strPtr("thumbnails/live/a.png"), ScreenshotPaths: []string{"screenshots/live/b.png"}, DeliverablePath: strPtr("deliverables/live/app.zip")})
	h.product(t, models.Product{Slug: "draft"})
	svc := NewCatalogService(h.store.Products, cache, h.storage)

	list, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, live.ID, list[0].ID)
	require.NotNil(t, list[0].ThumbnailURL)
	assert.Equal(t, "https://cdn.example/thumbnails/live/a.png", *list[0].ThumbnailURL)
	assert.Equal(t, []string{"https://cdn.example/screenshots/live/b.png"}, list[0].ScreenshotURLs)
	assert.Len(t, cache.products, 1)

	_, err = svc.GetProduct(ctx, "draft")
	assert.ErrorIs(t, err, utils.ErrProductNotFound)
	_, err = svc.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, utils.ErrProductNotFound)

	got, err := svc.GetProduct(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "live", got.Slug)
	assert.Contains(t, cache.bySlug, "live")
}

func TestCatalogServesFromCache(t *testing.T) {
	h := newHarness(t)
	cache := &memoryCatalogCache{products: []models.Product{{ID: 42, Slug: "cached", Name: "Cached"}}}
	svc := NewCatalogService(h.store.Products, cache, h.storage)

	list, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(42), list[0].ID)
	assert.NotNil(t, list[0].ScreenshotURLs)
}

func TestProductManagementSlugsAndCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cache := &memoryCatalogCache{}
	svc := NewProductManagementService(h.store.Products, h.storage, cache)

	p, err := svc.Create(ctx, &ProductRequest{Name: "Clinic Manager Pro!", PriceCents: 5000, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "clinic-manager-pro", p.Slug)
	assert.Equal(t, 1, cache.invalidated)

	_, err = svc.Create(ctx, &ProductRequest{Name: "Other", Slug: "Clinic Manager Pro", Currency: "USD"})
	assert.ErrorIs(t, err, utils.ErrSlugTaken)

	updated, err := svc.Update(ctx, p.ID, &ProductRequest{Name: "Clinic Manager", Slug: "clinic", PriceCents: 6000, Currency: "SSP", IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, "clinic", updated.Slug)
	assert.Equal(t, 2, cache.invalidated)

	_, err = svc.Update(ctx, 999, &ProductRequest{Name: "Ghost", Currency: "USD"})
	assert.ErrorIs(t, err, utils.ErrProductNotFound)
}

func TestProductUploads(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := NewProductManagementService(h.store.Products, h.storage, nil)
	p, err := svc.Create(ctx, &ProductRequest{Name: "Shop POS", Currency: "USD"})
	require.NoError(t, err)

	withShot, err := svc.UploadScreenshot(ctx, p.ID, &Upload{Filename: "s.png", Data: pngHeader})
	require.NoError(t, err)
	require.Len(t, withShot.ScreenshotPaths, 1)
	assert.Regexp(t, `^screenshots/shop-pos/[0-9a-f-]{36}\.png$`, withShot.ScreenshotPaths[0])

	_, err = svc.UploadScreenshot(ctx, p.ID, &Upload{Filename: "s.pdf", Data: []byte("%PDF-1.4 fake")})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	withFile, err := svc.UploadDeliverable(ctx, p.ID, &Upload{Filename: "../../etc/pos build.zip", Data: []byte("PK\x03\x04zip")})
	require.NoError(t, err)
	require.NotNil(t, withFile.DeliverablePath)
	assert.Equal(t, "deliverables/shop-pos/pos_build.zip", *withFile.DeliverablePath)

	withThumb, err := svc.UploadThumbnail(ctx, p.ID, &Upload{Data: pngHeader})
	require.NoError(t, err)
	require.NotNil(t, withThumb.ThumbnailPath)
	assert.Regexp(t, `^thumbnails/shop-pos/`, *withThumb.ThumbnailPath)
}

func TestDeleteProductWithOrders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := NewProductManagementService(h.store.Products, h.storage, nil)
	p := h.product(t, models.Product{PriceCents: 1000})
	h.order(t, p, models.DeliveryDownload, "")

	assert.ErrorIs(t, svc.Delete(ctx, p.ID), utils.ErrProductInUse)
	assert.ErrorIs(t, svc.Delete(ctx, 999), utils.ErrProductNotFound)

	unused := h.product(t, models.Product{Slug: "unused"})
	require.NoError(t, svc.Delete(ctx, unused.ID))
}
