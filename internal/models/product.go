package models

import (
	"time"

	"github.com/lib/pq"
)

// Product is a digital good in the catalog. Prices are integer minor units.
type Product struct {
	ID                 int64          `db:"id" json:"id"`
	Slug               string         `db:"slug" json:"slug"`
	Name               string         `db:"name" json:"name"`
	Description        string         `db:"description" json:"description"`
	PriceCents         int64          `db:"price_cents" json:"priceCents"`
	MultiUsePriceCents int64          `db:"multi_use_price_cents" json:"multiUsePriceCents"`
	DeployPriceCents   int64          `db:"deploy_price_cents" json:"deployPriceCents"`
	Currency           string         `db:"currency" json:"currency"`
	IsPublished        bool           `db:"is_published" json:"isPublished"`
	DemoURL            *string        `db:"demo_url" json:"demoUrl,omitempty"`
	ThumbnailPath      *string        `db:"thumbnail_path" json:"thumbnailPath,omitempty"`
	ScreenshotPaths    pq.StringArray `db:"screenshot_paths" json:"screenshotPaths"`
	DeliverablePath    *string        `db:"deliverable_path" json:"deliverablePath,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updatedAt"`
}
