// Package repotest provides in-memory repositories that mirror the SQL
// repositories' constraint and compare-and-swap behaviour for tests.
package repotest

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
)

// Store holds every table behind one mutex so multi-table operations are
// atomic, like the database transactions they stand in for.
type Store struct {
	mu  sync.Mutex
	seq int64
	now func() time.Time

	products       map[int64]*models.Product
	orders         map[int64]*models.Order
	confirmations  map[int64]*models.PaymentConfirmation
	licenses       map[int64]*models.LicenseKey // by order id
	deployRequests map[int64]*models.DeployRequest
	systemRequests map[int64]*models.SystemRequest
	settings       []models.SiteSettings
	webhookEvents  map[int64]*models.WebhookEvent
	adminUsers     map[int64]*models.AdminUser

	Products       *Products
	Orders         *Orders
	Confirmations  *Confirmations
	Licenses       *Licenses
	DeployRequests *DeployRequests
	SystemRequests *SystemRequests
	Settings       *Settings
	WebhookEvents  *WebhookEvents
	AdminUsers     *AdminUsers
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{
		now:            time.Now,
		products:       map[int64]*models.Product{},
		orders:         map[int64]*models.Order{},
		confirmations:  map[int64]*models.PaymentConfirmation{},
		licenses:       map[int64]*models.LicenseKey{},
		deployRequests: map[int64]*models.DeployRequest{},
		systemRequests: map[int64]*models.SystemRequest{},
		webhookEvents:  map[int64]*models.WebhookEvent{},
		adminUsers:     map[int64]*models.AdminUser{},
	}
	s.Products = &Products{s: s}
	s.Orders = &Orders{s: s}
	s.Confirmations = &Confirmations{s: s}
	s.Licenses = &Licenses{s: s}
	s.DeployRequests = &DeployRequests{s: s}
	s.SystemRequests = &SystemRequests{s: s}
	s.Settings = &Settings{s: s}
	s.WebhookEvents = &WebhookEvents{s: s}
	s.AdminUsers = &AdminUsers{s: s}
	return s
}

// SetClock replaces the time source used for generated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func page(total, p, limit int) (int, int) {
	if p <= 0 {
		p = 1
	}
	if limit <= 0 {
		limit = 50
	}
	start := (p - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Products fakes repository.ProductRepository.
type Products struct{ s *Store }

func (r *Products) ListPublished(ctx context.Context) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Product{}
	for _, p := range r.s.products {
		if p.IsPublished {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Products) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *Products) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (r *Products) List(ctx context.Context, f repository.ProductFilter) ([]models.Product, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := []models.Product{}
	for _, p := range r.s.products {
		if f.Search != "" && !contains(p.Name, f.Search) && !contains(p.Slug, f.Search) {
			continue
		}
		if f.Published != nil && p.IsPublished != *f.Published {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	start, end := page(len(all), f.Page, f.Limit)
	return all[start:end], len(all), nil
}

func (r *Products) Create(ctx context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.products {
		if existing.Slug == p.Slug {
			return repository.ErrDuplicate
		}
	}
	p.ID = r.s.nextID()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	if p.ScreenshotPaths == nil {
		p.ScreenshotPaths = []string{}
	}
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r *Products) Update(ctx context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; !ok {
		return sql.ErrNoRows
	}
	for id, existing := range r.s.products {
		if id != p.ID && existing.Slug == p.Slug {
			return repository.ErrDuplicate
		}
	}
	p.UpdatedAt = r.s.now()
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r *Products) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return sql.ErrNoRows
	}
	for _, o := range r.s.orders {
		if o.ProductID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.s.products, id)
	return nil
}

func (r *Products) AddScreenshot(ctx context.Context, id int64, path string) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	p.ScreenshotPaths = append(append([]string{}, p.ScreenshotPaths...), path)
	cp := *p
	return &cp, nil
}

func (r *Products) SetDeliverable(ctx context.Context, id int64, path string) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	p.DeliverablePath = &path
	cp := *p
	return &cp, nil
}
