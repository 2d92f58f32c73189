package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
)

// Orders fakes repository.OrderRepository.
type Orders struct {
	s *Store

	// ConfirmErr, when set, is returned by ConfirmPayment before any change.
	ConfirmErr error
}

// Seed stores o as-is, assigning an id when zero.
func (r *Orders) Seed(o *models.Order) *models.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o.ID == 0 {
		o.ID = r.s.nextID()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = r.s.now()
	}
	cp := *o
	r.s.orders[o.ID] = &cp
	return o
}

func (r *Orders) Create(ctx context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[o.ProductID]; !ok {
		return repository.ErrReferenced
	}
	for _, existing := range r.s.orders {
		if existing.AccessToken == o.AccessToken || existing.ReferenceCode == o.ReferenceCode {
			return repository.ErrDuplicate
		}
	}
	o.ID = r.s.nextID()
	o.CreatedAt = r.s.now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	r.s.orders[o.ID] = &cp
	return nil
}

func (r *Orders) get(match func(*models.Order) bool) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if match(o) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *Orders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	return r.get(func(o *models.Order) bool { return o.ID == id })
}

func (r *Orders) GetByAccessToken(ctx context.Context, token string) (*models.Order, error) {
	return r.get(func(o *models.Order) bool { return o.AccessToken == token })
}

func (r *Orders) GetByReferenceCode(ctx context.Context, code string) (*models.Order, error) {
	return r.get(func(o *models.Order) bool { return o.ReferenceCode == code })
}

func (r *Orders) SetGatewaySession(ctx context.Context, id int64, sessionID, checkoutURL string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return sql.ErrNoRows
	}
	o.GatewaySessionID = &sessionID
	o.CheckoutURL = &checkoutURL
	return nil
}

func (r *Orders) UpdateAdminNotes(ctx context.Context, id int64, notes *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return sql.ErrNoRows
	}
	o.AdminNotes = notes
	return nil
}

func (r *Orders) TransitionStatus(ctx context.Context, id int64, from []models.OrderStatus, to models.OrderStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if o.Status == f {
			o.Status = to
			o.UpdatedAt = r.s.now()
			return true, nil
		}
	}
	return false, nil
}

func (r *Orders) List(ctx context.Context, f repository.OrderFilter) ([]repository.OrderView, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := []repository.OrderView{}
	for _, o := range r.s.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Search != "" && !contains(o.ReferenceCode, f.Search) && !contains(deref(o.BuyerName), f.Search) &&
			!contains(o.BuyerPhone, f.Search) && !contains(deref(o.BuyerEmail), f.Search) {
			continue
		}
		v := repository.OrderView{Order: *o}
		if p, ok := r.s.products[o.ProductID]; ok {
			v.ProductName = p.Name
		}
		all = append(all, v)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	start, end := page(len(all), f.Page, f.Limit)
	return all[start:end], len(all), nil
}

func (r *Orders) ListGatewayPending(ctx context.Context, createdAfter, createdBefore time.Time, limit int) ([]models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.s.orders {
		if o.Status != models.OrderPending || o.GatewaySessionID == nil {
			continue
		}
		if !o.CreatedAt.After(createdAfter) || !o.CreatedAt.Before(createdBefore) {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ConfirmPayment mirrors the transactional settle-and-fulfil operation.
func (r *Orders) ConfirmPayment(ctx context.Context, p repository.ConfirmPaymentParams) (*repository.ConfirmPaymentResult, error) {
	if !p.Status.IsSettled() {
		return nil, fmt.Errorf("confirm payment: %q is not a settled status", p.Status)
	}
	if r.ConfirmErr != nil {
		return nil, r.ConfirmErr
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ConfirmationID != nil {
		pc, ok := r.s.confirmations[*p.ConfirmationID]
		if !ok || pc.OrderID != p.OrderID || pc.ReviewStatus != models.ReviewPending {
			return nil, repository.ErrNotPending
		}
		// Validate the order before mutating so a missing order rolls back.
		if _, ok := r.s.orders[p.OrderID]; !ok {
			return nil, sql.ErrNoRows
		}
		now := r.s.now()
		pc.ReviewStatus = models.ReviewApproved
		pc.AutoApproved = p.AutoApproved
		pc.ReviewedBy = p.ReviewedBy
		pc.ReviewedAt = &now
		pc.ReviewNote = p.ReviewNote
	}

	o, ok := r.s.orders[p.OrderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	result := &repository.ConfirmPaymentResult{}
	if o.Status.IsSettled() {
		result.AlreadySettled = true
	} else {
		o.Status = p.Status
		if p.ProviderReference != nil {
			o.ProviderReference = p.ProviderReference
		}
		if o.PaidAt == nil {
			paidAt := p.PaidAt
			o.PaidAt = &paidAt
		}
		o.UpdatedAt = r.s.now()
	}
	order := *o
	result.Order = &order

	lk, ok := r.s.licenses[o.ID]
	if !ok {
		for _, existing := range r.s.licenses {
			if existing.LicenseKey == p.LicenseKey {
				return nil, repository.ErrDuplicate
			}
		}
		lk = &models.LicenseKey{ID: r.s.nextID(), OrderID: o.ID, LicenseKey: p.LicenseKey, CreatedAt: r.s.now()}
		r.s.licenses[o.ID] = lk
	}
	license := *lk
	result.License = &license

	if o.DeliveryType.IncludesDeploy() {
		var dr *models.DeployRequest
		for _, existing := range r.s.deployRequests {
			if existing.OrderID == o.ID {
				dr = existing
				break
			}
		}
		if dr == nil {
			dr = &models.DeployRequest{ID: r.s.nextID(), OrderID: o.ID, Status: models.DeployNew, CreatedAt: r.s.now()}
			r.s.deployRequests[dr.ID] = dr
		}
		cp := *dr
		result.DeployRequest = &cp
	}
	return result, nil
}

// LicenseCount returns how many license keys exist for an order.
func (r *Orders) LicenseCount(orderID int64) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, lk := range r.s.licenses {
		if lk.OrderID == orderID {
			n++
		}
	}
	return n
}

// DeployRequestCount returns how many deploy requests exist for an order.
func (r *Orders) DeployRequestCount(orderID int64) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, dr := range r.s.deployRequests {
		if dr.OrderID == orderID {
			n++
		}
	}
	return n
}
