package repotest

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
)

// Confirmations fakes repository.PaymentConfirmationRepository.
type Confirmations struct{ s *Store }

func (r *Confirmations) Create(ctx context.Context, pc *models.PaymentConfirmation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[pc.OrderID]; !ok {
		return repository.ErrReferenced
	}
	for _, existing := range r.s.confirmations {
		if existing.OrderID == pc.OrderID && existing.ReviewStatus == models.ReviewPending {
			return repository.ErrDuplicate
		}
	}
	pc.ID = r.s.nextID()
	pc.ReviewStatus = models.ReviewPending
	pc.CreatedAt = r.s.now()
	cp := *pc
	r.s.confirmations[pc.ID] = &cp
	return nil
}

func (r *Confirmations) GetByID(ctx context.Context, id int64) (*models.PaymentConfirmation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	pc, ok := r.s.confirmations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *pc
	return &cp, nil
}

func (r *Confirmations) GetPendingByOrder(ctx context.Context, orderID int64) (*models.PaymentConfirmation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, pc := range r.s.confirmations {
		if pc.OrderID == orderID && pc.ReviewStatus == models.ReviewPending {
			cp := *pc
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *Confirmations) ListByOrder(ctx context.Context, orderID int64) ([]models.PaymentConfirmation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.PaymentConfirmation{}
	for _, pc := range r.s.confirmations {
		if pc.OrderID == orderID {
			out = append(out, *pc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Confirmations) List(ctx context.Context, f repository.ConfirmationFilter) ([]repository.ConfirmationView, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := []repository.ConfirmationView{}
	for _, pc := range r.s.confirmations {
		if f.ReviewStatus != "" && pc.ReviewStatus != f.ReviewStatus {
			continue
		}
		v := repository.ConfirmationView{PaymentConfirmation: *pc}
		if o, ok := r.s.orders[pc.OrderID]; ok {
			v.ReferenceCode = o.ReferenceCode
			v.OrderStatus = o.Status
			v.OrderAmountCents = o.AmountCents
			v.OrderCurrency = o.Currency
			if p, ok := r.s.products[o.ProductID]; ok {
				v.ProductName = p.Name
			}
		}
		all = append(all, v)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	start, end := page(len(all), f.Page, f.Limit)
	return all[start:end], len(all), nil
}

func (r *Confirmations) Reject(ctx context.Context, p repository.RejectParams) (*repository.RejectResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	pc, ok := r.s.confirmations[p.ConfirmationID]
	if !ok || pc.ReviewStatus != models.ReviewPending {
		return nil, sql.ErrNoRows
	}
	now := r.s.now()
	pc.ReviewStatus = models.ReviewRejected
	pc.ReviewedBy = p.ReviewedBy
	pc.ReviewedAt = &now
	pc.ReviewNote = p.Reason

	result := &repository.RejectResult{}
	cp := *pc
	result.Confirmation = &cp
	if p.MarkOrderFailed {
		if o, ok := r.s.orders[pc.OrderID]; ok && o.Status == models.OrderPending {
			o.Status = models.OrderFailed
			o.UpdatedAt = now
			result.OrderFailed = true
		}
	}
	return result, nil
}

// Licenses fakes repository.LicenseRepository.
type Licenses struct{ s *Store }

func (r *Licenses) GetByOrder(ctx context.Context, orderID int64) (*models.LicenseKey, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lk, ok := r.s.licenses[orderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *lk
	return &cp, nil
}

// DeployRequests fakes repository.DeployRequestRepository.
type DeployRequests struct{ s *Store }

func (r *DeployRequests) view(dr *models.DeployRequest) repository.DeployRequestView {
	v := repository.DeployRequestView{DeployRequest: *dr}
	if o, ok := r.s.orders[dr.OrderID]; ok {
		v.ReferenceCode = o.ReferenceCode
		v.BuyerName = o.BuyerName
		v.BuyerEmail = o.BuyerEmail
		v.BuyerPhone = o.BuyerPhone
		if p, ok := r.s.products[o.ProductID]; ok {
			v.ProductName = p.Name
		}
	}
	return v
}

func (r *DeployRequests) GetByOrder(ctx context.Context, orderID int64) (*models.DeployRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, dr := range r.s.deployRequests {
		if dr.OrderID == orderID {
			cp := *dr
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *DeployRequests) GetByID(ctx context.Context, id int64) (*repository.DeployRequestView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	dr, ok := r.s.deployRequests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	v := r.view(dr)
	return &v, nil
}

func (r *DeployRequests) List(ctx context.Context, f repository.DeployRequestFilter) ([]repository.DeployRequestView, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := []repository.DeployRequestView{}
	for _, dr := range r.s.deployRequests {
		if f.Status != "" && dr.Status != f.Status {
			continue
		}
		all = append(all, r.view(dr))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	start, end := page(len(all), f.Page, f.Limit)
	return all[start:end], len(all), nil
}

func (r *DeployRequests) Update(ctx context.Context, id int64, status models.DeployStatus, notes *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	dr, ok := r.s.deployRequests[id]
	if !ok {
		return sql.ErrNoRows
	}
	dr.Status = status
	dr.Notes = notes
	dr.UpdatedAt = r.s.now()
	return nil
}

// SystemRequests fakes repository.SystemRequestRepository.
type SystemRequests struct{ s *Store }

func (r *SystemRequests) Create(ctx context.Context, sr *models.SystemRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sr.Features == nil {
		sr.Features = []string{}
	}
	if sr.Status == "" {
		sr.Status = models.LeadNew
	}
	sr.ID = r.s.nextID()
	sr.CreatedAt = r.s.now()
	sr.UpdatedAt = sr.CreatedAt
	cp := *sr
	r.s.systemRequests[sr.ID] = &cp
	return nil
}

func (r *SystemRequests) GetByID(ctx context.Context, id int64) (*models.SystemRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sr, ok := r.s.systemRequests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *sr
	return &cp, nil
}

func (r *SystemRequests) List(ctx context.Context, f repository.SystemRequestFilter) ([]models.SystemRequest, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := []models.SystemRequest{}
	for _, sr := range r.s.systemRequests {
		if f.Status != "" && sr.Status != f.Status {
			continue
		}
		if f.Search != "" && !contains(sr.Name, f.Search) && !contains(deref(sr.BusinessName), f.Search) &&
			!contains(deref(sr.Email), f.Search) {
			continue
		}
		all = append(all, *sr)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	start, end := page(len(all), f.Page, f.Limit)
	return all[start:end], len(all), nil
}

func (r *SystemRequests) Update(ctx context.Context, id int64, status models.LeadStatus, notes *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sr, ok := r.s.systemRequests[id]
	if !ok {
		return sql.ErrNoRows
	}
	sr.Status = status
	sr.InternalNotes = notes
	sr.UpdatedAt = r.s.now()
	return nil
}

// Settings fakes repository.SettingsRepository.
type Settings struct{ s *Store }

func (r *Settings) Current(ctx context.Context) (*models.SiteSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(r.s.settings) == 0 {
		return nil, sql.ErrNoRows
	}
	cp := r.s.settings[len(r.s.settings)-1]
	return &cp, nil
}

func (r *Settings) Append(ctx context.Context, expectedVersion int64, st *models.SiteSettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var current int64
	if n := len(r.s.settings); n > 0 {
		current = r.s.settings[n-1].Version
	}
	if current != expectedVersion {
		return repository.ErrVersionConflict
	}
	st.Version = current + 1
	st.CreatedAt = r.s.now()
	r.s.settings = append(r.s.settings, *st)
	return nil
}

// Versions returns how many settings versions were saved.
func (r *Settings) Versions() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.settings)
}

// WebhookEvents fakes repository.WebhookEventRepository.
type WebhookEvents struct{ s *Store }

func (r *WebhookEvents) Record(ctx context.Context, ev *models.WebhookEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ev.EventID != nil {
		for _, existing := range r.s.webhookEvents {
			if existing.Provider == ev.Provider && existing.EventID != nil && *existing.EventID == *ev.EventID {
				existing.SignatureValid = existing.SignatureValid || ev.SignatureValid
				ev.ID = existing.ID
				ev.ProcessedAt = existing.ProcessedAt
				ev.CreatedAt = existing.CreatedAt
				return nil
			}
		}
	}
	ev.ID = r.s.nextID()
	ev.ProcessedAt = nil
	ev.CreatedAt = r.s.now()
	cp := *ev
	r.s.webhookEvents[ev.ID] = &cp
	return nil
}

func (r *WebhookEvents) MarkProcessed(ctx context.Context, id int64, processErr *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.webhookEvents[id]
	if !ok {
		return nil
	}
	ev.ProcessingError = processErr
	if processErr == nil {
		now := r.s.now()
		ev.ProcessedAt = &now
	} else {
		ev.ProcessedAt = nil
	}
	return nil
}

// Count returns the number of recorded events.
func (r *WebhookEvents) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.webhookEvents)
}

// AdminUsers fakes repository.AdminUserRepository.
type AdminUsers struct{ s *Store }

func (r *AdminUsers) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.adminUsers {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *AdminUsers) Create(ctx context.Context, user *models.AdminUser) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.adminUsers {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = r.s.nextID()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.s.adminUsers[user.ID] = &cp
	return nil
}

func (r *AdminUsers) TouchLastLogin(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.adminUsers[id]; ok {
		now := r.s.now()
		u.LastLoginAt = &now
	}
	return nil
}
