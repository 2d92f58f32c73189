package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/mail"
	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/sse"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// Lead kinds announced on the admin stream.
const (
	LeadKindContact       = "contact"
	LeadKindSystemRequest = "system_request"
)

// ContactRequest is the public contact form. Website is a honeypot field
// that humans never fill in.
type ContactRequest struct {
	Name    string  `json:"name" binding:"required,min=2,max=120"`
	Email   *string `json:"email" binding:"omitempty,blank|email,max=254"`
	Phone   *string `json:"phone" binding:"omitempty,blank|phone"`
	Subject *string `json:"subject" binding:"omitempty,max=200"`
	Message string  `json:"message" binding:"required,min=10,max=5000"`
	Website string  `json:"website"`
}

// SystemRequestForm is the public "request a system" form.
type SystemRequestForm struct {
	Name         string   `json:"name" binding:"required,min=2,max=120"`
	Email        *string  `json:"email" binding:"omitempty,blank|email,max=254"`
	Phone        *string  `json:"phone" binding:"omitempty,blank|phone"`
	BusinessName *string  `json:"businessName" binding:"omitempty,max=200"`
	ProjectType  string   `json:"projectType" binding:"required,max=100"`
	Budget       *string  `json:"budget" binding:"omitempty,max=100"`
	Timeline     *string  `json:"timeline" binding:"omitempty,max=100"`
	Description  string   `json:"description" binding:"required,min=20,max=10000"`
	Features     []string `json:"features" binding:"omitempty,max=30,dive,max=100"`
	Website      string   `json:"website"`
}

// UpdateSystemRequest is an admin triage edit.
type UpdateSystemRequest struct {
	Status        string  `json:"status" binding:"required,oneof=new in_review contacted closed"`
	InternalNotes *string `json:"internalNotes" binding:"omitempty,max=5000"`
}

// LeadService accepts public form submissions and serves the admin lead list.
type LeadService struct {
	requests SystemRequestStore
	notify   *NotificationService
	events   sse.Notifier
}

// NewLeadService constructs a LeadService.
func NewLeadService(requests SystemRequestStore, notify *NotificationService, events sse.Notifier) *LeadService {
	if events == nil {
		events = sse.NopNotifier{}
	}
	return &LeadService{requests: requests, notify: notify, events: events}
}

// SubmitContact forwards a contact message to the admin. Submissions with
// the honeypot filled are accepted and dropped.
func (s *LeadService) SubmitContact(ctx context.Context, req *ContactRequest) error {
	if isBot(req.Website) {
		log.Info().Str("form", LeadKindContact).Msg("Honeypot triggered, discarding submission")
		return nil
	}
	email, phone := trimmed(req.Email), trimmed(req.Phone)
	if email == nil && phone == nil {
		return fmt.Errorf("%w: email or phone is required", utils.ErrInvalidInput)
	}

	data := mail.ContactMail{
		Name:    strings.TrimSpace(req.Name),
		Email:   deref(email),
		Phone:   deref(phone),
		Subject: deref(trimmed(req.Subject)),
		Message: strings.TrimSpace(req.Message),
	}
	s.events.NotifyLeadReceived(LeadKindContact, data.Name)
	if s.notify != nil {
		s.notify.ContactMessage(ctx, data)
	}
	log.Info().Str("form", LeadKindContact).Bool("has_email", email != nil).Msg("Contact message received")
	return nil
}

// SubmitSystemRequest stores a lead and notifies the admin and requester.
func (s *LeadService) SubmitSystemRequest(ctx context.Context, req *SystemRequestForm) error {
	if isBot(req.Website) {
		log.Info().Str("form", LeadKindSystemRequest).Msg("Honeypot triggered, discarding submission")
		return nil
	}
	email, phone := trimmed(req.Email), trimmed(req.Phone)
	if email == nil && phone == nil {
		return fmt.Errorf("%w: email or phone is required", utils.ErrInvalidInput)
	}

	features := make([]string, 0, len(req.Features))
	for _, f := range req.Features {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	sr := &models.SystemRequest{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        phone,
		BusinessName: trimmed(req.BusinessName),
		ProjectType:  strings.TrimSpace(req.ProjectType),
		Budget:       trimmed(req.Budget),
		Timeline:     trimmed(req.Timeline),
		Description:  strings.TrimSpace(req.Description),
		Features:     features,
		Status:       models.LeadNew,
	}
	if err := s.requests.Create(ctx, sr); err != nil {
		return fmt.Errorf("save system request: %w", err)
	}
	log.Info().Int64("system_request_id", sr.ID).Str("project_type", sr.ProjectType).Msg("System request received")

	s.events.NotifyLeadReceived(LeadKindSystemRequest, sr.Name)
	if s.notify != nil {
		s.notify.SystemRequestReceived(ctx, mail.SystemRequestMail{
			Name:         sr.Name,
			Email:        deref(sr.Email),
			Phone:        deref(sr.Phone),
			BusinessName: deref(sr.BusinessName),
			ProjectType:  sr.ProjectType,
			Budget:       deref(sr.Budget),
			Timeline:     deref(sr.Timeline),
			Description:  sr.Description,
			Features:     features,
		})
	}
	return nil
}

// List returns a page of system requests.
func (s *LeadService) List(ctx context.Context, filter repository.SystemRequestFilter) ([]models.SystemRequest, int, error) {
	return s.requests.List(ctx, filter)
}

// Get returns one system request.
func (s *LeadService) Get(ctx context.Context, id int64) (*models.SystemRequest, error) {
	sr, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrSystemRequestNotFound
		}
		return nil, fmt.Errorf("load system request %d: %w", id, err)
	}
	return sr, nil
}

// Update sets the triage status and internal notes.
func (s *LeadService) Update(ctx context.Context, id int64, req *UpdateSystemRequest) (*models.SystemRequest, error) {
	status, err := models.ParseLeadStatus(req.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
	}
	if err := s.requests.Update(ctx, id, status, trimmed(req.InternalNotes)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrSystemRequestNotFound
		}
		return nil, fmt.Errorf("update system request %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

func isBot(honeypot string) bool {
	return strings.TrimSpace(honeypot) != ""
}
