package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/mail"
	"github.com/GTDGit/storefront_api/internal/metrics"
	"github.com/GTDGit/storefront_api/internal/models"
)

const mailTimeout = 30 * time.Second

// NotificationService renders and sends transactional email. Failures are
// logged and counted; they never propagate to the caller.
type NotificationService struct {
	mailer     MailSender
	renderer   *mail.Renderer
	adminEmail string
	siteURL    string
	metrics    *metrics.Metrics
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(mailer MailSender, renderer *mail.Renderer, adminEmail, siteURL string, m *metrics.Metrics) *NotificationService {
	return &NotificationService{
		mailer:     mailer,
		renderer:   renderer,
		adminEmail: adminEmail,
		siteURL:    siteURL,
		metrics:    m,
	}
}

// OrderURL is the buyer-facing page of an order.
func (s *NotificationService) OrderURL(token string) string {
	return s.siteURL + "/store/orders/" + token
}

// OrderSettled sends the buyer receipt, the admin purchase notice and, for
// deploy orders, the deploy emails.
func (s *NotificationService) OrderSettled(ctx context.Context, order *models.Order, productName, licenseKey, source string) {
	data := mail.OrderMail{
		ReferenceCode:  order.ReferenceCode,
		ProductName:    productName,
		BuyerName:      deref(order.BuyerName),
		BuyerEmail:     order.BuyerEmailAddress(),
		BuyerPhone:     order.BuyerPhone,
		LicenseType:    string(order.LicenseType),
		DeliveryType:   string(order.DeliveryType),
		Amount:         FormatMoney(order.AmountCents, order.Currency),
		LicenseKey:     licenseKey,
		OrderURL:       s.OrderURL(order.AccessToken),
		Source:         source,
		IncludesDeploy: order.DeliveryType.IncludesDeploy(),
	}
	buyer := order.BuyerEmailAddress()

	if buyer != "" {
		s.send(ctx, mail.TemplateBuyerReceipt, []string{buyer}, "", data)
	}
	s.sendAdmin(ctx, mail.TemplateAdminPurchase, buyer, data)

	if data.IncludesDeploy {
		if buyer != "" {
			s.send(ctx, mail.TemplateBuyerDeploy, []string{buyer}, "", data)
		}
		s.sendAdmin(ctx, mail.TemplateAdminDeploy, buyer, data)
	}
}

// ConfirmationSubmitted tells the admin a manual payment claim arrived.
func (s *NotificationService) ConfirmationSubmitted(ctx context.Context, order *models.Order, productName string, pc *models.PaymentConfirmation, expectedCents int64) {
	s.sendAdmin(ctx, mail.TemplateAdminPayment, "", mail.ConfirmationMail{
		ReferenceCode:        order.ReferenceCode,
		ProductName:          productName,
		Method:               string(pc.Method),
		TransactionReference: pc.TransactionReference,
		PayerPhone:           deref(pc.PayerPhone),
		Claimed:              FormatMoney(pc.AmountCents, pc.Currency),
		Expected:             FormatMoney(expectedCents, pc.Currency),
		Note:                 deref(pc.Note),
		AmountMatches:        pc.AmountMatches,
		AutoApproved:         pc.AutoApproved,
	})
}

// ContactMessage forwards a contact form submission to the admin.
func (s *NotificationService) ContactMessage(ctx context.Context, data mail.ContactMail) {
	s.sendAdmin(ctx, mail.TemplateContactMessage, data.Email, data)
}

// SystemRequestReceived notifies the admin and, when an email was given,
// confirms receipt to the requester.
func (s *NotificationService) SystemRequestReceived(ctx context.Context, data mail.SystemRequestMail) {
	s.sendAdmin(ctx, mail.TemplateSystemRequestAdmin, data.Email, data)
	if data.Email != "" {
		s.send(ctx, mail.TemplateSystemRequestConfirm, []string{data.Email}, "", data)
	}
}

func (s *NotificationService) sendAdmin(ctx context.Context, template, replyTo string, data any) {
	if s.adminEmail == "" {
		s.metrics.Email(template, metrics.OutcomeSkipped)
		log.Debug().Str("template", template).Msg("Admin notification email not configured, skipping")
		return
	}
	s.send(ctx, template, []string{s.adminEmail}, replyTo, data)
}

func (s *NotificationService) send(ctx context.Context, template string, to []string, replyTo string, data any) {
	subject, body, err := s.renderer.Render(template, data)
	if err != nil {
		s.metrics.Email(template, metrics.OutcomeFailed)
		log.Error().Err(err).Str("template", template).Msg("Failed to render email")
		return
	}

	// Sends run after the triggering state change committed; a cancelled
	// request must not abort them.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
	defer cancel()

	err = s.mailer.Send(sendCtx, mail.Message{To: to, Subject: subject, HTML: body, ReplyTo: replyTo})
	if err != nil {
		s.metrics.Email(template, metrics.OutcomeFailed)
		log.Error().Err(err).Str("template", template).Strs("to", to).Msg("Failed to send email")
		return
	}
	s.metrics.Email(template, metrics.OutcomeOK)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
