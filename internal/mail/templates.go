package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names.
const (
	TemplateBuyerReceipt         = "buyer_receipt"
	TemplateBuyerDeploy          = "buyer_deploy"
	TemplateAdminPurchase        = "admin_purchase"
	TemplateAdminDeploy          = "admin_deploy"
	TemplateAdminPayment         = "admin_payment_submitted"
	TemplateContactMessage       = "contact_message"
	TemplateSystemRequestAdmin   = "system_request_admin"
	TemplateSystemRequestConfirm = "system_request_buyer"
)

var templateNames = []string{
	TemplateBuyerReceipt,
	TemplateBuyerDeploy,
	TemplateAdminPurchase,
	TemplateAdminDeploy,
	TemplateAdminPayment,
	TemplateContactMessage,
	TemplateSystemRequestAdmin,
	TemplateSystemRequestConfirm,
}

// OrderMail feeds the purchase and deploy templates.
type OrderMail struct {
	ReferenceCode  string
	ProductName    string
	BuyerName      string
	BuyerEmail     string
	BuyerPhone     string
	LicenseType    string
	DeliveryType   string
	Amount         string
	LicenseKey     string
	OrderURL       string
	Source         string
	IncludesDeploy bool
}

// ConfirmationMail feeds the admin payment-submitted template.
type ConfirmationMail struct {
	ReferenceCode        string
	ProductName          string
	Method               string
	TransactionReference string
	PayerPhone           string
	Claimed              string
	Expected             string
	Note                 string
	AmountMatches        bool
	AutoApproved         bool
}

// ContactMail feeds the contact form template.
type ContactMail struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// SystemRequestMail feeds both system request templates.
type SystemRequestMail struct {
	Name         string
	Email        string
	Phone        string
	BusinessName string
	ProjectType  string
	Budget       string
	Timeline     string
	Description  string
	Features     []string
}

// Renderer turns template data into subject and HTML body.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	layout, err := template.ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail layout: %w", err)
	}
	r := &Renderer{templates: make(map[string]*template.Template, len(templateNames))}
	for _, name := range templateNames {
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse mail template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render executes template name with data.
func (r *Renderer) Render(name string, data any) (subject, body string, err error) {
	t, ok := r.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", name)
	}
	var sb, bb bytes.Buffer
	if err := t.ExecuteTemplate(&sb, "subject", data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := t.ExecuteTemplate(&bb, "layout", data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	subject = strings.Join(strings.Fields(html.UnescapeString(sb.String())), " ")
	return subject, bb.String(), nil
}
