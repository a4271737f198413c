// Package notifications sends free-form announcement emails to selected
// clients and manages the stored email templates those messages can start
// from.
package notifications

import (
	"strings"
	"time"
)

// TemplateType ties a stored template to the flow it is written for.
type TemplateType string

const (
	TemplateProforma TemplateType = "proforma"
	TemplateInvoice  TemplateType = "invoice"
	TemplateReminder TemplateType = "reminder"
	TemplatePayment  TemplateType = "payment"
	TemplateWelcome  TemplateType = "welcome"
)

func (t TemplateType) Valid() bool {
	switch t {
	case TemplateProforma, TemplateInvoice, TemplateReminder, TemplatePayment, TemplateWelcome:
		return true
	}
	return false
}

// Variables substitutable in template subjects and bodies, exposed so the
// edit screen can list them.
var TemplateVariables = map[string]string{
	"{{client_name}}":  "Nom du client",
	"{{client_email}}": "Email du client",
	"{{company_name}}": "Nom de l'entreprise",
	"{{current_date}}": "Date actuelle",
	"{{sender_name}}":  "Nom de l'expéditeur",
}

// EmailTemplate is a stored, editable message skeleton.
type EmailTemplate struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Code      string       `json:"code"`
	Type      TemplateType `json:"type"`
	Subject   string       `json:"subject"`
	BodyHTML  string       `json:"body_html"`
	IsActive  bool         `json:"is_active"`
	CreatedBy int64        `json:"created_by"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty"`
}

// RenderSubject substitutes variables into the subject line.
func (t *EmailTemplate) RenderSubject(vars map[string]string) string {
	return substitute(t.Subject, vars)
}

// RenderBody substitutes variables into the HTML body.
func (t *EmailTemplate) RenderBody(vars map[string]string) string {
	return substitute(t.BodyHTML, vars)
}

func substitute(text string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, key, value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Recipient is a client eligible to receive notifications.
type Recipient struct {
	ID    int64  `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Report sums up one mass send.
type Report struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type SendRequest struct {
	ClientIDs  []int64 `json:"client_ids" validate:"required,min=1,dive,gt=0"`
	Subject    string  `json:"subject" validate:"required_without=TemplateID,max=255"`
	Message    string  `json:"message" validate:"required_without=TemplateID"`
	TemplateID *int64  `json:"template_id,omitempty" validate:"omitempty,gt=0"`
}

type CreateTemplateRequest struct {
	Name     string       `json:"name" validate:"required,max=255"`
	Code     string       `json:"code" validate:"required,max=50"`
	Type     TemplateType `json:"type" validate:"required,oneof=proforma invoice reminder payment welcome"`
	Subject  string       `json:"subject" validate:"required,max=255"`
	BodyHTML string       `json:"body_html" validate:"required"`
}

type UpdateTemplateRequest struct {
	Name     *string       `json:"name,omitempty" validate:"omitempty,max=255"`
	Type     *TemplateType `json:"type,omitempty" validate:"omitempty,oneof=proforma invoice reminder payment welcome"`
	Subject  *string       `json:"subject,omitempty" validate:"omitempty,max=255"`
	BodyHTML *string       `json:"body_html,omitempty"`
	IsActive *bool         `json:"is_active,omitempty"`
}
