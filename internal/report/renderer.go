// Package report renders proformas and invoices to HTML and converts them to
// PDF through a Gotenberg instance.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/clients"
	"github.com/facturio/facturio/internal/settings"
)

//go:embed templates/*.html
var templateFS embed.FS

// documentData feeds the shared document template. Proformas and invoices
// differ only in the title, the date labels and the payment block.
type documentData struct {
	Title     string
	Reference string
	Status    string
	IssueDate time.Time
	DateLabel string
	DateValue time.Time

	Company *settings.CompanySettings
	Client  *clients.Client

	Object     *string
	Notes      *string
	Conditions *string

	Items    []*billing.LineItem
	TaxRate  float64
	TotalHT  float64
	TotalTVA float64
	TotalTTC float64

	ShowPayments bool
	AmountPaid   float64
	AmountDue    float64

	Currency    string
	BankDetails *string
}

// Renderer produces the HTML body of a document.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"money": billing.DisplayAmount,
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006")
		},
		"formatQty": func(qty float64) string {
			if qty == float64(int64(qty)) {
				return fmt.Sprintf("%d", int64(qty))
			}
			return fmt.Sprintf("%.2f", qty)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	tpl, err := template.New("document.html").Funcs(funcMap).ParseFS(templateFS, "templates/document.html")
	if err != nil {
		return nil, fmt.Errorf("parse document template: %w", err)
	}
	return &Renderer{templates: tpl}, nil
}

func (r *Renderer) renderDocument(data documentData) (string, error) {
	buf := &bytes.Buffer{}
	if err := r.templates.ExecuteTemplate(buf, "document.html", data); err != nil {
		return "", fmt.Errorf("render %s: %w", data.Reference, err)
	}
	return buf.String(), nil
}

// ProformaHTML renders a proforma. Totals are recomputed from the items so
// the rendered figures always match the lines shown.
func (r *Renderer) ProformaHTML(proforma *billing.Proforma, client *clients.Client, company *settings.CompanySettings) (string, error) {
	proforma.CalculateTotals()
	return r.renderDocument(documentData{
		Title:      "FACTURE PROFORMA",
		Reference:  proforma.Reference,
		Status:     string(proforma.Status),
		IssueDate:  proforma.IssueDate,
		DateLabel:  "Valide jusqu'au",
		DateValue:  proforma.ValidUntil,
		Company:    company,
		Client:     client,
		Object:     proforma.Object,
		Notes:      proforma.Notes,
		Conditions: proforma.Conditions,
		Items:      proforma.Items,
		TaxRate:    proforma.TaxRate,
		TotalHT:    proforma.TotalHT,
		TotalTVA:   proforma.TotalTVA,
		TotalTTC:   proforma.TotalTTC,
		Currency:   company.Currency,
	})
}

// InvoiceHTML renders an invoice, payment block included.
func (r *Renderer) InvoiceHTML(invoice *billing.Invoice, client *clients.Client, company *settings.CompanySettings) (string, error) {
	invoice.CalculateTotals()
	return r.renderDocument(documentData{
		Title:        "FACTURE",
		Reference:    invoice.Reference,
		Status:       string(invoice.Status),
		IssueDate:    invoice.IssueDate,
		DateLabel:    "Échéance",
		DateValue:    invoice.DueDate,
		Company:      company,
		Client:       client,
		Object:       invoice.Object,
		Notes:        invoice.Notes,
		Conditions:   invoice.Conditions,
		Items:        invoice.Items,
		TaxRate:      invoice.TaxRate,
		TotalHT:      invoice.TotalHT,
		TotalTVA:     invoice.TotalTVA,
		TotalTTC:     invoice.TotalTTC,
		ShowPayments: invoice.AmountPaid > 0,
		AmountPaid:   invoice.AmountPaid,
		AmountDue:    invoice.AmountDue(),
		Currency:     company.Currency,
		BankDetails:  company.BankDetails,
	})
}
