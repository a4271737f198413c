// Package settings manages the single company settings row. The row is
// loaded once into an explicit value object and passed to the engine and its
// collaborators; nothing reads it as ambient global state.
package settings

import (
	"time"

	"github.com/facturio/facturio/internal/sequence"
)

// CompanySettings is the company identity and the billing defaults applied
// to new documents.
type CompanySettings struct {
	ID         int64   `json:"id" db:"id"`
	CompanyName string `json:"company_name" db:"company_name"`
	LegalName  *string `json:"legal_name,omitempty" db:"legal_name"`
	RCCM       *string `json:"rccm,omitempty" db:"rccm"`
	TaxID      *string `json:"tax_id,omitempty" db:"tax_id"`
	Address    *string `json:"address,omitempty" db:"address"`
	City       *string `json:"city,omitempty" db:"city"`
	Country    string  `json:"country" db:"country"`
	Phone      *string `json:"phone,omitempty" db:"phone"`
	Email      *string `json:"email,omitempty" db:"email"`
	Website    *string `json:"website,omitempty" db:"website"`
	LogoBase64 *string `json:"logo_base64,omitempty" db:"logo_base64"`

	Currency       string  `json:"currency" db:"currency"`
	DefaultTaxRate float64 `json:"default_tax_rate" db:"default_tax_rate"`

	ProformaPrefix      string `json:"proforma_prefix" db:"proforma_prefix"`
	InvoicePrefix       string `json:"invoice_prefix" db:"invoice_prefix"`
	ProformaStartNumber int    `json:"proforma_start_number" db:"proforma_start_number"`
	InvoiceStartNumber  int    `json:"invoice_start_number" db:"invoice_start_number"`
	// YearlyReferences selects FAC20260001 style references; when false a
	// shorter FAC001 style fixed-width sequence is used.
	YearlyReferences bool `json:"yearly_references" db:"yearly_references"`

	DefaultValidityDays int `json:"default_validity_days" db:"default_validity_days"`
	DefaultPaymentDays  int `json:"default_payment_days" db:"default_payment_days"`

	DefaultProformaConditions *string `json:"default_proforma_conditions,omitempty" db:"default_proforma_conditions"`
	DefaultInvoiceConditions  *string `json:"default_invoice_conditions,omitempty" db:"default_invoice_conditions"`
	BankDetails               *string `json:"bank_details,omitempty" db:"bank_details"`

	SenderName  *string `json:"sender_name,omitempty" db:"sender_name"`
	SenderEmail *string `json:"sender_email,omitempty" db:"sender_email"`
	ReplyTo     *string `json:"reply_to,omitempty" db:"reply_to"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Defaults returns the settings used when no row exists yet.
func Defaults() CompanySettings {
	return CompanySettings{
		CompanyName:         "Ma Société",
		Country:             "Cameroun",
		Currency:            "FCFA",
		DefaultTaxRate:      19.25,
		ProformaPrefix:      "PROV",
		InvoicePrefix:       "FAC",
		ProformaStartNumber: 1,
		InvoiceStartNumber:  1,
		YearlyReferences:    true,
		DefaultValidityDays: 30,
		DefaultPaymentDays:  30,
	}
}

// ProformaFormat returns the reference format for proformas.
func (s *CompanySettings) ProformaFormat() sequence.Format {
	return s.format(s.ProformaPrefix, s.ProformaStartNumber)
}

// InvoiceFormat returns the reference format for invoices.
func (s *CompanySettings) InvoiceFormat() sequence.Format {
	return s.format(s.InvoicePrefix, s.InvoiceStartNumber)
}

func (s *CompanySettings) format(prefix string, start int) sequence.Format {
	f := sequence.Format{Prefix: prefix, Start: start, Yearly: s.YearlyReferences, Width: 4}
	if !s.YearlyReferences {
		f.Width = 3
	}
	return f
}

// UpdateSettingsRequest carries the editable settings fields.
type UpdateSettingsRequest struct {
	CompanyName *string  `json:"company_name,omitempty" validate:"omitempty,max=200"`
	LegalName   *string  `json:"legal_name,omitempty" validate:"omitempty,max=200"`
	RCCM        *string  `json:"rccm,omitempty" validate:"omitempty,max=100"`
	TaxID       *string  `json:"tax_id,omitempty" validate:"omitempty,max=100"`
	Address     *string  `json:"address,omitempty"`
	City        *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	Country     *string  `json:"country,omitempty" validate:"omitempty,max=100"`
	Phone       *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	Website     *string  `json:"website,omitempty" validate:"omitempty,max=200"`
	LogoBase64  *string  `json:"logo_base64,omitempty"`

	Currency       *string  `json:"currency,omitempty" validate:"omitempty,max=10"`
	DefaultTaxRate *float64 `json:"default_tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`

	ProformaPrefix      *string `json:"proforma_prefix,omitempty" validate:"omitempty,max=10"`
	InvoicePrefix       *string `json:"invoice_prefix,omitempty" validate:"omitempty,max=10"`
	YearlyReferences    *bool   `json:"yearly_references,omitempty"`
	DefaultValidityDays *int    `json:"default_validity_days,omitempty" validate:"omitempty,gt=0,lte=365"`
	DefaultPaymentDays  *int    `json:"default_payment_days,omitempty" validate:"omitempty,gt=0,lte=365"`

	DefaultProformaConditions *string `json:"default_proforma_conditions,omitempty"`
	DefaultInvoiceConditions  *string `json:"default_invoice_conditions,omitempty"`
	BankDetails               *string `json:"bank_details,omitempty"`

	SenderName  *string `json:"sender_name,omitempty" validate:"omitempty,max=200"`
	SenderEmail *string `json:"sender_email,omitempty" validate:"omitempty,email"`
	ReplyTo     *string `json:"reply_to,omitempty" validate:"omitempty,email"`
}
