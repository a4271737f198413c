package settings

import (
	"context"
	"fmt"
)

// Service exposes settings loading and edition.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get loads the settings, creating the default row on first access.
func (s *Service) Get(ctx context.Context) (*CompanySettings, error) {
	return s.repo.Load(ctx)
}

// Update applies the provided fields and persists the row.
func (s *Service) Update(ctx context.Context, req UpdateSettingsRequest) (*CompanySettings, error) {
	current, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if req.CompanyName != nil {
		current.CompanyName = *req.CompanyName
	}
	if req.LegalName != nil {
		current.LegalName = req.LegalName
	}
	if req.RCCM != nil {
		current.RCCM = req.RCCM
	}
	if req.TaxID != nil {
		current.TaxID = req.TaxID
	}
	if req.Address != nil {
		current.Address = req.Address
	}
	if req.City != nil {
		current.City = req.City
	}
	if req.Country != nil {
		current.Country = *req.Country
	}
	if req.Phone != nil {
		current.Phone = req.Phone
	}
	if req.Email != nil {
		current.Email = req.Email
	}
	if req.Website != nil {
		current.Website = req.Website
	}
	if req.LogoBase64 != nil {
		current.LogoBase64 = req.LogoBase64
	}
	if req.Currency != nil {
		current.Currency = *req.Currency
	}
	if req.DefaultTaxRate != nil {
		current.DefaultTaxRate = *req.DefaultTaxRate
	}
	if req.ProformaPrefix != nil {
		current.ProformaPrefix = *req.ProformaPrefix
	}
	if req.InvoicePrefix != nil {
		current.InvoicePrefix = *req.InvoicePrefix
	}
	if req.YearlyReferences != nil {
		current.YearlyReferences = *req.YearlyReferences
	}
	if req.DefaultValidityDays != nil {
		current.DefaultValidityDays = *req.DefaultValidityDays
	}
	if req.DefaultPaymentDays != nil {
		current.DefaultPaymentDays = *req.DefaultPaymentDays
	}
	if req.DefaultProformaConditions != nil {
		current.DefaultProformaConditions = req.DefaultProformaConditions
	}
	if req.DefaultInvoiceConditions != nil {
		current.DefaultInvoiceConditions = req.DefaultInvoiceConditions
	}
	if req.BankDetails != nil {
		current.BankDetails = req.BankDetails
	}
	if req.SenderName != nil {
		current.SenderName = req.SenderName
	}
	if req.SenderEmail != nil {
		current.SenderEmail = req.SenderEmail
	}
	if req.ReplyTo != nil {
		current.ReplyTo = req.ReplyTo
	}

	if err := s.repo.Save(ctx, current); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return current, nil
}
