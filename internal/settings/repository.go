package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists the company settings row.
type Repository interface {
	Load(ctx context.Context) (*CompanySettings, error)
	Save(ctx context.Context, s *CompanySettings) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const settingsColumns = `
	id, company_name, legal_name, rccm, tax_id, address, city, country,
	phone, email, website, logo_base64, currency, default_tax_rate,
	proforma_prefix, invoice_prefix, proforma_start_number, invoice_start_number,
	yearly_references, default_validity_days, default_payment_days,
	default_proforma_conditions, default_invoice_conditions, bank_details,
	sender_name, sender_email, reply_to, created_at, updated_at`

// Load returns the settings row, creating it from defaults when absent.
func (r *repository) Load(ctx context.Context) (*CompanySettings, error) {
	s, err := r.scanRow(r.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM company_settings ORDER BY id LIMIT 1`))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	defaults := Defaults()
	if err := r.Save(ctx, &defaults); err != nil {
		return nil, err
	}
	return &defaults, nil
}

// Save upserts the settings row.
func (r *repository) Save(ctx context.Context, s *CompanySettings) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO company_settings (
			id, company_name, legal_name, rccm, tax_id, address, city, country,
			phone, email, website, logo_base64, currency, default_tax_rate,
			proforma_prefix, invoice_prefix, proforma_start_number, invoice_start_number,
			yearly_references, default_validity_days, default_payment_days,
			default_proforma_conditions, default_invoice_conditions, bank_details,
			sender_name, sender_email, reply_to, created_at, updated_at
		) VALUES (
			COALESCE(NULLIF($1, 0::bigint), 1), $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18,
			$19, $20, $21,
			$22, $23, $24,
			$25, $26, $27, NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			legal_name = EXCLUDED.legal_name,
			rccm = EXCLUDED.rccm,
			tax_id = EXCLUDED.tax_id,
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			website = EXCLUDED.website,
			logo_base64 = EXCLUDED.logo_base64,
			currency = EXCLUDED.currency,
			default_tax_rate = EXCLUDED.default_tax_rate,
			proforma_prefix = EXCLUDED.proforma_prefix,
			invoice_prefix = EXCLUDED.invoice_prefix,
			proforma_start_number = EXCLUDED.proforma_start_number,
			invoice_start_number = EXCLUDED.invoice_start_number,
			yearly_references = EXCLUDED.yearly_references,
			default_validity_days = EXCLUDED.default_validity_days,
			default_payment_days = EXCLUDED.default_payment_days,
			default_proforma_conditions = EXCLUDED.default_proforma_conditions,
			default_invoice_conditions = EXCLUDED.default_invoice_conditions,
			bank_details = EXCLUDED.bank_details,
			sender_name = EXCLUDED.sender_name,
			sender_email = EXCLUDED.sender_email,
			reply_to = EXCLUDED.reply_to,
			updated_at = NOW()
		RETURNING id
	`,
		s.ID, s.CompanyName, s.LegalName, s.RCCM, s.TaxID, s.Address, s.City, s.Country,
		s.Phone, s.Email, s.Website, s.LogoBase64, s.Currency, s.DefaultTaxRate,
		s.ProformaPrefix, s.InvoicePrefix, s.ProformaStartNumber, s.InvoiceStartNumber,
		s.YearlyReferences, s.DefaultValidityDays, s.DefaultPaymentDays,
		s.DefaultProformaConditions, s.DefaultInvoiceConditions, s.BankDetails,
		s.SenderName, s.SenderEmail, s.ReplyTo,
	).Scan(&s.ID)
}

func (r *repository) scanRow(row pgx.Row) (*CompanySettings, error) {
	var s CompanySettings
	var legalName, rccm, taxID, address, city, phone, email, website, logo pgtype.Text
	var proformaConditions, invoiceConditions, bankDetails pgtype.Text
	var senderName, senderEmail, replyTo pgtype.Text
	var taxRate pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&s.ID, &s.CompanyName, &legalName, &rccm, &taxID, &address, &city, &s.Country,
		&phone, &email, &website, &logo, &s.Currency, &taxRate,
		&s.ProformaPrefix, &s.InvoicePrefix, &s.ProformaStartNumber, &s.InvoiceStartNumber,
		&s.YearlyReferences, &s.DefaultValidityDays, &s.DefaultPaymentDays,
		&proformaConditions, &invoiceConditions, &bankDetails,
		&senderName, &senderEmail, &replyTo, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if taxRate.Valid {
		f, _ := taxRate.Float64Value()
		s.DefaultTaxRate = f.Float64
	}
	s.LegalName = textPtr(legalName)
	s.RCCM = textPtr(rccm)
	s.TaxID = textPtr(taxID)
	s.Address = textPtr(address)
	s.City = textPtr(city)
	s.Phone = textPtr(phone)
	s.Email = textPtr(email)
	s.Website = textPtr(website)
	s.LogoBase64 = textPtr(logo)
	s.DefaultProformaConditions = textPtr(proformaConditions)
	s.DefaultInvoiceConditions = textPtr(invoiceConditions)
	s.BankDetails = textPtr(bankDetails)
	s.SenderName = textPtr(senderName)
	s.SenderEmail = textPtr(senderEmail)
	s.ReplyTo = textPtr(replyTo)
	if createdAt.Valid {
		s.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		s.UpdatedAt = updatedAt.Time
	}
	return &s, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	val := t.String
	return &val
}
