package billing

import (
	"fmt"
	"time"
)

// ProformaStatus enumerates proforma lifecycle states.
type ProformaStatus string

const (
	ProformaStatusDraft    ProformaStatus = "DRAFT"
	ProformaStatusSent     ProformaStatus = "SENT"
	ProformaStatusAccepted ProformaStatus = "ACCEPTED"
	ProformaStatusRefused  ProformaStatus = "REFUSED"
	ProformaStatusExpired  ProformaStatus = "EXPIRED"
	ProformaStatusInvoiced ProformaStatus = "INVOICED"
)

// Proforma is a quote-like document convertible into an invoice. Status
// changes go through the transition methods below; the Status field is
// written directly only when loading from storage.
type Proforma struct {
	Document
	Status     ProformaStatus `json:"status" db:"status"`
	ValidUntil time.Time      `json:"valid_until" db:"valid_until"`
	InvoiceID  *int64         `json:"invoice_id,omitempty" db:"invoice_id"`
}

// NewProforma returns a draft proforma with the given reference, issued now
// and valid for validityDays.
func NewProforma(reference string, now time.Time, validityDays int) *Proforma {
	return &Proforma{
		Document: Document{
			Reference: reference,
			IssueDate: now,
		},
		Status:     ProformaStatusDraft,
		ValidUntil: now.AddDate(0, 0, validityDays),
	}
}

// CanBeEdited reports whether item and header edits are allowed.
func (p *Proforma) CanBeEdited() bool {
	return p.Status == ProformaStatusDraft || p.Status == ProformaStatusSent
}

// CanBeSent allows sending from DRAFT, SENT and ACCEPTED (re-sending is permitted).
func (p *Proforma) CanBeSent() bool {
	switch p.Status {
	case ProformaStatusDraft, ProformaStatusSent, ProformaStatusAccepted:
		return true
	}
	return false
}

// CanBeConverted reports whether the proforma may become an invoice:
// status DRAFT, SENT or ACCEPTED and no invoice linked yet.
func (p *Proforma) CanBeConverted() bool {
	switch p.Status {
	case ProformaStatusDraft, ProformaStatusSent, ProformaStatusAccepted:
		return !p.HasInvoice()
	}
	return false
}

// CanBeDeleted blocks deletion once an invoice is linked.
func (p *Proforma) CanBeDeleted() bool {
	return !p.HasInvoice()
}

// HasInvoice reports whether an invoice was generated from this proforma.
func (p *Proforma) HasInvoice() bool {
	return p.InvoiceID != nil
}

// IsExpired reports whether the validity horizon has passed.
func (p *Proforma) IsExpired(now time.Time) bool {
	return now.After(p.ValidUntil)
}

// MarkSent transitions to SENT.
func (p *Proforma) MarkSent() error {
	if !p.CanBeSent() {
		return fmt.Errorf("%w: proforma %s in status %s cannot be sent", ErrIllegalTransition, p.Reference, p.Status)
	}
	p.Status = ProformaStatusSent
	return nil
}

// Accept transitions a sent proforma to ACCEPTED.
func (p *Proforma) Accept() error {
	if p.Status != ProformaStatusSent {
		return fmt.Errorf("%w: proforma %s in status %s cannot be accepted", ErrIllegalTransition, p.Reference, p.Status)
	}
	p.Status = ProformaStatusAccepted
	return nil
}

// Refuse transitions a sent proforma to REFUSED.
func (p *Proforma) Refuse() error {
	if p.Status != ProformaStatusSent {
		return fmt.Errorf("%w: proforma %s in status %s cannot be refused", ErrIllegalTransition, p.Reference, p.Status)
	}
	p.Status = ProformaStatusRefused
	return nil
}

// Expire transitions a sent proforma past its validity to EXPIRED.
func (p *Proforma) Expire(now time.Time) error {
	if p.Status != ProformaStatusSent {
		return fmt.Errorf("%w: proforma %s in status %s cannot expire", ErrIllegalTransition, p.Reference, p.Status)
	}
	if !p.IsExpired(now) {
		return fmt.Errorf("%w: proforma %s is still valid until %s", ErrIllegalTransition, p.Reference, p.ValidUntil.Format("2006-01-02"))
	}
	p.Status = ProformaStatusExpired
	return nil
}

// MarkInvoiced links the generated invoice and transitions to INVOICED.
// Called by the conversion orchestration only.
func (p *Proforma) MarkInvoiced(invoiceID int64) error {
	if !p.CanBeConverted() {
		return fmt.Errorf("%w: proforma %s in status %s cannot be converted", ErrIllegalTransition, p.Reference, p.Status)
	}
	p.Status = ProformaStatusInvoiced
	p.InvoiceID = &invoiceID
	return nil
}
