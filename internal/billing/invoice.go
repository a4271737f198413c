package billing

import (
	"fmt"
	"time"
)

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusPartial   InvoiceStatus = "PARTIAL"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice is a billing document tracking the amount owed and paid by a
// client. It may carry a back-reference to the proforma it was converted
// from. Status changes go through the transition methods; the Status field is
// written directly only when loading from storage.
type Invoice struct {
	Document
	Status           InvoiceStatus `json:"status" db:"status"`
	DueDate          time.Time     `json:"due_date" db:"due_date"`
	AmountPaid       float64       `json:"amount_paid" db:"amount_paid"`
	PaidAt           *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	PaymentMethod    *string       `json:"payment_method,omitempty" db:"payment_method"`
	PaymentReference *string       `json:"payment_reference,omitempty" db:"payment_reference"`
	ProformaID       *int64        `json:"proforma_id,omitempty" db:"proforma_id"`
}

// NewInvoice returns a draft invoice with the given reference, issued now and
// due after paymentDays.
func NewInvoice(reference string, now time.Time, paymentDays int) *Invoice {
	return &Invoice{
		Document: Document{
			Reference: reference,
			IssueDate: now,
		},
		Status:  InvoiceStatusDraft,
		DueDate: now.AddDate(0, 0, paymentDays),
	}
}

// CanBeEdited reports whether item and header edits are allowed.
func (inv *Invoice) CanBeEdited() bool {
	return inv.Status == InvoiceStatusDraft
}

// CanBeSent allows sending from DRAFT, SENT, PARTIAL and OVERDUE.
func (inv *Invoice) CanBeSent() bool {
	switch inv.Status {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartial, InvoiceStatusOverdue:
		return true
	}
	return false
}

// CanBePaid reports whether a payment may be applied.
func (inv *Invoice) CanBePaid() bool {
	switch inv.Status {
	case InvoiceStatusSent, InvoiceStatusPartial, InvoiceStatusOverdue:
		return true
	}
	return false
}

// CanBeCancelled blocks cancellation of paid or already cancelled invoices.
func (inv *Invoice) CanBeCancelled() bool {
	return inv.Status != InvoiceStatusPaid && inv.Status != InvoiceStatusCancelled
}

// CanBeDeleted blocks deletion once the invoice is settled.
func (inv *Invoice) CanBeDeleted() bool {
	return inv.Status != InvoiceStatusPaid
}

// IsOverdue reports whether the due date has passed for an unsettled invoice.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.Status == InvoiceStatusPaid || inv.Status == InvoiceStatusCancelled {
		return false
	}
	return now.After(inv.DueDate)
}

// AmountDue returns the outstanding amount. It can go negative when payments
// exceed the total; overpayment is not validated at this layer.
func (inv *Invoice) AmountDue() float64 {
	return inv.TotalTTC - inv.AmountPaid
}

// HasProforma reports whether the invoice originated from a proforma.
func (inv *Invoice) HasProforma() bool {
	return inv.ProformaID != nil
}

// PaymentPercentage returns the paid share of the taxed total, for display.
func (inv *Invoice) PaymentPercentage() float64 {
	if inv.TotalTTC == 0 {
		return 0
	}
	return (inv.AmountPaid / inv.TotalTTC) * 100
}

// MarkSent transitions to SENT.
func (inv *Invoice) MarkSent() error {
	if !inv.CanBeSent() {
		return fmt.Errorf("%w: invoice %s in status %s cannot be sent", ErrIllegalTransition, inv.Reference, inv.Status)
	}
	inv.Status = InvoiceStatusSent
	return nil
}

// AddPayment applies a payment at the given time. The cumulative amount paid
// keeps its literal value even past the taxed total; once it reaches the
// total the invoice becomes PAID and the paid timestamp is stamped, otherwise
// it becomes PARTIAL. Payments below or equal to zero are the caller's
// responsibility to reject.
func (inv *Invoice) AddPayment(amount float64, at time.Time) error {
	if !inv.CanBePaid() {
		return fmt.Errorf("%w: invoice %s in status %s cannot receive payments", ErrIllegalTransition, inv.Reference, inv.Status)
	}
	inv.AmountPaid = Round2(inv.AmountPaid + amount)
	if inv.AmountPaid >= inv.TotalTTC {
		inv.Status = InvoiceStatusPaid
		paidAt := at
		inv.PaidAt = &paidAt
	} else {
		inv.Status = InvoiceStatusPartial
	}
	return nil
}

// MarkPaid settles the invoice in full: amount paid is set to the taxed total
// and the paid timestamp is stamped.
func (inv *Invoice) MarkPaid(at time.Time) error {
	if !inv.CanBePaid() {
		return fmt.Errorf("%w: invoice %s in status %s cannot be marked paid", ErrIllegalTransition, inv.Reference, inv.Status)
	}
	inv.Status = InvoiceStatusPaid
	inv.AmountPaid = inv.TotalTTC
	paidAt := at
	inv.PaidAt = &paidAt
	return nil
}

// MarkOverdue flags an unsettled invoice past its due date.
func (inv *Invoice) MarkOverdue(now time.Time) error {
	switch inv.Status {
	case InvoiceStatusSent, InvoiceStatusPartial:
	default:
		return fmt.Errorf("%w: invoice %s in status %s cannot be marked overdue", ErrIllegalTransition, inv.Reference, inv.Status)
	}
	if !inv.IsOverdue(now) {
		return fmt.Errorf("%w: invoice %s is not past its due date", ErrIllegalTransition, inv.Reference)
	}
	inv.Status = InvoiceStatusOverdue
	return nil
}

// Cancel voids the invoice.
func (inv *Invoice) Cancel() error {
	if !inv.CanBeCancelled() {
		return fmt.Errorf("%w: invoice %s in status %s cannot be cancelled", ErrIllegalTransition, inv.Reference, inv.Status)
	}
	inv.Status = InvoiceStatusCancelled
	return nil
}
