package billing

import (
	"fmt"
	"time"
)

// ConvertProforma builds a new draft invoice from a convertible proforma.
// Header fields (client, object, notes, conditions, tax rate) are copied, the
// due date is set to issueDate plus paymentDays, and every line item is deep
// copied preserving sort order. Totals are recalculated on the new invoice
// before it is returned. The proforma itself is not mutated here; the caller
// links both sides with MarkInvoiced inside the same transaction that
// persists the invoice, so a failure partway leaves no INVOICED proforma
// without an invoice.
func ConvertProforma(p *Proforma, reference string, issueDate time.Time, paymentDays int) (*Invoice, error) {
	if !p.CanBeConverted() {
		return nil, fmt.Errorf("%w: proforma %s in status %s cannot be converted", ErrIllegalTransition, p.Reference, p.Status)
	}

	inv := &Invoice{
		Document: Document{
			Reference: reference,
			IssueDate: issueDate,
			TaxRate:   p.TaxRate,
			ClientID:  p.ClientID,
			CreatedBy: p.CreatedBy,
		},
		Status:  InvoiceStatusDraft,
		DueDate: issueDate.AddDate(0, 0, paymentDays),
	}
	if p.Object != nil {
		val := *p.Object
		inv.Object = &val
	}
	if p.Notes != nil {
		val := *p.Notes
		inv.Notes = &val
	}
	if p.Conditions != nil {
		val := *p.Conditions
		inv.Conditions = &val
	}
	if p.ID != 0 {
		proformaID := p.ID
		inv.ProformaID = &proformaID
	}

	for _, item := range p.Items {
		inv.AddItem(item.Clone())
	}
	inv.CalculateTotals()

	return inv, nil
}
