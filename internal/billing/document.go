// Package billing implements the document totals and lifecycle engine:
// line item arithmetic, proforma/invoice aggregates with derived totals,
// status state machines and proforma-to-invoice conversion. The package is
// pure in-memory logic; persistence, rendering and delivery live elsewhere.
package billing

import "time"

// Document is the header shared by proformas and invoices. It owns an ordered
// collection of line items and three derived totals. Totals are recomputed
// only through CalculateTotals; item mutations alone never keep them in sync,
// so callers recompute once after a batch of edits.
type Document struct {
	ID         int64       `json:"id" db:"id"`
	Reference  string      `json:"reference" db:"reference"`
	IssueDate  time.Time   `json:"issue_date" db:"issue_date"`
	TaxRate    float64     `json:"tax_rate" db:"tax_rate"`
	TotalHT    float64     `json:"total_ht" db:"total_ht"`
	TotalTVA   float64     `json:"total_tva" db:"total_tva"`
	TotalTTC   float64     `json:"total_ttc" db:"total_ttc"`
	Object     *string     `json:"object,omitempty" db:"object"`
	Notes      *string     `json:"notes,omitempty" db:"notes"`
	Conditions *string     `json:"conditions,omitempty" db:"conditions"`
	ClientID   int64       `json:"client_id" db:"client_id"`
	CreatedBy  int64       `json:"created_by" db:"created_by"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
	Items      []*LineItem `json:"items,omitempty" db:"-"`
}

// AddItem appends an item to the collection. Totals are not recomputed.
func (d *Document) AddItem(item *LineItem) {
	if item == nil {
		return
	}
	d.Items = append(d.Items, item)
}

// RemoveItem detaches an item from the collection. Totals are not recomputed.
func (d *Document) RemoveItem(item *LineItem) {
	for idx, existing := range d.Items {
		if existing == item {
			d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
			return
		}
	}
}

// ClearItems detaches every item.
func (d *Document) ClearItems() {
	d.Items = nil
}

// CalculateTotals overwrites the three derived totals from the current items
// and tax rate. It is deterministic and idempotent: calling it twice with no
// intervening mutation yields identical totals.
func (d *Document) CalculateTotals() {
	var totalHT float64
	for _, item := range d.Items {
		totalHT += item.Total
	}
	d.TotalHT = Round2(totalHT)
	d.TotalTVA = Round2(totalHT * (d.TaxRate / 100))
	d.TotalTTC = d.TotalHT + d.TotalTVA
}
