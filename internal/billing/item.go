package billing

import (
	"fmt"
	"time"
)

// LineItem is one priced row of a document. Its total is recomputed
// synchronously whenever quantity, unit price or discount changes and is
// never left stale.
type LineItem struct {
	ID          int64     `json:"id" db:"id"`
	ProductID   *int64    `json:"product_id,omitempty" db:"product_id"`
	Designation string    `json:"designation" db:"designation"`
	Description *string   `json:"description,omitempty" db:"description"`
	Quantity    float64   `json:"quantity" db:"quantity"`
	Unit        *string   `json:"unit,omitempty" db:"unit"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	Discount    float64   `json:"discount" db:"discount"`
	Total       float64   `json:"total" db:"total"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// NewLineItem returns an item with quantity 1 and a computed total.
func NewLineItem(designation string) *LineItem {
	item := &LineItem{
		Designation: designation,
		Quantity:    1,
	}
	item.recompute()
	return item
}

// SetQuantity updates the quantity. Negative quantities are rejected.
func (i *LineItem) SetQuantity(q float64) error {
	if q < 0 {
		return fmt.Errorf("%w: quantity %v", ErrInvalidLineItemValue, q)
	}
	i.Quantity = q
	i.recompute()
	return nil
}

// SetUnitPrice updates the unit price. Negative prices are rejected.
func (i *LineItem) SetUnitPrice(p float64) error {
	if p < 0 {
		return fmt.Errorf("%w: unit price %v", ErrInvalidLineItemValue, p)
	}
	i.UnitPrice = p
	i.recompute()
	return nil
}

// SetDiscount updates the discount percentage, which must be in [0,100].
func (i *LineItem) SetDiscount(d float64) error {
	if d < 0 || d > 100 {
		return fmt.Errorf("%w: discount %v", ErrInvalidLineItemValue, d)
	}
	i.Discount = d
	i.recompute()
	return nil
}

func (i *LineItem) recompute() {
	gross := i.Quantity * i.UnitPrice
	i.Total = Round2(gross - gross*(i.Discount/100))
}

// Clone returns a detached copy of the item with its identity reset. Used by
// document duplication and proforma conversion.
func (i *LineItem) Clone() *LineItem {
	clone := &LineItem{
		ProductID:   i.ProductID,
		Designation: i.Designation,
		Quantity:    i.Quantity,
		UnitPrice:   i.UnitPrice,
		Discount:    i.Discount,
		Total:       i.Total,
		SortOrder:   i.SortOrder,
	}
	if i.Description != nil {
		val := *i.Description
		clone.Description = &val
	}
	if i.Unit != nil {
		val := *i.Unit
		clone.Unit = &val
	}
	if i.ProductID != nil {
		val := *i.ProductID
		clone.ProductID = &val
	}
	return clone
}
