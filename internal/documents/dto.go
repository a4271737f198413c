package documents

import (
	"time"

	"github.com/facturio/facturio/internal/billing"
)

// LineItemInput is an incoming line. When ProductID is set the designation
// and unit price default to the catalog snapshot and may be overridden.
type LineItemInput struct {
	ProductID   *int64   `json:"product_id"`
	Designation string   `json:"designation" validate:"omitempty,max=255"`
	Description *string  `json:"description"`
	Quantity    float64  `json:"quantity" validate:"omitempty,gt=0"`
	Unit        *string  `json:"unit" validate:"omitempty,max=50"`
	UnitPrice   *float64 `json:"unit_price" validate:"omitempty,gte=0"`
	Discount    float64  `json:"discount" validate:"gte=0,lte=100"`
}

type CreateProformaRequest struct {
	ClientID     int64           `json:"client_id" validate:"required,gt=0"`
	Object       *string         `json:"object" validate:"omitempty,max=255"`
	Notes        *string         `json:"notes"`
	Conditions   *string         `json:"conditions"`
	TaxRate      *float64        `json:"tax_rate" validate:"omitempty,gte=0,lte=100"`
	IssueDate    *time.Time      `json:"issue_date"`
	ValidityDays *int            `json:"validity_days" validate:"omitempty,gt=0"`
	Items        []LineItemInput `json:"items" validate:"required,min=1,dive"`
}

type UpdateProformaRequest struct {
	ClientID   *int64           `json:"client_id" validate:"omitempty,gt=0"`
	Object     *string          `json:"object" validate:"omitempty,max=255"`
	Notes      *string          `json:"notes"`
	Conditions *string          `json:"conditions"`
	TaxRate    *float64         `json:"tax_rate" validate:"omitempty,gte=0,lte=100"`
	IssueDate  *time.Time       `json:"issue_date"`
	ValidUntil *time.Time       `json:"valid_until"`
	Items      *[]LineItemInput `json:"items" validate:"omitempty,min=1,dive"`
}

type CreateInvoiceRequest struct {
	ClientID    int64           `json:"client_id" validate:"required,gt=0"`
	Object      *string         `json:"object" validate:"omitempty,max=255"`
	Notes       *string         `json:"notes"`
	Conditions  *string         `json:"conditions"`
	TaxRate     *float64        `json:"tax_rate" validate:"omitempty,gte=0,lte=100"`
	IssueDate   *time.Time      `json:"issue_date"`
	PaymentDays *int            `json:"payment_days" validate:"omitempty,gt=0"`
	Items       []LineItemInput `json:"items" validate:"required,min=1,dive"`
}

type UpdateInvoiceRequest struct {
	ClientID   *int64           `json:"client_id" validate:"omitempty,gt=0"`
	Object     *string          `json:"object" validate:"omitempty,max=255"`
	Notes      *string          `json:"notes"`
	Conditions *string          `json:"conditions"`
	TaxRate    *float64         `json:"tax_rate" validate:"omitempty,gte=0,lte=100"`
	IssueDate  *time.Time       `json:"issue_date"`
	DueDate    *time.Time       `json:"due_date"`
	Items      *[]LineItemInput `json:"items" validate:"omitempty,min=1,dive"`
}

type PaymentRequest struct {
	Amount    float64    `json:"amount" validate:"required,gt=0"`
	Method    *string    `json:"method" validate:"omitempty,max=50"`
	Reference *string    `json:"reference" validate:"omitempty,max=100"`
	PaidAt    *time.Time `json:"paid_at"`
}

type ListProformasRequest struct {
	Status   *billing.ProformaStatus
	ClientID *int64
	Search   *string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type ListInvoicesRequest struct {
	Status   *billing.InvoiceStatus
	ClientID *int64
	Search   *string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
