// Package templates manages reusable proforma templates. A template holds
// pre-filled lines and defaults; instantiating one creates a draft proforma
// for a chosen client and bumps the usage counter.
package templates

import "time"

type Category string

const (
	CategorySoftware Category = "software"
	CategoryHardware Category = "hardware"
	CategoryService  Category = "service"
	CategoryMixed    Category = "mixed"
)

func (c Category) Valid() bool {
	switch c {
	case CategorySoftware, CategoryHardware, CategoryService, CategoryMixed:
		return true
	}
	return false
}

type Template struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Code              *string        `json:"code,omitempty"`
	Description       *string        `json:"description,omitempty"`
	Category          Category       `json:"category"`
	BasePrice         float64        `json:"base_price"`
	DefaultObject     *string        `json:"default_object,omitempty"`
	DefaultNotes      *string        `json:"default_notes,omitempty"`
	DefaultConditions *string        `json:"default_conditions,omitempty"`
	ValidityDays      int            `json:"validity_days"`
	IsActive          bool           `json:"is_active"`
	UsageCount        int            `json:"usage_count"`
	CreatedBy         int64          `json:"created_by"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         *time.Time     `json:"updated_at,omitempty"`
	Items             []TemplateItem `json:"items,omitempty"`
}

type TemplateItem struct {
	ID          int64   `json:"id"`
	TemplateID  int64   `json:"template_id"`
	ProductID   *int64  `json:"product_id,omitempty"`
	Designation string  `json:"designation"`
	Description *string `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	Unit        *string `json:"unit,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
	Discount    float64 `json:"discount"`
	SortOrder   int     `json:"sort_order"`
	IsOptional  bool    `json:"is_optional"`
}

type TemplateItemInput struct {
	ProductID   *int64  `json:"product_id"`
	Designation string  `json:"designation" validate:"required,max=255"`
	Description *string `json:"description"`
	Quantity    float64 `json:"quantity" validate:"omitempty,gt=0"`
	Unit        *string `json:"unit" validate:"omitempty,max=50"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	Discount    float64 `json:"discount" validate:"gte=0,lte=100"`
	IsOptional  bool    `json:"is_optional"`
}

type CreateTemplateRequest struct {
	Name              string              `json:"name" validate:"required,max=255"`
	Code              *string             `json:"code" validate:"omitempty,max=50"`
	Description       *string             `json:"description"`
	Category          Category            `json:"category" validate:"required,oneof=software hardware service mixed"`
	DefaultObject     *string             `json:"default_object" validate:"omitempty,max=255"`
	DefaultNotes      *string             `json:"default_notes"`
	DefaultConditions *string             `json:"default_conditions"`
	ValidityDays      int                 `json:"validity_days" validate:"omitempty,gt=0,lte=365"`
	Items             []TemplateItemInput `json:"items" validate:"required,min=1,dive"`
}

type UpdateTemplateRequest struct {
	Name              *string              `json:"name" validate:"omitempty,max=255"`
	Code              *string              `json:"code" validate:"omitempty,max=50"`
	Description       *string              `json:"description"`
	Category          *Category            `json:"category" validate:"omitempty,oneof=software hardware service mixed"`
	DefaultObject     *string              `json:"default_object" validate:"omitempty,max=255"`
	DefaultNotes      *string              `json:"default_notes"`
	DefaultConditions *string              `json:"default_conditions"`
	ValidityDays      *int                 `json:"validity_days" validate:"omitempty,gt=0,lte=365"`
	IsActive          *bool                `json:"is_active"`
	Items             *[]TemplateItemInput `json:"items" validate:"omitempty,min=1,dive"`
}

type UseTemplateRequest struct {
	ClientID        int64 `json:"client_id" validate:"required,gt=0"`
	IncludeOptional bool  `json:"include_optional"`
}

type ListTemplatesRequest struct {
	Category *Category
	IsActive *bool
	Search   *string
	Limit    int
	Offset   int
}
