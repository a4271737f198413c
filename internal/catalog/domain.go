// Package catalog manages the product and service offering referenced by
// document line items. Products carry a type (software, hardware, service)
// that drives both type-specific attributes and generated code prefixes.
package catalog

import "time"

type ProductType string

const (
	TypeLogiciel ProductType = "LOGICIEL"
	TypeMateriel ProductType = "MATERIEL"
	TypeService  ProductType = "SERVICE"
)

// CodePrefix returns the catalog code segment for the type, e.g. PRDLOG.
func (t ProductType) CodePrefix() string {
	switch t {
	case TypeLogiciel:
		return "PRDLOG"
	case TypeMateriel:
		return "PRDMAT"
	case TypeService:
		return "PRDSRV"
	default:
		return "PRD"
	}
}

func (t ProductType) Valid() bool {
	switch t {
	case TypeLogiciel, TypeMateriel, TypeService:
		return true
	}
	return false
}

type Product struct {
	ID              int64       `json:"id"`
	Code            string      `json:"code"`
	Name            string      `json:"name"`
	Type            ProductType `json:"type"`
	Description     *string     `json:"description,omitempty"`
	Characteristics *string     `json:"characteristics,omitempty"`
	UnitPrice       float64     `json:"unit_price"`
	Unit            *string     `json:"unit,omitempty"`

	// Software attributes.
	Version         *string `json:"version,omitempty"`
	LicenseType     *string `json:"license_type,omitempty"`
	LicenseDuration *int    `json:"license_duration,omitempty"`
	MaxUsers        *int    `json:"max_users,omitempty"`

	// Hardware attributes.
	Brand          *string `json:"brand,omitempty"`
	Model          *string `json:"model,omitempty"`
	WarrantyMonths *int    `json:"warranty_months,omitempty"`

	// Service attributes.
	DurationHours *int `json:"duration_hours,omitempty"`

	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type CreateProductRequest struct {
	Name            string      `json:"name" validate:"required,max=255"`
	Code            string      `json:"code" validate:"omitempty,max=50"`
	Type            ProductType `json:"type" validate:"required,oneof=LOGICIEL MATERIEL SERVICE"`
	Description     *string     `json:"description"`
	Characteristics *string     `json:"characteristics"`
	UnitPrice       float64     `json:"unit_price" validate:"gte=0"`
	Unit            *string     `json:"unit" validate:"omitempty,max=50"`
	Version         *string     `json:"version" validate:"omitempty,max=50"`
	LicenseType     *string     `json:"license_type" validate:"omitempty,max=100"`
	LicenseDuration *int        `json:"license_duration" validate:"omitempty,gt=0"`
	MaxUsers        *int        `json:"max_users" validate:"omitempty,gt=0"`
	Brand           *string     `json:"brand" validate:"omitempty,max=100"`
	Model           *string     `json:"model" validate:"omitempty,max=100"`
	WarrantyMonths  *int        `json:"warranty_months" validate:"omitempty,gte=0"`
	DurationHours   *int        `json:"duration_hours" validate:"omitempty,gt=0"`
}

type UpdateProductRequest struct {
	Name            *string  `json:"name" validate:"omitempty,max=255"`
	Description     *string  `json:"description"`
	Characteristics *string  `json:"characteristics"`
	UnitPrice       *float64 `json:"unit_price" validate:"omitempty,gte=0"`
	Unit            *string  `json:"unit" validate:"omitempty,max=50"`
	Version         *string  `json:"version" validate:"omitempty,max=50"`
	LicenseType     *string  `json:"license_type" validate:"omitempty,max=100"`
	LicenseDuration *int     `json:"license_duration" validate:"omitempty,gt=0"`
	MaxUsers        *int     `json:"max_users" validate:"omitempty,gt=0"`
	Brand           *string  `json:"brand" validate:"omitempty,max=100"`
	Model           *string  `json:"model" validate:"omitempty,max=100"`
	WarrantyMonths  *int     `json:"warranty_months" validate:"omitempty,gte=0"`
	DurationHours   *int     `json:"duration_hours" validate:"omitempty,gt=0"`
	IsActive        *bool    `json:"is_active"`
}

type ListProductsRequest struct {
	Search   *string
	Type     *ProductType
	IsActive *bool
	Limit    int
	Offset   int
}
