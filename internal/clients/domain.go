// Package clients manages the client directory documents are billed to.
package clients

import "time"

// Client is a billed customer.
type Client struct {
	ID         int64     `json:"id" db:"id"`
	Code       string    `json:"code" db:"code"`
	Name       string    `json:"name" db:"name"`
	ContactName *string  `json:"contact_name,omitempty" db:"contact_name"`
	Email      *string   `json:"email,omitempty" db:"email"`
	Phone      *string   `json:"phone,omitempty" db:"phone"`
	TaxID      *string   `json:"tax_id,omitempty" db:"tax_id"`
	Address    *string   `json:"address,omitempty" db:"address"`
	City       *string   `json:"city,omitempty" db:"city"`
	Country    string    `json:"country" db:"country"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	Notes      *string   `json:"notes,omitempty" db:"notes"`
	CreatedBy  int64     `json:"created_by" db:"created_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// CreateClientRequest carries the fields accepted on creation. The code is
// allocated automatically when left empty.
type CreateClientRequest struct {
	Code        string  `json:"code" validate:"omitempty,max=20"`
	Name        string  `json:"name" validate:"required,max=200"`
	ContactName *string `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	TaxID       *string `json:"tax_id,omitempty" validate:"omitempty,max=100"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country     string  `json:"country" validate:"omitempty,max=100"`
	Notes       *string `json:"notes,omitempty"`
}

// UpdateClientRequest carries optional field updates.
type UpdateClientRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	ContactName *string `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	TaxID       *string `json:"tax_id,omitempty" validate:"omitempty,max=100"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country     *string `json:"country,omitempty" validate:"omitempty,max=100"`
	IsActive    *bool   `json:"is_active,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// ListClientsRequest filters and paginates the directory.
type ListClientsRequest struct {
	Search   *string `json:"search,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
