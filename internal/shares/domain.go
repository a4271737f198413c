// Package shares issues public links for documents. A share carries a random
// token, an optional expiry, view and download counters and a QR code so a
// client can open the document without an account.
package shares

import "time"

type ShareType string

const (
	TypeEmail    ShareType = "email"
	TypeWhatsApp ShareType = "whatsapp"
	TypeLink     ShareType = "link"
)

func (t ShareType) Valid() bool {
	switch t {
	case TypeEmail, TypeWhatsApp, TypeLink:
		return true
	}
	return false
}

type ShareStatus string

const (
	StatusPending ShareStatus = "pending"
	StatusSent    ShareStatus = "sent"
	StatusOpened  ShareStatus = "opened"
	StatusFailed  ShareStatus = "failed"
	StatusRevoked ShareStatus = "revoked"
)

// DocumentKind selects the shared document table.
type DocumentKind string

const (
	KindProforma DocumentKind = "proforma"
	KindInvoice  DocumentKind = "invoice"
)

func (k DocumentKind) Valid() bool {
	return k == KindProforma || k == KindInvoice
}

// ExpiryHours values offered by the UI; zero means the link never expires.
const (
	Expiry24H     = 24
	Expiry48H     = 48
	Expiry7D      = 168
	Expiry30D     = 720
	ExpiryDefault = Expiry7D
)

type Share struct {
	ID             int64        `json:"id"`
	Token          string       `json:"token"`
	DocumentKind   DocumentKind `json:"document_kind"`
	DocumentID     int64        `json:"document_id"`
	Type           ShareType    `json:"type"`
	Status         ShareStatus  `json:"status"`
	RecipientEmail *string      `json:"recipient_email,omitempty"`
	RecipientPhone *string      `json:"recipient_phone,omitempty"`
	RecipientName  *string      `json:"recipient_name,omitempty"`
	Subject        *string      `json:"subject,omitempty"`
	Message        *string      `json:"message,omitempty"`
	ViewCount      int          `json:"view_count"`
	DownloadCount  int          `json:"download_count"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
	SentAt         *time.Time   `json:"sent_at,omitempty"`
	OpenedAt       *time.Time   `json:"opened_at,omitempty"`
	LastViewedAt   *time.Time   `json:"last_viewed_at,omitempty"`
	CreatedBy      int64        `json:"created_by"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      *time.Time   `json:"updated_at,omitempty"`
}

// IsExpired reports whether the link passed its expiry. Links without an
// expiry never expire.
func (s *Share) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// IsUsable reports whether the link still resolves.
func (s *Share) IsUsable(now time.Time) bool {
	return s.Status != StatusRevoked && !s.IsExpired(now)
}

type CreateShareRequest struct {
	Type           ShareType `json:"type" validate:"required,oneof=email whatsapp link"`
	RecipientEmail *string   `json:"recipient_email" validate:"omitempty,email"`
	RecipientPhone *string   `json:"recipient_phone" validate:"omitempty,max=20"`
	RecipientName  *string   `json:"recipient_name" validate:"omitempty,max=100"`
	Subject        *string   `json:"subject" validate:"omitempty,max=255"`
	Message        *string   `json:"message"`
	ExpiryHours    *int      `json:"expiry_hours" validate:"omitempty,gte=0,lte=8760"`
}
