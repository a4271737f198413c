package shares

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/facturio/facturio/internal/billing"
)

// DocumentSource verifies that a shared document exists.
type DocumentSource interface {
	GetProforma(ctx context.Context, id int64) (*billing.Proforma, error)
	GetInvoice(ctx context.Context, id int64) (*billing.Invoice, error)
}

type Service struct {
	repo      Repository
	documents DocumentSource
	baseURL   string
}

func NewService(repo Repository, documents DocumentSource, baseURL string) *Service {
	return &Service{repo: repo, documents: documents, baseURL: baseURL}
}

func (s *Service) Create(ctx context.Context, kind DocumentKind, documentID int64, req CreateShareRequest, createdBy int64) (*Share, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", billing.ErrNotFound, kind)
	}
	switch kind {
	case KindProforma:
		if _, err := s.documents.GetProforma(ctx, documentID); err != nil {
			return nil, err
		}
	case KindInvoice:
		if _, err := s.documents.GetInvoice(ctx, documentID); err != nil {
			return nil, err
		}
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate share token: %w", err)
	}

	expiryHours := ExpiryDefault
	if req.ExpiryHours != nil {
		expiryHours = *req.ExpiryHours
	}
	var expiresAt *time.Time
	if expiryHours > 0 {
		t := time.Now().Add(time.Duration(expiryHours) * time.Hour)
		expiresAt = &t
	}

	share := &Share{
		Token:          token,
		DocumentKind:   kind,
		DocumentID:     documentID,
		Type:           req.Type,
		Status:         StatusPending,
		RecipientEmail: req.RecipientEmail,
		RecipientPhone: req.RecipientPhone,
		RecipientName:  req.RecipientName,
		Subject:        req.Subject,
		Message:        req.Message,
		ExpiresAt:      expiresAt,
		CreatedBy:      createdBy,
	}
	if err := s.repo.Create(ctx, share); err != nil {
		return nil, fmt.Errorf("create share: %w", err)
	}
	return share, nil
}

// Resolve returns the share behind a token after checking revocation and
// expiry, and counts the view.
func (s *Service) Resolve(ctx context.Context, token string) (*Share, error) {
	share, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !share.IsUsable(time.Now()) {
		return nil, billing.ErrNotFound
	}
	if err := s.repo.RecordView(ctx, share.ID); err != nil {
		return nil, fmt.Errorf("record view: %w", err)
	}
	share.ViewCount++
	return share, nil
}

// ResolveForDownload is Resolve for the PDF endpoint: it bumps the download
// counter instead of the view counter.
func (s *Service) ResolveForDownload(ctx context.Context, token string) (*Share, error) {
	share, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !share.IsUsable(time.Now()) {
		return nil, billing.ErrNotFound
	}
	if err := s.repo.RecordDownload(ctx, share.ID); err != nil {
		return nil, fmt.Errorf("record download: %w", err)
	}
	share.DownloadCount++
	return share, nil
}

func (s *Service) Revoke(ctx context.Context, id int64) (*Share, error) {
	share, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if share.Status == StatusRevoked {
		return share, nil
	}
	share.Status = StatusRevoked
	if err := s.repo.Update(ctx, share); err != nil {
		return nil, fmt.Errorf("revoke share: %w", err)
	}
	return share, nil
}

// MarkSent records that the share left through its channel.
func (s *Service) MarkSent(ctx context.Context, id int64) error {
	share, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now()
	share.Status = StatusSent
	share.SentAt = &now
	return s.repo.Update(ctx, share)
}

func (s *Service) ListForDocument(ctx context.Context, kind DocumentKind, documentID int64) ([]Share, error) {
	return s.repo.ListForDocument(ctx, kind, documentID)
}

// PublicURL is the link a recipient opens.
func (s *Service) PublicURL(share *Share) string {
	return fmt.Sprintf("%s/share/%s", s.baseURL, share.Token)
}

// QRCode renders the public link as a PNG.
func (s *Service) QRCode(share *Share) ([]byte, error) {
	png, err := qrcode.Encode(s.PublicURL(share), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
