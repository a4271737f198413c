package shares

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturio/facturio/internal/billing"
)

type mockRepository struct {
	shares        map[int64]*Share
	sharesByToken map[string]*Share
	nextID        int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		shares:        make(map[int64]*Share),
		sharesByToken: make(map[string]*Share),
		nextID:        1,
	}
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Share, error) {
	s, ok := m.shares[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *mockRepository) GetByToken(_ context.Context, token string) (*Share, error) {
	s, ok := m.sharesByToken[token]
	if !ok {
		return nil, billing.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *mockRepository) ListForDocument(_ context.Context, kind DocumentKind, documentID int64) ([]Share, error) {
	var out []Share
	for _, s := range m.shares {
		if s.DocumentKind == kind && s.DocumentID == documentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockRepository) Create(_ context.Context, s *Share) error {
	s.ID = m.nextID
	m.nextID++
	copied := *s
	m.shares[s.ID] = &copied
	m.sharesByToken[s.Token] = &copied
	return nil
}

func (m *mockRepository) Update(_ context.Context, s *Share) error {
	stored, ok := m.shares[s.ID]
	if !ok {
		return billing.ErrNotFound
	}
	stored.Status = s.Status
	stored.SentAt = s.SentAt
	stored.OpenedAt = s.OpenedAt
	stored.ExpiresAt = s.ExpiresAt
	return nil
}

func (m *mockRepository) RecordView(_ context.Context, id int64) error {
	s, ok := m.shares[id]
	if !ok {
		return billing.ErrNotFound
	}
	s.ViewCount++
	now := time.Now()
	s.LastViewedAt = &now
	if s.OpenedAt == nil {
		s.OpenedAt = &now
	}
	if s.Status == StatusPending || s.Status == StatusSent {
		s.Status = StatusOpened
	}
	return nil
}

func (m *mockRepository) RecordDownload(_ context.Context, id int64) error {
	s, ok := m.shares[id]
	if !ok {
		return billing.ErrNotFound
	}
	s.DownloadCount++
	return nil
}

type mockDocuments struct {
	proformas map[int64]*billing.Proforma
	invoices  map[int64]*billing.Invoice
}

func (m *mockDocuments) GetProforma(_ context.Context, id int64) (*billing.Proforma, error) {
	p, ok := m.proformas[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	return p, nil
}

func (m *mockDocuments) GetInvoice(_ context.Context, id int64) (*billing.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	return inv, nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	docs := &mockDocuments{
		proformas: map[int64]*billing.Proforma{1: billing.NewProforma("PROV20260001", time.Now(), 30)},
		invoices:  map[int64]*billing.Invoice{2: billing.NewInvoice("FAC20260001", time.Now(), 30)},
	}
	return NewService(repo, docs, "https://facturio.example.cm"), repo
}

func TestCreateShareGeneratesToken(t *testing.T) {
	svc, _ := newTestService()

	share, err := svc.Create(context.Background(), KindProforma, 1, CreateShareRequest{Type: TypeLink}, 5)
	require.NoError(t, err)

	assert.Len(t, share.Token, 64)
	assert.Equal(t, StatusPending, share.Status)
	require.NotNil(t, share.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(168*time.Hour), *share.ExpiresAt, time.Minute)
	assert.Equal(t, "https://facturio.example.cm/share/"+share.Token, svc.PublicURL(share))

	second, err := svc.Create(context.Background(), KindProforma, 1, CreateShareRequest{Type: TypeLink}, 5)
	require.NoError(t, err)
	assert.NotEqual(t, share.Token, second.Token)
}

func TestCreateShareUnknownDocument(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), KindInvoice, 99, CreateShareRequest{Type: TypeLink}, 1)
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestCreateShareWithoutExpiry(t *testing.T) {
	svc, _ := newTestService()

	never := 0
	share, err := svc.Create(context.Background(), KindInvoice, 2, CreateShareRequest{Type: TypeLink, ExpiryHours: &never}, 1)
	require.NoError(t, err)
	assert.Nil(t, share.ExpiresAt)
	assert.False(t, share.IsExpired(time.Now().AddDate(10, 0, 0)))
}

func TestResolveCountsViews(t *testing.T) {
	svc, repo := newTestService()

	share, err := svc.Create(context.Background(), KindProforma, 1, CreateShareRequest{Type: TypeLink}, 1)
	require.NoError(t, err)

	resolved, err := svc.Resolve(context.Background(), share.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, resolved.ViewCount)

	_, err = svc.Resolve(context.Background(), share.Token)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.shares[share.ID].ViewCount)
	assert.Equal(t, StatusOpened, repo.shares[share.ID].Status)
}

func TestResolveExpiredToken(t *testing.T) {
	svc, repo := newTestService()

	share, err := svc.Create(context.Background(), KindProforma, 1, CreateShareRequest{Type: TypeLink}, 1)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	repo.shares[share.ID].ExpiresAt = &past
	repo.sharesByToken[share.Token].ExpiresAt = &past

	_, err = svc.Resolve(context.Background(), share.Token)
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestRevokedTokenStopsResolving(t *testing.T) {
	svc, _ := newTestService()

	share, err := svc.Create(context.Background(), KindProforma, 1, CreateShareRequest{Type: TypeLink}, 1)
	require.NoError(t, err)

	_, err = svc.Revoke(context.Background(), share.ID)
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), share.Token)
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestResolveForDownloadCountsDownloads(t *testing.T) {
	svc, repo := newTestService()

	share, err := svc.Create(context.Background(), KindInvoice, 2, CreateShareRequest{Type: TypeEmail}, 1)
	require.NoError(t, err)

	resolved, err := svc.ResolveForDownload(context.Background(), share.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, resolved.DownloadCount)
	assert.Zero(t, repo.shares[share.ID].ViewCount)
}

func TestQRCodeEncodesPublicURL(t *testing.T) {
	svc, _ := newTestService()

	share, err := svc.Create(context.Background(), KindProforma, 1, CreateShareRequest{Type: TypeLink}, 1)
	require.NoError(t, err)

	png, err := svc.QRCode(share)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
