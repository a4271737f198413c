package documents

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/catalog"
	"github.com/facturio/facturio/internal/sequence"
	"github.com/facturio/facturio/internal/settings"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	proformas map[int64]*billing.Proforma
	invoices  map[int64]*billing.Invoice
	counters  map[string]int64
	nextID    int64

	txError error

	// Extra candidate ids returned by the scan queries, emulating documents
	// whose status changed between the query and the transition.
	staleExpiryCandidates  []int64
	staleOverdueCandidates []int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		proformas: make(map[int64]*billing.Proforma),
		invoices:  make(map[int64]*billing.Invoice),
		counters:  make(map[string]int64),
		nextID:    1,
	}
}

func (m *mockRepository) GetProforma(_ context.Context, id int64) (*billing.Proforma, error) {
	p, ok := m.proformas[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	return cloneProforma(p), nil
}

func (m *mockRepository) GetProformaByReference(_ context.Context, reference string) (*billing.Proforma, error) {
	for _, p := range m.proformas {
		if p.Reference == reference {
			return cloneProforma(p), nil
		}
	}
	return nil, billing.ErrNotFound
}

func (m *mockRepository) ListProformas(_ context.Context, req ListProformasRequest) ([]billing.Proforma, int, error) {
	var out []billing.Proforma
	for _, p := range m.proformas {
		if req.Status != nil && p.Status != *req.Status {
			continue
		}
		out = append(out, *cloneProforma(p))
	}
	return out, len(out), nil
}

func (m *mockRepository) ListExpiryCandidates(_ context.Context, at time.Time) ([]int64, error) {
	ids := append([]int64(nil), m.staleExpiryCandidates...)
	for id, p := range m.proformas {
		if p.Status == billing.ProformaStatusSent && p.ValidUntil.Before(at) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockRepository) GetInvoice(_ context.Context, id int64) (*billing.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	return cloneInvoice(inv), nil
}

func (m *mockRepository) GetInvoiceByReference(_ context.Context, reference string) (*billing.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.Reference == reference {
			return cloneInvoice(inv), nil
		}
	}
	return nil, billing.ErrNotFound
}

func (m *mockRepository) ListInvoices(_ context.Context, req ListInvoicesRequest) ([]billing.Invoice, int, error) {
	var out []billing.Invoice
	for _, inv := range m.invoices {
		if req.Status != nil && inv.Status != *req.Status {
			continue
		}
		out = append(out, *cloneInvoice(inv))
	}
	return out, len(out), nil
}

func (m *mockRepository) ListOverdueCandidates(_ context.Context, at time.Time) ([]int64, error) {
	ids := append([]int64(nil), m.staleOverdueCandidates...)
	for id, inv := range m.invoices {
		if (inv.Status == billing.InvoiceStatusSent || inv.Status == billing.InvoiceStatusPartial) && inv.DueDate.Before(at) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, &mockTxRepo{mock: m})
}

type mockTxRepo struct {
	mock *mockRepository
}

func (tx *mockTxRepo) AllocateReference(_ context.Context, kind sequence.Kind, f sequence.Format, at time.Time) (string, error) {
	period := ""
	if f.Yearly {
		period = at.Format("2006")
	}
	key := string(kind) + ":" + period
	tx.mock.counters[key]++
	return sequence.Render(f, period, tx.mock.counters[key]), nil
}

func (tx *mockTxRepo) GetProformaForUpdate(ctx context.Context, id int64) (*billing.Proforma, error) {
	return tx.mock.GetProforma(ctx, id)
}

func (tx *mockTxRepo) InsertProforma(_ context.Context, p *billing.Proforma) (int64, error) {
	p.ID = tx.mock.nextID
	tx.mock.nextID++
	tx.mock.proformas[p.ID] = cloneProforma(p)
	return p.ID, nil
}

func (tx *mockTxRepo) UpdateProforma(_ context.Context, p *billing.Proforma) error {
	if _, ok := tx.mock.proformas[p.ID]; !ok {
		return billing.ErrNotFound
	}
	tx.mock.proformas[p.ID] = cloneProforma(p)
	return nil
}

func (tx *mockTxRepo) DeleteProforma(_ context.Context, id int64) error {
	if _, ok := tx.mock.proformas[id]; !ok {
		return billing.ErrNotFound
	}
	delete(tx.mock.proformas, id)
	return nil
}

func (tx *mockTxRepo) ReplaceProformaItems(_ context.Context, proformaID int64, items []*billing.LineItem) error {
	p, ok := tx.mock.proformas[proformaID]
	if !ok {
		return billing.ErrNotFound
	}
	p.Items = cloneItems(items)
	return nil
}

func (tx *mockTxRepo) GetInvoiceForUpdate(ctx context.Context, id int64) (*billing.Invoice, error) {
	return tx.mock.GetInvoice(ctx, id)
}

func (tx *mockTxRepo) InsertInvoice(_ context.Context, inv *billing.Invoice) (int64, error) {
	inv.ID = tx.mock.nextID
	tx.mock.nextID++
	tx.mock.invoices[inv.ID] = cloneInvoice(inv)
	return inv.ID, nil
}

func (tx *mockTxRepo) UpdateInvoice(_ context.Context, inv *billing.Invoice) error {
	if _, ok := tx.mock.invoices[inv.ID]; !ok {
		return billing.ErrNotFound
	}
	tx.mock.invoices[inv.ID] = cloneInvoice(inv)
	return nil
}

func (tx *mockTxRepo) DeleteInvoice(_ context.Context, id int64) error {
	if _, ok := tx.mock.invoices[id]; !ok {
		return billing.ErrNotFound
	}
	delete(tx.mock.invoices, id)
	return nil
}

func (tx *mockTxRepo) ReplaceInvoiceItems(_ context.Context, invoiceID int64, items []*billing.LineItem) error {
	inv, ok := tx.mock.invoices[invoiceID]
	if !ok {
		return billing.ErrNotFound
	}
	inv.Items = cloneItems(items)
	return nil
}

func cloneProforma(p *billing.Proforma) *billing.Proforma {
	copied := *p
	copied.Items = cloneItems(p.Items)
	return &copied
}

func cloneInvoice(inv *billing.Invoice) *billing.Invoice {
	copied := *inv
	copied.Items = cloneItems(inv.Items)
	return &copied
}

func cloneItems(items []*billing.LineItem) []*billing.LineItem {
	out := make([]*billing.LineItem, 0, len(items))
	for _, item := range items {
		copied := *item
		copied.ID = item.ID
		out = append(out, &copied)
	}
	return out
}

// ============================================================================
// MOCK COLLABORATORS
// ============================================================================

type mockSettings struct {
	cfg settings.CompanySettings
}

func (m *mockSettings) Get(_ context.Context) (*settings.CompanySettings, error) {
	copied := m.cfg
	return &copied, nil
}

type mockProducts struct {
	products map[int64]*catalog.Product
}

func (m *mockProducts) Get(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

type testEnv struct {
	repo      *mockRepository
	proformas *ProformaService
	invoices  *InvoiceService
	products  *mockProducts
}

func newTestEnv() *testEnv {
	repo := newMockRepository()
	cfg := &mockSettings{cfg: settings.Defaults()}
	products := &mockProducts{products: make(map[int64]*catalog.Product)}
	return &testEnv{
		repo:      repo,
		proformas: NewProformaService(repo, cfg, products),
		invoices:  NewInvoiceService(repo, cfg, products),
		products:  products,
	}
}

func threeLineRequest() CreateProformaRequest {
	price1 := 100000.0
	price2 := 50000.0
	return CreateProformaRequest{
		ClientID: 1,
		Items: []LineItemInput{
			{Designation: "Licence serveur", Quantity: 2, UnitPrice: &price1},
			{Designation: "Formation", Quantity: 1, UnitPrice: &price2, Discount: 10},
		},
	}
}

// ============================================================================
// PROFORMA TESTS
// ============================================================================

func TestCreateProformaAllocatesReferenceAndTotals(t *testing.T) {
	env := newTestEnv()

	p, err := env.proformas.Create(context.Background(), threeLineRequest(), 1)
	require.NoError(t, err)

	year := time.Now().Format("2006")
	assert.Equal(t, fmt.Sprintf("PROV%s0001", year), p.Reference)
	assert.Equal(t, billing.ProformaStatusDraft, p.Status)
	assert.Equal(t, 19.25, p.TaxRate)
	assert.Equal(t, 245000.0, p.TotalHT)
	assert.Equal(t, 47162.5, p.TotalTVA)
	assert.Equal(t, 292162.5, p.TotalTTC)
	assert.Len(t, p.Items, 2)

	second, err := env.proformas.Create(context.Background(), threeLineRequest(), 1)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("PROV%s0002", year), second.Reference)
}

func TestCreateProformaSnapshotsProduct(t *testing.T) {
	env := newTestEnv()
	unit := "jour"
	env.products.products[42] = &catalog.Product{
		ID: 42, Name: "Audit réseau", UnitPrice: 150000, Unit: &unit, Type: catalog.TypeService,
	}

	productID := int64(42)
	req := CreateProformaRequest{
		ClientID: 3,
		Items:    []LineItemInput{{ProductID: &productID, Quantity: 3}},
	}

	p, err := env.proformas.Create(context.Background(), req, 1)
	require.NoError(t, err)

	require.Len(t, p.Items, 1)
	assert.Equal(t, "Audit réseau", p.Items[0].Designation)
	assert.Equal(t, 150000.0, p.Items[0].UnitPrice)
	assert.Equal(t, "jour", *p.Items[0].Unit)
	assert.Equal(t, 450000.0, p.TotalHT)
}

func TestCreateProformaUnknownProduct(t *testing.T) {
	env := newTestEnv()
	productID := int64(99)
	req := CreateProformaRequest{
		ClientID: 1,
		Items:    []LineItemInput{{ProductID: &productID}},
	}

	_, err := env.proformas.Create(context.Background(), req, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestUpdateProformaRecomputesTotals(t *testing.T) {
	env := newTestEnv()
	p, err := env.proformas.Create(context.Background(), threeLineRequest(), 1)
	require.NoError(t, err)

	price := 200000.0
	items := []LineItemInput{{Designation: "Nouveau poste", Quantity: 1, UnitPrice: &price}}
	updated, err := env.proformas.Update(context.Background(), p.ID, UpdateProformaRequest{Items: &items})
	require.NoError(t, err)

	assert.Equal(t, 200000.0, updated.TotalHT)
	assert.Equal(t, billing.Round2(200000*19.25/100), updated.TotalTVA)
	assert.Len(t, updated.Items, 1)
}

func TestUpdateProformaBlockedAfterAccept(t *testing.T) {
	env := newTestEnv()
	p, err := env.proformas.Create(context.Background(), threeLineRequest(), 1)
	require.NoError(t, err)

	_, err = env.proformas.Send(context.Background(), p.ID)
	require.NoError(t, err)
	_, err = env.proformas.Accept(context.Background(), p.ID)
	require.NoError(t, err)

	object := "trop tard"
	_, err = env.proformas.Update(context.Background(), p.ID, UpdateProformaRequest{Object: &object})
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)
}

func TestProformaLifecycle(t *testing.T) {
	env := newTestEnv()
	p, err := env.proformas.Create(context.Background(), threeLineRequest(), 1)
	require.NoError(t, err)

	sent, err := env.proformas.Send(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.ProformaStatusSent, sent.Status)

	refused, err := env.proformas.Refuse(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.ProformaStatusRefused, refused.Status)

	// A refused proforma cannot be accepted afterwards.
	_, err = env.proformas.Accept(context.Background(), p.ID)
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)
}

func TestDuplicateProforma(t *testing.T) {
	env := newTestEnv()
	p, err := env.proformas.Create(context.Background(), threeLineRequest(), 1)
	require.NoError(t, err)
	_, err = env.proformas.Send(context.Background(), p.ID)
	require.NoError(t, err)

	dup, err := env.proformas.Duplicate(context.Background(), p.ID, 2)
	require.NoError(t, err)

	assert.NotEqual(t, p.Reference, dup.Reference)
	assert.Equal(t, billing.ProformaStatusDraft, dup.Status)
	assert.Equal(t, p.TotalTTC, dup.TotalTTC)
	assert.Equal(t, int64(2), dup.CreatedBy)
	assert.Len(t, dup.Items, len(p.Items))
}

func TestExpireOutstanding(t *testing.T) {
	env := newTestEnv()
	validity := 10
	req := threeLineRequest()
	req.ValidityDays = &validity

	p, err := env.proformas.Create(context.Background(), req, 1)
	require.NoError(t, err)
	_, err = env.proformas.Send(context.Background(), p.ID)
	require.NoError(t, err)

	// Still valid: nothing flips.
	count, err := env.proformas.ExpireOutstanding(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = env.proformas.ExpireOutstanding(context.Background(), time.Now().AddDate(0, 0, 11))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := env.proformas.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.ProformaStatusExpired, got.Status)
}

func TestExpireOutstandingSkipsStaleCandidates(t *testing.T) {
	env := newTestEnv()
	validity := 10
	req := threeLineRequest()
	req.ValidityDays = &validity

	accepted, err := env.proformas.Create(context.Background(), req, 1)
	require.NoError(t, err)
	_, err = env.proformas.Send(context.Background(), accepted.ID)
	require.NoError(t, err)
	_, err = env.proformas.Accept(context.Background(), accepted.ID)
	require.NoError(t, err)

	eligible, err := env.proformas.Create(context.Background(), req, 1)
	require.NoError(t, err)
	_, err = env.proformas.Send(context.Background(), eligible.ID)
	require.NoError(t, err)

	// Candidates that changed status or disappeared after the query, listed
	// first so the eligible one comes after them.
	env.repo.staleExpiryCandidates = []int64{accepted.ID, 999}

	count, err := env.proformas.ExpireOutstanding(context.Background(), time.Now().AddDate(0, 0, 11))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := env.proformas.Get(context.Background(), eligible.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.ProformaStatusExpired, got.Status)

	got, err = env.proformas.Get(context.Background(), accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.ProformaStatusAccepted, got.Status)
}

// ============================================================================
// CONVERSION TESTS
// ============================================================================

func TestConvertProformaCreatesLinkedInvoice(t *testing.T) {
	env := newTestEnv()
	p, err := env.proformas.Create(context.Background(), threeLineRequest(), 1)
	require.NoError(t, err)
	_, err = env.proformas.Send(context.Background(), p.ID)
	require.NoError(t, err)
	_, err = env.proformas.Accept(context.Background(), p.ID)
	require.NoError(t, err)

	inv, err := env.invoices.ConvertFromProforma(context.Background(), p.ID, 1)
	require.NoError(t, err)

	year := time.Now().Format("2006")
	assert.Equal(t, fmt.Sprintf("FAC%s0001", year), inv.Reference)
	assert.Equal(t, billing.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, p.TotalTTC, inv.TotalTTC)
	assert.Len(t, inv.Items, len(p.Items))
	require.NotNil(t, inv.ProformaID)
	assert.Equal(t, p.ID, *inv.ProformaID)

	source, err := env.proformas.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.ProformaStatusInvoiced, source.Status)
	require.NotNil(t, source.InvoiceID)
	assert.Equal(t, inv.ID, *source.InvoiceID)
}

func TestConvertProformaTwiceFails(t *testing.T) {
	env := newTestEnv()
	p, err := env.proformas.Create(context.Background(), threeLineRequest(), 1)
	require.NoError(t, err)

	_, err = env.invoices.ConvertFromProforma(context.Background(), p.ID, 1)
	require.NoError(t, err)

	_, err = env.invoices.ConvertFromProforma(context.Background(), p.ID, 1)
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)

	// The failed second attempt must not leave a second invoice behind.
	_, total, err := env.invoices.List(context.Background(), ListInvoicesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestConvertRefusedProformaFails(t *testing.T) {
	env := newTestEnv()
	p, err := env.proformas.Create(context.Background(), threeLineRequest(), 1)
	require.NoError(t, err)
	_, err = env.proformas.Send(context.Background(), p.ID)
	require.NoError(t, err)
	_, err = env.proformas.Refuse(context.Background(), p.ID)
	require.NoError(t, err)

	_, err = env.invoices.ConvertFromProforma(context.Background(), p.ID, 1)
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)
}

func TestDeleteInvoiceRestoresProforma(t *testing.T) {
	env := newTestEnv()
	p, err := env.proformas.Create(context.Background(), threeLineRequest(), 1)
	require.NoError(t, err)

	inv, err := env.invoices.ConvertFromProforma(context.Background(), p.ID, 1)
	require.NoError(t, err)

	require.NoError(t, env.invoices.Delete(context.Background(), inv.ID))

	source, err := env.proformas.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.ProformaStatusAccepted, source.Status)
	assert.Nil(t, source.InvoiceID)
}

// ============================================================================
// INVOICE TESTS
// ============================================================================

func createSentInvoice(t *testing.T, env *testEnv) *billing.Invoice {
	t.Helper()
	price := 100000.0
	inv, err := env.invoices.Create(context.Background(), CreateInvoiceRequest{
		ClientID: 1,
		Items:    []LineItemInput{{Designation: "Prestation", Quantity: 1, UnitPrice: &price}},
	}, 1)
	require.NoError(t, err)
	sent, err := env.invoices.Send(context.Background(), inv.ID)
	require.NoError(t, err)
	return sent
}

func TestInvoicePaymentFlow(t *testing.T) {
	env := newTestEnv()
	inv := createSentInvoice(t, env)
	assert.Equal(t, 119250.0, inv.TotalTTC)

	method := "virement"
	partial, err := env.invoices.AddPayment(context.Background(), inv.ID, PaymentRequest{Amount: 60000, Method: &method})
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPartial, partial.Status)
	assert.Equal(t, 60000.0, partial.AmountPaid)
	assert.Equal(t, 59250.0, partial.AmountDue())

	paid, err := env.invoices.AddPayment(context.Background(), inv.ID, PaymentRequest{Amount: 59250})
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)
	assert.Equal(t, "virement", *paid.PaymentMethod)
}

func TestInvoiceOverpaymentKeepsLiteralAmount(t *testing.T) {
	env := newTestEnv()
	inv := createSentInvoice(t, env)

	paid, err := env.invoices.AddPayment(context.Background(), inv.ID, PaymentRequest{Amount: 150000})
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, paid.Status)
	assert.Equal(t, 150000.0, paid.AmountPaid)
	assert.Equal(t, billing.Round2(119250-150000), paid.AmountDue())
}

func TestMarkPaidSettlesFullAmount(t *testing.T) {
	env := newTestEnv()
	inv := createSentInvoice(t, env)

	_, err := env.invoices.AddPayment(context.Background(), inv.ID, PaymentRequest{Amount: 10000})
	require.NoError(t, err)

	paid, err := env.invoices.MarkPaid(context.Background(), inv.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, paid.Status)
	assert.Equal(t, paid.TotalTTC, paid.AmountPaid)
}

func TestCancelPaidInvoiceFails(t *testing.T) {
	env := newTestEnv()
	inv := createSentInvoice(t, env)

	_, err := env.invoices.MarkPaid(context.Background(), inv.ID, time.Now())
	require.NoError(t, err)

	_, err = env.invoices.Cancel(context.Background(), inv.ID)
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)
}

func TestDeletePaidInvoiceFails(t *testing.T) {
	env := newTestEnv()
	inv := createSentInvoice(t, env)

	_, err := env.invoices.MarkPaid(context.Background(), inv.ID, time.Now())
	require.NoError(t, err)

	err = env.invoices.Delete(context.Background(), inv.ID)
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)
}

func TestMarkOverdueOutstanding(t *testing.T) {
	env := newTestEnv()
	inv := createSentInvoice(t, env)

	count, err := env.invoices.MarkOverdueOutstanding(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, count)

	future := time.Now().AddDate(0, 0, 31)
	count, err = env.invoices.MarkOverdueOutstanding(context.Background(), future)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := env.invoices.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusOverdue, got.Status)

	// An overdue invoice still accepts payments.
	paid, err := env.invoices.AddPayment(context.Background(), inv.ID, PaymentRequest{Amount: got.TotalTTC})
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, paid.Status)
}

func TestMarkOverdueOutstandingSkipsStaleCandidates(t *testing.T) {
	env := newTestEnv()

	settled := createSentInvoice(t, env)
	_, err := env.invoices.MarkPaid(context.Background(), settled.ID, time.Now())
	require.NoError(t, err)

	eligible := createSentInvoice(t, env)

	env.repo.staleOverdueCandidates = []int64{settled.ID, 999}

	count, err := env.invoices.MarkOverdueOutstanding(context.Background(), time.Now().AddDate(0, 0, 31))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := env.invoices.Get(context.Background(), eligible.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusOverdue, got.Status)

	got, err = env.invoices.Get(context.Background(), settled.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, got.Status)
}

func TestUpdateInvoiceBlockedAfterSend(t *testing.T) {
	env := newTestEnv()
	inv := createSentInvoice(t, env)

	object := "modif"
	_, err := env.invoices.Update(context.Background(), inv.ID, UpdateInvoiceRequest{Object: &object})
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)
}

func TestCreateInvoiceDueDate(t *testing.T) {
	env := newTestEnv()
	issue := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	days := 15
	price := 1000.0

	inv, err := env.invoices.Create(context.Background(), CreateInvoiceRequest{
		ClientID:    1,
		IssueDate:   &issue,
		PaymentDays: &days,
		Items:       []LineItemInput{{Designation: "Ligne", UnitPrice: &price}},
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), inv.DueDate)
	year := issue.Format("2006")
	assert.Equal(t, fmt.Sprintf("FAC%s0001", year), inv.Reference)
}
