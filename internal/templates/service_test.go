package templates

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/documents"
)

type mockRepository struct {
	templates map[int64]*Template
	nextID    int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{templates: make(map[int64]*Template), nextID: 1}
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Template, error) {
	tpl, ok := m.templates[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	copied := *tpl
	copied.Items = append([]TemplateItem(nil), tpl.Items...)
	return &copied, nil
}

func (m *mockRepository) List(_ context.Context, req ListTemplatesRequest) ([]Template, int, error) {
	var out []Template
	for _, tpl := range m.templates {
		if req.Category != nil && tpl.Category != *req.Category {
			continue
		}
		out = append(out, *tpl)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(_ context.Context, tpl *Template) error {
	tpl.ID = m.nextID
	m.nextID++
	copied := *tpl
	m.templates[tpl.ID] = &copied
	return nil
}

func (m *mockRepository) Update(_ context.Context, tpl *Template) error {
	if _, ok := m.templates[tpl.ID]; !ok {
		return billing.ErrNotFound
	}
	copied := *tpl
	m.templates[tpl.ID] = &copied
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.templates[id]; !ok {
		return billing.ErrNotFound
	}
	delete(m.templates, id)
	return nil
}

func (m *mockRepository) IncrementUsage(_ context.Context, id int64) error {
	tpl, ok := m.templates[id]
	if !ok {
		return billing.ErrNotFound
	}
	tpl.UsageCount++
	return nil
}

type mockProformaCreator struct {
	lastRequest  *documents.CreateProformaRequest
	lastCreator  int64
	returnedItem *billing.Proforma
}

func (m *mockProformaCreator) Create(_ context.Context, req documents.CreateProformaRequest, createdBy int64) (*billing.Proforma, error) {
	m.lastRequest = &req
	m.lastCreator = createdBy
	p := billing.NewProforma("PROV20260001", time.Now(), 30)
	p.ID = 100
	p.ClientID = req.ClientID
	m.returnedItem = p
	return p, nil
}

func maintenanceTemplate() CreateTemplateRequest {
	return CreateTemplateRequest{
		Name:     "Contrat maintenance annuel",
		Category: CategoryService,
		Items: []TemplateItemInput{
			{Designation: "Maintenance préventive", Quantity: 12, UnitPrice: 50000},
			{Designation: "Astreinte week-end", Quantity: 1, UnitPrice: 200000, IsOptional: true},
		},
	}
}

func TestCreateTemplateComputesBasePrice(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockProformaCreator{})

	tpl, err := svc.Create(context.Background(), maintenanceTemplate(), 1)
	require.NoError(t, err)

	// Optional lines are excluded from the indicative price.
	assert.Equal(t, 600000.0, tpl.BasePrice)
	assert.Equal(t, 30, tpl.ValidityDays)
	assert.True(t, tpl.IsActive)
	assert.Len(t, tpl.Items, 2)
}

func TestInstantiateSkipsOptionalLines(t *testing.T) {
	repo := newMockRepository()
	creator := &mockProformaCreator{}
	svc := NewService(repo, creator)

	tpl, err := svc.Create(context.Background(), maintenanceTemplate(), 1)
	require.NoError(t, err)

	p, err := svc.Instantiate(context.Background(), tpl.ID, UseTemplateRequest{ClientID: 7}, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ClientID)

	require.NotNil(t, creator.lastRequest)
	assert.Len(t, creator.lastRequest.Items, 1)
	assert.Equal(t, "Maintenance préventive", creator.lastRequest.Items[0].Designation)
	assert.Equal(t, int64(2), creator.lastCreator)

	stored, err := svc.Get(context.Background(), tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsageCount)
}

func TestInstantiateIncludesOptionalLines(t *testing.T) {
	repo := newMockRepository()
	creator := &mockProformaCreator{}
	svc := NewService(repo, creator)

	tpl, err := svc.Create(context.Background(), maintenanceTemplate(), 1)
	require.NoError(t, err)

	_, err = svc.Instantiate(context.Background(), tpl.ID, UseTemplateRequest{ClientID: 7, IncludeOptional: true}, 1)
	require.NoError(t, err)
	assert.Len(t, creator.lastRequest.Items, 2)
}

func TestInstantiateInactiveTemplate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockProformaCreator{})

	tpl, err := svc.Create(context.Background(), maintenanceTemplate(), 1)
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(context.Background(), tpl.ID, UpdateTemplateRequest{IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.Instantiate(context.Background(), tpl.ID, UseTemplateRequest{ClientID: 7}, 1)
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)
}

func TestUpdateTemplateReplacesItems(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockProformaCreator{})

	tpl, err := svc.Create(context.Background(), maintenanceTemplate(), 1)
	require.NoError(t, err)

	items := []TemplateItemInput{{Designation: "Forfait unique", Quantity: 1, UnitPrice: 100000}}
	updated, err := svc.Update(context.Background(), tpl.ID, UpdateTemplateRequest{Items: &items})
	require.NoError(t, err)

	assert.Len(t, updated.Items, 1)
	assert.Equal(t, 100000.0, updated.BasePrice)
}
