package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturio/facturio/internal/billing"
)

type mockRepository struct {
	products       map[int64]*Product
	productsByCode map[string]*Product
	nextID         int64
	codeSeq        map[ProductType]int

	createError   error
	generateError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		products:       make(map[int64]*Product),
		productsByCode: make(map[string]*Product),
		codeSeq:        make(map[ProductType]int),
		nextID:         1,
	}
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepository) GetByCode(_ context.Context, code string) (*Product, error) {
	p, ok := m.productsByCode[code]
	if !ok {
		return nil, billing.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepository) List(_ context.Context, req ListProductsRequest) ([]Product, int, error) {
	var out []Product
	for _, p := range m.products {
		if req.Type != nil && p.Type != *req.Type {
			continue
		}
		if req.IsActive != nil && p.IsActive != *req.IsActive {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(_ context.Context, p Product) (int64, error) {
	if m.createError != nil {
		return 0, m.createError
	}
	p.ID = m.nextID
	m.nextID++
	m.products[p.ID] = &p
	m.productsByCode[p.Code] = &p
	return p.ID, nil
}

func (m *mockRepository) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	p, ok := m.products[id]
	if !ok {
		return billing.ErrNotFound
	}
	if name, ok := updates["name"].(string); ok {
		p.Name = name
	}
	if price, ok := updates["unit_price"].(float64); ok {
		p.UnitPrice = price
	}
	if active, ok := updates["is_active"].(bool); ok {
		p.IsActive = active
	}
	return nil
}

func (m *mockRepository) Deactivate(_ context.Context, id int64) error {
	p, ok := m.products[id]
	if !ok {
		return billing.ErrNotFound
	}
	p.IsActive = false
	return nil
}

func (m *mockRepository) GenerateCode(_ context.Context, productType ProductType) (string, error) {
	if m.generateError != nil {
		return "", m.generateError
	}
	m.codeSeq[productType]++
	return fmt.Sprintf("%s%03d", productType.CodePrefix(), m.codeSeq[productType]), nil
}

func TestCreateProductGeneratesTypedCode(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	software, err := svc.Create(context.Background(), CreateProductRequest{Name: "Odoo ERP", Type: TypeLogiciel, UnitPrice: 500000})
	require.NoError(t, err)
	assert.Equal(t, "PRDLOG001", software.Code)
	assert.True(t, software.IsActive)

	service, err := svc.Create(context.Background(), CreateProductRequest{Name: "Installation", Type: TypeService, UnitPrice: 75000})
	require.NoError(t, err)
	assert.Equal(t, "PRDSRV001", service.Code)

	hardware, err := svc.Create(context.Background(), CreateProductRequest{Name: "Routeur", Type: TypeMateriel, UnitPrice: 45000.499})
	require.NoError(t, err)
	assert.Equal(t, "PRDMAT001", hardware.Code)
	assert.Equal(t, 45000.5, hardware.UnitPrice)
}

func TestCreateProductInvalidType(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateProductRequest{Name: "Mystery", Type: "AUTRE"})
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrInvalidLineItemValue)
}

func TestCreateProductDuplicateCode(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateProductRequest{Name: "One", Type: TypeService, Code: "SRV-X"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateProductRequest{Name: "Two", Type: TypeService, Code: "SRV-X"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCodeTaken)
}

func TestUpdateProductRoundsPrice(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateProductRequest{Name: "Maintenance", Type: TypeService, UnitPrice: 100})
	require.NoError(t, err)

	price := 12345.678
	updated, err := svc.Update(context.Background(), created.ID, UpdateProductRequest{UnitPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, 12345.68, updated.UnitPrice)
}

func TestDeactivateProduct(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateProductRequest{Name: "Legacy", Type: TypeMateriel})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}
