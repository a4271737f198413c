package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/facturio/facturio/internal/billing"
)

// ErrCodeTaken indicates a product code collision.
var ErrCodeTaken = errors.New("product code already exists")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown product type %q", billing.ErrInvalidLineItemValue, req.Type)
	}

	code := req.Code
	if code == "" {
		generated, err := s.repo.GenerateCode(ctx, req.Type)
		if err != nil {
			return nil, fmt.Errorf("generate product code: %w", err)
		}
		code = generated
	} else {
		existing, err := s.repo.GetByCode(ctx, code)
		if err != nil && !errors.Is(err, billing.ErrNotFound) {
			return nil, fmt.Errorf("check existing product: %w", err)
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: %s", ErrCodeTaken, code)
		}
	}

	product := Product{
		Code:            code,
		Name:            req.Name,
		Type:            req.Type,
		Description:     req.Description,
		Characteristics: req.Characteristics,
		UnitPrice:       billing.Round2(req.UnitPrice),
		Unit:            req.Unit,
		Version:         req.Version,
		LicenseType:     req.LicenseType,
		LicenseDuration: req.LicenseDuration,
		MaxUsers:        req.MaxUsers,
		Brand:           req.Brand,
		Model:           req.Model,
		WarrantyMonths:  req.WarrantyMonths,
		DurationHours:   req.DurationHours,
		IsActive:        true,
	}

	id, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	product.ID = id
	return &product, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) (*Product, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Characteristics != nil {
		updates["characteristics"] = *req.Characteristics
	}
	if req.UnitPrice != nil {
		updates["unit_price"] = billing.Round2(*req.UnitPrice)
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	if req.Version != nil {
		updates["version"] = *req.Version
	}
	if req.LicenseType != nil {
		updates["license_type"] = *req.LicenseType
	}
	if req.LicenseDuration != nil {
		updates["license_duration"] = *req.LicenseDuration
	}
	if req.MaxUsers != nil {
		updates["max_users"] = *req.MaxUsers
	}
	if req.Brand != nil {
		updates["brand"] = *req.Brand
	}
	if req.Model != nil {
		updates["model"] = *req.Model
	}
	if req.WarrantyMonths != nil {
		updates["warranty_months"] = *req.WarrantyMonths
	}
	if req.DurationHours != nil {
		updates["duration_hours"] = *req.DurationHours
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}
