package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/facturio/facturio/internal/billing"
)

// ErrCodeTaken indicates a client code collision.
var ErrCodeTaken = errors.New("client code already exists")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateClientRequest, createdBy int64) (*Client, error) {
	code := req.Code
	if code == "" {
		generated, err := s.repo.GenerateCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate client code: %w", err)
		}
		code = generated
	} else {
		existing, err := s.repo.GetByCode(ctx, code)
		if err != nil && !errors.Is(err, billing.ErrNotFound) {
			return nil, fmt.Errorf("check existing client: %w", err)
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: %s", ErrCodeTaken, code)
		}
	}

	country := req.Country
	if country == "" {
		country = "Cameroun"
	}

	client := Client{
		Code:        code,
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		TaxID:       req.TaxID,
		Address:     req.Address,
		City:        req.City,
		Country:     country,
		IsActive:    true,
		Notes:       req.Notes,
		CreatedBy:   createdBy,
	}

	id, err := s.repo.Create(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	client.ID = id
	return &client, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateClientRequest) (*Client, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.ContactName != nil {
		updates["contact_name"] = *req.ContactName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.TaxID != nil {
		updates["tax_id"] = *req.TaxID
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}
