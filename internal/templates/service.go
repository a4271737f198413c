package templates

import (
	"context"
	"fmt"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/documents"
)

// ProformaCreator turns an instantiated template into a draft proforma.
// Implemented by the documents proforma service.
type ProformaCreator interface {
	Create(ctx context.Context, req documents.CreateProformaRequest, createdBy int64) (*billing.Proforma, error)
}

type Service struct {
	repo      Repository
	proformas ProformaCreator
}

func NewService(repo Repository, proformas ProformaCreator) *Service {
	return &Service{repo: repo, proformas: proformas}
}

func (s *Service) Create(ctx context.Context, req CreateTemplateRequest, createdBy int64) (*Template, error) {
	validityDays := req.ValidityDays
	if validityDays == 0 {
		validityDays = 30
	}

	tpl := &Template{
		Name:              req.Name,
		Code:              req.Code,
		Description:       req.Description,
		Category:          req.Category,
		DefaultObject:     req.DefaultObject,
		DefaultNotes:      req.DefaultNotes,
		DefaultConditions: req.DefaultConditions,
		ValidityDays:      validityDays,
		IsActive:          true,
		CreatedBy:         createdBy,
		Items:             buildTemplateItems(req.Items),
	}
	tpl.BasePrice = basePrice(tpl.Items)

	if err := s.repo.Create(ctx, tpl); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return tpl, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateTemplateRequest) (*Template, error) {
	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

	if req.Name != nil {
		tpl.Name = *req.Name
	}
	if req.Code != nil {
		tpl.Code = req.Code
	}
	if req.Description != nil {
		tpl.Description = req.Description
	}
	if req.Category != nil {
		tpl.Category = *req.Category
	}
	if req.DefaultObject != nil {
		tpl.DefaultObject = req.DefaultObject
	}
	if req.DefaultNotes != nil {
		tpl.DefaultNotes = req.DefaultNotes
	}
	if req.DefaultConditions != nil {
		tpl.DefaultConditions = req.DefaultConditions
	}
	if req.ValidityDays != nil {
		tpl.ValidityDays = *req.ValidityDays
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}
	if req.Items != nil {
		tpl.Items = buildTemplateItems(*req.Items)
	}
	tpl.BasePrice = basePrice(tpl.Items)

	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return tpl, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Template, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListTemplatesRequest) ([]Template, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// Instantiate creates a draft proforma for the client from the template
// lines and bumps the usage counter. Optional lines are skipped unless
// requested.
func (s *Service) Instantiate(ctx context.Context, id int64, req UseTemplateRequest, createdBy int64) (*billing.Proforma, error) {
	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if !tpl.IsActive {
		return nil, fmt.Errorf("%w: template %s is inactive", billing.ErrIllegalTransition, tpl.Name)
	}

	var lines []documents.LineItemInput
	for _, item := range tpl.Items {
		if item.IsOptional && !req.IncludeOptional {
			continue
		}
		unitPrice := item.UnitPrice
		lines = append(lines, documents.LineItemInput{
			ProductID:   item.ProductID,
			Designation: item.Designation,
			Description: item.Description,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
			UnitPrice:   &unitPrice,
			Discount:    item.Discount,
		})
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: template %s has no applicable lines", billing.ErrInvalidLineItemValue, tpl.Name)
	}

	proforma, err := s.proformas.Create(ctx, documents.CreateProformaRequest{
		ClientID:     req.ClientID,
		Object:       tpl.DefaultObject,
		Notes:        tpl.DefaultNotes,
		Conditions:   tpl.DefaultConditions,
		ValidityDays: &tpl.ValidityDays,
		Items:        lines,
	}, createdBy)
	if err != nil {
		return nil, fmt.Errorf("instantiate template: %w", err)
	}

	if err := s.repo.IncrementUsage(ctx, id); err != nil {
		return nil, fmt.Errorf("record template usage: %w", err)
	}
	return proforma, nil
}

func buildTemplateItems(inputs []TemplateItemInput) []TemplateItem {
	items := make([]TemplateItem, 0, len(inputs))
	for idx, input := range inputs {
		quantity := input.Quantity
		if quantity == 0 {
			quantity = 1
		}
		items = append(items, TemplateItem{
			ProductID:   input.ProductID,
			Designation: input.Designation,
			Description: input.Description,
			Quantity:    quantity,
			Unit:        input.Unit,
			UnitPrice:   billing.Round2(input.UnitPrice),
			Discount:    input.Discount,
			SortOrder:   idx,
			IsOptional:  input.IsOptional,
		})
	}
	return items
}

// basePrice is the indicative total of the required lines before tax.
func basePrice(items []TemplateItem) float64 {
	var total float64
	for _, item := range items {
		if item.IsOptional {
			continue
		}
		gross := item.Quantity * item.UnitPrice
		total += billing.Round2(gross - gross*(item.Discount/100))
	}
	return billing.Round2(total)
}
