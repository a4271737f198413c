// Package documents exposes the proforma and invoice services: creation and
// edits with recomputed totals, lifecycle transitions, reference allocation
// and the proforma to invoice conversion.
package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/catalog"
	"github.com/facturio/facturio/internal/sequence"
	"github.com/facturio/facturio/internal/settings"
)

// SettingsSource yields the company settings that drive defaults and
// reference formats.
type SettingsSource interface {
	Get(ctx context.Context) (*settings.CompanySettings, error)
}

// ProductSource resolves catalog products referenced by lines.
type ProductSource interface {
	Get(ctx context.Context, id int64) (*catalog.Product, error)
}

type ProformaService struct {
	repo     Repository
	settings SettingsSource
	products ProductSource
}

func NewProformaService(repo Repository, settings SettingsSource, products ProductSource) *ProformaService {
	return &ProformaService{repo: repo, settings: settings, products: products}
}

func (s *ProformaService) Create(ctx context.Context, req CreateProformaRequest, createdBy int64) (*billing.Proforma, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	issueDate := time.Now()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	validityDays := cfg.DefaultValidityDays
	if req.ValidityDays != nil {
		validityDays = *req.ValidityDays
	}

	p := billing.NewProforma("", issueDate, validityDays)
	p.ClientID = req.ClientID
	p.CreatedBy = createdBy
	p.Object = req.Object
	p.Notes = req.Notes
	p.TaxRate = cfg.DefaultTaxRate
	if req.TaxRate != nil {
		p.TaxRate = *req.TaxRate
	}
	p.Conditions = cfg.DefaultProformaConditions
	if req.Conditions != nil {
		p.Conditions = req.Conditions
	}

	items, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		p.AddItem(item)
	}
	p.CalculateTotals()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		reference, err := tx.AllocateReference(ctx, sequence.KindProforma, cfg.ProformaFormat(), issueDate)
		if err != nil {
			return err
		}
		p.Reference = reference
		if _, err := tx.InsertProforma(ctx, p); err != nil {
			return err
		}
		return tx.ReplaceProformaItems(ctx, p.ID, p.Items)
	})
	if err != nil {
		return nil, fmt.Errorf("create proforma: %w", err)
	}
	return p, nil
}

func (s *ProformaService) Update(ctx context.Context, id int64, req UpdateProformaRequest) (*billing.Proforma, error) {
	var updated *billing.Proforma
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetProformaForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !p.CanBeEdited() {
			return fmt.Errorf("%w: proforma %s is %s", billing.ErrIllegalTransition, p.Reference, p.Status)
		}

		if req.ClientID != nil {
			p.ClientID = *req.ClientID
		}
		if req.Object != nil {
			p.Object = req.Object
		}
		if req.Notes != nil {
			p.Notes = req.Notes
		}
		if req.Conditions != nil {
			p.Conditions = req.Conditions
		}
		if req.TaxRate != nil {
			p.TaxRate = *req.TaxRate
		}
		if req.IssueDate != nil {
			p.IssueDate = *req.IssueDate
		}
		if req.ValidUntil != nil {
			p.ValidUntil = *req.ValidUntil
		}
		if req.Items != nil {
			items, err := s.buildItems(ctx, *req.Items)
			if err != nil {
				return err
			}
			p.ClearItems()
			for _, item := range items {
				p.AddItem(item)
			}
			if err := tx.ReplaceProformaItems(ctx, p.ID, p.Items); err != nil {
				return err
			}
		}

		p.CalculateTotals()
		if err := tx.UpdateProforma(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ProformaService) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetProformaForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !p.CanBeDeleted() {
			return fmt.Errorf("%w: proforma %s already has an invoice", billing.ErrIllegalTransition, p.Reference)
		}
		return tx.DeleteProforma(ctx, id)
	})
}

func (s *ProformaService) Get(ctx context.Context, id int64) (*billing.Proforma, error) {
	return s.repo.GetProforma(ctx, id)
}

func (s *ProformaService) GetByReference(ctx context.Context, reference string) (*billing.Proforma, error) {
	return s.repo.GetProformaByReference(ctx, reference)
}

func (s *ProformaService) List(ctx context.Context, req ListProformasRequest) ([]billing.Proforma, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.ListProformas(ctx, req)
}

// Send marks the proforma as sent to the client.
func (s *ProformaService) Send(ctx context.Context, id int64) (*billing.Proforma, error) {
	return s.transition(ctx, id, func(p *billing.Proforma) error { return p.MarkSent() })
}

func (s *ProformaService) Accept(ctx context.Context, id int64) (*billing.Proforma, error) {
	return s.transition(ctx, id, func(p *billing.Proforma) error { return p.Accept() })
}

func (s *ProformaService) Refuse(ctx context.Context, id int64) (*billing.Proforma, error) {
	return s.transition(ctx, id, func(p *billing.Proforma) error { return p.Refuse() })
}

func (s *ProformaService) MarkExpired(ctx context.Context, id int64, now time.Time) (*billing.Proforma, error) {
	return s.transition(ctx, id, func(p *billing.Proforma) error { return p.Expire(now) })
}

// Duplicate creates a fresh draft copying the lines and header of an
// existing proforma under a newly allocated reference.
func (s *ProformaService) Duplicate(ctx context.Context, id int64, createdBy int64) (*billing.Proforma, error) {
	source, err := s.repo.GetProforma(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	now := time.Now()
	dup := billing.NewProforma("", now, cfg.DefaultValidityDays)
	dup.ClientID = source.ClientID
	dup.CreatedBy = createdBy
	dup.TaxRate = source.TaxRate
	dup.Object = clonePtr(source.Object)
	dup.Notes = clonePtr(source.Notes)
	dup.Conditions = clonePtr(source.Conditions)
	for _, item := range source.Items {
		dup.AddItem(item.Clone())
	}
	dup.CalculateTotals()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		reference, err := tx.AllocateReference(ctx, sequence.KindProforma, cfg.ProformaFormat(), now)
		if err != nil {
			return err
		}
		dup.Reference = reference
		if _, err := tx.InsertProforma(ctx, dup); err != nil {
			return err
		}
		return tx.ReplaceProformaItems(ctx, dup.ID, dup.Items)
	})
	if err != nil {
		return nil, fmt.Errorf("duplicate proforma: %w", err)
	}
	return dup, nil
}

// ExpireOutstanding flips every proforma past its validity window to
// EXPIRED. Invoked from the scheduled scan. Documents are processed
// independently: a candidate whose status changed since the query is
// skipped, and other failures do not stop the rest of the batch.
func (s *ProformaService) ExpireOutstanding(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.repo.ListExpiryCandidates(ctx, now)
	if err != nil {
		return 0, err
	}
	expired := 0
	var errs []error
	for _, id := range ids {
		_, err := s.MarkExpired(ctx, id, now)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, billing.ErrIllegalTransition), errors.Is(err, billing.ErrNotFound):
			// Stale candidate, already handled elsewhere.
		default:
			errs = append(errs, fmt.Errorf("expire proforma %d: %w", id, err))
		}
	}
	return expired, errors.Join(errs...)
}

func (s *ProformaService) transition(ctx context.Context, id int64, apply func(*billing.Proforma) error) (*billing.Proforma, error) {
	var result *billing.Proforma
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetProformaForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(p); err != nil {
			return err
		}
		if err := tx.UpdateProforma(ctx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// buildItems turns line inputs into computed line items, snapshotting the
// catalog designation and price when a product is referenced.
func (s *ProformaService) buildItems(ctx context.Context, inputs []LineItemInput) ([]*billing.LineItem, error) {
	return buildItems(ctx, s.products, inputs)
}

func buildItems(ctx context.Context, products ProductSource, inputs []LineItemInput) ([]*billing.LineItem, error) {
	items := make([]*billing.LineItem, 0, len(inputs))
	for idx, input := range inputs {
		designation := input.Designation
		unitPrice := 0.0
		unit := input.Unit

		if input.ProductID != nil {
			product, err := products.Get(ctx, *input.ProductID)
			if err != nil {
				return nil, fmt.Errorf("resolve product %d: %w", *input.ProductID, err)
			}
			if designation == "" {
				designation = product.Name
			}
			unitPrice = product.UnitPrice
			if unit == nil {
				unit = product.Unit
			}
		}
		if designation == "" {
			return nil, fmt.Errorf("%w: line %d has no designation", billing.ErrInvalidLineItemValue, idx+1)
		}
		if input.UnitPrice != nil {
			unitPrice = *input.UnitPrice
		}

		item := billing.NewLineItem(designation)
		item.ProductID = input.ProductID
		item.Description = input.Description
		item.Unit = unit
		item.SortOrder = idx

		quantity := input.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if err := item.SetQuantity(quantity); err != nil {
			return nil, err
		}
		if err := item.SetUnitPrice(unitPrice); err != nil {
			return nil, err
		}
		if err := item.SetDiscount(input.Discount); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	val := *s
	return &val
}
