package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/sequence"
)

type InvoiceService struct {
	repo     Repository
	settings SettingsSource
	products ProductSource
}

func NewInvoiceService(repo Repository, settings SettingsSource, products ProductSource) *InvoiceService {
	return &InvoiceService{repo: repo, settings: settings, products: products}
}

func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest, createdBy int64) (*billing.Invoice, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	issueDate := time.Now()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	paymentDays := cfg.DefaultPaymentDays
	if req.PaymentDays != nil {
		paymentDays = *req.PaymentDays
	}

	inv := billing.NewInvoice("", issueDate, paymentDays)
	inv.ClientID = req.ClientID
	inv.CreatedBy = createdBy
	inv.Object = req.Object
	inv.Notes = req.Notes
	inv.TaxRate = cfg.DefaultTaxRate
	if req.TaxRate != nil {
		inv.TaxRate = *req.TaxRate
	}
	inv.Conditions = cfg.DefaultInvoiceConditions
	if req.Conditions != nil {
		inv.Conditions = req.Conditions
	}

	items, err := buildItems(ctx, s.products, req.Items)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		inv.AddItem(item)
	}
	inv.CalculateTotals()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		reference, err := tx.AllocateReference(ctx, sequence.KindInvoice, cfg.InvoiceFormat(), issueDate)
		if err != nil {
			return err
		}
		inv.Reference = reference
		if _, err := tx.InsertInvoice(ctx, inv); err != nil {
			return err
		}
		return tx.ReplaceInvoiceItems(ctx, inv.ID, inv.Items)
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

func (s *InvoiceService) Update(ctx context.Context, id int64, req UpdateInvoiceRequest) (*billing.Invoice, error) {
	var updated *billing.Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !inv.CanBeEdited() {
			return fmt.Errorf("%w: invoice %s is %s", billing.ErrIllegalTransition, inv.Reference, inv.Status)
		}

		if req.ClientID != nil {
			inv.ClientID = *req.ClientID
		}
		if req.Object != nil {
			inv.Object = req.Object
		}
		if req.Notes != nil {
			inv.Notes = req.Notes
		}
		if req.Conditions != nil {
			inv.Conditions = req.Conditions
		}
		if req.TaxRate != nil {
			inv.TaxRate = *req.TaxRate
		}
		if req.IssueDate != nil {
			inv.IssueDate = *req.IssueDate
		}
		if req.DueDate != nil {
			inv.DueDate = *req.DueDate
		}
		if req.Items != nil {
			items, err := buildItems(ctx, s.products, *req.Items)
			if err != nil {
				return err
			}
			inv.ClearItems()
			for _, item := range items {
				inv.AddItem(item)
			}
			if err := tx.ReplaceInvoiceItems(ctx, inv.ID, inv.Items); err != nil {
				return err
			}
		}

		inv.CalculateTotals()
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *InvoiceService) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !inv.CanBeDeleted() {
			return fmt.Errorf("%w: invoice %s is paid", billing.ErrIllegalTransition, inv.Reference)
		}
		if inv.ProformaID != nil {
			source, err := tx.GetProformaForUpdate(ctx, *inv.ProformaID)
			if err == nil {
				source.InvoiceID = nil
				source.Status = billing.ProformaStatusAccepted
				if err := tx.UpdateProforma(ctx, source); err != nil {
					return err
				}
			} else if !errors.Is(err, billing.ErrNotFound) {
				return err
			}
		}
		return tx.DeleteInvoice(ctx, id)
	})
}

func (s *InvoiceService) Get(ctx context.Context, id int64) (*billing.Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

func (s *InvoiceService) GetByReference(ctx context.Context, reference string) (*billing.Invoice, error) {
	return s.repo.GetInvoiceByReference(ctx, reference)
}

func (s *InvoiceService) List(ctx context.Context, req ListInvoicesRequest) ([]billing.Invoice, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.ListInvoices(ctx, req)
}

func (s *InvoiceService) Send(ctx context.Context, id int64) (*billing.Invoice, error) {
	return s.transition(ctx, id, func(inv *billing.Invoice) error { return inv.MarkSent() })
}

func (s *InvoiceService) Cancel(ctx context.Context, id int64) (*billing.Invoice, error) {
	return s.transition(ctx, id, func(inv *billing.Invoice) error { return inv.Cancel() })
}

// MarkPaid settles the invoice in full regardless of the amount recorded so
// far.
func (s *InvoiceService) MarkPaid(ctx context.Context, id int64, at time.Time) (*billing.Invoice, error) {
	return s.transition(ctx, id, func(inv *billing.Invoice) error { return inv.MarkPaid(at) })
}

// AddPayment records a partial or full payment. The stored amount is the
// literal cumulative sum, so an overpayment stays visible instead of being
// clamped to the total.
func (s *InvoiceService) AddPayment(ctx context.Context, id int64, req PaymentRequest) (*billing.Invoice, error) {
	at := time.Now()
	if req.PaidAt != nil {
		at = *req.PaidAt
	}
	return s.transition(ctx, id, func(inv *billing.Invoice) error {
		if err := inv.AddPayment(req.Amount, at); err != nil {
			return err
		}
		if req.Method != nil {
			inv.PaymentMethod = req.Method
		}
		if req.Reference != nil {
			inv.PaymentReference = req.Reference
		}
		return nil
	})
}

// MarkOverdueOutstanding flips every sent or partially paid invoice past its
// due date to OVERDUE. Invoked from the scheduled scan. As with the expiry
// scan, documents are processed independently and stale candidates are
// skipped.
func (s *InvoiceService) MarkOverdueOutstanding(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.repo.ListOverdueCandidates(ctx, now)
	if err != nil {
		return 0, err
	}
	flipped := 0
	var errs []error
	for _, id := range ids {
		_, err := s.transition(ctx, id, func(inv *billing.Invoice) error { return inv.MarkOverdue(now) })
		switch {
		case err == nil:
			flipped++
		case errors.Is(err, billing.ErrIllegalTransition), errors.Is(err, billing.ErrNotFound):
			// Stale candidate, already handled elsewhere.
		default:
			errs = append(errs, fmt.Errorf("mark invoice %d overdue: %w", id, err))
		}
	}
	return flipped, errors.Join(errs...)
}

// ConvertFromProforma creates an invoice from an accepted proforma in one
// transaction: the invoice is inserted with copied lines and the proforma is
// linked to it, or neither change is applied.
func (s *InvoiceService) ConvertFromProforma(ctx context.Context, proformaID int64, createdBy int64) (*billing.Invoice, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var created *billing.Invoice
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		source, err := tx.GetProformaForUpdate(ctx, proformaID)
		if err != nil {
			return err
		}

		issueDate := time.Now()
		reference, err := tx.AllocateReference(ctx, sequence.KindInvoice, cfg.InvoiceFormat(), issueDate)
		if err != nil {
			return err
		}

		inv, err := billing.ConvertProforma(source, reference, issueDate, cfg.DefaultPaymentDays)
		if err != nil {
			return err
		}
		inv.CreatedBy = createdBy
		if inv.Conditions == nil {
			inv.Conditions = cfg.DefaultInvoiceConditions
		}

		invoiceID, err := tx.InsertInvoice(ctx, inv)
		if err != nil {
			return err
		}
		if err := tx.ReplaceInvoiceItems(ctx, invoiceID, inv.Items); err != nil {
			return err
		}

		if err := source.MarkInvoiced(invoiceID); err != nil {
			return err
		}
		if err := tx.UpdateProforma(ctx, source); err != nil {
			return err
		}
		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *InvoiceService) transition(ctx context.Context, id int64, apply func(*billing.Invoice) error) (*billing.Invoice, error) {
	var result *billing.Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(inv); err != nil {
			return err
		}
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return err
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
