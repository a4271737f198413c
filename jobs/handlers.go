package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/clients"
	jobmetrics "github.com/facturio/facturio/internal/jobs"
	"github.com/facturio/facturio/internal/mail"
	"github.com/facturio/facturio/internal/settings"
	"github.com/facturio/facturio/internal/shares"
)

// DocumentLoader resolves documents for email delivery.
type DocumentLoader interface {
	GetProforma(ctx context.Context, id int64) (*billing.Proforma, error)
	GetInvoice(ctx context.Context, id int64) (*billing.Invoice, error)
}

// ClientLoader resolves the recipient of a document.
type ClientLoader interface {
	Get(ctx context.Context, id int64) (*clients.Client, error)
}

// CompanyLoader provides sender identity and defaults.
type CompanyLoader interface {
	Get(ctx context.Context) (*settings.CompanySettings, error)
}

// PDFRenderer produces the attached PDF.
type PDFRenderer interface {
	RenderProformaPDF(ctx context.Context, id int64) ([]byte, error)
	RenderInvoicePDF(ctx context.Context, id int64) ([]byte, error)
}

// ShareCreator mints the public link included in the email.
type ShareCreator interface {
	Create(ctx context.Context, kind shares.DocumentKind, documentID int64, req shares.CreateShareRequest, createdBy int64) (*shares.Share, error)
	PublicURL(share *shares.Share) string
	MarkSent(ctx context.Context, id int64) error
}

// DocumentEmailSender sends the composed email.
type DocumentEmailSender interface {
	SendDocument(ctx context.Context, email mail.DocumentEmail) error
}

// ProformaScanner expires sent proformas past their validity date.
type ProformaScanner interface {
	ExpireOutstanding(ctx context.Context, now time.Time) (int, error)
}

// InvoiceScanner flags outstanding invoices past their due date.
type InvoiceScanner interface {
	MarkOverdueOutstanding(ctx context.Context, now time.Time) (int, error)
}

// Processor holds the task handlers and their collaborators.
type Processor struct {
	logger    *slog.Logger
	documents DocumentLoader
	clients   ClientLoader
	company   CompanyLoader
	pdfs      PDFRenderer
	shares    ShareCreator
	mailer    DocumentEmailSender
	proformas ProformaScanner
	invoices  InvoiceScanner
	metrics   *jobmetrics.Metrics
}

type ProcessorConfig struct {
	Logger    *slog.Logger
	Documents DocumentLoader
	Clients   ClientLoader
	Company   CompanyLoader
	PDFs      PDFRenderer
	Shares    ShareCreator
	Mailer    DocumentEmailSender
	Proformas ProformaScanner
	Invoices  InvoiceScanner
	Metrics   *jobmetrics.Metrics
}

func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		logger:    cfg.Logger,
		documents: cfg.Documents,
		clients:   cfg.Clients,
		company:   cfg.Company,
		pdfs:      cfg.PDFs,
		shares:    cfg.Shares,
		mailer:    cfg.Mailer,
		proformas: cfg.Proformas,
		invoices:  cfg.Invoices,
		metrics:   cfg.Metrics,
	}
}

// HandleDocumentEmail loads the document, renders its PDF, creates an email
// share link and sends everything to the client's address.
func (p *Processor) HandleDocumentEmail(ctx context.Context, t *asynq.Task) error {
	return p.metrics.Track("document_email").End(p.handleDocumentEmail(ctx, t))
}

func (p *Processor) handleDocumentEmail(ctx context.Context, t *asynq.Task) error {
	var payload DocumentEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
	}

	var (
		clientID int64
		title    string
		ref      string
		kind     shares.DocumentKind
		pdf      []byte
		err      error
	)
	switch payload.DocType {
	case "proforma":
		doc, loadErr := p.documents.GetProforma(ctx, payload.DocumentID)
		if loadErr != nil {
			return loadErr
		}
		clientID, title, ref = doc.ClientID, "facture proforma", doc.Reference
		kind = shares.KindProforma
		pdf, err = p.pdfs.RenderProformaPDF(ctx, payload.DocumentID)
	case "invoice":
		doc, loadErr := p.documents.GetInvoice(ctx, payload.DocumentID)
		if loadErr != nil {
			return loadErr
		}
		clientID, title, ref = doc.ClientID, "facture", doc.Reference
		kind = shares.KindInvoice
		pdf, err = p.pdfs.RenderInvoicePDF(ctx, payload.DocumentID)
	default:
		return fmt.Errorf("unknown doc type %q: %w", payload.DocType, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("render pdf for %s: %w", ref, err)
	}

	client, err := p.clients.Get(ctx, clientID)
	if err != nil {
		return err
	}
	if client.Email == nil || *client.Email == "" {
		p.logger.Warn("document email skipped, client has no address",
			slog.String("reference", ref), slog.Int64("client_id", clientID))
		return nil
	}
	company, err := p.company.Get(ctx)
	if err != nil {
		return err
	}

	share, err := p.shares.Create(ctx, kind, payload.DocumentID, shares.CreateShareRequest{Type: shares.TypeEmail}, 0)
	if err != nil {
		return fmt.Errorf("create share for %s: %w", ref, err)
	}

	email := mail.DocumentEmail{
		To:            *client.Email,
		ClientName:    client.Name,
		DocumentTitle: title,
		Reference:     ref,
		CompanyName:   company.CompanyName,
		ShareURL:      p.shares.PublicURL(share),
		PDF:           pdf,
	}
	if company.ReplyTo != nil {
		email.ReplyTo = *company.ReplyTo
	}
	if err := p.mailer.SendDocument(ctx, email); err != nil {
		return err
	}
	if err := p.shares.MarkSent(ctx, share.ID); err != nil {
		p.logger.Warn("mark share sent failed", slog.Int64("share_id", share.ID), slog.Any("error", err))
	}

	p.logger.Info("document email sent",
		slog.String("reference", ref), slog.String("to", *client.Email))
	return nil
}

// HandleExpiryScan expires every sent proforma past its validity date.
func (p *Processor) HandleExpiryScan(ctx context.Context, t *asynq.Task) error {
	tracker := p.metrics.Track("proforma_expiry_scan")
	count, err := p.proformas.ExpireOutstanding(ctx, time.Now())
	err = tracker.End(err)
	if err != nil {
		return err
	}
	if count > 0 {
		p.logger.Info("proformas expired", slog.Int("count", count))
	}
	return nil
}

// HandleOverdueScan flags every outstanding invoice past its due date.
func (p *Processor) HandleOverdueScan(ctx context.Context, t *asynq.Task) error {
	tracker := p.metrics.Track("invoice_overdue_scan")
	count, err := p.invoices.MarkOverdueOutstanding(ctx, time.Now())
	err = tracker.End(err)
	if err != nil {
		return err
	}
	if count > 0 {
		p.logger.Info("invoices marked overdue", slog.Int("count", count))
	}
	return nil
}
