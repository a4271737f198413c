package report

import (
	"context"
	"fmt"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/clients"
	"github.com/facturio/facturio/internal/settings"
)

// DocumentSource loads documents with their items.
type DocumentSource interface {
	GetProforma(ctx context.Context, id int64) (*billing.Proforma, error)
	GetInvoice(ctx context.Context, id int64) (*billing.Invoice, error)
}

// ClientSource loads the client a document is addressed to.
type ClientSource interface {
	Get(ctx context.Context, id int64) (*clients.Client, error)
}

// SettingsSource provides the company block printed on every document.
type SettingsSource interface {
	Get(ctx context.Context) (*settings.CompanySettings, error)
}

// Service assembles document, client and company data, renders HTML and
// converts it to PDF. It backs both the download endpoints and the share
// links.
type Service struct {
	documents DocumentSource
	clients   ClientSource
	settings  SettingsSource
	renderer  *Renderer
	gotenberg *GotenbergClient
}

func NewService(documents DocumentSource, clientSource ClientSource, settingsSource SettingsSource, renderer *Renderer, gotenberg *GotenbergClient) *Service {
	return &Service{
		documents: documents,
		clients:   clientSource,
		settings:  settingsSource,
		renderer:  renderer,
		gotenberg: gotenberg,
	}
}

func (s *Service) context(ctx context.Context, clientID int64) (*clients.Client, *settings.CompanySettings, error) {
	client, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return nil, nil, fmt.Errorf("load client %d: %w", clientID, err)
	}
	company, err := s.settings.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load company settings: %w", err)
	}
	return client, company, nil
}

// ProformaHTML returns the rendered HTML body of a proforma.
func (s *Service) ProformaHTML(ctx context.Context, id int64) (string, error) {
	proforma, err := s.documents.GetProforma(ctx, id)
	if err != nil {
		return "", err
	}
	client, company, err := s.context(ctx, proforma.ClientID)
	if err != nil {
		return "", err
	}
	return s.renderer.ProformaHTML(proforma, client, company)
}

// InvoiceHTML returns the rendered HTML body of an invoice.
func (s *Service) InvoiceHTML(ctx context.Context, id int64) (string, error) {
	invoice, err := s.documents.GetInvoice(ctx, id)
	if err != nil {
		return "", err
	}
	client, company, err := s.context(ctx, invoice.ClientID)
	if err != nil {
		return "", err
	}
	return s.renderer.InvoiceHTML(invoice, client, company)
}

// RenderProformaPDF renders a proforma and converts it to PDF.
func (s *Service) RenderProformaPDF(ctx context.Context, id int64) ([]byte, error) {
	proforma, err := s.documents.GetProforma(ctx, id)
	if err != nil {
		return nil, err
	}
	client, company, err := s.context(ctx, proforma.ClientID)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.ProformaHTML(proforma, client, company)
	if err != nil {
		return nil, err
	}
	return s.gotenberg.ConvertHTML(ctx, proforma.Reference+".pdf", html)
}

// RenderInvoicePDF renders an invoice and converts it to PDF.
func (s *Service) RenderInvoicePDF(ctx context.Context, id int64) ([]byte, error) {
	invoice, err := s.documents.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	client, company, err := s.context(ctx, invoice.ClientID)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.InvoiceHTML(invoice, client, company)
	if err != nil {
		return nil, err
	}
	return s.gotenberg.ConvertHTML(ctx, invoice.Reference+".pdf", html)
}
