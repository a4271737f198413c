package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/clients"
	"github.com/facturio/facturio/internal/mail"
	"github.com/facturio/facturio/internal/settings"
)

// ClientSource resolves notification recipients. Implemented by the clients
// repository.
type ClientSource interface {
	Get(ctx context.Context, id int64) (*clients.Client, error)
	List(ctx context.Context, req clients.ListClientsRequest) ([]clients.Client, int, error)
}

// SettingsSource loads the company identity stamped on every message.
type SettingsSource interface {
	Get(ctx context.Context) (*settings.CompanySettings, error)
}

// Sender delivers one plain email. Implemented by the mailer.
type Sender interface {
	Send(ctx context.Context, message mail.Message) error
}

type Service struct {
	logger   *slog.Logger
	clients  ClientSource
	settings SettingsSource
	mailer   Sender
	repo     Repository
}

func NewService(logger *slog.Logger, clientSource ClientSource, settingsSource SettingsSource, mailer Sender, repo Repository) *Service {
	return &Service{logger: logger, clients: clientSource, settings: settingsSource, mailer: mailer, repo: repo}
}

var massBodyTemplate = template.Must(template.New("mass").Parse(`<p>Bonjour <strong>{{ .ClientName }}</strong>,</p>
<div>{{ range .Lines }}{{ . }}<br>{{ end }}</div>
<p>Cordialement,<br>{{ .CompanyName }}</p>
<p style="color:#9ca3af;font-size:11px;">&copy; {{ .Year }} {{ .CompanyName }}</p>`))

// Recipients lists active clients reachable by email, sorted by name.
func (s *Service) Recipients(ctx context.Context) ([]Recipient, error) {
	active := true
	list, _, err := s.clients.List(ctx, clients.ListClientsRequest{IsActive: &active, Limit: 1000})
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	recipients := make([]Recipient, 0, len(list))
	for _, c := range list {
		if c.Email == nil || *c.Email == "" {
			continue
		}
		recipients = append(recipients, Recipient{ID: c.ID, Code: c.Code, Name: c.Name, Email: *c.Email})
	}
	return recipients, nil
}

// Send emails every selected client. Clients without an address are skipped;
// delivery failures are counted but never abort the batch.
func (s *Service) Send(ctx context.Context, req SendRequest) (*Report, error) {
	company, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var tpl *EmailTemplate
	if req.TemplateID != nil {
		tpl, err = s.repo.Get(ctx, *req.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("load template: %w", err)
		}
	}

	replyTo := ""
	if company.ReplyTo != nil {
		replyTo = *company.ReplyTo
	}

	report := &Report{}
	for _, id := range req.ClientIDs {
		client, err := s.clients.Get(ctx, id)
		if err != nil {
			if errors.Is(err, billing.ErrNotFound) {
				report.Skipped++
				continue
			}
			return report, fmt.Errorf("load client %d: %w", id, err)
		}
		if client.Email == nil || *client.Email == "" {
			report.Skipped++
			continue
		}

		subject, body := s.compose(req, tpl, company, client)
		message := mail.Message{To: *client.Email, Subject: subject, HTML: body, ReplyTo: replyTo}
		if err := s.mailer.Send(ctx, message); err != nil {
			s.logger.Warn("notification send failed",
				slog.Int64("client_id", client.ID), slog.Any("error", err))
			report.Failed++
			continue
		}
		report.Sent++
	}
	return report, nil
}

func (s *Service) compose(req SendRequest, tpl *EmailTemplate, company *settings.CompanySettings, client *clients.Client) (string, string) {
	if tpl != nil {
		vars := templateVars(company, client)
		return tpl.RenderSubject(vars), tpl.RenderBody(vars)
	}

	buf := &bytes.Buffer{}
	_ = massBodyTemplate.Execute(buf, struct {
		ClientName  string
		CompanyName string
		Lines       []string
		Year        int
	}{
		ClientName:  client.Name,
		CompanyName: company.CompanyName,
		Lines:       strings.Split(req.Message, "\n"),
		Year:        time.Now().Year(),
	})
	return req.Subject, buf.String()
}

func templateVars(company *settings.CompanySettings, client *clients.Client) map[string]string {
	email := ""
	if client.Email != nil {
		email = *client.Email
	}
	sender := company.CompanyName
	if company.SenderName != nil && *company.SenderName != "" {
		sender = *company.SenderName
	}
	return map[string]string{
		"{{client_name}}":  client.Name,
		"{{client_email}}": email,
		"{{company_name}}": company.CompanyName,
		"{{current_date}}": time.Now().Format("02/01/2006"),
		"{{sender_name}}":  sender,
	}
}

// ListTemplates returns stored templates, optionally only active ones.
func (s *Service) ListTemplates(ctx context.Context, onlyActive bool) ([]EmailTemplate, error) {
	return s.repo.List(ctx, onlyActive)
}

func (s *Service) GetTemplate(ctx context.Context, id int64) (*EmailTemplate, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) CreateTemplate(ctx context.Context, req CreateTemplateRequest, createdBy int64) (*EmailTemplate, error) {
	tpl := &EmailTemplate{
		Name:      req.Name,
		Code:      req.Code,
		Type:      req.Type,
		Subject:   req.Subject,
		BodyHTML:  req.BodyHTML,
		IsActive:  true,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, tpl); err != nil {
		return nil, fmt.Errorf("create email template: %w", err)
	}
	return tpl, nil
}

func (s *Service) UpdateTemplate(ctx context.Context, id int64, req UpdateTemplateRequest) (*EmailTemplate, error) {
	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get email template: %w", err)
	}

	if req.Name != nil {
		tpl.Name = *req.Name
	}
	if req.Type != nil {
		tpl.Type = *req.Type
	}
	if req.Subject != nil {
		tpl.Subject = *req.Subject
	}
	if req.BodyHTML != nil {
		tpl.BodyHTML = *req.BodyHTML
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, fmt.Errorf("update email template: %w", err)
	}
	return tpl, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// PreviewTemplate renders a template with sample data for the edit screen.
func (s *Service) PreviewTemplate(ctx context.Context, id int64) (map[string]string, error) {
	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	vars := map[string]string{
		"{{client_name}}":  "Jean Dupont",
		"{{client_email}}": "jean.dupont@example.com",
		"{{company_name}}": "Ma Société",
		"{{current_date}}": time.Now().Format("02/01/2006"),
		"{{sender_name}}":  "Service Commercial",
	}
	return map[string]string{
		"subject":   tpl.RenderSubject(vars),
		"body_html": tpl.RenderBody(vars),
	}, nil
}
