package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturio/facturio/internal/billing"
	"github.com/facturio/facturio/internal/clients"
	"github.com/facturio/facturio/internal/mail"
	"github.com/facturio/facturio/internal/settings"
)

type mockClients struct {
	byID map[int64]*clients.Client
}

func (m *mockClients) Get(ctx context.Context, id int64) (*clients.Client, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	return c, nil
}

func (m *mockClients) List(ctx context.Context, req clients.ListClientsRequest) ([]clients.Client, int, error) {
	var list []clients.Client
	for _, c := range m.byID {
		list = append(list, *c)
	}
	return list, len(list), nil
}

type mockSettings struct{}

func (m *mockSettings) Get(ctx context.Context) (*settings.CompanySettings, error) {
	cfg := settings.Defaults()
	replyTo := "contact@masociete.cm"
	cfg.ReplyTo = &replyTo
	return &cfg, nil
}

type mockSender struct {
	sent    []mail.Message
	failFor map[string]error
}

func (m *mockSender) Send(ctx context.Context, message mail.Message) error {
	if err := m.failFor[message.To]; err != nil {
		return err
	}
	m.sent = append(m.sent, message)
	return nil
}

type mockTemplates struct {
	byID   map[int64]*EmailTemplate
	nextID int64
}

func (m *mockTemplates) Get(ctx context.Context, id int64) (*EmailTemplate, error) {
	tpl, ok := m.byID[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	copied := *tpl
	return &copied, nil
}

func (m *mockTemplates) GetByCode(ctx context.Context, code string) (*EmailTemplate, error) {
	for _, tpl := range m.byID {
		if tpl.Code == code {
			copied := *tpl
			return &copied, nil
		}
	}
	return nil, billing.ErrNotFound
}

func (m *mockTemplates) List(ctx context.Context, onlyActive bool) ([]EmailTemplate, error) {
	var list []EmailTemplate
	for _, tpl := range m.byID {
		if onlyActive && !tpl.IsActive {
			continue
		}
		list = append(list, *tpl)
	}
	return list, nil
}

func (m *mockTemplates) Create(ctx context.Context, tpl *EmailTemplate) error {
	for _, existing := range m.byID {
		if existing.Code == tpl.Code {
			return fmt.Errorf("%w: %s", ErrCodeTaken, tpl.Code)
		}
	}
	m.nextID++
	tpl.ID = m.nextID
	if m.byID == nil {
		m.byID = make(map[int64]*EmailTemplate)
	}
	copied := *tpl
	m.byID[tpl.ID] = &copied
	return nil
}

func (m *mockTemplates) Update(ctx context.Context, tpl *EmailTemplate) error {
	if _, ok := m.byID[tpl.ID]; !ok {
		return billing.ErrNotFound
	}
	copied := *tpl
	m.byID[tpl.ID] = &copied
	return nil
}

func (m *mockTemplates) Delete(ctx context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return billing.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func strPtr(s string) *string { return &s }

func newTestService(clientSource *mockClients, sender *mockSender, repo *mockTemplates) *Service {
	return NewService(slog.Default(), clientSource, &mockSettings{}, sender, repo)
}

func TestSendSkipsUnreachableClients(t *testing.T) {
	source := &mockClients{byID: map[int64]*clients.Client{
		1: {ID: 1, Code: "CLI00001", Name: "Alice Nkoulou", Email: strPtr("alice@example.com"), IsActive: true},
		2: {ID: 2, Code: "CLI00002", Name: "Sans Email", IsActive: true},
	}}
	sender := &mockSender{}
	svc := newTestService(source, sender, &mockTemplates{})

	report, err := svc.Send(context.Background(), SendRequest{
		ClientIDs: []int64{1, 2, 42},
		Subject:   "Fermeture annuelle",
		Message:   "Nos bureaux ferment le 20 décembre.\nRéouverture le 5 janvier.",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 2, report.Skipped)
	assert.Zero(t, report.Failed)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "Fermeture annuelle", msg.Subject)
	assert.Equal(t, "contact@masociete.cm", msg.ReplyTo)
	assert.Contains(t, msg.HTML, "Bonjour <strong>Alice Nkoulou</strong>")
	assert.Contains(t, msg.HTML, "Réouverture le 5 janvier.")
	assert.Contains(t, msg.HTML, "Ma Société")
}

func TestSendContinuesPastDeliveryFailures(t *testing.T) {
	source := &mockClients{byID: map[int64]*clients.Client{
		1: {ID: 1, Name: "A", Email: strPtr("a@example.com"), IsActive: true},
		2: {ID: 2, Name: "B", Email: strPtr("b@example.com"), IsActive: true},
	}}
	sender := &mockSender{failFor: map[string]error{"a@example.com": errors.New("smtp down")}}
	svc := newTestService(source, sender, &mockTemplates{})

	report, err := svc.Send(context.Background(), SendRequest{
		ClientIDs: []int64{1, 2},
		Subject:   "Info",
		Message:   "Bonjour",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Sent)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "b@example.com", sender.sent[0].To)
}

func TestSendWithStoredTemplate(t *testing.T) {
	source := &mockClients{byID: map[int64]*clients.Client{
		1: {ID: 1, Name: "Alice Nkoulou", Email: strPtr("alice@example.com"), IsActive: true},
	}}
	sender := &mockSender{}
	repo := &mockTemplates{}
	svc := newTestService(source, sender, repo)

	tpl, err := svc.CreateTemplate(context.Background(), CreateTemplateRequest{
		Name:     "Bienvenue",
		Code:     "WELCOME",
		Type:     TemplateWelcome,
		Subject:  "Bienvenue chez {{company_name}}",
		BodyHTML: "<p>Bonjour {{client_name}}, bienvenue !</p>",
	}, 1)
	require.NoError(t, err)

	report, err := svc.Send(context.Background(), SendRequest{
		ClientIDs:  []int64{1},
		TemplateID: &tpl.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Sent)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Bienvenue chez Ma Société", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].HTML, "Bonjour Alice Nkoulou")
}

func TestSendUnknownTemplateFails(t *testing.T) {
	svc := newTestService(&mockClients{}, &mockSender{}, &mockTemplates{})

	missing := int64(77)
	_, err := svc.Send(context.Background(), SendRequest{ClientIDs: []int64{1}, TemplateID: &missing})
	require.ErrorIs(t, err, billing.ErrNotFound)
}

func TestCreateTemplateRejectsDuplicateCode(t *testing.T) {
	repo := &mockTemplates{}
	svc := newTestService(&mockClients{}, &mockSender{}, repo)

	req := CreateTemplateRequest{Name: "A", Code: "RAPPEL", Type: TemplateReminder, Subject: "s", BodyHTML: "b"}
	_, err := svc.CreateTemplate(context.Background(), req, 1)
	require.NoError(t, err)

	req.Name = "B"
	_, err = svc.CreateTemplate(context.Background(), req, 1)
	require.ErrorIs(t, err, ErrCodeTaken)
}

func TestUpdateTemplateAppliesOnlyProvidedFields(t *testing.T) {
	repo := &mockTemplates{}
	svc := newTestService(&mockClients{}, &mockSender{}, repo)

	tpl, err := svc.CreateTemplate(context.Background(), CreateTemplateRequest{
		Name: "Rappel", Code: "RAPPEL", Type: TemplateReminder,
		Subject: "Rappel de paiement", BodyHTML: "<p>...</p>",
	}, 1)
	require.NoError(t, err)

	inactive := false
	updated, err := svc.UpdateTemplate(context.Background(), tpl.ID, UpdateTemplateRequest{
		Subject:  strPtr("Relance"),
		IsActive: &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, "Relance", updated.Subject)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Rappel", updated.Name)
	assert.Equal(t, TemplateReminder, updated.Type)
}

func TestPreviewTemplateSubstitutesSampleData(t *testing.T) {
	repo := &mockTemplates{}
	svc := newTestService(&mockClients{}, &mockSender{}, repo)

	tpl, err := svc.CreateTemplate(context.Background(), CreateTemplateRequest{
		Name: "Bienvenue", Code: "WELCOME", Type: TemplateWelcome,
		Subject:  "Bonjour {{client_name}}",
		BodyHTML: "<p>{{sender_name}} vous souhaite la bienvenue.</p>",
	}, 1)
	require.NoError(t, err)

	preview, err := svc.PreviewTemplate(context.Background(), tpl.ID)
	require.NoError(t, err)

	assert.Equal(t, "Bonjour Jean Dupont", preview["subject"])
	assert.Contains(t, preview["body_html"], "Service Commercial")
}

func TestRecipientsFiltersClientsWithoutEmail(t *testing.T) {
	source := &mockClients{byID: map[int64]*clients.Client{
		1: {ID: 1, Code: "CLI00001", Name: "Avec", Email: strPtr("avec@example.com"), IsActive: true},
		2: {ID: 2, Code: "CLI00002", Name: "Sans", IsActive: true},
	}}
	svc := newTestService(source, &mockSender{}, &mockTemplates{})

	recipients, err := svc.Recipients(context.Background())
	require.NoError(t, err)

	require.Len(t, recipients, 1)
	assert.Equal(t, "avec@example.com", recipients[0].Email)
}
