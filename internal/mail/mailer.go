// Package mail delivers document emails over SMTP with the rendered PDF
// attached.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// Config holds the SMTP connection parameters.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// DocumentEmail carries everything needed to send one document to one
// recipient.
type DocumentEmail struct {
	To            string
	ClientName    string
	DocumentTitle string
	Reference     string
	CompanyName   string
	ShareURL      string
	ReplyTo       string
	PDFName       string
	PDF           []byte
}

// Message is a plain email without a document attached, used for client
// notifications.
type Message struct {
	To      string
	Subject string
	HTML    string
	ReplyTo string
}

var bodyTemplate = template.Must(template.New("body").Parse(`<p>Bonjour {{ .ClientName }},</p>
<p>Veuillez trouver ci-joint votre {{ .DocumentTitle }} <strong>{{ .Reference }}</strong>.</p>
{{ if .ShareURL }}<p>Vous pouvez également la consulter en ligne : <a href="{{ .ShareURL }}">{{ .ShareURL }}</a></p>{{ end }}
<p>Cordialement,<br>{{ .CompanyName }}</p>`))

// Mailer sends document emails. A nil Mailer silently refuses to send, so
// callers do not need to special-case deployments without SMTP.
type Mailer struct {
	client *gomail.Client
	from   string
}

func NewMailer(cfg Config) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host required")
	}
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Mailer{client: client, from: cfg.From}, nil
}

// SendDocument emails a document with its PDF attached.
func (m *Mailer) SendDocument(ctx context.Context, email DocumentEmail) error {
	if m == nil {
		return fmt.Errorf("mailer not configured")
	}
	msg, err := m.buildMessage(email)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send %s to %s: %w", email.Reference, email.To, err)
	}
	return nil
}

// Send delivers a plain HTML email.
func (m *Mailer) Send(ctx context.Context, message Message) error {
	if m == nil {
		return fmt.Errorf("mailer not configured")
	}
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := msg.To(message.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", message.To, err)
	}
	if message.ReplyTo != "" {
		if err := msg.ReplyTo(message.ReplyTo); err != nil {
			return fmt.Errorf("invalid reply-to %q: %w", message.ReplyTo, err)
		}
	}
	msg.Subject(message.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, message.HTML)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", message.To, err)
	}
	return nil
}

func (m *Mailer) buildMessage(email DocumentEmail) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := msg.To(email.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", email.To, err)
	}
	if email.ReplyTo != "" {
		if err := msg.ReplyTo(email.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to %q: %w", email.ReplyTo, err)
		}
	}

	title := email.DocumentTitle
	if title == "" {
		title = "Facture"
	}
	title = strings.ToUpper(title[:1]) + title[1:]
	msg.Subject(fmt.Sprintf("%s %s - %s", title, email.Reference, email.CompanyName))

	buf := &bytes.Buffer{}
	if err := bodyTemplate.Execute(buf, email); err != nil {
		return nil, fmt.Errorf("render email body: %w", err)
	}
	msg.SetBodyString(gomail.TypeTextHTML, buf.String())

	if len(email.PDF) > 0 {
		name := email.PDFName
		if name == "" {
			name = email.Reference + ".pdf"
		}
		if err := msg.AttachReader(name, bytes.NewReader(email.PDF)); err != nil {
			return nil, fmt.Errorf("attach %s: %w", name, err)
		}
	}
	return msg, nil
}
