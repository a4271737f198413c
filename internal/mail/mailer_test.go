package mail

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMailer(t *testing.T) *Mailer {
	t.Helper()
	mailer, err := NewMailer(Config{
		Host: "smtp.example.test",
		Port: 587,
		From: "facturation@afritech.test",
	})
	require.NoError(t, err)
	return mailer
}

func TestBuildMessageHeadersAndBody(t *testing.T) {
	mailer := testMailer(t)

	msg, err := mailer.buildMessage(DocumentEmail{
		To:            "compta@sgc.cm",
		ClientName:    "Société Générale du Cameroun",
		DocumentTitle: "facture proforma",
		Reference:     "PROV20260042",
		CompanyName:   "Afritech Solutions",
		ShareURL:      "https://app.afritech.test/share/abc123",
		ReplyTo:       "direction@afritech.test",
		PDF:           []byte("%PDF-1.4 fake"),
	})
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	_, err = msg.WriteTo(buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "To: compta@sgc.cm")
	assert.Contains(t, raw, "From: facturation@afritech.test")
	assert.Contains(t, raw, "Reply-To: direction@afritech.test")
	assert.Contains(t, raw, "PROV20260042")
	assert.Contains(t, raw, "PROV20260042.pdf")
}

func TestBuildMessageRejectsBadRecipient(t *testing.T) {
	mailer := testMailer(t)

	_, err := mailer.buildMessage(DocumentEmail{To: "not-an-address", Reference: "FAC20260001"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestNewMailerRequiresHost(t *testing.T) {
	_, err := NewMailer(Config{})
	require.Error(t, err)
}
