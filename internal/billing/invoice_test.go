package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paidInvoice(t *testing.T, total float64) *Invoice {
	t.Helper()
	inv := NewInvoice("FAC20260100", time.Now(), 30)
	inv.AddItem(buildItem(t, "Prestation", 1, total, 0))
	inv.CalculateTotals()
	require.NoError(t, inv.MarkSent())
	return inv
}

func TestAddPaymentPartialThenPaid(t *testing.T) {
	inv := paidInvoice(t, 100000)
	now := time.Now()

	require.NoError(t, inv.AddPayment(60000, now))
	assert.Equal(t, InvoiceStatusPartial, inv.Status)
	assert.Equal(t, 60000.0, inv.AmountPaid)
	assert.Equal(t, 40000.0, inv.AmountDue())
	assert.Nil(t, inv.PaidAt)

	require.NoError(t, inv.AddPayment(40000, now))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.Equal(t, 100000.0, inv.AmountPaid)
	assert.Zero(t, inv.AmountDue())
	require.NotNil(t, inv.PaidAt)
}

func TestAddPaymentOverpaymentIsNotClamped(t *testing.T) {
	// Overpayment keeps the literal cumulative value; amount due goes
	// negative. Known edge case carried over from the business rules.
	inv := paidInvoice(t, 100000)

	require.NoError(t, inv.AddPayment(120000, time.Now()))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.Equal(t, 120000.0, inv.AmountPaid)
	assert.Equal(t, -20000.0, inv.AmountDue())
}

func TestAddPaymentIsMonotonic(t *testing.T) {
	inv := paidInvoice(t, 500000)
	previous := inv.AmountPaid
	for _, amount := range []float64{100000, 50000, 25000.50, 300000} {
		require.NoError(t, inv.AddPayment(amount, time.Now()))
		assert.GreaterOrEqual(t, inv.AmountPaid, previous)
		previous = inv.AmountPaid
	}
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
}

func TestAddPaymentRejectedOnDraftAndCancelled(t *testing.T) {
	inv := NewInvoice("FAC20260101", time.Now(), 30)
	inv.AddItem(buildItem(t, "Prestation", 1, 10000, 0))
	inv.CalculateTotals()

	err := inv.AddPayment(5000, time.Now())
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.Zero(t, inv.AmountPaid)
	assert.Equal(t, InvoiceStatusDraft, inv.Status)

	require.NoError(t, inv.Cancel())
	err = inv.AddPayment(5000, time.Now())
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestMarkPaidSettlesInFull(t *testing.T) {
	inv := paidInvoice(t, 250000)
	require.NoError(t, inv.AddPayment(100000, time.Now()))

	require.NoError(t, inv.MarkPaid(time.Now()))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.Equal(t, inv.TotalTTC, inv.AmountPaid)
	require.NotNil(t, inv.PaidAt)
}

func TestInvoiceEditGates(t *testing.T) {
	inv := NewInvoice("FAC20260102", time.Now(), 30)
	assert.True(t, inv.CanBeEdited())

	require.NoError(t, inv.MarkSent())
	assert.False(t, inv.CanBeEdited())

	inv.AddItem(buildItem(t, "Prestation", 1, 1000, 0))
	inv.CalculateTotals()
	require.NoError(t, inv.AddPayment(1000, time.Now()))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.False(t, inv.CanBeEdited())
	assert.False(t, inv.CanBeDeleted())
	assert.False(t, inv.CanBeCancelled())
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	inv := NewInvoice("FAC20260103", now.AddDate(0, 0, -45), 30)
	inv.AddItem(buildItem(t, "Prestation", 1, 1000, 0))
	inv.CalculateTotals()
	require.NoError(t, inv.MarkSent())

	assert.True(t, inv.IsOverdue(now))
	require.NoError(t, inv.MarkOverdue(now))
	assert.Equal(t, InvoiceStatusOverdue, inv.Status)

	// a paid invoice is never overdue
	require.NoError(t, inv.AddPayment(inv.TotalTTC, now))
	assert.False(t, inv.IsOverdue(now))
}

func TestMarkOverdueRejectedBeforeDueDate(t *testing.T) {
	now := time.Now()
	inv := NewInvoice("FAC20260104", now, 30)
	require.NoError(t, inv.MarkSent())

	err := inv.MarkOverdue(now)
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, InvoiceStatusSent, inv.Status)
}

func TestCancelTransitions(t *testing.T) {
	inv := NewInvoice("FAC20260105", time.Now(), 30)
	require.NoError(t, inv.Cancel())
	assert.Equal(t, InvoiceStatusCancelled, inv.Status)

	err := inv.Cancel()
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.False(t, inv.CanBeSent())
}

func TestPaymentPercentage(t *testing.T) {
	inv := paidInvoice(t, 200000)
	assert.Zero(t, inv.PaymentPercentage())

	require.NoError(t, inv.AddPayment(50000, time.Now()))
	assert.InDelta(t, 25, inv.PaymentPercentage(), 0.0001)

	empty := NewInvoice("FAC20260106", time.Now(), 30)
	assert.Zero(t, empty.PaymentPercentage())
}
