package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildItem(t *testing.T, designation string, qty, price, discount float64) *LineItem {
	t.Helper()
	item := NewLineItem(designation)
	require.NoError(t, item.SetQuantity(qty))
	require.NoError(t, item.SetUnitPrice(price))
	require.NoError(t, item.SetDiscount(discount))
	return item
}

func TestCalculateTotals(t *testing.T) {
	// Two items, 19.25% tax: HT 245000, TVA 47162.50, TTC 292162.50.
	p := NewProforma("PROV20260001", time.Now(), 30)
	p.TaxRate = 19.25
	p.AddItem(buildItem(t, "Licence", 2, 100000, 0))
	p.AddItem(buildItem(t, "Installation", 1, 50000, 10))

	p.CalculateTotals()

	assert.Equal(t, 200000.0, p.Items[0].Total)
	assert.Equal(t, 45000.0, p.Items[1].Total)
	assert.Equal(t, 245000.0, p.TotalHT)
	assert.Equal(t, 47162.50, p.TotalTVA)
	assert.Equal(t, 292162.50, p.TotalTTC)
}

func TestCalculateTotalsIsIdempotent(t *testing.T) {
	p := NewProforma("PROV20260002", time.Now(), 30)
	p.TaxRate = 19.25
	p.AddItem(buildItem(t, "Serveur", 3, 33333.33, 7.5))
	p.AddItem(buildItem(t, "Câblage", 12, 1250, 0))

	p.CalculateTotals()
	ht, tva, ttc := p.TotalHT, p.TotalTVA, p.TotalTTC
	p.CalculateTotals()

	assert.Equal(t, ht, p.TotalHT)
	assert.Equal(t, tva, p.TotalTVA)
	assert.Equal(t, ttc, p.TotalTTC)
}

func TestCalculateTotalsIsSumOfItems(t *testing.T) {
	inv := NewInvoice("FAC20260001", time.Now(), 30)
	inv.TaxRate = 19.25
	inv.AddItem(buildItem(t, "Poste de travail", 4, 450000, 2.5))
	inv.AddItem(buildItem(t, "Onduleur", 2, 85000, 0))
	inv.AddItem(buildItem(t, "Garantie", 1, 60000, 50))

	inv.CalculateTotals()

	var sum float64
	for _, item := range inv.Items {
		sum += item.Total
	}
	assert.Equal(t, Round2(sum), inv.TotalHT)
	assert.Equal(t, inv.TotalHT+inv.TotalTVA, inv.TotalTTC)
}

func TestTotalsNotRecomputedByItemMutationAlone(t *testing.T) {
	p := NewProforma("PROV20260003", time.Now(), 30)
	p.TaxRate = 19.25
	item := buildItem(t, "Licence", 1, 100000, 0)
	p.AddItem(item)
	p.CalculateTotals()
	require.Equal(t, 100000.0, p.TotalHT)

	// Item edits leave document totals stale until the explicit recompute.
	require.NoError(t, item.SetQuantity(2))
	assert.Equal(t, 100000.0, p.TotalHT)

	p.CalculateTotals()
	assert.Equal(t, 200000.0, p.TotalHT)
}

func TestRemoveItemThenRecalculate(t *testing.T) {
	p := NewProforma("PROV20260004", time.Now(), 30)
	p.TaxRate = 0
	first := buildItem(t, "A", 1, 1000, 0)
	second := buildItem(t, "B", 1, 2500, 0)
	p.AddItem(first)
	p.AddItem(second)
	p.CalculateTotals()
	require.Equal(t, 3500.0, p.TotalHT)

	p.RemoveItem(first)
	p.CalculateTotals()
	assert.Equal(t, 2500.0, p.TotalHT)
	assert.Len(t, p.Items, 1)

	p.ClearItems()
	p.CalculateTotals()
	assert.Zero(t, p.TotalHT)
	assert.Zero(t, p.TotalTTC)
}

func TestZeroTaxRate(t *testing.T) {
	inv := NewInvoice("FAC20260002", time.Now(), 30)
	inv.AddItem(buildItem(t, "Prestation", 1, 75000, 0))
	inv.CalculateTotals()

	assert.Equal(t, 75000.0, inv.TotalHT)
	assert.Zero(t, inv.TotalTVA)
	assert.Equal(t, 75000.0, inv.TotalTTC)
}
