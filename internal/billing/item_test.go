package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineItemTotalRecomputedOnEverySetter(t *testing.T) {
	item := NewLineItem("Licence logicielle")
	require.NoError(t, item.SetQuantity(2))
	require.NoError(t, item.SetUnitPrice(100000))
	assert.Equal(t, 200000.0, item.Total)

	require.NoError(t, item.SetDiscount(10))
	assert.Equal(t, 180000.0, item.Total)

	require.NoError(t, item.SetQuantity(3))
	assert.Equal(t, 270000.0, item.Total)
}

func TestLineItemTotalRounding(t *testing.T) {
	item := NewLineItem("Maintenance")
	require.NoError(t, item.SetQuantity(1))
	require.NoError(t, item.SetUnitPrice(45000))
	require.NoError(t, item.SetDiscount(10))
	assert.Equal(t, 40500.0, item.Total)

	// 3 * 33.33 * 0.85 = 84.9915 rounds to 84.99
	require.NoError(t, item.SetQuantity(3))
	require.NoError(t, item.SetUnitPrice(33.33))
	require.NoError(t, item.SetDiscount(15))
	assert.Equal(t, 84.99, item.Total)
}

func TestLineItemRejectsOutOfDomainValues(t *testing.T) {
	item := NewLineItem("Serveur")
	require.NoError(t, item.SetQuantity(2))
	require.NoError(t, item.SetUnitPrice(50000))

	err := item.SetQuantity(-1)
	require.ErrorIs(t, err, ErrInvalidLineItemValue)
	err = item.SetUnitPrice(-0.01)
	require.ErrorIs(t, err, ErrInvalidLineItemValue)
	err = item.SetDiscount(-5)
	require.ErrorIs(t, err, ErrInvalidLineItemValue)
	err = item.SetDiscount(100.5)
	require.ErrorIs(t, err, ErrInvalidLineItemValue)

	// rejected values leave the item untouched
	assert.Equal(t, 2.0, item.Quantity)
	assert.Equal(t, 50000.0, item.UnitPrice)
	assert.Equal(t, 0.0, item.Discount)
	assert.Equal(t, 100000.0, item.Total)
}

func TestLineItemDiscountBounds(t *testing.T) {
	item := NewLineItem("Formation")
	require.NoError(t, item.SetQuantity(1))
	require.NoError(t, item.SetUnitPrice(80000))

	require.NoError(t, item.SetDiscount(0))
	assert.Equal(t, 80000.0, item.Total)

	require.NoError(t, item.SetDiscount(100))
	assert.Equal(t, 0.0, item.Total)
}

func TestLineItemClone(t *testing.T) {
	desc := "Support annuel"
	unit := "mois"
	productID := int64(42)
	item := &LineItem{
		ID:          7,
		ProductID:   &productID,
		Designation: "Support",
		Description: &desc,
		Unit:        &unit,
		SortOrder:   3,
	}
	require.NoError(t, item.SetQuantity(12))
	require.NoError(t, item.SetUnitPrice(25000))
	require.NoError(t, item.SetDiscount(5))

	clone := item.Clone()

	assert.Zero(t, clone.ID)
	assert.Equal(t, item.Designation, clone.Designation)
	assert.Equal(t, item.Quantity, clone.Quantity)
	assert.Equal(t, item.UnitPrice, clone.UnitPrice)
	assert.Equal(t, item.Discount, clone.Discount)
	assert.Equal(t, item.Total, clone.Total)
	assert.Equal(t, item.SortOrder, clone.SortOrder)
	require.NotNil(t, clone.Description)
	assert.Equal(t, desc, *clone.Description)
	require.NotNil(t, clone.ProductID)
	assert.Equal(t, productID, *clone.ProductID)

	// clone is detached: mutating it leaves the source untouched
	require.NoError(t, clone.SetQuantity(1))
	assert.Equal(t, 12.0, item.Quantity)
}
