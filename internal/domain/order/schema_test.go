package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Extend(t *testing.T) {
	base := DefaultSchema()

	extended, err := base.Extend(map[string][]string{
		"ordered_at":        {"paid_at", "order_date"},
		"item_product_name": {"goods_name"},
	})
	require.NoError(t, err)

	assert.Equal(t, "paid_at", extended.OrderedAt[len(extended.OrderedAt)-1])
	assert.Len(t, extended.OrderedAt, len(base.OrderedAt)+1)
	assert.Contains(t, extended.ItemProductName, "goods_name")
	assert.NotContains(t, base.OrderedAt, "paid_at")
	assert.NotContains(t, base.ItemProductName, "goods_name")
}

func TestSchema_ExtendUnknownField(t *testing.T) {
	_, err := DefaultSchema().Extend(map[string][]string{"favourite_colour": {"colour"}})
	assert.ErrorIs(t, err, ErrUnknownSchemaField)
}

func TestSchema_ExtendedKeysResolve(t *testing.T) {
	schema, err := DefaultSchema().Extend(map[string][]string{"item_product_name": {"goods_name"}})
	require.NoError(t, err)

	n := NewNormalizer(schema, nil)
	lines := n.Reconcile([]RawRecord{{"order_no": "1"}}, []RawRecord{{"order_no": "1", "goods_name": "Mask"}}, ReconcileOptions{})
	require.Len(t, lines.Lines, 1)
	assert.Equal(t, "Mask", lines.Lines[0].ProductName)
}

func TestFieldNames(t *testing.T) {
	names := FieldNames()
	assert.Contains(t, names, "order_id")
	assert.Contains(t, names, "item_unit_price")
	assert.IsIncreasing(t, names)
}
