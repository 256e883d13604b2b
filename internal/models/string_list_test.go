package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStringListDecodesLegacyString(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"sizes": "S, M ,L", "images": bson.A{"a.jpg"}})
	require.NoError(t, err)

	var p Product
	require.NoError(t, bson.Unmarshal(raw, &p))

	assert.Equal(t, StringList{"S", "M", "L"}, p.Sizes)
	assert.Equal(t, StringList{"a.jpg"}, p.Images)
}

func TestStringListAlwaysWritesArray(t *testing.T) {
	raw, err := bson.Marshal(Product{Title: "Tee"})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))

	sizes, ok := doc["sizes"].(bson.A)
	require.True(t, ok, "sizes should be stored as an array, got %T", doc["sizes"])
	assert.Empty(t, sizes)
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range OrderStatuses() {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, OrderStatus("Shipped").Valid())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusPrepared.Terminal())
}
