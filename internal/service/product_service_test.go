package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestUpdatePricing(t *testing.T) {
	f := newFixture(t)
	p := f.product("Shirt", 40)

	updated, err := f.products.UpdatePricing(f.ctx, f.admin, p.ID, models.SaleUpdate{OnSale: ptr(true), SalePrice: ptr(30.0)})
	require.NoError(t, err)
	assert.True(t, updated.IsOnSale)
	assert.Equal(t, 30.0, updated.EffectivePrice())

	_, err = f.products.UpdatePricing(f.ctx, f.admin, p.ID, models.SaleUpdate{SalePrice: ptr(50.0)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.products.UpdatePricing(f.ctx, f.admin, p.ID, models.SaleUpdate{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.products.UpdatePricing(f.ctx, f.customer, p.ID, models.SaleUpdate{Price: ptr(1.0)})
	assert.ErrorIs(t, err, ErrAdminRequired)

	_, err = f.products.UpdatePricing(f.ctx, f.admin, primitive.NewObjectID(), models.SaleUpdate{Price: ptr(1.0)})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestListProductsDefaults(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.product("Tee", 10)
	}

	page, err := f.products.List(f.ctx, ProductQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.EqualValues(t, 1, page.Page)
	assert.EqualValues(t, defaultProductLimit, page.Limit)

	capped, err := f.products.List(f.ctx, ProductQuery{Limit: 1000})
	require.NoError(t, err)
	assert.EqualValues(t, maxProductLimit, capped.Limit)

	_, err = f.products.Get(f.ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrProductNotFound)
}
