package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func TestCreateOrderRequiresAuth(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product("Shirt", 20)

	w := h.do(http.MethodPost, "/orders", models.Identity{}, orderBody(20, lineOf(p, 1, "M")))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateOrderValidation(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product("Shirt", 20)

	cases := map[string]gin.H{
		"no items":      orderBody(0),
		"zero quantity": orderBody(0, lineOf(p, 0, "M")),
		"bad product":   orderBody(20, gin.H{"product": "nope", "quantity": 1}),
		"no total":      {"items": []gin.H{lineOf(p, 1, "M")}},
		"wrong total":   orderBody(99, lineOf(p, 1, "M")),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := h.do(http.MethodPost, "/orders", h.customer, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	body := orderBody(20, lineOf(p, 1, "M"))
	body["customerInfo"].(gin.H)["address"].(gin.H)["street"] = ""
	w := h.do(http.MethodPost, "/orders", h.customer, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "customerInfo.address.street is required")
}

func TestPlaceOrderClearsCartAndKeepsPrices(t *testing.T) {
	h := newHarness(t, nil)
	shirt := h.product("Shirt", 20)
	pants := h.product("Pants", 12.5)

	for _, line := range []gin.H{lineOf(shirt, 1, "M"), lineOf(pants, 2, "32")} {
		w := h.do(http.MethodPost, "/cart", h.customer, line)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := h.do(http.MethodPost, "/orders", h.customer, orderBody(45, lineOf(shirt, 1, "M"), lineOf(pants, 2, "32")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[createdOrder](t, w)
	assert.True(t, created.Success)
	assert.Regexp(t, `^AN[0-9A-Z]+$`, created.OrderNumber)

	w = h.do(http.MethodGet, "/cart", h.customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cart := decode[struct {
		Items []models.CartItem `json:"items"`
	}](t, w)
	assert.Empty(t, cart.Items)

	w = h.do(http.MethodPut, "/admin/api/products/"+shirt.ID.Hex()+"/pricing", h.admin, gin.H{"price": 99})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/orders", h.customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	orders := decode[[]models.Order](t, w)
	require.Len(t, orders, 1)
	assert.Equal(t, created.OrderNumber, orders[0].OrderNumber)
	require.Len(t, orders[0].Items, 2)
	assert.Equal(t, 20.0, orders[0].Items[0].Price)
	assert.Equal(t, 12.5, orders[0].Items[1].Price)
	assert.Equal(t, 45.0, orders[0].TotalAmount)
	assert.Equal(t, models.OrderStatusReceived, orders[0].Status)
}

func TestGetOrdersFilters(t *testing.T) {
	h := newHarness(t, nil)
	shirt := h.product("Shirt", 20)
	pants := h.product("Pants", 30)

	h.placeOrder(h.customer, models.OrderStatusReceived, 20, lineOf(shirt, 1, "M"))
	h.placeOrder(h.customer, models.OrderStatusReceived, 30, lineOf(pants, 1, "32"))
	h.placeOrder(h.other, models.OrderStatusReceived, 20, lineOf(shirt, 1, "S"))

	w := h.do(http.MethodGet, "/orders?product="+shirt.ID.Hex()+"&user="+h.customer.UserID.Hex(), h.customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Order](t, w), 1)

	w = h.do(http.MethodGet, "/orders?user="+h.other.UserID.Hex(), h.customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodGet, "/orders?product=bad", h.customer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/admin/api/orders", h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Order](t, w), 3)

	w = h.do(http.MethodGet, "/admin/api/orders", h.customer, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetOrderOwnership(t *testing.T) {
	h := newHarness(t, nil)
	shirt := h.product("Shirt", 20)
	created := h.placeOrder(h.customer, models.OrderStatusReceived, 20, lineOf(shirt, 1, "M"))

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/orders/"+created.OrderID, h.customer, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/orders/"+created.OrderID, h.other, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/admin/api/orders/"+created.OrderID, h.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/orders/"+primitive.NewObjectID().Hex(), h.customer, nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/orders/xyz", h.customer, nil).Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	h := newHarness(t, nil)
	shirt := h.product("Shirt", 20)
	created := h.placeOrder(h.customer, models.OrderStatusReceived, 20, lineOf(shirt, 1, "M"))
	path := "/orders/" + created.OrderID

	w := h.do(http.MethodPatch, path, h.customer, gin.H{"status": models.OrderStatusDelivered})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPatch, path, h.admin, gin.H{"status": models.OrderStatusPrepared, "notes": "packed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order := decode[models.Order](t, w)
	assert.Equal(t, models.OrderStatusPrepared, order.Status)
	assert.Equal(t, "packed", order.Notes)
	assert.True(t, order.IsRead)

	w = h.do(http.MethodPatch, "/admin/api/orders/"+created.OrderID, h.admin, gin.H{"status": "Lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPatch, "/orders/"+primitive.NewObjectID().Hex(), h.admin, gin.H{"status": models.OrderStatusDelivered})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
