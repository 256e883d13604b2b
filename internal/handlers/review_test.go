package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/service"
)

type reviewResponse struct {
	Review  models.Review        `json:"review"`
	Summary models.RatingSummary `json:"summary"`
}

func reviewBody(product models.Product, orderID string, rating int) gin.H {
	return gin.H{
		"productId": product.ID.Hex(),
		"orderId":   orderID,
		"rating":    rating,
		"title":     "Nice",
		"comment":   "Good fit",
	}
}

func TestSubmitReviewFlow(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product("Shirt", 20)
	order := h.placeOrder(h.customer, models.OrderStatusDelivered, 20, lineOf(p, 1, "M"))

	w := h.do(http.MethodPost, "/reviews", h.customer, reviewBody(p, order.OrderID, 4))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[reviewResponse](t, w)
	assert.True(t, created.Review.Verified)
	assert.Equal(t, models.ReviewStatusApproved, created.Review.Status)
	assert.Equal(t, models.RatingSummary{AverageRating: 4, ReviewCount: 1}, created.Summary)

	w = h.do(http.MethodGet, "/products/"+p.ID.Hex(), models.Identity{}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	product := decode[models.Product](t, w)
	assert.Equal(t, 1, product.ReviewCount)
	assert.Equal(t, 4.0, product.AverageRating)

	w = h.do(http.MethodPost, "/reviews", h.customer, reviewBody(p, order.OrderID, 5))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodGet, "/products/"+p.ID.Hex(), models.Identity{}, nil)
	assert.Equal(t, 1, decode[models.Product](t, w).ReviewCount)
}

func TestSubmitReviewRejections(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product("Shirt", 20)
	q := h.product("Pants", 30)
	pending := h.placeOrder(h.customer, models.OrderStatusPrepared, 20, lineOf(p, 1, "M"))
	delivered := h.placeOrder(h.customer, models.OrderStatusDelivered, 20, lineOf(p, 1, "M"))

	cases := []struct {
		name   string
		as     models.Identity
		body   gin.H
		status int
	}{
		{"unauthenticated", models.Identity{}, reviewBody(p, delivered.OrderID, 4), http.StatusUnauthorized},
		{"not delivered", h.customer, reviewBody(p, pending.OrderID, 4), http.StatusNotFound},
		{"product not in order", h.customer, reviewBody(q, delivered.OrderID, 4), http.StatusNotFound},
		{"unknown order", h.customer, reviewBody(p, primitive.NewObjectID().Hex(), 4), http.StatusNotFound},
		{"not owner", h.other, reviewBody(p, delivered.OrderID, 4), http.StatusForbidden},
		{"rating out of range", h.customer, reviewBody(p, delivered.OrderID, 6), http.StatusBadRequest},
		{"bad order id", h.customer, reviewBody(p, "zzz", 4), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := h.do(http.MethodPost, "/reviews", tc.as, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestReviewEligibilityEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product("Shirt", 20)
	pending := h.placeOrder(h.customer, models.OrderStatusReceived, 20, lineOf(p, 1, "M"))
	delivered := h.placeOrder(h.customer, models.OrderStatusDelivered, 20, lineOf(p, 1, "M"))

	query := func(orderID string) string {
		return "/reviews/eligibility?productId=" + p.ID.Hex() + "&orderId=" + orderID
	}

	w := h.do(http.MethodGet, query(delivered.OrderID), h.customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.Eligibility{CanReview: true}, decode[service.Eligibility](t, w))

	w = h.do(http.MethodGet, query(pending.OrderID), h.customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.Eligibility{Reason: service.ReasonNotDelivered}, decode[service.Eligibility](t, w))

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, query(delivered.OrderID), models.Identity{}, nil).Code)
}

func TestListReviews(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product("Shirt", 20)
	for i := 0; i < 3; i++ {
		order := h.placeOrder(h.customer, models.OrderStatusDelivered, 20, lineOf(p, 1, "M"))
		w := h.do(http.MethodPost, "/reviews", h.customer, reviewBody(p, order.OrderID, 5))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := h.do(http.MethodGet, "/reviews?productId="+p.ID.Hex()+"&page=1&limit=2", models.Identity{}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[service.ReviewPage](t, w)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Reviews, 2)

	w = h.do(http.MethodGet, "/reviews?status=pending", models.Identity{}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[service.ReviewPage](t, w).Total)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/reviews?status=bogus", models.Identity{}, nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/reviews?limit=0", models.Identity{}, nil).Code)
}

func TestRecomputeRatingEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product("Shirt", 20)
	order := h.placeOrder(h.customer, models.OrderStatusDelivered, 20, lineOf(p, 1, "M"))
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/reviews", h.customer, reviewBody(p, order.OrderID, 3)).Code)

	path := "/admin/api/products/" + p.ID.Hex() + "/recompute-rating"
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, path, h.customer, nil).Code)

	w := h.do(http.MethodPost, path, h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"reviewCount":1`)

	w = h.do(http.MethodPost, "/admin/api/products/"+primitive.NewObjectID().Hex()+"/recompute-rating", h.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
