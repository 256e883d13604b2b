package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/reconcile"
	"storefront/internal/repository/memory"
	"storefront/internal/service"
)

const testSecret = "handler-secret"

type harness struct {
	t      *testing.T
	db     *memory.DB
	router *gin.Engine

	customer, other, admin models.Identity
}

func newHarness(t *testing.T, events EventSource) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := memory.New()
	verifier, err := auth.NewVerifier(testSecret, 64)
	require.NoError(t, err)

	accounts := service.NewAuthService(db.Users, notify.Discard{}, testSecret, time.Hour)
	orders := service.NewOrderService(db.Orders, db.Products, db.Users, notify.Discard{},
		service.WithCartClearRetry(service.RetryConfig{MaxAttempts: 1}))
	d := Deps{
		Verifier: verifier,
		Orders:   orders,
		Reviews:  service.NewReviewService(db.Reviews, db.Orders, db.Products, reconcile.NewMemoryTracker(), notify.Discard{}),
		Products: service.NewProductService(db.Products),
		Carts:    service.NewCartService(db.Users, db.Products),
		Wishlist: service.NewWishlistService(db.Users, db.Products),
		Messages: service.NewMessageService(db.Messages, notify.Discard{}),
		Accounts: accounts,
		Events:   events,
	}

	h := &harness{t: t, db: db, router: NewRouter(d)}
	h.customer = h.user("buyer@example.com", false)
	h.other = h.user("other@example.com", false)
	h.admin = h.user("admin@example.com", true)
	return h
}

func (h *harness) user(email string, admin bool) models.Identity {
	h.t.Helper()
	u := &models.User{Name: "User", Email: email, IsAdmin: admin}
	require.NoError(h.t, h.db.Users.Insert(context.Background(), u))
	return models.Identity{UserID: u.ID, Email: email, IsAdmin: admin}
}

func (h *harness) token(identity models.Identity) string {
	h.t.Helper()
	raw, _, err := auth.Issue(identity, testSecret, time.Hour, time.Now())
	require.NoError(h.t, err)
	return raw
}

func (h *harness) product(title string, price float64) models.Product {
	return h.db.Products.Put(models.Product{Title: title, Price: price, IsActive: true, Stock: 5})
}

// do sends body as JSON. A zero identity sends no Authorization header.
func (h *harness) do(method, path string, as models.Identity, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+h.token(as))
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func orderBody(total float64, lines ...gin.H) gin.H {
	return gin.H{
		"items": lines,
		"customerInfo": gin.H{
			"name":  "Ada Buyer",
			"phone": "+90 555 000 0000",
			"address": gin.H{
				"street":  "1 Market St",
				"city":    "Izmir",
				"state":   "Izmir",
				"zipCode": "35000",
				"country": "TR",
			},
		},
		"totalAmount": total,
	}
}

func lineOf(p models.Product, qty int, size string) gin.H {
	return gin.H{"product": p.ID.Hex(), "quantity": qty, "size": size}
}

type createdOrder struct {
	Success     bool   `json:"success"`
	OrderNumber string `json:"orderNumber"`
	OrderID     string `json:"orderId"`
}

// placeOrder creates an order through the API and moves it to status.
func (h *harness) placeOrder(as models.Identity, status models.OrderStatus, total float64, lines ...gin.H) createdOrder {
	h.t.Helper()
	w := h.do(http.MethodPost, "/orders", as, orderBody(total, lines...))
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[createdOrder](h.t, w)

	if status != models.OrderStatusReceived {
		w = h.do(http.MethodPatch, "/orders/"+created.OrderID, h.admin, gin.H{"status": status})
		require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	}
	return created
}
