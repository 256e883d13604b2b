package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/service"
)

func TestRespondServiceErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{service.ErrAuthRequired, http.StatusUnauthorized, "authentication required"},
		{service.ErrAdminRequired, http.StatusUnauthorized, "admin access required"},
		{service.ErrNotOrderOwner, http.StatusForbidden, "order belongs to another user"},
		{service.ErrOrderNotDelivered, http.StatusNotFound, "order has not been delivered"},
		{service.ErrDuplicateReview, http.StatusConflict, "review already exists"},
		{fmt.Errorf("%w: Received -> Delivered", service.ErrInvalidTransition), http.StatusConflict, "status transition not allowed"},
		{&service.ValidationError{Details: []string{"title is required"}}, http.StatusBadRequest, "title is required"},
		{errors.New("socket closed"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondServiceError(c, "TEST", tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), tc.body)
	}
}

func TestHealthReportsDatabaseState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var down error
	r := gin.New()
	r.GET("/healthz", Health(func(ctx context.Context) error { return down }))

	get := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		return w
	}

	w := get()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	down = errors.New("server selection timeout")
	w = get()
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"database unavailable"}`, w.Body.String())
}

func TestHealthWithoutCheck(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodGet, "/healthz", models.Identity{}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParsePaginationParams(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	require.NoError(t, err)
	assert.Zero(t, page)
	assert.Zero(t, limit)

	page, limit, err = parsePaginationParams("3", "15")
	require.NoError(t, err)
	assert.EqualValues(t, 3, page)
	assert.EqualValues(t, 15, limit)

	for _, bad := range [][2]string{{"0", ""}, {"x", ""}, {"", "-1"}} {
		_, _, err := parsePaginationParams(bad[0], bad[1])
		assert.ErrorIs(t, err, errInvalidPagination)
	}
}

func TestCartEndpoints(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product("Shirt", 20)

	w := h.do(http.MethodPost, "/cart", h.customer, gin.H{"product": p.ID.Hex(), "size": "M", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodPut, "/cart", h.customer, gin.H{"product": p.ID.Hex(), "size": "M", "quantity": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"quantity":5`)

	w = h.do(http.MethodPut, "/cart", h.customer, gin.H{"product": p.ID.Hex(), "size": "XL", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodDelete, "/cart", h.customer, gin.H{"product": p.ID.Hex(), "size": "M"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())

	w = h.do(http.MethodPost, "/cart", h.customer, gin.H{"product": primitive.NewObjectID().Hex()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/cart/clear", h.customer, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/cart", models.Identity{}, nil).Code)
}

func TestWishlistEndpoints(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product("Shirt", 20)

	for i := 0; i < 2; i++ {
		w := h.do(http.MethodPost, "/wishlist", h.customer, gin.H{"productId": p.ID.Hex()})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := h.do(http.MethodGet, "/wishlist", h.customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Products []models.Product `json:"products"`
	}](t, w)
	require.Len(t, list.Products, 1)
	assert.Equal(t, p.ID, list.Products[0].ID)

	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/wishlist/"+p.ID.Hex(), h.customer, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/wishlist/clear", h.customer, nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/wishlist", h.customer, gin.H{}).Code)
}

func TestProductEndpoints(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product("Linen Shirt", 40)
	h.product("Wool Coat", 120)

	w := h.do(http.MethodGet, "/products?search=linen", models.Identity{}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Linen Shirt")
	assert.NotContains(t, w.Body.String(), "Wool Coat")

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/products?page=0", models.Identity{}, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/products/"+primitive.NewObjectID().Hex(), models.Identity{}, nil).Code)

	path := "/admin/api/products/" + p.ID.Hex() + "/pricing"
	w = h.do(http.MethodPut, path, h.admin, gin.H{"onSale": true, "salePrice": 30})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[models.Product](t, w).IsOnSale)

	w = h.do(http.MethodPut, path, h.admin, gin.H{"salePrice": 50})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPut, path, h.customer, gin.H{"price": 1}).Code)
}

func TestAuthEndpoints(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodPost, "/auth/register", models.Identity{}, gin.H{
		"name": "Ada", "email": "ada@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(http.MethodPost, "/auth/register", models.Identity{}, gin.H{
		"name": "Ada", "email": "ada@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPost, "/auth/register", models.Identity{}, gin.H{"email": "x@example.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name is required")

	w = h.do(http.MethodPost, "/auth/login", models.Identity{}, gin.H{"email": "ada@example.com", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/auth/login", models.Identity{}, gin.H{"email": "ada@example.com", "password": "hunter22"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[service.AuthResult](t, w)
	require.NotEmpty(t, login.AccessToken)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ada@example.com")
}

func TestMessageEndpoints(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodPost, "/message", models.Identity{}, gin.H{
		"name": "Ada", "email": "ada@example.com", "message": "Hello",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[struct {
		ID string `json:"id"`
	}](t, w).ID

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/message", models.Identity{}, gin.H{"name": "Ada"}).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/admin/api/messages", h.customer, nil).Code)

	w = h.do(http.MethodGet, "/admin/api/messages", h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[service.MessagePage](t, w).Total)

	w = h.do(http.MethodPatch, "/admin/api/messages/"+id, h.admin, gin.H{"isRead": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.Message](t, w).IsRead)

	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/admin/api/messages/"+id, h.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/admin/api/messages/"+id, h.admin, nil).Code)
}

// closeNotifyRecorder adds the CloseNotifier that gin's Stream expects.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyRecorder) CloseNotify() <-chan bool { return r.closed }

type fixedSource struct {
	events chan notify.Event
}

func (s fixedSource) Subscribe() (<-chan notify.Event, func()) { return s.events, func() {} }

func TestNotificationsStream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	src := fixedSource{events: make(chan notify.Event, 2)}
	src.events <- notify.NewEvent(notify.EventOrderCreated, "New order", "Order AN1 placed", nil)
	src.events <- notify.NewEvent(notify.EventReviewCreated, "New review", "5-star review", nil)
	close(src.events)

	r := gin.New()
	r.GET("/stream", Notifications(src, time.Hour))

	w := &closeNotifyRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream", nil))

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "event:connected"), body)
	assert.Contains(t, body, "event:"+notify.EventOrderCreated)
	assert.Contains(t, body, "event:"+notify.EventReviewCreated)
	assert.Contains(t, body, "Order AN1 placed")
}
