package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/reconcile"
	"storefront/internal/repository/memory"
)

type captureEvents struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *captureEvents) Emit(event notify.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureEvents) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	db      *memory.DB
	events  *captureEvents
	tracker *reconcile.MemoryTracker
	now     time.Time

	orders   *OrderService
	reviews  *ReviewService
	products *ProductService
	carts    *CartService

	customer models.Identity
	admin    models.Identity
}

func newFixture(t *testing.T, opts ...OrderOption) *fixture {
	t.Helper()

	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		db:      memory.New(),
		events:  &captureEvents{},
		tracker: reconcile.NewMemoryTracker(),
		now:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	f.db.SetClock(f.clock)

	opts = append([]OrderOption{
		WithOrderClock(f.clock),
		WithCartClearRetry(RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 1}),
	}, opts...)
	f.orders = NewOrderService(f.db.Orders, f.db.Products, f.db.Users, f.events, opts...)
	f.reviews = NewReviewService(f.db.Reviews, f.db.Orders, f.db.Products, f.tracker, f.events)
	f.reviews.now = f.clock
	f.products = NewProductService(f.db.Products)
	f.carts = NewCartService(f.db.Users, f.db.Products)

	f.customer = f.newUser("buyer@example.com")
	f.admin = models.Identity{UserID: primitive.NewObjectID(), Email: "admin@example.com", IsAdmin: true}
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) newUser(email string) models.Identity {
	f.t.Helper()
	user := &models.User{Name: "Test User", Email: email}
	require.NoError(f.t, f.db.Users.Insert(f.ctx, user))
	return models.Identity{UserID: user.ID, Email: email}
}

func (f *fixture) product(title string, price float64) models.Product {
	return f.db.Products.Put(models.Product{Title: title, Price: price, IsActive: true, Stock: 10})
}

func (f *fixture) saleProduct(title string, price, sale float64) models.Product {
	return f.db.Products.Put(models.Product{Title: title, Price: price, OnSale: true, SalePrice: sale, IsActive: true, Stock: 10})
}

func validCustomer() models.CustomerInfo {
	return models.CustomerInfo{
		Name:  "Ada Buyer",
		Phone: "+90 555 000 0000",
		Address: models.Address{
			Street:  "1 Market St",
			City:    "Izmir",
			State:   "Izmir",
			ZipCode: "35000",
			Country: "TR",
		},
	}
}

type line struct {
	product models.Product
	qty     int
	size    string
}

func orderInput(lines ...line) CreateOrderInput {
	in := CreateOrderInput{CustomerInfo: validCustomer()}
	var total float64
	for _, l := range lines {
		in.Items = append(in.Items, OrderLineInput{ProductID: l.product.ID, Quantity: l.qty, Size: l.size})
		total += l.product.EffectivePrice() * float64(l.qty)
	}
	in.TotalAmount = total
	return in
}

// placeOrder creates an order for actor and moves it to status.
func (f *fixture) placeOrder(actor models.Identity, status models.OrderStatus, lines ...line) *models.Order {
	f.t.Helper()
	order, err := f.orders.Create(f.ctx, actor, orderInput(lines...))
	require.NoError(f.t, err)
	if status != models.OrderStatusReceived {
		order, err = f.orders.UpdateStatus(f.ctx, f.admin, order.ID, UpdateStatusInput{Status: status})
		require.NoError(f.t, err)
	}
	return order
}
