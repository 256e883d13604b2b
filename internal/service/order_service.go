package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/repository"
)

const (
	// totalTolerance is how far the client's totalAmount may be from the
	// recomputed one before the order is rejected.
	totalTolerance = 0.01

	orderNumberAttempts = 2
	cartReconcileWindow = 24 * time.Hour
)

type OrderLineInput struct {
	ProductID primitive.ObjectID `json:"product" validate:"required"`
	Quantity  int                `json:"quantity" validate:"gte=1"`
	Size      string             `json:"size"`
}

type CreateOrderInput struct {
	Items           []OrderLineInput    `json:"items" validate:"required,min=1,dive"`
	CustomerInfo    models.CustomerInfo `json:"customerInfo"`
	SizeDescription string              `json:"sizeDescription"`
	TotalAmount     float64             `json:"totalAmount" validate:"gte=0"`
}

type UpdateStatusInput struct {
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	Notes         *string              `json:"notes"`
	// Force skips the transition table when strict transitions are on.
	Force bool `json:"force"`
}

// OrderQuery selects orders. UserID defaults to the caller; All lists every
// order and is admin only.
type OrderQuery struct {
	UserID    *primitive.ObjectID
	ProductID *primitive.ObjectID
	All       bool
}

// OrderService owns order creation, the status lifecycle and the cart-clear
// follow-up of a placed order.
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	events   notify.Publisher

	strict    bool
	cartRetry RetryConfig
	now       func() time.Time
	newNumber func(time.Time) (string, error)
}

type OrderOption func(*OrderService)

func WithStrictTransitions(strict bool) OrderOption {
	return func(s *OrderService) { s.strict = strict }
}

func WithOrderClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func WithOrderNumbers(gen func(time.Time) (string, error)) OrderOption {
	return func(s *OrderService) { s.newNumber = gen }
}

func WithCartClearRetry(cfg RetryConfig) OrderOption {
	return func(s *OrderService) { s.cartRetry = cfg }
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	events notify.Publisher,
	opts ...OrderOption,
) *OrderService {
	s := &OrderService{
		orders:    orders,
		products:  products,
		carts:     carts,
		events:    events,
		cartRetry: DefaultCartClearRetry(),
		now:       time.Now,
		newNumber: newOrderNumber,
	}
	if s.events == nil {
		s.events = notify.Discard{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func orderLog() *zap.Logger {
	return zap.L().With(zap.String("area", "order"))
}

/* =========================
   CREATE
========================= */

// Create places an order for the caller. Prices come from the catalog at
// this moment and are never read again for this order. Once the order is
// stored the call succeeds even if the cart clear or the notification
// fails.
func (s *OrderService) Create(ctx context.Context, actor models.Identity, input CreateOrderInput) (*models.Order, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthRequired
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	items, total, err := s.snapshotItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	if math.Abs(total-input.TotalAmount) > totalTolerance {
		return nil, invalidf("totalAmount %.2f does not match order total %.2f", input.TotalAmount, total)
	}

	customer := input.CustomerInfo
	if input.SizeDescription != "" {
		customer.SizeDescription = input.SizeDescription
	}

	now := s.now().UTC()
	order := &models.Order{
		UserID:        actor.UserID,
		Items:         items,
		CustomerInfo:  customer,
		TotalAmount:   total,
		Status:        models.OrderStatusReceived,
		PaymentStatus: models.PaymentStatusUnpaid,
		PaymentMethod: models.PaymentMethodCashOnDelivery,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.insertWithOrderNumber(ctx, order); err != nil {
		return nil, err
	}
	orderLog().Info("order created",
		zap.String("orderNumber", order.OrderNumber),
		zap.String("user", actor.UserID.Hex()),
		zap.Float64("total", total),
	)

	// The order is durable from here on; a client disconnect must not cut
	// the follow-up steps short.
	follow := context.WithoutCancel(ctx)
	s.clearCart(follow, order)

	s.events.Emit(notify.NewEvent(
		notify.EventOrderCreated,
		"New order",
		fmt.Sprintf("Order %s placed by %s", order.OrderNumber, customer.Name),
		map[string]any{
			"orderId":     order.ID.Hex(),
			"orderNumber": order.OrderNumber,
			"totalAmount": order.TotalAmount,
			"itemCount":   len(order.Items),
		},
	))
	return order, nil
}

func (s *OrderService) snapshotItems(ctx context.Context, lines []OrderLineInput) ([]models.OrderItem, float64, error) {
	ids := make([]primitive.ObjectID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load products: %w", err)
	}

	items := make([]models.OrderItem, 0, len(lines))
	var total float64
	for i, line := range lines {
		product, ok := catalog[line.ProductID]
		if !ok || !product.IsActive {
			return nil, 0, invalidf("items[%d].product %s is not available", i, line.ProductID.Hex())
		}
		price := product.EffectivePrice()
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Title:     product.Title,
			Quantity:  line.Quantity,
			Price:     price,
			Size:      line.Size,
		})
		total += price * float64(line.Quantity)
	}
	return items, roundCents(total), nil
}

func (s *OrderService) insertWithOrderNumber(ctx context.Context, order *models.Order) error {
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		number, err := s.newNumber(s.now())
		if err != nil {
			return err
		}
		order.OrderNumber = number

		err = s.orders.Insert(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("insert order: %w", err)
		}
		orderLog().Warn("order number collision", zap.String("orderNumber", number), zap.Int("attempt", attempt))
	}
	return ErrOrderNumberCollision
}

// clearCart empties the owner's cart with a few retries and records the
// outcome on the order. A failure leaves cartCleared=false for
// ReconcileCarts to finish.
func (s *OrderService) clearCart(ctx context.Context, order *models.Order) {
	err := retryWithBackoff(ctx, s.cartRetry, func(ctx context.Context) error {
		return s.carts.ClearCart(ctx, order.UserID)
	})
	if err != nil {
		orderLog().Warn("cart clear deferred to reconcile",
			zap.String("orderNumber", order.OrderNumber),
			zap.Error(err),
		)
		return
	}

	cleared := true
	if _, err := s.orders.Update(ctx, order.ID, repository.OrderUpdate{CartCleared: &cleared}); err != nil {
		orderLog().Warn("cart cleared but flag not saved", zap.String("orderNumber", order.OrderNumber), zap.Error(err))
		return
	}
	order.CartCleared = true
}

/* =========================
   STATUS
========================= */

// UpdateStatus is the admin status change. isRead is always set.
func (s *OrderService) UpdateStatus(ctx context.Context, actor models.Identity, id primitive.ObjectID, input UpdateStatusInput) (*models.Order, error) {
	if !actor.IsAdmin {
		return nil, ErrAdminRequired
	}
	if input.Status == "" {
		return nil, invalid("status is required")
	}
	if !input.Status.Valid() {
		return nil, invalidf("status %q is not one of %v", input.Status, models.OrderStatuses())
	}
	if input.PaymentStatus != "" && !input.PaymentStatus.Valid() {
		return nil, invalidf("paymentStatus %q is not a known payment status", input.PaymentStatus)
	}

	current, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, mapOrderErr(err)
	}
	if s.strict && !input.Force && !CanTransition(current.Status, input.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, input.Status)
	}

	read := true
	update := repository.OrderUpdate{
		Status: &input.Status,
		Notes:  input.Notes,
		IsRead: &read,
	}
	if input.PaymentStatus != "" {
		update.PaymentStatus = &input.PaymentStatus
	}

	updated, err := s.orders.Update(ctx, id, update)
	if err != nil {
		return nil, mapOrderErr(err)
	}

	orderLog().Info("order status updated",
		zap.String("orderNumber", updated.OrderNumber),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.Bool("forced", input.Force),
	)
	if current.Status != updated.Status {
		s.events.Emit(notify.NewEvent(
			notify.EventOrderStatusChanged,
			"Order status changed",
			fmt.Sprintf("Order %s is now %s", updated.OrderNumber, updated.Status),
			map[string]any{
				"orderId":     updated.ID.Hex(),
				"orderNumber": updated.OrderNumber,
				"from":        string(current.Status),
				"to":          string(updated.Status),
			},
		))
	}
	return updated, nil
}

/* =========================
   READ
========================= */

// List returns orders newest first. Non-admin callers only ever see their
// own orders.
func (s *OrderService) List(ctx context.Context, actor models.Identity, q OrderQuery) ([]models.Order, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthRequired
	}

	filter := repository.OrderFilter{ProductID: q.ProductID}
	switch {
	case q.All:
		if !actor.IsAdmin {
			return nil, ErrAdminRequired
		}
		filter.UserID = q.UserID
	case q.UserID != nil && *q.UserID != actor.UserID:
		if !actor.IsAdmin {
			return nil, fmt.Errorf("%w: cannot list another user's orders", ErrForbidden)
		}
		filter.UserID = q.UserID
	default:
		self := actor.UserID
		filter.UserID = &self
	}

	orders, err := s.orders.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, actor models.Identity, id primitive.ObjectID) (*models.Order, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthRequired
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, mapOrderErr(err)
	}
	if !actor.IsAdmin && order.UserID != actor.UserID {
		return nil, ErrNotOrderOwner
	}
	return order, nil
}

/* =========================
   RECONCILE
========================= */

// ReconcileCarts finishes cart clears that failed during Create. A cart the
// user has written to since the order was placed is left alone; either way
// the order is marked done.
func (s *OrderService) ReconcileCarts(ctx context.Context) (int, error) {
	pending := false
	orders, err := s.orders.Find(ctx, repository.OrderFilter{
		CartCleared:  &pending,
		CreatedAfter: s.now().Add(-cartReconcileWindow),
	})
	if err != nil {
		return 0, fmt.Errorf("find pending cart clears: %w", err)
	}

	repaired := 0
	for _, order := range orders {
		cleared, err := s.carts.ClearCartIfUnchangedSince(ctx, order.UserID, order.CreatedAt)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			orderLog().Warn("reconcile cart clear failed", zap.String("orderNumber", order.OrderNumber), zap.Error(err))
			continue
		}

		done := true
		if _, err := s.orders.Update(ctx, order.ID, repository.OrderUpdate{CartCleared: &done}); err != nil {
			orderLog().Warn("reconcile flag not saved", zap.String("orderNumber", order.OrderNumber), zap.Error(err))
			continue
		}
		orderLog().Debug("cart reconciled", zap.String("orderNumber", order.OrderNumber), zap.Bool("cleared", cleared))
		repaired++
	}
	return repaired, nil
}

func mapOrderErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrOrderNotFound
	}
	return fmt.Errorf("order store: %w", err)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
