package memory

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type OrderStore struct {
	db *DB
}

func (s *OrderStore) Insert(ctx context.Context, order *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.db.lock()()

	if _, taken := s.db.numbers[order.OrderNumber]; taken {
		return repository.ErrDuplicate
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, taken := s.db.orders[order.ID]; taken {
		return repository.ErrDuplicate
	}
	s.db.orders[order.ID] = cloneOrder(*order)
	s.db.numbers[order.OrderNumber] = order.ID
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.db.lock()()

	order, ok := s.db.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneOrder(order)
	return &out, nil
}

func (s *OrderStore) Find(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.db.lock()()

	out := make([]models.Order, 0)
	for _, order := range s.db.orders {
		if filter.UserID != nil && order.UserID != *filter.UserID {
			continue
		}
		if filter.ProductID != nil && !order.ContainsProduct(*filter.ProductID) {
			continue
		}
		if filter.CartCleared != nil && order.CartCleared != *filter.CartCleared {
			continue
		}
		if !filter.CreatedAfter.IsZero() && !order.CreatedAt.After(filter.CreatedAfter) {
			continue
		}
		out = append(out, cloneOrder(order))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *OrderStore) Update(ctx context.Context, id primitive.ObjectID, update repository.OrderUpdate) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.db.lock()()

	order, ok := s.db.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Status != nil {
		order.Status = *update.Status
	}
	if update.PaymentStatus != nil {
		order.PaymentStatus = *update.PaymentStatus
	}
	if update.Notes != nil {
		order.Notes = *update.Notes
	}
	if update.IsRead != nil {
		order.IsRead = *update.IsRead
	}
	if update.CartCleared != nil {
		order.CartCleared = *update.CartCleared
	}
	order.UpdatedAt = s.db.now()
	s.db.orders[id] = order

	out := cloneOrder(order)
	return &out, nil
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}
