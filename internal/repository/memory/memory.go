// Package memory is an in-process implementation of the repository
// contracts. It enforces the same unique constraints as the Mongo indexes
// (order number, review triple, user email) and backs the service and
// handler tests.
package memory

import (
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repository"
)

var (
	_ repository.OrderRepository    = (*OrderStore)(nil)
	_ repository.ReviewRepository   = (*ReviewStore)(nil)
	_ repository.ProductRepository  = (*ProductStore)(nil)
	_ repository.UserRepository     = (*UserStore)(nil)
	_ repository.CartRepository     = (*UserStore)(nil)
	_ repository.WishlistRepository = (*UserStore)(nil)
	_ repository.MessageRepository  = (*MessageStore)(nil)
)

// DB is the shared state behind the stores. One mutex guards every
// collection, which keeps check-then-insert sequences atomic.
type DB struct {
	mu  sync.Mutex
	now func() time.Time

	orders   map[primitive.ObjectID]models.Order
	numbers  map[string]primitive.ObjectID
	reviews  map[primitive.ObjectID]models.Review
	triples  map[reviewKey]primitive.ObjectID
	products map[primitive.ObjectID]models.Product
	users    map[primitive.ObjectID]models.User
	emails   map[string]primitive.ObjectID
	messages map[primitive.ObjectID]models.Message

	Orders   *OrderStore
	Reviews  *ReviewStore
	Products *ProductStore
	Users    *UserStore
	Messages *MessageStore
}

type reviewKey struct {
	user, product, order primitive.ObjectID
}

func New() *DB {
	db := &DB{
		now:      time.Now,
		orders:   map[primitive.ObjectID]models.Order{},
		numbers:  map[string]primitive.ObjectID{},
		reviews:  map[primitive.ObjectID]models.Review{},
		triples:  map[reviewKey]primitive.ObjectID{},
		products: map[primitive.ObjectID]models.Product{},
		users:    map[primitive.ObjectID]models.User{},
		emails:   map[string]primitive.ObjectID{},
		messages: map[primitive.ObjectID]models.Message{},
	}
	db.Orders = &OrderStore{db: db}
	db.Reviews = &ReviewStore{db: db}
	db.Products = &ProductStore{db: db}
	db.Users = &UserStore{db: db}
	db.Messages = &MessageStore{db: db}
	return db
}

// SetClock overrides the time source used for write timestamps.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}

func (db *DB) lock() func() {
	db.mu.Lock()
	return db.mu.Unlock
}

func paginate[T any](items []T, page, limit int64) []T {
	if page <= 0 || limit <= 0 {
		return items
	}
	start := (page - 1) * limit
	if start >= int64(len(items)) {
		return []T{}
	}
	end := start + limit
	if end > int64(len(items)) {
		end = int64(len(items))
	}
	return items[start:end]
}
