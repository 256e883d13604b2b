package database

import (
	"go.mongodb.org/mongo-driver/mongo"

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

// Stores groups the Mongo-backed repositories built from one database handle.
type Stores struct {
	Orders   *OrderStore
	Reviews  *ReviewStore
	Products *ProductStore
	Users    *UserStore
	Messages *MessageStore
}

func NewStores(db *mongo.Database) Stores {
	return Stores{
		Orders:   NewOrderStore(db),
		Reviews:  NewReviewStore(db),
		Products: NewProductStore(db),
		Users:    NewUserStore(db),
		Messages: NewMessageStore(db),
	}
}
