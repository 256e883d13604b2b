// Package repository declares the persistence contracts used by the
// services. internal/database implements them on MongoDB and
// internal/repository/memory keeps an in-process version with the same
// unique constraints.
package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

var (
	ErrNotFound  = errors.New("repository: not found")
	ErrDuplicate = errors.New("repository: duplicate key")
)

type OrderFilter struct {
	UserID       *primitive.ObjectID
	ProductID    *primitive.ObjectID
	CartCleared  *bool
	CreatedAfter time.Time
}

type OrderUpdate struct {
	Status        *models.OrderStatus
	PaymentStatus *models.PaymentStatus
	Notes         *string
	IsRead        *bool
	CartCleared   *bool
}

// OrderRepository stores orders. Insert must fail with ErrDuplicate when the
// order number is already taken. Find returns newest first.
type OrderRepository interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Find(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	Update(ctx context.Context, id primitive.ObjectID, update OrderUpdate) (*models.Order, error)
}

type ReviewFilter struct {
	ProductID *primitive.ObjectID
	UserID    *primitive.ObjectID
	Status    models.ReviewStatus
}

// RatingStats is the raw aggregate over approved reviews, before rounding.
type RatingStats struct {
	Average float64
	Count   int
}

// ReviewRepository stores reviews. Insert must fail with ErrDuplicate when a
// review for the same (user, product, order) already exists.
type ReviewRepository interface {
	Insert(ctx context.Context, review *models.Review) error
	Exists(ctx context.Context, userID, productID, orderID primitive.ObjectID) (bool, error)
	Find(ctx context.Context, filter ReviewFilter, page, limit int64) ([]models.Review, int64, error)
	ApprovedStats(ctx context.Context, productID primitive.ObjectID) (RatingStats, error)
	// ReviewedSince returns the distinct products with an approved review
	// updated at or after since.
	ReviewedSince(ctx context.Context, since time.Time) ([]primitive.ObjectID, error)
}

type ProductFilter struct {
	Category *primitive.ObjectID
	Search   string
	Page     int64
	Limit    int64
}

type ProductRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	UpdatePricing(ctx context.Context, id primitive.ObjectID, pricing models.SaleUpdateResult) (*models.Product, error)
	SetRating(ctx context.Context, id primitive.ObjectID, summary models.RatingSummary) error
}

type UserRepository interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// CartRepository keeps the cart on the owning user document. Writes are
// last-write-wins.
type CartRepository interface {
	GetCart(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error)
	SaveCart(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error
	ClearCart(ctx context.Context, userID primitive.ObjectID) error
	// ClearCartIfUnchangedSince empties the cart only when it has not been
	// written after since. It reports whether the cart was cleared.
	ClearCartIfUnchangedSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (bool, error)
}

type WishlistRepository interface {
	GetWishlist(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error
	RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) error
	ClearWishlist(ctx context.Context, userID primitive.ObjectID) error
}

type MessageRepository interface {
	Insert(ctx context.Context, msg *models.Message) error
	List(ctx context.Context, page, limit int64) ([]models.Message, int64, error)
	SetRead(ctx context.Context, id primitive.ObjectID, read bool) (*models.Message, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
