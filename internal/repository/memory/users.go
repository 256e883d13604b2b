package memory

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repository"
)

// UserStore keeps accounts together with their carts and wishlists.
type UserStore struct {
	db *DB
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserStore) Insert(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.db.lock()()

	email := normalizeEmail(user.Email)
	if _, taken := s.db.emails[email]; taken {
		return repository.ErrDuplicate
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Cart == nil {
		user.Cart = []models.CartItem{}
	}
	if user.Wishlist == nil {
		user.Wishlist = []primitive.ObjectID{}
	}
	s.db.users[user.ID] = *user
	s.db.emails[email] = user.ID
	return nil
}

func (s *UserStore) get(id primitive.ObjectID) (models.User, error) {
	u, ok := s.db.users[id]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.db.lock()()

	u, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.db.lock()()

	id, ok := s.db.emails[normalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := s.db.users[id]
	return &u, nil
}

func (s *UserStore) GetCart(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.db.lock()()

	u, err := s.get(userID)
	if err != nil {
		return nil, err
	}
	return append([]models.CartItem{}, u.Cart...), nil
}

func (s *UserStore) SaveCart(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.db.lock()()

	u, err := s.get(userID)
	if err != nil {
		return err
	}
	now := s.db.now()
	u.Cart = append([]models.CartItem{}, items...)
	u.CartUpdatedAt = now
	u.UpdatedAt = now
	s.db.users[userID] = u
	return nil
}

func (s *UserStore) ClearCart(ctx context.Context, userID primitive.ObjectID) error {
	return s.SaveCart(ctx, userID, nil)
}

func (s *UserStore) ClearCartIfUnchangedSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer s.db.lock()()

	u, err := s.get(userID)
	if err != nil {
		return false, err
	}
	if u.CartUpdatedAt.After(since) {
		return false, nil
	}
	now := s.db.now()
	u.Cart = []models.CartItem{}
	u.CartUpdatedAt = now
	u.UpdatedAt = now
	s.db.users[userID] = u
	return true, nil
}

func (s *UserStore) GetWishlist(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.db.lock()()

	u, err := s.get(userID)
	if err != nil {
		return nil, err
	}
	return append([]primitive.ObjectID{}, u.Wishlist...), nil
}

func (s *UserStore) AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	return s.mutateWishlist(ctx, userID, func(list []primitive.ObjectID) []primitive.ObjectID {
		for _, id := range list {
			if id == productID {
				return list
			}
		}
		return append(list, productID)
	})
}

func (s *UserStore) RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	return s.mutateWishlist(ctx, userID, func(list []primitive.ObjectID) []primitive.ObjectID {
		out := make([]primitive.ObjectID, 0, len(list))
		for _, id := range list {
			if id != productID {
				out = append(out, id)
			}
		}
		return out
	})
}

func (s *UserStore) ClearWishlist(ctx context.Context, userID primitive.ObjectID) error {
	return s.mutateWishlist(ctx, userID, func([]primitive.ObjectID) []primitive.ObjectID {
		return []primitive.ObjectID{}
	})
}

func (s *UserStore) mutateWishlist(ctx context.Context, userID primitive.ObjectID, fn func([]primitive.ObjectID) []primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.db.lock()()

	u, err := s.get(userID)
	if err != nil {
		return err
	}
	u.Wishlist = fn(append([]primitive.ObjectID{}, u.Wishlist...))
	u.UpdatedAt = s.db.now()
	s.db.users[userID] = u
	return nil
}
