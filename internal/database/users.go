package database

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/repository"
)

// UserStore backs accounts, carts and wishlists; the latter two are arrays
// on the user document.
type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(usersCollection)}
}

func (s *UserStore) Insert(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if user.Cart == nil {
		user.Cart = []models.CartItem{}
	}
	if user.Wishlist == nil {
		user.Wishlist = []primitive.ObjectID{}
	}

	res, err := s.coll.InsertOne(ctx, user)
	if err != nil {
		return mapError(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := s.coll.FindOne(ctx, filter, opts...).Decode(&user); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (s *UserStore) GetCart(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	user, err := s.findOne(ctx, bson.M{"_id": userID}, options.FindOne().SetProjection(bson.M{"cart": 1}))
	if err != nil {
		return nil, err
	}
	if user.Cart == nil {
		return []models.CartItem{}, nil
	}
	return user.Cart, nil
}

func (s *UserStore) SaveCart(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	if items == nil {
		items = []models.CartItem{}
	}
	now := time.Now()
	return s.updateUser(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"cart":          items,
		"cartUpdatedAt": now,
		"updatedAt":     now,
	}})
}

func (s *UserStore) ClearCart(ctx context.Context, userID primitive.ObjectID) error {
	return s.SaveCart(ctx, userID, nil)
}

func (s *UserStore) ClearCartIfUnchangedSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	res, err := s.coll.UpdateOne(ctx, unchangedCartFilter(userID, since), bson.M{"$set": bson.M{
		"cart":          []models.CartItem{},
		"cartUpdatedAt": now,
		"updatedAt":     now,
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func unchangedCartFilter(userID primitive.ObjectID, since time.Time) bson.M {
	return bson.M{
		"_id": userID,
		"$or": bson.A{
			bson.M{"cartUpdatedAt": bson.M{"$lte": since}},
			bson.M{"cartUpdatedAt": bson.M{"$exists": false}},
		},
	}
}

func (s *UserStore) GetWishlist(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	user, err := s.findOne(ctx, bson.M{"_id": userID}, options.FindOne().SetProjection(bson.M{"wishlist": 1}))
	if err != nil {
		return nil, err
	}
	if user.Wishlist == nil {
		return []primitive.ObjectID{}, nil
	}
	return user.Wishlist, nil
}

func (s *UserStore) AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	return s.updateUser(ctx, bson.M{"_id": userID}, bson.M{
		"$addToSet": bson.M{"wishlist": productID},
		"$set":      bson.M{"updatedAt": time.Now()},
	})
}

func (s *UserStore) RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	return s.updateUser(ctx, bson.M{"_id": userID}, bson.M{
		"$pull": bson.M{"wishlist": productID},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

func (s *UserStore) ClearWishlist(ctx context.Context, userID primitive.ObjectID) error {
	return s.updateUser(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"wishlist":  []primitive.ObjectID{},
		"updatedAt": time.Now(),
	}})
}

func (s *UserStore) updateUser(ctx context.Context, filter, update bson.M) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
