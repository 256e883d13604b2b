package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type OrderStore struct {
	coll *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{coll: db.Collection(ordersCollection)}
}

func (s *OrderStore) Insert(ctx context.Context, order *models.Order) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, order)
	if err != nil {
		return mapError(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var order models.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, mapError(err)
	}
	return &order, nil
}

func (s *OrderStore) Find(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := s.coll.Find(ctx, orderQuery(filter), options.Find().SetSort(createdAtDesc()))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderStore) Update(ctx context.Context, id primitive.ObjectID, update repository.OrderUpdate) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var updated models.Order
	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": orderSet(update, time.Now())},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return nil, mapError(err)
	}
	return &updated, nil
}

func orderQuery(filter repository.OrderFilter) bson.M {
	query := bson.M{}
	if filter.UserID != nil {
		query["user"] = *filter.UserID
	}
	if filter.ProductID != nil {
		query["items.product"] = *filter.ProductID
	}
	if filter.CartCleared != nil {
		query["cartCleared"] = *filter.CartCleared
	}
	if !filter.CreatedAfter.IsZero() {
		query["createdAt"] = bson.M{"$gt": filter.CreatedAfter}
	}
	return query
}

func orderSet(update repository.OrderUpdate, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.PaymentStatus != nil {
		set["paymentStatus"] = *update.PaymentStatus
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}
	if update.IsRead != nil {
		set["isRead"] = *update.IsRead
	}
	if update.CartCleared != nil {
		set["cartCleared"] = *update.CartCleared
	}
	return set
}
