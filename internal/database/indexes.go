package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

// indexPlan lists every index the services rely on. The two unique indexes
// on orders.orderNumber and on the review triple are the storage-level
// backstops for order-number collisions and duplicate reviews.
func indexPlan() []collectionIndexes {
	return []collectionIndexes{
		{
			collection: ordersCollection,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "orderNumber", Value: 1}},
					Options: options.Index().SetName("orderNumber_unique").SetUnique(true),
				},
				{
					Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
					Options: options.Index().SetName("user_createdAt"),
				},
				{
					Keys:    bson.D{{Key: "items.product", Value: 1}},
					Options: options.Index().SetName("items_product"),
				},
				{
					Keys: bson.D{{Key: "cartCleared", Value: 1}, {Key: "createdAt", Value: -1}},
					Options: options.Index().
						SetName("cartCleared_pending").
						SetPartialFilterExpression(bson.M{"cartCleared": false}),
				},
			},
		},
		{
			collection: reviewsCollection,
			models: []mongo.IndexModel{
				{
					Keys: bson.D{
						{Key: "user", Value: 1},
						{Key: "product", Value: 1},
						{Key: "order", Value: 1},
					},
					Options: options.Index().SetName("user_product_order_unique").SetUnique(true),
				},
				{
					Keys: bson.D{
						{Key: "product", Value: 1},
						{Key: "status", Value: 1},
						{Key: "createdAt", Value: -1},
					},
					Options: options.Index().SetName("product_status_createdAt"),
				},
				{
					Keys:    bson.D{{Key: "status", Value: 1}, {Key: "updatedAt", Value: -1}},
					Options: options.Index().SetName("status_updatedAt"),
				},
			},
		},
		{
			collection: usersCollection,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "email", Value: 1}},
					Options: options.Index().SetName("email_unique").SetUnique(true),
				},
			},
		},
		{
			collection: messagesCollection,
			models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "createdAt", Value: -1}},
					Options: options.Index().SetName("createdAt_desc"),
				},
			},
		},
	}
}

// EnsureIndexes creates the indexes in indexPlan. The unique indexes are
// required for correctness, so any failure is returned to the caller.
func EnsureIndexes(db *mongo.Database) error {
	return ensureIndexPlan(indexPlan(), func(ctx context.Context, collection string, models []mongo.IndexModel) ([]string, error) {
		return db.Collection(collection).Indexes().CreateMany(ctx, models)
	})
}

type indexCreator func(ctx context.Context, collection string, models []mongo.IndexModel) ([]string, error)

// ensureIndexPlan stops at the first collection that fails.
func ensureIndexPlan(plan []collectionIndexes, create indexCreator) error {
	log := zap.L().With(zap.String("area", "database"))

	for _, p := range plan {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		names, err := create(ctx, p.collection, p.models)
		cancel()
		if err != nil {
			log.Error("index creation failed", zap.String("collection", p.collection), zap.Error(err))
			return fmt.Errorf("%s indexes: %w", p.collection, err)
		}
		log.Info("indexes ensured", zap.String("collection", p.collection), zap.Strings("names", names))
	}
	return nil
}
