package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type ReviewStore struct {
	coll *mongo.Collection
}

func NewReviewStore(db *mongo.Database) *ReviewStore {
	return &ReviewStore{coll: db.Collection(reviewsCollection)}
}

// Insert relies on the user_product_order_unique index; a concurrent second
// submission for the same triple comes back as repository.ErrDuplicate.
func (s *ReviewStore) Insert(ctx context.Context, review *models.Review) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, review)
	if err != nil {
		return mapError(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		review.ID = id
	}
	return nil
}

func (s *ReviewStore) Exists(ctx context.Context, userID, productID, orderID primitive.ObjectID) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	count, err := s.coll.CountDocuments(ctx, bson.M{
		"user":    userID,
		"product": productID,
		"order":   orderID,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *ReviewStore) Find(ctx context.Context, filter repository.ReviewFilter, page, limit int64) ([]models.Review, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := reviewQuery(filter)

	total, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.coll.Find(ctx, query, pageOptions(page, limit))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	reviews := make([]models.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

type ratingGroup struct {
	Average float64 `bson:"avgRating"`
	Count   int     `bson:"count"`
}

func (s *ReviewStore) ApprovedStats(ctx context.Context, productID primitive.ObjectID) (repository.RatingStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := s.coll.Aggregate(ctx, approvedStatsPipeline(productID))
	if err != nil {
		return repository.RatingStats{}, err
	}
	defer cursor.Close(ctx)

	var groups []ratingGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return repository.RatingStats{}, err
	}
	if len(groups) == 0 {
		return repository.RatingStats{}, nil
	}
	return repository.RatingStats{Average: groups[0].Average, Count: groups[0].Count}, nil
}

func (s *ReviewStore) ReviewedSince(ctx context.Context, since time.Time) ([]primitive.ObjectID, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	values, err := s.coll.Distinct(ctx, "product", reviewedSinceQuery(since))
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		id, ok := v.(primitive.ObjectID)
		if !ok {
			return nil, fmt.Errorf("review product has type %T", v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func reviewedSinceQuery(since time.Time) bson.M {
	return bson.M{
		"status":    models.ReviewStatusApproved,
		"updatedAt": bson.M{"$gte": since},
	}
}

func approvedStatsPipeline(productID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product": productID, "status": models.ReviewStatusApproved}}},
		{{Key: "$group", Value: bson.M{
			"_id":       nil,
			"avgRating": bson.M{"$avg": "$rating"},
			"count":     bson.M{"$sum": 1},
		}}},
	}
}

func reviewQuery(filter repository.ReviewFilter) bson.M {
	query := bson.M{}
	if filter.ProductID != nil {
		query["product"] = *filter.ProductID
	}
	if filter.UserID != nil {
		query["user"] = *filter.UserID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}
