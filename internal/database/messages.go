package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type MessageStore struct {
	coll *mongo.Collection
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{coll: db.Collection(messagesCollection)}
}

func (s *MessageStore) Insert(ctx context.Context, msg *models.Message) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, msg)
	if err != nil {
		return mapError(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = id
	}
	return nil
}

func (s *MessageStore) List(ctx context.Context, page, limit int64) ([]models.Message, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.coll.Find(ctx, bson.M{}, pageOptions(page, limit))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	messages := make([]models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (s *MessageStore) SetRead(ctx context.Context, id primitive.ObjectID, read bool) (*models.Message, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var updated models.Message
	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isRead": read}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return nil, mapError(err)
	}
	return &updated, nil
}

func (s *MessageStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
