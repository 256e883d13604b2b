package memory

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type MessageStore struct {
	db *DB
}

func (s *MessageStore) Insert(ctx context.Context, msg *models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.db.lock()()

	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	s.db.messages[msg.ID] = *msg
	return nil
}

func (s *MessageStore) List(ctx context.Context, page, limit int64) ([]models.Message, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	defer s.db.lock()()

	all := make([]models.Message, 0, len(s.db.messages))
	for _, m := range s.db.messages {
		all = append(all, m)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, page, limit), int64(len(all)), nil
}

func (s *MessageStore) SetRead(ctx context.Context, id primitive.ObjectID, read bool) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.db.lock()()

	m, ok := s.db.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m.IsRead = read
	s.db.messages[id] = m
	return &m, nil
}

func (s *MessageStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.db.lock()()

	if _, ok := s.db.messages[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.db.messages, id)
	return nil
}
