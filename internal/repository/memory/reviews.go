package memory

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type ReviewStore struct {
	db *DB
}

func (s *ReviewStore) Insert(ctx context.Context, review *models.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.db.lock()()

	key := reviewKey{user: review.UserID, product: review.ProductID, order: review.OrderID}
	if _, taken := s.db.triples[key]; taken {
		return repository.ErrDuplicate
	}
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	stored := *review
	stored.Images = append([]string(nil), review.Images...)
	s.db.reviews[review.ID] = stored
	s.db.triples[key] = review.ID
	return nil
}

func (s *ReviewStore) Exists(ctx context.Context, userID, productID, orderID primitive.ObjectID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer s.db.lock()()

	_, ok := s.db.triples[reviewKey{user: userID, product: productID, order: orderID}]
	return ok, nil
}

func (s *ReviewStore) Find(ctx context.Context, filter repository.ReviewFilter, page, limit int64) ([]models.Review, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	defer s.db.lock()()

	matched := make([]models.Review, 0)
	for _, r := range s.db.reviews {
		if filter.ProductID != nil && r.ProductID != *filter.ProductID {
			continue
		}
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		matched = append(matched, r)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func (s *ReviewStore) ApprovedStats(ctx context.Context, productID primitive.ObjectID) (repository.RatingStats, error) {
	if err := ctx.Err(); err != nil {
		return repository.RatingStats{}, err
	}
	defer s.db.lock()()

	var sum, count int
	for _, r := range s.db.reviews {
		if r.ProductID != productID || r.Status != models.ReviewStatusApproved {
			continue
		}
		sum += r.Rating
		count++
	}
	if count == 0 {
		return repository.RatingStats{}, nil
	}
	return repository.RatingStats{Average: float64(sum) / float64(count), Count: count}, nil
}

func (s *ReviewStore) ReviewedSince(ctx context.Context, since time.Time) ([]primitive.ObjectID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.db.lock()()

	seen := make(map[primitive.ObjectID]struct{})
	ids := make([]primitive.ObjectID, 0)
	for _, r := range s.db.reviews {
		if r.Status != models.ReviewStatusApproved || r.UpdatedAt.Before(since) {
			continue
		}
		if _, ok := seen[r.ProductID]; ok {
			continue
		}
		seen[r.ProductID] = struct{}{}
		ids = append(ids, r.ProductID)
	}
	return ids, nil
}

// SetStatus changes a review's moderation status. Moderation has no HTTP
// surface; tests use this to exercise the approved-only aggregate.
func (s *ReviewStore) SetStatus(id primitive.ObjectID, status models.ReviewStatus) bool {
	defer s.db.lock()()

	r, ok := s.db.reviews[id]
	if !ok {
		return false
	}
	r.Status = status
	s.db.reviews[id] = r
	return true
}
