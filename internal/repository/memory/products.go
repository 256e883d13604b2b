package memory

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type ProductStore struct {
	db *DB
}

// Put seeds or replaces a catalog product.
func (s *ProductStore) Put(p models.Product) models.Product {
	defer s.db.lock()()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.db.now()
	}
	s.db.products[p.ID] = p
	p.Decorate()
	return p
}

func (s *ProductStore) get(id primitive.ObjectID) (models.Product, bool) {
	p, ok := s.db.products[id]
	if ok {
		p.Decorate()
	}
	return p, ok
}

func (s *ProductStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.db.lock()()

	p, ok := s.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *ProductStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.db.lock()()

	out := make(map[primitive.ObjectID]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.get(id); ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *ProductStore) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	defer s.db.lock()()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]models.Product, 0)
	for id := range s.db.products {
		p, _ := s.get(id)
		if !p.IsActive {
			continue
		}
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (s *ProductStore) UpdatePricing(ctx context.Context, id primitive.ObjectID, pricing models.SaleUpdateResult) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.db.lock()()

	p, ok := s.db.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.Price = pricing.Price
	p.OnSale = pricing.OnSale
	p.SalePrice = pricing.SalePrice
	p.UpdatedAt = s.db.now()
	s.db.products[id] = p

	p.Decorate()
	return &p, nil
}

func (s *ProductStore) SetRating(ctx context.Context, id primitive.ObjectID, summary models.RatingSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.db.lock()()

	p, ok := s.db.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.AverageRating = summary.AverageRating
	p.ReviewCount = summary.ReviewCount
	s.db.products[id] = p
	return nil
}
