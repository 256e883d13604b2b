package service

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/repository"
)

const (
	defaultProductLimit = 20
	maxProductLimit     = 100
)

type ProductQuery struct {
	Category *primitive.ObjectID
	Search   string
	Page     int64
	Limit    int64
}

type ProductPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Page     int64            `json:"page"`
	Limit    int64            `json:"limit"`
}

type ProductService struct {
	products repository.ProductRepository
}

func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultProductLimit
	}
	if limit > maxProductLimit {
		limit = maxProductLimit
	}

	products, total, err := s.products.List(ctx, repository.ProductFilter{
		Category: q.Category,
		Search:   q.Search,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &ProductPage{Products: products, Total: total, Page: page, Limit: limit}, nil
}

// UpdatePricing changes list and sale price. Placed orders keep the prices
// they were created with.
func (s *ProductService) UpdatePricing(ctx context.Context, actor models.Identity, id primitive.ObjectID, input models.SaleUpdate) (*models.Product, error) {
	if !actor.IsAdmin {
		return nil, ErrAdminRequired
	}
	if input.Price == nil && input.OnSale == nil && input.SalePrice == nil {
		return nil, invalid("at least one of price, onSale, salePrice is required")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resolved, err := models.ResolveSaleUpdate(*existing, input)
	if err != nil {
		return nil, invalid(err.Error())
	}

	updated, err := s.products.UpdatePricing(ctx, id, resolved)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update pricing: %w", err)
	}
	zap.L().Info("product pricing updated",
		zap.String("area", "product"),
		zap.String("product", id.Hex()),
		zap.Float64("price", resolved.Price),
		zap.Bool("onSale", resolved.OnSale),
	)
	return updated, nil
}
