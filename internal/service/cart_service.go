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

type CartLineInput struct {
	ProductID primitive.ObjectID `json:"product" validate:"required"`
	Size      string             `json:"size"`
	Quantity  int                `json:"quantity"`
}

// CartService edits the caller's cart. Writes replace the whole cart on the
// user document, last write wins.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

func (s *CartService) Get(ctx context.Context, actor models.Identity) ([]models.CartItem, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthRequired
	}
	items, err := s.carts.GetCart(ctx, actor.UserID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return items, nil
}

// Add merges into an existing (product, size) line or appends a new one.
func (s *CartService) Add(ctx context.Context, actor models.Identity, input CartLineInput) ([]models.CartItem, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthRequired
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("load product: %w", err)
	}

	qty := input.Quantity
	if qty < 1 {
		qty = 1
	}
	return s.mutate(ctx, actor, func(items []models.CartItem) ([]models.CartItem, error) {
		return mergeLine(items, models.CartItem{ProductID: input.ProductID, Size: input.Size, Quantity: qty}), nil
	})
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, actor models.Identity, input CartLineInput) ([]models.CartItem, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthRequired
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, func(items []models.CartItem) ([]models.CartItem, error) {
		if input.Quantity <= 0 {
			return removeLine(items, input.ProductID, input.Size), nil
		}
		return setQuantity(items, input.ProductID, input.Size, input.Quantity)
	})
}

func (s *CartService) Remove(ctx context.Context, actor models.Identity, productID primitive.ObjectID, size string) ([]models.CartItem, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthRequired
	}
	return s.mutate(ctx, actor, func(items []models.CartItem) ([]models.CartItem, error) {
		return removeLine(items, productID, size), nil
	})
}

func (s *CartService) Clear(ctx context.Context, actor models.Identity) error {
	if !actor.Authenticated() {
		return ErrAuthRequired
	}
	if err := s.carts.ClearCart(ctx, actor.UserID); err != nil {
		return mapUserErr(err)
	}
	zap.L().Debug("cart cleared", zap.String("area", "cart"), zap.String("user", actor.UserID.Hex()))
	return nil
}

func (s *CartService) mutate(ctx context.Context, actor models.Identity, fn func([]models.CartItem) ([]models.CartItem, error)) ([]models.CartItem, error) {
	items, err := s.carts.GetCart(ctx, actor.UserID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	next, err := fn(items)
	if err != nil {
		return nil, err
	}
	if err := s.carts.SaveCart(ctx, actor.UserID, next); err != nil {
		return nil, mapUserErr(err)
	}
	return next, nil
}

func mergeLine(items []models.CartItem, line models.CartItem) []models.CartItem {
	out := append([]models.CartItem(nil), items...)
	for i := range out {
		if out[i].ProductID == line.ProductID && out[i].Size == line.Size {
			out[i].Quantity += line.Quantity
			return out
		}
	}
	return append(out, line)
}

func setQuantity(items []models.CartItem, productID primitive.ObjectID, size string, qty int) ([]models.CartItem, error) {
	out := append([]models.CartItem(nil), items...)
	for i := range out {
		if out[i].ProductID == productID && out[i].Size == size {
			out[i].Quantity = qty
			return out, nil
		}
	}
	return nil, ErrCartItemMissing
}

func removeLine(items []models.CartItem, productID primitive.ObjectID, size string) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.ProductID == productID && item.Size == size {
			continue
		}
		out = append(out, item)
	}
	return out
}

func mapUserErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("user store: %w", err)
}
