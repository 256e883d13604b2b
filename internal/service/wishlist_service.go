package service

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type WishlistService struct {
	wishlists repository.WishlistRepository
	products  repository.ProductRepository
}

func NewWishlistService(wishlists repository.WishlistRepository, products repository.ProductRepository) *WishlistService {
	return &WishlistService{wishlists: wishlists, products: products}
}

// Get returns the wishlisted products in the order they were added,
// skipping any that no longer exist.
func (s *WishlistService) Get(ctx context.Context, actor models.Identity) ([]models.Product, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthRequired
	}
	ids, err := s.wishlists.GetWishlist(ctx, actor.UserID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *WishlistService) Add(ctx context.Context, actor models.Identity, productID primitive.ObjectID) error {
	if !actor.Authenticated() {
		return ErrAuthRequired
	}
	if productID.IsZero() {
		return invalid("productId is required")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("load product: %w", err)
	}
	if err := s.wishlists.AddToWishlist(ctx, actor.UserID, productID); err != nil {
		return mapUserErr(err)
	}
	return nil
}

func (s *WishlistService) Remove(ctx context.Context, actor models.Identity, productID primitive.ObjectID) error {
	if !actor.Authenticated() {
		return ErrAuthRequired
	}
	if err := s.wishlists.RemoveFromWishlist(ctx, actor.UserID, productID); err != nil {
		return mapUserErr(err)
	}
	return nil
}

func (s *WishlistService) Clear(ctx context.Context, actor models.Identity) error {
	if !actor.Authenticated() {
		return ErrAuthRequired
	}
	if err := s.wishlists.ClearWishlist(ctx, actor.UserID); err != nil {
		return mapUserErr(err)
	}
	return nil
}
