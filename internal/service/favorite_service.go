package service

import (
	"context"

	"bevera/internal/domain"
	"bevera/internal/repository"

	"github.com/google/uuid"
)

// FavoriteService defines the interface for client product bookmarks
type FavoriteService interface {
	// Toggle flips a product's favorite state for the user and reports
	// whether the product is now favorited.
	Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Product, error)
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
}

// NewFavoriteService creates a new instance of FavoriteService
func NewFavoriteService(favoriteRepo repository.FavoriteRepository) FavoriteService {
	return &favoriteService{favoriteRepo: favoriteRepo}
}

func (s *favoriteService) Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.favoriteRepo.Toggle(ctx, userID, productID)
}

func (s *favoriteService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Product, error) {
	return s.favoriteRepo.ListByUser(ctx, userID)
}
