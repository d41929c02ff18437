package service

import (
	"context"
	"errors"
	"time"

	"bevera/internal/domain"
	"bevera/internal/repository"

	"github.com/google/uuid"
)

var ErrNonPositiveRestock = errors.New("restock quantity must be positive")

// InventoryService defines the interface for stock management
type InventoryService interface {
	// Restock adds quantity units to a product's stock and records a
	// ledger movement. Quantity must be positive; order consumption is
	// recorded by checkout, not here.
	Restock(ctx context.Context, productID uuid.UUID, quantity int, reason string, actor uuid.UUID) (*domain.InventoryMovement, error)
	ListMovements(ctx context.Context, productID uuid.UUID) ([]*domain.InventoryMovement, error)
	// ListLowStock returns products at or below their low-stock threshold.
	ListLowStock(ctx context.Context) ([]*domain.Product, error)
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	productRepo   repository.ProductRepository
}

// NewInventoryService creates a new instance of InventoryService
func NewInventoryService(inventoryRepo repository.InventoryRepository, productRepo repository.ProductRepository) InventoryService {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
	}
}

func (s *inventoryService) Restock(ctx context.Context, productID uuid.UUID, quantity int, reason string, actor uuid.UUID) (*domain.InventoryMovement, error) {
	if quantity <= 0 {
		return nil, ErrNonPositiveRestock
	}
	if reason == "" {
		reason = "restock"
	}

	movement := &domain.InventoryMovement{
		ID:             uuid.New(),
		ProductID:      productID,
		QuantityChange: quantity,
		Reason:         reason,
		CreatedBy:      actor,
		CreatedAt:      time.Now(),
	}

	if err := s.inventoryRepo.Restock(ctx, movement); err != nil {
		return nil, err
	}

	return movement, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, productID uuid.UUID) ([]*domain.InventoryMovement, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.inventoryRepo.ListByProduct(ctx, productID)
}

func (s *inventoryService) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	return s.productRepo.ListLowStock(ctx)
}
