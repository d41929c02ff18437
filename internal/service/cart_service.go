package service

import (
	"context"
	"time"

	"bevera/internal/domain"
	"bevera/internal/repository"

	"github.com/google/uuid"
)

// CartService defines the interface for the persisted client cart
type CartService interface {
	// Add puts quantity units of a product into the user's cart. Adding a
	// product already in the cart merges quantities. Quantities below one
	// are clamped to one.
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	// UpdateQuantity replaces an existing line's quantity; zero or negative
	// removes the line. Updating a line that is not in the cart fails with
	// repository.ErrCartItemNotFound.
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	// Remove deletes a line. Removing an absent line is a no-op.
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	// View returns the priced cart with per-line and grand totals.
	View(ctx context.Context, userID uuid.UUID) (*domain.CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}

	item := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: product.Price,
		CreatedAt: time.Now(),
	}

	return s.cartRepo.Upsert(ctx, item)
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return s.cartRepo.Remove(ctx, userID, productID)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}

	item := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: product.Price,
		CreatedAt: time.Now(),
	}

	return s.cartRepo.SetQuantity(ctx, item)
}

func (s *cartService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.cartRepo.Remove(ctx, userID, productID)
}

func (s *cartService) View(ctx context.Context, userID uuid.UUID) (*domain.CartView, error) {
	lines, err := s.cartRepo.ListLines(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &domain.CartView{Lines: make([]domain.CartLine, 0, len(lines))}
	for _, line := range lines {
		line.LineTotal = line.UnitPrice.Mul(decimalFromInt(line.Quantity))
		view.Total = view.Total.Add(line.LineTotal)
		view.Lines = append(view.Lines, line)
	}

	return view, nil
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.cartRepo.Clear(ctx, userID)
}
