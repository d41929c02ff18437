package service

import (
	"context"
	"errors"
	"time"

	"bevera/internal/domain"
	"bevera/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrCartEmpty = errors.New("cart is empty")
	// ErrProductUnavailable is returned when a carted product has been
	// deactivated or removed before checkout.
	ErrProductUnavailable = errors.New("product is no longer available")
	// ErrInvalidTransition is returned when a status change is not allowed
	// from the order's current status.
	ErrInvalidTransition = errors.New("status transition not allowed")
	// ErrOrderAccessDenied is returned when a client requests an order that
	// belongs to someone else.
	ErrOrderAccessDenied = errors.New("order belongs to another client")
)

// OrderDetail bundles an order with its lines and status history
type OrderDetail struct {
	Order   *domain.Order               `json:"order"`
	Items   []domain.OrderItem          `json:"items"`
	History []domain.OrderStatusHistory `json:"history"`
}

// OrderService defines the interface for checkout and order management
type OrderService interface {
	// Checkout converts the client's cart into an order. Prices are taken
	// from the live product rows at this moment, not from the values
	// captured when items entered the cart.
	Checkout(ctx context.Context, clientID uuid.UUID) (*domain.Order, error)
	// GetOrder returns an order with items and history. When forClient is
	// set, the order must belong to that client.
	GetOrder(ctx context.Context, orderID uuid.UUID, forClient *uuid.UUID) (*OrderDetail, error)
	ListMyOrders(ctx context.Context, clientID uuid.UUID) ([]*domain.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error)
	// ChangeStatus moves an order along the allowed status transitions and
	// records who made the change.
	ChangeStatus(ctx context.Context, orderID uuid.UUID, rawStatus string, actor uuid.UUID) (*domain.Order, error)
	Summary(ctx context.Context) (*repository.StatusSummary, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

func (s *orderService) Checkout(ctx context.Context, clientID uuid.UUID) (*domain.Order, error) {
	cartItems, err := s.cartRepo.ListByUser(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrCartEmpty
	}

	client, err := s.userRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:            uuid.New(),
		ClientID:      clientID,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentUnpaid,
		FullName:      client.FullName(),
		Email:         client.Email,
		Phone:         client.Phone,
		Address:       client.Address,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	items := make([]domain.OrderItem, 0, len(cartItems))
	for _, cartItem := range cartItems {
		// Only active products can be ordered; a line whose product was
		// deactivated since it entered the cart blocks the checkout.
		product, err := s.productRepo.FindActiveByID(ctx, cartItem.ProductID)
		if err != nil {
			if err == repository.ErrProductNotFound {
				return nil, ErrProductUnavailable
			}
			return nil, err
		}

		item := domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  cartItem.Quantity,
			UnitPrice: product.Price,
			LineTotal: product.Price.Mul(decimalFromInt(cartItem.Quantity)),
		}
		order.Total = order.Total.Add(item.LineTotal)
		items = append(items, item)
	}

	if err := s.orderRepo.CreateOrder(ctx, order, items); err != nil {
		return nil, err
	}

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID, forClient *uuid.UUID) (*OrderDetail, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if forClient != nil && order.ClientID != *forClient {
		return nil, ErrOrderAccessDenied
	}

	items, err := s.orderRepo.ListItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	history, err := s.orderRepo.ListHistory(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &OrderDetail{Order: order, Items: items, History: history}, nil
}

func (s *orderService) ListMyOrders(ctx context.Context, clientID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.ListByClient(ctx, clientID)
}

func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	return s.orderRepo.List(ctx, filter)
}

func (s *orderService) ChangeStatus(ctx context.Context, orderID uuid.UUID, rawStatus string, actor uuid.UUID) (*domain.Order, error) {
	next, err := domain.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, order.Status, next, actor); err != nil {
		return nil, err
	}

	order.Status = next
	return order, nil
}

func (s *orderService) Summary(ctx context.Context) (*repository.StatusSummary, error) {
	return s.orderRepo.Summary(ctx)
}
