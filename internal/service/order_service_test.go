package service

import (
	"context"
	"testing"
	"time"

	"bevera/internal/domain"
	"bevera/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newCheckoutFixture(t *testing.T) (OrderService, CartService, *mockUserRepository, *mockProductRepository, *mockCartRepository, *mockOrderRepository, *domain.User) {
	t.Helper()

	userRepo := newMockUserRepository()
	productRepo := newMockProductRepository()
	cartRepo := newMockCartRepository(productRepo)
	orderRepo := newMockOrderRepository(cartRepo, productRepo)

	client := &domain.User{
		ID:        uuid.New(),
		Email:     "client@example.com",
		FirstName: "Ann",
		LastName:  "Berg",
		Phone:     "+37120000000",
		Address:   "Brīvības iela 1, Rīga",
		Role:      domain.RoleClient,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	userRepo.users[client.Email] = client

	orderService := NewOrderService(orderRepo, cartRepo, productRepo, userRepo)
	cartService := NewCartService(cartRepo, productRepo)

	return orderService, cartService, userRepo, productRepo, cartRepo, orderRepo, client
}

func TestCheckoutCreatesPricedSnapshot(t *testing.T) {
	ctx := context.Background()
	orderService, cartService, _, productRepo, cartRepo, orderRepo, client := newCheckoutFixture(t)

	cola := newTestProduct("Cola", "3.50", 100)
	rum := newTestProduct("Rum", "10.00", 20)
	productRepo.add(cola)
	productRepo.add(rum)

	if err := cartService.Add(ctx, client.ID, cola.ID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := cartService.Add(ctx, client.ID, rum.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	order, err := orderService.Checkout(ctx, client.ID)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	want := decimal.RequireFromString("17.00")
	if !order.Total.Equal(want) {
		t.Errorf("expected total %s, got %s", want, order.Total)
	}
	if order.Status != domain.StatusPending {
		t.Errorf("expected status pending, got %s", order.Status)
	}
	if order.FullName != client.FullName() || order.Email != client.Email {
		t.Errorf("contact snapshot not copied from client")
	}

	items, _ := orderRepo.ListItems(ctx, order.ID)
	if len(items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(items))
	}
	for _, item := range items {
		if !item.LineTotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			t.Errorf("line total mismatch on item %s", item.Name)
		}
	}

	// Cart must be empty after checkout
	remaining, _ := cartRepo.ListByUser(ctx, client.ID)
	if len(remaining) != 0 {
		t.Errorf("expected empty cart after checkout, got %d lines", len(remaining))
	}

	// Stock must be decremented
	if cola.Stock != 98 {
		t.Errorf("expected cola stock 98, got %d", cola.Stock)
	}
	if rum.Stock != 19 {
		t.Errorf("expected rum stock 19, got %d", rum.Stock)
	}
}

func TestCheckoutRepricesFromLiveProducts(t *testing.T) {
	ctx := context.Background()
	orderService, cartService, _, productRepo, _, orderRepo, client := newCheckoutFixture(t)

	product := newTestProduct("Cider", "4.00", 30)
	productRepo.add(product)

	if err := cartService.Add(ctx, client.ID, product.ID, 3); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// Price changes after the item entered the cart
	product.Price = decimal.RequireFromString("5.00")

	order, err := orderService.Checkout(ctx, client.ID)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	want := decimal.RequireFromString("15.00")
	if !order.Total.Equal(want) {
		t.Errorf("expected repriced total %s, got %s", want, order.Total)
	}

	items, _ := orderRepo.ListItems(ctx, order.ID)
	if !items[0].UnitPrice.Equal(product.Price) {
		t.Errorf("expected item to carry the live price %s, got %s", product.Price, items[0].UnitPrice)
	}
}

func TestCheckoutAbortsWhenCartChangesUnderneath(t *testing.T) {
	ctx := context.Background()
	orderService, cartService, _, productRepo, cartRepo, orderRepo, client := newCheckoutFixture(t)

	cola := newTestProduct("Cola", "3.50", 100)
	rum := newTestProduct("Rum", "10.00", 20)
	productRepo.add(cola)
	productRepo.add(rum)

	if err := cartService.Add(ctx, client.ID, cola.ID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// A rum line lands in the cart right after the snapshot was priced
	cartRepo.afterList = func() {
		cartRepo.afterList = nil
		if err := cartService.Add(ctx, client.ID, rum.ID, 1); err != nil {
			t.Fatalf("concurrent add failed: %v", err)
		}
	}

	if _, err := orderService.Checkout(ctx, client.ID); err != repository.ErrCartChanged {
		t.Fatalf("expected ErrCartChanged, got %v", err)
	}

	// Nothing was committed: no order, cart intact, stock untouched
	if len(orderRepo.orders) != 0 {
		t.Errorf("no order should exist after an aborted checkout")
	}
	remaining, _ := cartRepo.ListByUser(ctx, client.ID)
	if len(remaining) != 2 {
		t.Errorf("expected both cart lines to survive, got %d", len(remaining))
	}
	if cola.Stock != 100 || rum.Stock != 20 {
		t.Errorf("stock must not change on an aborted checkout: cola %d, rum %d", cola.Stock, rum.Stock)
	}
}

func TestCheckoutRejectsInactiveProduct(t *testing.T) {
	ctx := context.Background()
	orderService, cartService, _, productRepo, cartRepo, orderRepo, client := newCheckoutFixture(t)

	product := newTestProduct("Porter", "6.00", 40)
	productRepo.add(product)

	if err := cartService.Add(ctx, client.ID, product.ID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// The product is pulled from the catalog before checkout
	product.IsActive = false

	if _, err := orderService.Checkout(ctx, client.ID); err != ErrProductUnavailable {
		t.Fatalf("expected ErrProductUnavailable, got %v", err)
	}

	if len(orderRepo.orders) != 0 {
		t.Errorf("no order should exist for a deactivated product")
	}
	remaining, _ := cartRepo.ListByUser(ctx, client.ID)
	if len(remaining) != 1 {
		t.Errorf("the cart line must survive the rejected checkout, got %d lines", len(remaining))
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	ctx := context.Background()
	orderService, _, _, _, _, orderRepo, client := newCheckoutFixture(t)

	_, err := orderService.Checkout(ctx, client.ID)
	if err != ErrCartEmpty {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}

	if len(orderRepo.orders) != 0 {
		t.Errorf("no order should exist after a failed checkout")
	}
}

func TestGetOrderScopedToClient(t *testing.T) {
	ctx := context.Background()
	orderService, cartService, _, productRepo, _, _, client := newCheckoutFixture(t)

	product := newTestProduct("Beer", "2.00", 60)
	productRepo.add(product)
	if err := cartService.Add(ctx, client.ID, product.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	order, err := orderService.Checkout(ctx, client.ID)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// Owner sees the order
	detail, err := orderService.GetOrder(ctx, order.ID, &client.ID)
	if err != nil {
		t.Fatalf("owner should see the order: %v", err)
	}
	if len(detail.Items) != 1 || len(detail.History) != 1 {
		t.Errorf("expected 1 item and 1 history row, got %d and %d", len(detail.Items), len(detail.History))
	}

	// Another client does not
	stranger := uuid.New()
	if _, err := orderService.GetOrder(ctx, order.ID, &stranger); err != ErrOrderAccessDenied {
		t.Fatalf("expected ErrOrderAccessDenied, got %v", err)
	}

	// Back-office sees everything
	if _, err := orderService.GetOrder(ctx, order.ID, nil); err != nil {
		t.Fatalf("back-office should see the order: %v", err)
	}
}

func TestChangeStatusFollowsTransitions(t *testing.T) {
	ctx := context.Background()
	orderService, cartService, _, productRepo, _, orderRepo, client := newCheckoutFixture(t)

	product := newTestProduct("Kvass", "1.50", 40)
	productRepo.add(product)
	if err := cartService.Add(ctx, client.ID, product.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	order, err := orderService.Checkout(ctx, client.ID)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	actor := uuid.New()

	// pending -> shipped skips processing and must be rejected
	if _, err := orderService.ChangeStatus(ctx, order.ID, "shipped", actor); err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// Unknown statuses are rejected at the boundary
	if _, err := orderService.ChangeStatus(ctx, order.ID, "teleported", actor); err == nil {
		t.Fatal("expected an error for an unknown status")
	}

	// The legal path works and appends history
	for _, next := range []string{"processing", "shipped", "delivered"} {
		if _, err := orderService.ChangeStatus(ctx, order.ID, next, actor); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
	}

	history, _ := orderRepo.ListHistory(ctx, order.ID)
	if len(history) != 4 {
		t.Errorf("expected 4 history rows, got %d", len(history))
	}

	// Delivered is terminal
	if _, err := orderService.ChangeStatus(ctx, order.ID, "cancelled", actor); err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition from delivered, got %v", err)
	}
}
