package service

import (
	"context"
	"sort"
	"time"

	"bevera/internal/domain"
	"bevera/internal/repository"

	"github.com/google/uuid"
)

// In-memory repository fakes shared by the service tests.

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) add(p *domain.Product) {
	m.products[p.ID] = p
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok || !product.IsActive {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	products := m.all()
	return products, len(products), nil
}

func (m *mockProductRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	products := m.all()
	return products, len(products), nil
}

func (m *mockProductRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Product, error) {
	return m.all(), nil
}

func (m *mockProductRepository) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	low := []*domain.Product{}
	for _, p := range m.all() {
		if p.Stock <= p.LowStockThreshold {
			low = append(low, p)
		}
	}
	return low, nil
}

func (m *mockProductRepository) all() []*domain.Product {
	products := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, existing := range m.categories {
		if existing.Name == category.Name || existing.Slug == category.Slug {
			return repository.ErrCategoryAlreadyExists
		}
	}
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	copied := *category
	return &copied, nil
}

func (m *mockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	for _, category := range m.categories {
		if category.Slug == slug {
			copied := *category
			return &copied, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) FindActiveBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	category, err := m.FindBySlug(ctx, slug)
	if err != nil || !category.IsActive {
		return nil, repository.ErrCategoryNotFound
	}
	return category, nil
}

func (m *mockCategoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, category := range m.categories {
		if activeOnly && !category.IsActive {
			continue
		}
		copied := *category
		categories = append(categories, &copied)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

type cartKey struct {
	userID    uuid.UUID
	productID uuid.UUID
}

type mockCartRepository struct {
	items    map[cartKey]*domain.CartItem
	products *mockProductRepository
	// afterList runs once ListByUser has taken its snapshot, letting tests
	// mutate the cart between pricing and order creation.
	afterList func()
}

func newMockCartRepository(products *mockProductRepository) *mockCartRepository {
	return &mockCartRepository{
		items:    make(map[cartKey]*domain.CartItem),
		products: products,
	}
}

func (m *mockCartRepository) Upsert(ctx context.Context, item *domain.CartItem) error {
	key := cartKey{item.UserID, item.ProductID}
	if existing, ok := m.items[key]; ok {
		existing.Quantity += item.Quantity
		existing.UnitPrice = item.UnitPrice
		return nil
	}
	copied := *item
	m.items[key] = &copied
	return nil
}

func (m *mockCartRepository) SetQuantity(ctx context.Context, item *domain.CartItem) error {
	key := cartKey{item.UserID, item.ProductID}
	existing, ok := m.items[key]
	if !ok {
		return repository.ErrCartItemNotFound
	}
	existing.Quantity = item.Quantity
	existing.UnitPrice = item.UnitPrice
	return nil
}

func (m *mockCartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	delete(m.items, cartKey{userID, productID})
	return nil
}

func (m *mockCartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	items := []*domain.CartItem{}
	for key, item := range m.items {
		if key.userID == userID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID.String() < items[j].ProductID.String() })
	if m.afterList != nil {
		m.afterList()
	}
	return items, nil
}

func (m *mockCartRepository) ListLines(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error) {
	items, _ := m.ListByUser(ctx, userID)
	lines := []domain.CartLine{}
	for _, item := range items {
		line := domain.CartLine{
			ProductID: item.ProductID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
		if product, err := m.products.FindByID(ctx, item.ProductID); err == nil {
			line.Name = product.Name
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines, nil
}

func (m *mockCartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	for key := range m.items {
		if key.userID == userID {
			delete(m.items, key)
		}
	}
	return nil
}

type mockOrderRepository struct {
	orders   map[uuid.UUID]*domain.Order
	items    map[uuid.UUID][]domain.OrderItem
	history  map[uuid.UUID][]domain.OrderStatusHistory
	cartRepo *mockCartRepository
	products *mockProductRepository
}

func newMockOrderRepository(cartRepo *mockCartRepository, products *mockProductRepository) *mockOrderRepository {
	return &mockOrderRepository{
		orders:   make(map[uuid.UUID]*domain.Order),
		items:    make(map[uuid.UUID][]domain.OrderItem),
		history:  make(map[uuid.UUID][]domain.OrderStatusHistory),
		cartRepo: cartRepo,
		products: products,
	}
}

func (m *mockOrderRepository) CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	cartItems, _ := m.cartRepo.ListByUser(ctx, order.ClientID)
	if len(cartItems) == 0 {
		return repository.ErrCartConsumed
	}

	// Mirrors the checkout transaction: the consumed cart rows must match
	// the priced snapshot exactly.
	consumed := make(map[uuid.UUID]int, len(cartItems))
	for _, cartItem := range cartItems {
		consumed[cartItem.ProductID] = cartItem.Quantity
	}
	if len(consumed) != len(items) {
		return repository.ErrCartChanged
	}
	for _, item := range items {
		if consumed[item.ProductID] != item.Quantity {
			return repository.ErrCartChanged
		}
	}

	copied := *order
	m.orders[order.ID] = &copied
	m.items[order.ID] = append([]domain.OrderItem{}, items...)
	m.history[order.ID] = []domain.OrderStatusHistory{{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    order.Status,
		ChangedBy: order.ClientID,
		ChangedAt: time.Now(),
	}}

	for _, item := range items {
		if product, err := m.products.FindByID(ctx, item.ProductID); err == nil {
			product.Stock -= item.Quantity
		}
	}

	m.cartRepo.Clear(ctx, order.ClientID)
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	return m.items[orderID], nil
}

func (m *mockOrderRepository) ListHistory(ctx context.Context, orderID uuid.UUID) ([]domain.OrderStatusHistory, error) {
	return m.history[orderID], nil
}

func (m *mockOrderRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*domain.Order, error) {
	orders := []*domain.Order{}
	for _, order := range m.orders {
		if order.ClientID == clientID {
			copied := *order
			orders = append(orders, &copied)
		}
	}
	return orders, nil
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	orders := []*domain.Order{}
	for _, order := range m.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		copied := *order
		orders = append(orders, &copied)
	}
	return orders, len(orders), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, expected, next domain.OrderStatus, actor uuid.UUID) error {
	order, ok := m.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if order.Status != expected {
		return repository.ErrStatusConflict
	}
	order.Status = next
	m.history[orderID] = append(m.history[orderID], domain.OrderStatusHistory{
		ID:        uuid.New(),
		OrderID:   orderID,
		Status:    next,
		ChangedBy: actor,
		ChangedAt: time.Now(),
	})
	return nil
}

func (m *mockOrderRepository) SetInvoiceMetadata(ctx context.Context, orderID uuid.UUID, storedFileName, contentType, fileName string) error {
	order, ok := m.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.InvoiceStoredFileName = storedFileName
	order.InvoiceContentType = contentType
	order.InvoiceFileName = fileName
	return nil
}

func (m *mockOrderRepository) Summary(ctx context.Context) (*repository.StatusSummary, error) {
	summary := &repository.StatusSummary{Counts: make(map[domain.OrderStatus]int)}
	for _, order := range m.orders {
		summary.Counts[order.Status]++
		if order.Status == domain.StatusDelivered {
			summary.DeliveredRevenue = summary.DeliveredRevenue.Add(order.Total)
		}
	}
	return summary, nil
}
