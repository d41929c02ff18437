package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bevera/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrCartConsumed is returned when the checkout transaction finds no
	// cart rows to delete, meaning a concurrent checkout already took them.
	ErrCartConsumed = errors.New("cart has already been checked out")
	// ErrCartChanged is returned when the cart rows deleted inside the
	// checkout transaction do not match the priced snapshot, meaning a line
	// was added or changed between pricing and commit.
	ErrCartChanged = errors.New("cart changed during checkout")
	// ErrStatusConflict is returned when a status update loses a race and
	// the order is no longer in the expected state.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// OrderFilter narrows and pages the back-office order listing
type OrderFilter struct {
	Status   *domain.OrderStatus
	Query    string // matches order id, client email, or client name
	Page     int
	PageSize int
}

// StatusSummary aggregates orders for the back-office dashboard
type StatusSummary struct {
	Counts           map[domain.OrderStatus]int
	DeliveredRevenue decimal.Decimal
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// CreateOrder persists a priced order snapshot in one transaction:
	// the order row, its items, the initial status-history row, a stock
	// decrement plus inventory movement per item, and the deletion of the
	// client's cart rows. A per-client advisory lock serializes concurrent
	// checkouts; if the cart rows are already gone the whole transaction
	// rolls back with ErrCartConsumed, and if the deleted rows no longer
	// match the priced items it rolls back with ErrCartChanged.
	CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error)
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]domain.OrderStatusHistory, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int, error)
	// UpdateStatus moves an order from expected to next and appends a
	// status-history row in the same transaction.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, expected, next domain.OrderStatus, actor uuid.UUID) error
	SetInvoiceMetadata(ctx context.Context, orderID uuid.UUID, storedFileName, contentType, fileName string) error
	Summary(ctx context.Context) (*StatusSummary, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, client_id, status, payment_status, total, full_name, email, phone, address,
	invoice_stored_file_name, invoice_content_type, invoice_file_name, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.ClientID,
		&order.Status,
		&order.PaymentStatus,
		&order.Total,
		&order.FullName,
		&order.Email,
		&order.Phone,
		&order.Address,
		&order.InvoiceStoredFileName,
		&order.InvoiceContentType,
		&order.InvoiceFileName,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin checkout transaction: %w", err)
	}
	defer tx.Rollback()

	// Serialize checkouts per client so two concurrent requests cannot
	// both snapshot the same cart. The lock is released at commit/rollback.
	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`,
		order.ClientID,
	); err != nil {
		return fmt.Errorf("failed to take checkout lock: %w", err)
	}

	// Consume the cart first and verify the deleted rows match the priced
	// snapshot exactly. Zero rows means another checkout already took the
	// cart; any other difference means the cart changed after pricing.
	rows, err := tx.QueryContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 RETURNING product_id, quantity`,
		order.ClientID,
	)
	if err != nil {
		return fmt.Errorf("failed to consume cart: %w", err)
	}
	consumed := make(map[uuid.UUID]int)
	for rows.Next() {
		var productID uuid.UUID
		var quantity int
		if err := rows.Scan(&productID, &quantity); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan consumed cart line: %w", err)
		}
		consumed[productID] = quantity
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating consumed cart lines: %w", err)
	}
	rows.Close()

	if len(consumed) == 0 {
		return ErrCartConsumed
	}
	if len(consumed) != len(items) {
		return ErrCartChanged
	}
	for _, item := range items {
		if consumed[item.ProductID] != item.Quantity {
			return ErrCartChanged
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, client_id, status, payment_status, total, full_name, email, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`,
		order.ID,
		order.ClientID,
		order.Status,
		order.PaymentStatus,
		order.Total,
		order.FullName,
		order.Email,
		order.Phone,
		order.Address,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.Quantity,
			item.UnitPrice,
			item.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}

		// Stock is decremented transactionally and the consumption is
		// recorded on the inventory ledger referencing this order.
		_, err = tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $2 WHERE id = $1`,
			item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory_movements (id, product_id, quantity_change, reason, order_id, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			uuid.New(),
			item.ProductID,
			-item.Quantity,
			fmt.Sprintf("order %s", order.ID),
			order.ID,
			order.ClientID,
			order.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to record inventory movement: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (id, order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		uuid.New(), order.ID, order.Status, order.ClientID, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkout: %w", err)
	}

	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	return order, nil
}

func (r *orderRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, name, quantity, unit_price, line_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Quantity,
			&item.UnitPrice,
			&item.LineTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func (r *orderRepository) ListHistory(ctx context.Context, orderID uuid.UUID) ([]domain.OrderStatusHistory, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY changed_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list status history: %w", err)
	}
	defer rows.Close()

	history := []domain.OrderStatusHistory{}
	for rows.Next() {
		var entry domain.OrderStatusHistory
		err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Status, &entry.ChangedBy, &entry.ChangedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		history = append(history, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}

	return history, nil
}

func (r *orderRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE client_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list client orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// List retrieves orders for the back-office with status filtering and
// free-text search over order id, client email, and client name.
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf(
			`(o.id::text ILIKE $%d OR u.email ILIKE $%d OR (u.first_name || ' ' || u.last_name) ILIKE $%d)`,
			argIndex, argIndex, argIndex,
		))
		args = append(args, "%"+q+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM orders o
		JOIN users u ON u.id = o.client_id
		%s
	`, whereClause)

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT o.id, o.client_id, o.status, o.payment_status, o.total, o.full_name, o.email, o.phone, o.address,
		       o.invoice_stored_file_name, o.invoice_content_type, o.invoice_file_name, o.created_at, o.updated_at
		FROM orders o
		JOIN users u ON u.id = o.client_id
		%s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, expected, next domain.OrderStatus, actor uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin status transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1 AND status = $3`,
		orderID, next, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either the order vanished or someone moved it first.
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check order existence: %w", err)
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrStatusConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (id, order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		uuid.New(), orderID, next, actor, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status change: %w", err)
	}

	return nil
}

func (r *orderRepository) SetInvoiceMetadata(ctx context.Context, orderID uuid.UUID, storedFileName, contentType, fileName string) error {
	query := `
		UPDATE orders
		SET invoice_stored_file_name = $2, invoice_content_type = $3, invoice_file_name = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, orderID, storedFileName, contentType, fileName)
	if err != nil {
		return fmt.Errorf("failed to set invoice metadata: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Summary aggregates order counts per status and revenue from delivered
// orders for the back-office dashboard.
func (r *orderRepository) Summary(ctx context.Context) (*StatusSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate order statuses: %w", err)
	}
	defer rows.Close()

	summary := &StatusSummary{
		Counts:           make(map[domain.OrderStatus]int),
		DeliveredRevenue: decimal.Zero,
	}

	for rows.Next() {
		var status domain.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		summary.Counts[status] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status = $1`,
		domain.StatusDelivered,
	).Scan(&summary.DeliveredRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to sum delivered revenue: %w", err)
	}

	return summary, nil
}
