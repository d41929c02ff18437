package repository

import (
	"context"
	"database/sql"
	"fmt"

	"bevera/internal/domain"

	"github.com/google/uuid"
)

// InventoryRepository defines the interface for the stock ledger
type InventoryRepository interface {
	// Restock records a positive movement and bumps the product's stock
	// in one transaction.
	Restock(ctx context.Context, movement *domain.InventoryMovement) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.InventoryMovement, error)
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Restock(ctx context.Context, movement *domain.InventoryMovement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin restock transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock + $2 WHERE id = $1`,
		movement.ProductID, movement.QuantityChange,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory_movements (id, product_id, quantity_change, reason, order_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		movement.ID,
		movement.ProductID,
		movement.QuantityChange,
		movement.Reason,
		movement.OrderID,
		movement.CreatedBy,
		movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record inventory movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restock: %w", err)
	}

	return nil
}

func (r *inventoryRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.InventoryMovement, error) {
	query := `
		SELECT id, product_id, quantity_change, reason, order_id, created_by, created_at
		FROM inventory_movements
		WHERE product_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory movements: %w", err)
	}
	defer rows.Close()

	movements := []*domain.InventoryMovement{}
	for rows.Next() {
		movement := &domain.InventoryMovement{}
		err := rows.Scan(
			&movement.ID,
			&movement.ProductID,
			&movement.QuantityChange,
			&movement.Reason,
			&movement.OrderID,
			&movement.CreatedBy,
			&movement.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory movement: %w", err)
		}
		movements = append(movements, movement)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory movements: %w", err)
	}

	return movements, nil
}
