package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bevera/internal/domain"

	"github.com/google/uuid"
)

// FavoriteRepository defines the interface for client favorites
type FavoriteRepository interface {
	// Toggle adds the product to the user's favorites, or removes it when
	// already present. Returns true when the product is now a favorite.
	Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	// ListByUser returns favorited products, newest favorite first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Product, error)
}

type favoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new instance of FavoriteRepository
func NewFavoriteRepository(db *sql.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if deleted > 0 {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO favorites (id, user_id, product_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), userID, productID, time.Now())
	if err != nil {
		if containsSQLState(err, "23503") {
			return false, ErrProductNotFound
		}
		// A concurrent toggle may have inserted first; treat as favorited.
		if isUniqueViolation(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}

	return true, nil
}

func (r *favoriteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM favorites f
		JOIN products p ON p.id = f.product_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan favorite product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorites: %w", err)
	}

	return products, nil
}
