package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bevera/internal/domain"

	"github.com/google/uuid"
)

var ErrProductImageNotFound = errors.New("product image not found")

// ProductImageRepository defines the interface for product image data access
type ProductImageRepository interface {
	Add(ctx context.Context, image *domain.ProductImage) error
	Delete(ctx context.Context, id uuid.UUID) (*domain.ProductImage, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.ProductImage, error)
	// ReplaceMain demotes the current main image of the product (if any),
	// inserts the new image as main, and returns the demoted image. The
	// demote and insert happen in one transaction so the partial unique
	// index on (product_id) WHERE is_main never trips.
	ReplaceMain(ctx context.Context, image *domain.ProductImage) (*domain.ProductImage, error)
}

type productImageRepository struct {
	db *sql.DB
}

// NewProductImageRepository creates a new instance of ProductImageRepository
func NewProductImageRepository(db *sql.DB) ProductImageRepository {
	return &productImageRepository{db: db}
}

func (r *productImageRepository) Add(ctx context.Context, image *domain.ProductImage) error {
	query := `
		INSERT INTO product_images (id, product_id, path, is_main, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, image.ID, image.ProductID, image.Path, image.IsMain, image.CreatedAt)
	if err != nil {
		if containsSQLState(err, "23503") {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to add product image: %w", err)
	}

	return nil
}

// Delete removes an image row and returns it so the caller can remove the
// backing file.
func (r *productImageRepository) Delete(ctx context.Context, id uuid.UUID) (*domain.ProductImage, error) {
	query := `
		DELETE FROM product_images
		WHERE id = $1
		RETURNING id, product_id, path, is_main, created_at
	`

	image := &domain.ProductImage{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&image.ID,
		&image.ProductID,
		&image.Path,
		&image.IsMain,
		&image.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductImageNotFound
		}
		return nil, fmt.Errorf("failed to delete product image: %w", err)
	}

	return image, nil
}

func (r *productImageRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.ProductImage, error) {
	query := `
		SELECT id, product_id, path, is_main, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY is_main DESC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product images: %w", err)
	}
	defer rows.Close()

	images := []*domain.ProductImage{}
	for rows.Next() {
		image := &domain.ProductImage{}
		err := rows.Scan(&image.ID, &image.ProductID, &image.Path, &image.IsMain, &image.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images = append(images, image)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}

	return images, nil
}

func (r *productImageRepository) ReplaceMain(ctx context.Context, image *domain.ProductImage) (*domain.ProductImage, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Demote the current main image, if there is one
	demoted := &domain.ProductImage{}
	err = tx.QueryRowContext(ctx, `
		UPDATE product_images
		SET is_main = FALSE
		WHERE product_id = $1 AND is_main
		RETURNING id, product_id, path, is_main, created_at
	`, image.ProductID).Scan(
		&demoted.ID,
		&demoted.ProductID,
		&demoted.Path,
		&demoted.IsMain,
		&demoted.CreatedAt,
	)
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to demote main image: %w", err)
		}
		demoted = nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO product_images (id, product_id, path, is_main, created_at)
		VALUES ($1, $2, $3, TRUE, $4)
	`, image.ID, image.ProductID, image.Path, image.CreatedAt)
	if err != nil {
		if containsSQLState(err, "23503") {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to insert main image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit image replacement: %w", err)
	}

	image.IsMain = true
	return demoted, nil
}
