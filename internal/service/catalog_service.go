package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bevera/internal/domain"
	"bevera/internal/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var (
	ErrBrandRequired = errors.New("brand does not exist")
	// ErrInvalidProductInput wraps money and measure parse failures so the
	// transport layer can map them to a 400.
	ErrInvalidProductInput = errors.New("invalid product input")
)

// CatalogService defines the interface for category, brand, and product
// business logic, covering both the storefront and the back-office.
type CatalogService interface {
	// Categories
	CreateCategory(ctx context.Context, name, imagePath string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name, imagePath string, isActive bool) (*domain.Category, error)
	// SetCategoryImage replaces the category's image path and returns the
	// updated category.
	SetCategoryImage(ctx context.Context, id uuid.UUID, imagePath string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error)

	// Brands
	CreateBrand(ctx context.Context, name string) (*domain.Brand, error)
	UpdateBrand(ctx context.Context, id uuid.UUID, name string, isActive bool) (*domain.Brand, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) error
	ListBrands(ctx context.Context, activeOnly bool) ([]*domain.Brand, error)

	// Products
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	SearchProducts(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	ListProductsByCategory(ctx context.Context, categorySlug string) (*domain.Category, []*domain.Product, error)

	// Images
	AddProductImage(ctx context.Context, productID uuid.UUID, path string, asMain bool) (*domain.ProductImage, error)
	DeleteProductImage(ctx context.Context, imageID uuid.UUID) (*domain.ProductImage, error)
	ListProductImages(ctx context.Context, productID uuid.UUID) ([]*domain.ProductImage, error)
}

// ProductInput carries the writable product fields from the admin API
type ProductInput struct {
	Name              string
	SKU               string
	Description       string
	Price             string
	VolumeLiters      string
	AlcoholPercent    string
	PackageType       string
	Stock             int
	LowStockThreshold int
	IsActive          bool
	CategoryID        uuid.UUID
	BrandID           *uuid.UUID
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	brandRepo    repository.BrandRepository
	productRepo  repository.ProductRepository
	imageRepo    repository.ProductImageRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	brandRepo repository.BrandRepository,
	productRepo repository.ProductRepository,
	imageRepo repository.ProductImageRepository,
) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		productRepo:  productRepo,
		imageRepo:    imageRepo,
	}
}

// CreateCategory creates a category with a URL slug derived from its name
func (s *catalogService) CreateCategory(ctx context.Context, name, imagePath string) (*domain.Category, error) {
	category := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug.Make(name),
		ImagePath: imagePath,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// UpdateCategory updates a category; the slug follows the name
func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name, imagePath string, isActive bool) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = name
	category.Slug = slug.Make(name)
	category.IsActive = isActive
	if imagePath != "" {
		category.ImagePath = imagePath
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// SetCategoryImage replaces a category's image path
func (s *catalogService) SetCategoryImage(ctx context.Context, id uuid.UUID, imagePath string) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category.ImagePath = imagePath

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categoryRepo.Delete(ctx, id)
}

func (s *catalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categoryRepo.FindByID(ctx, id)
}

func (s *catalogService) GetCategoryBySlug(ctx context.Context, categorySlug string) (*domain.Category, error) {
	return s.categoryRepo.FindBySlug(ctx, categorySlug)
}

func (s *catalogService) ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx, activeOnly)
}

func (s *catalogService) CreateBrand(ctx context.Context, name string) (*domain.Brand, error) {
	brand := &domain.Brand{
		ID:        uuid.New(),
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := s.brandRepo.Create(ctx, brand); err != nil {
		return nil, err
	}

	return brand, nil
}

func (s *catalogService) UpdateBrand(ctx context.Context, id uuid.UUID, name string, isActive bool) (*domain.Brand, error) {
	brand, err := s.brandRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	brand.Name = name
	brand.IsActive = isActive

	if err := s.brandRepo.Update(ctx, brand); err != nil {
		return nil, err
	}

	return brand, nil
}

func (s *catalogService) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	return s.brandRepo.Delete(ctx, id)
}

func (s *catalogService) ListBrands(ctx context.Context, activeOnly bool) ([]*domain.Brand, error) {
	return s.brandRepo.List(ctx, activeOnly)
}

// CreateProduct validates references and money fields, then persists
func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	product := &domain.Product{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.applyProductInput(ctx, product, input); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.applyProductInput(ctx, product, input); err != nil {
		return nil, err
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *catalogService) applyProductInput(ctx context.Context, product *domain.Product, input ProductInput) error {
	price, err := parseMoney(input.Price)
	if err != nil {
		return fmt.Errorf("%w: price: %v", ErrInvalidProductInput, err)
	}
	volume, err := parseMoney(input.VolumeLiters)
	if err != nil {
		return fmt.Errorf("%w: volume: %v", ErrInvalidProductInput, err)
	}
	alcohol, err := parseMoney(input.AlcoholPercent)
	if err != nil {
		return fmt.Errorf("%w: alcohol percent: %v", ErrInvalidProductInput, err)
	}

	if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		return err
	}
	if input.BrandID != nil {
		if _, err := s.brandRepo.FindByID(ctx, *input.BrandID); err != nil {
			if err == repository.ErrBrandNotFound {
				return ErrBrandRequired
			}
			return err
		}
	}

	product.Name = input.Name
	product.SKU = input.SKU
	product.Description = input.Description
	product.Price = price
	product.VolumeLiters = volume
	product.AlcoholPercent = alcohol
	product.PackageType = input.PackageType
	product.Stock = input.Stock
	product.LowStockThreshold = input.LowStockThreshold
	product.IsActive = input.IsActive
	product.CategoryID = input.CategoryID
	product.BrandID = input.BrandID

	return nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// GetProduct is the storefront product page lookup; deactivated products
// come back as not found. The back-office reaches products through
// ListProducts and UpdateProduct, which are unscoped.
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindActiveByID(ctx, id)
}

func (s *catalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	return s.productRepo.List(ctx, filter)
}

func (s *catalogService) SearchProducts(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	return s.productRepo.Search(ctx, query, page, pageSize)
}

// ListProductsByCategory resolves an active category by slug and returns its
// active products for the storefront. Deactivated categories are not found.
func (s *catalogService) ListProductsByCategory(ctx context.Context, categorySlug string) (*domain.Category, []*domain.Product, error) {
	category, err := s.categoryRepo.FindActiveBySlug(ctx, categorySlug)
	if err != nil {
		return nil, nil, err
	}

	products, err := s.productRepo.ListByCategory(ctx, category.ID)
	if err != nil {
		return nil, nil, err
	}

	return category, products, nil
}

// AddProductImage stores an uploaded image record. When asMain is set, or
// when this is the product's first image, it becomes the main image.
func (s *catalogService) AddProductImage(ctx context.Context, productID uuid.UUID, path string, asMain bool) (*domain.ProductImage, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	existing, err := s.imageRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	image := &domain.ProductImage{
		ID:        uuid.New(),
		ProductID: productID,
		Path:      path,
		IsMain:    asMain || len(existing) == 0,
		CreatedAt: time.Now(),
	}

	if image.IsMain && len(existing) > 0 {
		if _, err := s.imageRepo.ReplaceMain(ctx, image); err != nil {
			return nil, err
		}
		return image, nil
	}

	if err := s.imageRepo.Add(ctx, image); err != nil {
		return nil, err
	}

	return image, nil
}

// DeleteProductImage removes the record and returns it so the caller can
// clean up the file on disk.
func (s *catalogService) DeleteProductImage(ctx context.Context, imageID uuid.UUID) (*domain.ProductImage, error) {
	return s.imageRepo.Delete(ctx, imageID)
}

func (s *catalogService) ListProductImages(ctx context.Context, productID uuid.UUID) ([]*domain.ProductImage, error) {
	return s.imageRepo.ListByProduct(ctx, productID)
}
