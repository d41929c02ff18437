package repository

import (
	"context"
	"testing"
	"time"

	"bevera/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func TestProperty_ProductCreationPreservesAttributes(t *testing.T) {
	productRepo := NewProductRepository(testDB)
	categoryRepo := NewCategoryRepository(testDB)

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
		func(name string, description string, priceCents int, stock int) bool {
			ctx := context.Background()

			category := &domain.Category{
				ID:        uuid.New(),
				Name:      "Test Category " + uuid.New().String(),
				Slug:      "test-category-" + uuid.New().String(),
				IsActive:  true,
				CreatedAt: time.Now(),
			}
			err := categoryRepo.Create(ctx, category)
			if err != nil {
				t.Logf("FAIL: Failed to create category: %v", err)
				return false
			}

			price := decimal.NewFromInt(int64(priceCents)).Div(decimal.NewFromInt(100))
			product := &domain.Product{
				ID:             uuid.New(),
				Name:           name,
				SKU:            "SKU-" + uuid.New().String(),
				Description:    description,
				Price:          price,
				VolumeLiters:   decimal.RequireFromString("0.5"),
				AlcoholPercent: decimal.RequireFromString("4.7"),
				PackageType:    "bottle",
				Stock:          stock,
				IsActive:       true,
				CategoryID:     category.ID,
				CreatedAt:      time.Now(),
				UpdatedAt:      time.Now(),
			}

			err = productRepo.Create(ctx, product)
			if err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			retrieved, err := productRepo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			if retrieved.ID != product.ID {
				t.Logf("FAIL: ID mismatch. Expected %s, got %s", product.ID, retrieved.ID)
				return false
			}

			if retrieved.Name != product.Name {
				t.Logf("FAIL: Name mismatch. Expected %s, got %s", product.Name, retrieved.Name)
				return false
			}

			if retrieved.Description != product.Description {
				t.Logf("FAIL: Description mismatch. Expected %s, got %s", product.Description, retrieved.Description)
				return false
			}

			// Decimals must come back exactly, no float tolerance
			if !retrieved.Price.Equal(product.Price) {
				t.Logf("FAIL: Price mismatch. Expected %s, got %s", product.Price, retrieved.Price)
				return false
			}

			if !retrieved.VolumeLiters.Equal(product.VolumeLiters) {
				t.Logf("FAIL: Volume mismatch. Expected %s, got %s", product.VolumeLiters, retrieved.VolumeLiters)
				return false
			}

			if retrieved.CategoryID != product.CategoryID {
				t.Logf("FAIL: CategoryID mismatch. Expected %s, got %s", product.CategoryID, retrieved.CategoryID)
				return false
			}

			if retrieved.Stock != product.Stock {
				t.Logf("FAIL: Stock mismatch. Expected %d, got %d", product.Stock, retrieved.Stock)
				return false
			}

			if retrieved.CreatedAt.IsZero() || retrieved.UpdatedAt.IsZero() {
				t.Logf("FAIL: Timestamps not set")
				return false
			}

			// Cleanup
			_ = productRepo.Delete(ctx, product.ID)
			_, _ = testDB.Exec("DELETE FROM categories WHERE id = $1", category.ID)

			return true
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`),       // name
		gen.RegexMatch(`[A-Za-z0-9 .,!?]{10,200}`), // description
		gen.IntRange(1, 999999),                    // price in cents
		gen.IntRange(0, 1000),                      // stock
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ProductUpdatesAreReflected(t *testing.T) {
	productRepo := NewProductRepository(testDB)

	properties := gopter.NewProperties(nil)

	properties.Property("updating a product and retrieving it shows the updated values", prop.ForAll(
		func(name1 string, name2 string, priceCents1 int, priceCents2 int, stock1 int, stock2 int) bool {
			ctx := context.Background()

			product := seedProduct(t, name1, decimal.NewFromInt(int64(priceCents1)).Div(decimal.NewFromInt(100)).String(), stock1)

			product.Name = name2
			product.Price = decimal.NewFromInt(int64(priceCents2)).Div(decimal.NewFromInt(100))
			product.Stock = stock2
			product.UpdatedAt = time.Now()

			err := productRepo.Update(ctx, product)
			if err != nil {
				t.Logf("FAIL: Failed to update product: %v", err)
				return false
			}

			retrieved, err := productRepo.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			if retrieved.Name != name2 {
				t.Logf("FAIL: Name not updated. Expected %s, got %s", name2, retrieved.Name)
				return false
			}

			if !retrieved.Price.Equal(product.Price) {
				t.Logf("FAIL: Price not updated. Expected %s, got %s", product.Price, retrieved.Price)
				return false
			}

			if retrieved.Stock != stock2 {
				t.Logf("FAIL: Stock not updated. Expected %d, got %d", stock2, retrieved.Stock)
				return false
			}

			// Cleanup
			_ = productRepo.Delete(ctx, product.ID)

			return true
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`), // name1
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`), // name2
		gen.IntRange(1, 999999),              // price1 in cents
		gen.IntRange(1, 999999),              // price2 in cents
		gen.IntRange(0, 1000),                // stock1
		gen.IntRange(0, 1000),                // stock2
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProductDeletionRemovesFromCatalog(t *testing.T) {
	productRepo := NewProductRepository(testDB)
	ctx := context.Background()

	product := seedProduct(t, "Doomed", "1.00", 5)

	if _, err := productRepo.FindByID(ctx, product.ID); err != nil {
		t.Fatalf("product should exist before deletion: %v", err)
	}

	if err := productRepo.Delete(ctx, product.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := productRepo.FindByID(ctx, product.ID); err != ErrProductNotFound {
		t.Fatalf("expected ErrProductNotFound after deletion, got %v", err)
	}
}

func TestFindActiveByIDHidesDeactivatedProduct(t *testing.T) {
	ctx := context.Background()
	productRepo := NewProductRepository(testDB)

	product := seedProduct(t, "Shelved", "4.50", 12)

	if _, err := productRepo.FindActiveByID(ctx, product.ID); err != nil {
		t.Fatalf("active product should be visible: %v", err)
	}

	product.IsActive = false
	product.UpdatedAt = time.Now()
	if err := productRepo.Update(ctx, product); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if _, err := productRepo.FindActiveByID(ctx, product.ID); err != ErrProductNotFound {
		t.Fatalf("expected ErrProductNotFound for a deactivated product, got %v", err)
	}

	// The unscoped lookup still resolves it for the back-office
	stored, err := productRepo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("FindByID should still resolve the product: %v", err)
	}
	if stored.IsActive {
		t.Errorf("expected the stored product to be inactive")
	}
}

func TestFindActiveBySlugHidesDeactivatedCategory(t *testing.T) {
	ctx := context.Background()
	categoryRepo := NewCategoryRepository(testDB)

	category := &domain.Category{
		ID:        uuid.New(),
		Name:      "Seasonal " + uuid.New().String(),
		Slug:      "seasonal-" + uuid.New().String(),
		IsActive:  false,
		CreatedAt: time.Now(),
	}
	if err := categoryRepo.Create(ctx, category); err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}

	if _, err := categoryRepo.FindActiveBySlug(ctx, category.Slug); err != ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound for an inactive category, got %v", err)
	}

	if _, err := categoryRepo.FindBySlug(ctx, category.Slug); err != nil {
		t.Fatalf("FindBySlug should still resolve the category: %v", err)
	}
}

func TestProductDeleteBlockedByOrders(t *testing.T) {
	ctx := context.Background()
	productRepo := NewProductRepository(testDB)

	client := seedUser(t, domain.RoleClient)
	product := seedProduct(t, "Ordered", "3.00", 10)
	seedCartLine(t, client.ID, product, 1)

	order, items := buildOrder(client, []*domain.Product{product}, []int{1})
	if err := NewOrderRepository(testDB).CreateOrder(ctx, order, items); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	if err := productRepo.Delete(ctx, product.ID); err != ErrProductInUse {
		t.Fatalf("expected ErrProductInUse, got %v", err)
	}
}

func TestReplaceMainImageKeepsOneMain(t *testing.T) {
	ctx := context.Background()
	imageRepo := NewProductImageRepository(testDB)

	product := seedProduct(t, "Pictured", "2.50", 10)

	first := &domain.ProductImage{
		ID:        uuid.New(),
		ProductID: product.ID,
		Path:      uuid.New().String() + ".jpg",
		IsMain:    true,
		CreatedAt: time.Now(),
	}
	if err := imageRepo.Add(ctx, first); err != nil {
		t.Fatalf("failed to add first image: %v", err)
	}

	second := &domain.ProductImage{
		ID:        uuid.New(),
		ProductID: product.ID,
		Path:      uuid.New().String() + ".jpg",
		IsMain:    true,
		CreatedAt: time.Now(),
	}
	demoted, err := imageRepo.ReplaceMain(ctx, second)
	if err != nil {
		t.Fatalf("ReplaceMain failed: %v", err)
	}
	if demoted == nil || demoted.ID != first.ID {
		t.Fatalf("expected the first image to be demoted, got %+v", demoted)
	}

	images, err := imageRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("ListByProduct failed: %v", err)
	}

	mains := 0
	for _, image := range images {
		if image.IsMain {
			mains++
			if image.ID != second.ID {
				t.Errorf("expected the second image to be main")
			}
		}
	}
	if mains != 1 {
		t.Errorf("expected exactly one main image, got %d", mains)
	}
}

func TestCartUpsertMergesQuantities(t *testing.T) {
	ctx := context.Background()
	cartRepo := NewCartRepository(testDB)

	client := seedUser(t, domain.RoleClient)
	product := seedProduct(t, "Merged", "2.00", 10)

	seedCartLine(t, client.ID, product, 2)
	seedCartLine(t, client.ID, product, 3)

	items, err := cartRepo.ListByUser(ctx, client.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one merged row, got %d", len(items))
	}
	if items[0].Quantity != 5 {
		t.Errorf("expected merged quantity 5, got %d", items[0].Quantity)
	}
}

func TestCartSetQuantityRequiresExistingLine(t *testing.T) {
	ctx := context.Background()
	cartRepo := NewCartRepository(testDB)

	client := seedUser(t, domain.RoleClient)
	carted := seedProduct(t, "Carted", "2.00", 10)
	absent := seedProduct(t, "Absent", "5.00", 10)

	seedCartLine(t, client.ID, carted, 2)

	line := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    client.ID,
		ProductID: carted.ID,
		Quantity:  7,
		UnitPrice: carted.Price,
		CreatedAt: time.Now(),
	}
	if err := cartRepo.SetQuantity(ctx, line); err != nil {
		t.Fatalf("SetQuantity on an existing line failed: %v", err)
	}

	// Updating a line that was never carted must not create it
	ghost := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    client.ID,
		ProductID: absent.ID,
		Quantity:  1,
		UnitPrice: absent.Price,
		CreatedAt: time.Now(),
	}
	if err := cartRepo.SetQuantity(ctx, ghost); err != ErrCartItemNotFound {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}

	items, err := cartRepo.ListByUser(ctx, client.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one cart line, got %d", len(items))
	}
	if items[0].ProductID != carted.ID || items[0].Quantity != 7 {
		t.Errorf("expected the carted line at quantity 7, got %+v", items[0])
	}
}

func TestCartUpsertUnknownProduct(t *testing.T) {
	ctx := context.Background()
	cartRepo := NewCartRepository(testDB)

	client := seedUser(t, domain.RoleClient)

	item := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    client.ID,
		ProductID: uuid.New(),
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("1.00"),
		CreatedAt: time.Now(),
	}
	if err := cartRepo.Upsert(ctx, item); err != ErrProductNotFound {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
