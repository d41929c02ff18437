package repository

import (
	"context"
	"database/sql"
	"log"
	"testing"
	"time"

	"bevera/internal/database"
	"bevera/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	connStr := "postgres://" + dbUser + ":" + dbPwd + "@" + dbHost + ":" + dbPort.Port() + "/" + dbName + "?sslmode=disable"
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	// Apply the real schema
	if err := database.RunMigrations(testDB, "../../migrations", zap.NewNop()); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
}

// seedUser inserts a user with a unique email
func seedUser(t *testing.T, role string) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:           uuid.New(),
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "$2a$10$placeholderplaceholderplaceh",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := NewUserRepository(testDB).Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// seedProduct inserts a category and a product under it
func seedProduct(t *testing.T, name, price string, stock int) *domain.Product {
	t.Helper()
	ctx := context.Background()

	category := &domain.Category{
		ID:        uuid.New(),
		Name:      "Category " + uuid.New().String(),
		Slug:      "category-" + uuid.New().String(),
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := NewCategoryRepository(testDB).Create(ctx, category); err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}

	product := &domain.Product{
		ID:         uuid.New(),
		Name:       name,
		SKU:        "SKU-" + uuid.New().String(),
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		IsActive:   true,
		CategoryID: category.ID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := NewProductRepository(testDB).Create(ctx, product); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product
}

func TestProperty_UserRoundTrip(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("stored users come back intact with a bcrypt hash", prop.ForAll(
		func(email string, password string, firstName string, lastName string) bool {
			// Clean up before each test
			_, _ = testDB.Exec("DELETE FROM users WHERE email = $1", email)

			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				t.Logf("Failed to hash password: %v", err)
				return false
			}

			user := &domain.User{
				ID:           uuid.New(),
				Email:        email,
				PasswordHash: string(hashedPassword),
				FirstName:    firstName,
				LastName:     lastName,
				Phone:        "+37129999999",
				Address:      "Test street 1",
				Role:         domain.RoleClient,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			}

			err = repo.Create(ctx, user)
			if err != nil {
				t.Logf("Failed to create user: %v", err)
				return false
			}

			retrievedUser, err := repo.FindByEmail(ctx, email)
			if err != nil {
				t.Logf("Failed to find user: %v", err)
				return false
			}

			if retrievedUser.PasswordHash == password {
				t.Logf("Password was stored as plaintext!")
				return false
			}

			err = bcrypt.CompareHashAndPassword([]byte(retrievedUser.PasswordHash), []byte(password))
			if err != nil {
				t.Logf("Stored password is not a valid bcrypt hash: %v", err)
				return false
			}

			if retrievedUser.Role != domain.RoleClient || retrievedUser.Phone != user.Phone {
				t.Logf("Stored fields do not round trip")
				return false
			}

			// Clean up after test
			_, _ = testDB.Exec("DELETE FROM users WHERE email = $1", email)

			return true
		},
		// Generate valid email addresses
		gen.RegexMatch(`[a-z]{5,10}@[a-z]{3,8}\.(com|org|net)`),
		// Generate passwords with at least 8 characters
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		// Generate first names
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
		// Generate last names
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestUserRoleUpdate(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	user := seedUser(t, domain.RoleClient)

	if err := repo.UpdateRole(ctx, user.ID, domain.RoleWorker); err != nil {
		t.Fatalf("UpdateRole failed: %v", err)
	}

	stored, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Role != domain.RoleWorker {
		t.Errorf("expected role worker, got %s", stored.Role)
	}

	if err := repo.UpdateRole(ctx, uuid.New(), domain.RoleWorker); err != ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound for a missing user, got %v", err)
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	user := seedUser(t, domain.RoleClient)

	dup := *user
	dup.ID = uuid.New()
	if err := repo.Create(ctx, &dup); err != ErrUserAlreadyExists {
		t.Errorf("expected ErrUserAlreadyExists, got %v", err)
	}
}
