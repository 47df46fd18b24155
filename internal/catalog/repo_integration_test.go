package catalog

import (
	"context"
	"os"
	"testing"

	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/postgres"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := postgres.Connect(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)
	if err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &Repo{DB: db}
}

func TestRepo_DeactivateTwiceIsNotFound(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	p, err := repo.Insert(ctx, Product{
		ID: uuid.NewString(), Name: "Kikoi", Price: decimal.RequireFromString("12.50"),
		Category: "textiles", Stock: 3,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !p.IsActive {
		t.Fatalf("new product should be active")
	}

	if _, err := repo.Deactivate(ctx, p.ID); err != nil {
		t.Fatalf("first deactivate: %v", err)
	}
	if _, err := repo.Deactivate(ctx, p.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("second deactivate: want NotFound, got %v", err)
	}

	// the row is kept, only hidden
	var active bool
	if err := repo.DB.QueryRow(ctx, `SELECT is_active FROM products WHERE id = $1`, p.ID).Scan(&active); err != nil {
		t.Fatalf("row should still exist: %v", err)
	}
	if active {
		t.Fatalf("row should be inactive")
	}
	if _, err := repo.GetActive(ctx, p.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("inactive product must not be served, got %v", err)
	}
	if _, err := repo.Update(ctx, p.ID, ProductInput{Name: "Kikoi", Price: decimal.RequireFromString("1")}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("inactive product must not be updated, got %v", err)
	}
	if _, err := repo.Deactivate(ctx, uuid.NewString()); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("unknown id: want NotFound, got %v", err)
	}
}
