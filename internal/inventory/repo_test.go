package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/maplecart/maplecart-backend/pkg/db/models"
	apperrors "github.com/maplecart/maplecart-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrating schema: %v", err)
	}
	return conn
}

func seedSKU(t *testing.T, conn *gorm.DB, stock *int) models.ProductSKU {
	t.Helper()
	product := models.Product{Name: "maple syrup", Status: "on_sale"}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	sku := models.ProductSKU{ProductID: product.ID, SpecName: "500ml", Stock: stock}
	if err := conn.Create(&sku).Error; err != nil {
		t.Fatalf("seeding sku: %v", err)
	}
	return sku
}

func intPtr(v int) *int { return &v }

func TestRepository_Reserve(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	sku := seedSKU(t, conn, intPtr(5))

	if err := repo.Reserve(context.Background(), sku.ID, 3); err != nil {
		t.Fatalf("Reserve error: %v", err)
	}

	var got models.ProductSKU
	if err := conn.First(&got, "id = ?", sku.ID).Error; err != nil {
		t.Fatalf("loading sku: %v", err)
	}
	if got.Stock == nil || *got.Stock != 2 {
		t.Fatalf("expected stock 2, got %v", got.Stock)
	}
}

func TestRepository_ReserveInsufficient(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	sku := seedSKU(t, conn, intPtr(2))

	err := repo.Reserve(context.Background(), sku.ID, 3)
	if !apperrors.HasCode(err, apperrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	var got models.ProductSKU
	if err := conn.First(&got, "id = ?", sku.ID).Error; err != nil {
		t.Fatalf("loading sku: %v", err)
	}
	if got.Stock == nil || *got.Stock != 2 {
		t.Fatalf("stock must be untouched on failure, got %v", got.Stock)
	}
}

func TestRepository_ReserveUntracked(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	sku := seedSKU(t, conn, nil)

	if err := repo.Reserve(context.Background(), sku.ID, 1000); err != nil {
		t.Fatalf("untracked sku must always reserve, got %v", err)
	}
}

func TestRepository_ReserveUnknownSKU(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	err := repo.Reserve(context.Background(), uuid.New(), 1)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRepository_Release(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	sku := seedSKU(t, conn, intPtr(1))

	if err := repo.Release(context.Background(), sku.ID, 4); err != nil {
		t.Fatalf("Release error: %v", err)
	}

	var got models.ProductSKU
	if err := conn.First(&got, "id = ?", sku.ID).Error; err != nil {
		t.Fatalf("loading sku: %v", err)
	}
	if got.Stock == nil || *got.Stock != 5 {
		t.Fatalf("expected stock 5, got %v", got.Stock)
	}
}
