package cron

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/maplecart/maplecart-backend/internal/finance"
	"github.com/maplecart/maplecart-backend/internal/orders"
	"github.com/maplecart/maplecart-backend/pkg/config"
	"github.com/maplecart/maplecart-backend/pkg/db"
	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	"github.com/maplecart/maplecart-backend/pkg/logger"
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

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newFinanceService(t *testing.T, conn *gorm.DB) finance.Service {
	t.Helper()
	svc, err := finance.NewService(
		finance.NewAccountRepository(conn),
		finance.NewFlowRepository(conn),
		finance.NewSplitRepository(conn),
		config.FinanceConfig{
			StandardSplit: "platform_maintenance:500,subsidy_pool:1000",
			PremiumSplit:  "platform_maintenance:500,subsidy_pool:2000",
		},
		nil,
	)
	if err != nil {
		t.Fatalf("finance service error: %v", err)
	}
	return svc
}

func seedOverdueOrder(t *testing.T, conn *gorm.DB, orderNumber string, overdue bool) models.Order {
	t.Helper()
	deadline := time.Now().UTC().Add(time.Hour)
	if overdue {
		deadline = time.Now().UTC().Add(-time.Hour)
	}
	order := models.Order{
		OrderNumber:  orderNumber,
		UserID:       uuid.New(),
		MerchantID:   uuid.New(),
		TotalAmount:  decimal.RequireFromString("150.00"),
		Status:       enums.OrderStatusPendingRecv,
		AutoRecvTime: deadline,
	}
	if err := conn.Create(&order).Error; err != nil {
		t.Fatalf("seeding order: %v", err)
	}
	return order
}

func TestAutoReceiveJob_SettlesOverdueOrders(t *testing.T) {
	conn := newTestDB(t)
	financeSvc := newFinanceService(t, conn)

	overdue := seedOverdueOrder(t, conn, "20260830120000000001", true)
	fresh := seedOverdueOrder(t, conn, "20260830120000000002", false)

	job, err := NewAutoReceiveJob(AutoReceiveJobParams{
		Logger:  testLogger(),
		DB:      db.NewFromConn(conn),
		Orders:  orders.NewRepository(conn),
		Finance: financeSvc,
	})
	if err != nil {
		t.Fatalf("unexpected job error: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	var settled models.Order
	if err := conn.First(&settled, "order_number = ?", overdue.OrderNumber).Error; err != nil {
		t.Fatalf("loading order: %v", err)
	}
	if settled.Status != enums.OrderStatusCompleted {
		t.Fatalf("overdue order must complete, got %s", settled.Status)
	}

	var untouched models.Order
	if err := conn.First(&untouched, "order_number = ?", fresh.OrderNumber).Error; err != nil {
		t.Fatalf("loading order: %v", err)
	}
	if untouched.Status != enums.OrderStatusPendingRecv {
		t.Fatalf("order inside its window must stay pending_recv, got %s", untouched.Status)
	}

	account, err := financeSvc.GetAccount(context.Background(), enums.AccountTypeMerchantSettlement, overdue.MerchantID)
	if err != nil {
		t.Fatalf("GetAccount error: %v", err)
	}
	if !account.Balance.Equal(overdue.TotalAmount) {
		t.Fatalf("merchant must be credited the order total, got %s", account.Balance)
	}
}

func TestAutoReceiveJob_RerunDoesNotDoubleSettle(t *testing.T) {
	conn := newTestDB(t)
	financeSvc := newFinanceService(t, conn)
	overdue := seedOverdueOrder(t, conn, "20260830120000000003", true)

	job, err := NewAutoReceiveJob(AutoReceiveJobParams{
		Logger:  testLogger(),
		DB:      db.NewFromConn(conn),
		Orders:  orders.NewRepository(conn),
		Finance: financeSvc,
	})
	if err != nil {
		t.Fatalf("unexpected job error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("Run %d error: %v", i, err)
		}
	}

	account, err := financeSvc.GetAccount(context.Background(), enums.AccountTypeMerchantSettlement, overdue.MerchantID)
	if err != nil {
		t.Fatalf("GetAccount error: %v", err)
	}
	if !account.Balance.Equal(overdue.TotalAmount) {
		t.Fatalf("re-running the tick must settle exactly once, got %s", account.Balance)
	}
}

type flakySettler struct {
	inner    orderSettler
	failFor  string
	failures int
}

func (f *flakySettler) SettleOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if order.OrderNumber == f.failFor {
		f.failures++
		return fmt.Errorf("settlement backend unavailable")
	}
	return f.inner.SettleOrder(ctx, tx, order)
}

func TestAutoReceiveJob_OneFailureDoesNotAbortBatch(t *testing.T) {
	conn := newTestDB(t)
	financeSvc := newFinanceService(t, conn)

	broken := seedOverdueOrder(t, conn, "20260830120000000004", true)
	healthy := seedOverdueOrder(t, conn, "20260830120000000005", true)

	settler := &flakySettler{inner: financeSvc, failFor: broken.OrderNumber}
	job, err := NewAutoReceiveJob(AutoReceiveJobParams{
		Logger:  testLogger(),
		DB:      db.NewFromConn(conn),
		Orders:  orders.NewRepository(conn),
		Finance: settler,
	})
	if err != nil {
		t.Fatalf("unexpected job error: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected aggregated error for the failed order")
	}
	if settler.failures != 1 {
		t.Fatalf("expected one settlement attempt for the broken order, got %d", settler.failures)
	}

	var settled models.Order
	if err := conn.First(&settled, "order_number = ?", healthy.OrderNumber).Error; err != nil {
		t.Fatalf("loading order: %v", err)
	}
	if settled.Status != enums.OrderStatusCompleted {
		t.Fatalf("healthy order must settle despite the broken one, got %s", settled.Status)
	}

	// the failed order rolls back and stays eligible for the next tick
	var pending models.Order
	if err := conn.First(&pending, "order_number = ?", broken.OrderNumber).Error; err != nil {
		t.Fatalf("loading order: %v", err)
	}
	if pending.Status != enums.OrderStatusPendingRecv {
		t.Fatalf("failed order must remain pending_recv, got %s", pending.Status)
	}
}
