package finance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/maplecart/maplecart-backend/pkg/config"
	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
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

func testFinanceConfig() config.FinanceConfig {
	return config.FinanceConfig{
		StandardSplit: "platform_maintenance:500,subsidy_pool:1000,development_fund:300,community_tier1:200,community_tier2:100",
		PremiumSplit:  "platform_maintenance:500,subsidy_pool:2000,development_fund:500,community_tier1:300,community_tier2:200",
	}
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(
		NewAccountRepository(conn),
		NewFlowRepository(conn),
		NewSplitRepository(conn),
		testFinanceConfig(),
		nil,
	)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, conn
}

func testOrder(total string, premium bool) *models.Order {
	return &models.Order{
		OrderNumber:    "20260830120000000001",
		UserID:         uuid.New(),
		MerchantID:     uuid.New(),
		TotalAmount:    decimal.RequireFromString(total),
		HasPremiumItem: premium,
		Status:         enums.OrderStatusPendingShip,
		AutoRecvTime:   time.Now().Add(7 * 24 * time.Hour),
	}
}

func TestService_SplitSumsToTotal(t *testing.T) {
	svc, conn := newTestService(t)
	order := testOrder("200.00", false)

	rows, err := svc.Split(context.Background(), conn, order)
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}

	sum := decimal.Zero
	var merchantRows int
	for _, row := range rows {
		if row.Amount.IsNegative() {
			t.Fatalf("split amount must not be negative: %s", row.Amount)
		}
		sum = sum.Add(row.Amount)
		if row.Destination == enums.SplitDestinationMerchant {
			merchantRows++
			if row.MerchantID == nil || *row.MerchantID != order.MerchantID {
				t.Fatalf("merchant row missing merchant id: %+v", row)
			}
		}
	}
	if !sum.Equal(order.TotalAmount) {
		t.Fatalf("split rows must sum to total: got %s, want %s", sum, order.TotalAmount)
	}
	if merchantRows != 1 {
		t.Fatalf("expected exactly one merchant row, got %d", merchantRows)
	}

	// every destination got a flow row and a balance increment
	var flows []models.AccountFlow
	if err := conn.Where("order_number = ?", order.OrderNumber).Find(&flows).Error; err != nil {
		t.Fatalf("loading flows: %v", err)
	}
	if len(flows) != len(rows) {
		t.Fatalf("expected %d flows, got %d", len(rows), len(flows))
	}
}

func TestService_SplitPremiumRoute(t *testing.T) {
	svc, conn := newTestService(t)
	order := testOrder("100.00", true)

	if _, err := svc.Split(context.Background(), conn, order); err != nil {
		t.Fatalf("Split error: %v", err)
	}

	subsidy, err := svc.GetAccount(context.Background(), enums.AccountTypeSubsidyPool, uuid.Nil)
	if err != nil {
		t.Fatalf("GetAccount error: %v", err)
	}
	if !subsidy.Balance.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("premium route must use premium shares: subsidy got %s", subsidy.Balance)
	}
}

func TestService_SplitRoundingRemainderToMerchant(t *testing.T) {
	svc, conn := newTestService(t)
	order := testOrder("0.99", false)

	rows, err := svc.Split(context.Background(), conn, order)
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}

	sum := decimal.Zero
	for _, row := range rows {
		if row.Amount.IsNegative() {
			t.Fatalf("negative split amount: %s", row.Amount)
		}
		sum = sum.Add(row.Amount)
	}
	if !sum.Equal(order.TotalAmount) {
		t.Fatalf("rounding remainder must not be dropped: sum %s, total %s", sum, order.TotalAmount)
	}
}

func TestService_ReverseNetsToZero(t *testing.T) {
	svc, conn := newTestService(t)
	order := testOrder("200.00", false)

	if _, err := svc.Split(context.Background(), conn, order); err != nil {
		t.Fatalf("Split error: %v", err)
	}
	if err := svc.Reverse(context.Background(), conn, order.OrderNumber); err != nil {
		t.Fatalf("Reverse error: %v", err)
	}

	var accounts []models.FinanceAccount
	if err := conn.Find(&accounts).Error; err != nil {
		t.Fatalf("loading accounts: %v", err)
	}
	for _, account := range accounts {
		if !account.Balance.IsZero() {
			t.Fatalf("account %s must be back to zero, got %s", account.AccountType, account.Balance)
		}
	}

	var reversals []models.AccountFlow
	if err := conn.Where("order_number = ? AND flow_type = ?", order.OrderNumber, enums.FlowTypeRefundReversal).
		Find(&reversals).Error; err != nil {
		t.Fatalf("loading reversals: %v", err)
	}
	if len(reversals) == 0 {
		t.Fatal("expected reversal flow rows")
	}
}

func TestService_BalanceReplaysFromFlows(t *testing.T) {
	svc, conn := newTestService(t)

	first := testOrder("200.00", false)
	second := testOrder("59.99", false)
	second.OrderNumber = "20260830120000000002"
	if _, err := svc.Split(context.Background(), conn, first); err != nil {
		t.Fatalf("Split error: %v", err)
	}
	if _, err := svc.Split(context.Background(), conn, second); err != nil {
		t.Fatalf("Split error: %v", err)
	}

	var accounts []models.FinanceAccount
	if err := conn.Find(&accounts).Error; err != nil {
		t.Fatalf("loading accounts: %v", err)
	}
	for _, account := range accounts {
		flows, err := svc.ListFlows(context.Background(), account.ID)
		if err != nil {
			t.Fatalf("ListFlows error: %v", err)
		}
		replayed := decimal.Zero
		for _, flow := range flows {
			replayed = replayed.Add(flow.ChangeAmount)
		}
		if !replayed.Equal(account.Balance) {
			t.Fatalf("flow replay mismatch for %s: replayed %s, balance %s",
				account.AccountType, replayed, account.Balance)
		}
	}
}

func TestService_SettleOrder(t *testing.T) {
	svc, conn := newTestService(t)
	order := testOrder("150.00", false)

	if err := svc.SettleOrder(context.Background(), conn, order); err != nil {
		t.Fatalf("SettleOrder error: %v", err)
	}

	account, err := svc.GetAccount(context.Background(), enums.AccountTypeMerchantSettlement, order.MerchantID)
	if err != nil {
		t.Fatalf("GetAccount error: %v", err)
	}
	if !account.Balance.Equal(order.TotalAmount) {
		t.Fatalf("expected settled balance %s, got %s", order.TotalAmount, account.Balance)
	}

	flows, err := svc.ListFlows(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("ListFlows error: %v", err)
	}
	if len(flows) != 1 || flows[0].FlowType != enums.FlowTypeOrderSettlement {
		t.Fatalf("expected a single settlement flow, got %+v", flows)
	}
}
