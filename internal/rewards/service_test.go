package rewards

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/maplecart/maplecart-backend/internal/finance"
	"github.com/maplecart/maplecart-backend/internal/users"
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

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	cfg := config.FinanceConfig{
		ReferralLayerBps:    "300,200,100",
		DirectorMemberLevel: 5,
		DirectorDividendBps: 100,
	}
	svc, err := NewService(NewRepository(conn), users.NewRepository(conn), finance.NewAccountRepository(conn), cfg)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, conn
}

func seedReferralChain(t *testing.T, conn *gorm.DB, depth int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, depth+1)
	for i := range ids {
		user := models.User{Name: "user", Status: "active"}
		if err := conn.Create(&user).Error; err != nil {
			t.Fatalf("seeding user: %v", err)
		}
		ids[i] = user.ID
	}
	for i := 0; i < depth; i++ {
		if err := conn.Create(&models.UserReferral{UserID: ids[i], ReferrerID: ids[i+1]}).Error; err != nil {
			t.Fatalf("seeding referral: %v", err)
		}
	}
	return ids
}

func TestService_AccrueForOrderWalksChain(t *testing.T) {
	svc, conn := newTestService(t)
	ids := seedReferralChain(t, conn, 5)

	order := &models.Order{
		OrderNumber: "20260830120000000001",
		UserID:      ids[0],
		MerchantID:  uuid.New(),
		TotalAmount: decimal.RequireFromString("100.00"),
	}
	if err := svc.AccrueForOrder(context.Background(), conn, order); err != nil {
		t.Fatalf("AccrueForOrder error: %v", err)
	}

	var pending []models.PendingReward
	if err := conn.Order("layer ASC").Find(&pending).Error; err != nil {
		t.Fatalf("loading rewards: %v", err)
	}
	// three configured layers even though the chain is deeper
	if len(pending) != 3 {
		t.Fatalf("expected 3 layered rewards, got %d", len(pending))
	}
	wantAmounts := []string{"3.00", "2.00", "1.00"}
	for i, reward := range pending {
		if reward.UserID != ids[i+1] {
			t.Fatalf("layer %d routed to wrong user", i+1)
		}
		if !reward.Amount.Equal(decimal.RequireFromString(wantAmounts[i])) {
			t.Fatalf("layer %d amount: got %s, want %s", i+1, reward.Amount, wantAmounts[i])
		}
		if reward.Status != enums.RewardStatusPending {
			t.Fatalf("new rewards must be pending, got %s", reward.Status)
		}
	}

	var team []models.TeamReward
	if err := conn.Find(&team).Error; err != nil {
		t.Fatalf("loading team rewards: %v", err)
	}
	if len(team) != 1 || team[0].UserID != ids[1] {
		t.Fatalf("expected one team reward for the direct referrer, got %+v", team)
	}
}

func TestService_AccrueForOrderNoReferrer(t *testing.T) {
	svc, conn := newTestService(t)
	ids := seedReferralChain(t, conn, 0)

	order := &models.Order{
		OrderNumber: "20260830120000000002",
		UserID:      ids[0],
		TotalAmount: decimal.RequireFromString("100.00"),
	}
	if err := svc.AccrueForOrder(context.Background(), conn, order); err != nil {
		t.Fatalf("AccrueForOrder error: %v", err)
	}

	var count int64
	if err := conn.Model(&models.PendingReward{}).Count(&count).Error; err != nil {
		t.Fatalf("counting rewards: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rewards without referrers, got %d", count)
	}
}

func TestService_ApproveAndRejectForOrder(t *testing.T) {
	svc, conn := newTestService(t)
	ids := seedReferralChain(t, conn, 1)

	order := &models.Order{
		OrderNumber: "20260830120000000003",
		UserID:      ids[0],
		TotalAmount: decimal.RequireFromString("50.00"),
	}
	if err := svc.AccrueForOrder(context.Background(), conn, order); err != nil {
		t.Fatalf("AccrueForOrder error: %v", err)
	}
	if err := svc.ApproveForOrder(context.Background(), conn, order.OrderNumber); err != nil {
		t.Fatalf("ApproveForOrder error: %v", err)
	}

	var reward models.PendingReward
	if err := conn.First(&reward, "order_number = ?", order.OrderNumber).Error; err != nil {
		t.Fatalf("loading reward: %v", err)
	}
	if reward.Status != enums.RewardStatusApproved {
		t.Fatalf("expected approved, got %s", reward.Status)
	}

	// reject only touches pending rows, approved stays
	if err := svc.RejectForOrder(context.Background(), conn, order.OrderNumber); err != nil {
		t.Fatalf("RejectForOrder error: %v", err)
	}
	if err := conn.First(&reward, "order_number = ?", order.OrderNumber).Error; err != nil {
		t.Fatalf("reloading reward: %v", err)
	}
	if reward.Status != enums.RewardStatusApproved {
		t.Fatalf("approved reward must not be rejected, got %s", reward.Status)
	}
}

func TestService_RecordWeeklySubsidiesWriteOnce(t *testing.T) {
	svc, conn := newTestService(t)
	ids := seedReferralChain(t, conn, 1)

	order := &models.Order{
		OrderNumber: "20260830120000000004",
		UserID:      ids[0],
		TotalAmount: decimal.RequireFromString("100.00"),
	}
	if err := svc.AccrueForOrder(context.Background(), conn, order); err != nil {
		t.Fatalf("AccrueForOrder error: %v", err)
	}
	if err := svc.ApproveForOrder(context.Background(), conn, order.OrderNumber); err != nil {
		t.Fatalf("ApproveForOrder error: %v", err)
	}

	weekStart := time.Now().UTC().Add(-24 * time.Hour)
	written, err := svc.RecordWeeklySubsidies(context.Background(), weekStart)
	if err != nil {
		t.Fatalf("RecordWeeklySubsidies error: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected one subsidy record, got %d", written)
	}

	written, err = svc.RecordWeeklySubsidies(context.Background(), weekStart)
	if err != nil {
		t.Fatalf("second RecordWeeklySubsidies error: %v", err)
	}
	if written != 0 {
		t.Fatalf("re-running a week must be a no-op, wrote %d", written)
	}
}

func TestService_RecordDirectorDividendsWriteOnce(t *testing.T) {
	svc, conn := newTestService(t)

	director := models.User{Name: "director", Status: "active", MemberLevel: 6}
	if err := conn.Create(&director).Error; err != nil {
		t.Fatalf("seeding director: %v", err)
	}
	pool := models.FinanceAccount{
		AccountType: enums.AccountTypeSubsidyPool,
		MerchantID:  uuid.Nil,
		Balance:     decimal.RequireFromString("1000.00"),
	}
	if err := conn.Create(&pool).Error; err != nil {
		t.Fatalf("seeding pool: %v", err)
	}

	written, err := svc.RecordDirectorDividends(context.Background(), "2026-08")
	if err != nil {
		t.Fatalf("RecordDirectorDividends error: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected one dividend, got %d", written)
	}

	var dividend models.DirectorDividend
	if err := conn.First(&dividend, "user_id = ?", director.ID).Error; err != nil {
		t.Fatalf("loading dividend: %v", err)
	}
	if !dividend.Amount.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected 1%% of pool, got %s", dividend.Amount)
	}

	written, err = svc.RecordDirectorDividends(context.Background(), "2026-08")
	if err != nil {
		t.Fatalf("second RecordDirectorDividends error: %v", err)
	}
	if written != 0 {
		t.Fatalf("re-running a period must be a no-op, wrote %d", written)
	}
}
