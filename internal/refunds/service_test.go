package refunds

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/maplecart/maplecart-backend/internal/cart"
	"github.com/maplecart/maplecart-backend/internal/catalog"
	"github.com/maplecart/maplecart-backend/internal/finance"
	"github.com/maplecart/maplecart-backend/internal/inventory"
	"github.com/maplecart/maplecart-backend/internal/orders"
	"github.com/maplecart/maplecart-backend/internal/users"
	"github.com/maplecart/maplecart-backend/pkg/config"
	"github.com/maplecart/maplecart-backend/pkg/db"
	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	apperrors "github.com/maplecart/maplecart-backend/pkg/errors"
	"github.com/maplecart/maplecart-backend/pkg/logger"
)

type fixture struct {
	refunds Service
	orders  orders.Service
	conn    *gorm.DB
}

func newFixture(t *testing.T) *fixture {
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

	financeCfg := config.FinanceConfig{
		PlatformMerchantID: "00000000-0000-0000-0000-000000000001",
		StandardSplit:      "platform_maintenance:500,subsidy_pool:1000,development_fund:300,community_tier1:200,community_tier2:100",
		PremiumSplit:       "platform_maintenance:500,subsidy_pool:2000,development_fund:500,community_tier1:300,community_tier2:200",
	}
	financeSvc, err := finance.NewService(
		finance.NewAccountRepository(conn),
		finance.NewFlowRepository(conn),
		finance.NewSplitRepository(conn),
		financeCfg,
		nil,
	)
	if err != nil {
		t.Fatalf("finance service error: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client := db.NewFromConn(conn)
	orderRepo := orders.NewRepository(conn)
	orderSvc, err := orders.NewService(
		client,
		orderRepo,
		cart.NewRepository(conn),
		catalog.NewRepository(conn),
		inventory.NewRepository(conn),
		users.NewRepository(conn),
		financeSvc,
		config.OrdersConfig{AutoReceiveDays: 7, PayWayAllowList: "alipay,wechat,card,wx_pub,wx_app"},
		financeCfg,
		logg,
	)
	if err != nil {
		t.Fatalf("orders service error: %v", err)
	}

	refundSvc, err := NewService(client, NewRepository(conn), orderRepo, financeSvc, inventory.NewRepository(conn), nil, logg)
	if err != nil {
		t.Fatalf("refunds service error: %v", err)
	}
	return &fixture{refunds: refundSvc, orders: orderSvc, conn: conn}
}

func (f *fixture) seedPaidOrder(t *testing.T, price string, stock int) *orders.Detail {
	t.Helper()
	user := models.User{Name: "buyer", Status: "active"}
	if err := f.conn.Create(&user).Error; err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	product := models.Product{Name: "maple syrup", Status: "on_sale"}
	if err := f.conn.Create(&product).Error; err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	sku := models.ProductSKU{ProductID: product.ID, SpecName: "default", Price: decimal.RequireFromString(price), Stock: &stock}
	if err := f.conn.Create(&sku).Error; err != nil {
		t.Fatalf("seeding sku: %v", err)
	}

	detail, err := f.orders.Create(context.Background(), orders.CreateOrderInput{
		UserID:   user.ID,
		BuyNow:   []orders.BuyNowItem{{ProductID: product.ID, SKUID: sku.ID, Quantity: 2}},
		Shipping: orders.ShippingInput{ConsigneeName: "Sam", Province: "ON", City: "Ottawa", Address: "1 Bank St"},
	})
	if err != nil {
		t.Fatalf("creating order: %v", err)
	}
	if err := f.orders.MarkPaid(context.Background(), detail.OrderNumber, enums.PayWayWechat); err != nil {
		t.Fatalf("marking paid: %v", err)
	}
	return detail
}

func TestService_ApplyDuplicate(t *testing.T) {
	f := newFixture(t)
	detail := f.seedPaidOrder(t, "50.00", 10)

	input := ApplyInput{OrderNumber: detail.OrderNumber, RefundType: enums.RefundTypeRefundOnly, Reason: "damaged"}
	if _, err := f.refunds.Apply(context.Background(), input); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	_, err := f.refunds.Apply(context.Background(), input)
	if !apperrors.HasCode(err, apperrors.CodeDuplicateOperation) {
		t.Fatalf("expected duplicate operation, got %v", err)
	}
}

func TestService_AuditApproveReversesSplit(t *testing.T) {
	f := newFixture(t)
	detail := f.seedPaidOrder(t, "100.00", 10)

	if _, err := f.refunds.Apply(context.Background(), ApplyInput{
		OrderNumber: detail.OrderNumber, RefundType: enums.RefundTypeReturn, Reason: "wrong item",
	}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if err := f.refunds.Audit(context.Background(), AuditInput{OrderNumber: detail.OrderNumber, Approve: true}); err != nil {
		t.Fatalf("Audit error: %v", err)
	}

	var order models.Order
	if err := f.conn.First(&order, "order_number = ?", detail.OrderNumber).Error; err != nil {
		t.Fatalf("loading order: %v", err)
	}
	if order.Status != enums.OrderStatusRefund {
		t.Fatalf("expected refund status, got %s", order.Status)
	}

	var accounts []models.FinanceAccount
	if err := f.conn.Find(&accounts).Error; err != nil {
		t.Fatalf("loading accounts: %v", err)
	}
	for _, account := range accounts {
		if !account.Balance.IsZero() {
			t.Fatalf("account %s must net to zero after reversal, got %s", account.AccountType, account.Balance)
		}
	}

	// return refunds restock the reserved units
	var sku models.ProductSKU
	if err := f.conn.First(&sku).Error; err != nil {
		t.Fatalf("loading sku: %v", err)
	}
	if sku.Stock == nil || *sku.Stock != 10 {
		t.Fatalf("expected restocked quantity 10, got %v", sku.Stock)
	}

	refund, err := f.refunds.Progress(context.Background(), detail.OrderNumber)
	if err != nil {
		t.Fatalf("Progress error: %v", err)
	}
	if refund.Status != enums.RefundStatusSuccess {
		t.Fatalf("expected refund success, got %s", refund.Status)
	}
}

func TestService_AuditTwice(t *testing.T) {
	f := newFixture(t)
	detail := f.seedPaidOrder(t, "100.00", 10)

	if _, err := f.refunds.Apply(context.Background(), ApplyInput{
		OrderNumber: detail.OrderNumber, RefundType: enums.RefundTypeRefundOnly, Reason: "changed mind",
	}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if err := f.refunds.Audit(context.Background(), AuditInput{OrderNumber: detail.OrderNumber, Approve: true}); err != nil {
		t.Fatalf("first Audit error: %v", err)
	}

	err := f.refunds.Audit(context.Background(), AuditInput{OrderNumber: detail.OrderNumber, Approve: true})
	if !apperrors.HasCode(err, apperrors.CodeDuplicateOperation) {
		t.Fatalf("expected duplicate operation on second audit, got %v", err)
	}

	// reversal must not have run twice
	var reversals int64
	if err := f.conn.Model(&models.AccountFlow{}).
		Where("order_number = ? AND flow_type = ?", detail.OrderNumber, enums.FlowTypeRefundReversal).
		Count(&reversals).Error; err != nil {
		t.Fatalf("counting reversals: %v", err)
	}
	var splits int64
	if err := f.conn.Model(&models.AccountFlow{}).
		Where("order_number = ? AND flow_type = ?", detail.OrderNumber, enums.FlowTypeOrderSplit).
		Count(&splits).Error; err != nil {
		t.Fatalf("counting split flows: %v", err)
	}
	if reversals != splits {
		t.Fatalf("expected one reversal per split flow, got %d vs %d", reversals, splits)
	}
}

func TestService_AuditReject(t *testing.T) {
	f := newFixture(t)
	detail := f.seedPaidOrder(t, "100.00", 10)

	if _, err := f.refunds.Apply(context.Background(), ApplyInput{
		OrderNumber: detail.OrderNumber, RefundType: enums.RefundTypeRefundOnly, Reason: "changed mind",
	}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	reason := "outside return window"
	if err := f.refunds.Audit(context.Background(), AuditInput{OrderNumber: detail.OrderNumber, RejectReason: &reason}); err != nil {
		t.Fatalf("Audit error: %v", err)
	}

	refund, err := f.refunds.Progress(context.Background(), detail.OrderNumber)
	if err != nil {
		t.Fatalf("Progress error: %v", err)
	}
	if refund.Status != enums.RefundStatusRejected {
		t.Fatalf("expected rejected, got %s", refund.Status)
	}
	if refund.RejectReason == nil || *refund.RejectReason != reason {
		t.Fatalf("expected recorded reject reason, got %v", refund.RejectReason)
	}

	// rejection leaves the order and the ledger untouched
	var order models.Order
	if err := f.conn.First(&order, "order_number = ?", detail.OrderNumber).Error; err != nil {
		t.Fatalf("loading order: %v", err)
	}
	if order.Status != enums.OrderStatusPendingShip {
		t.Fatalf("expected order untouched, got %s", order.Status)
	}
}

func TestService_SellerAcceptThenAudit(t *testing.T) {
	f := newFixture(t)
	detail := f.seedPaidOrder(t, "100.00", 10)

	if _, err := f.refunds.Apply(context.Background(), ApplyInput{
		OrderNumber: detail.OrderNumber, RefundType: enums.RefundTypeRefundOnly, Reason: "changed mind",
	}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if err := f.refunds.SellerAccept(context.Background(), detail.OrderNumber); err != nil {
		t.Fatalf("SellerAccept error: %v", err)
	}

	refund, err := f.refunds.Progress(context.Background(), detail.OrderNumber)
	if err != nil {
		t.Fatalf("Progress error: %v", err)
	}
	if refund.Status != enums.RefundStatusSellerOK {
		t.Fatalf("expected seller_ok, got %s", refund.Status)
	}

	if err := f.refunds.Audit(context.Background(), AuditInput{OrderNumber: detail.OrderNumber, Approve: true}); err != nil {
		t.Fatalf("Audit after seller accept error: %v", err)
	}
}
