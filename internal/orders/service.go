package orders

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/internal/cart"
	"github.com/maplecart/maplecart-backend/internal/catalog"
	"github.com/maplecart/maplecart-backend/internal/finance"
	"github.com/maplecart/maplecart-backend/internal/inventory"
	"github.com/maplecart/maplecart-backend/internal/users"
	"github.com/maplecart/maplecart-backend/pkg/config"
	"github.com/maplecart/maplecart-backend/pkg/db"
	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	apperrors "github.com/maplecart/maplecart-backend/pkg/errors"
	"github.com/maplecart/maplecart-backend/pkg/logger"
)

const createRetries = 3

// Service drives the order lifecycle. Create runs everything from line
// assembly through fund split in one transaction; nothing partially commits.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*Detail, error)
	MarkPaid(ctx context.Context, orderNumber string, payWay enums.PayWay) error
	UpdateStatus(ctx context.Context, orderNumber string, to enums.OrderStatus, reason *string) error
	ListByUser(ctx context.Context, userID uuid.UUID, status *enums.OrderStatus) ([]Summary, error)
	GetDetail(ctx context.Context, orderNumber string) (*Detail, error)
}

type service struct {
	client    *db.Client
	repo      Repository
	carts     cart.Repository
	catalog   catalog.Repository
	inventory inventory.Repository
	users     users.Repository
	finance   finance.Service

	allowedPayWays     map[enums.PayWay]bool
	autoReceive        time.Duration
	platformMerchantID uuid.UUID
	logg               *logger.Logger
}

// NewService wires the order lifecycle service with its collaborators.
func NewService(
	client *db.Client,
	repo Repository,
	cartRepo cart.Repository,
	catalogRepo catalog.Repository,
	inventoryRepo inventory.Repository,
	userRepo users.Repository,
	financeSvc finance.Service,
	ordersCfg config.OrdersConfig,
	financeCfg config.FinanceConfig,
	logg *logger.Logger,
) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if inventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if financeSvc == nil {
		return nil, fmt.Errorf("finance service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	allowed := make(map[enums.PayWay]bool)
	for _, raw := range ordersCfg.AllowedPayWays() {
		way, err := enums.ParsePayWay(raw)
		if err != nil {
			return nil, err
		}
		allowed[way] = true
	}

	platformMerchantID, err := uuid.Parse(financeCfg.PlatformMerchantID)
	if err != nil {
		return nil, fmt.Errorf("invalid platform merchant id: %w", err)
	}

	return &service{
		client:             client,
		repo:               repo,
		carts:              cartRepo,
		catalog:            catalogRepo,
		inventory:          inventoryRepo,
		users:              userRepo,
		finance:            financeSvc,
		allowedPayWays:     allowed,
		autoReceive:        time.Duration(ordersCfg.AutoReceiveDays) * 24 * time.Hour,
		platformMerchantID: platformMerchantID,
		logg:               logg,
	}, nil
}

type lineDraft struct {
	productID      uuid.UUID
	skuID          uuid.UUID
	quantity       int
	unitPrice      decimal.Decimal
	specifications *string
}

// Create builds an order from the selected cart entries or an explicit
// buy-now list. Validation, line writes, stock reservation, cart cleanup and
// the fund split all commit or roll back together. Order number collisions
// retry the whole transaction with a fresh number.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*Detail, error) {
	if input.UserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if input.DeliveryWay == "" {
		input.DeliveryWay = enums.DeliveryWayPlatform
	}
	if !input.DeliveryWay.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid delivery way")
	}
	if input.PayWay == "" {
		input.PayWay = enums.PayWayWechat
	}
	if !s.allowedPayWays[input.PayWay] {
		return nil, apperrors.New(apperrors.CodeValidation, "payment method not allowed").
			WithDetails(map[string]any{"pay_way": input.PayWay})
	}
	if len(input.BuyNow) > 0 && input.DeliveryWay == enums.DeliveryWayPlatform && input.Shipping.Address == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "shipping address is required")
	}

	var detail *Detail
	var err error
	for attempt := 0; attempt < createRetries; attempt++ {
		orderNumber := generateOrderNumber(input.UserID, time.Now())
		err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
			created, txErr := s.createInTx(ctx, tx, input, orderNumber)
			if txErr != nil {
				return txErr
			}
			detail = created
			return nil
		})
		if err == nil {
			return detail, nil
		}
		if !db.IsUniqueViolation(err, "") {
			return nil, err
		}
		s.logg.Warn(s.logg.WithOrderNumber(ctx, orderNumber), "order number collision, retrying")
	}
	return nil, apperrors.Wrap(apperrors.CodeConflict, err, "order number generation exhausted retries")
}

func (s *service) createInTx(ctx context.Context, tx *gorm.DB, input CreateOrderInput, orderNumber string) (*Detail, error) {
	if _, err := s.users.WithTx(tx).GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	fromCart := len(input.BuyNow) == 0
	drafts, err := s.assembleLines(ctx, tx, input, fromCart)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(drafts))
	for _, draft := range drafts {
		productIDs = append(productIDs, draft.productID)
	}
	products, err := s.catalog.WithTx(tx).GetProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	hasPremium := false
	merchantID := uuid.Nil
	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(drafts))
	var specifications *string
	for _, draft := range drafts {
		product, ok := products[draft.productID]
		if !ok {
			return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		if product.IsPremium {
			hasPremium = true
		}
		if merchantID == uuid.Nil && product.MerchantID != nil {
			merchantID = *product.MerchantID
		}
		if specifications == nil && draft.specifications != nil {
			specifications = draft.specifications
		}

		lineTotal := draft.unitPrice.Mul(decimal.NewFromInt(int64(draft.quantity)))
		total = total.Add(lineTotal)
		items = append(items, models.OrderItem{
			ProductID:  draft.productID,
			SKUID:      draft.skuID,
			Quantity:   draft.quantity,
			UnitPrice:  draft.unitPrice,
			TotalPrice: lineTotal,
		})
	}
	if merchantID == uuid.Nil {
		merchantID = s.platformMerchantID
	}

	now := time.Now()
	order := &models.Order{
		OrderNumber:    orderNumber,
		UserID:         input.UserID,
		MerchantID:     merchantID,
		TotalAmount:    total,
		Status:         enums.OrderStatusPendingPay,
		HasPremiumItem: hasPremium,
		Province:       input.Shipping.Province,
		City:           input.Shipping.City,
		District:       input.Shipping.District,
		DeliveryWay:    input.DeliveryWay,
		PayWay:         input.PayWay,
		Specifications: specifications,
		AutoRecvTime:   now.Add(s.autoReceive),
		Items:          items,
	}
	if input.Shipping.ConsigneeName != "" {
		order.ConsigneeName = &input.Shipping.ConsigneeName
	}
	if input.Shipping.ConsigneePhone != "" {
		order.ConsigneePhone = &input.Shipping.ConsigneePhone
	}
	if input.Shipping.Address != "" {
		order.ShippingAddress = &input.Shipping.Address
	}

	if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
		return nil, err
	}

	inventoryRepo := s.inventory.WithTx(tx)
	for _, draft := range drafts {
		if err := inventoryRepo.Reserve(ctx, draft.skuID, draft.quantity); err != nil {
			return nil, err
		}
	}

	if fromCart {
		if err := s.carts.WithTx(tx).ClearSelected(ctx, input.UserID); err != nil {
			return nil, err
		}
	}

	if _, err := s.finance.Split(ctx, tx, order); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderNumber(ctx, orderNumber), "order created")
	return s.buildDetail(order, products), nil
}

func (s *service) assembleLines(ctx context.Context, tx *gorm.DB, input CreateOrderInput, fromCart bool) ([]lineDraft, error) {
	type rawLine struct {
		productID      uuid.UUID
		skuID          uuid.UUID
		quantity       int
		specifications *string
	}

	var raws []rawLine
	if fromCart {
		entries, err := s.carts.WithTx(tx).ListSelected(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "no selected cart entries")
		}
		for _, entry := range entries {
			raws = append(raws, rawLine{entry.ProductID, entry.SKUID, entry.Quantity, entry.Specifications})
		}
	} else {
		for _, item := range input.BuyNow {
			raws = append(raws, rawLine{item.ProductID, item.SKUID, item.Quantity, item.Specifications})
		}
	}

	skuIDs := make([]uuid.UUID, 0, len(raws))
	for _, raw := range raws {
		skuIDs = append(skuIDs, raw.skuID)
	}
	skus, err := s.catalog.WithTx(tx).GetSKUs(ctx, skuIDs)
	if err != nil {
		return nil, err
	}

	drafts := make([]lineDraft, 0, len(raws))
	for _, raw := range raws {
		if raw.quantity <= 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
		}
		sku, ok := skus[raw.skuID]
		if !ok {
			return nil, apperrors.New(apperrors.CodeNotFound, "sku not found")
		}
		if sku.ProductID != raw.productID {
			return nil, apperrors.New(apperrors.CodeValidation, "sku does not belong to product")
		}
		drafts = append(drafts, lineDraft{
			productID:      raw.productID,
			skuID:          raw.skuID,
			quantity:       raw.quantity,
			unitPrice:      sku.Price,
			specifications: raw.specifications,
		})
	}
	return drafts, nil
}

// MarkPaid advances a paid order to pending_ship. A repeated notification for
// an order that already advanced is a no-op, so duplicate gateway callbacks
// are safe.
func (s *service) MarkPaid(ctx context.Context, orderNumber string, payWay enums.PayWay) error {
	if payWay != "" && !s.allowedPayWays[payWay] {
		return apperrors.New(apperrors.CodeValidation, "payment method not allowed").
			WithDetails(map[string]any{"pay_way": payWay})
	}

	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetByOrderNumber(ctx, orderNumber)
		if err != nil {
			return err
		}

		switch order.Status {
		case enums.OrderStatusPendingPay:
		case enums.OrderStatusPendingShip, enums.OrderStatusPendingRecv, enums.OrderStatusCompleted:
			return nil
		default:
			return apperrors.New(apperrors.CodeStateConflict, "order is not payable").
				WithDetails(map[string]any{"status": order.Status})
		}

		moved, err := repo.TransitionStatus(ctx, orderNumber, enums.OrderStatusPendingPay, enums.OrderStatusPendingShip, nil)
		if err != nil {
			return err
		}
		if !moved {
			// lost the race to another callback, nothing left to do
			return nil
		}
		if payWay != "" {
			if err := repo.SetPayWay(ctx, orderNumber, payWay); err != nil {
				return err
			}
		}
		s.logg.Info(s.logg.WithOrderNumber(ctx, orderNumber), "order marked paid")
		return nil
	})
}

// UpdateStatus applies a caller-requested transition under the state machine
// rules.
func (s *service) UpdateStatus(ctx context.Context, orderNumber string, to enums.OrderStatus, reason *string) error {
	if !to.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "invalid order status")
	}

	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetByOrderNumber(ctx, orderNumber)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(to) {
			return apperrors.New(apperrors.CodeStateConflict, "state transition disallowed").
				WithDetails(map[string]any{"from": order.Status, "to": to})
		}
		moved, err := repo.TransitionStatus(ctx, orderNumber, order.Status, to, reason)
		if err != nil {
			return err
		}
		if !moved {
			return apperrors.New(apperrors.CodeStateConflict, "order changed concurrently")
		}
		return nil
	})
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, status *enums.OrderStatus) ([]Summary, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	orderRows, err := s.repo.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(orderRows))
	for _, order := range orderRows {
		if len(order.Items) > 0 {
			productIDs = append(productIDs, order.Items[0].ProductID)
		}
	}
	products, err := s.catalog.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(orderRows))
	for _, order := range orderRows {
		summary := Summary{
			OrderNumber: order.OrderNumber,
			Status:      order.Status,
			TotalAmount: order.TotalAmount,
			ItemCount:   len(order.Items),
			CreatedAt:   order.CreatedAt,
		}
		if len(order.Items) > 0 {
			if product, ok := products[order.Items[0].ProductID]; ok {
				summary.FirstProductName = product.Name
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *service) GetDetail(ctx context.Context, orderNumber string) (*Detail, error) {
	order, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.catalog.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(order, products), nil
}

func (s *service) buildDetail(order *models.Order, products map[uuid.UUID]models.Product) *Detail {
	detail := &Detail{
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		StatusReason:    order.StatusReason,
		TotalAmount:     order.TotalAmount,
		HasPremiumItem:  order.HasPremiumItem,
		DeliveryWay:     order.DeliveryWay,
		PayWay:          order.PayWay,
		ConsigneeName:   order.ConsigneeName,
		ConsigneePhone:  order.ConsigneePhone,
		Province:        order.Province,
		City:            order.City,
		District:        order.District,
		ShippingAddress: order.ShippingAddress,
		AutoRecvTime:    order.AutoRecvTime,
		CreatedAt:       order.CreatedAt,
	}
	for _, item := range order.Items {
		view := DetailItem{
			ProductID:  item.ProductID,
			SKUID:      item.SKUID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		}
		if product, ok := products[item.ProductID]; ok {
			view.ProductName = product.Name
		}
		detail.Items = append(detail.Items, view)
	}
	return detail
}

// generateOrderNumber derives a time+user+random number. Uniqueness is
// ultimately enforced by the database constraint; the random tail just makes
// collisions rare.
func generateOrderNumber(userID uuid.UUID, at time.Time) string {
	userFragment := uint32(userID.ID()) % 10000
	return fmt.Sprintf("%s%04d%06d", at.Format("20060102150405"), userFragment, rand.Intn(1000000))
}
