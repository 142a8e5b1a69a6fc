package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/config"
	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
)

// Accruer records commission side effects of a split. Implementations must
// use the provided transaction.
type Accruer interface {
	AccrueForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

// Service is the fund split engine: it partitions order money across the
// merchant and the platform pools, settles completed orders, and reverses
// recorded splits on refund. Every balance mutation goes through ApplyChange
// so a flow row always accompanies it.
type Service interface {
	Split(ctx context.Context, tx *gorm.DB, order *models.Order) ([]models.OrderSplit, error)
	Reverse(ctx context.Context, tx *gorm.DB, orderNumber string) error
	SettleOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error
	ApplyChange(ctx context.Context, tx *gorm.DB, input ApplyChangeInput) (*models.AccountFlow, error)
	GetAccount(ctx context.Context, accountType enums.AccountType, merchantID uuid.UUID) (*models.FinanceAccount, error)
	ListFlows(ctx context.Context, accountID uuid.UUID) ([]models.AccountFlow, error)
	ListSplits(ctx context.Context, orderNumber string) ([]models.OrderSplit, error)
}

// ApplyChangeInput is one signed balance adjustment.
type ApplyChangeInput struct {
	AccountType enums.AccountType
	MerchantID  uuid.UUID
	Amount      decimal.Decimal
	FlowType    enums.FlowType
	OrderNumber *string
	RelatedUser *uuid.UUID
	Remark      string
}

type service struct {
	accounts AccountRepository
	flows    FlowRepository
	splits   SplitRepository

	standardShares []poolShare
	premiumShares  []poolShare
	rewards        Accruer
}

type poolShare struct {
	pool enums.AccountType
	bps  int64
}

// NewService wires the fund split engine. The accruer is optional; nil
// disables commission side effects.
func NewService(accounts AccountRepository, flows FlowRepository, splits SplitRepository, cfg config.FinanceConfig, rewards Accruer) (Service, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account repository required")
	}
	if flows == nil {
		return nil, fmt.Errorf("flow repository required")
	}
	if splits == nil {
		return nil, fmt.Errorf("split repository required")
	}

	standard, err := resolveShares(cfg.StandardShares)
	if err != nil {
		return nil, fmt.Errorf("standard split: %w", err)
	}
	premium, err := resolveShares(cfg.PremiumShares)
	if err != nil {
		return nil, fmt.Errorf("premium split: %w", err)
	}

	return &service{
		accounts:       accounts,
		flows:          flows,
		splits:         splits,
		standardShares: standard,
		premiumShares:  premium,
		rewards:        rewards,
	}, nil
}

func resolveShares(parse func() ([]config.PoolShare, error)) ([]poolShare, error) {
	raw, err := parse()
	if err != nil {
		return nil, err
	}
	shares := make([]poolShare, 0, len(raw))
	for _, share := range raw {
		pool, err := enums.ParseAccountType(share.Pool)
		if err != nil {
			return nil, err
		}
		if !pool.IsPool() {
			return nil, fmt.Errorf("split destination %q is not a pool", share.Pool)
		}
		shares = append(shares, poolShare{pool: pool, bps: int64(share.Bps)})
	}
	return shares, nil
}

var bpsDenominator = decimal.NewFromInt(10000)

// Split partitions the order total: each pool gets its basis-point share
// rounded down to the minor unit, the merchant gets the remainder, so the
// amounts always sum exactly to the total. One AccountFlow and one OrderSplit
// row per destination, all in the caller's transaction.
func (s *service) Split(ctx context.Context, tx *gorm.DB, order *models.Order) ([]models.OrderSplit, error) {
	if order == nil {
		return nil, fmt.Errorf("order required")
	}
	if order.TotalAmount.IsNegative() {
		return nil, fmt.Errorf("order total must not be negative")
	}

	shares := s.standardShares
	if order.HasPremiumItem {
		shares = s.premiumShares
	}

	rows := make([]models.OrderSplit, 0, len(shares)+1)
	poolTotal := decimal.Zero
	for _, share := range shares {
		amount := order.TotalAmount.
			Mul(decimal.NewFromInt(share.bps)).
			Div(bpsDenominator).
			RoundFloor(2)
		if amount.IsZero() {
			continue
		}
		poolTotal = poolTotal.Add(amount)

		pool := share.pool
		if _, err := s.ApplyChange(ctx, tx, ApplyChangeInput{
			AccountType: pool,
			MerchantID:  uuid.Nil,
			Amount:      amount,
			FlowType:    enums.FlowTypeOrderSplit,
			OrderNumber: &order.OrderNumber,
			RelatedUser: &order.UserID,
			Remark:      fmt.Sprintf("order split to %s", pool),
		}); err != nil {
			return nil, err
		}

		rows = append(rows, models.OrderSplit{
			OrderNumber: order.OrderNumber,
			Destination: enums.SplitDestinationPool,
			PoolType:    &pool,
			Amount:      amount,
		})
	}

	merchantAmount := order.TotalAmount.Sub(poolTotal)
	if _, err := s.ApplyChange(ctx, tx, ApplyChangeInput{
		AccountType: enums.AccountTypeMerchantSettlement,
		MerchantID:  order.MerchantID,
		Amount:      merchantAmount,
		FlowType:    enums.FlowTypeOrderSplit,
		OrderNumber: &order.OrderNumber,
		RelatedUser: &order.UserID,
		Remark:      "order split to merchant",
	}); err != nil {
		return nil, err
	}
	merchantID := order.MerchantID
	rows = append(rows, models.OrderSplit{
		OrderNumber: order.OrderNumber,
		Destination: enums.SplitDestinationMerchant,
		MerchantID:  &merchantID,
		Amount:      merchantAmount,
	})

	if err := s.splits.WithTx(tx).CreateAll(ctx, rows); err != nil {
		return nil, err
	}

	if s.rewards != nil {
		if err := s.rewards.AccrueForOrder(ctx, tx, order); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// Reverse negates every split flow recorded for the order. It reads the
// recorded flows rather than recomputing the partition, so the reversal is
// exact even if the configured shares changed since the split.
func (s *service) Reverse(ctx context.Context, tx *gorm.DB, orderNumber string) error {
	if orderNumber == "" {
		return fmt.Errorf("order number required")
	}

	recorded, err := s.flows.WithTx(tx).ListByOrderNumber(ctx, orderNumber, enums.FlowTypeOrderSplit)
	if err != nil {
		return err
	}

	accounts := s.accounts.WithTx(tx)
	flows := s.flows.WithTx(tx)
	for _, flow := range recorded {
		newBalance, err := accounts.AddBalance(ctx, flow.AccountID, flow.ChangeAmount.Neg())
		if err != nil {
			return err
		}
		reversal := &models.AccountFlow{
			AccountID:    flow.AccountID,
			AccountType:  flow.AccountType,
			RelatedUser:  flow.RelatedUser,
			OrderNumber:  &orderNumber,
			ChangeAmount: flow.ChangeAmount.Neg(),
			BalanceAfter: newBalance,
			FlowType:     enums.FlowTypeRefundReversal,
			Remark:       "refund reversal",
		}
		if err := flows.Create(ctx, reversal); err != nil {
			return err
		}
	}
	return nil
}

// SettleOrder credits the order total to the merchant settlement account once
// the order completes.
func (s *service) SettleOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order required")
	}
	_, err := s.ApplyChange(ctx, tx, ApplyChangeInput{
		AccountType: enums.AccountTypeMerchantSettlement,
		MerchantID:  order.MerchantID,
		Amount:      order.TotalAmount,
		FlowType:    enums.FlowTypeOrderSettlement,
		OrderNumber: &order.OrderNumber,
		RelatedUser: &order.UserID,
		Remark:      "order settlement",
	})
	return err
}

// ApplyChange mutates one account balance and writes the matching flow row in
// the same transaction. This is the only path that touches balances.
func (s *service) ApplyChange(ctx context.Context, tx *gorm.DB, input ApplyChangeInput) (*models.AccountFlow, error) {
	if !input.AccountType.IsValid() {
		return nil, fmt.Errorf("invalid account type %q", input.AccountType)
	}
	if !input.FlowType.IsValid() {
		return nil, fmt.Errorf("invalid flow type %q", input.FlowType)
	}

	accounts := s.accounts.WithTx(tx)
	account, err := accounts.GetOrCreate(ctx, input.AccountType, input.MerchantID)
	if err != nil {
		return nil, err
	}
	newBalance, err := accounts.AddBalance(ctx, account.ID, input.Amount)
	if err != nil {
		return nil, err
	}

	flow := &models.AccountFlow{
		AccountID:    account.ID,
		AccountType:  input.AccountType,
		RelatedUser:  input.RelatedUser,
		OrderNumber:  input.OrderNumber,
		ChangeAmount: input.Amount,
		BalanceAfter: newBalance,
		FlowType:     input.FlowType,
		Remark:       input.Remark,
	}
	if err := s.flows.WithTx(tx).Create(ctx, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

func (s *service) GetAccount(ctx context.Context, accountType enums.AccountType, merchantID uuid.UUID) (*models.FinanceAccount, error) {
	return s.accounts.Get(ctx, accountType, merchantID)
}

func (s *service) ListFlows(ctx context.Context, accountID uuid.UUID) ([]models.AccountFlow, error) {
	return s.flows.ListByAccount(ctx, accountID)
}

func (s *service) ListSplits(ctx context.Context, orderNumber string) ([]models.OrderSplit, error) {
	return s.splits.ListByOrderNumber(ctx, orderNumber)
}
