package rewards

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/internal/finance"
	"github.com/maplecart/maplecart-backend/internal/users"
	"github.com/maplecart/maplecart-backend/pkg/config"
	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	apperrors "github.com/maplecart/maplecart-backend/pkg/errors"
)

// Service accrues referral commissions at split time and produces the
// periodic payout records a downstream settlement pass consumes.
type Service interface {
	finance.Accruer
	ApproveForOrder(ctx context.Context, tx *gorm.DB, orderNumber string) error
	RejectForOrder(ctx context.Context, tx *gorm.DB, orderNumber string) error
	RecordWeeklySubsidies(ctx context.Context, weekStart time.Time) (int, error)
	RecordDirectorDividends(ctx context.Context, period string) (int, error)
}

type service struct {
	repo     Repository
	users    users.Repository
	accounts finance.AccountRepository

	layerBps      []int64
	directorLevel int
	dividendBps   int64
}

// NewService wires the rewards service from finance configuration.
func NewService(repo Repository, userRepo users.Repository, accounts finance.AccountRepository, cfg config.FinanceConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rewards repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account repository required")
	}

	rawLayers, err := cfg.ReferralLayerShares()
	if err != nil {
		return nil, err
	}
	layers := make([]int64, 0, len(rawLayers))
	for _, bps := range rawLayers {
		layers = append(layers, int64(bps))
	}

	return &service{
		repo:          repo,
		users:         userRepo,
		accounts:      accounts,
		layerBps:      layers,
		directorLevel: cfg.DirectorMemberLevel,
		dividendBps:   int64(cfg.DirectorDividendBps),
	}, nil
}

var bpsDenominator = decimal.NewFromInt(10000)

// AccrueForOrder walks the buyer's referral chain and writes one pending
// reward per configured layer. The nearest referrer additionally earns a team
// reward at the layer-one rate. All writes share the split transaction.
func (s *service) AccrueForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order required")
	}
	if len(s.layerBps) == 0 {
		return nil
	}

	chain, err := s.users.WithTx(tx).ReferrerChain(ctx, order.UserID, len(s.layerBps))
	if err != nil {
		return err
	}

	repo := s.repo.WithTx(tx)
	for i, referrerID := range chain {
		amount := order.TotalAmount.
			Mul(decimal.NewFromInt(s.layerBps[i])).
			Div(bpsDenominator).
			RoundFloor(2)
		if amount.IsZero() {
			continue
		}
		if err := repo.CreatePending(ctx, &models.PendingReward{
			UserID:      referrerID,
			OrderNumber: order.OrderNumber,
			RewardType:  enums.RewardTypeReferral,
			Layer:       i + 1,
			Amount:      amount,
			Status:      enums.RewardStatusPending,
		}); err != nil {
			return err
		}
		if i == 0 {
			if err := repo.CreateTeam(ctx, &models.TeamReward{
				UserID:      referrerID,
				OrderNumber: order.OrderNumber,
				Amount:      amount,
				Status:      enums.RewardStatusPending,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApproveForOrder releases an order's pending rewards once the order settles.
func (s *service) ApproveForOrder(ctx context.Context, tx *gorm.DB, orderNumber string) error {
	return s.repo.WithTx(tx).
		SetStatusByOrder(ctx, orderNumber, enums.RewardStatusPending, enums.RewardStatusApproved)
}

// RejectForOrder voids an order's pending rewards when its split is reversed.
func (s *service) RejectForOrder(ctx context.Context, tx *gorm.DB, orderNumber string) error {
	return s.repo.WithTx(tx).
		SetStatusByOrder(ctx, orderNumber, enums.RewardStatusPending, enums.RewardStatusRejected)
}

// RecordWeeklySubsidies writes one subsidy record per user with approved
// rewards in the week starting at weekStart. Existing records are kept, so
// re-running a week is a no-op for already-recorded users.
func (s *service) RecordWeeklySubsidies(ctx context.Context, weekStart time.Time) (int, error) {
	weekStart = weekStart.Truncate(24 * time.Hour)
	sums, err := s.repo.SumApprovedByUser(ctx, weekStart, weekStart.Add(7*24*time.Hour))
	if err != nil {
		return 0, err
	}

	written := 0
	for userID, amount := range sums {
		if amount.IsZero() {
			continue
		}
		exists, err := s.repo.HasWeeklySubsidy(ctx, userID, weekStart)
		if err != nil {
			return written, err
		}
		if exists {
			continue
		}
		if err := s.repo.CreateWeeklySubsidy(ctx, &models.WeeklySubsidyRecord{
			UserID:    userID,
			WeekStart: weekStart,
			Amount:    amount,
		}); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// RecordDirectorDividends writes one dividend per qualified director for the
// given period, sized from the subsidy pool balance at record time.
func (s *service) RecordDirectorDividends(ctx context.Context, period string) (int, error) {
	if period == "" {
		return 0, fmt.Errorf("period required")
	}

	directors, err := s.users.ListByMemberLevelAtLeast(ctx, s.directorLevel)
	if err != nil {
		return 0, err
	}
	if len(directors) == 0 {
		return 0, nil
	}

	pool, err := s.accounts.Get(ctx, enums.AccountTypeSubsidyPool, uuid.Nil)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return 0, nil
		}
		return 0, err
	}
	amount := pool.Balance.
		Mul(decimal.NewFromInt(s.dividendBps)).
		Div(bpsDenominator).
		RoundFloor(2)
	if amount.IsZero() || amount.IsNegative() {
		return 0, nil
	}

	written := 0
	for _, director := range directors {
		exists, err := s.repo.HasDividend(ctx, director.ID, period)
		if err != nil {
			return written, err
		}
		if exists {
			continue
		}
		if err := s.repo.CreateDividend(ctx, &models.DirectorDividend{
			UserID: director.ID,
			Period: period,
			Amount: amount,
			Status: enums.DividendStatusPending,
		}); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
