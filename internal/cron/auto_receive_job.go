package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/internal/orders"
	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	"github.com/maplecart/maplecart-backend/pkg/logger"
)

const autoReceiveBatchSize = 200

// txRunner abstracts the transactional database entry point.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pendingReceiveReader interface {
	ListPendingReceiveBefore(ctx context.Context, deadline time.Time, limit int) ([]models.Order, error)
}

type orderSettler interface {
	SettleOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

type rewardApprover interface {
	ApproveForOrder(ctx context.Context, tx *gorm.DB, orderNumber string) error
}

type orderRepoFactory func(tx *gorm.DB) orders.Repository

// AutoReceiveJobParams configure the auto-receive settlement job.
type AutoReceiveJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Orders      pendingReceiveReader
	Finance     orderSettler
	Rewards     rewardApprover
	RepoFactory orderRepoFactory
	Now         func() time.Time
}

// NewAutoReceiveJob builds the job that completes and settles orders whose
// receive deadline has passed.
func NewAutoReceiveJob(params AutoReceiveJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("pending orders reader required")
	}
	if params.Finance == nil {
		return nil, fmt.Errorf("finance settler required")
	}
	repoFactory := params.RepoFactory
	if repoFactory == nil {
		repoFactory = func(tx *gorm.DB) orders.Repository {
			return orders.NewRepository(tx)
		}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &autoReceiveJob{
		logg:        params.Logger,
		db:          params.DB,
		orders:      params.Orders,
		finance:     params.Finance,
		rewards:     params.Rewards,
		repoFactory: repoFactory,
		now:         now,
	}, nil
}

type autoReceiveJob struct {
	logg        *logger.Logger
	db          txRunner
	orders      pendingReceiveReader
	finance     orderSettler
	rewards     rewardApprover
	repoFactory orderRepoFactory
	now         func() time.Time
}

func (j *autoReceiveJob) Name() string { return "auto-receive" }

// Run settles every overdue order in its own transaction. A failed order is
// logged and left in pending_recv for the next tick; it never aborts the rest
// of the batch.
func (j *autoReceiveJob) Run(ctx context.Context) error {
	deadline := j.now().UTC()
	overdue, err := j.orders.ListPendingReceiveBefore(ctx, deadline, autoReceiveBatchSize)
	if err != nil {
		return fmt.Errorf("query overdue orders: %w", err)
	}

	var errs []error
	settled := 0
	for _, order := range overdue {
		if err := j.settleOrder(ctx, order); err != nil {
			orderCtx := j.logg.WithOrderNumber(ctx, order.OrderNumber)
			j.logg.Error(orderCtx, "auto-receive settlement failed", err)
			errs = append(errs, fmt.Errorf("order %s: %w", order.OrderNumber, err))
			continue
		}
		settled++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"overdue": len(overdue), "settled": settled})
	j.logg.Info(logCtx, "auto-receive loop complete")
	return multierr.Combine(errs...)
}

func (j *autoReceiveJob) settleOrder(ctx context.Context, order models.Order) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		moved, err := repo.TransitionStatus(ctx, order.OrderNumber,
			enums.OrderStatusPendingRecv, enums.OrderStatusCompleted, nil)
		if err != nil {
			return err
		}
		if !moved {
			// another tick or a manual receive got there first
			return nil
		}
		if err := j.finance.SettleOrder(ctx, tx, &order); err != nil {
			return err
		}
		if j.rewards != nil {
			if err := j.rewards.ApproveForOrder(ctx, tx, order.OrderNumber); err != nil {
				return err
			}
		}
		return nil
	})
}
