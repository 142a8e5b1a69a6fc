package rewards

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
)

// Repository manages commission and payout records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePending(ctx context.Context, reward *models.PendingReward) error
	CreateTeam(ctx context.Context, reward *models.TeamReward) error
	SetStatusByOrder(ctx context.Context, orderNumber string, from, to enums.RewardStatus) error
	ListPendingByOrder(ctx context.Context, orderNumber string) ([]models.PendingReward, error)
	// SumApprovedByUser aggregates approved pending rewards created in [from, to).
	SumApprovedByUser(ctx context.Context, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error)
	CreateWeeklySubsidy(ctx context.Context, record *models.WeeklySubsidyRecord) error
	HasWeeklySubsidy(ctx context.Context, userID uuid.UUID, weekStart time.Time) (bool, error)
	CreateDividend(ctx context.Context, dividend *models.DirectorDividend) error
	HasDividend(ctx context.Context, userID uuid.UUID, period string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a rewards repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePending(ctx context.Context, reward *models.PendingReward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

func (r *repository) CreateTeam(ctx context.Context, reward *models.TeamReward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

func (r *repository) SetStatusByOrder(ctx context.Context, orderNumber string, from, to enums.RewardStatus) error {
	if err := r.db.WithContext(ctx).
		Model(&models.PendingReward{}).
		Where("order_number = ? AND status = ?", orderNumber, from).
		Update("status", to).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.TeamReward{}).
		Where("order_number = ? AND status = ?", orderNumber, from).
		Update("status", to).Error
}

func (r *repository) ListPendingByOrder(ctx context.Context, orderNumber string) ([]models.PendingReward, error) {
	var out []models.PendingReward
	if err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		Order("layer ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) SumApprovedByUser(ctx context.Context, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []models.PendingReward
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at >= ? AND created_at < ?", enums.RewardStatusApproved, from, to).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	sums := make(map[uuid.UUID]decimal.Decimal)
	for _, row := range rows {
		sums[row.UserID] = sums[row.UserID].Add(row.Amount)
	}
	return sums, nil
}

func (r *repository) CreateWeeklySubsidy(ctx context.Context, record *models.WeeklySubsidyRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) HasWeeklySubsidy(ctx context.Context, userID uuid.UUID, weekStart time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WeeklySubsidyRecord{}).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) CreateDividend(ctx context.Context, dividend *models.DirectorDividend) error {
	return r.db.WithContext(ctx).Create(dividend).Error
}

func (r *repository) HasDividend(ctx context.Context, userID uuid.UUID, period string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DirectorDividend{}).
		Where("user_id = ? AND period = ?", userID, period).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
