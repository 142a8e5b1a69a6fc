package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/maplecart/maplecart-backend/pkg/logger"
)

type rewardRecorder interface {
	RecordWeeklySubsidies(ctx context.Context, weekStart time.Time) (int, error)
	RecordDirectorDividends(ctx context.Context, period string) (int, error)
}

// RewardPayoutJobParams configure the periodic payout record job.
type RewardPayoutJobParams struct {
	Logger  *logger.Logger
	Rewards rewardRecorder
	Now     func() time.Time
}

// NewRewardPayoutJob builds the job that writes weekly subsidy and director
// dividend records. The underlying writes are keyed per user and period, so
// running the job more often than weekly is harmless.
func NewRewardPayoutJob(params RewardPayoutJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Rewards == nil {
		return nil, fmt.Errorf("rewards recorder required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &rewardPayoutJob{logg: params.Logger, rewards: params.Rewards, now: now}, nil
}

type rewardPayoutJob struct {
	logg    *logger.Logger
	rewards rewardRecorder
	now     func() time.Time
}

func (j *rewardPayoutJob) Name() string { return "reward-payout" }

func (j *rewardPayoutJob) Run(ctx context.Context) error {
	now := j.now().UTC()

	var errs []error
	subsidies, err := j.rewards.RecordWeeklySubsidies(ctx, previousWeekStart(now))
	if err != nil {
		errs = append(errs, fmt.Errorf("weekly subsidies: %w", err))
	}
	dividends, err := j.rewards.RecordDirectorDividends(ctx, now.Format("2006-01"))
	if err != nil {
		errs = append(errs, fmt.Errorf("director dividends: %w", err))
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"subsidies": subsidies, "dividends": dividends})
	j.logg.Info(logCtx, "reward payout loop complete")
	return multierr.Combine(errs...)
}

// previousWeekStart returns the Monday midnight of the week before t.
func previousWeekStart(t time.Time) time.Time {
	t = t.Truncate(24 * time.Hour)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset-7)
}
