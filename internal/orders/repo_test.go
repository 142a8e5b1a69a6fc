package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	apperrors "github.com/maplecart/maplecart-backend/pkg/errors"
)

func seedOrder(t *testing.T, repo Repository, status enums.OrderStatus, autoRecv time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:  "T" + uuid.NewString()[:12],
		UserID:       uuid.New(),
		MerchantID:   uuid.New(),
		TotalAmount:  decimal.RequireFromString("50.00"),
		Status:       status,
		DeliveryWay:  enums.DeliveryWayPlatform,
		PayWay:       enums.PayWayWechat,
		AutoRecvTime: autoRecv,
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestRepository_TransitionStatusGuard(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	order := seedOrder(t, repo, enums.OrderStatusPendingPay, time.Now().Add(7*24*time.Hour))

	moved, err := repo.TransitionStatus(ctx, order.OrderNumber, enums.OrderStatusPendingPay, enums.OrderStatusPendingShip, nil)
	require.NoError(t, err)
	assert.True(t, moved)

	// same guard again: row is no longer pending_pay
	moved, err = repo.TransitionStatus(ctx, order.OrderNumber, enums.OrderStatusPendingPay, enums.OrderStatusPendingShip, nil)
	require.NoError(t, err)
	assert.False(t, moved)

	got, err := repo.GetByOrderNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendingShip, got.Status)
}

func TestRepository_TransitionStatusRecordsReason(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	order := seedOrder(t, repo, enums.OrderStatusPendingShip, time.Now().Add(7*24*time.Hour))

	reason := "buyer requested refund"
	moved, err := repo.TransitionStatus(ctx, order.OrderNumber, enums.OrderStatusPendingShip, enums.OrderStatusRefund, &reason)
	require.NoError(t, err)
	require.True(t, moved)

	got, err := repo.GetByOrderNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusRefund, got.Status)
	require.NotNil(t, got.StatusReason)
	assert.Equal(t, reason, *got.StatusReason)
}

func TestRepository_GetByOrderNumberNotFound(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	_, err := repo.GetByOrderNumber(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestRepository_ListPendingReceiveBefore(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now()

	overdue := seedOrder(t, repo, enums.OrderStatusPendingRecv, now.Add(-time.Hour))
	seedOrder(t, repo, enums.OrderStatusPendingRecv, now.Add(time.Hour))
	seedOrder(t, repo, enums.OrderStatusPendingShip, now.Add(-time.Hour))

	due, err := repo.ListPendingReceiveBefore(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, overdue.OrderNumber, due[0].OrderNumber)
}

func TestRepository_ListPendingReceiveBeforeLimit(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		seedOrder(t, repo, enums.OrderStatusPendingRecv, now.Add(-time.Duration(i+1)*time.Hour))
	}

	due, err := repo.ListPendingReceiveBefore(ctx, now, 2)
	require.NoError(t, err)
	assert.Len(t, due, 2)
}
