package finance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
)

// FlowRepository manages the append-only account flow ledger.
type FlowRepository interface {
	WithTx(tx *gorm.DB) FlowRepository
	Create(ctx context.Context, flow *models.AccountFlow) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.AccountFlow, error)
	ListByOrderNumber(ctx context.Context, orderNumber string, flowType enums.FlowType) ([]models.AccountFlow, error)
}

type flowRepository struct {
	db *gorm.DB
}

// NewFlowRepository returns a flow repository bound to the provided database.
func NewFlowRepository(conn *gorm.DB) FlowRepository {
	return &flowRepository{db: conn}
}

func (r *flowRepository) WithTx(tx *gorm.DB) FlowRepository {
	if tx == nil {
		return r
	}
	return &flowRepository{db: tx}
}

func (r *flowRepository) Create(ctx context.Context, flow *models.AccountFlow) error {
	return r.db.WithContext(ctx).Create(flow).Error
}

func (r *flowRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.AccountFlow, error) {
	var flows []models.AccountFlow
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&flows).Error; err != nil {
		return nil, err
	}
	return flows, nil
}

func (r *flowRepository) ListByOrderNumber(ctx context.Context, orderNumber string, flowType enums.FlowType) ([]models.AccountFlow, error) {
	var flows []models.AccountFlow
	if err := r.db.WithContext(ctx).
		Where("order_number = ? AND flow_type = ?", orderNumber, flowType).
		Order("created_at ASC").
		Find(&flows).Error; err != nil {
		return nil, err
	}
	return flows, nil
}
