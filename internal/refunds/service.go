package refunds

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/internal/finance"
	"github.com/maplecart/maplecart-backend/internal/inventory"
	"github.com/maplecart/maplecart-backend/internal/orders"
	"github.com/maplecart/maplecart-backend/pkg/db"
	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	apperrors "github.com/maplecart/maplecart-backend/pkg/errors"
	"github.com/maplecart/maplecart-backend/pkg/logger"
)

// RewardVoider voids pending commissions when an order's split is reversed.
type RewardVoider interface {
	RejectForOrder(ctx context.Context, tx *gorm.DB, orderNumber string) error
}

// Service drives the refund workflow: one request per order, seller
// acknowledgement, and a final audit that either reverses the recorded fund
// split or rejects the request.
type Service interface {
	Apply(ctx context.Context, input ApplyInput) (*models.Refund, error)
	SellerAccept(ctx context.Context, orderNumber string) error
	Audit(ctx context.Context, input AuditInput) error
	Progress(ctx context.Context, orderNumber string) (*models.Refund, error)
}

// ApplyInput is one refund request.
type ApplyInput struct {
	OrderNumber string
	UserID      uuid.UUID
	RefundType  enums.RefundType
	Reason      string
}

// AuditInput is the final decision on a refund request.
type AuditInput struct {
	OrderNumber  string
	Approve      bool
	RejectReason *string
}

type service struct {
	client    *db.Client
	repo      Repository
	orders    orders.Repository
	finance   finance.Service
	inventory inventory.Repository
	rewards   RewardVoider
	logg      *logger.Logger
}

// NewService wires the refund workflow. The reward voider is optional; nil
// skips commission cleanup.
func NewService(
	client *db.Client,
	repo Repository,
	orderRepo orders.Repository,
	financeSvc finance.Service,
	inventoryRepo inventory.Repository,
	rewards RewardVoider,
	logg *logger.Logger,
) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("refunds repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if financeSvc == nil {
		return nil, fmt.Errorf("finance service required")
	}
	if inventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		client:    client,
		repo:      repo,
		orders:    orderRepo,
		finance:   financeSvc,
		inventory: inventoryRepo,
		rewards:   rewards,
		logg:      logg,
	}, nil
}

// Apply registers a refund request for the order. A second request for the
// same order fails with a duplicate-operation error; the unique constraint
// backs the check under concurrency.
func (s *service) Apply(ctx context.Context, input ApplyInput) (*models.Refund, error) {
	if input.OrderNumber == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "order number is required")
	}
	if !input.RefundType.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid refund type")
	}

	var refund *models.Refund
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).GetByOrderNumber(ctx, input.OrderNumber)
		if err != nil {
			return err
		}
		if input.UserID != uuid.Nil && order.UserID != input.UserID {
			return apperrors.New(apperrors.CodeForbidden, "order belongs to another user")
		}
		if order.Status.IsTerminal() {
			return apperrors.New(apperrors.CodeStateConflict, "order can no longer be refunded").
				WithDetails(map[string]any{"status": order.Status})
		}

		if _, err := s.repo.WithTx(tx).GetByOrderNumber(ctx, input.OrderNumber); err == nil {
			return apperrors.New(apperrors.CodeDuplicateOperation, "refund already requested")
		} else if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			return err
		}

		refund = &models.Refund{
			OrderNumber: input.OrderNumber,
			UserID:      order.UserID,
			RefundType:  input.RefundType,
			Amount:      order.TotalAmount,
			Reason:      input.Reason,
			Status:      enums.RefundStatusApplied,
		}
		return s.repo.WithTx(tx).Create(ctx, refund)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, apperrors.New(apperrors.CodeDuplicateOperation, "refund already requested")
		}
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderNumber(ctx, input.OrderNumber), "refund requested")
	return refund, nil
}

// SellerAccept records the seller's acknowledgement of an open request.
func (s *service) SellerAccept(ctx context.Context, orderNumber string) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.WithTx(tx).TransitionStatus(ctx, orderNumber,
			[]enums.RefundStatus{enums.RefundStatusApplied}, enums.RefundStatusSellerOK, nil)
		if err != nil {
			return err
		}
		if !moved {
			return apperrors.New(apperrors.CodeDuplicateOperation, "refund already acknowledged or closed")
		}
		return nil
	})
}

// Audit settles an open refund. Approval reverses the order's recorded split,
// moves the order to refund, voids pending commissions, and restocks returned
// items; rejection only closes the request. Auditing twice fails.
func (s *service) Audit(ctx context.Context, input AuditInput) error {
	if input.OrderNumber == "" {
		return apperrors.New(apperrors.CodeValidation, "order number is required")
	}
	if !input.Approve && (input.RejectReason == nil || *input.RejectReason == "") {
		return apperrors.New(apperrors.CodeValidation, "reject reason is required")
	}

	open := []enums.RefundStatus{enums.RefundStatusApplied, enums.RefundStatusSellerOK}

	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		refund, err := repo.GetByOrderNumber(ctx, input.OrderNumber)
		if err != nil {
			return err
		}

		if !input.Approve {
			moved, err := repo.TransitionStatus(ctx, input.OrderNumber, open, enums.RefundStatusRejected, input.RejectReason)
			if err != nil {
				return err
			}
			if !moved {
				return apperrors.New(apperrors.CodeDuplicateOperation, "refund already audited")
			}
			return nil
		}

		moved, err := repo.TransitionStatus(ctx, input.OrderNumber, open, enums.RefundStatusSuccess, nil)
		if err != nil {
			return err
		}
		if !moved {
			return apperrors.New(apperrors.CodeDuplicateOperation, "refund already audited")
		}

		orderRepo := s.orders.WithTx(tx)
		order, err := orderRepo.GetByOrderNumber(ctx, input.OrderNumber)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(enums.OrderStatusRefund) {
			return apperrors.New(apperrors.CodeStateConflict, "order can no longer be refunded").
				WithDetails(map[string]any{"status": order.Status})
		}
		reason := refund.Reason
		movedOrder, err := orderRepo.TransitionStatus(ctx, input.OrderNumber, order.Status, enums.OrderStatusRefund, &reason)
		if err != nil {
			return err
		}
		if !movedOrder {
			return apperrors.New(apperrors.CodeStateConflict, "order changed concurrently")
		}

		if err := s.finance.Reverse(ctx, tx, input.OrderNumber); err != nil {
			return err
		}
		if s.rewards != nil {
			if err := s.rewards.RejectForOrder(ctx, tx, input.OrderNumber); err != nil {
				return err
			}
		}

		if refund.RefundType == enums.RefundTypeReturn {
			inventoryRepo := s.inventory.WithTx(tx)
			for _, item := range order.Items {
				if err := inventoryRepo.Release(ctx, item.SKUID, item.Quantity); err != nil {
					return err
				}
			}
		}

		s.logg.Info(s.logg.WithOrderNumber(ctx, input.OrderNumber), "refund approved and split reversed")
		return nil
	})
}

// Progress returns the refund's current state.
func (s *service) Progress(ctx context.Context, orderNumber string) (*models.Refund, error) {
	return s.repo.GetByOrderNumber(ctx, orderNumber)
}
