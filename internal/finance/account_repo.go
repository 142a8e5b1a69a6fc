package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/db"
	"github.com/maplecart/maplecart-backend/pkg/db/models"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	apperrors "github.com/maplecart/maplecart-backend/pkg/errors"
)

// AccountRepository manages finance account rows. Pool accounts are keyed with
// the zero merchant id.
type AccountRepository interface {
	WithTx(tx *gorm.DB) AccountRepository
	GetOrCreate(ctx context.Context, accountType enums.AccountType, merchantID uuid.UUID) (*models.FinanceAccount, error)
	Get(ctx context.Context, accountType enums.AccountType, merchantID uuid.UUID) (*models.FinanceAccount, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.FinanceAccount, error)
	// AddBalance applies a signed delta and returns the resulting balance. The
	// update and the read-back share the caller's transaction, so the returned
	// value is the row's committed state for this tx.
	AddBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository returns an account repository bound to the provided database.
func NewAccountRepository(conn *gorm.DB) AccountRepository {
	return &accountRepository{db: conn}
}

func (r *accountRepository) WithTx(tx *gorm.DB) AccountRepository {
	if tx == nil {
		return r
	}
	return &accountRepository{db: tx}
}

func (r *accountRepository) GetOrCreate(ctx context.Context, accountType enums.AccountType, merchantID uuid.UUID) (*models.FinanceAccount, error) {
	account, err := r.Get(ctx, accountType, merchantID)
	if err == nil {
		return account, nil
	}
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, err
	}

	created := &models.FinanceAccount{
		AccountType: accountType,
		MerchantID:  merchantID,
		Balance:     decimal.Zero,
	}
	if createErr := r.db.WithContext(ctx).Create(created).Error; createErr != nil {
		// lost the creation race, the winner's row is authoritative
		if db.IsUniqueViolation(createErr, "") {
			return r.Get(ctx, accountType, merchantID)
		}
		return nil, createErr
	}
	return created, nil
}

func (r *accountRepository) Get(ctx context.Context, accountType enums.AccountType, merchantID uuid.UUID) (*models.FinanceAccount, error) {
	var account models.FinanceAccount
	err := r.db.WithContext(ctx).
		First(&account, "account_type = ? AND merchant_id = ?", accountType, merchantID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.New(apperrors.CodeNotFound, "finance account not found")
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FinanceAccount, error) {
	var account models.FinanceAccount
	err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.New(apperrors.CodeNotFound, "finance account not found")
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) AddBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	result := r.db.WithContext(ctx).
		Model(&models.FinanceAccount{}).
		Where("id = ?", id).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, apperrors.New(apperrors.CodeNotFound, "finance account not found")
	}

	var account models.FinanceAccount
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}
