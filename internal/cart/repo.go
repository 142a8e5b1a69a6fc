package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/db/models"
)

// Repository manages persistence for cart entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartEntry, error)
	Create(ctx context.Context, entry *models.CartEntry) error
	Update(ctx context.Context, entry *models.CartEntry) error
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartEntry, error)
	ListSelected(ctx context.Context, userID uuid.UUID) ([]models.CartEntry, error)
	ClearSelected(ctx context.Context, userID uuid.UUID) error
	SetSelected(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID, selected bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cart repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartEntry, error) {
	var entry models.CartEntry
	err := r.db.WithContext(ctx).
		First(&entry, "user_id = ? AND product_id = ?", userID, productID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) Create(ctx context.Context, entry *models.CartEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) Update(ctx context.Context, entry *models.CartEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *repository) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartEntry{}).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartEntry, error) {
	var entries []models.CartEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListSelected(ctx context.Context, userID uuid.UUID) ([]models.CartEntry, error) {
	var entries []models.CartEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND selected = ?", userID, true).
		Order("added_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ClearSelected(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND selected = ?", userID, true).
		Delete(&models.CartEntry{}).Error
}

func (r *repository) SetSelected(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID, selected bool) error {
	query := r.db.WithContext(ctx).
		Model(&models.CartEntry{}).
		Where("user_id = ?", userID)
	if len(productIDs) > 0 {
		query = query.Where("product_id IN ?", productIDs)
	}
	return query.Update("selected", selected).Error
}
