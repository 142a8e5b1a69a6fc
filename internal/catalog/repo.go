package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/db/models"
	apperrors "github.com/maplecart/maplecart-backend/pkg/errors"
)

// Repository reads product and SKU data for checkout and order display.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetSKU(ctx context.Context, id uuid.UUID) (*models.ProductSKU, error)
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	GetSKUs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ProductSKU, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}

func (r *repository) GetSKU(ctx context.Context, id uuid.UUID) (*models.ProductSKU, error) {
	var sku models.ProductSKU
	if err := r.db.WithContext(ctx).First(&sku, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "sku not found")
		}
		return nil, err
	}
	return &sku, nil
}

func (r *repository) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, product := range products {
		out[product.ID] = product
	}
	return out, nil
}

func (r *repository) GetSKUs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ProductSKU, error) {
	out := make(map[uuid.UUID]models.ProductSKU, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var skus []models.ProductSKU
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&skus).Error; err != nil {
		return nil, err
	}
	for _, sku := range skus {
		out[sku.ID] = sku
	}
	return out, nil
}
