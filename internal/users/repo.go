package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/maplecart/maplecart-backend/pkg/db/models"
	apperrors "github.com/maplecart/maplecart-backend/pkg/errors"
)

// Repository reads user and referral data.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// ReferrerChain walks the referral graph upward from userID, returning at
	// most maxDepth referrers ordered nearest first. Cycles terminate the walk.
	ReferrerChain(ctx context.Context, userID uuid.UUID, maxDepth int) ([]uuid.UUID, error)
	ListByMemberLevelAtLeast(ctx context.Context, level int) ([]models.User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a users repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) ReferrerChain(ctx context.Context, userID uuid.UUID, maxDepth int) ([]uuid.UUID, error) {
	chain := make([]uuid.UUID, 0, maxDepth)
	seen := map[uuid.UUID]bool{userID: true}
	current := userID
	for len(chain) < maxDepth {
		var ref models.UserReferral
		err := r.db.WithContext(ctx).First(&ref, "user_id = ?", current).Error
		if err == gorm.ErrRecordNotFound {
			break
		}
		if err != nil {
			return nil, err
		}
		if seen[ref.ReferrerID] {
			break
		}
		seen[ref.ReferrerID] = true
		chain = append(chain, ref.ReferrerID)
		current = ref.ReferrerID
	}
	return chain, nil
}

func (r *repository) ListByMemberLevelAtLeast(ctx context.Context, level int) ([]models.User, error) {
	var out []models.User
	if err := r.db.WithContext(ctx).Where("member_level >= ?", level).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
