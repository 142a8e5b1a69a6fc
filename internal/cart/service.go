package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/maplecart/maplecart-backend/internal/catalog"
	"github.com/maplecart/maplecart-backend/pkg/db/models"
	apperrors "github.com/maplecart/maplecart-backend/pkg/errors"
)

// Service defines cart operations.
type Service interface {
	AddItem(ctx context.Context, input AddItemInput) (*models.CartEntry, error)
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	SetSelected(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID, selected bool) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]ItemView, error)
}

// AddItemInput captures one add-to-cart request.
type AddItemInput struct {
	UserID         uuid.UUID
	ProductID      uuid.UUID
	SKUID          uuid.UUID
	Quantity       int
	Specifications *string
}

// ItemView is a cart entry joined with its live catalog data.
type ItemView struct {
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	SKUID          uuid.UUID       `json:"sku_id"`
	SpecName       string          `json:"spec_name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	Selected       bool            `json:"selected"`
	Specifications *string         `json:"specifications,omitempty"`
}

type service struct {
	repo    Repository
	catalog catalog.Repository
}

// NewService wires a cart service with its repositories.
func NewService(repo Repository, catalogRepo catalog.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, catalog: catalogRepo}, nil
}

// AddItem upserts a (user, product) line: repeated adds accumulate quantity
// and refresh the SKU choice.
func (s *service) AddItem(ctx context.Context, input AddItemInput) (*models.CartEntry, error) {
	if input.UserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}

	sku, err := s.catalog.GetSKU(ctx, input.SKUID)
	if err != nil {
		return nil, err
	}
	if sku.ProductID != input.ProductID {
		return nil, apperrors.New(apperrors.CodeValidation, "sku does not belong to product")
	}

	existing, err := s.repo.GetByUserAndProduct(ctx, input.UserID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Quantity += input.Quantity
		existing.SKUID = input.SKUID
		if input.Specifications != nil {
			existing.Specifications = input.Specifications
		}
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	entry := &models.CartEntry{
		UserID:         input.UserID,
		ProductID:      input.ProductID,
		SKUID:          input.SKUID,
		Quantity:       input.Quantity,
		Selected:       true,
		Specifications: input.Specifications,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateQuantity sets the exact quantity; zero or below removes the line.
func (s *service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return s.repo.Delete(ctx, userID, productID)
	}
	entry, err := s.repo.GetByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return err
	}
	if entry == nil {
		return apperrors.New(apperrors.CodeNotFound, "cart entry not found")
	}
	entry.Quantity = quantity
	return s.repo.Update(ctx, entry)
}

func (s *service) SetSelected(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID, selected bool) error {
	if userID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.repo.SetSelected(ctx, userID, productIDs, selected)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return s.repo.Delete(ctx, userID, productID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ItemView, error) {
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(entries))
	skuIDs := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		productIDs = append(productIDs, entry.ProductID)
		skuIDs = append(skuIDs, entry.SKUID)
	}

	products, err := s.catalog.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	skus, err := s.catalog.GetSKUs(ctx, skuIDs)
	if err != nil {
		return nil, err
	}

	views := make([]ItemView, 0, len(entries))
	for _, entry := range entries {
		view := ItemView{
			ProductID:      entry.ProductID,
			SKUID:          entry.SKUID,
			Quantity:       entry.Quantity,
			Selected:       entry.Selected,
			Specifications: entry.Specifications,
		}
		if product, ok := products[entry.ProductID]; ok {
			view.ProductName = product.Name
		}
		if sku, ok := skus[entry.SKUID]; ok {
			view.SpecName = sku.SpecName
			view.UnitPrice = sku.Price
		}
		views = append(views, view)
	}
	return views, nil
}
