package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/pkg/auth"
	"github.com/workoutbrothers/storefront-backend/pkg/db"
	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/pagination"
	"github.com/workoutbrothers/storefront-backend/pkg/types"
)

// Service exposes catalog browsing, admin management and reviews.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ListResult, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	AddReview(ctx context.Context, author auth.Identity, productID uuid.UUID, input ReviewInput) (*ProductDTO, error)
	Categories(ctx context.Context) ([]string, error)
}

// ListProductsInput captures the browse query string.
type ListProductsInput struct {
	Category   string
	Search     string
	SortBy     string
	Pagination pagination.Params
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"required"`
	Image       string          `json:"image"`
	Stock       types.Stock     `json:"stock"`
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Stock       *types.Stock     `json:"stock,omitempty"`
	// ClearStock switches the product to untracked stock.
	ClearStock bool `json:"untrackedStock,omitempty"`
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ListResult, error) {
	page := input.Pagination.Normalize()
	rows, total, err := s.repo.List(ctx, ListQuery{
		Category: input.Category,
		Search:   input.Search,
		Sort:     enums.ParseProductSort(input.SortBy),
		Page:     page,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return &ListResult{Products: out, Pagination: pagination.MetaFor(page, total)}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return NewProductDTO(product), nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	category := strings.TrimSpace(input.Category)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price.Round(2),
		Category:    category,
		Image:       strings.TrimSpace(input.Image),
		Rating:      decimal.Zero,
	}
	product.SetStock(input.Stock)

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return NewProductDTO(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	if err := applyUpdateToProduct(product, input); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return NewProductDTO(updated), nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapLookupError(err)
	}
	return nil
}

func (s *service) AddReview(ctx context.Context, author auth.Identity, productID uuid.UUID, input ReviewInput) (*ProductDTO, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, productID); err != nil {
			return mapLookupError(err)
		}
		review := &models.ProductReview{
			ProductID:  productID,
			UserID:     author.UserID,
			AuthorName: author.Username,
			Rating:     input.Rating,
			Comment:    strings.TrimSpace(input.Comment),
		}
		if err := repo.InsertReview(ctx, review); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert review")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, productID)
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return err
		}
		product.Price = input.Price.Round(2)
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "category cannot be empty")
		}
		product.Category = category
	}
	if input.Image != nil {
		product.Image = strings.TrimSpace(*input.Image)
	}
	switch {
	case input.ClearStock:
		product.SetStock(types.Untracked())
	case input.Stock != nil:
		product.SetStock(*input.Stock)
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	return nil
}

func mapLookupError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
}
