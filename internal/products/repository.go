package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	"github.com/workoutbrothers/storefront-backend/pkg/pagination"
)

// ListQuery carries the browse filters after normalization.
type ListQuery struct {
	Category string
	Search   string
	Sort     enums.ProductSort
	Page     pagination.Params
}

// Repository wires together all product-related persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetDetail loads the product with its reviews, oldest first.
func (r *Repository) GetDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Reviews", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC").Order("id ASC")
		}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update persists every catalog column of product.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select("name", "description", "price", "category", "image", "stock_quantity", "stock_untracked", "updated_at").
		Updates(product).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, product.ID)
}

// Delete removes the product. It reports gorm.ErrRecordNotFound when nothing matched.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of products plus the total match count.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Product, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Product{})
	if category := strings.TrimSpace(q.Category); category != "" {
		base = base.Where("category = ?", category)
	}
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		like := "%" + search + "%"
		base = base.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := q.Page.Normalize()
	var rows []models.Product
	err := base.Session(&gorm.Session{}).
		Order(orderClause(q.Sort)).
		Order("id ASC").
		Limit(page.Limit).
		Offset(q.Page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func orderClause(sort enums.ProductSort) string {
	switch sort {
	case enums.ProductSortPriceLow:
		return "price ASC"
	case enums.ProductSortPriceHigh:
		return "price DESC"
	case enums.ProductSortRating:
		return "rating DESC"
	default:
		return "created_at DESC"
	}
}

// Categories lists the distinct categories in use, alphabetically.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}

// ListLowStock returns tracked products with 0 < stock < threshold, lowest first.
// A non-positive limit returns every match.
func (r *Repository) ListLowStock(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Where("stock_untracked = ?", false).
		Where("stock_quantity > 0 AND stock_quantity < ?", threshold).
		Order("stock_quantity ASC").
		Order("name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.Product
	err := q.Find(&rows).Error
	return rows, err
}

// InsertReview appends a review and recomputes the product's mean rating.
// Must run inside a transaction.
func (r *Repository) InsertReview(ctx context.Context, review *models.ProductReview) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Create(review).Error; err != nil {
		return err
	}

	var agg struct {
		Total int64
		Count int64
	}
	err := conn.Model(&models.ProductReview{}).
		Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS count").
		Where("product_id = ?", review.ProductID).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	rating := decimal.Zero
	if agg.Count > 0 {
		rating = decimal.NewFromInt(agg.Total).Div(decimal.NewFromInt(agg.Count)).Round(2)
	}
	return conn.Model(&models.Product{}).
		Where("id = ?", review.ProductID).
		Updates(map[string]any{
			"rating":       rating,
			"review_count": agg.Count,
		}).Error
}
