package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/pkg/types"
)

// Product is a catalog entry. Stock is stored as stock_quantity plus a
// stock_untracked flag; use Stock/SetStock rather than the raw columns.
type Product struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	Description    string          `gorm:"column:description;not null"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Category       string          `gorm:"column:category;not null;index"`
	Image          string          `gorm:"column:image;not null"`
	StockQuantity  int             `gorm:"column:stock_quantity;not null;default:0"`
	StockUntracked bool            `gorm:"column:stock_untracked;not null;default:false"`
	Rating         decimal.Decimal `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	ReviewCount    int             `gorm:"column:review_count;not null;default:0"`
	Reviews        []ProductReview `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (p Product) Stock() types.Stock {
	if p.StockUntracked {
		return types.Untracked()
	}
	return types.Tracked(p.StockQuantity)
}

func (p *Product) SetStock(stock types.Stock) {
	qty, tracked := stock.Quantity()
	p.StockUntracked = !tracked
	p.StockQuantity = qty
}

// ProductReview is an append-only customer review.
type ProductReview struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	AuthorName string    `gorm:"column:author_name;not null"`
	Rating     int       `gorm:"column:rating;not null"`
	Comment    string    `gorm:"column:comment;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *ProductReview) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
