package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	"github.com/workoutbrothers/storefront-backend/pkg/types"
)

// Order is created once from a cart snapshot. Only Status, UpdatedAt and
// StripePaymentIntentID change afterwards.
type Order struct {
	ID                    uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID                uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Items                 []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT"`
	TotalAmount           decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status                enums.OrderStatus     `gorm:"column:status;type:text;not null;index"`
	ShippingAddress       types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	PaymentMethod         enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null"`
	StripePaymentIntentID *string               `gorm:"column:stripe_payment_intent_id;index"`
	CreatedAt             time.Time             `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt             time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem is an immutable line snapshot taken at checkout.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	ProductName string          `gorm:"column:product_name;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// LineTotal returns unit price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
