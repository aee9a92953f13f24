package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	"github.com/workoutbrothers/storefront-backend/pkg/types"
)

// CheckoutInput is the body of POST /api/orders.
type CheckoutInput struct {
	ShippingAddress types.ShippingAddress `json:"shippingAddress" validate:"required"`
	PaymentMethod   string                `json:"paymentMethod" validate:"required,oneof=stripe paypal credit_card"`
}

// UpdateStatusInput is the body of PUT /api/orders/{orderId}/status.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
}

type OrderDTO struct {
	ID                    uuid.UUID             `json:"id"`
	UserID                uuid.UUID             `json:"userId"`
	Items                 []OrderItemDTO        `json:"items"`
	TotalAmount           decimal.Decimal       `json:"totalAmount"`
	Status                enums.OrderStatus     `json:"status"`
	ShippingAddress       types.ShippingAddress `json:"shippingAddress"`
	PaymentMethod         enums.PaymentMethod   `json:"paymentMethod"`
	StripePaymentIntentID *string               `json:"stripePaymentIntentId,omitempty"`
	CreatedAt             time.Time             `json:"createdAt"`
	UpdatedAt             time.Time             `json:"updatedAt"`
}

type OrderItemDTO struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
}

// NewOrderDTO maps a persisted order to its response shape.
func NewOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:                    order.ID,
		UserID:                order.UserID,
		Items:                 make([]OrderItemDTO, 0, len(order.Items)),
		TotalAmount:           order.TotalAmount,
		Status:                order.Status,
		ShippingAddress:       order.ShippingAddress,
		PaymentMethod:         order.PaymentMethod,
		StripePaymentIntentID: order.StripePaymentIntentID,
		CreatedAt:             order.CreatedAt,
		UpdatedAt:             order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}
	return dto
}

// RevenueWindow is the revenue and order count of a time range.
type RevenueWindow struct {
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

// TopProduct ranks a product by units sold.
type TopProduct struct {
	ProductID   uuid.UUID       `json:"productId" gorm:"column:product_id"`
	ProductName string          `json:"name" gorm:"column:product_name"`
	UnitsSold   int64           `json:"unitsSold" gorm:"column:units_sold"`
	Revenue     decimal.Decimal `json:"revenue" gorm:"column:revenue"`
}
