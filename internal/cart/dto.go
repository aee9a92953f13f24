package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/types"
)

// CartView is the cart as returned to clients, priced with live catalog prices.
type CartView struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	Items     []ItemView      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type ItemView struct {
	ID        uuid.UUID       `json:"id"`
	Product   ProductSummary  `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	AddedAt   time.Time       `json:"addedAt"`
}

type ProductSummary struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
	Stock types.Stock     `json:"stock"`
}

// Total sums live price times quantity over every line.
func Total(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func newCartView(cart *models.Cart) *CartView {
	view := &CartView{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     make([]ItemView, 0, len(cart.Items)),
		Total:     Total(cart.Items),
		UpdatedAt: cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		if item.Product == nil {
			continue
		}
		view.ItemCount += item.Quantity
		view.Items = append(view.Items, ItemView{
			ID: item.ID,
			Product: ProductSummary{
				ID:    item.Product.ID,
				Name:  item.Product.Name,
				Price: item.Product.Price,
				Image: item.Product.Image,
				Stock: item.Product.Stock(),
			},
			Quantity:  item.Quantity,
			LineTotal: item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			AddedAt:   item.AddedAt,
		})
	}
	return view
}
