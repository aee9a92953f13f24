package payloads

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	"github.com/workoutbrothers/storefront-backend/pkg/types"
)

// NotificationRequestedEvent asks the notification worker to send one email.
// Exactly one of the data blocks matching Kind is set.
type NotificationRequestedEvent struct {
	Kind              enums.NotificationKind `json:"kind"`
	Recipient         string                 `json:"recipient"`
	OrderConfirmation *OrderConfirmation     `json:"orderConfirmation,omitempty"`
	StockAlert        *StockAlert            `json:"stockAlert,omitempty"`
	Report            *Report                `json:"report,omitempty"`
}

type OrderConfirmation struct {
	OrderID         uuid.UUID             `json:"orderId"`
	Username        string                `json:"username"`
	Items           []OrderLine           `json:"items"`
	TotalAmount     decimal.Decimal       `json:"totalAmount"`
	PaymentMethod   enums.PaymentMethod   `json:"paymentMethod"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	PlacedAt        time.Time             `json:"placedAt"`
}

type OrderLine struct {
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type StockAlert struct {
	Threshold int             `json:"threshold"`
	Products  []LowStockEntry `json:"products"`
}

type LowStockEntry struct {
	ProductID       uuid.UUID `json:"productId"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	Stock           int       `json:"stock"`
	Severity        string    `json:"severity"`
	ReorderQuantity int       `json:"reorderQuantity"`
}

// Report carries a weekly or monthly sales summary.
type Report struct {
	PeriodStart  time.Time       `json:"periodStart"`
	PeriodEnd    time.Time       `json:"periodEnd"`
	Revenue      decimal.Decimal `json:"revenue"`
	OrderCount   int64           `json:"orderCount"`
	NewUsers     int64           `json:"newUsers"`
	TopProducts  []TopProduct    `json:"topProducts"`
	LowStockSeen int             `json:"lowStockCount"`
}

type TopProduct struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	UnitsSold int64           `json:"unitsSold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Validate checks that the event carries what its kind needs.
func (e NotificationRequestedEvent) Validate() error {
	if !e.Kind.IsValid() {
		return fmt.Errorf("invalid notification kind %q", e.Kind)
	}
	if strings.TrimSpace(e.Recipient) == "" {
		return errors.New("recipient is required")
	}
	switch e.Kind {
	case enums.NotificationOrderConfirmation:
		if e.OrderConfirmation == nil {
			return errors.New("order confirmation data missing")
		}
	case enums.NotificationStockAlert:
		if e.StockAlert == nil || len(e.StockAlert.Products) == 0 {
			return errors.New("stock alert without products")
		}
	case enums.NotificationWeeklyReport, enums.NotificationMonthlyReport:
		if e.Report == nil {
			return errors.New("report data missing")
		}
	}
	return nil
}
