package agent

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LowStockThreshold      = 10
	CriticalStockThreshold = 5
	DefaultReorderQuantity = 50
)

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// InventoryItem is a product with tracked stock.
type InventoryItem struct {
	ProductID uuid.UUID
	Name      string
	Stock     int
	Price     decimal.Decimal
}

type InventoryAlert struct {
	ProductID       uuid.UUID       `json:"productId"`
	ProductName     string          `json:"productName"`
	CurrentStock    int             `json:"currentStock"`
	Severity        Severity        `json:"severity"`
	Message         string          `json:"message"`
	ReorderQuantity int             `json:"reorderQuantity"`
	EstimatedCost   decimal.Decimal `json:"estimatedCost"`
}

type InventorySummary struct {
	TotalAlerts          int             `json:"totalAlerts"`
	CriticalAlerts       int             `json:"criticalAlerts"`
	EstimatedReorderCost decimal.Decimal `json:"estimatedReorderCost"`
}

type InventoryReport struct {
	Alerts  []InventoryAlert `json:"alerts"`
	Summary InventorySummary `json:"summary"`
}

// costRatio estimates the purchase cost of a unit from its retail price.
var costRatio = decimal.RequireFromString("0.5")

// InventoryAlerts flags every item below LowStockThreshold. unitsSold30d maps a
// product to the units sold over the last 30 days.
func InventoryAlerts(items []InventoryItem, unitsSold30d map[uuid.UUID]int64) InventoryReport {
	report := InventoryReport{
		Alerts:  []InventoryAlert{},
		Summary: InventorySummary{EstimatedReorderCost: decimal.Zero},
	}
	for _, item := range items {
		if item.Stock >= LowStockThreshold {
			continue
		}
		alert := InventoryAlert{
			ProductID:       item.ProductID,
			ProductName:     item.Name,
			CurrentStock:    item.Stock,
			Severity:        GradeStock(item.Stock),
			Message:         fmt.Sprintf("Low stock for %s: %d units left", item.Name, item.Stock),
			ReorderQuantity: ReorderQuantity(unitsSold30d[item.ProductID]),
		}
		alert.EstimatedCost = item.Price.Mul(decimal.NewFromInt(int64(alert.ReorderQuantity))).Mul(costRatio).Round(2)

		report.Alerts = append(report.Alerts, alert)
		report.Summary.TotalAlerts++
		if alert.Severity == SeverityCritical {
			report.Summary.CriticalAlerts++
		}
		report.Summary.EstimatedReorderCost = report.Summary.EstimatedReorderCost.Add(alert.EstimatedCost)
	}
	return report
}

func GradeStock(stock int) Severity {
	if stock < CriticalStockThreshold {
		return SeverityCritical
	}
	return SeverityWarning
}

// ReorderQuantity covers 60 days of the 30-day average daily sales plus 20%,
// i.e. ceil(units * 2.4). Without sales history it falls back to
// DefaultReorderQuantity.
func ReorderQuantity(unitsSold30d int64) int {
	if unitsSold30d <= 0 {
		return DefaultReorderQuantity
	}
	return int((unitsSold30d*12 + 4) / 5)
}
