package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/workoutbrothers/storefront-backend/internal/agent"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox/payloads"
)

// LowStockJobName is the registry name of the daily stock scan.
const LowStockJobName = "low-stock-scan"

const salesLookback = 30 * 24 * time.Hour

// LowStockResult is what a scan found.
type LowStockResult struct {
	LowStockCount int                      `json:"lowStockCount"`
	Products      []payloads.LowStockEntry `json:"products"`
}

// LowStockJob scans tracked stock and requests an alert when products run low.
type LowStockJob struct {
	rc *ReportingContext
}

func NewLowStockJob(rc *ReportingContext) *LowStockJob {
	return &LowStockJob{rc: rc}
}

func (j *LowStockJob) Name() string { return LowStockJobName }

func (j *LowStockJob) Run(ctx context.Context) error {
	_, err := j.Scan(ctx)
	return err
}

// Scan lists products with 0 < stock < threshold, grades them, and requests
// a stock alert when the list is non-empty.
func (j *LowStockJob) Scan(ctx context.Context) (*LowStockResult, error) {
	rc := j.rc
	if err := rc.ensureOpen(); err != nil {
		return nil, err
	}
	result, err := rc.lowStock(ctx)
	if err != nil {
		return nil, err
	}
	if rc.metrics != nil {
		rc.metrics.SetLowStock(result.LowStockCount)
	}

	logCtx := rc.logg.WithField(ctx, "low_stock_count", result.LowStockCount)
	if result.LowStockCount == 0 {
		rc.logg.Info(logCtx, "stock levels sufficient")
		return result, nil
	}
	rc.logg.Warn(logCtx, "low stock detected")
	if err := rc.notifications.StockAlert(ctx, payloads.StockAlert{
		Threshold: rc.threshold,
		Products:  result.Products,
	}); err != nil {
		return result, fmt.Errorf("request stock alert: %w", err)
	}
	return result, nil
}

func (rc *ReportingContext) lowStock(ctx context.Context) (*LowStockResult, error) {
	products, err := rc.products.ListLowStock(ctx, rc.threshold, 0)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	result := &LowStockResult{Products: []payloads.LowStockEntry{}}
	if len(products) == 0 {
		return result, nil
	}

	sold, err := rc.orders.UnitsSoldSince(ctx, rc.now().Add(-salesLookback))
	if err != nil {
		return nil, fmt.Errorf("load recent sales: %w", err)
	}
	items := make([]agent.InventoryItem, 0, len(products))
	for _, p := range products {
		items = append(items, agent.InventoryItem{ProductID: p.ID, Name: p.Name, Stock: p.StockQuantity, Price: p.Price})
	}
	grades := agent.InventoryAlerts(items, sold)
	graded := make(map[uuid.UUID]agent.InventoryAlert, len(grades.Alerts))
	for _, alert := range grades.Alerts {
		graded[alert.ProductID] = alert
	}

	for _, p := range products {
		entry := payloads.LowStockEntry{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Stock:     p.StockQuantity,
			Severity:  string(agent.GradeStock(p.StockQuantity)),
		}
		if alert, ok := graded[p.ID]; ok {
			entry.ReorderQuantity = alert.ReorderQuantity
		} else {
			entry.ReorderQuantity = agent.ReorderQuantity(sold[p.ID])
		}
		result.Products = append(result.Products, entry)
	}
	result.LowStockCount = len(result.Products)
	return result, nil
}
