package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
)

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository builds the read-only order rollups.
func NewStatsRepository(db *gorm.DB) StatsReader {
	return &statsRepository{db: db}
}

func (r *statsRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}

// CountBetween counts every order created in [from, to), cancelled included.
func (r *statsRepository) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Count(&count).Error
	return count, err
}

// Revenue covers every order ever placed.
func (r *statsRepository) Revenue(ctx context.Context) (RevenueWindow, error) {
	return r.revenue(ctx, r.db.WithContext(ctx).Model(&models.Order{}))
}

// RevenueBetween covers orders created in [from, to).
func (r *statsRepository) RevenueBetween(ctx context.Context, from, to time.Time) (RevenueWindow, error) {
	scope := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC())
	return r.revenue(ctx, scope)
}

func (r *statsRepository) revenue(_ context.Context, scope *gorm.DB) (RevenueWindow, error) {
	var row RevenueWindow
	err := scope.
		Select("COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS orders").
		Where("status <> ?", enums.OrderStatusCancelled).
		Scan(&row).Error
	if err != nil {
		return RevenueWindow{}, err
	}
	row.Revenue = row.Revenue.Round(2)
	return row, nil
}

func (r *statsRepository) StatusCounts(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	var rows []struct {
		Status enums.OrderStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.OrderStatus]int64, len(enums.OrderStatuses()))
	for _, status := range enums.OrderStatuses() {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// TopProducts ranks products by units sold on non-cancelled orders. Nil bounds
// leave that side of the range open.
func (r *statsRepository) TopProducts(ctx context.Context, from, to *time.Time, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 5
	}
	query := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("oi.product_id AS product_id, MAX(oi.product_name) AS product_name, " +
			"SUM(oi.quantity) AS units_sold, COALESCE(SUM(oi.unit_price * oi.quantity), 0) AS revenue").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.status <> ?", enums.OrderStatusCancelled)
	if from != nil {
		query = query.Where("o.created_at >= ?", from.UTC())
	}
	if to != nil {
		query = query.Where("o.created_at < ?", to.UTC())
	}

	var rows []TopProduct
	err := query.
		Group("oi.product_id").
		Order("units_sold DESC").
		Order("product_name ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Revenue = rows[i].Revenue.Round(2)
	}
	return rows, nil
}

// Recent returns the latest orders with their lines.
func (r *statsRepository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UnitsSoldSince sums units per product on non-cancelled orders created after since.
func (r *statsRepository) UnitsSoldSince(ctx context.Context, since time.Time) (map[uuid.UUID]int64, error) {
	var rows []struct {
		ProductID uuid.UUID
		Units     int64
	}
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("oi.product_id AS product_id, SUM(oi.quantity) AS units").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.status <> ? AND o.created_at >= ?", enums.OrderStatusCancelled, since.UTC()).
		Group("oi.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Units
	}
	return out, nil
}
