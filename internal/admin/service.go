// Package admin builds the read-only dashboard rollups and runs reporting
// jobs on demand.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/workoutbrothers/storefront-backend/internal/orders"
	"github.com/workoutbrothers/storefront-backend/internal/reporting"
	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	pkgerrors "github.com/workoutbrothers/storefront-backend/pkg/errors"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox/payloads"
)

const (
	dashboardTopProducts = 5
	dashboardLowStock    = 10
	dashboardRecent      = 10
	lowStockThreshold    = 10
)

type productStats interface {
	Count(ctx context.Context) (int64, error)
	ListLowStock(ctx context.Context, threshold, limit int) ([]models.Product, error)
}

type userStats interface {
	Count(ctx context.Context) (int64, error)
}

type stockChecker interface {
	Scan(ctx context.Context) (*reporting.LowStockResult, error)
}

type reportGenerator interface {
	Generate(ctx context.Context) (*payloads.Report, error)
}

// Service exposes the admin dashboard operations.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	TriggerStockCheck(ctx context.Context) (*reporting.LowStockResult, error)
	TriggerReport(ctx context.Context) (*payloads.Report, error)
}

type ServiceParams struct {
	Products   productStats
	Users      userStats
	Orders     orders.StatsReader
	StockCheck stockChecker
	Report     reportGenerator
	Location   *time.Location
	Logger     *logger.Logger
}

type service struct {
	products   productStats
	users      userStats
	orders     orders.StatsReader
	stockCheck stockChecker
	report     reportGenerator
	loc        *time.Location
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Products == nil || params.Users == nil || params.Orders == nil {
		return nil, fmt.Errorf("admin stats sources required")
	}
	if params.StockCheck == nil || params.Report == nil {
		return nil, fmt.Errorf("reporting jobs required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		products:   params.Products,
		users:      params.Users,
		orders:     params.Orders,
		stockCheck: params.StockCheck,
		report:     params.Report,
		loc:        loc,
		logg:       params.Logger,
		now:        time.Now,
	}, nil
}

type Stats struct {
	Overview         Overview            `json:"overview"`
	Revenue          WindowAmounts       `json:"revenue"`
	Orders           OrderCounts         `json:"orders"`
	TopProducts      []orders.TopProduct `json:"topProducts"`
	LowStockProducts []LowStockProduct   `json:"lowStockProducts"`
	RecentOrders     []RecentOrder       `json:"recentOrders"`
}

type Overview struct {
	TotalProducts int64           `json:"totalProducts"`
	TotalUsers    int64           `json:"totalUsers"`
	TotalOrders   int64           `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}

type WindowAmounts struct {
	Today decimal.Decimal `json:"today"`
	Week  decimal.Decimal `json:"week"`
	Month decimal.Decimal `json:"month"`
}

type OrderCounts struct {
	Today    int64                       `json:"today"`
	Week     int64                       `json:"week"`
	Month    int64                       `json:"month"`
	ByStatus map[enums.OrderStatus]int64 `json:"byStatus"`
}

type LowStockProduct struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Stock    int       `json:"stock"`
}

type RecentOrder struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"userId"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Status      enums.OrderStatus `json:"status"`
	ItemCount   int               `json:"itemCount"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Stats assembles the dashboard. Revenue and windowed order counts exclude
// cancelled orders; the status histogram lists every status.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	week := today.AddDate(0, 0, -7)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	// upper bound is exclusive; include orders written during this call
	end := now.Add(time.Second)

	stats := &Stats{}
	var err error
	if stats.Overview.TotalProducts, err = s.products.Count(ctx); err != nil {
		return nil, s.fail(ctx, "count products", err)
	}
	if stats.Overview.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, s.fail(ctx, "count users", err)
	}
	if stats.Overview.TotalOrders, err = s.orders.Count(ctx); err != nil {
		return nil, s.fail(ctx, "count orders", err)
	}
	total, err := s.orders.Revenue(ctx)
	if err != nil {
		return nil, s.fail(ctx, "total revenue", err)
	}
	stats.Overview.TotalRevenue = total.Revenue

	windows := []struct {
		from    time.Time
		revenue *decimal.Decimal
		count   *int64
	}{
		{today, &stats.Revenue.Today, &stats.Orders.Today},
		{week, &stats.Revenue.Week, &stats.Orders.Week},
		{month, &stats.Revenue.Month, &stats.Orders.Month},
	}
	for _, w := range windows {
		rw, err := s.orders.RevenueBetween(ctx, w.from, end)
		if err != nil {
			return nil, s.fail(ctx, "windowed revenue", err)
		}
		*w.revenue = rw.Revenue
		*w.count = rw.Orders
	}

	if stats.Orders.ByStatus, err = s.orders.StatusCounts(ctx); err != nil {
		return nil, s.fail(ctx, "status counts", err)
	}
	if stats.TopProducts, err = s.orders.TopProducts(ctx, nil, nil, dashboardTopProducts); err != nil {
		return nil, s.fail(ctx, "top products", err)
	}
	if stats.TopProducts == nil {
		stats.TopProducts = []orders.TopProduct{}
	}

	low, err := s.products.ListLowStock(ctx, lowStockThreshold, dashboardLowStock)
	if err != nil {
		return nil, s.fail(ctx, "low stock", err)
	}
	stats.LowStockProducts = make([]LowStockProduct, 0, len(low))
	for _, p := range low {
		stats.LowStockProducts = append(stats.LowStockProducts, LowStockProduct{
			ID: p.ID, Name: p.Name, Category: p.Category, Stock: p.StockQuantity,
		})
	}

	recent, err := s.orders.Recent(ctx, dashboardRecent)
	if err != nil {
		return nil, s.fail(ctx, "recent orders", err)
	}
	stats.RecentOrders = make([]RecentOrder, 0, len(recent))
	for _, o := range recent {
		stats.RecentOrders = append(stats.RecentOrders, RecentOrder{
			ID:          o.ID,
			UserID:      o.UserID,
			TotalAmount: o.TotalAmount,
			Status:      o.Status,
			ItemCount:   len(o.Items),
			CreatedAt:   o.CreatedAt,
		})
	}
	return stats, nil
}

func (s *service) TriggerStockCheck(ctx context.Context) (*reporting.LowStockResult, error) {
	ctx = s.logg.WithJob(ctx, reporting.LowStockJobName)
	result, err := s.stockCheck.Scan(ctx)
	if err != nil && result == nil {
		return nil, s.fail(ctx, "stock check", err)
	}
	if err != nil {
		s.logg.Error(ctx, "stock alert request failed", err)
	}
	return result, nil
}

func (s *service) TriggerReport(ctx context.Context) (*payloads.Report, error) {
	ctx = s.logg.WithJob(ctx, reporting.WeeklyReportJobName)
	report, err := s.report.Generate(ctx)
	if err != nil && report == nil {
		return nil, s.fail(ctx, "weekly report", err)
	}
	if err != nil {
		s.logg.Error(ctx, "weekly report request failed", err)
	}
	return report, nil
}

func (s *service) fail(ctx context.Context, what string, err error) error {
	s.logg.Error(ctx, "admin "+what+" failed", err)
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, what)
}
