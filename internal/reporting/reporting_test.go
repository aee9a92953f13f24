package reporting

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/internal/cron"
	"github.com/workoutbrothers/storefront-backend/internal/orders"
	product "github.com/workoutbrothers/storefront-backend/internal/products"
	"github.com/workoutbrothers/storefront-backend/internal/users"
	"github.com/workoutbrothers/storefront-backend/pkg/config"
	"github.com/workoutbrothers/storefront-backend/pkg/db/dbtest"
	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox/payloads"
	"github.com/workoutbrothers/storefront-backend/pkg/types"
)

type stubRequester struct {
	alerts  []payloads.StockAlert
	reports map[enums.NotificationKind][]payloads.Report
	err     error
}

func (s *stubRequester) StockAlert(_ context.Context, alert payloads.StockAlert) error {
	if s.err != nil {
		return s.err
	}
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *stubRequester) Report(_ context.Context, kind enums.NotificationKind, report payloads.Report) error {
	if s.err != nil {
		return s.err
	}
	if s.reports == nil {
		s.reports = map[enums.NotificationKind][]payloads.Report{}
	}
	s.reports[kind] = append(s.reports[kind], report)
	return nil
}

type gauge struct{ value int }

func (g *gauge) SetLowStock(count int) { g.value = count }

type harness struct {
	conn      *gorm.DB
	rc        *ReportingContext
	requester *stubRequester
	gauge     *gauge
	paris     *time.Location
}

// Wednesday 11 March 2026, 10:00 in Paris.
var fixedNow = time.Date(2026, time.March, 11, 9, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, closers ...func() error) harness {
	t.Helper()
	conn := dbtest.Open(t)
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	h := harness{conn: conn, requester: &stubRequester{}, gauge: &gauge{}, paris: paris}
	rc, err := NewContext(ContextParams{
		Products:      product.NewRepository(conn),
		Orders:        orders.NewStatsRepository(conn),
		Users:         users.NewRepository(conn),
		Notifications: h.requester,
		Metrics:       h.gauge,
		Logger:        logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
		Location:      paris,
		Closers:       closers,
	})
	require.NoError(t, err)
	rc.now = func() time.Time { return fixedNow }
	h.rc = rc
	return h
}

func (h harness) product(t *testing.T, name string, stock types.Stock) models.Product {
	t.Helper()
	p := models.Product{Name: name, Description: name, Price: decimal.NewFromInt(20), Category: "gear"}
	p.SetStock(stock)
	require.NoError(t, h.conn.Create(&p).Error)
	return p
}

func (h harness) user(t *testing.T, name string, createdAt time.Time) models.User {
	t.Helper()
	u := models.User{Username: name, Email: name + "@example.com", PasswordHash: "x", CreatedAt: createdAt}
	require.NoError(t, h.conn.Create(&u).Error)
	return u
}

func (h harness) order(t *testing.T, owner models.User, p models.Product, qty int, status enums.OrderStatus, createdAt time.Time) {
	t.Helper()
	total := p.Price.Mul(decimal.NewFromInt(int64(qty)))
	o := models.Order{
		UserID:          owner.ID,
		Status:          status,
		PaymentMethod:   enums.PaymentMethodStripe,
		ShippingAddress: types.ShippingAddress{Street: "1 Rue", City: "Paris", State: "IDF", ZipCode: "75001", Country: "FR"},
		TotalAmount:     total,
		CreatedAt:       createdAt,
		Items: []models.OrderItem{
			{ProductID: p.ID, ProductName: p.Name, UnitPrice: p.Price, Quantity: qty},
		},
	}
	require.NoError(t, h.conn.Create(&o).Error)
}

func TestLowStockScanReportsOnlyTrackedLowStock(t *testing.T) {
	h := newHarness(t)
	low := h.product(t, "Resistance Band", types.Tracked(3))
	h.product(t, "Jump Rope", types.Tracked(12))
	h.product(t, "Sandbag", types.Tracked(0))
	h.product(t, "E-Book", types.Untracked())

	result, err := NewLowStockJob(h.rc).Scan(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, result.LowStockCount)
	require.Len(t, result.Products, 1)
	entry := result.Products[0]
	assert.Equal(t, low.ID, entry.ProductID)
	assert.Equal(t, 3, entry.Stock)
	assert.Equal(t, "critical", entry.Severity)
	assert.Equal(t, 50, entry.ReorderQuantity)

	require.Len(t, h.requester.alerts, 1)
	assert.Equal(t, 10, h.requester.alerts[0].Threshold)
	assert.Equal(t, 1, h.gauge.value)
}

func TestLowStockScanReorderUsesRecentSales(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "Plate", types.Tracked(7))
	u := h.user(t, "buyer", fixedNow.Add(-90*24*time.Hour))
	h.order(t, u, p, 30, enums.OrderStatusPaid, fixedNow.Add(-5*24*time.Hour))
	h.order(t, u, p, 100, enums.OrderStatusCancelled, fixedNow.Add(-4*24*time.Hour))
	h.order(t, u, p, 100, enums.OrderStatusPaid, fixedNow.Add(-40*24*time.Hour))

	result, err := NewLowStockJob(h.rc).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "warning", result.Products[0].Severity)
	// 30 units over 30 days, 60 days of cover plus 20%.
	assert.Equal(t, 72, result.Products[0].ReorderQuantity)
}

func TestLowStockScanWithoutMatchesSendsNothing(t *testing.T) {
	h := newHarness(t)
	h.product(t, "Bench", types.Tracked(40))

	result, err := NewLowStockJob(h.rc).Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.LowStockCount)
	assert.Empty(t, result.Products)
	assert.Empty(t, h.requester.alerts)
	assert.Zero(t, h.gauge.value)
}

func TestWeeklyReportAggregatesTrailingWeek(t *testing.T) {
	h := newHarness(t)
	bell := h.product(t, "Kettlebell", types.Tracked(30))
	vest := h.product(t, "Weight Vest", types.Tracked(30))
	buyer := h.user(t, "buyer", fixedNow.Add(-2*24*time.Hour))
	h.user(t, "veteran", fixedNow.Add(-30*24*time.Hour))

	h.order(t, buyer, bell, 2, enums.OrderStatusPaid, fixedNow.Add(-2*24*time.Hour))
	h.order(t, buyer, vest, 1, enums.OrderStatusDelivered, fixedNow.Add(-3*24*time.Hour))
	h.order(t, buyer, vest, 5, enums.OrderStatusCancelled, fixedNow.Add(-time.Hour))
	h.order(t, buyer, bell, 9, enums.OrderStatusPaid, fixedNow.Add(-10*24*time.Hour))

	report, err := NewWeeklyReportJob(h.rc).Generate(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Revenue.Equal(decimal.NewFromInt(60)), "revenue %s", report.Revenue)
	assert.Equal(t, int64(3), report.OrderCount)
	assert.Equal(t, int64(1), report.NewUsers)
	require.Len(t, report.TopProducts, 2)
	assert.Equal(t, "Kettlebell", report.TopProducts[0].Name)
	assert.Equal(t, int64(2), report.TopProducts[0].UnitsSold)
	assert.Equal(t, "Weight Vest", report.TopProducts[1].Name)

	start := time.Date(2026, time.March, 4, 0, 0, 0, 0, h.paris)
	assert.True(t, report.PeriodStart.Equal(start), "start %s", report.PeriodStart)
	assert.True(t, report.PeriodEnd.Equal(fixedNow))

	require.Len(t, h.requester.reports[enums.NotificationWeeklyReport], 1)
	assert.Empty(t, h.requester.reports[enums.NotificationMonthlyReport])
}

func TestWeeklyReportOnEmptyStore(t *testing.T) {
	h := newHarness(t)

	report, err := NewWeeklyReportJob(h.rc).Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Revenue.IsZero())
	assert.Zero(t, report.OrderCount)
	assert.Zero(t, report.NewUsers)
	assert.NotNil(t, report.TopProducts)
	assert.Empty(t, report.TopProducts)
}

func TestMonthlyReportCoversPreviousMonth(t *testing.T) {
	h := newHarness(t)
	rope := h.product(t, "Rope", types.Tracked(30))
	buyer := h.user(t, "buyer", time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC))

	h.order(t, buyer, rope, 1, enums.OrderStatusPaid, time.Date(2026, time.February, 14, 12, 0, 0, 0, time.UTC))
	h.order(t, buyer, rope, 4, enums.OrderStatusPaid, time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC))

	report, err := NewMonthlyReportJob(h.rc).Generate(context.Background())
	require.NoError(t, err)

	assert.True(t, report.PeriodStart.Equal(time.Date(2026, time.February, 1, 0, 0, 0, 0, h.paris)))
	assert.True(t, report.PeriodEnd.Equal(time.Date(2026, time.March, 1, 0, 0, 0, 0, h.paris)))
	assert.Equal(t, int64(1), report.OrderCount)
	assert.True(t, report.Revenue.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, int64(1), report.NewUsers)
	require.Len(t, h.requester.reports[enums.NotificationMonthlyReport], 1)
}

func TestReportReturnedWhenRequestFails(t *testing.T) {
	h := newHarness(t)
	h.requester.err = errors.New("outbox down")

	report, err := NewWeeklyReportJob(h.rc).Generate(context.Background())
	require.Error(t, err)
	assert.NotNil(t, report)
}

func TestClosedContextRejectsRuns(t *testing.T) {
	closes := 0
	h := newHarness(t, func() error {
		closes++
		return nil
	})

	require.NoError(t, h.rc.Close())
	require.NoError(t, h.rc.Close())
	assert.Equal(t, 1, closes)

	jobs := NewJobs(h.rc)
	assert.ErrorIs(t, jobs.LowStock.Run(context.Background()), ErrClosed)
	assert.ErrorIs(t, jobs.Weekly.Run(context.Background()), ErrClosed)
	assert.ErrorIs(t, jobs.Monthly.Run(context.Background()), ErrClosed)
}

func TestJobsRegisterSchedules(t *testing.T) {
	h := newHarness(t)
	registry := cron.NewRegistry()
	NewJobs(h.rc).Register(registry, config.ReportingConfig{StockCheckHour: 8, WeeklyReportHour: 9, MonthlyReportHour: 9})

	entries := registry.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, LowStockJobName, entries[0].Job.Name())
	assert.Equal(t, cron.Daily{Hour: 8}, entries[0].Schedule)
	assert.Equal(t, cron.Weekly{Weekday: time.Monday, Hour: 9}, entries[1].Schedule)
	assert.Equal(t, cron.Monthly{Day: 1, Hour: 9}, entries[2].Schedule)
}
