package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox/payloads"
)

const (
	WeeklyReportJobName  = "weekly-report"
	MonthlyReportJobName = "monthly-report"

	topProductLimit = 5
)

// Period computes the [start, end) window a summary covers, given local now.
type Period func(now time.Time) (time.Time, time.Time)

// TrailingWeek covers the seven days before today plus today so far.
func TrailingWeek(now time.Time) (time.Time, time.Time) {
	start := startOfDay(now).AddDate(0, 0, -7)
	return start, now
}

// PreviousMonth covers the whole calendar month before now.
func PreviousMonth(now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return end.AddDate(0, -1, 0), end
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SummaryJob aggregates sales over a period and requests the report email.
type SummaryJob struct {
	rc     *ReportingContext
	name   string
	kind   enums.NotificationKind
	period Period
}

func NewWeeklyReportJob(rc *ReportingContext) *SummaryJob {
	return &SummaryJob{rc: rc, name: WeeklyReportJobName, kind: enums.NotificationWeeklyReport, period: TrailingWeek}
}

func NewMonthlyReportJob(rc *ReportingContext) *SummaryJob {
	return &SummaryJob{rc: rc, name: MonthlyReportJobName, kind: enums.NotificationMonthlyReport, period: PreviousMonth}
}

func (j *SummaryJob) Name() string { return j.name }

func (j *SummaryJob) Run(ctx context.Context) error {
	_, err := j.Generate(ctx)
	return err
}

// Generate builds the summary and requests its email. The summary is
// returned even when the email request fails.
func (j *SummaryJob) Generate(ctx context.Context) (*payloads.Report, error) {
	rc := j.rc
	if err := rc.ensureOpen(); err != nil {
		return nil, err
	}
	from, to := j.period(rc.localNow())
	report, err := rc.summarize(ctx, from, to)
	if err != nil {
		return nil, err
	}

	rc.logg.Info(rc.logg.WithFields(ctx, map[string]any{
		"report":          string(j.kind),
		"period_start":    from,
		"period_end":      to,
		"orders":          report.OrderCount,
		"revenue":         report.Revenue.StringFixed(2),
		"new_users":       report.NewUsers,
		"low_stock_count": report.LowStockSeen,
	}), "sales summary generated")

	if err := rc.notifications.Report(ctx, j.kind, *report); err != nil {
		return report, fmt.Errorf("request %s: %w", j.kind, err)
	}
	return report, nil
}

func (rc *ReportingContext) summarize(ctx context.Context, from, to time.Time) (*payloads.Report, error) {
	revenue, err := rc.orders.RevenueBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("revenue: %w", err)
	}
	orderCount, err := rc.orders.CountBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("order count: %w", err)
	}
	newUsers, err := rc.users.CountCreatedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("new users: %w", err)
	}
	top, err := rc.orders.TopProducts(ctx, &from, &to, topProductLimit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	lowStock, err := rc.products.ListLowStock(ctx, rc.threshold, 0)
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}

	report := &payloads.Report{
		PeriodStart:  from,
		PeriodEnd:    to,
		Revenue:      revenue.Revenue,
		OrderCount:   orderCount,
		NewUsers:     newUsers,
		TopProducts:  make([]payloads.TopProduct, 0, len(top)),
		LowStockSeen: len(lowStock),
	}
	for _, p := range top {
		report.TopProducts = append(report.TopProducts, payloads.TopProduct{
			ProductID: p.ProductID,
			Name:      p.ProductName,
			UnitsSold: p.UnitsSold,
			Revenue:   p.Revenue,
		})
	}
	return report, nil
}
