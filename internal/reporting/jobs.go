package reporting

import (
	"time"

	"github.com/workoutbrothers/storefront-backend/internal/cron"
	"github.com/workoutbrothers/storefront-backend/pkg/config"
)

// Jobs are the reporting jobs sharing one ReportingContext.
type Jobs struct {
	LowStock *LowStockJob
	Weekly   *SummaryJob
	Monthly  *SummaryJob
}

func NewJobs(rc *ReportingContext) *Jobs {
	return &Jobs{
		LowStock: NewLowStockJob(rc),
		Weekly:   NewWeeklyReportJob(rc),
		Monthly:  NewMonthlyReportJob(rc),
	}
}

// Register adds the reporting jobs with their configured schedules: stock scan
// daily, weekly report on Mondays, monthly report on the 1st.
func (j *Jobs) Register(registry *cron.Registry, cfg config.ReportingConfig) {
	registry.Register(j.LowStock, cron.Daily{Hour: cfg.StockCheckHour})
	registry.Register(j.Weekly, cron.Weekly{Weekday: time.Monday, Hour: cfg.WeeklyReportHour})
	registry.Register(j.Monthly, cron.Monthly{Day: 1, Hour: cfg.MonthlyReportHour})
}
