// Package reporting holds the scheduled read-only jobs: the low-stock scan
// and the weekly and monthly sales summaries.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"

	"github.com/workoutbrothers/storefront-backend/internal/orders"
	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox/payloads"
)

// ErrClosed is returned by jobs that run after their context was closed.
var ErrClosed = errors.New("reporting context closed")

const defaultLowStockThreshold = 10

type productSource interface {
	ListLowStock(ctx context.Context, threshold, limit int) ([]models.Product, error)
}

type userCounter interface {
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type notificationRequester interface {
	StockAlert(ctx context.Context, alert payloads.StockAlert) error
	Report(ctx context.Context, kind enums.NotificationKind, report payloads.Report) error
}

type stockMetrics interface {
	SetLowStock(count int)
}

// ContextParams lists what the reporting jobs read from and write to.
type ContextParams struct {
	Products          productSource
	Orders            orders.StatsReader
	Users             userCounter
	Notifications     notificationRequester
	Metrics           stockMetrics
	Logger            *logger.Logger
	Location          *time.Location
	LowStockThreshold int
	// Closers run once when the context is closed, in order.
	Closers []func() error
}

// ReportingContext is built once when jobs are registered and shared by every
// reporting job until shutdown.
type ReportingContext struct {
	products      productSource
	orders        orders.StatsReader
	users         userCounter
	notifications notificationRequester
	metrics       stockMetrics
	logg          *logger.Logger
	loc           *time.Location
	threshold     int
	closers       []func() error
	closed        atomic.Bool
	now           func() time.Time
}

func NewContext(params ContextParams) (*ReportingContext, error) {
	if params.Products == nil {
		return nil, fmt.Errorf("product source required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order stats required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user counter required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notification requester required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	threshold := params.LowStockThreshold
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	return &ReportingContext{
		products:      params.Products,
		orders:        params.Orders,
		users:         params.Users,
		notifications: params.Notifications,
		metrics:       params.Metrics,
		logg:          params.Logger,
		loc:           loc,
		threshold:     threshold,
		closers:       params.Closers,
		now:           time.Now,
	}, nil
}

// Close releases the context. Later job runs fail with ErrClosed.
func (rc *ReportingContext) Close() error {
	if !rc.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs error
	for _, closeFn := range rc.closers {
		errs = multierr.Append(errs, closeFn())
	}
	return errs
}

func (rc *ReportingContext) ensureOpen() error {
	if rc.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (rc *ReportingContext) localNow() time.Time {
	return rc.now().In(rc.loc)
}
