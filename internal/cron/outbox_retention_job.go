package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/pkg/logger"
)

// OutboxRetentionJobName is the registry name of the outbox cleanup job.
const OutboxRetentionJobName = "outbox-retention"

const defaultOutboxRetention = 30 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

// OutboxRetentionJobParams configures NewOutboxRetentionJob. Retention
// defaults to 30 days.
type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxRetentionRepo
	Retention  time.Duration
}

type outboxRetentionJob struct {
	OutboxRetentionJobParams
	now func() time.Time
}

// NewOutboxRetentionJob prunes published outbox rows once they are older
// than the retention window. Rows still waiting to be published are never
// touched.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	if params.Retention <= 0 {
		params.Retention = defaultOutboxRetention
	}
	return &outboxRetentionJob{OutboxRetentionJobParams: params, now: time.Now}, nil
}

func (j *outboxRetentionJob) Name() string { return OutboxRetentionJobName }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.Retention)
	var deleted int64
	if err := j.DB.WithTx(ctx, func(tx *gorm.DB) (err error) {
		deleted, err = j.Repository.DeletePublishedBefore(tx, cutoff)
		return err
	}); err != nil {
		return fmt.Errorf("prune outbox before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	j.Logger.Info(j.Logger.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "outbox pruned")
	return nil
}
