package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/pkg/db/dbtest"
	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
)

func emitOne(t *testing.T, conn *gorm.DB, svc *Service) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := conn.Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          map[string]string{"kind": "order_confirmation"},
		})
		return err
	})
	require.NoError(t, err)
	return id
}

func TestEmitWritesEnvelope(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	id := emitOne(t, conn, svc)

	var row models.OutboxEvent
	require.NoError(t, conn.First(&row, "id = ?", id).Error)
	assert.Equal(t, enums.EventNotificationRequested, row.EventType)
	assert.Nil(t, row.PublishedAt)

	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &env))
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, id.String(), env.EventID)
	assert.JSONEq(t, `{"kind":"order_confirmation"}`, string(env.Data))
}

func TestEmitRolledBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	_ = conn.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateReport,
			AggregateID:   uuid.New(),
			Data:          struct{}{},
		})
		require.NoError(t, err)
		return assert.AnError
	})

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitValidation(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	_, err := svc.Emit(context.Background(), nil, DomainEvent{})
	assert.Error(t, err)

	_, err = svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     "bogus",
		AggregateType: enums.AggregateOrder,
	})
	assert.Error(t, err)

	_, err = svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: "bogus",
	})
	assert.Error(t, err)
}

func TestRepositoryLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	first := emitOne(t, conn, svc)
	second := emitOne(t, conn, svc)

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.MarkPublishedTx(conn, first))
	require.NoError(t, repo.MarkFailedTx(conn, second, assert.AnError))

	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second, rows[0].ID)
	assert.Equal(t, 1, rows[0].AttemptCount)
	require.NotNil(t, rows[0].LastError)

	require.NoError(t, repo.MarkTerminalTx(conn, second, assert.AnError, 3))
	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, rows)

	deleted, err := repo.DeletePublishedBefore(conn, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestDLQRepository(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewDLQRepository(conn)
	eventID := uuid.New()
	msg := "boom"

	require.NoError(t, repo.InsertTx(conn, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
		AttemptCount:  10,
	}))

	var found models.OutboxDLQ
	require.NoError(t, conn.Where("event_id = ?", eventID).First(&found).Error)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, found.ErrorReason)
	assert.Equal(t, "boom", *found.ErrorMessage)
}
