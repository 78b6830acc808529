package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	mock_database "github.com/akulagin/fulfillment/internal/db/mocks"
	mock_kafka "github.com/akulagin/fulfillment/internal/kafka/mocks"
	"github.com/akulagin/fulfillment/internal/repository"
	mock_storage "github.com/akulagin/fulfillment/internal/storage/mocks"
)

type publisherFixture struct {
	publisher *Publisher
	repo      *mock_storage.MockOutboxTaskRepository
	producer  *mock_kafka.MockProducer
	db        *mock_database.MockDB
	tx        *mock_database.MockTx
}

func newPublisherFixture(t *testing.T) *publisherFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &publisherFixture{
		repo:     mock_storage.NewMockOutboxTaskRepository(ctrl),
		producer: mock_kafka.NewMockProducer(ctrl),
		db:       mock_database.NewMockDB(ctrl),
		tx:       mock_database.NewMockTx(ctrl),
	}
	f.publisher = NewPublisher(f.db, f.repo, f.producer, PublisherConfig{
		PollInterval: time.Second,
		BatchSize:    10,
		MaxAttempts:  3,
	}, zap.NewNop())
	return f
}

func pendingTask(topic string) *repository.OutboxTask {
	return &repository.OutboxTask{
		ID:      uuid.New(),
		Topic:   topic,
		Payload: []byte(`{"order_id":"x"}`),
		Status:  repository.TaskStatusCreated,
	}
}

func TestProcessBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("empty batch just commits", func(t *testing.T) {
		f := newPublisherFixture(t)

		f.db.EXPECT().BeginTx(ctx).Return(f.tx, nil)
		f.repo.EXPECT().GetProcessableTasks(ctx, f.tx, 10, 3).Return(nil, nil)
		f.tx.EXPECT().Commit(ctx).Return(nil)

		require.NoError(t, f.publisher.processBatch(ctx))
	})

	t.Run("publishes and marks done", func(t *testing.T) {
		f := newPublisherFixture(t)
		task := pendingTask("order.status-changed")

		f.db.EXPECT().BeginTx(ctx).Return(f.tx, nil)
		f.repo.EXPECT().GetProcessableTasks(ctx, f.tx, 10, 3).Return([]*repository.OutboxTask{task}, nil)
		f.repo.EXPECT().UpdateTaskStatusTx(ctx, f.tx, task.ID, repository.TaskStatusProcessing, 0, gomock.Nil(), gomock.Nil()).Return(nil)
		f.tx.EXPECT().Commit(ctx).Return(nil)

		f.producer.EXPECT().SendMessage(ctx, "order.status-changed", []byte(task.ID.String()), task.Payload).Return(nil)
		f.repo.EXPECT().UpdateTaskStatus(ctx, f.db, task.ID, repository.TaskStatusDone, 0, gomock.Nil(), gomock.Any()).Return(nil)

		require.NoError(t, f.publisher.processBatch(ctx))
	})

	t.Run("send failure bumps attempts and marks failed", func(t *testing.T) {
		f := newPublisherFixture(t)
		task := pendingTask("order.paid")

		f.db.EXPECT().BeginTx(ctx).Return(f.tx, nil)
		f.repo.EXPECT().GetProcessableTasks(ctx, f.tx, 10, 3).Return([]*repository.OutboxTask{task}, nil)
		f.repo.EXPECT().UpdateTaskStatusTx(ctx, f.tx, task.ID, repository.TaskStatusProcessing, 0, gomock.Nil(), gomock.Nil()).Return(nil)
		f.tx.EXPECT().Commit(ctx).Return(nil)

		f.producer.EXPECT().SendMessage(ctx, "order.paid", gomock.Any(), task.Payload).
			Return(errors.New("broker unreachable"))

		var markedErr *string
		f.repo.EXPECT().UpdateTaskStatus(ctx, f.db, task.ID, repository.TaskStatusFailed, 1, gomock.Any(), gomock.Nil()).
			DoAndReturn(func(_ context.Context, _ interface{}, _ uuid.UUID, _ repository.TaskStatus, _ int, lastError *string, _ *time.Time) error {
				markedErr = lastError
				return nil
			})

		// A send failure is logged per task; the batch itself succeeds.
		require.NoError(t, f.publisher.processBatch(ctx))
		require.NotNil(t, markedErr)
		assert.Contains(t, *markedErr, "broker unreachable")
	})

	t.Run("locking failure rolls back", func(t *testing.T) {
		f := newPublisherFixture(t)

		f.db.EXPECT().BeginTx(ctx).Return(f.tx, nil)
		f.repo.EXPECT().GetProcessableTasks(ctx, f.tx, 10, 3).Return(nil, errors.New("deadlock detected"))
		f.tx.EXPECT().Rollback(ctx).Return(nil)

		assert.Error(t, f.publisher.processBatch(ctx))
	})
}
