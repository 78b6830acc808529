package idempotency

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/db"
	mock_database "github.com/akulagin/fulfillment/internal/db/mocks"
	"github.com/akulagin/fulfillment/internal/repository"
	mock_storage "github.com/akulagin/fulfillment/internal/storage/mocks"
)

func TestDispatcherExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("commits the record and the mutation together", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		mockTx := mock_database.NewMockTx(ctrl)
		mockRecords := mock_storage.NewMockIdempotencyRepository(ctrl)
		dispatcher := NewDispatcher(mockDB, mockRecords, zap.NewNop())

		mockDB.EXPECT().BeginTx(ctx).Return(mockTx, nil)
		mockRecords.EXPECT().InsertTx(ctx, mockTx, "req-1", "create-order", gomock.Any()).Return(nil)
		mockTx.EXPECT().Commit(ctx).Return(nil)

		var invoked bool
		duplicate, err := dispatcher.Execute(ctx, "req-1", "create-order", func(tx db.Tx) error {
			invoked = true
			assert.Equal(t, mockTx, tx)
			return nil
		})

		require.NoError(t, err)
		assert.False(t, duplicate)
		assert.True(t, invoked)
	})

	t.Run("duplicate request id rolls back and skips the mutation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		mockTx := mock_database.NewMockTx(ctrl)
		mockRecords := mock_storage.NewMockIdempotencyRepository(ctrl)
		dispatcher := NewDispatcher(mockDB, mockRecords, zap.NewNop())

		mockDB.EXPECT().BeginTx(ctx).Return(mockTx, nil)
		mockRecords.EXPECT().InsertTx(ctx, mockTx, "req-1", "create-order", gomock.Any()).
			Return(repository.ErrDuplicateRequest)
		mockTx.EXPECT().Rollback(ctx).Return(nil)

		duplicate, err := dispatcher.Execute(ctx, "req-1", "create-order", func(tx db.Tx) error {
			t.Fatal("mutation must not run for a duplicate request")
			return nil
		})

		require.NoError(t, err)
		assert.True(t, duplicate)
	})

	t.Run("mutation failure rolls back, leaving no record", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		mockTx := mock_database.NewMockTx(ctrl)
		mockRecords := mock_storage.NewMockIdempotencyRepository(ctrl)
		dispatcher := NewDispatcher(mockDB, mockRecords, zap.NewNop())

		mockDB.EXPECT().BeginTx(ctx).Return(mockTx, nil)
		mockRecords.EXPECT().InsertTx(ctx, mockTx, "req-1", "cancel-order", gomock.Any()).Return(nil)
		mockTx.EXPECT().Rollback(ctx).Return(nil)

		boom := errors.New("boom")
		duplicate, err := dispatcher.Execute(ctx, "req-1", "cancel-order", func(tx db.Tx) error {
			return boom
		})

		assert.ErrorIs(t, err, boom)
		assert.False(t, duplicate)
	})

	t.Run("empty request id is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		dispatcher := NewDispatcher(mock_database.NewMockDB(ctrl), mock_storage.NewMockIdempotencyRepository(ctrl), zap.NewNop())

		_, err := dispatcher.Execute(ctx, "", "create-order", func(tx db.Tx) error { return nil })
		assert.Error(t, err)
	})
}
