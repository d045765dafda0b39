package repository

import (
	"context"
	"testing"

	"chainbet/telegram-client/domain/events"
	"chainbet/telegram-client/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTransactionalPublisher buffers events so tests can assert on
// commit/rollback behavior without a broker.
type stubTransactionalPublisher struct {
	pending   []events.Event
	flushed   []events.Event
	discarded bool
}

func (s *stubTransactionalPublisher) Publish(event events.Event) error {
	s.pending = append(s.pending, event)
	return nil
}

func (s *stubTransactionalPublisher) Flush(ctx context.Context) error {
	s.flushed = append(s.flushed, s.pending...)
	s.pending = nil
	return nil
}

func (s *stubTransactionalPublisher) Discard() {
	s.pending = nil
	s.discarded = true
}

func TestUnitOfWork_CommitPersists(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	factory := NewUnitOfWorkFactory(testDB.DB)
	publisher := &stubTransactionalPublisher{}
	ctx := context.Background()

	uow := factory.CreateWithPublisher(publisher)
	require.NoError(t, uow.Begin(ctx))

	user := testutil.CreateTestUser(1, "alice")
	require.NoError(t, uow.UserRepository().Create(ctx, user))
	require.NoError(t, uow.EventBus().Publish(&events.UserCreatedEvent{
		UserID:     user.ID,
		TelegramID: user.TelegramID,
	}))
	require.NoError(t, uow.Commit())

	// Visible outside the transaction
	got, err := NewUserRepository(testDB.DB).GetByTelegramID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)

	// Events flush only after commit
	require.Len(t, publisher.flushed, 1)
	assert.False(t, publisher.discarded)
}

func TestUnitOfWork_RollbackDiscards(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	factory := NewUnitOfWorkFactory(testDB.DB)
	publisher := &stubTransactionalPublisher{}
	ctx := context.Background()

	uow := factory.CreateWithPublisher(publisher)
	require.NoError(t, uow.Begin(ctx))

	user := testutil.CreateTestUser(2, "bob")
	require.NoError(t, uow.UserRepository().Create(ctx, user))
	require.NoError(t, uow.EventBus().Publish(&events.UserCreatedEvent{
		UserID:     user.ID,
		TelegramID: user.TelegramID,
	}))
	require.NoError(t, uow.Rollback())

	got, err := NewUserRepository(testDB.DB).GetByTelegramID(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Empty(t, publisher.flushed)
	assert.True(t, publisher.discarded)
}

func TestUnitOfWork_Lifecycle(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	factory := NewUnitOfWorkFactory(testDB.DB)
	ctx := context.Background()

	t.Run("repositories panic before Begin", func(t *testing.T) {
		uow := factory.CreateWithPublisher(&stubTransactionalPublisher{})
		assert.Panics(t, func() { uow.UserRepository() })
		assert.Panics(t, func() { uow.MarketRepository() })
		assert.Panics(t, func() { uow.BetRepository() })
	})

	t.Run("double Begin fails", func(t *testing.T) {
		uow := factory.CreateWithPublisher(&stubTransactionalPublisher{})
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()
		assert.Error(t, uow.Begin(ctx))
	})

	t.Run("commit without Begin fails", func(t *testing.T) {
		uow := factory.CreateWithPublisher(&stubTransactionalPublisher{})
		assert.Error(t, uow.Commit())
	})

	t.Run("rollback without Begin is a no-op", func(t *testing.T) {
		uow := factory.CreateWithPublisher(&stubTransactionalPublisher{})
		assert.NoError(t, uow.Rollback())
	})
}
