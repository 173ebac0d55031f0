package database

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	mockArgs := m.Called(ctx, args)
	cmd := redis.NewStringCmd(ctx)
	if mockArgs.Get(0) != nil {
		cmd.SetErr(mockArgs.Error(0))
	} else {
		cmd.SetVal("1234567890-0")
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, err error) error {
	args := m.Called(ctx, id, err)
	return args.Error(0)
}

func batchEvent(t *testing.T) *OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"retailer": "NZProtein",
		"category": "protein",
		"count":    12,
	})
	assert.NoError(t, err)

	return &OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "scrape_batch",
		AggregateID:   "NZProtein:protein",
		EventType:     EventScrapeBatchSaved,
		Payload:       payload,
		TargetStream:  "stream:scrape_batches",
		Status:        OutboxStatusPending,
		CreatedAt:     time.Now(),
	}
}

func TestRelay_ProcessEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes and marks processed", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		mockOutbox := new(MockOutboxRepository)
		event := batchEvent(t)

		mockOutbox.On("GetPending", ctx, 10).Return([]*OutboxEvent{event}, nil)
		mockRedis.On("XAdd", ctx, mock.MatchedBy(func(args *redis.XAddArgs) bool {
			return args.Stream == "stream:scrape_batches"
		})).Return(nil)
		mockOutbox.On("MarkProcessed", ctx, event.ID).Return(nil)

		relay := &Relay{
			redis:     mockRedis,
			outbox:    mockOutbox,
			logger:    slog.Default(),
			batchSize: 10,
		}

		assert.NoError(t, relay.processEvents(ctx))
		mockRedis.AssertExpectations(t)
		mockOutbox.AssertExpectations(t)
	})

	t.Run("publish failure marks event failed", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		mockOutbox := new(MockOutboxRepository)
		event := batchEvent(t)

		mockOutbox.On("GetPending", ctx, 10).Return([]*OutboxEvent{event}, nil)
		mockRedis.On("XAdd", ctx, mock.Anything).Return(errors.New("redis down"))
		mockOutbox.On("MarkFailed", ctx, event.ID, mock.Anything).Return(nil)

		relay := &Relay{
			redis:     mockRedis,
			outbox:    mockOutbox,
			logger:    slog.Default(),
			batchSize: 10,
		}

		assert.NoError(t, relay.processEvents(ctx))
		mockOutbox.AssertCalled(t, "MarkFailed", ctx, event.ID, mock.Anything)
		mockOutbox.AssertNotCalled(t, "MarkProcessed", ctx, event.ID)
	})

	t.Run("empty outbox is a no-op", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		mockOutbox := new(MockOutboxRepository)

		mockOutbox.On("GetPending", ctx, 10).Return([]*OutboxEvent{}, nil)

		relay := &Relay{
			redis:     mockRedis,
			outbox:    mockOutbox,
			logger:    slog.Default(),
			batchSize: 10,
		}

		assert.NoError(t, relay.processEvents(ctx))
		mockRedis.AssertNotCalled(t, "XAdd", mock.Anything, mock.Anything)
	})

	t.Run("get pending failure is returned", func(t *testing.T) {
		mockOutbox := new(MockOutboxRepository)
		mockOutbox.On("GetPending", ctx, 10).Return(nil, errors.New("connection lost"))

		relay := &Relay{
			redis:     new(MockRedisClient),
			outbox:    mockOutbox,
			logger:    slog.Default(),
			batchSize: 10,
		}

		assert.Error(t, relay.processEvents(ctx))
	})
}

func TestCalculateNextRetryTime_Backoff(t *testing.T) {
	first := calculateNextRetryTime(1)
	assert.WithinDuration(t, time.Now().Add(2*time.Second), first, 500*time.Millisecond)

	// Backoff caps at five minutes.
	capped := calculateNextRetryTime(20)
	assert.WithinDuration(t, time.Now().Add(300*time.Second), capped, 500*time.Millisecond)
}
