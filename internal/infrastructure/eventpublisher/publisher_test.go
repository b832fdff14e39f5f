package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/infrastructure/eventpublisher/mocks"
	"github.com/iho/stockroyale/internal/usecase"
)

func TestProcessEventsPublishesAndMarks(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{{ID: "evt-1", EventType: domain.EventTypeOfferAccepted}},
	}
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), repo.events[0]).Return(nil)

	ep := newTestPublisher(repo, pub)

	require.NoError(t, ep.processEvents(context.Background()))
	assert.Equal(t, []string{"evt-1"}, repo.marked)
	assert.Zero(t, repo.purges, "no retention configured")
}

func TestProcessEventsContinuesOnPublishError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{
			{ID: "evt-1", EventType: domain.EventTypeStockBankrupted},
			{ID: "evt-2", EventType: domain.EventTypeOfferingEmitted},
		},
	}
	pub := mocks.NewMockPublisher(ctrl)
	gomock.InOrder(
		pub.EXPECT().Publish(gomock.Any(), repo.events[0]).Return(errors.New("fail")),
		pub.EXPECT().Publish(gomock.Any(), repo.events[1]).Return(nil),
	)

	ep := newTestPublisher(repo, pub)

	require.NoError(t, ep.processEvents(context.Background()))
	assert.Equal(t, []string{"evt-2"}, repo.marked)
}

func TestProcessEventsPurgesPublished(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := &stubOutboxRepo{}
	ep := newTestPublisher(repo, mocks.NewMockPublisher(ctrl))
	ep.retention = time.Hour

	require.NoError(t, ep.processEvents(context.Background()))
	assert.Equal(t, 1, repo.purges)
}

func TestProcessEventsFetchError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := &stubOutboxRepo{err: errors.New("db down")}
	ep := newTestPublisher(repo, mocks.NewMockPublisher(ctrl))

	require.Error(t, ep.processEvents(context.Background()))
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	ep := newTestPublisher(&stubOutboxRepo{}, mocks.NewMockPublisher(ctrl))
	ep.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ep.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(zerolog.Nop())
	err := p.Publish(context.Background(), &domain.OutboxEvent{
		ID:      "evt-1",
		Payload: map[string]any{"stock_id": "s1"},
	})
	require.NoError(t, err)
}

func TestRedisPublisher(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, DefaultChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	event := &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "s1",
		AggregateType: domain.AggregateTypeStock,
		EventType:     domain.EventTypeStockBankrupted,
		Payload:       map[string]any{"ticker": "ACME"},
		CreatedAt:     created,
	}

	require.NoError(t, NewRedisPublisher(client, "").Publish(ctx, event))

	select {
	case msg := <-sub.Channel():
		var got Message
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "evt-1", got.ID)
		assert.Equal(t, domain.EventTypeStockBankrupted, got.EventType)
		assert.Equal(t, "ACME", got.Payload["ticker"])
		assert.True(t, created.Equal(got.CreatedAt))
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestRedisPublisherServerDown(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	s.Close()

	err := NewRedisPublisher(client, "events").Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1"})
	require.Error(t, err)
}

func newTestPublisher(repo *stubOutboxRepo, pub Publisher) *EventPublisher {
	return NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		BatchSize:  10,
		Interval:   5 * time.Millisecond,
	})
}

type stubOutboxRepo struct {
	events []*domain.OutboxEvent
	marked []string
	purges int
	err    error
}

func (s *stubOutboxRepo) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return nil
}

func (s *stubOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.events) <= limit {
		return append([]*domain.OutboxEvent(nil), s.events...), nil
	}
	return append([]*domain.OutboxEvent(nil), s.events[:limit]...), nil
}

func (s *stubOutboxRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	s.marked = append(s.marked, id)
	return nil
}

func (s *stubOutboxRepo) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (s *stubOutboxRepo) DeletePublished(ctx context.Context, before time.Time) error {
	s.purges++
	return nil
}
