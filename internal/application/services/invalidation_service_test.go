package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/internal/application/services"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/internal/domain/providers"
)

// MockEventBus for testing
type MockEventBus struct {
	mu           sync.Mutex
	subscribers  map[string][]chan *entities.InvalidationEvent
	published    []*entities.InvalidationEvent
	subscribeErr error
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{subscribers: make(map[string][]chan *entities.InvalidationEvent)}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.InvalidationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	for _, ch := range m.subscribers[channel] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.InvalidationEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}
	ch := make(chan *entities.InvalidationEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers[channel] {
		close(ch)
	}
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for channel, chans := range m.subscribers {
		for _, ch := range chans {
			close(ch)
		}
		delete(m.subscribers, channel)
	}
	return nil
}

func (m *MockEventBus) subscriberCount(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers[channel])
}

type recordingRefresher struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (r *recordingRefresher) Refresh(ctx context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string(nil), keys...))
	return r.err
}

func (r *recordingRefresher) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func TestInvalidationService_Start(t *testing.T) {
	bus := NewMockEventBus()
	svc := services.NewInvalidationService(bus, &recordingRefresher{}, "clinic-1", "me", zerolog.Nop())

	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	assert.Equal(t, 1, bus.subscriberCount(providers.GetClinicChannel("clinic-1")))
	assert.Error(t, svc.Start(context.Background()), "second start is refused")
}

func TestInvalidationService_StartSubscribeError(t *testing.T) {
	bus := NewMockEventBus()
	bus.subscribeErr = errors.New("redis down")
	svc := services.NewInvalidationService(bus, &recordingRefresher{}, "clinic-1", "me", zerolog.Nop())

	err := svc.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	svc.Stop()
}

func TestInvalidationService_RefreshesRemoteChanges(t *testing.T) {
	bus := NewMockEventBus()
	refresher := &recordingRefresher{}
	svc := services.NewInvalidationService(bus, refresher, "clinic-1", "me", zerolog.Nop())
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	channel := providers.GetClinicChannel("clinic-1")
	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, channel, &entities.InvalidationEvent{
		ID: "own", ClinicID: "clinic-1", Origin: "me", Resources: []string{"queue"},
	}))
	require.NoError(t, bus.Publish(ctx, channel, &entities.InvalidationEvent{
		ID: "other-clinic", ClinicID: "clinic-2", Origin: "them", Resources: []string{"queue"},
	}))
	require.NoError(t, bus.Publish(ctx, channel, &entities.InvalidationEvent{
		ID: "empty", ClinicID: "clinic-1", Origin: "them",
	}))
	require.NoError(t, bus.Publish(ctx, channel, &entities.InvalidationEvent{
		ID: "remote", ClinicID: "clinic-1", Origin: "them", Action: "queue.call", Resources: []string{"queue", "queue.stats"},
	}))

	require.Eventually(t, func() bool { return len(refresher.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, [][]string{{"queue", "queue.stats"}}, refresher.snapshot())
}

func TestInvalidationService_RefreshErrorKeepsListening(t *testing.T) {
	bus := NewMockEventBus()
	refresher := &recordingRefresher{err: errors.New("backend down")}
	svc := services.NewInvalidationService(bus, refresher, "clinic-1", "me", zerolog.Nop())
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	channel := providers.GetClinicChannel("clinic-1")
	for i := 0; i < 2; i++ {
		require.NoError(t, bus.Publish(context.Background(), channel, &entities.InvalidationEvent{
			ClinicID: "clinic-1", Origin: "them", Resources: []string{"beds"},
		}))
	}
	require.Eventually(t, func() bool { return len(refresher.snapshot()) == 2 }, time.Second, 10*time.Millisecond)
}

func TestInvalidationService_StopsWhenChannelCloses(t *testing.T) {
	bus := NewMockEventBus()
	svc := services.NewInvalidationService(bus, &recordingRefresher{}, "clinic-1", "me", zerolog.Nop())
	require.NoError(t, svc.Start(context.Background()))

	require.NoError(t, bus.Close())
	done := make(chan struct{})
	go func() {
		svc.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the bus closed")
	}
}
