package resources_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/internal/domain/providers"
	apperrors "github.com/zatekoja/clinicdesk/pkg/errors"
)

// recordingNotifier keeps every message in order
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

// MockNotifier is a testify mock of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Success(msg string) { m.Called(msg) }
func (m *MockNotifier) Error(msg string)   { m.Called(msg) }

// memoryCache is an in-process CacheProvider
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// scriptedLoader returns its results in order, repeating the last one
type scriptedLoader[T any] struct {
	mu      sync.Mutex
	calls   int
	results []result[T]
}

type result[T any] struct {
	v   T
	err error
}

func (l *scriptedLoader[T]) Load(context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.calls
	if i >= len(l.results) {
		i = len(l.results) - 1
	}
	l.calls++
	return l.results[i].v, l.results[i].err
}

func (l *scriptedLoader[T]) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func countingLoader(n *atomic.Int32) resources.Loader[int] {
	return func(context.Context) (int, error) {
		return int(n.Add(1)), nil
	}
}

func newRegistry(n resources.Notifier) *resources.Registry {
	return resources.NewRegistry(resources.RegistryConfig{Notifier: n, Logger: zerolog.Nop()})
}

func TestResource_FailedRefreshKeepsPreviousValue(t *testing.T) {
	loader := &scriptedLoader[[]string]{results: []result[[]string]{
		{v: []string{"C-001", "C-002"}},
		{err: apperrors.NewNetworkError("GET /queue failed", errors.New("connection refused"))},
	}}
	reg := newRegistry(&recordingNotifier{})
	res := resources.Register(reg, "queue", loader.Load, resources.ResourceOptions{})

	assert.True(t, res.Loading())
	require.NoError(t, res.Refresh(context.Background()))
	assert.False(t, res.Loading())
	assert.NoError(t, res.Err())
	fetchedAt := res.FetchedAt()

	err := res.Refresh(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"C-001", "C-002"}, res.Get())
	assert.True(t, res.Loaded())
	assert.Error(t, res.Err())
	assert.Equal(t, fetchedAt, res.FetchedAt())
}

func TestResource_FailurePolicy(t *testing.T) {
	failure := apperrors.NewNetworkError("GET failed", errors.New("timeout"))

	tests := []struct {
		name       string
		policy     resources.FailurePolicy
		wantErrors []string
	}{
		{"notify initial only", resources.PolicyNotifyInitial, []string{"Failed to load beds"}},
		{"notify always", resources.PolicyNotifyAlways, []string{"Failed to load beds", "Failed to load beds"}},
		{"silent", resources.PolicySilent, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			loader := &scriptedLoader[int]{results: []result[int]{{err: failure}}}
			reg := newRegistry(notifier)
			res := resources.Register(reg, "beds", loader.Load, resources.ResourceOptions{Policy: tt.policy})

			_ = res.Refresh(context.Background())
			_ = res.Refresh(context.Background())

			assert.Equal(t, 2, loader.Calls())
			assert.Equal(t, tt.wantErrors, notifier.Errors())
		})
	}
}

func TestResource_ServerMessagePreferredOverFallback(t *testing.T) {
	notifier := &recordingNotifier{}
	loader := &scriptedLoader[int]{results: []result[int]{
		{err: apperrors.FromStatus(500, "GET /api/ipd/stats returned status 500", "Database unavailable")},
	}}
	reg := newRegistry(notifier)
	res := resources.Register(reg, "ipd.stats", loader.Load, resources.ResourceOptions{FailureMessage: "Failed to load statistics"})

	_ = res.Refresh(context.Background())
	assert.Equal(t, []string{"Database unavailable"}, notifier.Errors())
}

func TestResource_ResultAfterCancellationIsDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		<-release
		return "late", nil
	}
	reg := newRegistry(&recordingNotifier{})
	res := resources.Register(reg, "queue", load, resources.ResourceOptions{})

	done := make(chan error, 1)
	go func() { done <- res.Refresh(ctx) }()
	cancel()
	close(release)

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.Loaded())
	assert.True(t, res.Loading())
	assert.Empty(t, res.Get())
}

func TestResource_SnapshotFallback(t *testing.T) {
	cache := newMemoryCache()
	ctx := context.Background()

	first := resources.NewRegistry(resources.RegistryConfig{Logger: zerolog.Nop(), Cache: cache, SnapshotTTL: time.Minute})
	warm := resources.Register(first, "beds", func(context.Context) ([]entities.Bed, error) {
		return []entities.Bed{{ID: "b1", BedNumber: "GEN-1", Status: entities.BedStatusAvailable}}, nil
	}, resources.ResourceOptions{})
	require.NoError(t, warm.Refresh(ctx))

	notifier := &recordingNotifier{}
	second := resources.NewRegistry(resources.RegistryConfig{Notifier: notifier, Logger: zerolog.Nop(), Cache: cache})
	cold := resources.Register(second, "beds", func(context.Context) ([]entities.Bed, error) {
		return nil, apperrors.NewNetworkError("GET /api/beds failed", errors.New("no route to host"))
	}, resources.ResourceOptions{})

	require.Error(t, cold.Refresh(ctx))
	require.True(t, cold.Loaded())
	assert.True(t, cold.Stale())
	assert.Error(t, cold.Err())
	require.Len(t, cold.Get(), 1)
	assert.Equal(t, "GEN-1", cold.Get()[0].BedNumber)
	assert.Equal(t, []string{"Failed to load beds"}, notifier.Errors())
}

func TestRegistry_RegisterSharesResources(t *testing.T) {
	reg := newRegistry(nil)
	var n atomic.Int32

	a := resources.Register(reg, "queue", countingLoader(&n), resources.ResourceOptions{})
	b := resources.Register(reg, "queue", countingLoader(&n), resources.ResourceOptions{})
	assert.Same(t, a, b)

	assert.Panics(t, func() {
		resources.Register(reg, "queue", func(context.Context) (string, error) { return "", nil }, resources.ResourceOptions{})
	})
}

func TestRegistry_RefreshFetchesEachKeyOnce(t *testing.T) {
	reg := newRegistry(nil)
	var queue, stats atomic.Int32
	resources.Register(reg, "queue", countingLoader(&queue), resources.ResourceOptions{})
	resources.Register(reg, "queue.stats", countingLoader(&stats), resources.ResourceOptions{})

	require.NoError(t, reg.Refresh(context.Background(), "queue", "queue.stats", "queue", "unknown"))
	assert.Equal(t, int32(1), queue.Load())
	assert.Equal(t, int32(1), stats.Load())
	assert.Equal(t, []string{"queue", "queue.stats"}, reg.Keys())
}

func TestRegistry_WatchReportsChanges(t *testing.T) {
	reg := newRegistry(nil)
	var n atomic.Int32
	res := resources.Register(reg, "queue", countingLoader(&n), resources.ResourceOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	changes := reg.Watch(ctx)

	require.NoError(t, res.Refresh(context.Background()))
	select {
	case key := <-changes:
		assert.Equal(t, "queue", key)
	case <-time.After(time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-changes
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestRegistry_FailedRefreshIsReported(t *testing.T) {
	loader := &scriptedLoader[[]string]{results: []result[[]string]{
		{v: []string{"C-001"}},
		{err: apperrors.FromStatus(503, "GET /queue returned status 503", "Server busy")},
		{v: []string{"C-001", "C-002"}},
	}}
	reg := newRegistry(&recordingNotifier{})
	res := resources.Register(reg, "queue", loader.Load, resources.ResourceOptions{})
	resources.Register(reg, "queue.stats", func(context.Context) (int, error) { return 1, nil }, resources.ResourceOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := reg.Watch(ctx)
	next := func() string {
		t.Helper()
		select {
		case key := <-changes:
			return key
		case <-time.After(time.Second):
			t.Fatal("no change reported")
			return ""
		}
	}

	require.NoError(t, res.Refresh(ctx))
	assert.Equal(t, "queue", next())
	assert.Empty(t, reg.Failures("queue", "queue.stats"))
	fetchedAt := res.FetchedAt()

	require.Error(t, res.Refresh(ctx))
	assert.Equal(t, "queue", next(), "a failed poll still triggers a redraw")
	assert.Equal(t, []string{"C-001"}, res.Get())

	failures := reg.Failures("queue", "queue.stats", "unknown")
	require.Len(t, failures, 1)
	assert.Equal(t, "queue", failures[0].Key)
	assert.True(t, failures[0].Loaded)
	assert.Equal(t, fetchedAt, failures[0].FetchedAt)
	assert.Equal(t, "Server busy", apperrors.UserMessage(failures[0].Err, ""))

	require.NoError(t, res.Refresh(ctx))
	assert.Equal(t, "queue", next())
	assert.Empty(t, reg.Failures("queue"))
	assert.False(t, res.Status().Failed())
}

func TestPoller_StartFetchesThenTicks(t *testing.T) {
	reg := newRegistry(nil)
	var n atomic.Int32
	res := resources.Register(reg, "queue", countingLoader(&n), resources.ResourceOptions{})

	p := resources.NewPoller(reg, 10*time.Millisecond, "queue")
	require.NoError(t, p.Start(context.Background()))
	assert.True(t, res.Loaded(), "initial fetch completes before Start returns")

	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, 5*time.Millisecond)
	p.Stop()

	assert.Error(t, p.Start(context.Background()))
}

func TestPoller_NoFetchAfterStop(t *testing.T) {
	reg := newRegistry(nil)
	var n atomic.Int32
	resources.Register(reg, "beds", countingLoader(&n), resources.ResourceOptions{})

	p := resources.NewPoller(reg, 5*time.Millisecond, "beds")
	require.NoError(t, p.Start(context.Background()))
	assert.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, time.Millisecond)

	p.Stop()
	p.Stop()
	stopped := n.Load()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, n.Load())

	err := p.Refresh(context.Background(), "beds")
	assert.ErrorIs(t, err, resources.ErrPollerStopped)
	assert.Equal(t, stopped, n.Load())
}

func TestPoller_DefaultInterval(t *testing.T) {
	p := resources.NewPoller(newRegistry(nil), 0)
	assert.Equal(t, 30*time.Second, p.Interval())
}

// MockEventBus records published invalidations
type MockEventBus struct {
	mu        sync.Mutex
	channels  []string
	published []*entities.InvalidationEvent
}

func (m *MockEventBus) Publish(_ context.Context, channel string, event *entities.InvalidationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, channel)
	m.published = append(m.published, event)
	return nil
}

func (m *MockEventBus) Subscribe(context.Context, string) (<-chan *entities.InvalidationEvent, error) {
	return make(chan *entities.InvalidationEvent), nil
}

func (m *MockEventBus) Unsubscribe(context.Context, string) error { return nil }
func (m *MockEventBus) Close() error                              { return nil }

func TestDispatcher_SuccessRefreshesEachKeyOnce(t *testing.T) {
	notifier := &MockNotifier{}
	notifier.On("Success", "Patient called").Once()

	reg := newRegistry(nil)
	var queue, stats, beds atomic.Int32
	resources.Register(reg, "queue", countingLoader(&queue), resources.ResourceOptions{})
	resources.Register(reg, "queue.stats", countingLoader(&stats), resources.ResourceOptions{})
	resources.Register(reg, "beds", countingLoader(&beds), resources.ResourceOptions{})

	bus := &MockEventBus{}
	d := resources.NewDispatcher(reg, resources.DispatcherConfig{
		Notifier: notifier,
		Logger:   zerolog.Nop(),
		EventBus: bus,
		ClinicID: "clinic-1",
	})

	var closedAfterRefresh bool
	err := d.Dispatch(context.Background(), resources.Action{
		Name:        "queue.call",
		Do:          func(context.Context) error { return nil },
		Success:     "Patient called",
		Failure:     "Failed to call patient",
		Invalidates: []string{"queue", "queue.stats", "queue"},
		EntityID:    "t1",
		OnSuccess: func() {
			closedAfterRefresh = queue.Load() == 1 && stats.Load() == 1
		},
	})

	require.NoError(t, err)
	notifier.AssertExpectations(t)
	notifier.AssertNotCalled(t, "Error", mock.Anything)
	assert.True(t, closedAfterRefresh)
	assert.Equal(t, int32(1), queue.Load())
	assert.Equal(t, int32(1), stats.Load())
	assert.Zero(t, beds.Load())

	require.Len(t, bus.published, 1)
	assert.Equal(t, providers.GetClinicChannel("clinic-1"), bus.channels[0])
	event := bus.published[0]
	assert.Equal(t, []string{"queue", "queue.stats"}, event.Resources)
	assert.Equal(t, "queue.call", event.Action)
	assert.Equal(t, "t1", event.EntityID)
	assert.Equal(t, d.Origin(), event.Origin)
	assert.NotEmpty(t, event.ID)
}

func TestDispatcher_FailureNotifiesAndSkipsRefresh(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "backend message",
			err:     apperrors.FromStatus(409, "PUT /api/beds/b1/status returned status 409", "Bed is currently occupied"),
			wantMsg: "Bed is currently occupied",
		},
		{
			name:    "no backend message",
			err:     apperrors.NewNetworkError("PUT /api/beds/b1/status failed", errors.New("reset by peer")),
			wantMsg: "Failed to update bed status",
		},
		{
			name:    "local validation",
			err:     apperrors.NewValidationError("Name and phone required"),
			wantMsg: "Name and phone required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &MockNotifier{}
			notifier.On("Error", tt.wantMsg).Once()

			reg := newRegistry(nil)
			var beds atomic.Int32
			resources.Register(reg, "beds", countingLoader(&beds), resources.ResourceOptions{})
			bus := &MockEventBus{}
			d := resources.NewDispatcher(reg, resources.DispatcherConfig{Notifier: notifier, Logger: zerolog.Nop(), EventBus: bus, ClinicID: "c1"})

			onSuccess := false
			err := d.Dispatch(context.Background(), resources.Action{
				Name:        "beds.status",
				Do:          func(context.Context) error { return tt.err },
				Success:     "Bed status updated",
				Failure:     "Failed to update bed status",
				Invalidates: []string{"beds"},
				OnSuccess:   func() { onSuccess = true },
			})

			assert.ErrorIs(t, err, tt.err)
			notifier.AssertExpectations(t)
			notifier.AssertNotCalled(t, "Success", mock.Anything)
			assert.Zero(t, beds.Load())
			assert.False(t, onSuccess)
			assert.Empty(t, bus.published)
		})
	}
}

func TestDispatcher_RefreshThroughPollerScope(t *testing.T) {
	reg := newRegistry(nil)
	var n atomic.Int32
	resources.Register(reg, "pharmacy", countingLoader(&n), resources.ResourceOptions{})

	p := resources.NewPoller(reg, time.Hour, "pharmacy")
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()
	require.Equal(t, int32(1), n.Load())

	d := resources.NewDispatcher(p, resources.DispatcherConfig{Logger: zerolog.Nop()})
	err := d.Dispatch(context.Background(), resources.Action{
		Name:        "pharmacy.add",
		Do:          func(context.Context) error { return nil },
		Invalidates: []string{"pharmacy"},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), n.Load())
}

func TestWriterNotifier(t *testing.T) {
	var sb syncBuffer
	n := resources.NewWriterNotifier(&sb)
	n.Success("Token issued")
	n.Error("Failed to issue token")
	assert.Equal(t, "[ok] Token issued\n[error] Failed to issue token\n", sb.String())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
