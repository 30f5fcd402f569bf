package resources

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zatekoja/clinicdesk/internal/domain/providers"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinicdesk/pkg/errors"
)

// FailurePolicy decides whether a failed fetch is shown to the operator
type FailurePolicy int

const (
	// PolicyNotifyInitial notifies for the first load only; background
	// refreshes are logged.
	PolicyNotifyInitial FailurePolicy = iota
	// PolicySilent only logs.
	PolicySilent
	// PolicyNotifyAlways notifies on every failed fetch.
	PolicyNotifyAlways
)

// Loader fetches the current value of a resource
type Loader[T any] func(ctx context.Context) (T, error)

// Refresher is a registry entry that can be fetched again by key
type Refresher interface {
	Key() string
	Refresh(ctx context.Context) error
	Status() Status
}

// Status is the freshness of one resource as shown to the operator
type Status struct {
	Key       string
	Err       error
	Loaded    bool
	Stale     bool
	FetchedAt time.Time
}

// Failed reports whether the most recent fetch failed
func (s Status) Failed() bool {
	return s.Err != nil
}

// ResourceOptions tunes a single resource
type ResourceOptions struct {
	Policy FailurePolicy
	// FailureMessage is shown when a notified fetch fails and the backend sent
	// no message of its own. Defaults to "Failed to load <key>".
	FailureMessage string
}

// Resource is the client-side copy of one server collection. It keeps the
// last good value across failed refreshes.
type Resource[T any] struct {
	key     string
	load    Loader[T]
	opts    ResourceOptions
	shared  *shared
	changed func(key string)

	mu           sync.RWMutex
	value        T
	err          error
	loaded       bool
	attempted    bool
	fromSnapshot bool
	fetchedAt    time.Time
}

func newResource[T any](key string, load Loader[T], opts ResourceOptions, s *shared, changed func(string)) *Resource[T] {
	if opts.FailureMessage == "" {
		opts.FailureMessage = "Failed to load " + key
	}
	return &Resource[T]{
		key:     key,
		load:    load,
		opts:    opts,
		shared:  s,
		changed: changed,
	}
}

// Key returns the resource key
func (r *Resource[T]) Key() string {
	return r.key
}

// Value returns the last good value and whether one exists
func (r *Resource[T]) Value() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value, r.loaded
}

// Get returns the last good value, or the zero value before the first success
func (r *Resource[T]) Get() T {
	v, _ := r.Value()
	return v
}

// Err returns the error of the most recent fetch, nil after a success
func (r *Resource[T]) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Status returns the resource's error and freshness in one read
func (r *Resource[T]) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Status{
		Key:       r.key,
		Err:       r.err,
		Loaded:    r.loaded,
		Stale:     r.fromSnapshot,
		FetchedAt: r.fetchedAt,
	}
}

// Loaded reports whether a value has ever been obtained
func (r *Resource[T]) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Loading reports whether the first fetch is still pending
func (r *Resource[T]) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.attempted
}

// Stale reports whether the value came from the snapshot cache rather than the backend
func (r *Resource[T]) Stale() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fromSnapshot
}

// FetchedAt returns when the value was last fetched successfully
func (r *Resource[T]) FetchedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fetchedAt
}

// Set replaces the value without a fetch
func (r *Resource[T]) Set(v T) {
	r.mu.Lock()
	r.value = v
	r.loaded = true
	r.attempted = true
	r.err = nil
	r.fromSnapshot = false
	r.fetchedAt = time.Now()
	r.mu.Unlock()
	r.notifyChanged()
}

// Refresh fetches the resource once. On failure the previous value is kept
// and the error is recorded. A result that arrives after ctx is cancelled is
// dropped without touching state.
func (r *Resource[T]) Refresh(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, "resources.refresh")
	defer span.End()

	v, err := r.load(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	observability.RecordRefreshMetric(ctx, r.shared.metrics, r.key, err)

	if err != nil {
		observability.RecordError(span, err)
		r.fail(ctx, err)
		return err
	}

	r.mu.Lock()
	r.value = v
	r.loaded = true
	r.attempted = true
	r.err = nil
	r.fromSnapshot = false
	r.fetchedAt = time.Now()
	r.mu.Unlock()

	r.saveSnapshot(ctx, v)
	r.notifyChanged()
	return nil
}

func (r *Resource[T]) fail(ctx context.Context, err error) {
	r.mu.Lock()
	initial := !r.attempted
	r.attempted = true
	r.err = err
	hasValue := r.loaded
	r.mu.Unlock()

	r.shared.logger.Warn().
		Err(err).
		Str("resource", r.key).
		Bool("initial", initial).
		Msg("resource refresh failed")

	switch r.opts.Policy {
	case PolicyNotifyAlways:
		r.shared.notifier.Error(apperrors.UserMessage(err, r.opts.FailureMessage))
	case PolicyNotifyInitial:
		if initial {
			r.shared.notifier.Error(apperrors.UserMessage(err, r.opts.FailureMessage))
		}
	}

	if !hasValue {
		r.restoreSnapshot(ctx)
	}
	// watchers redraw to show the error indicator even when the value is unchanged
	r.notifyChanged()
}

func (r *Resource[T]) snapshotKey() string {
	return "snapshot:" + r.key
}

func (r *Resource[T]) saveSnapshot(ctx context.Context, v T) {
	if r.shared.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		r.shared.logger.Debug().Err(err).Str("resource", r.key).Msg("snapshot not encodable")
		return
	}
	if err := r.shared.cache.Set(ctx, r.snapshotKey(), data, r.shared.snapshotTTL); err != nil {
		r.shared.logger.Warn().Err(err).Str("resource", r.key).Msg("failed to store snapshot")
	}
}

func (r *Resource[T]) restoreSnapshot(ctx context.Context) bool {
	if r.shared.cache == nil {
		return false
	}
	data, err := r.shared.cache.Get(ctx, r.snapshotKey())
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			r.shared.logger.Warn().Err(err).Str("resource", r.key).Msg("failed to read snapshot")
		}
		return false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		r.shared.logger.Warn().Err(err).Str("resource", r.key).Msg("discarding unreadable snapshot")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return false
	}
	r.value = v
	r.loaded = true
	r.fromSnapshot = true
	r.shared.logger.Info().Str("resource", r.key).Msg("serving cached snapshot")
	return true
}

func (r *Resource[T]) notifyChanged() {
	if r.changed != nil {
		r.changed(r.key)
	}
}

// shared holds what every resource of a registry reports through
type shared struct {
	notifier    Notifier
	logger      zerolog.Logger
	metrics     *observability.Metrics
	cache       providers.CacheProvider
	snapshotTTL time.Duration
}
