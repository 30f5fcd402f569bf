// Package resources keeps client-side copies of backend collections fresh:
// a shared registry of typed resources, a fixed-interval poller and an
// action dispatcher that re-fetches what a write invalidated.
package resources

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/clinicdesk/internal/domain/providers"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/observability"
)

// RegistryConfig configures a Registry; zero values are usable
type RegistryConfig struct {
	Notifier Notifier
	Logger   zerolog.Logger
	Metrics  *observability.Metrics
	// Cache, when set, stores the last good value of every resource so a
	// console can start with data while the backend is unreachable.
	Cache       providers.CacheProvider
	SnapshotTTL time.Duration
}

// Registry holds one Resource per key so every view reads the same copy
type Registry struct {
	shared *shared

	mu       sync.RWMutex
	entries  map[string]Refresher
	watchers map[chan string]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	return &Registry{
		shared: &shared{
			notifier:    cfg.Notifier,
			logger:      cfg.Logger.With().Str("component", "resources").Logger(),
			metrics:     cfg.Metrics,
			cache:       cfg.Cache,
			snapshotTTL: cfg.SnapshotTTL,
		},
		entries:  make(map[string]Refresher),
		watchers: make(map[chan string]struct{}),
	}
}

// Register returns the resource stored under key, creating it with load on
// first use. Registering the same key with a different value type panics.
func Register[T any](r *Registry, key string, load Loader[T], opts ResourceOptions) *Resource[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[key]; ok {
		res, ok := existing.(*Resource[T])
		if !ok {
			panic(fmt.Sprintf("resources: key %q registered with type %T", key, existing))
		}
		return res
	}
	res := newResource(key, load, opts, r.shared, r.broadcast)
	r.entries[key] = res
	return res
}

// Lookup returns the entry for key
func (r *Registry) Lookup(key string) (Refresher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	return e, ok
}

// Failures returns the status of every key whose most recent fetch failed
func (r *Registry) Failures(keys ...string) []Status {
	var out []Status
	for _, key := range dedupe(keys) {
		entry, ok := r.Lookup(key)
		if !ok {
			continue
		}
		if st := entry.Status(); st.Failed() {
			out = append(out, st)
		}
	}
	return out
}

// Keys returns the registered keys in sorted order
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Refresh fetches each distinct key once, concurrently. Unknown keys are
// skipped. With no keys every registered resource is refreshed. The first
// fetch error is returned after all fetches settle.
func (r *Registry) Refresh(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		keys = r.Keys()
	}

	var g errgroup.Group
	for _, key := range dedupe(keys) {
		entry, ok := r.Lookup(key)
		if !ok {
			r.shared.logger.Debug().Str("resource", key).Msg("refresh of unregistered resource skipped")
			continue
		}
		g.Go(func() error {
			return entry.Refresh(ctx)
		})
	}
	return g.Wait()
}

// Watch returns a channel that receives the key of every resource whose
// value changes or whose fetch fails, until ctx is done. Slow watchers miss
// updates rather than block refreshes.
func (r *Registry) Watch(ctx context.Context) <-chan string {
	ch := make(chan string, 16)

	r.mu.Lock()
	r.watchers[ch] = struct{}{}
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		delete(r.watchers, ch)
		r.mu.Unlock()
		close(ch)
	}()
	return ch
}

func (r *Registry) broadcast(key string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for ch := range r.watchers {
		select {
		case ch <- key:
		default:
		}
	}
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
