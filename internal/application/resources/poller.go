package resources

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is the refresh period of screens with live data
const DefaultPollInterval = 30 * time.Second

// ErrPollerStopped is returned by Refresh once the poller's scope has ended
var ErrPollerStopped = errors.New("poller stopped")

// Poller refreshes a fixed set of registry keys on an interval. Every fetch
// runs under the poller's scope context, so Stop aborts in-flight requests
// and drops their results.
type Poller struct {
	registry *Registry
	keys     []string
	interval time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	scope   context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewPoller creates a poller for keys; interval <= 0 uses DefaultPollInterval
func NewPoller(registry *Registry, interval time.Duration, keys ...string) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		registry: registry,
		keys:     dedupe(keys),
		interval: interval,
		logger:   registry.shared.logger.With().Str("component", "poller").Logger(),
	}
}

// Interval returns the polling period
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start performs the initial fetch of every key concurrently, then keeps
// refreshing them every interval until Stop or ctx is done. Fetch failures
// are handled by each resource's failure policy and do not fail Start.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return errors.New("poller already started")
	}
	p.started = true
	p.scope, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	scope := p.scope
	p.mu.Unlock()

	p.logger.Debug().Strs("keys", p.keys).Dur("interval", p.interval).Msg("poller starting")
	_ = p.registry.Refresh(scope, p.keys...)

	go p.loop(scope)
	return nil
}

func (p *Poller) loop(scope context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-scope.Done():
			return
		case <-ticker.C:
			if scope.Err() != nil {
				return
			}
			_ = p.registry.Refresh(scope, p.keys...)
		}
	}
}

// Stop cancels the scope and waits for the polling loop to exit. No fetch
// is issued after Stop returns. Stop is safe to call more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Debug().Msg("poller stopped")
}

// Refresh fetches keys now, each exactly once; with no keys it refreshes the
// poller's own keys. The fetch is bound to both ctx and the poller's scope.
func (p *Poller) Refresh(ctx context.Context, keys ...string) error {
	p.mu.Lock()
	scope := p.scope
	p.mu.Unlock()

	if scope == nil {
		return p.registry.Refresh(ctx, p.keysOr(keys)...)
	}
	if scope.Err() != nil {
		return ErrPollerStopped
	}

	fetchCtx, cancel := context.WithCancel(scope)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return p.registry.Refresh(fetchCtx, p.keysOr(keys)...)
}

func (p *Poller) keysOr(keys []string) []string {
	if len(keys) == 0 {
		return p.keys
	}
	return keys
}
