package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/zatekoja/clinicdesk/internal/adapters/cache"
	"github.com/zatekoja/clinicdesk/internal/adapters/events"
	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/application/services"
	"github.com/zatekoja/clinicdesk/internal/application/views"
	"github.com/zatekoja/clinicdesk/internal/console"
	"github.com/zatekoja/clinicdesk/internal/domain/providers"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/clients/emrapi"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/clients/redis"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/observability"
	"github.com/zatekoja/clinicdesk/pkg/config"
)

const snapshotPrefix = "clinicdesk:snapshot:"

// app is one console session against one clinic
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	metrics    *observability.Metrics
	client     *emrapi.HTTPClient
	registry   *resources.Registry
	dispatcher *resources.Dispatcher
	bus        providers.EventBus
	render     *console.Renderer

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config, render *console.Renderer, notices io.Writer) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env, cfg.Log.Level),
		render: render,
	}

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			a.logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			a.onClose(func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					a.logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			})
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.metrics = metrics

	a.client = emrapi.NewClient(cfg.API.BaseURL,
		emrapi.WithToken(cfg.API.Token),
		emrapi.WithTimeout(cfg.API.Timeout),
		emrapi.WithMetrics(metrics),
	)

	var snapshots providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis, a.logger)
		if err != nil {
			// The console works without Redis; it only loses snapshots and live invalidation.
			a.logger.Warn().Err(err).Msg("continuing without Redis")
		} else {
			a.bus = events.NewRedisEventBus(redisClient, a.logger)
			snapshots = cache.NewRedisAdapter(redisClient, snapshotPrefix+cfg.Clinic.ID+":")
			a.onClose(func() {
				if err := a.bus.Close(); err != nil {
					a.logger.Error().Err(err).Msg("error closing event bus")
				}
				_ = redisClient.Close()
			})
		}
	}

	notifier := resources.NewWriterNotifier(notices)
	a.registry = resources.NewRegistry(resources.RegistryConfig{
		Notifier:    notifier,
		Logger:      a.logger,
		Metrics:     metrics,
		Cache:       snapshots,
		SnapshotTTL: cfg.Sync.SnapshotTTL,
	})
	a.dispatcher = resources.NewDispatcher(a.registry, resources.DispatcherConfig{
		Notifier: notifier,
		Logger:   a.logger,
		Metrics:  metrics,
		EventBus: a.bus,
		ClinicID: cfg.Clinic.ID,
	})
	return a, nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases connections in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) deps() views.Deps {
	return views.Deps{ClinicID: a.cfg.Clinic.ID, Registry: a.registry, Dispatcher: a.dispatcher}
}

// load fetches keys once. Failures have already been reported by each
// resource's failure policy; the error is returned so the command exits
// non-zero.
func (a *app) load(ctx context.Context, keys ...string) error {
	return a.registry.Refresh(ctx, keys...)
}

// show loads keys and renders whatever is available, even after a failure,
// so a restored snapshot is still printed.
func (a *app) show(ctx context.Context, keys []string, render func() error) error {
	loadErr := a.load(ctx, keys...)
	if err := render(); err != nil {
		return err
	}
	return loadErr
}

// watch polls keys, re-rendering after every change until ctx is done.
// With an event bus, changes announced by other consoles trigger an
// immediate refresh.
func (a *app) watch(ctx context.Context, keys []string, render func() error) error {
	poller := resources.NewPoller(a.registry, a.cfg.Sync.PollInterval, keys...)
	changes := a.registry.Watch(ctx)

	if a.bus != nil {
		svc := services.NewInvalidationService(a.bus, poller, a.cfg.Clinic.ID, a.dispatcher.Origin(), a.logger)
		if err := svc.Start(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("live invalidation unavailable")
		} else {
			defer svc.Stop()
		}
	}

	if err := poller.Start(ctx); err != nil {
		return err
	}
	defer poller.Stop()

	watched := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		watched[k] = struct{}{}
	}

	redraw := func() error {
		a.render.Clear()
		a.render.WatchHeader(time.Now(), poller.Interval(), a.registry.Failures(keys...))
		return render()
	}
	if err := redraw(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-changes:
			if !ok {
				return nil
			}
			if _, ok := watched[key]; !ok {
				continue
			}
			if err := redraw(); err != nil {
				return err
			}
		}
	}
}
