package resources

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/internal/domain/providers"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinicdesk/pkg/errors"
)

// KeyRefresher re-fetches resources by key; both Registry and Poller satisfy it
type KeyRefresher interface {
	Refresh(ctx context.Context, keys ...string) error
}

// Action is one user-initiated write
type Action struct {
	Name string
	Do   func(ctx context.Context) error
	// Success and Failure are the messages shown to the operator. Failure is
	// used only when the backend sent no message.
	Success string
	Failure string
	// SuccessMessage, when set, builds the success text after Do returns.
	SuccessMessage func() string
	Invalidates    []string
	// OnSuccess runs after the refresh, e.g. to close a dialog or reset a draft.
	OnSuccess func()
	EntityID  string
}

// DispatcherConfig configures a Dispatcher
type DispatcherConfig struct {
	Notifier Notifier
	Logger   zerolog.Logger
	Metrics  *observability.Metrics
	// EventBus, when set, announces each successful action to the other
	// consoles of ClinicID.
	EventBus providers.EventBus
	ClinicID string
}

// Dispatcher runs actions and keeps dependent resources fresh afterwards
type Dispatcher struct {
	refresher KeyRefresher
	notifier  Notifier
	logger    zerolog.Logger
	metrics   *observability.Metrics
	bus       providers.EventBus
	clinicID  string
	origin    string
}

// NewDispatcher creates a dispatcher that refreshes through refresher
func NewDispatcher(refresher KeyRefresher, cfg DispatcherConfig) *Dispatcher {
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	return &Dispatcher{
		refresher: refresher,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger.With().Str("component", "dispatcher").Logger(),
		metrics:   cfg.Metrics,
		bus:       cfg.EventBus,
		clinicID:  cfg.ClinicID,
		origin:    uuid.NewString(),
	}
}

// Origin identifies this process on the invalidation bus
func (d *Dispatcher) Origin() string {
	return d.origin
}

// Dispatch runs the action. On success it notifies, refreshes every distinct
// invalidated key once, runs OnSuccess and announces the change. On failure
// it notifies with the backend's message when there is one and returns the
// error; nothing is refreshed.
func (d *Dispatcher) Dispatch(ctx context.Context, a Action) error {
	ctx, span := observability.StartSpan(ctx, "resources.dispatch")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("action", a.Name))

	err := a.Do(ctx)
	observability.RecordActionMetric(ctx, d.metrics, a.Name, err)
	if err != nil {
		observability.RecordError(span, err)
		d.logger.Error().Err(err).Str("action", a.Name).Msg("action failed")
		d.notifier.Error(apperrors.UserMessage(err, a.Failure))
		return err
	}

	msg := a.Success
	if a.SuccessMessage != nil {
		msg = a.SuccessMessage()
	}
	if msg != "" {
		d.notifier.Success(msg)
	}

	keys := dedupe(a.Invalidates)
	if len(keys) > 0 {
		if err := d.refresher.Refresh(ctx, keys...); err != nil {
			d.logger.Warn().Err(err).Str("action", a.Name).Strs("resources", keys).Msg("refresh after action failed")
		}
	}

	if a.OnSuccess != nil {
		a.OnSuccess()
	}

	d.publish(ctx, a, keys)
	return nil
}

// Reject reports an action refused before it reached the backend, typically
// a failed form validation, and returns err unchanged.
func (d *Dispatcher) Reject(name string, err error) error {
	d.logger.Debug().Err(err).Str("action", name).Msg("action rejected locally")
	d.notifier.Error(apperrors.UserMessage(err, "Invalid input"))
	return err
}

func (d *Dispatcher) publish(ctx context.Context, a Action, keys []string) {
	if d.bus == nil || d.clinicID == "" || len(keys) == 0 {
		return
	}
	event := &entities.InvalidationEvent{
		ID:        uuid.NewString(),
		ClinicID:  d.clinicID,
		Resources: keys,
		Action:    a.Name,
		EntityID:  a.EntityID,
		Origin:    d.origin,
		Timestamp: time.Now(),
	}
	if err := d.bus.Publish(ctx, providers.GetClinicChannel(d.clinicID), event); err != nil {
		d.logger.Warn().Err(err).Str("action", a.Name).Msg("failed to publish invalidation")
	}
}
