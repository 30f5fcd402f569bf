package providers

import (
	"context"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to invalidation events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.InvalidationEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.InvalidationEvent, error)

	// Unsubscribe drops every subscriber of a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelClinicPrefix prefixes per-clinic invalidation channels
const EventChannelClinicPrefix = "clinicdesk:clinic:"

// GetClinicChannel returns the invalidation channel for a clinic
func GetClinicChannel(clinicID string) string {
	return EventChannelClinicPrefix + clinicID + ":invalidations"
}
