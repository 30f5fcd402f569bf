package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/internal/domain/providers"
)

const invalidationRefreshTimeout = 10 * time.Second

// InvalidationService re-fetches local resources when another console of the
// same clinic announces a change.
type InvalidationService struct {
	eventBus  providers.EventBus
	refresher resources.KeyRefresher
	clinicID  string
	origin    string
	logger    zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewInvalidationService creates the service. Events carrying origin are this
// process's own and are ignored; its dispatcher already refreshed.
func NewInvalidationService(eventBus providers.EventBus, refresher resources.KeyRefresher, clinicID, origin string, logger zerolog.Logger) *InvalidationService {
	return &InvalidationService{
		eventBus:  eventBus,
		refresher: refresher,
		clinicID:  clinicID,
		origin:    origin,
		logger:    logger.With().Str("component", "invalidation").Str("clinic_id", clinicID).Logger(),
	}
}

// Start subscribes to the clinic's channel and processes events until Stop
func (s *InvalidationService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("invalidation service already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	channel := providers.GetClinicChannel(s.clinicID)
	events, err := s.eventBus.Subscribe(ctx, channel)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	s.cancel = cancel
	s.done = make(chan struct{})
	go s.processEvents(ctx, events)
	s.logger.Info().Str("channel", channel).Msg("invalidation service started")
	return nil
}

// Stop ends the subscription and waits for the event loop to exit
func (s *InvalidationService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info().Msg("invalidation service stopped")
}

func (s *InvalidationService) processEvents(ctx context.Context, events <-chan *entities.InvalidationEvent) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(ctx, event)
		}
	}
}

func (s *InvalidationService) handleEvent(ctx context.Context, event *entities.InvalidationEvent) {
	if event.Origin == s.origin || event.ClinicID != s.clinicID || len(event.Resources) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, invalidationRefreshTimeout)
	defer cancel()

	log := s.logger.With().Str("event_id", event.ID).Str("action", event.Action).Strs("resources", event.Resources).Logger()
	if err := s.refresher.Refresh(ctx, event.Resources...); err != nil {
		log.Warn().Err(err).Msg("refresh after remote change failed")
		return
	}
	log.Debug().Msg("refreshed after remote change")
}
