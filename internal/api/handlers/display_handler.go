package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/application/views"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/observability"
)

// DefaultHeartbeat is how often an idle display stream sends a heartbeat
const DefaultHeartbeat = 30 * time.Second

// BoardSource projects the current display board
type BoardSource interface {
	Board() views.Board
}

// ChangeWatcher streams the keys of resources whose value changed
type ChangeWatcher interface {
	Watch(ctx context.Context) <-chan string
}

// DisplayBoard is the board as served to waiting-room screens
type DisplayBoard struct {
	ClinicID  string `json:"clinicId"`
	Stale     bool   `json:"stale"`
	Error     string `json:"error,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	views.Board
}

// DisplayHandler serves the waiting-room token board as JSON and as an SSE stream
type DisplayHandler struct {
	source    BoardSource
	watcher   ChangeWatcher
	clinicID  string
	keys      map[string]struct{}
	heartbeat time.Duration
	status    func() resources.Status
	logger    zerolog.Logger

	mu      sync.RWMutex
	clients int
}

// DisplayOption configures a DisplayHandler
type DisplayOption func(*DisplayHandler)

// WithHeartbeat overrides the stream heartbeat interval
func WithHeartbeat(d time.Duration) DisplayOption {
	return func(h *DisplayHandler) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// WithFreshness reports whether the board comes from a stale snapshot, when
// it was last fetched and whether the latest refresh failed.
func WithFreshness(status func() resources.Status) DisplayOption {
	return func(h *DisplayHandler) { h.status = status }
}

// NewDisplayHandler creates a handler that pushes a new board whenever one of
// keys changes in watcher.
func NewDisplayHandler(clinicID string, source BoardSource, watcher ChangeWatcher, keys []string, logger zerolog.Logger, opts ...DisplayOption) *DisplayHandler {
	h := &DisplayHandler{
		source:    source,
		watcher:   watcher,
		clinicID:  clinicID,
		keys:      make(map[string]struct{}, len(keys)),
		heartbeat: DefaultHeartbeat,
		logger:    logger.With().Str("component", "display").Logger(),
	}
	for _, k := range keys {
		h.keys[k] = struct{}{}
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *DisplayHandler) board() DisplayBoard {
	b := DisplayBoard{ClinicID: h.clinicID, Board: h.source.Board()}
	if h.status != nil {
		st := h.status()
		b.Stale = st.Stale
		if st.Failed() {
			b.Error = views.FailureText(st.Err)
		}
		if !st.FetchedAt.IsZero() {
			b.UpdatedAt = st.FetchedAt.UTC().Format(time.RFC3339)
		}
	}
	return b
}

// GetBoard returns the current board
// GET /api/display/board
func (h *DisplayHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.board())
}

// StreamBoard streams the board over SSE: a connected event, the board on
// connect and after every change, and periodic heartbeats.
// GET /api/display/stream
func (h *DisplayHandler) StreamBoard(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	log := observability.LoggerFromContext(ctx)
	changes := h.watcher.Watch(ctx)

	log.Debug().Int("clients", h.register()).Msg("display client connected")
	defer h.unregister()

	h.sendEvent(w, "connected", map[string]any{
		"clinicId":  h.clinicID,
		"timestamp": time.Now(),
	})
	h.sendEvent(w, "board", h.board())
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("display client disconnected")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]any{"timestamp": time.Now()})
			flusher.Flush()
		case key, ok := <-changes:
			if !ok {
				return
			}
			if _, watched := h.keys[key]; !watched {
				continue
			}
			h.sendEvent(w, "board", h.board())
			flusher.Flush()
		}
	}
}

func (h *DisplayHandler) register() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients++
	return h.clients
}

func (h *DisplayHandler) unregister() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients--
}

// ClientCount returns the number of connected streams
func (h *DisplayHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients
}

func (h *DisplayHandler) sendEvent(w http.ResponseWriter, eventType string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		h.logger.Error().Err(err).Str("event", eventType).Msg("failed to marshal event data")
		return
	}
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
