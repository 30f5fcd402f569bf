package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/internal/api/handlers"
	"github.com/zatekoja/clinicdesk/internal/application/resources"
	"github.com/zatekoja/clinicdesk/internal/application/views"
	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	apperrors "github.com/zatekoja/clinicdesk/pkg/errors"
)

type fakeBoard struct {
	mu    sync.Mutex
	board views.Board
}

func (f *fakeBoard) Board() views.Board {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.board
}

func (f *fakeBoard) set(b views.Board) {
	f.mu.Lock()
	f.board = b
	f.mu.Unlock()
}

// fakeWatcher hands every Watch call the same feed
type fakeWatcher struct {
	feed chan string
}

func (f *fakeWatcher) Watch(ctx context.Context) <-chan string {
	return f.feed
}

func boardWith(tokens ...string) views.Board {
	b := views.Board{NowServing: []views.QueueRow{}, Waiting: []views.QueueRow{}}
	for _, t := range tokens {
		b.NowServing = append(b.NowServing, views.QueueRow{Token: t, Status: entities.TokenStatusCalled})
	}
	return b
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, sc *bufio.Scanner, n int) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	for len(events) < n && sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			events = append(events, cur)
			cur = sseEvent{}
		}
	}
	require.Len(t, events, n)
	return events
}

func TestDisplayHandler_GetBoard(t *testing.T) {
	source := &fakeBoard{board: boardWith("C-001")}
	updated := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	h := handlers.NewDisplayHandler("clinic-1", source, &fakeWatcher{}, nil, zerolog.Nop(),
		handlers.WithFreshness(func() resources.Status {
			return resources.Status{Key: views.KeyQueue, Loaded: true, Stale: true, FetchedAt: updated}
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/display/board", nil)
	w := httptest.NewRecorder()
	h.GetBoard(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got handlers.DisplayBoard
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "clinic-1", got.ClinicID)
	assert.True(t, got.Stale)
	assert.Equal(t, "2026-03-01T09:30:00Z", got.UpdatedAt)
	assert.Empty(t, got.Error)
	require.Len(t, got.NowServing, 1)
	assert.Equal(t, "C-001", got.NowServing[0].Token)
}

func TestDisplayHandler_GetBoardAfterFailedRefresh(t *testing.T) {
	updated := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	h := handlers.NewDisplayHandler("clinic-1", &fakeBoard{board: boardWith("C-001")}, &fakeWatcher{}, nil, zerolog.Nop(),
		handlers.WithFreshness(func() resources.Status {
			return resources.Status{
				Key:       views.KeyQueue,
				Loaded:    true,
				FetchedAt: updated,
				Err:       apperrors.FromStatus(http.StatusServiceUnavailable, "GET /queue returned status 503", "Server busy"),
			}
		}))

	w := httptest.NewRecorder()
	h.GetBoard(w, httptest.NewRequest(http.MethodGet, "/api/display/board", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got handlers.DisplayBoard
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "Server busy", got.Error)
	assert.False(t, got.Stale)
	assert.Equal(t, "2026-03-01T09:30:00Z", got.UpdatedAt, "last good fetch time is kept")
	require.Len(t, got.NowServing, 1, "last good rows are kept")
	assert.Equal(t, "C-001", got.NowServing[0].Token)
}

func TestDisplayHandler_StreamBoard(t *testing.T) {
	source := &fakeBoard{board: boardWith("C-001")}
	watcher := &fakeWatcher{feed: make(chan string, 4)}
	h := handlers.NewDisplayHandler("clinic-1", source, watcher, []string{views.KeyQueue}, zerolog.Nop(),
		handlers.WithHeartbeat(time.Hour))

	srv := httptest.NewServer(http.HandlerFunc(h.StreamBoard))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	sc := bufio.NewScanner(resp.Body)
	events := readEvents(t, sc, 2)
	assert.Equal(t, "connected", events[0].name)
	assert.Contains(t, events[0].data, `"clinicId":"clinic-1"`)
	assert.Equal(t, "board", events[1].name)
	assert.Contains(t, events[1].data, "C-001")
	assert.Equal(t, 1, h.ClientCount())

	// unrelated keys are ignored; the queue key pushes a fresh board
	source.set(boardWith("C-002"))
	watcher.feed <- views.KeyBeds
	watcher.feed <- views.KeyQueue

	events = readEvents(t, sc, 1)
	assert.Equal(t, "board", events[0].name)
	assert.Contains(t, events[0].data, "C-002")

	cancel()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestDisplayHandler_StreamHeartbeat(t *testing.T) {
	h := handlers.NewDisplayHandler("clinic-1", &fakeBoard{board: boardWith()}, &fakeWatcher{feed: make(chan string)}, nil, zerolog.Nop(),
		handlers.WithHeartbeat(20*time.Millisecond))

	srv := httptest.NewServer(http.HandlerFunc(h.StreamBoard))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	events := readEvents(t, bufio.NewScanner(resp.Body), 3)
	assert.Equal(t, "heartbeat", events[2].name)
}

func TestDisplayHandler_StreamEndsWhenWatchCloses(t *testing.T) {
	feed := make(chan string)
	h := handlers.NewDisplayHandler("clinic-1", &fakeBoard{board: boardWith()}, &fakeWatcher{feed: feed}, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/display/stream", nil)
	w := httptest.NewRecorder()
	close(feed)

	done := make(chan struct{})
	go func() {
		h.StreamBoard(w, req)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit after the watch channel closed")
	}
	assert.Contains(t, w.Body.String(), "event: connected")
}
