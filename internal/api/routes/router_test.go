package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/internal/api/handlers"
	"github.com/zatekoja/clinicdesk/internal/api/routes"
	"github.com/zatekoja/clinicdesk/internal/application/views"
)

type staticBoard struct{}

func (staticBoard) Board() views.Board {
	return views.Board{NowServing: []views.QueueRow{{Token: "C-007"}}}
}

type noChanges struct{}

func (noChanges) Watch(ctx context.Context) <-chan string {
	ch := make(chan string)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}

func newHandler(origins []string) http.Handler {
	display := handlers.NewDisplayHandler("clinic-1", staticBoard{}, noChanges{}, []string{views.KeyQueue}, zerolog.Nop())
	return routes.NewRouter(display, origins, nil, zerolog.Nop()).SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	newHandler(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestRouter_BoardETag(t *testing.T) {
	h := newHandler(nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/display/board", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "C-007")
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/display/board", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestRouter_BoardGzip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/display/board", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	newHandler(nil).ServeHTTP(w, req)

	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestRouter_CORS(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    string
	}{
		{name: "wildcard", origins: nil, origin: "http://tv.local", want: "*"},
		{name: "listed origin", origins: []string{"http://tv.local"}, origin: "http://tv.local", want: "http://tv.local"},
		{name: "unlisted origin", origins: []string{"http://tv.local"}, origin: "http://evil.local", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/display/board", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			newHandler(tt.origins).ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	w := httptest.NewRecorder()
	newHandler(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/facilities", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
