package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus-crane/mediamon/events"
	"github.com/marcus-crane/mediamon/mediactl/sim"
	"github.com/marcus-crane/mediamon/playback"
)

type routerFixture struct {
	backend *sim.Backend
	session *sim.Session
	manager *playback.Manager
	handler http.Handler
}

func newRouterFixture(t *testing.T, attach bool) *routerFixture {
	t.Helper()
	backend := sim.New()
	session := sim.NewSession("Spotify.exe")
	if attach {
		backend.Manager.Add(session)
	}
	bus := events.NewBus(events.DefaultCapacity)
	manager, err := playback.NewManager(context.Background(), backend, bus, playback.Options{TargetApp: "Spotify.exe"})
	require.NoError(t, err)
	require.NoError(t, manager.Start(context.Background()))
	t.Cleanup(manager.Close)

	stream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := RegisterRoutes(http.NewServeMux(), manager, stream, []string{"http://localhost:1420"})
	return &routerFixture{backend: backend, session: session, manager: manager, handler: handler}
}

func (f *routerFixture) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, body io.Reader) string {
	t.Helper()
	var res map[string]string
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res["message"]
}

func TestRouter_SessionStatus(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t, true)

	rec := f.do(http.MethodGet, "/api/media/session")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"appId":"Spotify.exe","sessionActive":true}`, rec.Body.String())

	f.backend.Manager.Remove(f.session)
	rec = f.do(http.MethodGet, "/api/media/session")
	assert.JSONEq(t, `{"appId":"Spotify.exe","sessionActive":false}`, rec.Body.String())
}

func TestRouter_TransportCommands(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t, true)

	for _, path := range []string{"/api/media/play", "/api/media/pause", "/api/media/next", "/api/media/previous", "/api/media/position?value=42"} {
		rec := f.do(http.MethodPost, path)
		assert.Equal(t, http.StatusAccepted, rec.Code, path)
	}

	assert.Eventually(t, func() bool { return len(f.session.Commands()) == 5 }, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"play", "pause", "next", "previous", "position:42"}, f.session.Commands())
}

func TestRouter_RejectsBadRequests(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t, true)

	rec := f.do(http.MethodGet, "/api/media/play")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = f.do(http.MethodPost, "/api/media/position?value=-3")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/media/volume?level=loud")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/media/refresh?only=everything")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodDelete, "/api/media/volume")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = f.do(http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CommandsWithoutSessionAreNoOps(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t, false)

	rec := f.do(http.MethodPost, "/api/media/play")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No media session is attached", decodeMessage(t, rec.Body))
	assert.Empty(t, f.session.Commands())
}

func TestRouter_Volume(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t, true)

	rec := f.do(http.MethodGet, "/api/media/volume")
	assert.JSONEq(t, `{"volume":-1}`, rec.Body.String())

	f.backend.Processes.Set(9, "Spotify.exe")
	audio := sim.NewAudioSession(9, 0.5)
	f.backend.Audio.Add(audio)

	rec = f.do(http.MethodPost, "/api/media/volume?level=0.25")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	level, err := audio.Volume()
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), level)

	rec = f.do(http.MethodGet, "/api/media/volume")
	assert.JSONEq(t, `{"volume":0.25}`, rec.Body.String())
}

func TestRouter_Refresh(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t, true)

	for _, query := range []string{"", "?only=media", "?only=playback", "?only=timeline"} {
		rec := f.do(http.MethodPost, "/api/media/refresh"+query)
		assert.Equal(t, http.StatusAccepted, rec.Code, query)
	}
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t, true)

	rec := f.do(http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mediamon_sessions_attached_total")
}

func TestRouter_CORS(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t, true)

	req := httptest.NewRequest(http.MethodOptions, "/api/media/play", nil)
	req.Header.Set("Origin", "http://localhost:1420")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:1420", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/media/session", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Index(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t, false)

	rec := f.do(http.MethodGet, "/")
	assert.Contains(t, rec.Body.String(), "Spotify.exe")
	assert.Equal(t, "text/html", rec.Header().Get("Content-Type"))
}
