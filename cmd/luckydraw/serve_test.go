package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahrav/go-luckydraw/infrastructure/presentation"
	"github.com/ahrav/go-luckydraw/internal/application"
	"github.com/ahrav/go-luckydraw/internal/domain"
)

func newTestServer(t *testing.T, presenterType string) (*server, *httptest.Server) {
	t.Helper()
	cfg := application.DefaultEngineConfig()
	cfg.Presenter.Type = presenterType
	cfg.Metrics.Enabled = true
	cfg.Source.FoldCase = true

	srv, err := newServer(cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_DrawLifecycle(t *testing.T) {
	_, ts := newTestServer(t, application.PresenterInstant)

	resp := doJSON(t, http.MethodPut, ts.URL+"/reels/lobby/candidates",
		candidatesRequest{Candidates: []string{"Alice", "alice", "Bob"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[reelStatus](t, resp)
	assert.Equal(t, []string{"Alice", "Bob"}, status.Candidates, "case duplicates are folded")
	assert.Equal(t, "idle", status.State)

	resp = doJSON(t, http.MethodPost, ts.URL+"/reels/lobby/draw", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decode[domain.DrawResult](t, resp)
	assert.Len(t, first.Sequence, domain.DefaultPresentationLength)
	assert.Equal(t, first.Sequence[len(first.Sequence)-1], first.Winner)
	assert.Equal(t, 1, first.PoolSize)

	resp = doJSON(t, http.MethodPost, ts.URL+"/reels/lobby/draw", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[domain.DrawResult](t, resp)
	assert.Len(t, second.Sequence, domain.DefaultPresentationLength-1)
	assert.NotEqual(t, first.Winner, second.Winner)
	assert.Equal(t, 0, second.PoolSize)

	resp = doJSON(t, http.MethodPost, ts.URL+"/reels/lobby/draw", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/reels/lobby", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status = decode[reelStatus](t, resp)
	assert.Equal(t, second.Winner, status.LastWinner)
	assert.Empty(t, status.Candidates)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/reels/lobby", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doJSON(t, http.MethodGet, ts.URL+"/reels/lobby", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_UnknownReel(t *testing.T) {
	_, ts := newTestServer(t, application.PresenterInstant)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/reels/nope"},
		{http.MethodPost, "/reels/nope/draw"},
		{http.MethodPost, "/reels/nope/reset"},
		{http.MethodDelete, "/reels/nope"},
	} {
		resp := doJSON(t, tc.method, ts.URL+tc.path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestServer_DrawMany(t *testing.T) {
	_, ts := newTestServer(t, application.PresenterInstant)

	for _, reel := range []string{"a", "b", "c"} {
		resp := doJSON(t, http.MethodPut, ts.URL+"/reels/"+reel+"/candidates",
			candidatesRequest{Candidates: []string{"X", "Y", "Z"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := doJSON(t, http.MethodPut, ts.URL+"/reels/empty/candidates", candidatesRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/reels", nil)
	assert.Equal(t, map[string][]string{"reels": {"a", "b", "c", "empty"}}, decode[map[string][]string](t, resp))

	resp = doJSON(t, http.MethodPost, ts.URL+"/draws", drawManyRequest{Reels: []string{"a", "b", "c"}, MaxConcurrency: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[drawManyResponse](t, resp)
	assert.Len(t, all.Results, 3)
	assert.Empty(t, all.Error)

	resp = doJSON(t, http.MethodPost, ts.URL+"/draws", drawManyRequest{Reels: []string{"a", "empty"}})
	require.Equal(t, http.StatusMultiStatus, resp.StatusCode)
	partial := decode[drawManyResponse](t, resp)
	assert.Contains(t, partial.Results, "a")
	assert.Contains(t, partial.Error, "empty")

	resp = doJSON(t, http.MethodPost, ts.URL+"/draws", drawManyRequest{Reels: []string{"missing"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/draws", drawManyRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/draws", drawManyRequest{Reels: []string{"b", "b"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[drawManyResponse](t, resp).Error, "duplicate")
	resp = doJSON(t, http.MethodGet, ts.URL+"/reels/b", nil)
	assert.Len(t, decode[reelStatus](t, resp).Candidates, 2, "only the first batch drew from b")
}

func TestServer_Metrics(t *testing.T) {
	_, ts := newTestServer(t, application.PresenterInstant)

	doJSON(t, http.MethodPut, ts.URL+"/reels/lobby/candidates", candidatesRequest{Candidates: []string{"A"}})
	doJSON(t, http.MethodPost, ts.URL+"/reels/lobby/draw", nil)

	resp := doJSON(t, http.MethodGet, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `luckydraw_draws_total{reel="lobby",status="success"} 1`)
	assert.Contains(t, string(body), `luckydraw_pool_size{reel="lobby"} 0`)
	assert.Contains(t, string(body), `luckydraw_presentations_total{presenter="instant",status="success"} 1`)
}

func TestServer_WebSocketReel(t *testing.T) {
	srv, ts := newTestServer(t, application.PresenterWebSocket)

	resp := doJSON(t, http.MethodPut, ts.URL+"/reels/stage/candidates",
		candidatesRequest{Candidates: []string{"Alice", "Bob", "Carol"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// No browser yet: the draw fails and the pool is untouched.
	resp = doJSON(t, http.MethodPost, ts.URL+"/reels/stage/draw", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/reels/stage/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return srv.sockets["stage"].Connected()
	}, time.Second, 10*time.Millisecond)

	spins := make(chan []string, 1)
	go func() {
		var msg presentation.SpinMessage
		if err := conn.ReadJSON(&msg); err != nil {
			close(spins)
			return
		}
		spins <- msg.Sequence
		_ = conn.WriteJSON(presentation.ClientMessage{Type: presentation.MessageSettled, Spin: msg.Spin})
	}()

	resp = doJSON(t, http.MethodPost, ts.URL+"/reels/stage/draw", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[domain.DrawResult](t, resp)

	shown, ok := <-spins
	require.True(t, ok)
	assert.Equal(t, shown, res.Sequence, "the browser sees exactly the drawn sequence")
	assert.Equal(t, shown[len(shown)-1], res.Winner)
	assert.Equal(t, 2, res.PoolSize)

	resp = doJSON(t, http.MethodGet, ts.URL+"/reels/stage", nil)
	assert.True(t, decode[reelStatus](t, resp).Attached)
}

func TestServer_AttachRequiresWebSocketPresenter(t *testing.T) {
	_, ts := newTestServer(t, application.PresenterInstant)

	resp := doJSON(t, http.MethodGet, ts.URL+"/reels/lobby/ws", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestNewServer_RejectsLocalPresenters(t *testing.T) {
	cfg := application.DefaultEngineConfig()
	srv, err := newServer(cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer srv.Close()

	_, err = srv.registry.GetOrCreate("lobby")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestServer_DeleteReleasesSocket(t *testing.T) {
	srv, ts := newTestServer(t, application.PresenterWebSocket)

	resp := doJSON(t, http.MethodPut, ts.URL+"/reels/stage/candidates", candidatesRequest{Candidates: []string{"A"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	srv.mu.Lock()
	old := srv.sockets["stage"]
	srv.mu.Unlock()
	require.NotNil(t, old)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/reels/stage", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	srv.mu.Lock()
	_, ok := srv.sockets["stage"]
	srv.mu.Unlock()
	assert.False(t, ok)

	resp = doJSON(t, http.MethodPut, ts.URL+"/reels/stage/candidates", candidatesRequest{Candidates: []string{"A"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	srv.mu.Lock()
	fresh := srv.sockets["stage"]
	srv.mu.Unlock()
	require.NotNil(t, fresh)
	assert.NotSame(t, old, fresh)
}
