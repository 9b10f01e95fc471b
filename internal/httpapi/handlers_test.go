package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/crowd-maze/internal/engine"
	"github.com/DoyleJ11/crowd-maze/internal/hub"
	"github.com/DoyleJ11/crowd-maze/internal/maze"
	"github.com/DoyleJ11/crowd-maze/internal/session"
	"github.com/DoyleJ11/crowd-maze/internal/types"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, _ := newTestServerWithHub(t)
	return srv
}

func newTestServerWithHub(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	seeds := rand.New(rand.NewSource(42))
	cfg := hub.Config{
		NewMachine: func() (*engine.Machine, error) {
			rng := rand.New(rand.NewSource(seeds.Int63()))
			gen, err := maze.NewGenerator(maze.Config{Width: 5, Height: 4, MinGoalDistance: 1, MaxGoalDistance: 20}, rng)
			if err != nil {
				return nil, err
			}
			return engine.NewMachine(engine.DefaultConfig(), gen, rng)
		},
		Session: session.DefaultConfig(),
	}
	cfg.Session.TickInterval = 0 // snapshots only change when a test asks
	h := hub.NewHub(ctx, cfg, zap.NewNop())

	srv := httptest.NewServer(SetupRoutes(h, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, h
}

func putSession(t *testing.T, srv *httptest.Server, code string) (int, types.CreateSessionResponse) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/sessions/"+code, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body types.CreateSessionResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body types.CreateSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Code, codeLength)
	return body.Code
}

func getView(t *testing.T, srv *httptest.Server, code string) session.View {
	t.Helper()
	resp, err := http.Get(srv.URL + "/sessions/" + code)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var v session.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// pending is safe to call from assert.Eventually: it reports -1 instead of
// failing the test.
func pending(srv *httptest.Server, code string) int {
	resp, err := http.Get(srv.URL + "/sessions/" + code)
	if err != nil {
		return -1
	}
	defer resp.Body.Close()
	var v session.View
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return -1
	}
	return v.Pending
}

func postChat(t *testing.T, srv *httptest.Server, code, body string) int {
	t.Helper()
	resp, err := http.Post(srv.URL+"/sessions/"+code+"/chat", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode()
	require.NoError(t, err)
	assert.Len(t, code, codeLength)
	assert.Equal(t, strings.ToUpper(code), code)
}

func TestCreateAndGetSession(t *testing.T) {
	srv := newTestServer(t)
	code := createSession(t, srv)

	v := getView(t, srv, code)
	assert.Equal(t, code, v.Code)
	assert.Equal(t, engine.StateWaitingForVotes, v.Game.State)
	assert.Equal(t, 1, v.Game.Round)
	assert.Nil(t, v.Game.Map.Goal, "goal is hidden by default")

	resp, err := http.Get(srv.URL + "/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list types.ListSessionsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	if diff := cmp.Diff(types.ListSessionsResponse{Codes: []string{code}}, list); diff != "" {
		t.Fatalf("session list mismatch (-want +got):\n%s", diff)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/sessions/NOPE00")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostChat(t *testing.T) {
	srv := newTestServer(t)
	code := createSession(t, srv)

	assert.Equal(t, http.StatusAccepted, postChat(t, srv, code, `{"sender_id":"alice","text":"left please"}`))
	assert.Equal(t, http.StatusBadRequest, postChat(t, srv, code, `{"text":"up"}`))
	assert.Equal(t, http.StatusBadRequest, postChat(t, srv, code, `not json`))
	assert.Equal(t, http.StatusNotFound, postChat(t, srv, "NOPE00", `{"sender_id":"a","text":"up"}`))

	v := getView(t, srv, code)
	assert.Equal(t, 1, v.Pending)
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t)
	code := createSession(t, srv)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/"+code, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/sessions/" + code)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebsocket_StreamsSnapshotsAndAcceptsChat(t *testing.T) {
	srv := newTestServer(t)
	code := createSession(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?code=" + code
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "StateSnapshot", msg.Type)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, engine.StateWaitingForVotes, msg.Snapshot.Game.State)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"Chat","text":"up"}`)))
	assert.Eventually(t, func() bool {
		return pending(srv, code) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"Shout"}`)))
	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "Error", msg.Type)
	assert.Equal(t, "unknown type", msg.Error)
}

func TestWebsocket_RejectsUnknownSession(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ws?code=NOPE00")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEnsureSession(t *testing.T) {
	srv := newTestServer(t)

	status, body := putSession(t, srv, "chan01")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "CHAN01", body.Code)

	assert.Equal(t, http.StatusAccepted, postChat(t, srv, "CHAN01", `{"sender_id":"alice","text":"up"}`))

	// A second PUT reuses the running session instead of replacing it.
	status, _ = putSession(t, srv, "CHAN01")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, getView(t, srv, "CHAN01").Pending)

	status, _ = putSession(t, srv, "toolong1")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = putSession(t, srv, "AB-12!")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRequestsAfterHubShutdown(t *testing.T) {
	srv, h := newTestServerWithHub(t)
	code := createSession(t, srv)

	done := make(chan error, 1)
	h.Inbox() <- hub.ShutdownHub{Reply: done}
	require.NoError(t, <-done)
	<-h.Done()

	client := &http.Client{Timeout: 2 * time.Second}
	for _, path := range []string{"/sessions", "/sessions/" + code, "/ws?code=" + code} {
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err, path)
		resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
	}

	resp, err := client.Post(srv.URL+"/sessions", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
