package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"fourinarow/internal/game"
	"fourinarow/internal/session"
	"fourinarow/internal/storage"
)

var (
	red  = []int{255, 0, 0, 255}
	blue = []int{0, 0, 255, 255}
)

// --- Test environment ---

type testEnv struct {
	ts    *httptest.Server
	mgr   *session.Manager
	store *storage.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mgr := session.NewManager(store)
	ts := httptest.NewServer(New(mgr, store))
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, mgr: mgr, store: store}
}

// testRules is a two player 7x6 connect four with a fixed turn order.
func testRules() game.Rules {
	r := game.DefaultRules()
	r.ShuffleTurnOrderOnStart = false
	r.StartGameIfAllReady = false
	r.FinishGameOnDisconnect = false
	return r
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- REST API helpers ---

func postGame(t *testing.T, ts *httptest.Server, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(ts.URL+"/api/games", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return resp
}

func createRequest(name, host string, color []int, rules game.Rules) createGameRequest {
	return createGameRequest{
		GameName: name,
		Rules:    &rules,
		Player:   playerRequest{Name: host, TokenStyle: &tokenStyleRequest{Color: color}},
	}
}

// createGameViaAPI creates a game hosted by alice and returns its slug.
func createGameViaAPI(t *testing.T, ts *httptest.Server, name string, rules game.Rules) string {
	t.Helper()
	resp := postGame(t, ts, createRequest(name, "alice", red, rules))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var snap game.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return snap.Slug
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server, slug string) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/games/" + slug + "/ws"
}

func wsDial(t *testing.T, ts *httptest.Server, slug string) *websocket.Conn {
	t.Helper()
	ctx, cancel := timeoutCtx(t)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(ts, slug), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

// wsJoin dials, joins as name and waits for the first state that lists name.
func wsJoin(t *testing.T, ts *httptest.Server, slug, name string, color []int) *websocket.Conn {
	t.Helper()
	conn := wsDial(t, ts, slug)
	ctx, cancel := timeoutCtx(t)
	defer cancel()
	wsSend(ctx, t, conn, joinMsg(name, color))
	waitState(ctx, t, conn, func(s game.Snapshot) bool { return hasParticipant(s, name) })
	return conn
}

// wsSend marshals and writes a typed message, calling t.Fatal on error.
func wsSend(ctx context.Context, t *testing.T, conn *websocket.Conn, msg WSMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal ws message: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

// wsRead reads and unmarshals a WebSocket message, calling t.Fatal on error.
func wsRead(ctx context.Context, t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v", err)
	}
	return msg
}

func msgOf(msgType string, payload any) WSMessage {
	p, _ := json.Marshal(payload)
	return WSMessage{Type: msgType, Payload: p}
}

func joinMsg(name string, color []int) WSMessage {
	return msgOf("join", joinPayload{Player: playerRequest{Name: name, TokenStyle: &tokenStyleRequest{Color: color}}})
}

func dropMsg(x int) WSMessage {
	return msgOf("place", placePayload{X: x})
}

// waitType skips messages until one of msgType arrives.
func waitType(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string) WSMessage {
	t.Helper()
	for {
		msg := wsRead(ctx, t, conn)
		if msg.Type == msgType {
			return msg
		}
	}
}

// waitState reads state messages until one satisfies ok.
func waitState(ctx context.Context, t *testing.T, conn *websocket.Conn, ok func(game.Snapshot) bool) game.Snapshot {
	t.Helper()
	for {
		msg := waitType(ctx, t, conn, "state")
		var snap game.Snapshot
		if err := json.Unmarshal(msg.Payload, &snap); err != nil {
			t.Fatalf("unmarshal state payload: %v", err)
		}
		if ok(snap) {
			return snap
		}
	}
}

// readError skips to the next error message and returns its text.
func readError(ctx context.Context, t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	msg := waitType(ctx, t, conn, "error")
	var ep errorPayload
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return ep.Message
}

func hasParticipant(s game.Snapshot, name string) bool {
	for _, p := range s.Participants {
		if p.Name == name {
			return true
		}
	}
	return false
}

func inState(state game.State) func(game.Snapshot) bool {
	return func(s game.Snapshot) bool { return s.State == state }
}

// startedGame creates a game, connects alice and bob and starts it.
func startedGame(t *testing.T, env *testEnv, rules game.Rules) (slug string, alice, bob *websocket.Conn) {
	t.Helper()
	slug = createGameViaAPI(t, env.ts, "match", rules)
	alice = wsJoin(t, env.ts, slug, "alice", red)
	bob = wsJoin(t, env.ts, slug, "bob", blue)

	ctx, cancel := timeoutCtx(t)
	defer cancel()
	wsSend(ctx, t, alice, msgOf("start", startPayload{}))
	waitState(ctx, t, alice, inState(game.StateStarted))
	waitState(ctx, t, bob, inState(game.StateStarted))
	return slug, alice, bob
}
