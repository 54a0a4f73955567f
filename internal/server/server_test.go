package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"fourinarow/internal/game"
	"fourinarow/internal/session"
)

func TestListGames(t *testing.T) {
	env := setupTestEnv(t)
	createGameViaAPI(t, env.ts, "public", testRules())
	private := testRules()
	private.GameIsPublic = false
	createGameViaAPI(t, env.ts, "private", private)

	resp, err := http.Get(env.ts.URL + "/api/games")
	if err != nil {
		t.Fatalf("GET /api/games: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var games []session.Listing
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected 1 public game, got %d", len(games))
	}
	if games[0].Slug != "game-public" || games[0].State != game.StateLobby || games[0].Participants != 1 {
		t.Fatalf("unexpected listing %+v", games[0])
	}
}

func TestCreateGameValid(t *testing.T) {
	env := setupTestEnv(t)
	resp := postGame(t, env.ts, createRequest("Friday Night", "alice", red, testRules()))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var snap game.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Slug != "game-friday-night" {
		t.Fatalf("expected slug game-friday-night, got %s", snap.Slug)
	}
	if snap.Host != "alice" || snap.State != game.StateLobby {
		t.Fatalf("unexpected snapshot host=%s state=%s", snap.Host, snap.State)
	}
	if snap.CurrentTurn != nil {
		t.Fatalf("expected no current turn in the lobby, got %d", *snap.CurrentTurn)
	}
	if _, ok := env.mgr.Get("game-friday-night"); !ok {
		t.Fatal("expected game to be registered")
	}
}

func TestCreateGameDefaults(t *testing.T) {
	env := setupTestEnv(t)
	// no rules, deck or token style: defaults and a random color are used
	resp := postGame(t, env.ts, map[string]any{
		"game_name": "lazy",
		"player":    map[string]any{"name": "alice"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}
	var snap game.Snapshot
	json.NewDecoder(resp.Body).Decode(&snap)
	if snap.Rules.PlayFieldWidth != 7 || snap.Rules.PlayFieldHeight != 6 {
		t.Fatalf("expected default 7x6 field, got %dx%d", snap.Rules.PlayFieldWidth, snap.Rules.PlayFieldHeight)
	}
	if snap.CardDeck != game.DefaultCardDeck() {
		t.Fatalf("expected default deck, got %+v", snap.CardDeck)
	}
}

func TestCreateGameDuplicate(t *testing.T) {
	env := setupTestEnv(t)
	createGameViaAPI(t, env.ts, "friday", testRules())

	resp := postGame(t, env.ts, createRequest("FRIDAY", "bob", blue, testRules()))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestCreateGameInvalid(t *testing.T) {
	env := setupTestEnv(t)
	badRules := testRules()
	badRules.WinningRowLength = 1
	variable := testRules()
	variable.VariablePlayerCount = true

	tests := []struct {
		name string
		body any
	}{
		{"missing name", createRequest("", "alice", red, testRules())},
		{"long name", createRequest(strings.Repeat("x", 31), "alice", red, testRules())},
		{"whitespace name", createRequest("   ", "alice", red, testRules())},
		{"missing player", createRequest("g", "", red, testRules())},
		{"short color", createRequest("g", "alice", []int{1, 2, 3}, testRules())},
		{"color out of range", createRequest("g", "alice", []int{256, 0, 0, 255}, testRules())},
		{"too transparent", createRequest("g", "alice", []int{255, 0, 0, 100}, testRules())},
		{"bad rules", createRequest("g", "alice", red, badRules)},
		{"variable count with number", createRequest("g", "alice", red, variable)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postGame(t, env.ts, tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var body map[string]string
			json.NewDecoder(resp.Body).Decode(&body)
			if body["error"] == "" {
				t.Fatal("expected error message")
			}
		})
	}
	if games, _ := env.mgr.Count(); games != 0 {
		t.Fatalf("expected no games after invalid requests, got %d", games)
	}
}

func TestCreateGameInvalidBody(t *testing.T) {
	env := setupTestEnv(t)
	resp, err := http.Post(env.ts.URL+"/api/games", "application/json", strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetGameFound(t *testing.T) {
	env := setupTestEnv(t)
	slug := createGameViaAPI(t, env.ts, "friday", testRules())

	resp, err := http.Get(env.ts.URL + "/api/games/" + slug)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var snap game.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Name != "friday" || len(snap.Participants) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.PlayField.Width != 7 || len(snap.PlayField.Cells) != 6 {
		t.Fatalf("unexpected field %dx%d", snap.PlayField.Width, len(snap.PlayField.Cells))
	}
}

func TestGetGameNotFound(t *testing.T) {
	env := setupTestEnv(t)
	resp, err := http.Get(env.ts.URL + "/api/games/nonexistent")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDefaults(t *testing.T) {
	env := setupTestEnv(t)
	resp, err := http.Get(env.ts.URL + "/api/defaults")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var body defaultsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := body.Rules.Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
	if body.Player.Name == "" {
		t.Fatal("expected a random player")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	createGameViaAPI(t, env.ts, "counted", testRules())

	resp, err := http.Get(env.ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "fourinarow_games_created_total") {
		t.Fatal("expected games created counter in metrics output")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{session.ErrSlugTaken, http.StatusConflict},
		{game.ErrLobbyFull, http.StatusConflict},
		{session.ErrNotFound, http.StatusNotFound},
		{game.ErrTooTransparent, http.StatusBadRequest},
		{&game.StartError{Reason: game.ReasonNotEnoughPlayers}, http.StatusBadRequest},
		{game.ErrIllegalTokenLocation, http.StatusInternalServerError},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
