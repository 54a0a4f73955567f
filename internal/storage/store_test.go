package storage

import (
	"database/sql"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateGame(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateGame("id-1", "game-friday", "friday", "alice"); err != nil {
		t.Fatalf("create game: %v", err)
	}
	// Duplicate id should error
	if err := s.CreateGame("id-1", "game-friday", "friday", "alice"); err == nil {
		t.Fatal("expected error on duplicate id")
	}
	// The same slug may be archived again once the first game is gone
	if err := s.CreateGame("id-2", "game-friday", "friday", "bob"); err != nil {
		t.Fatalf("create game with reused slug: %v", err)
	}
}

func TestGetGame(t *testing.T) {
	s := newTestStore(t)
	s.CreateGame("id-1", "game-friday", "friday", "alice")

	row, err := s.GetGame("id-1")
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if row.Slug != "game-friday" {
		t.Fatalf("expected slug game-friday, got %s", row.Slug)
	}
	if row.Host != "alice" {
		t.Fatalf("expected host alice, got %s", row.Host)
	}
	if row.State != "LOBBY" {
		t.Fatalf("expected state LOBBY, got %s", row.State)
	}
	if row.Winner != "" {
		t.Fatalf("expected no winner, got %s", row.Winner)
	}
	if row.CreatedAt.IsZero() {
		t.Fatal("expected non-zero CreatedAt")
	}
}

func TestGetGameNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetGame("nonexistent")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdateGame(t *testing.T) {
	s := newTestStore(t)
	s.CreateGame("id-1", "game-friday", "friday", "alice")

	if err := s.UpdateGame("id-1", "FINISHED", "bob", "bob"); err != nil {
		t.Fatalf("update: %v", err)
	}
	row, _ := s.GetGame("id-1")
	if row.State != "FINISHED" {
		t.Fatalf("expected FINISHED, got %s", row.State)
	}
	if row.Host != "bob" || row.Winner != "bob" {
		t.Fatalf("expected host and winner bob, got %s/%s", row.Host, row.Winner)
	}
}

func TestUpdateGameNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpdateGame("missing", "QUIT", "", ""); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestListGames(t *testing.T) {
	s := newTestStore(t)
	s.CreateGame("a", "game-a", "a", "alice")
	s.CreateGame("b", "game-b", "b", "bob")
	s.CreateGame("c", "game-c", "c", "carol")
	s.UpdateGame("c", "QUIT", "carol", "")

	lobby, err := s.ListGames("LOBBY")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lobby) != 2 {
		t.Fatalf("expected 2 lobby games, got %d", len(lobby))
	}

	all, err := s.ListGames("")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 games, got %d", len(all))
	}
}

func TestRecordAndListMoves(t *testing.T) {
	s := newTestStore(t)
	s.CreateGame("id-1", "game-friday", "friday", "alice")

	moves := []struct {
		player string
		x, y   int
	}{
		{"alice", 3, 0},
		{"bob", 3, 1},
		{"alice", 4, 0},
	}
	for i, m := range moves {
		if err := s.RecordMove("id-1", i+1, m.player, m.x, m.y); err != nil {
			t.Fatalf("record move %d: %v", i+1, err)
		}
	}
	// Same sequence number twice should error
	if err := s.RecordMove("id-1", 1, "bob", 0, 0); err == nil {
		t.Fatal("expected error on duplicate seq")
	}

	got, err := s.ListMoves("id-1")
	if err != nil {
		t.Fatalf("list moves: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 moves, got %d", len(got))
	}
	for i, m := range got {
		if m.Seq != i+1 || m.Player != moves[i].player || m.X != moves[i].x || m.Y != moves[i].y {
			t.Fatalf("move %d mismatch: %+v", i, m)
		}
	}
}
