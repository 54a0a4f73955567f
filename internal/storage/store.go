package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// GameRow is the archived record of one game.
type GameRow struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	State     string    `json:"game_state"` // "LOBBY", "STARTED", "FINISHED", "QUIT"
	Winner    string    `json:"winner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MoveRow is one placed token.
type MoveRow struct {
	GameID    string    `json:"game_id"`
	Seq       int       `json:"seq"`
	Player    string    `json:"player"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	CreatedAt time.Time `json:"created_at"`
}

// Store archives game history in SQLite. It is never read back to restore games.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS games (
			id         TEXT PRIMARY KEY,
			slug       TEXT NOT NULL,
			name       TEXT NOT NULL,
			host       TEXT NOT NULL,
			state      TEXT NOT NULL DEFAULT 'LOBBY',
			winner     TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS games_slug ON games(slug);
		CREATE TABLE IF NOT EXISTS moves (
			game_id    TEXT NOT NULL REFERENCES games(id),
			seq        INTEGER NOT NULL,
			player     TEXT NOT NULL,
			x          INTEGER NOT NULL,
			y          INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (game_id, seq)
		);
	`)
	return err
}

// CreateGame inserts a new game record in the lobby state.
func (s *Store) CreateGame(id, slug, name, host string) error {
	_, err := s.db.Exec(
		"INSERT INTO games (id, slug, name, host, state) VALUES (?, ?, ?, ?, 'LOBBY')",
		id, slug, name, host,
	)
	return err
}

const gameColumns = "id, slug, name, host, state, winner, created_at, updated_at"

func scanGame(sc interface{ Scan(...any) error }) (*GameRow, error) {
	var g GameRow
	if err := sc.Scan(&g.ID, &g.Slug, &g.Name, &g.Host, &g.State, &g.Winner, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGame retrieves a game record by id.
func (s *Store) GetGame(id string) (*GameRow, error) {
	return scanGame(s.db.QueryRow("SELECT "+gameColumns+" FROM games WHERE id = ?", id))
}

// UpdateGame records a game's state, host and winner.
func (s *Store) UpdateGame(id, state, host, winner string) error {
	res, err := s.db.Exec(
		"UPDATE games SET state = ?, host = ?, winner = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		state, host, winner, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListGames returns all games with the given state (or all if state is empty), newest first.
func (s *Store) ListGames(state string) ([]GameRow, error) {
	var rows *sql.Rows
	var err error
	if state == "" {
		rows, err = s.db.Query("SELECT " + gameColumns + " FROM games ORDER BY created_at DESC, rowid DESC")
	} else {
		rows, err = s.db.Query("SELECT "+gameColumns+" FROM games WHERE state = ? ORDER BY created_at DESC, rowid DESC", state)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []GameRow
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *g)
	}
	return result, rows.Err()
}

// RecordMove appends a placed token to a game's history.
func (s *Store) RecordMove(gameID string, seq int, player string, x, y int) error {
	_, err := s.db.Exec(
		"INSERT INTO moves (game_id, seq, player, x, y) VALUES (?, ?, ?, ?, ?)",
		gameID, seq, player, x, y,
	)
	return err
}

// ListMoves returns a game's moves in order.
func (s *Store) ListMoves(gameID string) ([]MoveRow, error) {
	rows, err := s.db.Query("SELECT game_id, seq, player, x, y, created_at FROM moves WHERE game_id = ? ORDER BY seq", gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []MoveRow
	for rows.Next() {
		var m MoveRow
		if err := rows.Scan(&m.GameID, &m.Seq, &m.Player, &m.X, &m.Y, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
