package game

import (
	"maps"
	"slices"
	"time"
)

// Snapshot is a read-only copy of a game for transport encoding.
type Snapshot struct {
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Rules          Rules            `json:"rules"`
	CardDeck       CardDeck         `json:"card_deck"`
	Host           string           `json:"host"`
	Participants   []Player         `json:"participants"`
	PlayField      FieldSnapshot    `json:"play_field"`
	State          State            `json:"game_state"`
	CurrentTurn    *int             `json:"current_turn"`
	InitialPlayers []Player         `json:"initial_players"`
	CreatedAt      time.Time        `json:"creation_time"`
	Turns          int              `json:"turns"`
	SkipPending    int              `json:"skip_pending,omitempty"`
	CardsPlayedAt  map[CardKind]int `json:"cards_played_at,omitempty"`
	CardsLocked    int              `json:"cards_locked_until,omitempty"`
	Winner         string           `json:"winner,omitempty"`
	WinningRow     []Point          `json:"winning_row,omitempty"`
}

// FieldSnapshot holds the owner name of every cell, indexed [y][x].
type FieldSnapshot struct {
	Width   int               `json:"width"`
	Height  int               `json:"height"`
	Cells   [][]string        `json:"cells"`
	Symbols map[string]string `json:"symbols,omitempty"`
}

// Snapshot copies the game state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		Name:           g.name,
		Slug:           g.slug,
		Rules:          g.rules.Clone(),
		CardDeck:       g.deck,
		Host:           g.host,
		Participants:   g.participantsLocked(),
		PlayField:      g.fieldSnapshotLocked(),
		State:          g.state,
		InitialPlayers: slices.Clone(g.initialPlayers),
		CreatedAt:      g.createdAt,
		Turns:          g.turns,
		SkipPending:    g.skipPending,
		CardsPlayedAt:  maps.Clone(g.lastPlayed),
		CardsLocked:    g.cardsLockedUntil,
		Winner:         g.winner,
		WinningRow:     slices.Clone(g.winningRow),
	}
	if g.state != StateLobby {
		turn := g.currentTurn
		s.CurrentTurn = &turn
	}
	return s
}

func (g *Game) fieldSnapshotLocked() FieldSnapshot {
	fs := FieldSnapshot{
		Width:   g.field.Width(),
		Height:  g.field.Height(),
		Cells:   g.field.Owners(),
		Symbols: make(map[string]string, len(g.field.symbols)),
	}
	for name, r := range g.field.symbols {
		fs.Symbols[name] = string(r)
	}
	return fs
}
