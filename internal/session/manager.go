package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fourinarow/internal/game"
	"fourinarow/internal/logger"
	"fourinarow/internal/metrics"
	"fourinarow/internal/storage"
)

var (
	ErrSlugTaken = errors.New("a game with this name already exists")
	ErrNotFound  = errors.New("game not found")
)

// Manager is the registry of active games, keyed by slug.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    *storage.Store
}

// NewManager creates a session manager that archives into store.
func NewManager(store *storage.Store) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
	}
}

// Create builds a game and registers it under its slug.
func (m *Manager) Create(name string, host game.Player, rules game.Rules, deck game.CardDeck) (*Session, error) {
	g, err := game.New(name, host, rules, deck)
	if err != nil {
		return nil, err
	}
	s := NewSession(uuid.NewString(), g)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[g.Slug()]; exists {
		return nil, fmt.Errorf("%w: %s", ErrSlugTaken, g.Slug())
	}
	if err := m.store.CreateGame(s.ID, g.Slug(), g.Name(), host.Name); err != nil {
		return nil, fmt.Errorf("persist game: %w", err)
	}
	m.sessions[g.Slug()] = s
	metrics.GamesCreated.Inc()
	metrics.ActiveGames.Set(float64(len(m.sessions)))
	logger.Games().Info("game created", "slug", g.Slug(), "host", host.Name)
	return s, nil
}

// Get returns a session by slug.
func (m *Manager) Get(slug string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[slug]
	return s, ok
}

// Listing is the public summary of a game.
type Listing struct {
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	State        game.State `json:"game_state"`
	Participants int        `json:"participants"`
	Capacity     *int       `json:"capacity"`
	CreatedAt    time.Time  `json:"creation_time"`
}

// List returns the public games, oldest first.
func (m *Manager) List() []Listing {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	listings := make([]Listing, 0, len(sessions))
	for _, s := range sessions {
		rules := s.Game.Rules()
		if !rules.GameIsPublic {
			continue
		}
		l := Listing{
			Name:         s.Game.Name(),
			Slug:         s.Game.Slug(),
			State:        s.Game.State(),
			Participants: s.Game.ParticipantCount(),
			CreatedAt:    s.Game.CreatedAt(),
		}
		if n, ok := rules.Capacity(); ok {
			l.Capacity = &n
		}
		listings = append(listings, l)
	}
	sort.Slice(listings, func(i, j int) bool {
		if listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].Slug < listings[j].Slug
		}
		return listings[i].CreatedAt.Before(listings[j].CreatedAt)
	})
	return listings
}

// Count returns the number of registered games and their participants.
func (m *Manager) Count() (games, players int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		players += s.Game.ParticipantCount()
	}
	return len(m.sessions), players
}

// Remove unregisters a game and archives its final state.
func (m *Manager) Remove(slug string) bool {
	m.mu.Lock()
	s, ok := m.sessions[slug]
	if ok {
		delete(m.sessions, slug)
		metrics.ActiveGames.Set(float64(len(m.sessions)))
	}
	m.mu.Unlock()
	if ok {
		m.Archive(s)
	}
	return ok
}

// Archive writes a game's current state, host and winner to the store.
func (m *Manager) Archive(s *Session) {
	host, _ := s.Game.Host()
	winner, _, _ := s.Game.Winner()
	if err := m.store.UpdateGame(s.ID, string(s.Game.State()), host.Name, winner); err != nil {
		logger.Games().Warn("archive game failed", "slug", s.Slug(), "error", err)
	}
}

// RecordMove archives a placed token.
func (m *Manager) RecordMove(s *Session, player string, at game.Point) {
	metrics.TokensPlaced.Inc()
	seq := s.nextMove()
	if err := m.store.RecordMove(s.ID, seq, player, at.X, at.Y); err != nil {
		logger.Games().Warn("record move failed", "slug", s.Slug(), "seq", seq, "error", err)
	}
}

// CleanupLoop reaps empty games every interval until ctx is cancelled.
func (m *Manager) CleanupLoop(ctx context.Context, interval, grace time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanup(grace)
		}
	}
}

// cleanup removes games without a live connection that are older than grace.
// This covers emptied games as well as lobbies whose host never connected.
// Entries that disappear between the scan and the removal are skipped.
func (m *Manager) cleanup(grace time.Duration) int {
	now := time.Now()
	m.mu.RLock()
	var stale []*Session
	for _, s := range m.sessions {
		if len(s.Connected()) == 0 && now.Sub(s.Game.CreatedAt()) > grace {
			stale = append(stale, s)
		}
	}
	m.mu.RUnlock()

	reaped := 0
	for _, s := range stale {
		m.mu.Lock()
		cur, ok := m.sessions[s.Slug()]
		if !ok || cur != s {
			m.mu.Unlock()
			continue
		}
		delete(m.sessions, s.Slug())
		metrics.ActiveGames.Set(float64(len(m.sessions)))
		m.mu.Unlock()

		s.Game.QuitGame()
		m.Archive(s)
		metrics.GamesReaped.Inc()
		logger.Games().Info("reaped unconnected game", "slug", s.Slug(), "participants", s.Game.ParticipantCount())
		reaped++
	}

	games, players := m.Count()
	logger.Stats().Info(fmt.Sprintf("%d active games with %d players", games, players),
		"games", games, "players", players, "reaped", reaped)
	return reaped
}
