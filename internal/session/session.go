package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"fourinarow/internal/game"
)

// Conn is one websocket connection bound to a player name.
type Conn struct {
	ID   string
	Name string
	Send chan []byte // outbound messages
}

// Session is one registered game together with its live connections.
type Session struct {
	ID   string // archive record id
	Game *game.Game

	mu    sync.RWMutex
	conns map[string]*Conn
	moves int
}

// NewSession wraps g with an empty connection roster.
func NewSession(id string, g *game.Game) *Session {
	return &Session{
		ID:    id,
		Game:  g,
		conns: make(map[string]*Conn),
	}
}

// Slug is the registry key of the session's game.
func (s *Session) Slug() string { return s.Game.Slug() }

// Join attaches a connection for p. A participant without a live connection
// (the host right after creation) is claimed; anyone else goes through the
// game's join rules.
func (s *Session) Join(p game.Player) (*Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conns[p.Name]; ok {
		return nil, fmt.Errorf("%w: %s is already connected", game.ErrInvalidPlayer, p.Name)
	}
	if _, ok := s.Game.Participant(p.Name); !ok {
		if err := s.Game.PlayerJoin(p); err != nil {
			return nil, err
		}
	}
	c := &Conn{
		ID:   uuid.NewString(),
		Name: p.Name,
		Send: make(chan []byte, 64),
	}
	s.conns[p.Name] = c
	return c, nil
}

// Leave detaches c and removes its player from the game. Leaving twice is a
// no-op.
func (s *Session) Leave(c *Conn) error {
	s.mu.Lock()
	cur, ok := s.conns[c.Name]
	if !ok || cur.ID != c.ID {
		s.mu.Unlock()
		return nil
	}
	delete(s.conns, c.Name)
	close(c.Send)
	s.mu.Unlock()

	if _, ok := s.Game.Participant(c.Name); !ok {
		return nil
	}
	return s.Game.PlayerLeave(game.Player{Name: c.Name})
}

// Connected returns the names with a live connection.
func (s *Session) Connected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.conns))
	for name := range s.conns {
		names = append(names, name)
	}
	return names
}

// Broadcast sends a message to all connected players.
func (s *Session) Broadcast(msg []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conns {
		select {
		case c.Send <- msg:
		default:
			// drop message if buffer full
		}
	}
}

func (s *Session) nextMove() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves++
	return s.moves
}
