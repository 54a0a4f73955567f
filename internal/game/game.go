// Package game implements the rules engine of a configurable connect-N game:
// lobby membership, turn order, move validation, win detection and cards.
package game

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"
)

// State is the lifecycle position of a game.
type State string

const (
	StateLobby    State = "LOBBY"
	StateStarted  State = "STARTED"
	StateFinished State = "FINISHED"
	StateQuit     State = "QUIT"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateQuit
}

// Game is one match. All methods are safe for concurrent use; each mutating
// call holds the game's lock for its whole duration.
type Game struct {
	mu sync.Mutex

	name      string
	slug      string
	rules     Rules
	deck      CardDeck
	createdAt time.Time
	rng       *rand.Rand

	host           string
	participants   []*Player
	initialPlayers []Player
	field          *PlayField
	state          State
	currentTurn    int

	// turns counts successful placements since the start.
	turns            int
	skipPending      int
	lastPlayed       map[CardKind]int
	cardsLockedUntil int

	winner     string
	winningRow []Point
}

// New creates a game in the lobby with host as its only participant.
func New(name string, host Player, rules Rules, deck CardDeck) (*Game, error) {
	if err := ValidateName(name); err != nil {
		return nil, fmt.Errorf("%w: game name: %v", ErrInvalidConfiguration, err)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if err := deck.Validate(); err != nil {
		return nil, err
	}
	if err := validatePlayer(host); err != nil {
		return nil, err
	}
	h := host
	return &Game{
		name:         name,
		slug:         MakeSlug(name),
		rules:        rules.Clone(),
		deck:         deck,
		createdAt:    time.Now(),
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		host:         host.Name,
		participants: []*Player{&h},
		field:        NewPlayField(rules.PlayFieldWidth, rules.PlayFieldHeight),
		state:        StateLobby,
		lastPlayed:   make(map[CardKind]int),
	}, nil
}

func validatePlayer(p Player) error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	if _, err := NewTokenStyle(p.Style.R, p.Style.G, p.Style.B, p.Style.A); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPlayer, err)
	}
	return nil
}

// Name is the display name the game was created with.
func (g *Game) Name() string { return g.name }

// Slug is the registry key derived from Name.
func (g *Game) Slug() string { return g.slug }

// Rules returns a copy of the game's rules.
func (g *Game) Rules() Rules { return g.rules.Clone() }

// CardDeck returns the enabled cards.
func (g *Game) CardDeck() CardDeck { return g.deck }

// CreatedAt is when the game was created.
func (g *Game) CreatedAt() time.Time { return g.createdAt }

// State returns the current lifecycle state.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Host returns the current host. It is unset once every player has left.
func (g *Game) Host() (Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.participantLocked(g.host)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

// Participants returns the players in turn order.
func (g *Game) Participants() []Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.participantsLocked()
}

// ParticipantCount returns the number of players currently in the game.
func (g *Game) ParticipantCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.participants)
}

// Participant looks a player up by name.
func (g *Game) Participant(name string) (Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.participantLocked(name)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

// CurrentTurn returns the index of the player to move. It is unset until the game starts.
func (g *Game) CurrentTurn() (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateLobby {
		return 0, false
	}
	return g.currentTurn, true
}

// CurrentPlayer returns the player to move in a started game.
func (g *Game) CurrentPlayer() (Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateStarted || len(g.participants) == 0 {
		return Player{}, false
	}
	return *g.participants[g.currentTurn], true
}

// InitialPlayers returns the participants as they were when the game started.
func (g *Game) InitialPlayers() []Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.initialPlayers)
}

// Winner returns the first player that completed a winning row.
func (g *Game) Winner() (string, []Point, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winner, slices.Clone(g.winningRow), g.winner != ""
}

func (g *Game) participantsLocked() []Player {
	out := make([]Player, len(g.participants))
	for i, p := range g.participants {
		out[i] = *p
	}
	return out
}

func (g *Game) indexLocked(name string) int {
	return slices.IndexFunc(g.participants, func(p *Player) bool { return p.Name == name })
}

func (g *Game) participantLocked(name string) *Player {
	if i := g.indexLocked(name); i >= 0 {
		return g.participants[i]
	}
	return nil
}

func (g *Game) isCurrentLocked(p Player) bool {
	return g.state == StateStarted && len(g.participants) > 0 && g.participants[g.currentTurn].Name == p.Name
}

// PlayerJoin adds p to the lobby, or lets an original participant back into a
// started game when reconnecting is allowed.
func (g *Game) PlayerJoin(p Player) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := validatePlayer(p); err != nil {
		return err
	}
	switch g.state {
	case StateStarted:
		if !g.rules.AllowReconnect {
			return fmt.Errorf("%w: game %s already started", ErrInvalidPlayer, g.slug)
		}
		if g.indexLocked(p.Name) >= 0 {
			return fmt.Errorf("%w: %s is already playing", ErrInvalidPlayer, p.Name)
		}
		if !slices.ContainsFunc(g.initialPlayers, p.Is) {
			return fmt.Errorf("%w: %s was not part of game %s", ErrInvalidPlayer, p.Name, g.slug)
		}
	case StateLobby:
		for _, other := range g.participants {
			if other.Name == p.Name {
				return fmt.Errorf("%w: name %q is taken", ErrInvalidPlayer, p.Name)
			}
			if !Distinguishable(other.Style, p.Style) {
				return fmt.Errorf("%w: token style too close to %s's", ErrInvalidPlayer, other.Name)
			}
		}
		if n, ok := g.rules.Capacity(); ok && len(g.participants) >= n {
			return fmt.Errorf("%w: %d of %d players", ErrLobbyFull, len(g.participants), n)
		}
	default:
		return fmt.Errorf("%w: game %s is over", ErrInvalidPlayer, g.slug)
	}
	joined := p
	g.participants = append(g.participants, &joined)
	return nil
}

// PlayerLeave removes p. An emptied game is quit; a started game finishes when
// the rules say so.
func (g *Game) PlayerLeave(p Player) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.indexLocked(p.Name)
	if i < 0 {
		return fmt.Errorf("%w: %s is not in game %s", ErrInvalidPlayer, p.Name, g.slug)
	}
	g.participants = slices.Delete(g.participants, i, i+1)

	if g.state == StateStarted && len(g.participants) > 0 {
		// keep pointing at the same player to move
		if i < g.currentTurn {
			g.currentTurn--
		}
		if g.currentTurn >= len(g.participants) {
			g.currentTurn = 0
		}
	}

	if len(g.participants) == 0 {
		g.quitLocked()
		return nil
	}
	if p.Name == g.host {
		g.host = g.participants[0].Name
	}
	if g.rules.FinishGameOnDisconnect && g.state == StateStarted {
		g.finishLocked()
	}
	return nil
}

// SetReady changes a participant's ready flag.
func (g *Game) SetReady(name string, ready bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.participantLocked(name)
	if p == nil {
		return fmt.Errorf("%w: %s is not in game %s", ErrInvalidPlayer, name, g.slug)
	}
	p.Ready = ready
	return nil
}

// StartGame moves the game out of the lobby. hostDecision lets the host start a
// fixed-size game that waits for ready players before it is full.
func (g *Game) StartGame(hostDecision bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateLobby {
		return fmt.Errorf("%w: game %s is not in the lobby", ErrIllegalAction, g.slug)
	}
	if err := g.canStartLocked(hostDecision); err != nil {
		return err
	}
	if g.rules.ShuffleTurnOrderOnStart {
		g.rng.Shuffle(len(g.participants), func(i, j int) {
			g.participants[i], g.participants[j] = g.participants[j], g.participants[i]
		})
	}
	g.state = StateStarted
	g.currentTurn = 0
	g.initialPlayers = g.participantsLocked()
	return nil
}

func (g *Game) canStartLocked(hostDecision bool) error {
	count := len(g.participants)
	capacity, fixed := g.rules.Capacity()
	notEnough := &StartError{Reason: ReasonNotEnoughPlayers}

	if g.rules.StartGameIfAllReady {
		for _, p := range g.participants {
			if !p.Ready {
				return &StartError{Reason: ReasonNotAllPlayersReady}
			}
		}
		if g.rules.VariablePlayerCount {
			if count > 1 {
				return nil
			}
			return notEnough
		}
		if (fixed && count == capacity) || hostDecision {
			return nil
		}
		return notEnough
	}
	if (fixed && count == capacity) || count > 1 {
		return nil
	}
	return notEnough
}

// PlaceToken puts a token for p at (x, y) and passes the turn on. It does not
// check for a win; see ResolveAfterPlacement.
func (g *Game) PlaceToken(p Player, x, y int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.placeLocked(p, x, y)
}

// DropToken places a token for p in the lowest free cell of column x.
func (g *Game) DropToken(p Player, x int) (Point, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	y, ok := g.field.LowestFree(x)
	if !ok {
		return Point{}, fmt.Errorf("%w: %w: column %d is full or missing", ErrIllegalAction, ErrIllegalTokenLocation, x)
	}
	if err := g.placeLocked(p, x, y); err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

func (g *Game) placeLocked(p Player, x, y int) error {
	if !g.isCurrentLocked(p) {
		return fmt.Errorf("%w: not %s's turn", ErrIllegalAction, p.Name)
	}
	if err := g.field.PlaceToken(g.rules, p.Name, x, y); err != nil {
		return fmt.Errorf("%w: %w", ErrIllegalAction, err)
	}
	g.turns++
	g.nextTurnLocked()
	return nil
}

func (g *Game) nextTurnLocked() {
	step := 1 + g.skipPending
	g.skipPending = 0
	g.currentTurn = (g.currentTurn + step) % len(g.participants)
}

// CheckForWinningRow reports a winning row owned by p, if there is one.
func (g *Game) CheckForWinningRow(p Player) ([]Point, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.field.CheckForWinningRow(g.rules, p.Name)
}

// Outcome is the result of ResolveAfterPlacement.
type Outcome struct {
	Winner   string  `json:"winner,omitempty"`
	Row      []Point `json:"winning_row,omitempty"`
	Draw     bool    `json:"draw,omitempty"`
	Finished bool    `json:"finished"`
}

// ResolveAfterPlacement checks whether p's last placement won the game and
// finishes the game on a win (when the rules say so) or on a full field.
func (g *Game) ResolveAfterPlacement(p Player) Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out Outcome
	if row, ok := g.field.CheckForWinningRow(g.rules, p.Name); ok {
		if g.winner == "" {
			g.winner, g.winningRow = p.Name, row
		}
		out.Winner, out.Row = p.Name, row
		if g.rules.FinishGameOnWin {
			g.finishLocked()
		}
	}
	if g.state == StateStarted && g.field.Full() {
		out.Draw = g.winner == ""
		g.finishLocked()
	}
	out.Finished = g.state.Terminal()
	return out
}

// RemoveToken clears a cell. Only allowed in started games with cheats enabled.
func (g *Game) RemoveToken(x, y int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.rules.EnableCheats || g.state != StateStarted {
		return fmt.Errorf("%w: cheats are disabled", ErrIllegalAction)
	}
	g.field.RemoveToken(x, y)
	return nil
}

// FinishGame ends the game. It is a no-op once the game is over.
func (g *Game) FinishGame() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.finishLocked()
}

// QuitGame abandons the game. It is a no-op once the game is over.
func (g *Game) QuitGame() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.quitLocked()
}

func (g *Game) finishLocked() {
	if !g.state.Terminal() {
		g.state = StateFinished
	}
}

func (g *Game) quitLocked() {
	if !g.state.Terminal() {
		g.state = StateQuit
	}
}
