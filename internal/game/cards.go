package game

import (
	"fmt"
	"slices"
)

// CardKind names a card. The set of kinds is closed.
type CardKind string

const (
	CardShuffleTurnOrder CardKind = "ShuffleTurnOrder"
	CardReverseTurnOrder CardKind = "ReverseTurnOrder"
	CardSkipNextTurn     CardKind = "SkipNextTurn"
	CardPlacingCooldown  CardKind = "PlacingCooldown"
)

// CardKinds lists every card kind.
var CardKinds = []CardKind{CardShuffleTurnOrder, CardReverseTurnOrder, CardSkipNextTurn, CardPlacingCooldown}

// ParseCardKind maps a wire name onto a CardKind.
func ParseCardKind(s string) (CardKind, error) {
	k := CardKind(s)
	if !slices.Contains(CardKinds, k) {
		return "", fmt.Errorf("%w: unknown card %q", ErrIllegalAction, s)
	}
	return k, nil
}

// ApplyCard plays a card on g without checking whose turn it is.
func ApplyCard(kind CardKind, g *Game) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playCardLocked(kind)
}

// PlayCard plays a card on behalf of p, who must hold the current turn.
// Playing a card does not use up the turn.
func (g *Game) PlayCard(p Player, kind CardKind) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.isCurrentLocked(p) {
		return fmt.Errorf("%w: not %s's turn", ErrIllegalAction, p.Name)
	}
	return g.playCardLocked(kind)
}

func (g *Game) playCardLocked(kind CardKind) error {
	if g.state != StateStarted {
		return fmt.Errorf("%w: cards can only be played in a started game", ErrIllegalAction)
	}
	if !g.rules.EnableCards {
		return fmt.Errorf("%w: cards are disabled", ErrIllegalAction)
	}
	if !g.deck.Enabled(kind) {
		return fmt.Errorf("%w: card %s is not in the deck", ErrIllegalAction, kind)
	}
	if g.turns < g.cardsLockedUntil {
		return fmt.Errorf("%w: cards are locked for %d more turns", ErrIllegalAction, g.cardsLockedUntil-g.turns)
	}
	if last, ok := g.lastPlayed[kind]; ok && g.turns-last < g.rules.CardPlacementCooldown {
		return fmt.Errorf("%w: card %s is cooling down for %d more turns",
			ErrIllegalAction, kind, g.rules.CardPlacementCooldown-(g.turns-last))
	}
	g.applyCardLocked(kind)
	g.lastPlayed[kind] = g.turns
	return nil
}

func (g *Game) applyCardLocked(kind CardKind) {
	switch kind {
	case CardShuffleTurnOrder:
		current := g.participants[g.currentTurn]
		g.rng.Shuffle(len(g.participants), func(i, j int) {
			g.participants[i], g.participants[j] = g.participants[j], g.participants[i]
		})
		g.currentTurn = g.indexLocked(current.Name)
	case CardReverseTurnOrder:
		slices.Reverse(g.participants)
		g.currentTurn = len(g.participants) - 1 - g.currentTurn
	case CardSkipNextTurn:
		g.skipPending++
	case CardPlacingCooldown:
		g.cardsLockedUntil = g.turns + g.deck.PlacingCooldown
	}
}
