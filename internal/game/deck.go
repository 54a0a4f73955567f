package game

import (
	"fmt"
	"math/rand/v2"
)

// CardDeck lists which cards may be played in a game.
type CardDeck struct {
	ShuffleTurnOrder bool `json:"ShuffleTurnOrder"`
	ReverseTurnOrder bool `json:"ReverseTurnOrder"`
	SkipNextTurn     bool `json:"SkipNextTurn"`
	// PlacingCooldown is the number of turns every card stays locked after
	// a PlacingCooldown card is played. Zero disables the card.
	PlacingCooldown int `json:"PlacingCooldown"`
}

// Validate rejects negative cooldowns.
func (d CardDeck) Validate() error {
	if d.PlacingCooldown < 0 {
		return fmt.Errorf("%w: negative placing cooldown", ErrInvalidConfiguration)
	}
	return nil
}

// Enabled reports whether the deck contains the given card kind.
func (d CardDeck) Enabled(kind CardKind) bool {
	switch kind {
	case CardShuffleTurnOrder:
		return d.ShuffleTurnOrder
	case CardReverseTurnOrder:
		return d.ReverseTurnOrder
	case CardSkipNextTurn:
		return d.SkipNextTurn
	case CardPlacingCooldown:
		return d.PlacingCooldown > 0
	}
	return false
}

// DefaultCardDeck enables every card with a four turn placing cooldown.
func DefaultCardDeck() CardDeck {
	return CardDeck{ShuffleTurnOrder: true, ReverseTurnOrder: true, SkipNextTurn: true, PlacingCooldown: 4}
}

// RandomCardDeck returns a random deck.
func RandomCardDeck() CardDeck {
	coin := func() bool { return rand.IntN(2) == 1 }
	return CardDeck{
		ShuffleTurnOrder: coin(),
		ReverseTurnOrder: coin(),
		SkipNextTurn:     coin(),
		PlacingCooldown:  rand.IntN(10),
	}
}
