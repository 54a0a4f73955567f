package game

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest allowed player name, in characters.
const MaxNameLength = 30

// Player is a participant. Two players with the same name are the same player.
type Player struct {
	Name  string     `json:"name"`
	Style TokenStyle `json:"token_style"`
	Ready bool       `json:"is_ready"`
}

// NewPlayer validates the name and returns a player that is not ready.
func NewPlayer(name string, style TokenStyle) (Player, error) {
	if err := ValidateName(name); err != nil {
		return Player{}, err
	}
	return Player{Name: name, Style: style}, nil
}

// ValidateName checks a player or game name: non-empty, not only whitespace, at most 30 characters.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidPlayer)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidPlayer, MaxNameLength)
	}
	return nil
}

// Is reports whether both values denote the same player.
func (p Player) Is(other Player) bool {
	return p.Name == other.Name
}

// RandomPlayer returns a player whose name and style collide with none of existing.
func RandomPlayer(existing []Player) Player {
	styles := make([]TokenStyle, 0, len(existing))
	for _, e := range existing {
		styles = append(styles, e.Style)
	}
	for {
		name := fmt.Sprintf("player no %d", 100+rand.IntN(900))
		taken := false
		for _, e := range existing {
			if e.Name == name {
				taken = true
				break
			}
		}
		if !taken {
			return Player{Name: name, Style: RandomDistinguishableStyle(styles), Ready: rand.IntN(2) == 1}
		}
	}
}
