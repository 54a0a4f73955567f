package game

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
)

// MinAlpha is the lowest alpha value a token may have (exclusive).
const MinAlpha = 124

// distinguishThreshold is the summed per-channel distance two styles must exceed.
const distinguishThreshold = 4 * 30

// TokenStyle is the RGBA color of a player's tokens.
type TokenStyle struct {
	R, G, B, A int
}

// NewTokenStyle validates the channels and returns the style.
func NewTokenStyle(r, g, b, a int) (TokenStyle, error) {
	for _, v := range [...]int{r, g, b, a} {
		if v < 0 || v > 255 {
			return TokenStyle{}, fmt.Errorf("%w: (%d, %d, %d, %d)", ErrOutOfRange, r, g, b, a)
		}
	}
	if a <= MinAlpha {
		return TokenStyle{}, fmt.Errorf("%w: alpha %d", ErrTooTransparent, a)
	}
	return TokenStyle{R: r, G: g, B: b, A: a}, nil
}

type tokenStyleJSON struct {
	Color []int `json:"color"`
}

// MarshalJSON encodes the style as {"color": [r, g, b, a]}.
func (s TokenStyle) MarshalJSON() ([]byte, error) {
	return json.Marshal(tokenStyleJSON{Color: s.Color()})
}

// UnmarshalJSON decodes and validates {"color": [r, g, b, a]}.
func (s *TokenStyle) UnmarshalJSON(data []byte) error {
	var v tokenStyleJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	style, err := TokenStyleFromSlice(v.Color)
	if err != nil {
		return err
	}
	*s = style
	return nil
}

// TokenStyleFromSlice builds a style from a 4-element color slice as sent on the wire.
func TokenStyleFromSlice(color []int) (TokenStyle, error) {
	if len(color) != 4 {
		return TokenStyle{}, fmt.Errorf("%w: color needs 4 channels, got %d", ErrInvalidConfiguration, len(color))
	}
	return NewTokenStyle(color[0], color[1], color[2], color[3])
}

// Color returns the style as an RGBA slice.
func (s TokenStyle) Color() []int {
	return []int{s.R, s.G, s.B, s.A}
}

// Distinguishable reports whether two styles are far enough apart to tell apart on the board.
func Distinguishable(a, b TokenStyle) bool {
	d := absDiff(a.R, b.R) + absDiff(a.G, b.G) + absDiff(a.B, b.B) + absDiff(a.A, b.A)
	return d > distinguishThreshold
}

// Equal reports whether the styles are indistinguishable.
func (s TokenStyle) Equal(other TokenStyle) bool {
	return !Distinguishable(s, other)
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// DefaultTokenStyle is an opaque red.
func DefaultTokenStyle() TokenStyle {
	return TokenStyle{R: 255, G: 3, B: 5, A: 255}
}

// RandomTokenStyle returns a random visible style.
func RandomTokenStyle() TokenStyle {
	return TokenStyle{
		R: rand.IntN(256),
		G: rand.IntN(256),
		B: rand.IntN(256),
		A: MinAlpha + 1 + rand.IntN(255-MinAlpha),
	}
}

// RandomDistinguishableStyle draws random styles until one is distinguishable from all of existing.
func RandomDistinguishableStyle(existing []TokenStyle) TokenStyle {
	for {
		s := RandomTokenStyle()
		ok := true
		for _, e := range existing {
			if !Distinguishable(s, e) {
				ok = false
				break
			}
		}
		if ok {
			return s
		}
	}
}
