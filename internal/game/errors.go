package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned when Rules, CardDeck or TokenStyle values are malformed.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrOutOfRange           = fmt.Errorf("%w: color channel out of range", ErrInvalidConfiguration)
	ErrTooTransparent       = fmt.Errorf("%w: alpha channel too low", ErrInvalidConfiguration)

	ErrInvalidPlayer        = errors.New("invalid player")
	ErrLobbyFull            = errors.New("lobby is full")
	ErrCannotBeStarted      = errors.New("game cannot be started")
	ErrIllegalAction        = errors.New("illegal action")
	ErrIllegalTokenLocation = errors.New("illegal token location")
)

// Reason explains why a game could not be started.
type Reason string

const (
	ReasonNotEnoughPlayers   Reason = "not_enough_players"
	ReasonNotAllPlayersReady Reason = "not_all_players_ready"
)

// StartError is returned by StartGame. It matches ErrCannotBeStarted.
type StartError struct {
	Reason Reason
}

func (e *StartError) Error() string {
	return fmt.Sprintf("game cannot be started: %s", e.Reason)
}

func (e *StartError) Unwrap() error { return ErrCannotBeStarted }
