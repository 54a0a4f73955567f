package game

import (
	"fmt"
	"math/rand/v2"
)

// Rules parameterises a game. A Rules value is never changed after the game is created.
type Rules struct {
	ShuffleTurnOrderOnStart bool `json:"shuffle_turn_order_on_start"`
	EnableChat              bool `json:"enable_chat"`
	FinishGameOnDisconnect  bool `json:"finish_game_on_disconnect"`
	FinishGameOnWin         bool `json:"finish_game_on_win"`
	AllowReconnect          bool `json:"allow_reconnect"`
	WinningRowLength        int  `json:"winning_row_length"`
	FieldHasBounds          bool `json:"field_has_bounds"`
	EnableCards             bool `json:"enable_cards"`
	EnableCheats            bool `json:"enable_cheats"`
	// NumberOfPlayers is nil when VariablePlayerCount is set.
	NumberOfPlayers       *int `json:"number_of_players"`
	StartGameIfAllReady   bool `json:"start_game_if_all_ready"`
	VariablePlayerCount   bool `json:"variable_player_count"`
	PlayFieldWidth        int  `json:"play_field_width"`
	PlayFieldHeight       int  `json:"play_field_height"`
	EnableGravity         bool `json:"enable_gravity"`
	GameIsPublic          bool `json:"game_is_public"`
	CardPlacementCooldown int  `json:"card_placement_cooldown"`
}

// MaxFieldSize bounds both play field dimensions.
const MaxFieldSize = 100

// Validate checks the invariants between rule fields.
func (r Rules) Validate() error {
	if r.WinningRowLength < 2 {
		return fmt.Errorf("%w: winning row length %d < 2", ErrInvalidConfiguration, r.WinningRowLength)
	}
	if r.PlayFieldWidth < 1 || r.PlayFieldHeight < 1 ||
		r.PlayFieldWidth > MaxFieldSize || r.PlayFieldHeight > MaxFieldSize {
		return fmt.Errorf("%w: play field %dx%d outside 1..%d", ErrInvalidConfiguration,
			r.PlayFieldWidth, r.PlayFieldHeight, MaxFieldSize)
	}
	if r.CardPlacementCooldown < 0 {
		return fmt.Errorf("%w: negative card placement cooldown", ErrInvalidConfiguration)
	}
	switch {
	case r.VariablePlayerCount && r.NumberOfPlayers != nil:
		return fmt.Errorf("%w: number of players must be unset with a variable player count", ErrInvalidConfiguration)
	case !r.VariablePlayerCount && r.NumberOfPlayers == nil:
		return fmt.Errorf("%w: number of players required with a fixed player count", ErrInvalidConfiguration)
	case r.NumberOfPlayers != nil && *r.NumberOfPlayers < 2:
		return fmt.Errorf("%w: number of players %d < 2", ErrInvalidConfiguration, *r.NumberOfPlayers)
	}
	return nil
}

// Capacity returns the fixed number of players, if there is one.
func (r Rules) Capacity() (int, bool) {
	if r.NumberOfPlayers == nil {
		return 0, false
	}
	return *r.NumberOfPlayers, true
}

// Clone returns a copy that shares no memory with r.
func (r Rules) Clone() Rules {
	if r.NumberOfPlayers != nil {
		r.NumberOfPlayers = Players(*r.NumberOfPlayers)
	}
	return r
}

// Players returns a pointer suitable for Rules.NumberOfPlayers.
func Players(n int) *int {
	return &n
}

// DefaultRules is a two player, 7x6, bounded connect four with gravity.
func DefaultRules() Rules {
	return Rules{
		ShuffleTurnOrderOnStart: true,
		EnableChat:              true,
		FinishGameOnDisconnect:  true,
		FinishGameOnWin:         true,
		AllowReconnect:          false,
		WinningRowLength:        4,
		FieldHasBounds:          true,
		EnableCards:             false,
		EnableCheats:            false,
		NumberOfPlayers:         Players(2),
		StartGameIfAllReady:     true,
		VariablePlayerCount:     false,
		PlayFieldWidth:          7,
		PlayFieldHeight:         6,
		EnableGravity:           true,
		GameIsPublic:            true,
		CardPlacementCooldown:   3,
	}
}

// RandomRules returns random rules that always pass Validate.
func RandomRules() Rules {
	coin := func() bool { return rand.IntN(2) == 1 }
	r := Rules{
		ShuffleTurnOrderOnStart: coin(),
		EnableChat:              coin(),
		FinishGameOnDisconnect:  coin(),
		FinishGameOnWin:         coin(),
		AllowReconnect:          coin(),
		WinningRowLength:        2 + rand.IntN(14),
		FieldHasBounds:          coin(),
		EnableCards:             coin(),
		EnableCheats:            coin(),
		NumberOfPlayers:         Players(2 + rand.IntN(8)),
		StartGameIfAllReady:     coin(),
		VariablePlayerCount:     coin(),
		PlayFieldWidth:          2 + rand.IntN(8),
		PlayFieldHeight:         2 + rand.IntN(8),
		EnableGravity:           coin(),
		GameIsPublic:            coin(),
		CardPlacementCooldown:   rand.IntN(10),
	}
	if !r.StartGameIfAllReady {
		r.VariablePlayerCount = false
	}
	if r.VariablePlayerCount {
		r.NumberOfPlayers = nil
	}
	return r
}
