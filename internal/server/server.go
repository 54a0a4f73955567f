package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fourinarow/internal/game"
	"fourinarow/internal/logger"
	"fourinarow/internal/session"
	"fourinarow/internal/storage"
)

// Server is the HTTP server.
type Server struct {
	mux      *http.ServeMux
	manager  *session.Manager
	store    *storage.Store
	validate *validator.Validate
}

// New creates a server with all routes. store serves the read-only history routes.
func New(manager *session.Manager, store *storage.Store) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		manager:  manager,
		store:    store,
		validate: validator.New(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("POST /api/games", s.handleCreateGame)
	s.mux.HandleFunc("GET /api/games/{slug}", s.handleGetGame)
	s.mux.HandleFunc("GET /api/games/{slug}/ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /api/defaults", s.handleDefaults)

	s.mux.HandleFunc("GET /api/archive/games", s.handleListArchived)
	s.mux.HandleFunc("GET /api/archive/games/{id}", s.handleGetArchived)
	s.mux.HandleFunc("GET /api/archive/games/{id}/moves", s.handleListMoves)

	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	logger.Requests().Debug("request",
		"method", r.Method,
		"path", r.URL.Path,
		"duration", time.Since(start),
	)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.List())
}

type tokenStyleRequest struct {
	Color []int `json:"color" validate:"len=4,dive,min=0,max=255"`
}

type playerRequest struct {
	Name       string             `json:"name" validate:"required,max=30"`
	TokenStyle *tokenStyleRequest `json:"token_style" validate:"omitempty"`
}

// player builds a game.Player. Without an explicit style, one distinguishable
// from existing is picked.
func (p playerRequest) player(existing []game.Player) (game.Player, error) {
	if p.TokenStyle == nil {
		styles := make([]game.TokenStyle, 0, len(existing))
		for _, e := range existing {
			styles = append(styles, e.Style)
		}
		return game.NewPlayer(p.Name, game.RandomDistinguishableStyle(styles))
	}
	style, err := game.TokenStyleFromSlice(p.TokenStyle.Color)
	if err != nil {
		return game.Player{}, err
	}
	return game.NewPlayer(p.Name, style)
}

type createGameRequest struct {
	GameName string         `json:"game_name" validate:"required,max=30"`
	Rules    *game.Rules    `json:"rules"`
	CardDeck *game.CardDeck `json:"card_deck"`
	Player   playerRequest  `json:"player"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rules := game.DefaultRules()
	if req.Rules != nil {
		rules = *req.Rules
	}
	deck := game.DefaultCardDeck()
	if req.CardDeck != nil {
		deck = *req.CardDeck
	}
	host, err := req.Player.player(nil)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	sess, err := s.manager.Create(req.GameName, host, rules, deck)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sess.Game.Snapshot())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.manager.Get(r.PathValue("slug"))
	if !ok {
		writeError(w, http.StatusNotFound, session.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.Game.Snapshot())
}

type defaultsResponse struct {
	Rules    game.Rules    `json:"rules"`
	CardDeck game.CardDeck `json:"card_deck"`
	Player   game.Player   `json:"player"`
}

// handleDefaults returns the default configuration and a random player to
// prefill a create form.
func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, defaultsResponse{
		Rules:    game.DefaultRules(),
		CardDeck: game.DefaultCardDeck(),
		Player:   game.RandomPlayer(nil),
	})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSlugTaken), errors.Is(err, game.ErrLobbyFull):
		return http.StatusConflict
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidConfiguration),
		errors.Is(err, game.ErrInvalidPlayer),
		errors.Is(err, game.ErrCannotBeStarted),
		errors.Is(err, game.ErrIllegalAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
