package server

import (
	"database/sql"
	"errors"
	"net/http"

	"fourinarow/internal/game"
	"fourinarow/internal/logger"
	"fourinarow/internal/storage"
)

func (s *Server) handleListArchived(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	switch game.State(state) {
	case "", game.StateLobby, game.StateStarted, game.StateFinished, game.StateQuit:
	default:
		writeError(w, http.StatusBadRequest, "unknown state "+state)
		return
	}
	rows, err := s.store.ListGames(state)
	if err != nil {
		s.archiveError(w, err)
		return
	}
	if rows == nil {
		rows = []storage.GameRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetArchived(w http.ResponseWriter, r *http.Request) {
	row, err := s.store.GetGame(r.PathValue("id"))
	if err != nil {
		s.archiveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleListMoves(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetGame(id); err != nil {
		s.archiveError(w, err)
		return
	}
	moves, err := s.store.ListMoves(id)
	if err != nil {
		s.archiveError(w, err)
		return
	}
	if moves == nil {
		moves = []storage.MoveRow{}
	}
	writeJSON(w, http.StatusOK, moves)
}

func (s *Server) archiveError(w http.ResponseWriter, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "archived game not found")
		return
	}
	logger.Requests().Error("archive query", "error", err)
	writeError(w, http.StatusInternalServerError, "archive unavailable")
}
