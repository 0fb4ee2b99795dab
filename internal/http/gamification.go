package http

import (
	"net/http"

	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/gamification"
	"debate-adjudicator/internal/schemas"
)

const leaderboardSize = 5

func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	g, err := s.Store.Progress(r.Context(), currentUserFrom(r.Context()).ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) addXP(w http.ResponseWriter, r *http.Request) {
	var req schemas.AddXPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.XP <= 0 {
		writeErr(w, r, apperr.New(apperr.Validation, "xp must be a positive number"))
		return
	}
	g, err := s.Store.AddXP(r.Context(), currentUserFrom(r.Context()).ID, req.XP)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) setXP(w http.ResponseWriter, r *http.Request) {
	var req schemas.SetXPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.UserID == "" || req.XP < 0 {
		writeErr(w, r, apperr.New(apperr.Validation, "userId and a non-negative xp are required"))
		return
	}
	g, err := s.Store.SetXP(r.Context(), req.UserID, req.XP)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) levels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, gamification.Levels)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Store.Leaderboard(r.Context(), leaderboardSize)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
