package http

import (
	"net/http"
	"net/mail"
	"strings"

	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/auth"
	"debate-adjudicator/internal/schemas"
)

type registerResp struct {
	User     *schemas.User `json:"user"`
	APIToken string        `json:"apiToken"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req schemas.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	u := &schemas.User{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Username: strings.ToLower(strings.TrimSpace(req.Username)),
	}
	if u.FullName == "" || u.Email == "" || u.Username == "" {
		writeErr(w, r, apperr.New(apperr.Validation, "fullName, email and username are required"))
		return
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		writeErr(w, r, apperr.New(apperr.Validation, "invalid email address"))
		return
	}

	token := auth.NewAPIToken()
	if err := s.Store.CreateUser(r.Context(), u, auth.HashToken(token)); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResp{User: u, APIToken: token})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUserFrom(r.Context()))
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req schemas.UpdateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullName == "" || email == "" {
		writeErr(w, r, apperr.New(apperr.Validation, "all fields are required"))
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		writeErr(w, r, apperr.New(apperr.Validation, "invalid email address"))
		return
	}
	u, err := s.Store.UpdateUser(r.Context(), currentUserFrom(r.Context()).ID, fullName, email)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
