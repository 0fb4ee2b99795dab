package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/debate"
	"debate-adjudicator/internal/schemas"
)

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req schemas.CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.Title == "" || req.DebateType == "" || req.Motion == "" || req.UserRole == "" {
		writeErr(w, r, apperr.New(apperr.Validation, "title, debateType, motion, and userRole are required"))
		return
	}
	u := currentUserFrom(r.Context())
	participants, err := debate.Participants(req.DebateType, req.UserRole, u.FullName)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	sess := &schemas.Session{
		Title:        req.Title,
		DebateType:   req.DebateType,
		Motion:       req.Motion,
		UserID:       u.ID,
		UserRole:     req.UserRole,
		Participants: participants,
		Status:       debate.StatusPrep,
	}
	if err := s.Store.CreateSession(r.Context(), sess); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.Store.ListSessions(r.Context(), currentUserFrom(r.Context()).ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// ownSession loads the session named in the URL and hides other users'
// sessions behind a not-found.
func (s *Server) ownSession(r *http.Request, id string) (*schemas.Session, error) {
	sess, err := s.Store.GetSession(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != currentUserFrom(r.Context()).ID {
		return nil, apperr.New(apperr.NotFound, "debate session not found")
	}
	return sess, nil
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ownSession(r, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) updateSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req schemas.UpdateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.Status != nil && !debate.ValidStatus(*req.Status) {
		writeErr(w, r, apperr.New(apperr.Validation, "status must be one of prep, ongoing, completed"))
		return
	}
	if _, err := s.ownSession(r, id); err != nil {
		writeErr(w, r, err)
		return
	}
	sess, err := s.Store.UpdateSession(r.Context(), id, req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.ownSession(r, id); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := s.Store.DeleteSession(r.Context(), id); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) generateSpeech(w http.ResponseWriter, r *http.Request) {
	var req schemas.GenerateSpeechRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.SessionID == "" || req.SpeakerRole == "" {
		writeErr(w, r, apperr.New(apperr.Validation, "sessionId and speakerRole are required"))
		return
	}
	sess, err := s.ownSession(r, req.SessionID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	text, err := s.Writer.Speech(r.Context(), sess, req.SpeakerRole)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) generatePOI(w http.ResponseWriter, r *http.Request) {
	var req schemas.GeneratePOIRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	poi, err := s.Writer.POI(r.Context(), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"poi": poi})
}
