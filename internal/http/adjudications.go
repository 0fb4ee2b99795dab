package http

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"debate-adjudicator/internal/adjudication"
	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/schemas"
	"debate-adjudicator/internal/transcript"
	"debate-adjudicator/internal/worker"
)

// multipart overhead allowed on top of the file itself
const formSlack = 1 << 20

func (s *Server) createAdjudication(w http.ResponseWriter, r *http.Request) {
	var req schemas.CreateAdjudicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.SessionID == "" {
		writeErr(w, r, apperr.New(apperr.Validation, "sessionId is required"))
		return
	}
	rec, err := s.Adjudicator.FromSession(r.Context(), req.SessionID, currentUserFrom(r.Context()).ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) createAdjudicationFromUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, transcript.MaxUploadSize+formSlack)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeErr(w, r, apperr.New(apperr.Validation, "file size too large; maximum size is 10MB"))
			return
		}
		writeErr(w, r, apperr.Wrap(apperr.Validation, err, "invalid multipart form"))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("failed to remove multipart temp files", "error", err)
		}
	}()

	file, header, err := r.FormFile("transcript")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeErr(w, r, apperr.New(apperr.Validation, `no file uploaded; attach it to the "transcript" field`))
			return
		}
		writeErr(w, r, apperr.Wrap(apperr.Validation, err, "read uploaded file"))
		return
	}
	defer file.Close()

	upload := transcript.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	form := adjudication.UploadForm{
		FormatName: r.FormValue("formatName"),
		Motion:     r.FormValue("motion"),
		Teams:      r.FormValue("teams"),
	}
	rec, err := s.Adjudicator.FromUpload(r.Context(), file, upload, form, currentUserFrom(r.Context()).ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

type enqueuedResp struct {
	TaskID    string `json:"taskId"`
	SessionID string `json:"sessionId"`
}

// enqueueAdjudication validates the session transcript up front, then hands
// the run to the worker.
func (s *Server) enqueueAdjudication(w http.ResponseWriter, r *http.Request) {
	if s.Queue == nil {
		writeErr(w, r, apperr.New(apperr.UpstreamUnavailable, "background adjudication is not configured"))
		return
	}
	var req schemas.CreateAdjudicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.SessionID == "" {
		writeErr(w, r, apperr.New(apperr.Validation, "sessionId is required"))
		return
	}
	userID := currentUserFrom(r.Context()).ID
	if _, _, err := s.Adjudicator.SessionTranscript(r.Context(), req.SessionID, userID); err != nil {
		writeErr(w, r, err)
		return
	}
	task, err := worker.NewAdjudicationTask(req.SessionID, userID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	info, err := s.Queue.Enqueue(task, asynq.MaxRetry(0))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, enqueuedResp{TaskID: info.ID, SessionID: req.SessionID})
}

func (s *Server) listAdjudications(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Store.ListAdjudications(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) getAdjudication(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Store.GetAdjudication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) updateAdjudication(w http.ResponseWriter, r *http.Request) {
	var req schemas.UpdateAdjudicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	// Edited documents obey the same bounds as generated ones.
	adjudication.NormalizeScorecard(req.Scorecard)
	adjudication.NormalizeChainOfThought(req.ChainOfThought)
	adjudication.NormalizeDetailedFeedback(req.DetailedFeedback)

	rec, err := s.Store.UpdateAdjudication(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteAdjudication(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DeleteAdjudication(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// getTranscript streams the archived upload behind an adjudication.
func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Store.GetAdjudication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if rec.TranscriptRef == "" || s.Archive == nil {
		writeErr(w, r, apperr.New(apperr.NotFound, "no archived transcript for this adjudication"))
		return
	}
	obj, err := s.Archive.GetTranscript(r.Context(), rec.TranscriptRef)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	defer obj.Body.Close()

	ct := obj.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	if obj.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
	}
	if rec.OriginalFileName != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": rec.OriginalFileName}))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.Warn("transcript download interrupted", "id", rec.ID, "error", err)
	}
}
