package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"

	"debate-adjudicator/internal/adjudication"
	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/schemas"
	"debate-adjudicator/internal/storage"
	"debate-adjudicator/internal/transcript"
)

// Store is the persistence used by the handlers.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *schemas.User, tokenHash string) error
	UserByTokenHash(ctx context.Context, hash string) (*schemas.User, error)
	UpdateUser(ctx context.Context, id, fullName, email string) (*schemas.User, error)

	CreateSession(ctx context.Context, s *schemas.Session) error
	ListSessions(ctx context.Context, userID string) ([]*schemas.Session, error)
	GetSession(ctx context.Context, id string) (*schemas.Session, error)
	UpdateSession(ctx context.Context, id string, req schemas.UpdateSessionRequest) (*schemas.Session, error)
	DeleteSession(ctx context.Context, id string) error

	ListAdjudications(ctx context.Context) ([]*schemas.Adjudication, error)
	GetAdjudication(ctx context.Context, id string) (*schemas.Adjudication, error)
	UpdateAdjudication(ctx context.Context, id string, req schemas.UpdateAdjudicationRequest) (*schemas.Adjudication, error)
	DeleteAdjudication(ctx context.Context, id string) error

	Progress(ctx context.Context, userID string) (*schemas.Gamification, error)
	AddXP(ctx context.Context, userID string, xp int) (*schemas.Gamification, error)
	SetXP(ctx context.Context, userID string, xp int) (*schemas.Gamification, error)
	Leaderboard(ctx context.Context, limit int) ([]schemas.LeaderboardEntry, error)
}

// Adjudicator runs the adjudication pipeline.
type Adjudicator interface {
	FromSession(ctx context.Context, sessionID, adjudicatorID string) (*schemas.Adjudication, error)
	FromUpload(ctx context.Context, src io.Reader, u transcript.Upload, form adjudication.UploadForm, adjudicatorID string) (*schemas.Adjudication, error)
	SessionTranscript(ctx context.Context, sessionID, ownerID string) (*schemas.Session, string, error)
}

type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type TranscriptArchive interface {
	GetTranscript(ctx context.Context, ref string) (*storage.Object, error)
}

type SpeechWriter interface {
	Speech(ctx context.Context, sess *schemas.Session, speakerRole string) (string, error)
	POI(ctx context.Context, req schemas.GeneratePOIRequest) (string, error)
}

// Server holds the handler dependencies. Queue and Archive are optional.
type Server struct {
	Store       Store
	Adjudicator Adjudicator
	Writer      SpeechWriter
	Queue       Enqueuer
	Archive     TranscriptArchive
}

func NewServer(addr string, s *Server) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(m.RequestID, m.RealIP, m.Logger, m.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.Store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "db error"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/register", s.register)

		r.Group(func(r chi.Router) {
			r.Use(s.RequireUser)

			r.Get("/users/current-user", s.currentUser)
			r.Patch("/users/update-account", s.updateAccount)

			r.Route("/debates", func(r chi.Router) {
				r.Post("/", s.createSession)
				r.Get("/", s.listSessions)
				r.Post("/generate-speech", s.generateSpeech)
				r.Post("/generate-poi", s.generatePOI)
				r.Get("/{id}", s.getSession)
				r.Patch("/{id}", s.updateSession)
				r.Delete("/{id}", s.deleteSession)
			})

			r.Route("/adjudications", func(r chi.Router) {
				r.Post("/", s.createAdjudication)
				r.Post("/upload", s.createAdjudicationFromUpload)
				r.Post("/async", s.enqueueAdjudication)
				r.Get("/", s.listAdjudications)
				r.Get("/{id}", s.getAdjudication)
				r.Put("/{id}", s.updateAdjudication)
				r.Delete("/{id}", s.deleteAdjudication)
				r.Get("/{id}/transcript", s.getTranscript)
			})

			r.Route("/gamification", func(r chi.Router) {
				r.Get("/", s.getProgress)
				r.Post("/add-xp", s.addXP)
				r.Post("/set-xp", s.setXP)
				r.Get("/levels", s.levels)
				r.Get("/leaderboard", s.leaderboard)
			})
		})
	})

	return r
}

type errResp struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps err to a status through its apperr kind. Unclassified
// errors are logged and reported without detail.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	msg := err.Error()
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", m.GetReqID(r.Context()), "error", err)
		msg = "internal server error"
	} else if kind.Status() >= 500 {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", m.GetReqID(r.Context()), "kind", kind.String(), "error", err)
	}
	writeJSON(w, kind.Status(), errResp{Error: msg, Kind: kind.String()})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(apperr.Validation, err, "invalid JSON body")
	}
	return nil
}
