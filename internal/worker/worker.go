package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"debate-adjudicator/internal/schemas"
)

// TypeAdjudicateSession adjudicates a stored debate session in the
// background.
const TypeAdjudicateSession = "adjudication:session"

type AdjudicationPayload struct {
	SessionID     string `json:"sessionId"`
	AdjudicatorID string `json:"adjudicatorId"`
}

// NewAdjudicationTask builds the task. The pipeline retries internally, so
// callers enqueue it with asynq.MaxRetry(0).
func NewAdjudicationTask(sessionID, adjudicatorID string) (*asynq.Task, error) {
	b, err := json.Marshal(AdjudicationPayload{SessionID: sessionID, AdjudicatorID: adjudicatorID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAdjudicateSession, b), nil
}

type SessionAdjudicator interface {
	FromSession(ctx context.Context, sessionID, adjudicatorID string) (*schemas.Adjudication, error)
}

type Server struct {
	Adjudicator SessionAdjudicator
}

func (s *Server) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAdjudicateSession, s.handleAdjudication)
	return mux
}

func (s *Server) handleAdjudication(ctx context.Context, t *asynq.Task) error {
	var p AdjudicationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.SessionID == "" || p.AdjudicatorID == "" {
		return fmt.Errorf("payload missing sessionId or adjudicatorId: %w", asynq.SkipRetry)
	}

	start := time.Now()
	slog.Info("starting adjudication", "session", p.SessionID, "adjudicator", p.AdjudicatorID)
	rec, err := s.Adjudicator.FromSession(ctx, p.SessionID, p.AdjudicatorID)
	if err != nil {
		// The failure is final: log it and mark the task done.
		slog.Error("adjudication failed", "session", p.SessionID, "error", err)
		return nil
	}
	slog.Info("adjudication stored", "session", p.SessionID, "id", rec.ID, "winner", rec.OverallWinner, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func Run(redisAddr string, concurrency int, adj SessionAdjudicator) error {
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: concurrency,
		Logger:      slogLogger{},
	})
	w := &Server{Adjudicator: adj}
	return srv.Run(w.mux())
}

// slogLogger routes asynq's internal logs through slog.
type slogLogger struct{}

func (slogLogger) Debug(args ...any) { slog.Debug(fmt.Sprint(args...), "component", "asynq") }
func (slogLogger) Info(args ...any)  { slog.Info(fmt.Sprint(args...), "component", "asynq") }
func (slogLogger) Warn(args ...any)  { slog.Warn(fmt.Sprint(args...), "component", "asynq") }
func (slogLogger) Error(args ...any) { slog.Error(fmt.Sprint(args...), "component", "asynq") }
func (slogLogger) Fatal(args ...any) { slog.Error(fmt.Sprint(args...), "component", "asynq"); panic(fmt.Sprint(args...)) }
