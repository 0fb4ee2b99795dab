package adjudication

import (
	"context"
	"io"
	"log/slog"

	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/schemas"
	"debate-adjudicator/internal/transcript"
)

// Store is the persistence the service needs.
type Store interface {
	GetSession(ctx context.Context, id string) (*schemas.Session, error)
	// CreateAdjudication inserts a, fills in its id and timestamps, and links
	// the originating session when there is one.
	CreateAdjudication(ctx context.Context, a *schemas.Adjudication) error
}

// Archiver keeps a copy of an uploaded transcript and returns a reference
// to it.
type Archiver interface {
	PutTranscript(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

type Service struct {
	Engine  *Engine
	Store   Store
	Uploads *transcript.Reader
	// Archive is optional.
	Archive Archiver
}

// SessionTranscript loads a session owned by ownerID and formats its
// transcript. Sessions belonging to someone else are reported as not found.
func (s *Service) SessionTranscript(ctx context.Context, sessionID, ownerID string) (*schemas.Session, string, error) {
	sess, err := s.Store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	if err := CheckOwner(sess, ownerID); err != nil {
		return nil, "", err
	}
	text, err := transcript.FromEntries(sess.Transcript)
	if err != nil {
		return nil, "", err
	}
	return sess, text, nil
}

// CheckOwner returns NotFound unless userID owns sess.
func CheckOwner(sess *schemas.Session, userID string) error {
	if userID == "" || sess.UserID != userID {
		return apperr.New(apperr.NotFound, "debate session not found")
	}
	return nil
}

// FromSession adjudicates a stored session owned by adjudicatorID.
func (s *Service) FromSession(ctx context.Context, sessionID, adjudicatorID string) (*schemas.Adjudication, error) {
	sess, text, err := s.SessionTranscript(ctx, sessionID, adjudicatorID)
	if err != nil {
		return nil, err
	}
	res, err := s.Engine.Run(ctx, text)
	if err != nil {
		return nil, err
	}
	rec, err := Assemble(res, adjudicatorID, SessionProvenance(sess))
	if err != nil {
		return nil, err
	}
	if err := s.Store.CreateAdjudication(ctx, rec); err != nil {
		return nil, err
	}
	slog.Info("adjudication created", "id", rec.ID, "session", sessionID, "winner", rec.OverallWinner)
	return rec, nil
}

// FromUpload adjudicates an uploaded transcript file. The file and form
// are validated before any model call.
func (s *Service) FromUpload(ctx context.Context, src io.Reader, u transcript.Upload, form UploadForm, adjudicatorID string) (*schemas.Adjudication, error) {
	if _, err := transcript.CheckUpload(u); err != nil {
		return nil, err
	}
	prov, err := UploadProvenance(form, u.Filename)
	if err != nil {
		return nil, err
	}
	ext, err := s.Uploads.FromUpload(src, u)
	if err != nil {
		return nil, err
	}

	res, err := s.Engine.Run(ctx, ext.Text)
	if err != nil {
		return nil, err
	}

	if s.Archive != nil {
		ref, err := s.Archive.PutTranscript(ctx, u.Filename, string(ext.Kind), ext.Data)
		if err != nil {
			slog.Warn("failed to archive uploaded transcript", "file", u.Filename, "error", err)
		} else {
			prov.TranscriptRef = ref
		}
	}

	rec, err := Assemble(res, adjudicatorID, prov)
	if err != nil {
		return nil, err
	}
	if err := s.Store.CreateAdjudication(ctx, rec); err != nil {
		return nil, err
	}
	slog.Info("adjudication created from upload", "id", rec.ID, "file", u.Filename, "winner", rec.OverallWinner)
	return rec, nil
}
