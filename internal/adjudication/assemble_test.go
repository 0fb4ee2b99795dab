package adjudication

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/schemas"
	"debate-adjudicator/internal/transcript"
)

type fakeStore struct {
	sessions map[string]*schemas.Session
	created  []*schemas.Adjudication
	err      error
}

func (s *fakeStore) GetSession(_ context.Context, id string) (*schemas.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "debate session not found")
	}
	return sess, nil
}

func (s *fakeStore) CreateAdjudication(_ context.Context, a *schemas.Adjudication) error {
	if s.err != nil {
		return s.err
	}
	a.ID = "adj-1"
	s.created = append(s.created, a)
	return nil
}

type fakeArchive struct {
	files map[string][]byte
	err   error
}

func (a *fakeArchive) PutTranscript(_ context.Context, filename, _ string, data []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	if a.files == nil {
		a.files = map[string][]byte{}
	}
	a.files[filename] = data
	return "s3://transcripts/uploads/" + filename, nil
}

func fullResult(t *testing.T) *Result {
	t.Helper()
	e, _ := newTestEngine(&fakeGenerator{fn: validReplies})
	res, err := e.Run(context.Background(), "t")
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestAssembleRequiresEveryStage(t *testing.T) {
	full := fullResult(t)
	tests := []struct {
		name string
		res  *Result
	}{
		{"nil", nil},
		{"no scorecard", &Result{ChainOfThought: full.ChainOfThought, DetailedFeedback: full.DetailedFeedback}},
		{"no chain of thought", &Result{Scorecard: full.Scorecard, DetailedFeedback: full.DetailedFeedback}},
		{"no feedback", &Result{Scorecard: full.Scorecard, ChainOfThought: full.ChainOfThought}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Assemble(tt.res, "user-1", Provenance{}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestAssembleFromSession(t *testing.T) {
	sess := &schemas.Session{ID: "sess-1", DebateType: "BP", Motion: "THW ban homework"}
	rec, err := Assemble(fullResult(t), "user-1", SessionProvenance(sess))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.SessionID == nil || *rec.SessionID != "sess-1" {
		t.Errorf("expected session link, got %v", rec.SessionID)
	}
	if rec.FormatName != "BP" || rec.TranscriptSource != schemas.SourceSession {
		t.Errorf("unexpected provenance: format=%q source=%q", rec.FormatName, rec.TranscriptSource)
	}
	if rec.OverallWinner != "Government" || len(rec.ChainOfThought.Clashes) != 2 || len(rec.DetailedFeedback.Speakers) != 1 {
		t.Errorf("stage output not carried over: %+v", rec)
	}
}

func TestUploadProvenance(t *testing.T) {
	p, err := UploadProvenance(UploadForm{FormatName: "AP", Teams: `["Gov","Opp"]`}, "round.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Motion != "Motion not specified" {
		t.Errorf("expected default motion, got %q", p.Motion)
	}
	if p.Source != schemas.SourceUpload || p.OriginalFileName != "round.txt" || string(p.Teams) != `["Gov","Opp"]` {
		t.Errorf("unexpected provenance %+v", p)
	}

	if _, err := UploadProvenance(UploadForm{}, "round.txt"); !apperr.Is(err, apperr.Validation) {
		t.Errorf("expected validation error for missing format, got %v", err)
	}
	if _, err := UploadProvenance(UploadForm{FormatName: "AP", Teams: "{gov"}, "round.txt"); !apperr.Is(err, apperr.Validation) {
		t.Errorf("expected validation error for bad teams, got %v", err)
	}
}

func newTestService(t *testing.T, gen Generator, store Store) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	r, err := transcript.NewReader(dir)
	if err != nil {
		t.Fatal(err)
	}
	e, _ := newTestEngine(gen)
	return &Service{Engine: e, Store: store, Uploads: r}, dir
}

func TestServiceFromSession(t *testing.T) {
	store := &fakeStore{sessions: map[string]*schemas.Session{
		"sess-1": {ID: "sess-1", UserID: "user-1", DebateType: "WS", Motion: "THBT", Transcript: []schemas.TranscriptEntry{
			{Speaker: "First Speaker (Gov)", Type: "speech", Timestamp: "0:00", Text: "We stand in proposition."},
		}},
	}}
	gen := &fakeGenerator{fn: validReplies}
	svc, _ := newTestService(t, gen, store)

	rec, err := svc.FromSession(context.Background(), "sess-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "adj-1" || len(store.created) != 1 {
		t.Fatalf("expected record to be persisted, got %+v", store.created)
	}
	if gen.inputs[0] != "[First Speaker (Gov)] (speech @ 0:00): We stand in proposition." {
		t.Errorf("unexpected transcript sent: %q", gen.inputs[0])
	}
}

func TestServiceFromSessionFailures(t *testing.T) {
	store := &fakeStore{sessions: map[string]*schemas.Session{"empty": {ID: "empty", UserID: "user-1", DebateType: "BP"}}}
	gen := &fakeGenerator{fn: validReplies}
	svc, _ := newTestService(t, gen, store)

	if _, err := svc.FromSession(context.Background(), "missing", "user-1"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.FromSession(context.Background(), "empty", "user-1"); !apperr.Is(err, apperr.Validation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if gen.calls() != 0 {
		t.Errorf("expected no model calls, got %d", gen.calls())
	}
}

func TestServiceFromSessionRejectsOtherUsersSession(t *testing.T) {
	store := &fakeStore{sessions: map[string]*schemas.Session{
		"sess-1": {ID: "sess-1", UserID: "ada", Transcript: []schemas.TranscriptEntry{{Speaker: "PM", Text: "private"}}},
	}}
	gen := &fakeGenerator{fn: validReplies}
	svc, _ := newTestService(t, gen, store)

	if _, err := svc.FromSession(context.Background(), "sess-1", "bob"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, err := svc.SessionTranscript(context.Background(), "sess-1", "bob"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if gen.calls() != 0 || len(store.created) != 0 {
		t.Errorf("expected no model calls and nothing persisted, got %d calls and %d records", gen.calls(), len(store.created))
	}
}

func TestServiceNothingPersistedOnStageFailure(t *testing.T) {
	store := &fakeStore{sessions: map[string]*schemas.Session{
		"sess-1": {ID: "sess-1", UserID: "user-1", Transcript: []schemas.TranscriptEntry{{Speaker: "PM", Text: "hi"}}},
	}}
	gen := &fakeGenerator{fn: func(ctx context.Context, call int, prompt string) (string, error) {
		if prompt == StageDetailedFeedback.Prompt() {
			return "not json", nil
		}
		return validReplies(ctx, call, prompt)
	}}
	svc, _ := newTestService(t, gen, store)

	_, err := svc.FromSession(context.Background(), "sess-1", "user-1")
	if !apperr.Is(err, apperr.MalformedOutput) {
		t.Fatalf("expected malformed output, got %v", err)
	}
	if len(store.created) != 0 {
		t.Errorf("expected nothing persisted, got %d records", len(store.created))
	}
}

func TestServiceFromUpload(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{fn: validReplies}
	svc, dir := newTestService(t, gen, store)
	archive := &fakeArchive{}
	svc.Archive = archive

	body := "PM: We propose.\nLO: We oppose."
	rec, err := svc.FromUpload(context.Background(), strings.NewReader(body),
		transcript.Upload{Filename: "round.txt", ContentType: "text/plain", Size: int64(len(body))},
		UploadForm{FormatName: "AP", Motion: "THW ban cars"}, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.TranscriptSource != schemas.SourceUpload || rec.SessionID != nil {
		t.Errorf("unexpected provenance %+v", rec)
	}
	if rec.TranscriptRef != "s3://transcripts/uploads/round.txt" {
		t.Errorf("expected archived ref, got %q", rec.TranscriptRef)
	}
	if string(archive.files["round.txt"]) != body {
		t.Error("expected raw upload to be archived")
	}
	if gen.inputs[0] != body {
		t.Errorf("expected verbatim transcript, got %q", gen.inputs[0])
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected temp dir to be empty, found %d files", len(entries))
	}
}

func TestServiceFromUploadArchiveFailureStillPersists(t *testing.T) {
	store := &fakeStore{}
	svc, _ := newTestService(t, &fakeGenerator{fn: validReplies}, store)
	svc.Archive = &fakeArchive{err: errors.New("bucket unavailable")}

	rec, err := svc.FromUpload(context.Background(), strings.NewReader("text"),
		transcript.Upload{Filename: "r.txt", Size: 4}, UploadForm{FormatName: "BP"}, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.TranscriptRef != "" || len(store.created) != 1 {
		t.Errorf("expected record without ref, got %+v", rec)
	}
}

func TestServiceFromUploadValidatesBeforeModel(t *testing.T) {
	tests := []struct {
		name   string
		upload transcript.Upload
		form   UploadForm
	}{
		{"bad type", transcript.Upload{Filename: "slides.png", ContentType: "image/png", Size: 3}, UploadForm{FormatName: "BP"}},
		{"missing format", transcript.Upload{Filename: "r.txt", Size: 3}, UploadForm{}},
		{"bad teams", transcript.Upload{Filename: "r.txt", Size: 3}, UploadForm{FormatName: "BP", Teams: "[oops"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			gen := &fakeGenerator{fn: validReplies}
			svc, _ := newTestService(t, gen, store)

			_, err := svc.FromUpload(context.Background(), strings.NewReader("abc"), tt.upload, tt.form, "user-1")
			if !apperr.Is(err, apperr.Validation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if gen.calls() != 0 || len(store.created) != 0 {
				t.Errorf("expected no model calls or writes, got %d calls", gen.calls())
			}
		})
	}
}
