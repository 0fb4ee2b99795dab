package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/hibiken/asynq"

	"debate-adjudicator/internal/adjudication"
	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/gamification"
	"debate-adjudicator/internal/schemas"
	"debate-adjudicator/internal/storage"
	"debate-adjudicator/internal/transcript"
)

type memStore struct {
	mu            sync.Mutex
	pingErr       error
	seq           int
	users         map[string]*schemas.User // by token hash
	sessions      map[string]*schemas.Session
	adjudications map[string]*schemas.Adjudication
	progress      map[string]*schemas.Gamification
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]*schemas.User{},
		sessions:      map[string]*schemas.Session{},
		adjudications: map[string]*schemas.Adjudication{},
		progress:      map[string]*schemas.Gamification{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) CreateUser(_ context.Context, u *schemas.User, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return apperr.New(apperr.Conflict, "user with this email or username already exists")
		}
	}
	u.ID = m.nextID("user")
	m.users[hash] = u
	lvl := gamification.LevelFor(gamification.DefaultXP)
	m.progress[u.ID] = &schemas.Gamification{UserID: u.ID, XP: gamification.DefaultXP, Level: lvl.Level, Name: lvl.Name}
	return nil
}

func (m *memStore) UserByTokenHash(_ context.Context, hash string) (*schemas.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[hash]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	return u, nil
}

func (m *memStore) UpdateUser(_ context.Context, id, fullName, email string) (*schemas.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			u.FullName, u.Email = fullName, email
			return u, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "user not found")
}

func (m *memStore) CreateSession(_ context.Context, s *schemas.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.nextID("sess")
	m.sessions[s.ID] = s
	return nil
}

func (m *memStore) ListSessions(_ context.Context, userID string) ([]*schemas.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*schemas.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) GetSession(_ context.Context, id string) (*schemas.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "debate session not found")
	}
	return s, nil
}

func (m *memStore) UpdateSession(_ context.Context, id string, req schemas.UpdateSessionRequest) (*schemas.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "debate session not found")
	}
	if req.Title != nil {
		s.Title = *req.Title
	}
	if req.Status != nil {
		s.Status = *req.Status
	}
	if req.Transcript != nil {
		s.Transcript = req.Transcript
	}
	return s, nil
}

func (m *memStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return apperr.New(apperr.NotFound, "debate session not found")
	}
	delete(m.sessions, id)
	return nil
}

func (m *memStore) ListAdjudications(context.Context) ([]*schemas.Adjudication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*schemas.Adjudication, 0, len(m.adjudications))
	for _, a := range m.adjudications {
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) GetAdjudication(_ context.Context, id string) (*schemas.Adjudication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.adjudications[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "adjudication not found")
	}
	return a, nil
}

func (m *memStore) UpdateAdjudication(_ context.Context, id string, req schemas.UpdateAdjudicationRequest) (*schemas.Adjudication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.adjudications[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "adjudication not found")
	}
	if req.OverallWinner != nil {
		a.OverallWinner = *req.OverallWinner
	}
	if req.ChainOfThought != nil {
		a.ChainOfThought = req.ChainOfThought
	}
	return a, nil
}

func (m *memStore) DeleteAdjudication(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.adjudications[id]; !ok {
		return apperr.New(apperr.NotFound, "adjudication not found")
	}
	delete(m.adjudications, id)
	return nil
}

func (m *memStore) Progress(_ context.Context, userID string) (*schemas.Gamification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.progress[userID]
	if !ok {
		lvl := gamification.LevelFor(gamification.DefaultXP)
		g = &schemas.Gamification{UserID: userID, XP: gamification.DefaultXP, Level: lvl.Level, Name: lvl.Name}
		m.progress[userID] = g
	}
	return g, nil
}

func (m *memStore) saveXP(userID string, next func(int) int) *schemas.Gamification {
	g, ok := m.progress[userID]
	if !ok {
		g = &schemas.Gamification{UserID: userID}
		m.progress[userID] = g
	}
	g.XP = next(g.XP)
	lvl := gamification.LevelFor(g.XP)
	g.Level, g.Name = lvl.Level, lvl.Name
	return g
}

func (m *memStore) AddXP(_ context.Context, userID string, xp int) (*schemas.Gamification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveXP(userID, func(cur int) int { return cur + xp }), nil
}

func (m *memStore) SetXP(_ context.Context, userID string, xp int) (*schemas.Gamification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveXP(userID, func(int) int { return xp }), nil
}

func (m *memStore) Leaderboard(_ context.Context, limit int) ([]schemas.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []schemas.LeaderboardEntry
	for _, g := range m.progress {
		var e schemas.LeaderboardEntry
		e.User.ID, e.XP, e.Level, e.Name = g.UserID, g.XP, g.Level, g.Name
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].XP > out[j].XP })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// stubAdjudicator stores a canned record through the memStore.
type stubAdjudicator struct {
	store      *memStore
	err        error
	lastUpload transcript.Upload
	lastForm   adjudication.UploadForm
	lastBody   string
}

func (a *stubAdjudicator) record(adjudicatorID string) *schemas.Adjudication {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	rec := &schemas.Adjudication{
		ID:            a.store.nextID("adj"),
		AdjudicatorID: adjudicatorID,
		OverallWinner: "Government",
		Scorecard:     map[string]schemas.TeamScore{"Government": {Matter: 80}},
	}
	a.store.adjudications[rec.ID] = rec
	return rec
}

func (a *stubAdjudicator) SessionTranscript(ctx context.Context, sessionID, ownerID string) (*schemas.Session, string, error) {
	sess, err := a.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	if err := adjudication.CheckOwner(sess, ownerID); err != nil {
		return nil, "", err
	}
	text, err := transcript.FromEntries(sess.Transcript)
	return sess, text, err
}

func (a *stubAdjudicator) FromSession(ctx context.Context, sessionID, adjudicatorID string) (*schemas.Adjudication, error) {
	if a.err != nil {
		return nil, a.err
	}
	sess, _, err := a.SessionTranscript(ctx, sessionID, adjudicatorID)
	if err != nil {
		return nil, err
	}
	rec := a.record(adjudicatorID)
	rec.SessionID = &sess.ID
	rec.TranscriptSource = schemas.SourceSession
	return rec, nil
}

func (a *stubAdjudicator) FromUpload(_ context.Context, src io.Reader, u transcript.Upload, form adjudication.UploadForm, adjudicatorID string) (*schemas.Adjudication, error) {
	if a.err != nil {
		return nil, a.err
	}
	if _, err := transcript.CheckUpload(u); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	a.lastUpload, a.lastForm, a.lastBody = u, form, string(b)
	rec := a.record(adjudicatorID)
	rec.TranscriptSource = schemas.SourceUpload
	rec.OriginalFileName = u.Filename
	rec.TranscriptRef = "s3://transcripts/transcripts/" + u.Filename
	return rec, nil
}

type stubWriter struct{}

func (stubWriter) Speech(_ context.Context, sess *schemas.Session, role string) (string, error) {
	return role + " speaks on " + sess.Motion, nil
}

func (stubWriter) POI(_ context.Context, req schemas.GeneratePOIRequest) (string, error) {
	if req.TargetSpeakerRole == "" || req.CurrentSpeech == "" || req.Motion == "" {
		return "", apperr.New(apperr.Validation, "required fields: targetSpeakerRole, currentSpeech, motion")
	}
	return "Point of information?", nil
}

type stubQueue struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (q *stubQueue) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	q.opts = append(q.opts, opts)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(q.tasks)), Type: task.Type()}, nil
}

type stubArchive struct {
	objects map[string]string
}

func (a *stubArchive) GetTranscript(_ context.Context, ref string) (*storage.Object, error) {
	body, ok := a.objects[ref]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "archived transcript not found")
	}
	return &storage.Object{
		Body:          io.NopCloser(bytes.NewBufferString(body)),
		ContentType:   "text/plain",
		ContentLength: int64(len(body)),
	}, nil
}

var errBoom = errors.New("boom")
