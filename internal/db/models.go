package db

import (
	"encoding/json"
	"fmt"
	"time"

	"debate-adjudicator/internal/schemas"
)

const (
	userCols         = `id, full_name, email, username, created_at, updated_at`
	sessionCols      = `id, title, debate_type, motion, user_id, user_role, participants, transcript, adjudication_id, status, created_at, updated_at`
	adjudicationCols = `id, session_id, adjudicator_id, format_name, motion, teams, transcript_source, original_file_name, transcript_ref, overall_winner, team_rankings, scorecard, chain_of_thought, detailed_feedback, created_at, updated_at`
	gamificationCols = `user_id, xp, level, name, created_at, updated_at`
)

type User struct {
	ID        string    `db:"id"`
	FullName  string    `db:"full_name"`
	Email     string    `db:"email"`
	Username  string    `db:"username"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (u User) toSchema() schemas.User {
	return schemas.User{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type Session struct {
	ID             string    `db:"id"`
	Title          string    `db:"title"`
	DebateType     string    `db:"debate_type"`
	Motion         string    `db:"motion"`
	UserID         string    `db:"user_id"`
	UserRole       string    `db:"user_role"`
	Participants   []byte    `db:"participants"`
	Transcript     []byte    `db:"transcript"`
	AdjudicationID *string   `db:"adjudication_id"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r Session) toSchema() (*schemas.Session, error) {
	s := &schemas.Session{
		ID:             r.ID,
		Title:          r.Title,
		DebateType:     r.DebateType,
		Motion:         r.Motion,
		UserID:         r.UserID,
		UserRole:       r.UserRole,
		AdjudicationID: r.AdjudicationID,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Participants:   []schemas.Participant{},
		Transcript:     []schemas.TranscriptEntry{},
	}
	if err := unmarshalColumn(r.Participants, &s.Participants); err != nil {
		return nil, fmt.Errorf("session %s participants: %w", r.ID, err)
	}
	if err := unmarshalColumn(r.Transcript, &s.Transcript); err != nil {
		return nil, fmt.Errorf("session %s transcript: %w", r.ID, err)
	}
	return s, nil
}

type Adjudication struct {
	ID               string    `db:"id"`
	SessionID        *string   `db:"session_id"`
	AdjudicatorID    string    `db:"adjudicator_id"`
	FormatName       string    `db:"format_name"`
	Motion           string    `db:"motion"`
	Teams            []byte    `db:"teams"`
	TranscriptSource string    `db:"transcript_source"`
	OriginalFileName string    `db:"original_file_name"`
	TranscriptRef    string    `db:"transcript_ref"`
	OverallWinner    string    `db:"overall_winner"`
	TeamRankings     []byte    `db:"team_rankings"`
	Scorecard        []byte    `db:"scorecard"`
	ChainOfThought   []byte    `db:"chain_of_thought"`
	DetailedFeedback []byte    `db:"detailed_feedback"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r Adjudication) toSchema() (*schemas.Adjudication, error) {
	a := &schemas.Adjudication{
		ID:               r.ID,
		SessionID:        r.SessionID,
		AdjudicatorID:    r.AdjudicatorID,
		FormatName:       r.FormatName,
		Motion:           r.Motion,
		TranscriptSource: r.TranscriptSource,
		OriginalFileName: r.OriginalFileName,
		TranscriptRef:    r.TranscriptRef,
		OverallWinner:    r.OverallWinner,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if len(r.Teams) > 0 {
		a.Teams = json.RawMessage(r.Teams)
	}
	for _, c := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"team_rankings", r.TeamRankings, &a.TeamRankings},
		{"scorecard", r.Scorecard, &a.Scorecard},
		{"chain_of_thought", r.ChainOfThought, &a.ChainOfThought},
		{"detailed_feedback", r.DetailedFeedback, &a.DetailedFeedback},
	} {
		if err := unmarshalColumn(c.raw, c.dst); err != nil {
			return nil, fmt.Errorf("adjudication %s %s: %w", r.ID, c.name, err)
		}
	}
	return a, nil
}

// adjudicationArgs returns the JSONB columns of a in table order.
func adjudicationArgs(a *schemas.Adjudication) (teams, rankings, card, cot, feedback any, err error) {
	if len(a.Teams) > 0 {
		teams = []byte(a.Teams)
	}
	if rankings, err = marshalColumn(a.TeamRankings, []schemas.TeamRanking{}); err != nil {
		return
	}
	if card, err = marshalColumn(a.Scorecard, map[string]schemas.TeamScore{}); err != nil {
		return
	}
	if a.ChainOfThought != nil {
		if cot, err = json.Marshal(a.ChainOfThought); err != nil {
			return
		}
	}
	if a.DetailedFeedback != nil {
		feedback, err = json.Marshal(a.DetailedFeedback)
	}
	return
}

type Gamification struct {
	UserID    string    `db:"user_id"`
	XP        int       `db:"xp"`
	Level     int       `db:"level"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (g Gamification) toSchema() *schemas.Gamification {
	return &schemas.Gamification{
		UserID:    g.UserID,
		XP:        g.XP,
		Level:     g.Level,
		Name:      g.Name,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func unmarshalColumn(raw []byte, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// marshalColumn encodes v, substituting empty when v is nil so NOT NULL
// JSONB columns get an empty document.
func marshalColumn[T any](v, empty T) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return json.Marshal(empty)
	}
	return b, nil
}
