package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"debate-adjudicator/internal/schemas"
)

func (s *Store) CreateSession(ctx context.Context, sess *schemas.Session) error {
	sess.ID = uuid.NewString()
	if sess.Status == "" {
		sess.Status = "prep"
	}
	if sess.Transcript == nil {
		sess.Transcript = []schemas.TranscriptEntry{}
	}
	parts, err := json.Marshal(sess.Participants)
	if err != nil {
		return err
	}
	tr, err := json.Marshal(sess.Transcript)
	if err != nil {
		return err
	}
	err = s.DB.QueryRowxContext(ctx,
		`insert into debate_sessions (id, title, debate_type, motion, user_id, user_role, participants, transcript, status)
		 values ($1,$2,$3,$4,$5,$6,$7,$8,$9) returning created_at, updated_at`,
		sess.ID, sess.Title, sess.DebateType, sess.Motion, sess.UserID, sess.UserRole, parts, tr, sess.Status,
	).Scan(&sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ListSessions returns userID's sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, userID string) ([]*schemas.Session, error) {
	var rows []Session
	if err := s.DB.SelectContext(ctx, &rows,
		`select `+sessionCols+` from debate_sessions where user_id=$1 order by created_at desc`, userID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]*schemas.Session, 0, len(rows))
	for _, r := range rows {
		sess, err := r.toSchema()
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*schemas.Session, error) {
	var r Session
	if err := s.DB.GetContext(ctx, &r, `select `+sessionCols+` from debate_sessions where id=$1`, id); err != nil {
		return nil, lookupErr(err, "debate session")
	}
	return r.toSchema()
}

// UpdateSession applies the fields present in req.
func (s *Store) UpdateSession(ctx context.Context, id string, req schemas.UpdateSessionRequest) (*schemas.Session, error) {
	var out *schemas.Session
	err := WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var r Session
		if err := tx.GetContext(ctx, &r, `select `+sessionCols+` from debate_sessions where id=$1 for update`, id); err != nil {
			return lookupErr(err, "debate session")
		}
		sess, err := r.toSchema()
		if err != nil {
			return err
		}
		if req.Title != nil {
			sess.Title = *req.Title
		}
		if req.Motion != nil {
			sess.Motion = *req.Motion
		}
		if req.Status != nil {
			sess.Status = *req.Status
		}
		if req.Participants != nil {
			sess.Participants = req.Participants
		}
		if req.Transcript != nil {
			sess.Transcript = req.Transcript
		}
		parts, err := json.Marshal(sess.Participants)
		if err != nil {
			return err
		}
		tr, err := json.Marshal(sess.Transcript)
		if err != nil {
			return err
		}
		err = tx.QueryRowxContext(ctx,
			`update debate_sessions set title=$2, motion=$3, status=$4, participants=$5, transcript=$6, updated_at=now()
			 where id=$1 returning updated_at`,
			id, sess.Title, sess.Motion, sess.Status, parts, tr,
		).Scan(&sess.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		out = sess
		return nil
	})
	return out, err
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return deleteByID(ctx, s.DB, "debate_sessions", "debate session", id)
}
