package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/schemas"
)

// CreateAdjudication inserts a and, when it came from a session, links the
// session to it in the same transaction.
func (s *Store) CreateAdjudication(ctx context.Context, a *schemas.Adjudication) error {
	a.ID = uuid.NewString()
	teams, rankings, card, cot, feedback, err := adjudicationArgs(a)
	if err != nil {
		return fmt.Errorf("encode adjudication: %w", err)
	}
	return WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx,
			`insert into adjudications (id, session_id, adjudicator_id, format_name, motion, teams, transcript_source,
			   original_file_name, transcript_ref, overall_winner, team_rankings, scorecard, chain_of_thought, detailed_feedback)
			 values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14) returning created_at, updated_at`,
			a.ID, a.SessionID, a.AdjudicatorID, a.FormatName, a.Motion, teams, a.TranscriptSource,
			a.OriginalFileName, a.TranscriptRef, a.OverallWinner, rankings, card, cot, feedback,
		).Scan(&a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert adjudication: %w", err)
		}
		if a.SessionID == nil {
			return nil
		}
		res, err := tx.ExecContext(ctx,
			`update debate_sessions set adjudication_id=$1, updated_at=now() where id=$2`, a.ID, *a.SessionID)
		if err != nil {
			return fmt.Errorf("link session: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.New(apperr.NotFound, "debate session not found")
		}
		return nil
	})
}

// ListAdjudications returns every adjudication with its session and
// adjudicator expanded.
func (s *Store) ListAdjudications(ctx context.Context) ([]*schemas.Adjudication, error) {
	var rows []Adjudication
	if err := s.DB.SelectContext(ctx, &rows,
		`select `+adjudicationCols+` from adjudications order by created_at desc`); err != nil {
		return nil, fmt.Errorf("list adjudications: %w", err)
	}
	out := make([]*schemas.Adjudication, 0, len(rows))
	for _, r := range rows {
		a, err := r.toSchema()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := s.populate(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetAdjudication(ctx context.Context, id string) (*schemas.Adjudication, error) {
	a, err := getAdjudication(ctx, s.DB, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, []*schemas.Adjudication{a}); err != nil {
		return nil, err
	}
	return a, nil
}

func getAdjudication(ctx context.Context, q sqlx.QueryerContext, id string, lock bool) (*schemas.Adjudication, error) {
	query := `select ` + adjudicationCols + ` from adjudications where id=$1`
	if lock {
		query += ` for update`
	}
	var r Adjudication
	if err := sqlx.GetContext(ctx, q, &r, query, id); err != nil {
		return nil, lookupErr(err, "adjudication")
	}
	return r.toSchema()
}

// UpdateAdjudication replaces the editable fields present in req.
func (s *Store) UpdateAdjudication(ctx context.Context, id string, req schemas.UpdateAdjudicationRequest) (*schemas.Adjudication, error) {
	var out *schemas.Adjudication
	err := WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		a, err := getAdjudication(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if req.FormatName != nil {
			a.FormatName = *req.FormatName
		}
		if req.Motion != nil {
			a.Motion = *req.Motion
		}
		if req.Teams != nil {
			a.Teams = req.Teams
		}
		if req.OverallWinner != nil {
			a.OverallWinner = *req.OverallWinner
		}
		if req.TeamRankings != nil {
			a.TeamRankings = req.TeamRankings
		}
		if req.Scorecard != nil {
			a.Scorecard = req.Scorecard
		}
		if req.ChainOfThought != nil {
			a.ChainOfThought = req.ChainOfThought
		}
		if req.DetailedFeedback != nil {
			a.DetailedFeedback = req.DetailedFeedback
		}
		teams, rankings, card, cot, feedback, err := adjudicationArgs(a)
		if err != nil {
			return fmt.Errorf("encode adjudication: %w", err)
		}
		err = tx.QueryRowxContext(ctx,
			`update adjudications set format_name=$2, motion=$3, teams=$4, overall_winner=$5, team_rankings=$6,
			   scorecard=$7, chain_of_thought=$8, detailed_feedback=$9, updated_at=now()
			 where id=$1 returning updated_at`,
			id, a.FormatName, a.Motion, teams, a.OverallWinner, rankings, card, cot, feedback,
		).Scan(&a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update adjudication: %w", err)
		}
		out = a
		return nil
	})
	return out, err
}

func (s *Store) DeleteAdjudication(ctx context.Context, id string) error {
	return deleteByID(ctx, s.DB, "adjudications", "adjudication", id)
}

// populate expands the session and adjudicator of each record with one
// query per table.
func (s *Store) populate(ctx context.Context, recs []*schemas.Adjudication) error {
	var sessionIDs, userIDs []string
	seenS, seenU := map[string]bool{}, map[string]bool{}
	for _, a := range recs {
		if a.SessionID != nil && !seenS[*a.SessionID] {
			seenS[*a.SessionID] = true
			sessionIDs = append(sessionIDs, *a.SessionID)
		}
		if !seenU[a.AdjudicatorID] {
			seenU[a.AdjudicatorID] = true
			userIDs = append(userIDs, a.AdjudicatorID)
		}
	}

	sessions := map[string]*schemas.Session{}
	if len(sessionIDs) > 0 {
		query, args, err := sqlx.In(`select `+sessionCols+` from debate_sessions where id in (?)`, sessionIDs)
		if err != nil {
			return err
		}
		var rows []Session
		if err := s.DB.SelectContext(ctx, &rows, s.DB.Rebind(query), args...); err != nil {
			return fmt.Errorf("populate sessions: %w", err)
		}
		for _, r := range rows {
			sess, err := r.toSchema()
			if err != nil {
				return err
			}
			sessions[sess.ID] = sess
		}
	}

	users := map[string]*schemas.User{}
	if len(userIDs) > 0 {
		query, args, err := sqlx.In(`select `+userCols+` from users where id in (?)`, userIDs)
		if err != nil {
			return err
		}
		var rows []User
		if err := s.DB.SelectContext(ctx, &rows, s.DB.Rebind(query), args...); err != nil {
			return fmt.Errorf("populate users: %w", err)
		}
		for _, r := range rows {
			u := r.toSchema()
			users[u.ID] = &u
		}
	}

	for _, a := range recs {
		if a.SessionID != nil {
			a.Session = sessions[*a.SessionID]
		}
		a.Adjudicator = users[a.AdjudicatorID]
	}
	return nil
}
