package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/gamification"
	"debate-adjudicator/internal/schemas"
)

// Progress returns userID's gamification record, creating it with the
// default XP if absent.
func (s *Store) Progress(ctx context.Context, userID string) (*schemas.Gamification, error) {
	lvl := gamification.LevelFor(gamification.DefaultXP)
	if _, err := s.DB.ExecContext(ctx,
		`insert into gamification (user_id, xp, level, name) values ($1,$2,$3,$4) on conflict (user_id) do nothing`,
		userID, gamification.DefaultXP, lvl.Level, lvl.Name); err != nil {
		return nil, fmt.Errorf("create gamification: %w", err)
	}
	var r Gamification
	if err := s.DB.GetContext(ctx, &r, `select `+gamificationCols+` from gamification where user_id=$1`, userID); err != nil {
		return nil, lookupErr(err, "gamification")
	}
	return r.toSchema(), nil
}

func (s *Store) AddXP(ctx context.Context, userID string, xp int) (*schemas.Gamification, error) {
	return s.saveXP(ctx, userID, func(cur int) int { return cur + xp })
}

func (s *Store) SetXP(ctx context.Context, userID string, xp int) (*schemas.Gamification, error) {
	return s.saveXP(ctx, userID, func(int) int { return xp })
}

// saveXP recomputes level and name from the new XP on every write. A
// missing record starts from zero.
func (s *Store) saveXP(ctx context.Context, userID string, next func(cur int) int) (*schemas.Gamification, error) {
	var r Gamification
	err := WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		var cur int
		err := tx.GetContext(ctx, &cur, `select xp from gamification where user_id=$1 for update`, userID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return lookupErr(err, "user")
		}
		xp := next(cur)
		lvl := gamification.LevelFor(xp)
		err = tx.GetContext(ctx, &r,
			`insert into gamification (user_id, xp, level, name) values ($1,$2,$3,$4)
			 on conflict (user_id) do update set xp=excluded.xp, level=excluded.level, name=excluded.name, updated_at=now()
			 returning `+gamificationCols,
			userID, xp, lvl.Level, lvl.Name)
		if err != nil {
			if pgCode(err) == pgForeignKeyViolation {
				return apperr.New(apperr.NotFound, "user not found")
			}
			return fmt.Errorf("save xp: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.toSchema(), nil
}

type leaderboardRow struct {
	UserID   string `db:"user_id"`
	Username string `db:"username"`
	FullName string `db:"full_name"`
	XP       int    `db:"xp"`
	Level    int    `db:"level"`
	Name     string `db:"name"`
}

// Leaderboard returns the top limit users by XP.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]schemas.LeaderboardEntry, error) {
	var rows []leaderboardRow
	err := s.DB.SelectContext(ctx, &rows,
		`select g.user_id, u.username, u.full_name, g.xp, g.level, g.name
		 from gamification g join users u on u.id = g.user_id
		 order by g.xp desc, g.updated_at asc limit $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	out := make([]schemas.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		var e schemas.LeaderboardEntry
		e.User.ID, e.User.Username, e.User.FullName = r.UserID, r.Username, r.FullName
		e.XP, e.Level, e.Name = r.XP, r.Level, r.Name
		out = append(out, e)
	}
	return out, nil
}
