package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/gamification"
	"debate-adjudicator/internal/schemas"
)

// CreateUser inserts u together with its starting gamification record. The
// caller's API token is stored only as a hash.
func (s *Store) CreateUser(ctx context.Context, u *schemas.User, tokenHash string) error {
	u.ID = uuid.NewString()
	lvl := gamification.LevelFor(gamification.DefaultXP)
	return WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx,
			`insert into users (id, full_name, email, username, api_token_hash) values ($1,$2,$3,$4,$5) returning created_at, updated_at`,
			u.ID, u.FullName, u.Email, u.Username, tokenHash,
		).Scan(&u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			if pgCode(err) == pgUniqueViolation {
				return apperr.New(apperr.Conflict, "user with this email or username already exists")
			}
			return fmt.Errorf("insert user: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`insert into gamification (user_id, xp, level, name) values ($1,$2,$3,$4)`,
			u.ID, gamification.DefaultXP, lvl.Level, lvl.Name)
		if err != nil {
			return fmt.Errorf("insert gamification: %w", err)
		}
		return nil
	})
}

func (s *Store) UserByTokenHash(ctx context.Context, hash string) (*schemas.User, error) {
	var r User
	if err := s.DB.GetContext(ctx, &r, `select `+userCols+` from users where api_token_hash=$1`, hash); err != nil {
		return nil, lookupErr(err, "user")
	}
	u := r.toSchema()
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id, fullName, email string) (*schemas.User, error) {
	var r User
	err := s.DB.GetContext(ctx, &r,
		`update users set full_name=$2, email=$3, updated_at=now() where id=$1 returning `+userCols,
		id, fullName, email)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return nil, apperr.New(apperr.Conflict, "email is already in use")
		}
		return nil, lookupErr(err, "user")
	}
	u := r.toSchema()
	return &u, nil
}
