package http

import (
	"context"
	"net/http"

	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/auth"
	"debate-adjudicator/internal/schemas"
)

type ctxKey struct{}

// RequireUser resolves the bearer token to a user and stores it on the
// request context.
func (s *Server) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeErr(w, r, apperr.New(apperr.Unauthorized, "unauthorized request"))
			return
		}
		u, err := s.Store.UserByTokenHash(r.Context(), auth.HashToken(tok))
		if err != nil {
			if apperr.Is(err, apperr.NotFound) {
				err = apperr.New(apperr.Unauthorized, "invalid API token")
			}
			writeErr(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

// currentUserFrom returns the caller set by RequireUser.
func currentUserFrom(ctx context.Context) *schemas.User {
	u, _ := ctx.Value(ctxKey{}).(*schemas.User)
	return u
}
