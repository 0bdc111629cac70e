package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/dmitrijs2005/gearhub/internal/logging"
	"github.com/dmitrijs2005/gearhub/internal/server/auth"
	"github.com/go-chi/chi/v5"
)

// Guard is the access layer in front of the handlers.
type Guard struct {
	tokens TokenVerifier
	users  Users
	log    logging.Logger
}

func NewGuard(tokens TokenVerifier, users Users, log logging.Logger) *Guard {
	return &Guard{tokens: tokens, users: users, log: log.With("module", "guard")}
}

// bearerToken extracts the credential. It returns common.ErrorUnauthenticated
// when nothing was presented and common.ErrTokenMalformed for any other
// scheme.
func bearerToken(r *http.Request) (string, error) {
	fields := strings.Fields(r.Header.Get(common.AuthorizationHeaderName))
	switch {
	case len(fields) == 0:
		return "", common.ErrorUnauthenticated
	case !strings.EqualFold(fields[0], common.BearerScheme):
		return "", common.ErrTokenMalformed
	case len(fields) == 1:
		return "", common.ErrorUnauthenticated
	case len(fields) > 2:
		return "", common.ErrTokenMalformed
	}
	return fields[1], nil
}

// Authenticate verifies the bearer token and stores the subject in the
// request context. A missing credential is 401, a rejected one is 403.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := bearerToken(r)
		if err != nil {
			writeError(ctx, w, g.log, err)
			return
		}

		subject, err := g.tokens.Verify(token)
		if err != nil {
			g.log.Debug(ctx, "token rejected", "error", err)
			writeError(ctx, w, g.log, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithSubject(ctx, subject)))
	})
}

// RequireOwner admits the request only if the subject equals the email in
// the named path parameter, or in the "email" query value when the route
// has no such parameter. Admins get no exemption.
func (g *Guard) RequireOwner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			subject, ok := auth.SubjectFromContext(ctx)
			if !ok {
				writeError(ctx, w, g.log, common.ErrorUnauthenticated)
				return
			}

			target := chi.URLParam(r, param)
			if target == "" {
				target = r.URL.Query().Get("email")
			}
			if !strings.EqualFold(strings.TrimSpace(target), subject) {
				writeError(ctx, w, g.log, fmt.Errorf("%w: not the owner", common.ErrorForbidden))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin looks up the subject's role. An unknown principal is
// forbidden, not an error.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		subject, ok := auth.SubjectFromContext(ctx)
		if !ok {
			writeError(ctx, w, g.log, common.ErrorUnauthenticated)
			return
		}

		admin, err := g.users.IsAdmin(ctx, subject)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			writeError(ctx, w, g.log, fmt.Errorf("%w: unknown principal", common.ErrorForbidden))
			return
		case err != nil:
			g.log.Error(ctx, "role lookup failed", "email", subject, "error", err)
			if !errors.Is(err, common.ErrUpstream) {
				err = fmt.Errorf("%w: %v", common.ErrUpstream, err)
			}
			writeError(ctx, w, g.log, err)
			return
		case !admin:
			writeError(ctx, w, g.log, fmt.Errorf("%w: admin role required", common.ErrorForbidden))
			return
		}

		next.ServeHTTP(w, r)
	})
}
