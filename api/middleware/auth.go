package middleware

import (
	"net/http"
	"strings"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/responses"
	pkgauth "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/auth"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/config"
	pkgerrors "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/errors"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/logger"
)

// OptionalAuth validates a bearer token when one is supplied and seeds the
// request context with the user id. A missing header passes through untouched;
// guest checkout carries no credential, and the handler decides whether the
// request actually required one. A present-but-invalid token is still a hard
// 401: a broken credential is never silently downgraded to guest access.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID)
			if logg != nil {
				ctx = logg.WithField(ctx, "user_id", claims.UserID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
