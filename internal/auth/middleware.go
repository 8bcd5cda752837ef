// Package auth gates tool routes behind a bearer token whose email claim is
// on a configured allowlist.
package auth

import (
	"net/http"
	"strings"

	"github.com/luminary/luminary-backend/internal/auth/jwt"
	"github.com/luminary/luminary-backend/pkg/errors"
	"github.com/luminary/luminary-backend/pkg/httputil"
	"github.com/luminary/luminary-backend/pkg/logger"
)

// Allowlist validates bearer tokens and admits only listed emails
type Allowlist struct {
	tokens  *jwt.Manager
	allowed map[string]struct{}
	log     *logger.Logger
}

// NewAllowlist creates the gate. Emails are matched case-insensitively.
func NewAllowlist(tokens *jwt.Manager, emails []string, log *logger.Logger) *Allowlist {
	allowed := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			allowed[e] = struct{}{}
		}
	}
	return &Allowlist{
		tokens:  tokens,
		allowed: allowed,
		log:     log,
	}
}

// Allowed reports whether email may use the tools
func (a *Allowlist) Allowed(email string) bool {
	_, ok := a.allowed[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Middleware rejects requests without a valid token with 401 and tokens for
// emails off the list with 403.
func (a *Allowlist) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.Error(w, errors.Unauthorized("missing authorization header"))
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			httputil.Error(w, errors.Unauthorized("invalid authorization header format"))
			return
		}

		claims, err := a.tokens.Validate(tokenString)
		if err != nil {
			a.log.Debug().Err(err).Msg("token validation failed")
			httputil.Error(w, err)
			return
		}

		if !a.Allowed(claims.Email) {
			a.log.Warn().
				Str("request_id", httputil.GetRequestID(r.Context())).
				Str("email", claims.Email).
				Str("path", r.URL.Path).
				Msg("email not on allowlist")
			httputil.Error(w, errors.Forbidden("access denied"))
			return
		}

		ctx := httputil.WithUserEmail(r.Context(), claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
