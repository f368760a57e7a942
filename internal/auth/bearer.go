// Package auth holds the two credential checks that gate the API: a
// static shared-secret bearer token for the asset endpoints and a
// short-lived session token for the license endpoints.
package auth

import (
	"crypto/hmac"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/idstrust/helpdesk/internal/server/respond"
)

const bearerPrefix = "Bearer "

// Authorizer checks Authorization headers against a single long-lived
// shared secret. There is no issuance step and no expiry.
type Authorizer struct {
	secret []byte
}

// NewAuthorizer creates a static bearer authorizer. An empty secret is
// allowed here so a misconfigured server still starts, but it rejects
// every request.
func NewAuthorizer(secret []byte) *Authorizer {
	return &Authorizer{secret: secret}
}

// IsAuthorized reports whether the Authorization header value carries
// the configured secret. Comparison is constant time.
func (a *Authorizer) IsAuthorized(header string) bool {
	if len(a.secret) == 0 {
		return false
	}

	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" {
		return false
	}

	return hmac.Equal([]byte(token), a.secret)
}

// Middleware gates requests behind the static bearer secret. Failures
// are 401s with fixed messages; the reason is never surfaced.
func (a *Authorizer) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, bearerPrefix) {
				respond.Error(w, http.StatusUnauthorized, "토큰이 필요합니다.")
				return
			}

			if !a.IsAuthorized(header) {
				zerolog.Ctx(r.Context()).Warn().Msg("bearer token rejected")
				respond.Error(w, http.StatusUnauthorized, "유효하지 않은 토큰입니다.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
