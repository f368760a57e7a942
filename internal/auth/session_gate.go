package auth

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/idstrust/helpdesk/internal/server/respond"
)

// SessionHeader carries the session token on gated requests.
const SessionHeader = "x-session-id"

// SessionValidator is satisfied by session.Service.
type SessionValidator interface {
	Validate(token string) bool
}

// SessionGate requires a valid session token in the x-session-id
// header. Invalid and expired tokens get the same rejection.
func SessionGate(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(SessionHeader)
			if token == "" {
				respond.Error(w, http.StatusUnauthorized, "세션 ID가 필요합니다.")
				return
			}

			if !sessions.Validate(token) {
				zerolog.Ctx(r.Context()).Warn().Msg("session token rejected")
				respond.Error(w, http.StatusUnauthorized, "유효하지 않거나 만료된 세션입니다.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
