package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/idstrust/helpdesk/internal/auth"
	"github.com/idstrust/helpdesk/internal/server/respond"
)

const invalidSessionMessage = "유효하지 않거나 만료된 세션입니다."

// createSession issues a fresh session token. One request, one
// session; nothing is stored server-side.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess, token, err := s.sessions.Create()
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to issue session token")
		respond.Error(w, http.StatusInternalServerError, "세션 생성에 실패했습니다.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"sessionId": token,
		"expiresAt": sess.ExpiresAt.UnixMilli(),
	})
}

// querySession reports the expiry of the session presented in the
// x-session-id header. The session gate has already rejected missing
// or invalid tokens, but the token may expire between the two checks.
func (s *Server) querySession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(r.Header.Get(auth.SessionHeader))
	if sess == nil {
		respond.Error(w, http.StatusNotFound, invalidSessionMessage)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"expiresAt": sess.ExpiresAt.UnixMilli(),
	})
}

// getSession reports the full window of the session named in the
// path. Invalid and expired tokens both get a 404.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(r.PathValue("sessionId"))
	if sess == nil {
		respond.Error(w, http.StatusNotFound, invalidSessionMessage)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"expiresAt": sess.ExpiresAt.UnixMilli(),
		"createdAt": sess.IssuedAt.UnixMilli(),
	})
}
