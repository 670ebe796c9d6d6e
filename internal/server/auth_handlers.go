package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string   `json:"token"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// handleLogin verifies credentials and issues a JWT carrying the user's
// roles. Bad credentials and disabled accounts both come back as 401 with
// no detail about which check failed beyond the service's message.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	token, err := s.jwtManager.GenerateToken(&user.User, user.Roles)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate token")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "error processing request"})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:    token,
		Username: user.Username,
		Roles:    user.Roles,
	})
}
