package bff

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/iam-recruit/dashboard/internal/upstream"
	"github.com/rs/zerolog/log"
)

const maxAuthBody = 1 << 20

type authResponse struct {
	AccessToken  string `json:"accessToken"`
	IsNewAccount *bool  `json:"isNewAccount,omitempty"`
}

type exchange struct {
	path     string
	fallback string

	// withFlag includes isNewAccount in the response.
	withFlag bool
	// headerFallback also accepts a refresh cookie set by the API itself.
	headerFallback bool
	// authSuccess sets the short auth-success cookie.
	authSuccess bool
}

var (
	loginExchange    = exchange{path: "/auth/login", fallback: "Error al iniciar sesión", withFlag: true}
	googleExchange   = exchange{path: "/auth/google", fallback: "Error al iniciar sesión con Google", withFlag: true, headerFallback: true}
	registerExchange = exchange{path: "/auth/register", fallback: "Error al registrar usuario", authSuccess: true}
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r, maxAuthBody)
	if !ok {
		return
	}
	s.exchangeCredentials(w, r, loginExchange, body)
}

func (s *Server) handleGoogle(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r, maxAuthBody)
	if !ok {
		return
	}

	var in struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &in); err != nil || in.Token == "" {
		writeMessage(w, http.StatusBadRequest, "Token de Google es requerido")
		return
	}

	payload, _ := json.Marshal(map[string]string{"token": in.Token})
	s.exchangeCredentials(w, r, googleExchange, payload)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r, maxAuthBody)
	if !ok {
		return
	}
	s.exchangeCredentials(w, r, registerExchange, body)
}

// exchangeCredentials forwards a sign-in payload and moves the refresh
// token from the response body into the HTTP-only cookie.
func (s *Server) exchangeCredentials(w http.ResponseWriter, r *http.Request, ex exchange, body []byte) {
	res, err := s.api.Do(r.Context(), upstream.Request{Method: http.MethodPost, Path: ex.path, Body: body})
	if err != nil {
		log.Error().Err(err).Str("path", ex.path).Msg("upstream auth request failed")
		writeMessage(w, http.StatusInternalServerError, msgRequestFailed)
		return
	}
	if !res.OK() {
		writeMessage(w, res.Status, translateError(res.Detail(), ex.fallback))
		return
	}

	tokens, err := res.Tokens()
	if err != nil {
		log.Error().Err(err).Str("path", ex.path).Msg("invalid upstream auth payload")
		writeMessage(w, http.StatusInternalServerError, msgRequestFailed)
		return
	}

	refresh := tokens.RefreshToken
	if refresh == "" && ex.headerFallback {
		refresh, _ = refreshTokenFromSetCookie(res.Header)
	}
	if refresh != "" {
		s.cookies.setRefresh(w, refresh, refreshMaxAge)
		if ex.authSuccess {
			s.cookies.setAuthSuccess(w)
		}
	} else {
		log.Warn().Str("path", ex.path).Msg("upstream issued no refresh token")
	}

	out := authResponse{AccessToken: tokens.Access()}
	if ex.withFlag {
		out.IsNewAccount = &tokens.IsNewAccount
	}
	writeJSON(w, res.Status, out)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refresh, ok := refreshTokenFromCookie(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgNoRefreshToken)
		return
	}

	res, err := s.api.Refresh(r.Context(), refresh)
	if err != nil {
		log.Error().Err(err).Msg("upstream refresh failed")
		writeMessage(w, http.StatusInternalServerError, msgRequestFailed)
		return
	}
	if !res.OK() {
		if res.Status == http.StatusUnauthorized {
			s.cookies.expireRefresh(w)
		}
		writeMessage(w, res.Status, translateError(res.Detail(), "Error al refrescar el token"))
		return
	}

	tokens, err := res.Tokens()
	if err != nil {
		log.Error().Err(err).Msg("invalid upstream refresh payload")
		writeMessage(w, http.StatusInternalServerError, msgRequestFailed)
		return
	}
	if tokens.RefreshToken != "" {
		s.cookies.setRefresh(w, tokens.RefreshToken, refreshMaxAge)
	}
	writeJSON(w, res.Status, authResponse{AccessToken: tokens.Access()})
}

// handleLogout revokes the refresh token upstream when there is one. The
// cookie is deleted whatever the API answers.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if refresh, ok := refreshTokenFromCookie(r); ok {
		if err := s.api.Logout(r.Context(), refresh); err != nil {
			log.Warn().Err(err).Msg("upstream logout failed")
		}
	}
	s.cookies.expireRefresh(w)
	writeMessage(w, http.StatusOK, "Sesión cerrada exitosamente")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	res, err := s.api.Do(r.Context(), upstream.Request{Method: http.MethodGet, Path: "/auth/me", Token: token})
	if err != nil {
		log.Error().Err(err).Msg("upstream me request failed")
		writeMessage(w, http.StatusInternalServerError, msgRequestFailed)
		return
	}
	if !res.OK() {
		writeMessage(w, res.Status, translateError(res.Detail(), "Error al obtener información del usuario"))
		return
	}
	writeRaw(w, res.Status, res.Body)
}

// readBody reads at most limit bytes, answering 400 itself on failure.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Solicitud inválida")
		return nil, false
	}
	return body, true
}
