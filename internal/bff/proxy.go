package bff

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/iam-recruit/dashboard/internal/upstream"
	"github.com/rs/zerolog/log"
)

const maxProxyBody = 25 << 20

// rewrites maps BFF resource paths onto API paths where they differ.
var rewrites = map[string]string{
	http.MethodPost + " /applications": "/applications/evaluate",
}

// fallbacks are the messages used when the API gives no usable detail,
// keyed by method and top-level resource.
var fallbacks = map[string]string{
	http.MethodGet + " applications":   "Error al obtener las aplicaciones",
	http.MethodPost + " applications":  "Error al subir el documento",
	http.MethodPatch + " applications": "Error al actualizar el estatus de la aplicación",
	http.MethodGet + " jobs":           "Error al obtener la información de la vacante",
	http.MethodPost + " jobs":          "Error al crear la vacante",
	http.MethodPut + " jobs":           "Error al actualizar la vacante",
	http.MethodGet + " candidates":     "Error al obtener los candidatos",
	http.MethodPost + " candidates":    "Error al crear el candidato",
	http.MethodPatch + " candidates":   "Error al actualizar el candidato",
	http.MethodPut + " candidates":     "Error al actualizar el candidato",
}

func upstreamPath(method, path string) string {
	if p, ok := rewrites[method+" "+path]; ok {
		return p
	}
	return path
}

func fallbackMessage(method, path string) string {
	resource, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if msg, ok := fallbacks[method+" "+resource]; ok {
		return msg
	}
	return msgRequestFailed
}

// handleProxy forwards /api/<resource> to the API with the caller's bearer
// token. On a 401 it refreshes with the cookie and retries once.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api")
	req := upstream.Request{
		Method: r.Method,
		Path:   upstreamPath(r.Method, path),
		Query:  r.URL.Query(),
		Token:  token,
	}
	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		body, ok := readBody(w, r, maxProxyBody)
		if !ok {
			return
		}
		if len(body) > 0 {
			req.Body = body
			req.ContentType = r.Header.Get("Content-Type")
		}
	}
	if r.Method == http.MethodPost && path == "/applications" && !hasUploadFields(req.Body, req.ContentType) {
		writeMessage(w, http.StatusBadRequest, msgUploadFields)
		return
	}

	ctx := r.Context()
	res, err := s.api.Do(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("path", req.Path).Msg("upstream request failed")
		writeMessage(w, http.StatusInternalServerError, msgRequestFailed)
		return
	}

	var rotated string
	if res.Status == http.StatusUnauthorized {
		refresh, ok := refreshTokenFromCookie(r)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		refreshed, err := s.api.Refresh(ctx, refresh)
		if err != nil {
			log.Error().Err(err).Msg("upstream refresh failed")
			writeMessage(w, http.StatusInternalServerError, msgRequestFailed)
			return
		}
		tokens, err := refreshed.Tokens()
		if !refreshed.OK() || err != nil || tokens.Access() == "" {
			s.cookies.expireRefresh(w)
			writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		log.Debug().Str("path", req.Path).Msg("retrying upstream request with refreshed token")
		req.Token = tokens.Access()
		rotated = tokens.RefreshToken

		res, err = s.api.Do(ctx, req)
		if err != nil {
			log.Error().Err(err).Str("path", req.Path).Msg("upstream retry failed")
			writeMessage(w, http.StatusInternalServerError, msgRequestFailed)
			return
		}
	}

	if !res.OK() {
		writeMessage(w, res.Status, translateError(res.Detail(), fallbackMessage(r.Method, path)))
		return
	}

	if rotated != "" {
		maxAge := refreshMaxAge
		if r.Method == http.MethodGet {
			maxAge = refreshMaxAgeShort
		}
		s.cookies.setRefresh(w, rotated, maxAge)
	}

	if len(res.Body) == 0 {
		w.WriteHeader(res.Status)
		return
	}
	writeRaw(w, res.Status, res.Body)
}

// hasUploadFields reports whether a multipart body carries a non-empty
// job_id and a file part. Parts are streamed, nothing is spooled to disk.
func hasUploadFields(body []byte, contentType string) bool {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" || params["boundary"] == "" {
		return false
	}

	var jobID, file bool
	mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return false
		}
		switch {
		case part.FormName() == "job_id":
			value, _ := io.ReadAll(io.LimitReader(part, 256))
			jobID = strings.TrimSpace(string(value)) != ""
		case part.FormName() == "file" && part.FileName() != "":
			file = true
		}
		part.Close()
	}
	return jobID && file
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}
	return token, true
}
