package bff

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	msgUnauthorized   = "No autorizado"
	msgRequestFailed  = "Error al procesar la solicitud"
	msgServerConfig   = "Error de configuración del servidor"
	msgNoRefreshToken = "No refresh token found"
	msgUploadFields   = "job_id y file son requeridos"
)

var errorMessages = map[string]string{
	"COMPANY_NAME_REQUIRED":      "El nombre de la compañía es requerido",
	"EMAIL_ALREADY_REGISTERED":   "El correo electrónico ya está registrado",
	"INVALID_CREDENTIALS":        "Credenciales inválidas",
	"INVALID_REFRESH_TOKEN":      "Token de actualización inválido",
	"REFRESH_TOKEN_EXPIRED":      "El token de actualización ha expirado",
	"REFRESH_TOKEN_REQUIRED":     "El token de actualización es requerido",
	"USER_NOT_FOUND_OR_INACTIVE": "Usuario no encontrado o inactivo",

	"NOT_AUTHENTICATED":     msgUnauthorized,
	"FORBIDDEN":             "No tienes permisos para realizar esta acción",
	"NOT_FOUND":             "Recurso no encontrado",
	"INTERNAL_SERVER_ERROR": "Error interno del servidor",
}

// translateError maps an upstream detail onto a user-facing message.
// detail may be a code string, an object with code or message, or absent.
// Unknown strings are returned verbatim.
func translateError(detail json.RawMessage, fallback string) string {
	if len(detail) == 0 || string(detail) == "null" {
		return fallback
	}

	var s string
	if err := json.Unmarshal(detail, &s); err == nil {
		if s == "" {
			return fallback
		}
		if msg, ok := lookupCode(s); ok {
			return msg
		}
		return s
	}

	var obj struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(detail, &obj); err == nil {
		if msg, ok := lookupCode(obj.Code); ok {
			return msg
		}
		if obj.Message != "" {
			if msg, ok := lookupCode(obj.Message); ok {
				return msg
			}
			return obj.Message
		}
	}

	return fallback
}

func lookupCode(code string) (string, bool) {
	msg, ok := errorMessages[strings.ToUpper(strings.TrimSpace(code))]
	return msg, ok && code != ""
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageBody{Message: message})
}

// writeRaw relays an upstream JSON body unchanged.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
