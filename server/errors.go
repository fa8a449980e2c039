package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	msgInvalidToken        = "invalid token..."
	msgUpstreamRejected    = "Le client est inconnu ou non habilité"
	msgGenericFailure      = "Une erreur s'est produite"
	msgUserNotFound        = "Utilisateur inconnu"
	msgUnknownMeteringKind = "Type de données inconnu"
)

type messageResponse struct {
	Message string `json:"message"`
}

// writeError maps an error from a use case onto a response. Upstream and internal
// failures are logged here and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrStateMismatch):
		log.Warn().Err(err).Msg("Consent callback rejected")
		writeText(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
	case apperrors.Is(err, apperrors.ErrInvalidToken):
		writeText(w, http.StatusUnauthorized, msgInvalidToken)
	case apperrors.Is(err, apperrors.ErrUpstreamUnauthorized):
		writeJSON(w, http.StatusForbidden, messageResponse{Message: msgUpstreamRejected})
	case apperrors.Is(err, apperrors.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: msgUserNotFound})
	case apperrors.Is(err, apperrors.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
	case apperrors.Is(err, apperrors.ErrUpstreamFailure), apperrors.Is(err, apperrors.ErrMalformedUpstreamPayload):
		log.Err(err).Str("path", r.URL.Path).Msg("Upstream call failed")
		writeJSON(w, http.StatusBadGateway, messageResponse{Message: msgGenericFailure})
	default:
		log.Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgGenericFailure})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
