package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/enedis-gateway/enedis"
	"github.com/jrsteele09/enedis-gateway/internal/metrics"
	"github.com/jrsteele09/enedis-gateway/metering"
	"github.com/rs/zerolog/log"
)

const livenessBody = "ENEDIS API"

// IndexHandler answers the liveness check
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, livenessBody)
	}
}

// LoginHandler starts the consent flow and redirects the browser to Enedis.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.ensureSession(w, r)

		redirectURL, err := s.services.Flow.BeginLogin(r.Context(), sessionID, r.URL.Query().Get("testClientId"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		http.Redirect(w, r, redirectURL, http.StatusFound)
	}
}

// RedirectHandler is the OAuth2 callback. On success it redirects to the app deep link.
func (s *Server) RedirectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// An unsigned or missing cookie yields an empty id, which never matches a stored state.
		sessionID, _ := s.sessionFromRequest(r)
		q := r.URL.Query()

		deepLink, err := s.services.Flow.HandleRedirect(r.Context(), sessionID, q.Get("state"), q.Get("code"), q.Get("usage_point_id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		http.Redirect(w, r, deepLink, http.StatusFound)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok {
			writeText(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		profile, err := s.services.Customers.GetProfile(r.Context(), claims.ID, claims.UsagePointID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

// DeleteMeHandler removes the caller's stored readings. It always answers "ok".
func (s *Server) DeleteMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok {
			writeText(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}
		s.services.Metering.DeleteAllData(r.Context(), claims.ID)
		writeText(w, http.StatusOK, "ok")
	}
}

func (s *Server) MeteringHandler() http.HandlerFunc {
	return s.meteringHandler(s.services.Metering.GetMeteringData)
}

// RefreshHandler always goes back to Enedis, bypassing the stored readings.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return s.meteringHandler(s.services.Metering.RefreshData)
}

type meteringFunc func(ctx context.Context, kind enedis.MeteringKind, userID, usagePointID string) (metering.Dataset, error)

func (s *Server) meteringHandler(fetch meteringFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok {
			writeText(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		kind, err := enedis.ParseMeteringKind(r.PathValue("kind"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, messageResponse{Message: msgUnknownMeteringKind})
			return
		}

		dataset, err := fetch(r.Context(), kind, claims.ID, claims.UsagePointID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		log.Debug().Str("kind", kind.String()).Str("user_id", claims.ID).Int("usage_points", len(dataset)).Msg("Serving metering data")
		writeJSON(w, http.StatusOK, dataset)
	}
}

// PreflightHandler answers CORS preflight requests; the headers come from CorsMiddleware.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// MetricsHandler exposes Prometheus metrics
func (s *Server) MetricsHandler() http.Handler {
	return metrics.Handler()
}
