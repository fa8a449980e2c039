package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/enedis-gateway/customer"
	"github.com/jrsteele09/enedis-gateway/enedis"
	"github.com/jrsteele09/enedis-gateway/internal/config"
	"github.com/jrsteele09/enedis-gateway/metering"
	"github.com/jrsteele09/enedis-gateway/token"
	"github.com/rs/zerolog/log"
)

// LoginFlow runs the Enedis consent flow
type LoginFlow interface {
	BeginLogin(ctx context.Context, sessionID, testClientID string) (string, error)
	HandleRedirect(ctx context.Context, sessionID, state, code, usagePointID string) (string, error)
}

type MeteringService interface {
	GetMeteringData(ctx context.Context, kind enedis.MeteringKind, userID, usagePointID string) (metering.Dataset, error)
	RefreshData(ctx context.Context, kind enedis.MeteringKind, userID, usagePointID string) (metering.Dataset, error)
	DeleteAllData(ctx context.Context, userID string)
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID, usagePointID string) (*customer.Profile, error)
}

type TokenParser interface {
	ParseSessionToken(rawToken string) (*token.Claims, error)
}

// Services holds the use cases the HTTP layer exposes
type Services struct {
	Flow      LoginFlow
	Metering  MeteringService
	Customers ProfileService
	Tokens    TokenParser
}

type Server struct {
	env      string
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	services Services

	cookieKey []byte
	preflight http.HandlerFunc
}

func New(cfg config.Config, services Services) *Server {
	s := &Server{
		env:      cfg.Env,
		mux:      http.NewServeMux(),
		config:   cfg,
		services: services,

		cookieKey: deriveCookieKey(cfg.Security.SessionSecret),
	}

	s.preflight = ChainMiddleware(s.PreflightHandler(), s.CorsMiddleware)
	s.initRoutes()
	s.logRoutes()
	return s
}

// ServeHTTP answers CORS preflights for any path and routes everything else through the mux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		s.preflight(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

// Routes lists the registered patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Info().Msgf("[%-19s] %s", color+paddedMethod+ResetColor, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
