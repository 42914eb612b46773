// Package server assembles the HTTP server: generation tiers, session
// store, transcript extraction, auth, and the /api/v1 routes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/studysense/studysense/internal/profile"
	"github.com/studysense/studysense/server/ai"
	"github.com/studysense/studysense/server/auth"
	"github.com/studysense/studysense/server/offline"
	apiv1 "github.com/studysense/studysense/server/router/api/v1"
	"github.com/studysense/studysense/server/session"
	"github.com/studysense/studysense/server/transcript"
	"github.com/studysense/studysense/store"
)

// Server owns the echo instance and the services behind it.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
	logger     *slog.Logger
}

// NewServer wires the generation tier chain from the profile and mounts
// the API routes. The offline model always terminates the chain, so the
// server starts even with no external model configured.
func NewServer(ctx context.Context, prof *profile.Profile, st *store.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(echomw.Recover())
	echoServer.Use(requestLogger(logger))
	echoServer.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: corsOrigins(prof),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	var primary ai.Provider
	if prof.IsGeminiEnabled() {
		gemini, err := ai.NewGeminiProvider(ctx, prof.GeminiAPIKey, prof.GeminiModel)
		if err != nil {
			logger.Warn("gemini tier unavailable, continuing without it", "error", err)
		} else {
			primary = gemini
		}
	}

	var secondary ai.Provider
	if prof.OllamaEnabled {
		secondary = ai.NewOllamaProvider(prof.OllamaBaseURL, prof.OllamaModel)
	}

	orchestrator := ai.NewOrchestrator(primary, secondary, offline.NewModel(), logger)
	sessions := session.NewStore(time.Duration(prof.SessionTTLMinutes) * time.Minute)
	transcripts := transcript.NewService()
	authService := auth.NewService(st, prof.JWTSecret, prof.JWTExpMinutes)

	apiService := apiv1.NewAPIV1Service(prof, orchestrator, sessions, transcripts, authService, logger)
	apiService.RegisterRoutes(echoServer)

	return &Server{
		Profile:    prof,
		Store:      st,
		echoServer: echoServer,
		apiService: apiService,
		logger:     logger,
	}, nil
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	s.logger.Info("server listening", "address", address, "mode", s.Profile.Mode)
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to start server")
	}
	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shut down server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		s.logger.Error("failed to close store", "error", err)
	}
	s.logger.Info("server shut down")
}

func corsOrigins(prof *profile.Profile) []string {
	raw := strings.TrimSpace(prof.CORSOrigins)
	if raw == "" || raw == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
			)
			return nil
		},
	})
}
