// Package v1 exposes the study service over a JSON HTTP API.
package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studysense/studysense/internal/profile"
	"github.com/studysense/studysense/server/ai"
	"github.com/studysense/studysense/server/auth"
	"github.com/studysense/studysense/internal/observability"
	"github.com/studysense/studysense/server/middleware"
	"github.com/studysense/studysense/server/session"
	"github.com/studysense/studysense/server/transcript"
)

// APIV1Service wires the generation pipeline, session store, and support
// services into the /api/v1 route group.
type APIV1Service struct {
	Profile      *profile.Profile
	Orchestrator *ai.Orchestrator
	Sessions     *session.Store
	Transcripts  *transcript.Service
	Auth         *auth.Service

	limiter *middleware.RateLimiter
	logger  *slog.Logger
}

// NewAPIV1Service assembles the API service.
func NewAPIV1Service(prof *profile.Profile, orchestrator *ai.Orchestrator, sessions *session.Store,
	transcripts *transcript.Service, authService *auth.Service, logger *slog.Logger) *APIV1Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIV1Service{
		Profile:      prof,
		Orchestrator: orchestrator,
		Sessions:     sessions,
		Transcripts:  transcripts,
		Auth:         authService,
		limiter:      middleware.NewRateLimiter(5, 10),
		logger:       logger,
	}
}

// RegisterRoutes mounts every endpoint under /api/v1. Generation
// endpoints are rate limited per client.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":     "ok",
			"generation": observability.GlobalMetrics().Snapshot(),
		})
	})

	group := e.Group("/api/v1")
	limited := s.limiter.Middleware()

	group.POST("/summarize", s.handleSummarize, limited)
	group.POST("/chat", s.handleChat, limited)
	group.POST("/solver_chat", s.handleSolverChat, limited)
	group.POST("/mcq", s.handleMCQ, limited)
	group.GET("/export", s.handleExport)

	group.POST("/extract_captions", s.handleExtractCaptions)
	group.POST("/video_meta", s.handleVideoMeta)

	group.POST("/auth/register", s.handleRegister)
	group.POST("/auth/login", s.handleLogin)
	group.GET("/auth/me", s.handleMe)
}
