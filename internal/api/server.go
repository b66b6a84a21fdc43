// Package api exposes the daily-limited lesson features over HTTP.
// Denials are data, not errors: an exhausted quota or a completed day
// comes back as 200 with a decision payload.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lingora/lingora/internal/clock"
	"github.com/lingora/lingora/internal/completion"
	"github.com/lingora/lingora/internal/countdown"
	"github.com/lingora/lingora/internal/gate"
	"github.com/lingora/lingora/internal/identity"
	"github.com/lingora/lingora/internal/lesson"
	"github.com/lingora/lingora/internal/quota"
)

// Config holds the API server configuration.
type Config struct {
	ListenAddr        string
	DefinitionsPerDay int64
	ReviewsPerDay     int64
	SessionSeconds    int
}

// Server is the HTTP front for the gate and lesson services.
type Server struct {
	config     Config
	verifier   *identity.Verifier
	gate       *gate.Gate
	quota      *quota.Service
	completion *completion.Service
	countdown  *countdown.Timer
	definer    *lesson.Definer
	reviewer   *lesson.Reviewer
	ideas      *lesson.IdeaGenerator
	days       *clock.DayKeeper

	server   *http.Server
	router   *gin.Engine
	listener net.Listener
	logger   zerolog.Logger
}

// NewServer creates the API server and wires its routes.
func NewServer(
	cfg Config,
	verifier *identity.Verifier,
	g *gate.Gate,
	q *quota.Service,
	c *completion.Service,
	cd *countdown.Timer,
	definer *lesson.Definer,
	reviewer *lesson.Reviewer,
	ideas *lesson.IdeaGenerator,
	days *clock.DayKeeper,
	logger zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config:     cfg,
		verifier:   verifier,
		gate:       g,
		quota:      q,
		completion: c,
		countdown:  cd,
		definer:    definer,
		reviewer:   reviewer,
		ideas:      ideas,
		days:       days,
		router:     router,
		logger:     logger.With().Str("component", "api").Logger(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware(s.logger))

	s.router.GET("/health", s.handleHealth)

	authed := s.router.Group("/api")
	authed.Use(AuthMiddleware(s.verifier))

	authed.POST("/define", s.handleDefine)
	authed.POST("/review", s.handleReview)
	authed.POST("/generate-idea", s.handleGenerateIdea)
	authed.GET("/features/:feature/status", s.handleFeatureStatus)
	authed.POST("/features/:feature/timer/start", s.handleTimerStart)
	authed.POST("/features/:feature/timer/tick", s.handleTimerTick)
}

// SetListener sets a pre-created listener for systemd socket activation.
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.config.ListenAddr).Msg("Starting API server")

	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()

	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// maxFor returns the daily limit for a quota-gated feature. Features
// without a quota report zero.
func (s *Server) maxFor(feature string) int64 {
	switch feature {
	case FeatureDefinitions:
		return s.config.DefinitionsPerDay
	case FeatureWriting:
		return s.config.ReviewsPerDay
	default:
		return 0
	}
}

func knownFeature(feature string) bool {
	switch feature {
	case FeatureDefinitions, FeatureWriting, FeatureReading:
		return true
	}
	return false
}
