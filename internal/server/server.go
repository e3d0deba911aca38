// Package server exposes assessment sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/psychometric/internal/logging"
	"github.com/abhisek/psychometric/internal/metrics"
	"github.com/abhisek/psychometric/internal/persist"
	"github.com/abhisek/psychometric/internal/session"
)

// DefaultMaxAudioBytes caps an uploaded voice answer.
const DefaultMaxAudioBytes = 10 << 20

// Options configures a Server.
type Options struct {
	Sessions *session.Registry
	Bank     *persist.Bank

	// Metrics, when set, instruments every route and serves /metrics.
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// CORSOrigins lists allowed browser origins. "*" allows any.
	CORSOrigins []string

	MaxAudioBytes int64
}

// Server is the HTTP API.
type Server struct {
	opts   Options
	engine *gin.Engine
	logger *slog.Logger
}

// New builds the gin engine and registers every route.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxAudioBytes <= 0 {
		opts.MaxAudioBytes = DefaultMaxAudioBytes
	}

	engine := gin.New()
	s := &Server{opts: opts, engine: engine, logger: opts.Logger}

	engine.Use(s.recovery())
	engine.Use(logging.Middleware(opts.Logger))
	engine.Use(s.instrument())
	engine.Use(cors.New(corsConfig(opts.CORSOrigins)))

	s.routes()
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	cfg.ExposeHeaders = []string{"Content-Length", "Content-Type"}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	if s.opts.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.opts.Metrics.Handler()))
	}

	api := s.engine.Group("/api")
	api.GET("/voices", s.handleVoices)
	api.GET("/categories", s.handleCategories)
	api.GET("/questions", s.handleListQuestions)
	api.POST("/questions", s.handleAddQuestion)

	sessions := api.Group("/sessions")
	{
		sessions.POST("", s.handleCreateSession)
		sessions.GET("/:id", s.withSession(s.handleGetSession))
		sessions.DELETE("/:id", s.handleResetSession)
		sessions.POST("/:id/answers", s.withSession(s.handleAnswer))
		sessions.POST("/:id/skip", s.withSession(s.handleSkip))
		sessions.POST("/:id/replace", s.withSession(s.handleReplace))
		sessions.POST("/:id/questions", s.withSession(s.handleInsertQuestion))
		sessions.POST("/:id/speech", s.withSession(s.handleSpeech))
		sessions.POST("/:id/voice", s.withSession(s.handleVoice))
		sessions.POST("/:id/finish", s.withSession(s.handleFinish))
		sessions.GET("/:id/report", s.withSession(s.handleReport))
		sessions.GET("/:id/report/radar.svg", s.withSession(s.handleRadarSVG))
	}
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then drains in-flight requests
// for at most shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// recovery turns a panic into the generic failure body. The client is
// expected to reset the session.
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		s.logger.Error("panic serving request",
			"method", c.Request.Method, "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal",
			Message: "Something went wrong. Please reset and try again.",
			Action:  "reset",
		})
	})
}

func (s *Server) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.opts.Metrics.ObserveHTTP(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
