// Package httpapi serves the chat widget and the catalog over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexanderramin/coursechat/internal/intelligence"
	"github.com/alexanderramin/coursechat/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	// ClientTag marks analytics sessions opened through the API.
	ClientTag = "http"

	DefaultSessionTTL = 30 * time.Minute
	shutdownTimeout   = 10 * time.Second
)

type Deps struct {
	Chat      intelligence.ChatService
	Courses   service.CourseService
	Analytics service.AnalyticsService
}

type Options struct {
	// Mode is the gin mode; empty keeps gin's current mode.
	Mode string
	// AdminToken guards /api/admin; empty leaves those routes unmounted.
	AdminToken string
	SessionTTL time.Duration
	Greeting   string
}

type Server struct {
	deps     Deps
	opts     Options
	logger   *slog.Logger
	sessions *sessionRegistry
	router   *gin.Engine
}

func New(deps Deps, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	s := &Server{
		deps:     deps,
		opts:     opts,
		logger:   logger,
		sessions: newSessionRegistry(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	{
		api.POST("/sessions", s.createSession)
		api.POST("/sessions/:id/messages", s.sendMessage)
		api.POST("/sessions/:id/restart", s.restartSession)
		api.POST("/sessions/:id/conversion", s.recordConversion)
		api.DELETE("/sessions/:id", s.endSession)

		api.GET("/courses", s.listCourses)
		api.GET("/search", s.searchCourses)
		api.GET("/details/:course", s.courseDetails)
	}

	if s.opts.AdminToken != "" {
		admin := api.Group("/admin", adminAuth(s.opts.AdminToken))
		admin.GET("/analytics", s.showAnalytics)
		admin.DELETE("/analytics", s.clearAnalytics)
		admin.POST("/catalog/refresh", s.refreshCatalog)
	}
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully and
// closes the analytics sessions of the remaining conversations.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// Exchanges wait on the model, retries included.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	go s.reap(ctx)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeAll(shutdownCtx)
	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) reap(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SessionTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, conv := range s.sessions.expire(s.opts.SessionTTL) {
				s.endConversation(ctx, conv)
			}
		}
	}
}

func (s *Server) closeAll(ctx context.Context) {
	for _, conv := range s.sessions.drain() {
		s.endConversation(ctx, conv)
	}
}

func (s *Server) endConversation(ctx context.Context, conv *intelligence.Conversation) {
	if err := s.deps.Chat.End(ctx, conv); err != nil {
		s.logger.Warn("closing analytics session failed", "error", err)
	}
}
