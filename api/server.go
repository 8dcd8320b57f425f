package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	apiauth "github.com/stooppolitics/stoop-cms/api/auth"
	"github.com/stooppolitics/stoop-cms/api/middleware"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/api/views"
	"github.com/stooppolitics/stoop-cms/pkg/config"
)

// Server represents the HTTP server
type Server struct {
	engine       *gin.Engine
	httpServer   *http.Server
	cfg          *config.Config
	rateLimiters *RateLimiters
	authHandler  *apiauth.Handler
	stopCache    func()

	// Dependencies for handlers
	dependencies *types.Dependencies
}

// NewServer creates a new HTTP server from the server section of cfg
func NewServer(cfg *config.Config) *Server {
	// Create Gin engine with recovery middleware only
	engine := gin.New()
	engine.Use(gin.Recovery())

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	return &Server{
		engine:       engine,
		cfg:          cfg,
		rateLimiters: NewRateLimiters(),
		httpServer: &http.Server{
			Addr:           address,
			Handler:        engine,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		},
	}
}

// SetDependencies sets all handler dependencies
func (s *Server) SetDependencies(deps *types.Dependencies) {
	s.dependencies = deps
}

// SetCacheStopper registers the function that stops the response cache janitor
func (s *Server) SetCacheStopper(stop func()) {
	s.stopCache = stop
}

// Engine returns the Gin engine for testing
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Address returns the listen address
func (s *Server) Address() string {
	return s.httpServer.Addr
}

// Initialize sets up templates, middleware and routes
func (s *Server) Initialize() error {
	if s.dependencies == nil {
		s.dependencies = &types.Dependencies{}
	}

	tmpl, err := views.Templates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	s.engine.SetHTMLTemplate(tmpl)

	s.setupMiddleware()
	s.setupAuth()
	s.setupRoutes()
	return nil
}

// setupMiddleware configures global middleware
func (s *Server) setupMiddleware() {
	s.engine.Use(gin.Logger())
	s.engine.Use(CORS())

	uploadMax := s.dependencies.MaxUploadBytes
	if uploadMax <= 0 {
		uploadMax = s.cfg.Server.MaxUploadBytes
	}
	s.engine.Use(BodySizeLimit(1024*1024, uploadMax))
}

func (s *Server) setupAuth() {
	s.authHandler = apiauth.NewHandler(s.dependencies)
	s.authHandler.SetSecureCookie(strings.HasPrefix(s.cfg.Server.PublicURL, "https://"))

	if s.cfg.Auth.DevAuthEnabled {
		if config.IsProduction() {
			log.Printf("[WARN] Ignoring dev auth in production")
			return
		}
		s.authHandler.SetDevAuth(true, s.cfg.Auth.DevAuthToken)
	}
}

// setupRoutes delegates to the main route registration
func (s *Server) setupRoutes() {
	deps := s.dependencies
	RegisterRoutes(s.engine, deps, RouteOptions{
		Auth:         s.authHandler,
		Limiters:     s.rateLimiters,
		RateLimiting: s.cfg.RateLimiting,
		Cache: middleware.CacheConfig{
			Cache:      deps.Cache,
			DefaultTTL: s.cfg.Cache.PageTTL,
			TTLByPath:  map[string]time.Duration{"/feed.xml": s.cfg.Cache.FeedTTL},
			Enabled:    s.cfg.Cache.Enabled && deps.Cache != nil,
		},
		ServeMedia: s.cfg.Storage.Backend == "filesystem" && deps.Media != nil,
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopCache != nil {
		s.stopCache()
	}
	s.rateLimiters.Stop()

	return s.httpServer.Shutdown(ctx)
}
