package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/stooppolitics/stoop-cms/api/admin"
	apiauth "github.com/stooppolitics/stoop-cms/api/auth"
	"github.com/stooppolitics/stoop-cms/api/episodes"
	"github.com/stooppolitics/stoop-cms/api/feed"
	"github.com/stooppolitics/stoop-cms/api/health"
	"github.com/stooppolitics/stoop-cms/api/inbox"
	"github.com/stooppolitics/stoop-cms/api/media"
	"github.com/stooppolitics/stoop-cms/api/middleware"
	"github.com/stooppolitics/stoop-cms/api/public"
	"github.com/stooppolitics/stoop-cms/api/transcription"
	"github.com/stooppolitics/stoop-cms/api/transcripts"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/api/version"
	"github.com/stooppolitics/stoop-cms/api/views"
	_ "github.com/stooppolitics/stoop-cms/docs/swagger"
	apperrors "github.com/stooppolitics/stoop-cms/pkg/errors"
	"github.com/stooppolitics/stoop-cms/pkg/config"
)

// RouteOptions carries the pieces of routing that depend on configuration
type RouteOptions struct {
	Auth         *apiauth.Handler
	Limiters     *RateLimiters
	RateLimiting config.RateLimitConfig
	Cache        middleware.CacheConfig
	ServeMedia   bool // filesystem storage backend
}

// RegisterRoutes registers all routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, opts RouteOptions) {
	if deps == nil {
		deps = &types.Dependencies{}
	}
	if opts.Auth == nil {
		opts.Auth = apiauth.NewHandler(deps)
	}
	limit := func(scope string, rps, burst int) gin.HandlerFunc {
		if opts.Limiters == nil || !opts.RateLimiting.Enabled {
			return func(c *gin.Context) { c.Next() }
		}
		return opts.Limiters.Limit(scope, rps, burst)
	}
	rl := opts.RateLimiting
	h := opts.Auth

	// Health and version (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	// Swagger documentation
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	engine.NoRoute(NotFoundHandler(deps))

	// Public site, RSS and caption export
	cached := middleware.CacheMiddleware(opts.Cache)
	public.RegisterRoutes(engine, deps, cached)
	feed.RegisterRoutes(engine, deps, cached)
	if opts.ServeMedia {
		media.RegisterRoutes(engine, deps)
	}

	// HTML sign-in and admin pages
	engine.GET("/login", h.LoginPage)
	admin.RegisterRoutes(engine, deps, h.RequireSession())

	v1 := engine.Group("/api/v1")

	// Listener inbox (1 req/s, burst of 3 by default)
	inbox.RegisterPublicRoutes(v1.Group("", limit("inbox", rl.InboxRPS, rl.InboxBurst)), deps)

	// Operator sessions
	authGroup := v1.Group("/auth")
	authGroup.POST("/login", limit("login", rl.LoginRPS, rl.LoginBurst), h.Login)
	authGroup.POST("/logout", h.Logout)
	v1.GET("/me", h.AuthMiddleware(), h.Me)

	// Admin API
	adminGroup := v1.Group("/admin", h.AuthMiddleware(), limit("admin", rl.AdminRPS, rl.AdminBurst))
	episodes.RegisterRoutes(adminGroup, deps)
	transcripts.RegisterRoutes(adminGroup, deps)
	inbox.RegisterAdminRoutes(adminGroup, deps)

	// Transcription submission kept at its original path
	submitGroup := engine.Group("/api", h.AuthMiddleware(), limit("admin", rl.AdminRPS, rl.AdminBurst))
	transcription.RegisterRoutes(submitGroup, deps)
}

// NotFoundHandler answers API paths with JSON and everything else with the HTML 404 page
func NotFoundHandler(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || !strings.Contains(c.GetHeader("Accept"), "text/html") {
			c.JSON(http.StatusNotFound, types.ErrorResponse{
				Status:  types.StatusError,
				Message: "The requested endpoint was not found",
				Error:   string(apperrors.ErrCodeNotFound),
				Details: gin.H{"path": path},
			})
			return
		}
		c.HTML(http.StatusNotFound, "message.html", views.MessageData{
			Site:    deps.Site,
			Title:   "Page not found",
			Message: "There is nothing here. Head back to the latest episode.",
		})
	}
}
