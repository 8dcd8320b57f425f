package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
)

// Get handles health check requests
// @Summary Health check
// @Description Reports database connectivity and which optional integrations are configured
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK

		db := getDatabaseStatus(deps)
		if db["status"] == "error" {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":        status,
			"version":       version(deps),
			"timestamp":     time.Now().UTC().Format(time.RFC3339),
			"database":      db,
			"transcription": configured(deps != nil && deps.TranscriptionService != nil),
			"auth":          configured(deps != nil && deps.Auth != nil),
			"cache":         configured(deps != nil && deps.Cache != nil),
		})
	}
}

// getDatabaseStatus returns the database connection status
func getDatabaseStatus(deps *types.Dependencies) gin.H {
	if deps == nil || deps.DB == nil || deps.DB.DB == nil {
		return gin.H{"status": "not configured", "connected": false}
	}

	if err := deps.DB.HealthCheck(); err != nil {
		return gin.H{"status": "error", "connected": false, "error": err.Error()}
	}

	return gin.H{"status": "connected", "connected": true, "driver": deps.DB.Driver()}
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func version(deps *types.Dependencies) string {
	if deps == nil || deps.Version == "" {
		return "dev"
	}
	return deps.Version
}
