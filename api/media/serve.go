package media

import (
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/internal/services/intake"
	"github.com/stooppolitics/stoop-cms/internal/services/storage"
)

// Serve streams a stored object by key
// @Summary Stored media
// @Description Serves uploaded audio and cover images from local storage. Range requests are supported.
// @Tags media
// @Produce octet-stream
// @Param key path string true "Object key, e.g. audio/1700000000-audio.webm"
// @Success 200 {file} binary
// @Success 206 {file} binary
// @Failure 404 {object} types.ErrorResponse
// @Router /media/{key} [get]
func Serve(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if key == "" || deps.Media == nil {
			types.SendNotFound(c, "Media not found")
			return
		}

		object, err := deps.Media.Open(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidKey) {
				types.SendNotFound(c, "Media not found")
				return
			}
			log.Printf("[ERROR] Failed to open media %s: %v", key, err)
			types.SendInternalError(c, "Failed to read media")
			return
		}
		defer object.Close()

		if contentType := contentTypeFor(key); contentType != "" {
			c.Header("Content-Type", contentType)
		}
		c.Header("Accept-Ranges", "bytes")
		c.Header("Cache-Control", "public, max-age=86400")
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")

		// Files support Range and conditional requests; anything else is streamed whole
		if seeker, ok := object.(io.ReadSeeker); ok {
			modTime := time.Time{}
			if f, ok := object.(*os.File); ok {
				if info, err := f.Stat(); err == nil {
					modTime = info.ModTime()
				}
			}
			http.ServeContent(c.Writer, c.Request, path.Base(key), modTime, seeker)
			return
		}

		c.Status(http.StatusOK)
		if c.Request.Method == http.MethodHead {
			return
		}
		if _, err := io.Copy(c.Writer, object); err != nil {
			log.Printf("[WARN] Media stream interrupted for %s: %v", key, err)
		}
	}
}

// contentTypeFor prefers the audio intake table, then the system MIME table for covers
func contentTypeFor(key string) string {
	if intake.Extension(intake.File{Name: key}) != "" {
		return intake.ContentType(intake.File{Name: key})
	}
	return mime.TypeByExtension(path.Ext(key))
}

// HandleOptions answers CORS preflight requests for media
func HandleOptions() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Range")
		c.Header("Access-Control-Max-Age", "86400")
		c.Status(http.StatusNoContent)
	}
}
