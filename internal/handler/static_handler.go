package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
	"github.com/noah-isme/colisselect-api/pkg/response"
)

// NoRoute answers unmatched API paths with a JSON 404 and serves the single page app for everything else.
// An empty staticDir disables the app fallback.
func NoRoute(apiPrefix, staticDir string) gin.HandlerFunc {
	apiPrefix = "/" + strings.Trim(apiPrefix, "/")
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == apiPrefix || strings.HasPrefix(p, apiPrefix+"/") || staticDir == "" ||
			(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "API route not found"))
			return
		}

		file := filepath.Join(staticDir, filepath.FromSlash(path.Clean("/"+p)))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		index := filepath.Join(staticDir, "index.html")
		if _, err := os.Stat(index); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "not found"))
			return
		}
		c.File(index)
	}
}
