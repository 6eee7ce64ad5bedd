package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins, "X-Admin-Request"))
	r.POST("/api/shipments", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func TestPreflightAllowsAdminHeader(t *testing.T) {
	r := newRouter(nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/shipments", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Admin-Request")
}

func TestUnknownOriginIsNotEchoed(t *testing.T) {
	r := newRouter([]string{"https://colisselect.com/"})
	req := httptest.NewRequest(http.MethodPost, "/api/shipments", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginMatcher(t *testing.T) {
	listed := OriginMatcher([]string{"https://colisselect.com/", " http://localhost:5173"})
	assert.True(t, listed("https://colisselect.com"))
	assert.True(t, listed("http://localhost:5173/"))
	assert.False(t, listed("https://evil.example"))

	assert.True(t, OriginMatcher(nil)("https://anything.example"))
	assert.True(t, OriginMatcher([]string{"*"})("https://anything.example"))
}
