package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/pkg/config"
	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
	"github.com/noah-isme/colisselect-api/pkg/logger"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

var tokens = stubValidator{
	"admin-token":    {UserID: 1, Role: models.RoleAdmin},
	"agent-token":    {UserID: 2, Role: models.RoleAgent},
	"customer-token": {UserID: 7, Role: models.RoleUser},
}

func do(r *gin.Engine, method, path, token string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWT(tokens), func(c *gin.Context) {
		claims, _ := Claims(c)
		userID, _ := c.Get(logger.ContextUserIDKey)
		c.JSON(http.StatusOK, gin.H{"role": claims.Role, "user_id": userID})
	})

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "forged", nil).Code)

	w := do(r, http.MethodGet, "/me", "agent-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role":"agent","user_id":2}`, w.Body.String())
}

func TestJWTQueryTokenOnlyOnUpgrade(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", JWT(tokens), func(c *gin.Context) {
		claims, _ := Claims(c)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	upgrade := map[string]string{"Connection": "Upgrade", "Upgrade": "websocket"}

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/ws?access_token=agent-token", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/ws", "", upgrade).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/ws?access_token=forged", "", upgrade).Code)

	w := do(r, http.MethodGet, "/ws?access_token=agent-token", "", upgrade)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":2}`, w.Body.String())
}

func TestRBAC(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWT(tokens))
	r.GET("/back-office", RequireStaff(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.PUT("/users/:id", RBAC(string(models.RoleAdmin), SelfAccess), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/back-office", "agent-token", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/back-office", "customer-token", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/users/7", "customer-token", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPut, "/users/8", "customer-token", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/users/8", "admin-token", nil).Code)
}

func TestAdminMarker(t *testing.T) {
	gin.SetMode(gin.TestMode)
	newRouter := func(cfg config.AdminConfig) *gin.Engine {
		r := gin.New()
		r.Use(OptionalJWT(tokens), AdminMarker(cfg))
		r.POST("/shipments", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"admin": IsAdminRequest(c)})
		})
		return r
	}
	marker := map[string]string{"X-Admin-Request": "true"}

	strict := newRouter(config.AdminConfig{RequestHeader: "X-Admin-Request"})
	cases := []struct {
		name    string
		token   string
		headers map[string]string
		want    string
	}{
		{"staff with header", "agent-token", marker, `{"admin":true}`},
		{"staff without header", "agent-token", nil, `{"admin":false}`},
		{"customer with header", "customer-token", marker, `{"admin":false}`},
		{"anonymous with header", "", marker, `{"admin":false}`},
		{"header false", "admin-token", map[string]string{"X-Admin-Request": "false"}, `{"admin":false}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(strict, http.MethodPost, "/shipments", tc.token, tc.headers)
			assert.JSONEq(t, tc.want, w.Body.String())
		})
	}

	trusting := newRouter(config.AdminConfig{TrustHeader: true})
	assert.JSONEq(t, `{"admin":true}`, do(trusting, http.MethodPost, "/shipments", "", marker).Body.String())
}

type observedRequest struct {
	method, path string
	status       int
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observedRequest
}

func (o *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observedRequest{method, path, status})
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/shipments/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet, "/shipments/42", "", nil)
	do(r, http.MethodGet, "/nowhere", "", nil)

	assert.Equal(t, []observedRequest{
		{http.MethodGet, "/shipments/:id", http.StatusOK},
		{http.MethodGet, "unmatched", http.StatusNotFound},
	}, observer.seen)
}

func TestResponseMetaRecordsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/track", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	w := do(r, http.MethodGet, "/track", "", nil)
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestExtractMetaEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/plain", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"meta": ExtractMeta(c)})
	})

	w := do(r, http.MethodGet, "/plain", "", nil)
	assert.JSONEq(t, `{"meta":null}`, w.Body.String())
}
