package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/colisselect-api/internal/middleware"
	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/pkg/config"
	"github.com/noah-isme/colisselect-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/colisselect-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/colisselect-api/pkg/middleware/requestid"
)

// Handlers bundles everything the router mounts. Realtime may be nil when the feed is disabled.
type Handlers struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Shipments *ShipmentHandler
	Tracking  *TrackingHandler
	Reference *ReferenceHandler
	Quotes    *QuoteHandler
	System    *SystemHandler
	Realtime  *RealtimeHandler
}

// NewRouter builds the gin engine with the middleware chain and every route.
func NewRouter(cfg *config.Config, logr *zap.Logger, tokens middleware.TokenValidator, observer middleware.RequestObserver, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, cfg.Admin.RequestHeader))
	r.Use(middleware.Metrics(observer))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.System.Health)
	r.GET("/ready", h.System.Ready)
	r.GET("/metrics", h.System.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := []gin.HandlerFunc{middleware.JWT(tokens), middleware.RequireStaff()}
	admin := []gin.HandlerFunc{middleware.JWT(tokens), middleware.RequireRoles(models.RoleAdmin)}

	if h.Realtime != nil {
		r.GET("/ws/shipments/:id", middleware.JWT(tokens), middleware.RequireStaff(), h.Realtime.Subscribe)
		r.GET("/ws/track/:tracking_number", h.Realtime.Track)
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.OptionalJWT(tokens))

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/register", h.Auth.Register)
	api.GET("/auth/me", middleware.JWT(tokens), h.Auth.Me)

	api.POST("/shipments", middleware.AdminMarker(cfg.Admin), h.Shipments.Create)
	api.GET("/track/:tracking_number", h.Tracking.Track)
	api.POST("/quotes", h.Quotes.Quote)

	back := api.Group("", staff...)
	back.GET("/shipments", h.Shipments.List)
	back.GET("/shipments/export", h.Shipments.Export)
	back.GET("/shipments/:id", h.Shipments.Get)
	back.PUT("/shipments/:id", h.Shipments.Update)
	back.DELETE("/shipments/:id", h.Shipments.Delete)
	back.POST("/shipments/:id/confirm", h.Shipments.Confirm)
	back.POST("/shipments/:id/reject", h.Shipments.Reject)
	back.GET("/shipments/:id/waybill", h.Shipments.Waybill)

	back.GET("/tracking-history/:shipment_id", h.Tracking.List)
	back.POST("/tracking-history/:shipment_id", h.Tracking.Append)
	back.PUT("/tracking-history/:id", h.Tracking.Update)
	back.DELETE("/tracking-history/:id", h.Tracking.Delete)

	back.GET("/stats", h.Quotes.Stats)
	back.GET("/metrics/snapshot", h.System.Snapshot)

	// Rate tables stay readable for the public quote page.
	h.Reference.Register(api, nil, staff)

	users := api.Group("/users", admin...)
	users.GET("", h.Users.List)
	users.POST("", h.Users.Create)
	users.GET("/:id", h.Users.Get)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)

	r.NoRoute(NoRoute(cfg.APIPrefix, cfg.StaticDir))
	return r
}
