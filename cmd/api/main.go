package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/colisselect-api/api/swagger"
	"github.com/noah-isme/colisselect-api/internal/handler"
	"github.com/noah-isme/colisselect-api/internal/notification"
	"github.com/noah-isme/colisselect-api/internal/realtime"
	"github.com/noah-isme/colisselect-api/internal/repository"
	"github.com/noah-isme/colisselect-api/internal/repository/mongostore"
	"github.com/noah-isme/colisselect-api/internal/service"
	"github.com/noah-isme/colisselect-api/pkg/cache"
	"github.com/noah-isme/colisselect-api/pkg/config"
	"github.com/noah-isme/colisselect-api/pkg/database"
	"github.com/noah-isme/colisselect-api/pkg/logger"
	"github.com/noah-isme/colisselect-api/pkg/resilience"
	"github.com/noah-isme/colisselect-api/pkg/tracing"
)

// @title ColisSelect API
// @version 1.0.0
// @description Shipment tracking, tracking history and logistics quoting.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	tracer, err := tracing.Initialize(ctx, cfg.Tracing, cfg.Env)
	if err != nil {
		return err
	}
	defer shutdown(logr, "tracer", tracer.Shutdown)

	repos, err := openStore(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer shutdown(logr, "store", repos.Close)

	if err := service.NewSeeder(repos, cfg.Seed, logr).Run(ctx); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	metrics := service.NewMetricsService()
	validate := service.NewValidator()
	checks := map[string]handler.Pinger{"store": repos}

	var cacheRepo service.CacheRepository
	if cfg.TrackingCache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return err
		}
		redisCache := repository.NewCacheRepository(client)
		defer redisCache.Close() //nolint:errcheck
		cacheRepo = redisCache
		checks["redis"] = redisCache
	}
	trackingCache := service.NewCacheService(cacheRepo, metrics, cfg.TrackingCache.TTL, logr, cfg.TrackingCache.Enabled)

	sender, err := newSender(cfg.Notifier, logr)
	if err != nil {
		return err
	}
	dispatcher := notification.NewDispatcher(sender, metrics, notification.DispatcherConfig{
		Workers: cfg.Notifier.Workers,
		Buffer:  cfg.Notifier.Buffer,
	}, logr)
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Stop()

	var publisher service.EventPublisher
	var hub *realtime.Hub
	if cfg.Realtime.Enabled {
		hub = realtime.NewHub(logr, cfg.CORS.AllowedOrigins)
		defer hub.Close()
		publisher = hub
	}

	shipments := service.NewShipmentService(repos.Shipments, service.ShipmentServiceOptions{
		Tracking:  cfg.Tracking,
		Notifier:  dispatcher,
		Publisher: publisher,
		Cache:     trackingCache,
		Metrics:   metrics,
		Validator: validate,
	}, logr)
	tracking := service.NewTrackingService(repos.History, repos.Shipments, service.TrackingServiceOptions{
		Cache:     trackingCache,
		CacheTTL:  cfg.TrackingCache.TTL,
		Publisher: publisher,
		Metrics:   metrics,
		Validator: validate,
	}, logr)
	var realtimeHandler *handler.RealtimeHandler
	if hub != nil {
		realtimeHandler = handler.NewRealtimeHandler(hub, tracking)
	}
	auth := service.NewAuthService(repos.Users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	router := handler.NewRouter(cfg, logr, auth, metrics, handler.Handlers{
		Auth:      handler.NewAuthHandler(auth),
		Users:     handler.NewUserHandler(service.NewUserService(repos.Users, validate, logr)),
		Shipments: handler.NewShipmentHandler(shipments, service.NewExportService(repos.Shipments, repos.History, logr)),
		Tracking:  handler.NewTrackingHandler(tracking),
		Reference: handler.NewReferenceHandler(service.NewReferenceService(repos, validate, logr)),
		Quotes:    handler.NewQuoteHandler(service.NewQuoteService(repos, validate, logr), service.NewStatsService(repos.Shipments, logr)),
		System:    handler.NewSystemHandler(metrics, checks),
		Realtime:  realtimeHandler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*repository.Repositories, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		client, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		repos, err := mongostore.New(ctx, client.Database(cfg.Mongo.Database))
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return repos, nil
	case config.StoreDriverPostgres, "":
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
			logr.Info("schema applied")
		}
		return repository.NewPostgresRepositories(db), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newSender(cfg config.NotifierConfig, logr *zap.Logger) (notification.Sender, error) {
	var sink notification.Sender
	switch cfg.Driver {
	case config.NotifierAMQP:
		amqpSender, err := notification.NewAMQPSender(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		sink = amqpSender
	case config.NotifierKafka:
		sink = notification.NewKafkaSender(cfg.KafkaBrokers, cfg.KafkaTopic)
	default:
		return notification.NewLogSender(logr), nil
	}
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Name:             "notifier-" + cfg.Driver,
		Timeout:          cfg.BreakerTimeout,
		FailureThreshold: uint32(cfg.BreakerFailures),
	}, logr)
	return notification.NewBreakerSender(sink, breaker), nil
}

func shutdown(logr *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logr.Warn("shutdown failed", zap.String("component", name), zap.Error(err))
	}
}
