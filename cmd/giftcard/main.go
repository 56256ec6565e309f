package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	giftcardapp "github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/application"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/infrastructure/messaging"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/infrastructure/persistence"
	giftcardmysql "github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/infrastructure/persistence/mysql"
	giftcardhttp "github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/interfaces/http"
	notificationapp "github.com/DominikK03/GiftCardSystem-sub001/internal/notification/application"
	notificationdomain "github.com/DominikK03/GiftCardSystem-sub001/internal/notification/domain"
	notificationmysql "github.com/DominikK03/GiftCardSystem-sub001/internal/notification/infrastructure/persistence/mysql"
	notificationhttp "github.com/DominikK03/GiftCardSystem-sub001/internal/notification/interfaces/http"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/cache"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/config"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/db"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/metrics"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/middleware"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/mq"
)

var configPath = flag.String("config", "configs/giftcard/config.toml", "config file path")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Logger); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	ctx := context.Background()

	metricsImpl := metrics.New(cfg.ServiceName)
	if cfg.Metrics.Enabled {
		go metricsImpl.ExposeHTTP(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to connect database", "error", err)
	}

	// 开发环境自动建表
	if cfg.Environment == "dev" {
		if err := database.AutoMigrate(
			&giftcardmysql.EventPO{},
			&domain.CardView{},
			&messaging.OutboxMessage{},
			&notificationdomain.WebhookEndpoint{},
			&notificationdomain.Delivery{},
		); err != nil {
			logger.Error(ctx, "failed to migrate database", "error", err)
		}
	}

	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", "error", err)
	}

	producer := mq.NewProducer(mq.Config{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})

	// 事件存储：MySQL 实现外层包租户隔离装饰器
	eventStore := persistence.NewTenantEventStore(giftcardmysql.NewEventStore(database.DB), metricsImpl)
	cardRepo := persistence.NewGiftCardRepository(eventStore)
	viewRepo := giftcardmysql.NewViewRepository(database.DB)

	outboxPub := messaging.NewOutboxPublisher(database.DB)
	outboxRelay := messaging.NewOutboxRelay(database.DB, producer, metricsImpl, time.Second, 100)

	commandSvc := giftcardapp.NewCommandService(cardRepo, outboxPub, database.DB, metricsImpl)
	querySvc := giftcardapp.NewQueryService(viewRepo, redisCache)

	endpointRepo := notificationmysql.NewEndpointRepository(database.DB)
	endpointSvc := notificationapp.NewEndpointService(endpointRepo)

	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(
		middleware.GinRecovery(),
		middleware.GinLogging(),
		middleware.GinMetrics(metricsImpl),
		middleware.GinCORS(),
	)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.Use(tenant.GinMiddleware(cfg.Auth.JWTSecret, cfg.Auth.TenantClaim))

	giftcardhttp.NewGiftCardHandler(commandSvc, querySvc).RegisterRoutes(api)
	notificationhttp.NewWebhookHandler(endpointSvc).RegisterRoutes(api)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info(gctx, "outbox relay starting")
		if err := outboxRelay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			logger.Info(gctx, "shutdown signal received", "signal", sig.String())
		case <-gctx.Done():
			return gctx.Err()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx, "server exited with error", "error", err)
	}

	if err := producer.Close(); err != nil {
		logger.Warn(ctx, "failed to close kafka producer", "error", err)
	}
	if err := redisCache.Close(); err != nil {
		logger.Warn(ctx, "failed to close redis", "error", err)
	}
	if err := database.Close(); err != nil {
		logger.Warn(ctx, "failed to close database", "error", err)
	}
	logger.Info(ctx, "server stopped")
}
