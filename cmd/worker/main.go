// worker 运行读模型投影消费者、通知分发消费者与过期扫描任务。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	giftcardapp "github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/application"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/infrastructure/messaging"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/infrastructure/persistence"
	giftcardmysql "github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/infrastructure/persistence/mysql"
	giftcardconsumer "github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/interfaces/consumer"
	notificationapp "github.com/DominikK03/GiftCardSystem-sub001/internal/notification/application"
	notificationmysql "github.com/DominikK03/GiftCardSystem-sub001/internal/notification/infrastructure/persistence/mysql"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/notification/infrastructure/sender"
	notificationconsumer "github.com/DominikK03/GiftCardSystem-sub001/internal/notification/interfaces/consumer"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/cache"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/config"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/db"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/metrics"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/mq"
)

var configPath = flag.String("config", "configs/worker/config.toml", "config file path")

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

	eventStore := persistence.NewTenantEventStore(giftcardmysql.NewEventStore(database.DB), metricsImpl)
	cardRepo := persistence.NewGiftCardRepository(eventStore)
	viewRepo := giftcardmysql.NewViewRepository(database.DB)

	querySvc := giftcardapp.NewQueryService(viewRepo, redisCache)
	projection := giftcardapp.NewProjection(eventStore, viewRepo, querySvc)
	// 过期命令产生的集成事件同样走 Outbox，由 API 服务的 relay 统一投递
	commandSvc := giftcardapp.NewCommandService(cardRepo, messaging.NewOutboxPublisher(database.DB), database.DB, metricsImpl)

	endpointRepo := notificationmysql.NewEndpointRepository(database.DB)
	dispatchSvc := notificationapp.NewDispatchService(
		endpointRepo,
		sender.NewWebhookSender(),
		sender.NewRealtimePublisher(redisCache),
		metricsImpl,
	)

	kafkaCfg := mq.Config{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}

	projectionConsumer := mq.NewConsumer(
		mq.Config{
			Brokers:        kafkaCfg.Brokers,
			GroupID:        kafkaCfg.GroupID + "-projection",
			SessionTimeout: kafkaCfg.SessionTimeout,
		},
		giftcardconsumer.ProjectionTopics,
		giftcardconsumer.NewProjectionHandler(projection).Handle,
	)
	dispatchConsumer := mq.NewConsumer(
		mq.Config{
			Brokers:        kafkaCfg.Brokers,
			GroupID:        kafkaCfg.GroupID + "-dispatch",
			SessionTimeout: kafkaCfg.SessionTimeout,
		},
		giftcardconsumer.ProjectionTopics,
		notificationconsumer.NewDispatchHandler(dispatchSvc).Handle,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return projectionConsumer.Run(gctx) })
	g.Go(func() error { return dispatchConsumer.Run(gctx) })

	var scheduler *cron.Cron
	if cfg.ExpirySweep.Enabled {
		expiryJob := giftcardapp.NewExpiryJob(viewRepo, commandSvc, cfg.ExpirySweep.BatchSize)
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(cfg.ExpirySweep.Schedule, func() {
			expiryJob.Run(gctx)
		}); err != nil {
			logger.Fatal(ctx, "invalid expiry sweep schedule", "schedule", cfg.ExpirySweep.Schedule, "error", err)
		}
		scheduler.Start()
		logger.Info(ctx, "expiry sweep scheduled", "schedule", cfg.ExpirySweep.Schedule)
	}

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			logger.Info(gctx, "shutdown signal received", "signal", sig.String())
			return context.Canceled
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx, "worker exited with error", "error", err)
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	if err := projectionConsumer.Close(); err != nil {
		logger.Warn(ctx, "failed to close projection consumer", "error", err)
	}
	if err := dispatchConsumer.Close(); err != nil {
		logger.Warn(ctx, "failed to close dispatch consumer", "error", err)
	}
	if err := redisCache.Close(); err != nil {
		logger.Warn(ctx, "failed to close redis", "error", err)
	}
	if err := database.Close(); err != nil {
		logger.Warn(ctx, "failed to close database", "error", err)
	}
	logger.Info(ctx, "worker stopped")
}
