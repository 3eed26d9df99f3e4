package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/item-service/internal/config"
	"github.com/iliyamo/item-service/internal/database"
	"github.com/iliyamo/item-service/internal/handler"
	"github.com/iliyamo/item-service/internal/middleware"
	"github.com/iliyamo/item-service/internal/queue"
	"github.com/iliyamo/item-service/internal/repository"
	"github.com/iliyamo/item-service/internal/router"
	"github.com/iliyamo/item-service/internal/service"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	bootCtx, cancelBoot := context.WithTimeout(ctx, cfg.BootTimeout)
	err = database.EnsureSchema(bootCtx, db)
	cancelBoot()
	if err != nil {
		// the store may come up later; keep serving and retry in the background
		log.Printf("database not ready yet: %v", err)
		go func() {
			if err := database.EnsureSchemaWithRetry(ctx, db, cfg.SchemaRetryMax); err == nil {
				log.Printf("database: schema ready")
			}
		}()
	}

	events := config.LoadEventsConfig()
	pub, err := service.NewPublisher(events)
	if err != nil {
		log.Printf("events: %v; publishing disabled", err)
		pub = service.NopPublisher{}
	}
	defer pub.Close()
	if events.ConsumerEnabled && events.Backend == config.EventsRabbitMQ {
		go func() { _ = queue.StartItemConsumer(ctx, events.AMQPURL, events.LogDir) }()
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	cacheCfg := config.LoadCacheConfig()

	e := router.NewServer()
	router.RegisterRoutes(e,
		handler.NewItemHandler(repository.NewItemRepo(db), pub),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(cacheCfg, rdb),
		middleware.InvalidateOnWrite(cacheCfg, rdb),
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, events=%s)", addr, cfg.Env, events.Backend)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
