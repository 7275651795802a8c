package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/astra-care/internal/config"
	"github.com/iliyamo/astra-care/internal/database"
	"github.com/iliyamo/astra-care/internal/handler"
	"github.com/iliyamo/astra-care/internal/llm"
	"github.com/iliyamo/astra-care/internal/middleware"
	"github.com/iliyamo/astra-care/internal/queue"
	"github.com/iliyamo/astra-care/internal/repository"
	"github.com/iliyamo/astra-care/internal/router"
	"github.com/iliyamo/astra-care/internal/service"
	"github.com/iliyamo/astra-care/internal/stream"
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	hub := stream.NewHub()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Alert events go through RabbitMQ when it is available; the consumer
	// feeds them back into the websocket hub.
	go func() {
		if err := queue.StartAlertConsumer(ctx, cfg.AMQPURL, hub); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("alert-consumer: stopped: %v", err)
		}
	}()

	users := repository.NewUserRepo(db)
	contexts := repository.NewContextRepo(db)
	vitals := repository.NewVitalsRepo(db)
	health := &service.Health{
		Vitals:    vitals,
		Baselines: repository.NewBaselineRepo(db),
		Contexts:  contexts,
		Alerts:    repository.NewAlertRepo(db),
		Facial:    repository.NewFacialRepo(db),
		Publisher: &service.AMQPPublisher{URL: cfg.AMQPURL, Fallback: hub},
	}
	companion := &service.Companion{
		Chats:  repository.NewChatRepo(db),
		Vitals: vitals,
		LLM:    llm.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel),
	}

	limits := config.LoadRateLimitConfig()
	e := router.New(router.Deps{
		JWTSecret: cfg.JWTSecret,
		Auth:      handler.NewAuthHandler(cfg, users, contexts),
		Telemetry: handler.NewTelemetryHandler(health),
		Chat:      handler.NewChatHandler(companion),
		Hub:       hub,
		Limiter:   middleware.NewTokenBucket(limits, rdb),
		Public:    middleware.NewTokenBucket(limits.Public(), rdb),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		LogAccess: true,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s, db=%s)", addr, cfg.Env, cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
