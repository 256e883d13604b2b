package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/notify"
	"storefront/internal/reconcile"
	"storefront/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.Load()
	cfg := config.AppEnv
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	l, err := logger.Init(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		log.Fatal(err)
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		l.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config) error {
	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.DBName)
	zap.L().Info("MongoDB connected", zap.String("db", db.Name()))

	if err := database.EnsureIndexes(db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	stores := database.NewStores(db)

	var tracker service.DriftTracker = reconcile.NewMemoryTracker()
	if cfg.RedisAddr != "" {
		redis, err := reconcile.DialRedis(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer redis.Close()
		tracker = reconcile.NewRedisTracker(redis)
		zap.L().Info("drift tracker on redis", zap.String("addr", cfg.RedisAddr))
	}

	hub := notify.NewHub(32)
	sinks := []notify.Sink{hub}
	if cfg.AMQPURL != "" {
		sink, err := notify.DialAMQP(cfg.AMQPURL, cfg.NotifyExchange)
		if err != nil {
			return err
		}
		defer sink.Close()
		sinks = append(sinks, sink)
		zap.L().Info("publishing events to amqp", zap.String("exchange", cfg.NotifyExchange))
	}
	emitter := notify.NewEmitter(cfg.NotifyBuffer, cfg.NotifySendTimeout, sinks...)

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.TokenCacheSize)
	if err != nil {
		return err
	}

	orders := service.NewOrderService(stores.Orders, stores.Products, stores.Users, emitter,
		service.WithStrictTransitions(cfg.StrictStatusTransitions))
	reviews := service.NewReviewService(stores.Reviews, stores.Orders, stores.Products, tracker, emitter)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.Deps{
		Verifier: verifier,
		Orders:   orders,
		Reviews:  reviews,
		Products: service.NewProductService(stores.Products),
		Carts:    service.NewCartService(stores.Users, stores.Products),
		Wishlist: service.NewWishlistService(stores.Users, stores.Products),
		Messages: service.NewMessageService(stores.Messages, emitter),
		Accounts: service.NewAuthService(stores.Users, emitter, cfg.JWTSecret, cfg.AccessTokenTTL),
		Events:   hub,
		Health:   func(ctx context.Context) error { return database.Ping(ctx, db) },
	})

	sweeper := reconcile.NewSweeper(cfg.ReconcileInterval,
		reconcile.JobFunc{Label: "rating-drift", Fn: reviews.ReconcileDrift},
		reconcile.JobFunc{Label: "cart-clear", Fn: orders.ReconcileCarts},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(hub.Close)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		zap.L().Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return emitter.Run(gctx) })
	g.Go(func() error { return sweeper.Run(gctx) })

	return g.Wait()
}
