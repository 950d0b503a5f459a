package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/rl1809/order-management/internal/adapter/handler"
	"github.com/rl1809/order-management/internal/adapter/storage"
	"github.com/rl1809/order-management/internal/config"
	"github.com/rl1809/order-management/internal/core/service"
	"github.com/rl1809/order-management/internal/pkg/tracing"
	"github.com/rl1809/order-management/internal/port"
)

const serviceName = "order-management"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	// MySQL: pool is tuned on the raw connection, then handed to gorm.
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mysql")
	}
	db.SetMaxOpenConns(cfg.MySQLMaxOpen)
	db.SetMaxIdleConns(cfg.MySQLMaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping mysql")
	}
	log.Info().Msg("connected to mysql")

	gormDB, err := gorm.Open(gormmysql.New(gormmysql.Config{Conn: db}), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open gorm")
	}

	// Redis is optional: without it the per-order mutex is a no-op and the
	// product row lock carries the load alone.
	var (
		locks port.LockManager = storage.NoopLockManager{}
		rdb   *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: 100})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		locks = storage.NewRedisLockManager(rdb, cfg.LockTTL(), true)
		log.Info().Msg("connected to redis")
	} else {
		log.Warn().Msg("no redis configured, advisory lock disabled")
	}

	var tp interface{ Shutdown(context.Context) error }
	if cfg.JaegerEndpoint != "" {
		tp, err = tracing.InitTracerProvider(serviceName, cfg.JaegerEndpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize tracer provider")
		}
	}

	store := storage.NewGormStore(gormDB)
	orderService := service.NewOrderService(store, locks)

	mux := http.NewServeMux()
	httpHandler := handler.NewHTTPHandler(orderService, db)
	httpHandler.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	log.Info().Msg("HTTP server stopped")

	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("tracer provider shutdown error")
		}
	}

	if rdb != nil {
		rdb.Close()
	}
	db.Close()
	log.Info().Msg("connections closed")
}
