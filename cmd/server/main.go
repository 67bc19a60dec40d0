package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/ktran209/go-pos/internal/adapter/handler"
	"github.com/ktran209/go-pos/internal/adapter/storage"
	"github.com/ktran209/go-pos/internal/core/service"
	"github.com/ktran209/go-pos/internal/port"
)

type Config struct {
	HTTPPort        string
	MySQLDSN        string
	RedisAddr       string // empty disables the idempotency guard
	MigrationsDir   string
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MySQLDSN:        getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/pos?parseTime=true"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		MigrationsDir:   getEnv("MIGRATIONS_DIR", "migrations"),
		ShutdownTimeout: 5 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	store := storage.NewMySQLAdapter(db)
	if err := store.Migrate(cfg.MigrationsDir); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	log.Println("migrations applied")

	var idem port.IdempotencyRepository
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		idem = storage.NewRedisAdapter(rdb)
		log.Println("connected to redis, idempotency guard enabled")
	}

	saleService := service.NewSaleService(store, idem)
	catalogService := service.NewCatalogService(store)

	httpHandler := handler.NewHTTPHandler(saleService, catalogService)
	router := handler.NewRouter(httpHandler, store)

	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	if rdb != nil {
		rdb.Close()
	}
	db.Close()
	log.Println("connections closed")
}
