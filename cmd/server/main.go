package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JustBrowsing/command-service/config"
	"github.com/JustBrowsing/command-service/internal/adapter/handler"
	"github.com/JustBrowsing/command-service/internal/adapter/messaging"
	"github.com/JustBrowsing/command-service/internal/adapter/storage"
	"github.com/JustBrowsing/command-service/internal/core/service"
	"github.com/JustBrowsing/command-service/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrationsPath := flag.String("migrations", "migrations", "path to migration files")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Fatal("failed to connect mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime.Std())

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to ping mysql", zap.Error(err))
	}
	log.Info("connected to mysql")

	if err := runMigrations(db, *migrationsPath); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("migrations applied")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	log.Info("connected to redis")

	// Initialize Kafka producer
	publisher, err := messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.ProduceTimeout.Std())
	if err != nil {
		log.Fatal("failed to connect kafka", zap.Error(err))
	}
	log.Info("connected to kafka", zap.Strings("brokers", cfg.Kafka.Brokers))

	// Initialize adapters and services
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)

	inventoryService := service.NewInventoryService(mysqlAdapter, mysqlAdapter, log)
	productService := service.NewProductService(mysqlAdapter, log)
	orderService := service.NewOrderService(mysqlAdapter, mysqlAdapter, inventoryService, redisAdapter, log)
	relay := service.NewOutboxRelay(mysqlAdapter, publisher, cfg.Outbox.PollInterval.Std(), cfg.Outbox.BatchSize, log)

	// Start outbox relay
	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		relay.Run(relayCtx)
	}()
	log.Info("outbox relay started",
		zap.Duration("interval", cfg.Outbox.PollInterval.Std()),
		zap.Int("batch_size", cfg.Outbox.BatchSize),
	)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(productService, inventoryService, orderService)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}

	go func() {
		log.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("http server stopped")

	stopRelay()
	<-relayDone

	publisher.Close()
	rdb.Close()
	db.Close()
	log.Info("connections closed")
}

func runMigrations(db *sql.DB, path string) error {
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+path, "mysql", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
