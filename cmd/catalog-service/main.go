package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	cataloghttp "github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/http"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/publisher"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/repository"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/catalog/service"
)

type config struct {
	httpPort        string
	pgHost          string
	pgPort          int
	pgUser          string
	pgPassword      string
	pgDBName        string
	migrationsPath  string
	kafkaBrokers    []string
	kafkaTopic      string
	requestTimeout  time.Duration
	shutdownTimeout time.Duration
}

func loadConfig() *config {
	pgPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		pgPort = 5432
	}
	return &config{
		httpPort:        getEnv("HTTP_PORT", "8080"),
		pgHost:          getEnv("POSTGRES_HOST", "localhost"),
		pgPort:          pgPort,
		pgUser:          getEnv("POSTGRES_USER", "catalog"),
		pgPassword:      getEnv("POSTGRES_PASSWORD", "catalog"),
		pgDBName:        getEnv("POSTGRES_DB", "catalogdb"),
		migrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations/catalog"),
		kafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		kafkaTopic:      getEnv("KAFKA_TOPIC", "product-changed"),
		requestTimeout:  10 * time.Second,
		shutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	repo, err := repository.NewRepository(&repository.Credentials{
		Host:     cfg.pgHost,
		Port:     cfg.pgPort,
		User:     cfg.pgUser,
		Password: cfg.pgPassword,
		DBName:   cfg.pgDBName,
	})
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.migrationsPath); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("migrations completed")

	changePublisher := publisher.NewKafkaPublisher(cfg.kafkaTopic, cfg.kafkaBrokers...)
	defer changePublisher.Close()

	productService := service.NewProductService(repo, changePublisher, logger)
	categoryService := service.NewCategoryService(repo.Categories())

	handler := cataloghttp.NewCatalogHandler(productService, categoryService, cfg.requestTimeout, logger)
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	handler.Register(router)

	server := &http.Server{
		Addr:    ":" + cfg.httpPort,
		Handler: otelhttp.NewHandler(router, "catalog-service"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("catalog service listening", "port", cfg.httpPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down catalog service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	logger.Info("catalog service stopped")
}
