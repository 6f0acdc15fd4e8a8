package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/cache"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/consumer"
	carthttp "github.com/yuliapoganyuko/advanced-mentoring/internal/cart/http"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/service"
	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/store"
)

type config struct {
	httpPort        string
	storeBackend    string
	mongoURI        string
	mongoDBName     string
	sqlitePath      string
	redisAddr       string
	redisPassword   string
	kafkaBrokers    []string
	kafkaTopic      string
	kafkaGroupID    string
	deadLetterTopic string
	requestTimeout  time.Duration
	shutdownTimeout time.Duration
}

func loadConfig() *config {
	return &config{
		httpPort:        getEnv("HTTP_PORT", "8081"),
		storeBackend:    getEnv("CART_STORE", "sqlite"),
		mongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		mongoDBName:     getEnv("MONGO_DB_NAME", "cartdb"),
		sqlitePath:      getEnv("SQLITE_PATH", "./carts.db"),
		redisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		redisPassword:   getEnv("REDIS_PASSWORD", ""),
		kafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		kafkaTopic:      getEnv("KAFKA_TOPIC", "product-changed"),
		kafkaGroupID:    getEnv("KAFKA_GROUP_ID", "cart-service"),
		deadLetterTopic: getEnv("KAFKA_DEAD_LETTER_TOPIC", "product-changed-dead-letter"),
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cartStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open cart store", "backend", cfg.storeBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	logger.Info("cart store ready", "backend", cfg.storeBackend)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.redisAddr,
		Password: cfg.redisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis connection failed", "addr", cfg.redisAddr, "error", err)
		os.Exit(1)
	}

	cartCache := cache.NewRedisCache(redisClient)
	cartService := service.NewCartService(cartStore, cartCache, logger)

	changeConsumer := consumer.New(cartStore, cartCache, logger, consumer.Config{
		Brokers:         cfg.kafkaBrokers,
		Topic:           cfg.kafkaTopic,
		GroupID:         cfg.kafkaGroupID,
		DeadLetterTopic: cfg.deadLetterTopic,
	})
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		changeConsumer.Run(ctx)
	}()
	logger.Info("product-changed consumer started", "topic", cfg.kafkaTopic, "group", cfg.kafkaGroupID)

	handler := carthttp.NewCartHandler(cartService, cfg.requestTimeout, logger)
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	handler.Register(router)

	server := &http.Server{
		Addr:    ":" + cfg.httpPort,
		Handler: otelhttp.NewHandler(router, "cart-service"),
	}
	go func() {
		logger.Info("cart service listening", "port", cfg.httpPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down cart service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	// The consumer finishes its in-flight message before returning.
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		logger.Warn("consumer did not stop in time")
	}
	changeConsumer.Close()

	logger.Info("cart service stopped")
}

func openStore(ctx context.Context, cfg *config) (store.CartStore, func(), error) {
	switch cfg.storeBackend {
	case "mongo":
		db, err := store.ConnectMongoDB(ctx, cfg.mongoURI, cfg.mongoDBName)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = db.Client().Disconnect(disconnectCtx)
		}
		return store.NewMongoStore(db), closeFn, nil
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, errors.New("CART_STORE must be mongo or sqlite")
	}
}
