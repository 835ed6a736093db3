package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/dipanjanswapna/averzotech-sub001/internal/cache"
	"github.com/dipanjanswapna/averzotech-sub001/internal/events"
	"github.com/dipanjanswapna/averzotech-sub001/internal/gateway/bkash"
	"github.com/dipanjanswapna/averzotech-sub001/internal/gateway/sslcommerz"
	h "github.com/dipanjanswapna/averzotech-sub001/internal/http"
	"github.com/dipanjanswapna/averzotech-sub001/internal/repository"
	"github.com/dipanjanswapna/averzotech-sub001/internal/service"
	"github.com/dipanjanswapna/averzotech-sub001/internal/sweeper"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	AppURL          string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	SSLCzStoreID     string
	SSLCzStorePasswd string
	SSLCzSandbox     bool

	BkashBaseURL   string
	BkashAppKey    string
	BkashAppSecret string
	BkashUsername  string
	BkashPassword  string

	RedisAddr     string
	RedisPassword string
	KafkaBrokers  []string

	PendingOrderTTL time.Duration
}

func loadConfig() *Config {
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "shopdb"),
		AppURL:          getEnv("APP_URL", "http://localhost:8080"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		SSLCzStoreID:     os.Getenv("SSLCZ_STORE_ID"),
		SSLCzStorePasswd: os.Getenv("SSLCZ_STORE_PASSWD"),
		SSLCzSandbox:     getEnv("SSLCZ_SANDBOX", "true") == "true",

		BkashBaseURL:   getEnv("BKASH_BASE_URL", "https://tokenized.sandbox.bka.sh/v1.2.0-beta"),
		BkashAppKey:    os.Getenv("BKASH_APP_KEY"),
		BkashAppSecret: os.Getenv("BKASH_APP_SECRET"),
		BkashUsername:  os.Getenv("BKASH_USERNAME"),
		BkashPassword:  os.Getenv("BKASH_PASSWORD"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		PendingOrderTTL: 24 * time.Hour,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if ttl := os.Getenv("PENDING_ORDER_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			cfg.PendingOrderTTL = parsed
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoDB.Client().Disconnect(ctx)
	logger.Info("connected to MongoDB", zap.String("uri", cfg.MongoURI))

	repo := repository.NewMongoRepository(mongoDB)
	if err := repository.EnsureIndexes(ctx, repo); err != nil {
		logger.Fatal("failed to create indexes", zap.Error(err))
	}

	// Token slot: per-process by default, shared through Redis when an
	// address is configured so multiple instances stop granting redundantly.
	var tokenStore cache.TokenStore = cache.NewMemoryStore()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("Redis connection failed", zap.Error(err))
		}
		tokenStore = cache.NewRedisStore(redisClient)
		logger.Info("using Redis-backed gateway token store", zap.String("addr", cfg.RedisAddr))
	}

	var hosted service.HostedGateway
	if cfg.SSLCzStoreID != "" && cfg.SSLCzStorePasswd != "" {
		client, err := sslcommerz.NewClient(sslcommerz.Config{
			StoreID:     cfg.SSLCzStoreID,
			StorePasswd: cfg.SSLCzStorePasswd,
			Sandbox:     cfg.SSLCzSandbox,
			AppURL:      cfg.AppURL,
		})
		if err != nil {
			logger.Fatal("failed to configure sslcommerz gateway", zap.Error(err))
		}
		hosted = client
	} else {
		logger.Warn("sslcommerz credentials missing, card payments disabled")
	}

	var wallet service.WalletGateway
	if cfg.BkashAppKey != "" {
		client, err := bkash.NewClient(bkash.Config{
			BaseURL:   cfg.BkashBaseURL,
			AppKey:    cfg.BkashAppKey,
			AppSecret: cfg.BkashAppSecret,
			Username:  cfg.BkashUsername,
			Password:  cfg.BkashPassword,
			AppURL:    cfg.AppURL,
		}, tokenStore)
		if err != nil {
			logger.Fatal("failed to configure bkash gateway", zap.Error(err))
		}
		wallet = client
	} else {
		logger.Warn("bkash credentials missing, wallet payments disabled")
	}

	var publisher service.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers...)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("publishing order events to Kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	checkout := service.NewCheckoutService(repo, hosted, wallet, publisher, logger)

	checkoutHandler := h.NewCheckoutHandler(checkout, cfg.RequestTimeout, logger)
	paymentHandler := h.NewPaymentCallbackHandler(checkout, cfg.RequestTimeout, logger)
	walletHandler := h.NewWalletHandler(checkout, cfg.RequestTimeout, logger)
	orderHandler := h.NewOrderHandler(checkout, cfg.RequestTimeout, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", checkoutHandler.InitiateCheckout)
		r.Get("/orders/{order_id}", orderHandler.GetOrder)
		r.Post("/payments/refund", walletHandler.Refund)
	})

	r.Route("/payment", func(r chi.Router) {
		r.Post("/success", paymentHandler.Success)
		r.Post("/fail", paymentHandler.Fail)
		r.Post("/cancel", paymentHandler.Cancel)
		r.Post("/ipn", paymentHandler.IPN)
		r.Get("/bkash/callback", walletHandler.Callback)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "settlement"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweeper.New(repo, cfg.PendingOrderTTL, logger).Run(sweepCtx)

	go func() {
		logger.Info("settlement service starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopSweep()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
