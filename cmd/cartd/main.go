package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lilwayne470/gocommerce-js/internal/commerce"
	h "github.com/lilwayne470/gocommerce-js/internal/http"
	"github.com/lilwayne470/gocommerce-js/internal/metrics"
	"github.com/lilwayne470/gocommerce-js/internal/product"
	"github.com/lilwayne470/gocommerce-js/internal/repository"
	"github.com/lilwayne470/gocommerce-js/internal/service"
	"github.com/lilwayne470/gocommerce-js/internal/settings"
	"github.com/lilwayne470/gocommerce-js/internal/vat"
)

type Config struct {
	HTTPPort        string
	APIURL          string
	SiteURL         string
	SettingsPath    string
	Currency        string
	Country         string
	RefreshPeriod   time.Duration
	StorageBackend  string
	StorageKey      string
	AuthToken       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	refresh := settings.DefaultRefreshPeriod
	if raw := os.Getenv("SETTINGS_REFRESH_PERIOD"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("Invalid SETTINGS_REFRESH_PERIOD %q: %v", raw, err)
		}
		refresh = parsed
	}

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		log.Fatal("API_URL is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		APIURL:          apiURL,
		SiteURL:         getEnv("SITE_URL", apiURL),
		SettingsPath:    getEnv("SETTINGS_PATH", settings.DefaultPath),
		Currency:        getEnv("CURRENCY", "USD"),
		Country:         os.Getenv("COUNTRY"),
		RefreshPeriod:   refresh,
		StorageBackend:  getEnv("STORAGE_BACKEND", "memory"),
		StorageKey:      getEnv("STORAGE_KEY", repository.StorageKey),
		AuthToken:       os.Getenv("AUTH_TOKEN"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// staticTokens satisfies commerce.TokenProvider with a fixed token from the
// environment, enough for the claim/history endpoints in a single-user
// deployment.
type staticTokens struct {
	token string
}

func (s staticTokens) Token(context.Context) (string, error) {
	return s.token, nil
}

func newRepository(ctx context.Context, cfg *Config) repository.CartRepository {
	switch cfg.StorageBackend {
	case "memory":
		return repository.NewMemoryRepository()
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal("Redis connection failed:", err)
		}
		log.Printf("Connected to Redis at %s", getEnv("REDIS_ADDR", "localhost:6379"))
		return repository.NewRedisRepository(client, cfg.StorageKey)
	case "mongo":
		mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017")
		db, err := repository.ConnectMongoDB(ctx, mongoURI, getEnv("MONGO_DB_NAME", "cartdb"))
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		log.Printf("Connected to MongoDB at %s", mongoURI)
		return repository.NewMongoRepository(db, cfg.StorageKey)
	default:
		log.Fatalf("Unknown STORAGE_BACKEND %q (memory, redis, mongo)", cfg.StorageBackend)
		return nil
	}
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	repo := newRepository(ctx, cfg)

	var tokens commerce.TokenProvider
	if cfg.AuthToken != "" {
		tokens = staticTokens{token: cfg.AuthToken}
	}
	api, err := commerce.NewClient(cfg.APIURL, tokens)
	if err != nil {
		log.Fatalf("Failed to create commerce client: %v", err)
	}

	settingsCache := settings.New(cfg.SiteURL+cfg.SettingsPath, cfg.RefreshPeriod, nil)
	products := product.NewHTTPSource(cfg.SiteURL)
	validator := vat.NewValidator(vat.NewCache(), api)

	engine, err := service.New(ctx, service.Config{
		Currency: cfg.Currency,
		Country:  cfg.Country,
	}, repo, api, products, settingsCache, validator)
	if err != nil {
		log.Fatalf("Failed to create cart engine: %v", err)
	}

	cartHandler := h.NewCartHandler(engine, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(engine, cfg.RequestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{sku}", cartHandler.UpdateQuantity)
			r.Put("/vatnumber", cartHandler.SetVatNumber)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.OrderHistory)
			r.Post("/", ordersHandler.CreateOrder)
			r.Post("/{order_id}/payments", ordersHandler.CreatePayment)
		})
		r.Get("/paypal/{payment_id}", ordersHandler.PaypalPayment)
		r.Post("/claim", ordersHandler.ClaimOrders)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "cartd"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("cartd listening on :%s (backend=%s currency=%s)", cfg.HTTPPort, cfg.StorageBackend, cfg.Currency)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down cartd...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("cartd stopped")
}
