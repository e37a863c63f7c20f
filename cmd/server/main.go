package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/featurepulse/backend/internal/config"
	"github.com/featurepulse/backend/internal/database"
	"github.com/featurepulse/backend/internal/handlers"
	"github.com/featurepulse/backend/internal/middleware"
	"github.com/featurepulse/backend/internal/routes"
	"github.com/featurepulse/backend/internal/services"
	"github.com/featurepulse/backend/pkg/clientip"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func main() {
	// Load env
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}
	// Load configuration
	cfg := config.Load()

	if cfg.IsProduction() && cfg.JWTSecret == "your-secret-key-change-in-production" {
		log.Fatal("JWT_SECRET must be set in production")
	}

	// Rate limiting keys on the socket address unless a reverse proxy is
	// declared trusted, so forged X-Forwarded-For headers stay inert
	clientip.SetTrustProxy(cfg.TrustProxy)
	if cfg.TrustProxy {
		log.Println("✅ Proxy trust enabled: client IPs taken from X-Forwarded-For")
	}

	// Connect to PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Wire services
	sessions, err := services.NewSessionManager(cfg.JWTSecret)
	if err != nil {
		log.Fatal("Failed to initialize session manager:", err)
	}
	analytics := services.NewAnalyticsService(database.PostgresDB)

	handlers.InitAuthHandlers(sessions, cfg.IsProduction())
	handlers.InitAnalyticsHandlers(analytics)

	// Setup router
	r := chi.NewRouter()

	// The dashboard sends the session cookie cross-origin, so credentialed
	// CORS with an explicit origin list
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Production: SecurityHeaders → AuthRateLimit on top of the Redis limiter
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, credential rate limiting)")
	}
	r.Use(middleware.RateLimitMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Setup routes
	routes.SetupRoutes(r, sessions)

	log.Println("📋 Registered routes:")
	log.Println("  GET  /health")
	log.Println("  POST /api/signup")
	log.Println("  POST /api/login")
	log.Println("  POST /api/logout")
	log.Println("  GET  /api/bar-data")
	log.Println("  GET  /api/line-chart-data")

	log.Printf("🚀 FeaturePulse backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
