package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Samarth07-ctrl/squadvault/docs"
	"github.com/Samarth07-ctrl/squadvault/internal/algod"
	"github.com/Samarth07-ctrl/squadvault/internal/config"
	"github.com/Samarth07-ctrl/squadvault/internal/database"
	"github.com/Samarth07-ctrl/squadvault/internal/handlers"
	mW "github.com/Samarth07-ctrl/squadvault/internal/middleware"
	"github.com/Samarth07-ctrl/squadvault/internal/services"
)

// @title SquadVault API
// @version 1.0
// @description Off-chain system of record for on-chain expense pools
// @host localhost:5000
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("migrations.dir", "MIGRATIONS_DIR")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	docs.SwaggerInfo.Title = "SquadVault API"
	docs.SwaggerInfo.Description = "Off-chain system of record for on-chain expense pools"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:5000"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize backing stores
	db := database.InitDatabase()
	defer db.Close()

	viper.SetDefault("migrations.dir", "./migrations")
	if err := database.RunMigrations(db, viper.GetString("migrations.dir")); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize services
	compiler := algod.NewClient(config.LoadAlgodConfig())

	userService := services.NewUserService(db)
	poolService := services.NewPoolService(db)
	transactionService := services.NewTransactionService(db)
	contractService := services.NewContractService(compiler, redisClient, config.LoadContractConfig())
	contractHandler := handlers.NewContractHandler(contractService)
	inviteService := services.NewInviteService(db, redisClient)
	inviteHandler := handlers.NewInviteHandler(inviteService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:5000/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/login", userService.Login)
		r.Get("/users/{walletAddress}", userService.GetProfile)

		r.Post("/pools", poolService.CreatePool)
		r.Get("/pools", poolService.ListPools)
		r.Post("/pools/join", poolService.JoinPool)
		r.Post("/pools/invite/claim", inviteHandler.ClaimInvite)
		r.Get("/pools/{appId}", poolService.GetPool)
		r.Get("/pools/{appId}/invite", inviteHandler.GenerateInvite)

		r.Get("/contract/params", contractHandler.GetDeploymentParams)

		r.Post("/transactions", transactionService.RecordTransaction)
		r.Get("/transactions/pool/{poolId}", transactionService.ListPoolTransactions)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
