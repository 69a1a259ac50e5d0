package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"solowcrew/internal/handlers"
	appMiddleware "solowcrew/internal/middleware"
	"solowcrew/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional; read paths fall back to the database without it
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
			cache = nil
		}
	}

	// Collaborators
	midtransClient := services.NewMidtransService()
	emailService := services.NewEmailService()

	dealService := services.NewDealService(db, cache)
	poolService := services.NewPoolService(db, midtransClient, emailService, cache)

	// Create Echo instance
	e := echo.New()
	e.HTTPErrorHandler = appMiddleware.JSONErrorHandler

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Handlers
	authHandler := handlers.NewAuthHandler(authClient)
	dealHandler := handlers.NewDealHandler(dealService)
	poolHandler := handlers.NewPoolHandler(poolService)
	bookingHandler := handlers.NewBookingHandler(dealService)
	webhookHandler := handlers.NewWebhookHandler(poolService, midtransClient)

	// Public routes
	e.GET("/auth/config", authHandler.Config)
	e.POST("/auth/login", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)

	e.GET("/api/deals", dealHandler.ListDeals)
	e.GET("/api/deals/:id", dealHandler.GetDeal)

	// Gateway notification channel; authenticated by signature, not session
	e.POST("/webhooks/payment", webhookHandler.PaymentNotification)

	// Protected routes
	protected := e.Group("/api", appMiddleware.RequireAuth(authClient, db))
	protected.POST("/pools/:id/join", poolHandler.Join)
	protected.POST("/pools/:id/checkout", poolHandler.Checkout)
	protected.GET("/bookings", bookingHandler.ListBookings)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
