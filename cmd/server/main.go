package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pronounce/internal/config"
	"pronounce/internal/genai"
	"pronounce/internal/handlers"
	"pronounce/internal/security"
	"pronounce/internal/service"
)

func main() {
	// Load .env when present; real environments set variables directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize the model client
	var opts []genai.Option
	if cfg.GeminiModel != "" {
		opts = append(opts, genai.WithModel(cfg.GeminiModel))
	}
	if cfg.GeminiBaseURL != "" {
		opts = append(opts, genai.WithBaseURL(cfg.GeminiBaseURL))
	}
	model := genai.NewClient(cfg.GeminiAPIKey, opts...)

	log.Printf("Using model %s", cfg.GeminiModel)

	// Initialize services
	sessionService := service.NewSessionService(model)

	// Initialize handlers
	limiter := security.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	middleware := handlers.NewMiddleware(limiter)
	apiHandler := handlers.NewAPIHandler(sessionService, cfg.UploadMaxSize)

	// Setup routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", apiHandler.Health)
	mux.HandleFunc("POST /api/generate-session", middleware.RateLimit(apiHandler.GenerateSession))
	mux.HandleFunc("POST /api/generate-audio", apiHandler.GenerateAudio)
	mux.HandleFunc("POST /api/analyze-pronunciation", middleware.RateLimit(apiHandler.AnalyzePronunciation))

	// Wrap with CORS and logging middleware
	handler := handlers.CORS(handlers.Logging(mux))

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}
