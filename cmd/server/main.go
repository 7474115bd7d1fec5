package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"whatsapp-catat-hutang/internal/config"
	"whatsapp-catat-hutang/internal/engine"
	"whatsapp-catat-hutang/internal/extract"
	"whatsapp-catat-hutang/internal/handler"
	"whatsapp-catat-hutang/internal/middleware"
	"whatsapp-catat-hutang/internal/repository"
	"whatsapp-catat-hutang/internal/service"
	"whatsapp-catat-hutang/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(cfg.WhatsApp.LogLevel)
	appLogger.Info("Starting WhatsApp catat-hutang bot", "display_name", cfg.Bot.DisplayName)

	// Initialize transaction store
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.TransactionDBPath), 0755); err != nil {
		log.Fatalf("Failed to create transaction database directory: %v", err)
	}
	repo, err := repository.NewTransactionRepository(cfg.Storage.TransactionDBPath)
	if err != nil {
		appLogger.Error("Failed to initialize transaction repository", "error", err)
		log.Fatalf("Failed to initialize transaction repository: %v", err)
	}
	defer repo.Close()

	// Initialize the two-path extractor: NLP parser first when configured,
	// deterministic rules as fallback
	var primary extract.Strategy
	if cfg.Parser.URL != "" {
		primary = extract.NewNLPExtractor(cfg.Parser.URL, cfg.Parser.Timeout, cfg.Parser.ConfidenceThreshold, appLogger)
	} else {
		appLogger.Warn("PARSER_URL not set, running with rule-based extraction only")
	}
	extractor := extract.NewExtractor(primary, extract.NewRuleExtractor(), appLogger)

	// Initialize session engine
	sessionEngine := engine.NewEngine(extractor, repo, engine.Options{
		DisplayName:   cfg.Bot.DisplayName,
		SessionExpiry: cfg.Bot.SessionExpiry,
		StoreTimeout:  cfg.Bot.StoreTimeout,
		VoiceEnabled:  cfg.Bot.VoiceEnabled,
	}, appLogger)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sessionEngine.SweepPeriodically(sweepCtx, cfg.Bot.SweepInterval)

	// Initialize WhatsApp service
	whatsappService, err := service.NewWhatsAppService(&cfg.WhatsApp, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize WhatsApp service", "error", err)
		log.Fatalf("Failed to initialize WhatsApp service: %v", err)
	}

	// Set dependencies
	whatsappService.SetEngine(sessionEngine)
	if cfg.Bot.VoiceEnabled {
		whatsappService.SetSpeechService(service.NewSpeechService(&cfg.Speech, appLogger))
	}
	if cfg.Responder.URL != "" {
		whatsappService.SetResponder(service.NewResponderService(&cfg.Responder, appLogger))
	}

	// Connect to WhatsApp
	err = whatsappService.Connect()
	if err != nil {
		appLogger.Error("Failed to connect to WhatsApp", "error", err)
		log.Fatalf("Failed to connect to WhatsApp: %v\nPlease scan QR code first", err)
	}
	defer whatsappService.Disconnect()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(whatsappService, sessionEngine, cfg, appLogger)
	transactionsHandler := handler.NewTransactionsHandler(repo, appLogger)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.Security.APIKey, appLogger)

	// Setup HTTP routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("/health", healthHandler.CheckHealth)

	// Protected routes
	mux.HandleFunc("/api/v1/transactions", authMiddleware.Authenticate(transactionsHandler.ListTransactions))

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("HTTP server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server error", "error", err)
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	appLogger.Info("WhatsApp catat-hutang bot started successfully",
		"address", addr,
		"whatsapp_connected", whatsappService.IsConnected(),
		"voice_enabled", cfg.Bot.VoiceEnabled,
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server stopped gracefully")
}
