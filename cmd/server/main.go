package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/config"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/database"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/repository"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/secrets"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Printf("Connected to database: %s", cfg.Database.Path)

	keeper, err := secrets.NewKeeper(cfg.Secrets.FernetKey)
	if err != nil {
		log.Fatalf("Failed to load secret key: %v", err)
	}

	// Create repositories
	assetRepo := repository.NewAssetRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Create services
	systemService := service.NewSystemService(db, settingRepo, keeper)
	priceService := service.NewPriceService(priceRepo, assetRepo, systemService)
	assetService := service.NewAssetService(assetRepo, priceService)
	transactionService := service.NewTransactionService(transactionRepo)
	acbService := service.NewACBService(transactionRepo, priceRepo, assetRepo)

	// Schedule the daily price refresh
	priceSync := service.NewPriceSyncService(priceService, cfg.Sync.Schedule)
	if err := priceSync.Start(); err != nil {
		log.Fatalf("Failed to start price sync: %v", err)
	}
	defer priceSync.Stop()

	// Create router
	router := api.NewRouter(systemService, assetService, priceService, transactionService, acbService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
