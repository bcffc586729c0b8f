package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/handlers"
	custommiddleware "github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/api/middleware"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/config"
	"github.com/RickMConstantine/Crypto-Portfolio-ACB-Tracker/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	assetService *service.AssetService,
	priceService *service.PriceService,
	transactionService *service.TransactionService,
	acbService *service.ACBService,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/keys", systemHandler.APIKeys)
			r.Put("/keys", systemHandler.SetAPIKeys)
		})

		r.Route("/asset", func(r chi.Router) {
			assetHandler := handlers.NewAssetHandler(assetService)
			r.Get("/", assetHandler.Assets)
			r.Post("/", assetHandler.CreateAsset)
			r.Route("/{symbol}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateSymbolMiddleware)
				r.Get("/", assetHandler.GetAsset)
				r.Delete("/", assetHandler.DeleteAsset)
			})
		})

		r.Route("/price", func(r chi.Router) {
			priceHandler := handlers.NewPriceHandler(priceService)
			r.Post("/refresh", priceHandler.RefreshPrices)
			r.Route("/{symbol}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateSymbolMiddleware)
				r.Get("/", priceHandler.Prices)
				r.Get("/latest", priceHandler.LatestPrice)
			})
		})

		r.Route("/transaction", func(r chi.Router) {
			transactionHandler := handlers.NewTransactionHandler(transactionService)
			r.Get("/", transactionHandler.Transactions)
			r.Post("/", transactionHandler.CreateTransaction)
			r.Post("/import", transactionHandler.ImportTransactions)
			r.Get("/types", transactionHandler.TransactionTypes)
			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", transactionHandler.GetTransaction)
				r.Put("/", transactionHandler.UpdateTransaction)
				r.Delete("/", transactionHandler.DeleteTransaction)
			})
		})

		r.Route("/acb", func(r chi.Router) {
			acbHandler := handlers.NewACBHandler(acbService)
			r.Get("/", acbHandler.CalculatePortfolio)
			r.Route("/{symbol}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateSymbolMiddleware)
				r.Get("/", acbHandler.CalculateAsset)
			})
		})
	})

	return r
}
