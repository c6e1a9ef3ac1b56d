package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/walletfolio/backend/src/config"
	"github.com/username/walletfolio/backend/src/database"
	"github.com/username/walletfolio/backend/src/handlers"
	"github.com/username/walletfolio/backend/src/logger"
	"github.com/username/walletfolio/backend/src/security"
	"github.com/username/walletfolio/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Walletfolio backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing exchange rate snapshot cache...")
	snapshotCache := cache.New(cache.NoExpiration, 0)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	authMiddleware := handlers.NewAuthMiddleware(authService)

	rateProvider := services.NewHTTPRateProvider(
		config.Cfg.RateProviderBaseURL, config.Cfg.RateProviderAPIKey, config.Cfg.RateProviderTimeout)
	rateService := services.NewExchangeRateService(
		database.DB, rateProvider, snapshotCache,
		config.Cfg.RateStalenessThreshold, config.Cfg.RateQuotaBuffer, config.Cfg.TrackedBaseCurrencies)

	walletService := services.NewWalletService(database.DB)
	transferService := services.NewTransferService(database.DB, rateService, config.Cfg.AllowNegativeBalance)
	ledgerService := services.NewLedgerService(database.DB, transferService, config.Cfg.AllowNegativeBalance)
	savingsService := services.NewSavingsService(database.DB, rateService)

	walletHandler := handlers.NewWalletHandler(walletService)
	txHandler := handlers.NewTransactionHandler(ledgerService)
	transferHandler := handlers.NewTransferHandler(transferService)
	savingsHandler := handlers.NewSavingsHandler(savingsService)
	rateHandler := handlers.NewExchangeRateHandler(rateService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	applyAuth := func(handler http.HandlerFunc) http.Handler {
		return authMiddleware.Handler(handler)
	}

	apiRouter.Handle("POST /api/wallets", applyAuth(walletHandler.HandleCreateWallet))
	apiRouter.Handle("GET /api/wallets", applyAuth(walletHandler.HandleListWallets))
	apiRouter.Handle("GET /api/wallets/{id}", applyAuth(walletHandler.HandleGetWallet))
	apiRouter.Handle("PUT /api/wallets/{id}", applyAuth(walletHandler.HandleUpdateWallet))
	apiRouter.Handle("DELETE /api/wallets/{id}", applyAuth(walletHandler.HandleDeleteWallet))

	apiRouter.Handle("POST /api/transactions", applyAuth(txHandler.HandleRecordTransaction))
	apiRouter.Handle("GET /api/transactions", applyAuth(txHandler.HandleListTransactions))
	apiRouter.Handle("GET /api/transactions/{id}", applyAuth(txHandler.HandleGetTransaction))
	apiRouter.Handle("PUT /api/transactions/{id}", applyAuth(txHandler.HandleUpdateTransaction))
	apiRouter.Handle("DELETE /api/transactions/{id}", applyAuth(txHandler.HandleDeleteTransaction))

	apiRouter.Handle("POST /api/transfers", applyAuth(transferHandler.HandleCreateTransfer))
	apiRouter.Handle("GET /api/transfers/{transactionId}", applyAuth(transferHandler.HandleGetTransfer))
	apiRouter.Handle("DELETE /api/transfers/{transactionId}", applyAuth(transferHandler.HandleDeleteTransfer))

	apiRouter.Handle("GET /api/exchange-rate", applyAuth(rateHandler.HandleGetExchangeRate))
	apiRouter.Handle("GET /api/savings/summary", applyAuth(savingsHandler.HandleGetSavingsSummary))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Walletfolio Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
