package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	JWTSecret         string
	Port              string
	DatabasePath      string
	LogLevel          string
	AccessTokenExpiry time.Duration

	// Exchange rate provider settings.
	RateProviderBaseURL    string
	RateProviderAPIKey     string
	RateProviderTimeout    time.Duration
	RateStalenessThreshold time.Duration
	RateQuotaBuffer        int      // refuse to call the provider when requests_left drops below this
	TrackedBaseCurrencies  []string // bases refreshed together; must include USD for cross-rate fallback

	// Ledger policy.
	AllowNegativeBalance bool // when false, expenses/transfers cannot overdraw a wallet
	DefaultCurrency      string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes")
	if jwtSecret == "your-very-secure-and-long-jwt-secret-key-for-hs256-minimum-32-bytes" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	trackedBases := splitCurrencyList(getEnv("TRACKED_BASE_CURRENCIES", "USD,EUR"))
	if !containsCurrency(trackedBases, "USD") {
		// USD backs the cross-rate fallback and must always be refreshed.
		trackedBases = append(trackedBases, "USD")
	}

	Cfg = &AppConfig{
		JWTSecret:         jwtSecret,
		Port:              getEnv("PORT", "8080"),
		DatabasePath:      getEnv("DATABASE_PATH", "./walletfolio.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		AccessTokenExpiry: getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 60*time.Minute),

		RateProviderBaseURL:    getEnv("RATE_PROVIDER_BASE_URL", "https://v6.exchangerate-api.com/v6"),
		RateProviderAPIKey:     getEnv("RATE_PROVIDER_API_KEY", ""),
		RateProviderTimeout:    getEnvAsDuration("RATE_PROVIDER_TIMEOUT", 10*time.Second),
		RateStalenessThreshold: getEnvAsDuration("RATE_STALENESS_THRESHOLD", 24*time.Hour),
		RateQuotaBuffer:        getEnvAsInt("RATE_QUOTA_BUFFER", 25),
		TrackedBaseCurrencies:  trackedBases,

		AllowNegativeBalance: getEnvAsBool("ALLOW_NEGATIVE_BALANCE", true),
		DefaultCurrency:      strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),
	}

	if Cfg.RateProviderAPIKey == "" {
		log.Println("WARNING: RATE_PROVIDER_API_KEY is not set. Cross-currency transfers will rely on cached snapshots only.")
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, TrackedBases=%v",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.TrackedBaseCurrencies)
}

func splitCurrencyList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code != "" {
			out = append(out, code)
		}
	}
	return out
}

func containsCurrency(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Boolean value for %s not set or empty, using default: %t", key, fallback)
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
