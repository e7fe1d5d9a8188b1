package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	AllowedOrigin           string
	SellerStateCode         string
	SellerName              string
	SellerAddress           string
	SellerGSTIN             string
	SellerJurisdiction      string
	SellerBankDetails       string
	AnalysisURL             string
	AnalysisTimeoutSeconds  int
	AnalysisCacheTTLSeconds int
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	JournalURL              string
	CatalogCSV              string
	ExpiryWarningDays       int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; variables already set win.
func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := Config{
		Port:                    getEnv("PORT", "8080"),
		AllowedOrigin:           getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		SellerStateCode:         strings.TrimSpace(getEnv("SELLER_STATE_CODE", "20")),
		SellerName:              getEnv("SELLER_NAME", "Aarogya Medical"),
		SellerAddress:           getEnv("SELLER_ADDRESS", "Main Road Ranchi, Near Sujata Cinema"),
		SellerGSTIN:             strings.TrimSpace(os.Getenv("SELLER_GSTIN")),
		SellerJurisdiction:      getEnv("SELLER_JURISDICTION", "Ramgarh"),
		SellerBankDetails:       strings.TrimSpace(os.Getenv("SELLER_BANK_DETAILS")),
		AnalysisURL:             getEnv("ANALYSIS_URL", "http://127.0.0.1:8000"),
		AnalysisTimeoutSeconds:  positiveInt("ANALYSIS_TIMEOUT_SECONDS", 60),
		AnalysisCacheTTLSeconds: positiveInt("ANALYSIS_CACHE_TTL_SECONDS", 3600),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 redisDB,
		JournalURL:              strings.TrimSpace(os.Getenv("JOURNAL_URL")),
		CatalogCSV:              strings.TrimSpace(os.Getenv("CATALOG_CSV")),
		ExpiryWarningDays:       positiveInt("EXPIRY_WARNING_DAYS", 90),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.AnalysisTimeoutSeconds) * time.Second
}

func (c Config) AnalysisCacheTTL() time.Duration {
	return time.Duration(c.AnalysisCacheTTLSeconds) * time.Second
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func positiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
