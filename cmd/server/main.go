package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pharmapos/backend/internal/analysis"
	"pharmapos/backend/internal/audit"
	"pharmapos/backend/internal/cache"
	"pharmapos/backend/internal/config"
	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/httpapi"
	"pharmapos/backend/internal/invoice"
	"pharmapos/backend/internal/journal"
	"pharmapos/backend/internal/recommendation"
	"pharmapos/backend/internal/service"
	"pharmapos/backend/internal/store/memory"
)

const restoreLimit = 500

func main() {
	cfg := config.Load()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)

	medicines, err := buildCatalog(cfg)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	repo := memory.New(medicines)
	log.Printf("catalog: %d medicines in memory", len(medicines))

	journalStore, err := journal.Open(ctx, cfg.JournalURL)
	if err != nil {
		log.Fatalf("journal unavailable (%v) and JOURNAL_URL is set; refusing to start without it", err)
	}
	closers = append(closers, journalStore.Close)
	auditLog := audit.NewLog(journalStore)
	if recent, err := journalStore.Recent(ctx, restoreLimit); err != nil {
		log.Printf("journal restore failed: %v", err)
	} else if len(recent) > 0 {
		auditLog.Restore(recent)
		log.Printf("journal: restored %d records", len(recent))
	}

	cacheStore := cache.AnalysisCache(cache.NoopAnalysisCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisAnalysisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			cacheStore = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	svc := service.New(repo, auditLog, service.Options{
		Seller:   sellerFrom(cfg),
		Insights: recommendation.NewEngine(cfg.ExpiryWarningDays),
		Analyzer: analysis.NewClient(cfg.AnalysisURL, cfg.AnalysisTimeout(), cacheStore, cfg.AnalysisCacheTTL()),
	})
	api := httpapi.New(svc, cfg.AllowedOrigin)

	// Image analysis can take most of a minute.
	writeTimeout := cfg.AnalysisTimeout() + 10*time.Second

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("pharmacy POS backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateConfig(cfg config.Config) error {
	if !isStateCode(cfg.SellerStateCode) {
		return fmt.Errorf("SELLER_STATE_CODE must be a two digit GST state code, got %q", cfg.SellerStateCode)
	}
	if strings.TrimSpace(cfg.SellerName) == "" {
		return fmt.Errorf("SELLER_NAME must be set")
	}
	if cfg.SellerGSTIN != "" && !strings.HasPrefix(cfg.SellerGSTIN, cfg.SellerStateCode) {
		return fmt.Errorf("SELLER_GSTIN %q does not start with state code %s", cfg.SellerGSTIN, cfg.SellerStateCode)
	}
	return nil
}

func isStateCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return code != "00"
}

func sellerFrom(cfg config.Config) invoice.Seller {
	return invoice.Seller{
		Name:         cfg.SellerName,
		Address:      cfg.SellerAddress,
		GSTIN:        cfg.SellerGSTIN,
		StateCode:    cfg.SellerStateCode,
		Jurisdiction: cfg.SellerJurisdiction,
		BankDetails:  cfg.SellerBankDetails,
	}
}

// buildCatalog returns the built-in seed followed by any medicines from
// CATALOG_CSV whose ids the seed does not already use.
func buildCatalog(cfg config.Config) ([]domain.Medicine, error) {
	medicines := memory.SeedMedicines()
	if cfg.CatalogCSV == "" {
		return medicines, nil
	}

	extra, err := memory.LoadCatalogCSV(cfg.CatalogCSV)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cfg.CatalogCSV, err)
	}
	seen := make(map[string]struct{}, len(medicines))
	for _, med := range medicines {
		seen[med.ID] = struct{}{}
	}
	for _, med := range extra {
		if _, dup := seen[med.ID]; dup {
			log.Printf("catalog: skipping %s from %s, id already seeded", med.ID, cfg.CatalogCSV)
			continue
		}
		seen[med.ID] = struct{}{}
		medicines = append(medicines, med)
	}
	return medicines, nil
}
