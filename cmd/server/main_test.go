package main

import (
	"os"
	"path/filepath"
	"testing"

	"pharmapos/backend/internal/config"
)

func TestValidateConfigRejectsBadStateCodes(t *testing.T) {
	for _, code := range []string{"", "2", "X0", "00", "200"} {
		if err := validateConfig(config.Config{SellerName: "Aarogya Medical", SellerStateCode: code}); err == nil {
			t.Fatalf("expected state code %q to be rejected", code)
		}
	}
}

func TestValidateConfigChecksGSTINPrefix(t *testing.T) {
	cfg := config.Config{SellerName: "Aarogya Medical", SellerStateCode: "20", SellerGSTIN: "27ABCDE1234F1Z5"}
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("expected GSTIN from another state to be rejected")
	}
	cfg.SellerGSTIN = "20ABCDE1234F1Z5"
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("expected valid config to pass, got %v", err)
	}
}

func TestBuildCatalogMergesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	data := "medicine_id,brand_name,medicine_name,hsn_code,pack_size,manufacturer,category,reorder_level,batch_id,expiry,stock,price,purchase_price,mrp,gst_rate\n" +
		"MED-1001,Duplicate,Paracetamol,30049099,10 Tablets,GSK,Analgesic,10,DUP01,2026-01-31,5,10,8,10,5\n" +
		"MED-2001,Okacet,Cetirizine,30049099,10 Tablets,Cipla,Antihistamine,15,OK01,2026-01-31,40,14,10,15,12\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	medicines, err := buildCatalog(config.Config{CatalogCSV: path})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	if len(medicines) != 3 {
		t.Fatalf("expected seed plus one csv medicine, got %d", len(medicines))
	}
	if medicines[2].ID != "MED-2001" || medicines[0].BrandName != "Dolo-650" {
		t.Fatalf("unexpected catalog order %s %s", medicines[0].BrandName, medicines[2].ID)
	}
}
