package analysis

import (
	"sort"
	"strconv"
	"strings"

	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/numtext"
)

type Result struct {
	domain.ImageAnalysis
}

func (r Result) value(key string) string {
	return strings.TrimSpace(r.Fields[key].Value)
}

// Generated lists the keys the service invented rather than read from the images.
func (r Result) Generated() []string {
	out := make([]string, 0)
	for key, field := range r.Fields {
		if field.Source == SourceGenerated {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// Prefill maps the analysis onto a new-medicine form with a single batch.
func (r Result) Prefill() domain.NewMedicineRequest {
	scheduleH1, _ := strconv.ParseBool(r.value("isScheduleH1"))
	meta := domain.MedicineMetadata{
		MedicineName:      r.value("medicineName"),
		BrandName:         r.value("brandName"),
		SaltComposition:   r.value("saltComposition"),
		Strength:          r.value("strength"),
		Form:              r.value("form"),
		PackSize:          r.value("packSize"),
		Description:       r.value("description"),
		HSNCode:           r.value("hsnCode"),
		GTINBarcode:       r.value("gtinBarcode"),
		Manufacturer:      r.value("manufacturer"),
		MarketingCompany:  r.value("marketingCompany"),
		IsScheduleH1:      scheduleH1,
		MinStockLevel:     numtext.IntOrZero(r.value("minStockLevel")),
		MaxStockLevel:     numtext.IntOrZero(r.value("maxStockLevel")),
		ReorderLevel:      numtext.IntOrZero(r.value("reorderLevel")),
		Category:          r.value("category"),
		ABCClassification: r.value("abcClassification"),
	}
	batch := domain.BatchInput{
		BatchNumber:   r.value("batchNumber"),
		ExpiryDate:    r.value("expiryDate"),
		Quantity:      r.value("initialQuantity"),
		SellingPrice:  r.value("sellingPrice"),
		PurchasePrice: r.value("purchasePrice"),
		MRP:           r.value("mrp"),
		GSTRate:       r.value("gstRate"),
	}
	return domain.NewMedicineRequest{Medicine: meta, Batches: []domain.BatchInput{batch}}
}
