package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/numtext"
	"pharmapos/backend/internal/store"
)

type Store struct {
	mu      sync.RWMutex
	catalog *store.Catalog
}

func New(medicines []domain.Medicine) *Store {
	return &Store{catalog: store.NewCatalog(medicines)}
}

// NewSeeded returns a store holding the demo pharmacy catalog.
func NewSeeded() *Store {
	return New(SeedMedicines())
}

func SeedMedicines() []domain.Medicine {
	d := decimal.RequireFromString
	return []domain.Medicine{
		{
			ID:                "MED-1001",
			MedicineName:      "Paracetamol",
			BrandName:         "Dolo-650",
			SaltComposition:   "Paracetamol (650mg)",
			Strength:          "650mg",
			Form:              "Tablet",
			PackSize:          "15 Tablets",
			Description:       "Used for fever and mild to moderate pain relief.",
			HSNCode:           "30049099",
			GTINBarcode:       "8901234567890",
			Manufacturer:      "GSK",
			MarketingCompany:  "GSK",
			MinStockLevel:     10,
			MaxStockLevel:     100,
			ReorderLevel:      20,
			Category:          "Analgesic",
			ABCClassification: "C",
			Status:            domain.MedicineActive,
			Batches: []domain.Batch{
				{ID: "PCMD01", Expiry: "2025-01-31", Stock: 81, Price: d("25"), PurchasePrice: d("22.75"), MRP: d("25"), GSTRate: numtext.Rate("5")},
				{ID: "PCMD02", Expiry: "2025-03-15", Stock: 120, Price: d("24"), PurchasePrice: d("22.75"), MRP: d("24"), GSTRate: numtext.Rate("12")},
			},
		},
		{
			ID:                "MED-1002",
			MedicineName:      "Amoxicillin & Potassium Clavulanate",
			BrandName:         "Moxikind-CV 625",
			SaltComposition:   "Amoxycillin (500mg) + Clavulanic Acid (125mg)",
			Strength:          "625mg",
			Form:              "Tablet",
			PackSize:          "10 Tablets",
			Description:       "Antibiotic used to treat bacterial infections.",
			HSNCode:           "30042019",
			GTINBarcode:       "8909876543210",
			Manufacturer:      "Cipla",
			MarketingCompany:  "Cipla",
			IsScheduleH1:      true,
			MinStockLevel:     20,
			MaxStockLevel:     200,
			ReorderLevel:      40,
			Category:          "Antibiotic",
			ABCClassification: "A",
			Status:            domain.MedicineActive,
			Batches: []domain.Batch{
				{ID: "PCMD03", Expiry: "2025-04-30", Stock: 95, Price: d("15"), PurchasePrice: d("12.50"), MRP: d("15"), GSTRate: numtext.Rate("12")},
				{ID: "PCMD04", Expiry: "2025-05-31", Stock: 200, Price: d("15"), PurchasePrice: d("12.50"), MRP: d("15"), GSTRate: numtext.Rate("12")},
			},
		},
	}
}

func (s *Store) ListMedicines(_ context.Context) ([]domain.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.CloneMedicines(s.catalog.Medicines), nil
}

func (s *Store) FindMedicine(_ context.Context, id string) (domain.Medicine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.FindMedicine(id)
}

func (s *Store) FindBatch(_ context.Context, medicineID string, batchID string) (domain.Batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.FindBatch(medicineID, batchID)
}

func (s *Store) Update(ctx context.Context, fn func(c *store.Catalog) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	working := s.catalog.Clone()
	if err := fn(working); err != nil {
		return err
	}
	s.catalog = working
	return nil
}
