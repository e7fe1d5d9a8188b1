package memory

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/numtext"
)

// Catalog CSV columns, one row per batch. Rows sharing a medicine_id are
// folded into one medicine in first-seen order.
var catalogColumns = []string{
	"medicine_id", "brand_name", "medicine_name", "hsn_code", "pack_size",
	"manufacturer", "category", "reorder_level",
	"batch_id", "expiry", "stock", "price", "purchase_price", "mrp", "gst_rate",
}

// LoadCatalogCSV reads the catalog file at path.
func LoadCatalogCSV(path string) ([]domain.Medicine, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCatalogCSV(file)
}

func ReadCatalogCSV(r io.Reader) ([]domain.Medicine, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range catalogColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("catalog header missing column %q", col)
		}
	}

	medicines := make([]domain.Medicine, 0, 32)
	positions := map[string]int{}
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("[memory-store] WARN: unable to read catalog row: %v", err)
			continue
		}
		field := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		medID := field("medicine_id")
		batchID := field("batch_id")
		if medID == "" || field("brand_name") == "" {
			continue
		}

		pos, seen := positions[medID]
		if !seen {
			medicines = append(medicines, domain.Medicine{
				ID:           medID,
				BrandName:    field("brand_name"),
				MedicineName: field("medicine_name"),
				HSNCode:      field("hsn_code"),
				PackSize:     field("pack_size"),
				Manufacturer: field("manufacturer"),
				Category:     field("category"),
				ReorderLevel: numtext.IntOrZero(field("reorder_level")),
				Status:       domain.MedicineActive,
				Batches:      []domain.Batch{},
			})
			pos = len(medicines) - 1
			positions[medID] = pos
		}
		if batchID == "" {
			continue
		}

		dup := false
		for _, existing := range medicines[pos].Batches {
			if existing.ID == batchID {
				dup = true
				break
			}
		}
		if dup {
			log.Printf("[memory-store] WARN: duplicate batch %s for medicine %s in catalog, skipped", batchID, medID)
			continue
		}

		price := numtext.DecimalOrZero(field("price"))
		mrp := numtext.DecimalOrZero(field("mrp"))
		if mrp.IsZero() {
			mrp = price
		}
		medicines[pos].Batches = append(medicines[pos].Batches, domain.Batch{
			ID:            batchID,
			Expiry:        field("expiry"),
			Stock:         max(0, numtext.IntOrZero(field("stock"))),
			Price:         price,
			PurchasePrice: numtext.DecimalOrZero(field("purchase_price")),
			MRP:           mrp,
			GSTRate:       numtext.Rate(field("gst_rate")),
		})
		rows++
	}

	log.Printf("[memory-store] loaded catalog with %d medicines, %d batches", len(medicines), rows)
	return medicines, nil
}
