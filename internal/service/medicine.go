package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/audit"
	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/numtext"
	"pharmapos/backend/internal/store"
)

// CreatePendingMedicine holds a new medicine until the next restock commit.
func (s *Service) CreatePendingMedicine(req domain.NewMedicineRequest) (domain.Medicine, error) {
	meta := trimMetadata(req.Medicine)
	if meta.MedicineName == "" {
		return domain.Medicine{}, invalid("medicine_name is required")
	}
	if meta.BrandName == "" {
		return domain.Medicine{}, invalid("brand_name is required")
	}
	if len(req.Batches) == 0 {
		return domain.Medicine{}, invalid("at least one batch is required")
	}

	batches := make([]domain.Batch, 0, len(req.Batches))
	seen := make(map[string]struct{}, len(req.Batches))
	for i, in := range req.Batches {
		batch, err := batchFromInput(in, i)
		if err != nil {
			return domain.Medicine{}, err
		}
		if _, dup := seen[batch.ID]; dup {
			return domain.Medicine{}, fmt.Errorf("%w: batch %s listed twice", store.ErrDuplicateBatch, batch.ID)
		}
		seen[batch.ID] = struct{}{}
		batches = append(batches, batch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return domain.Medicine{}, fmt.Errorf("%w: medicine %s is already pending", store.ErrDuplicateMedicine, s.pending.ID)
	}

	med := domain.Medicine{ID: "MED-" + strings.ToUpper(uuid.NewString()), Status: domain.MedicinePending, Batches: batches}
	med.ApplyMetadata(meta)
	med.MetadataHistory = []domain.ChangeEntry{{
		Type:      domain.ChangeAdd,
		Field:     "Medicine Record",
		NewValue:  meta.BrandName,
		Timestamp: s.now(),
	}}
	s.pending = &med

	for _, b := range batches {
		line := cartLineFor(med, b, b.Stock)
		s.restock = s.restock.Merge(line)
	}
	return med.Clone(), nil
}

func cartLineFor(med domain.Medicine, b domain.Batch, qty int) domain.CartLine {
	return domain.CartLine{
		MedicineID:    med.ID,
		BrandName:     med.BrandName,
		MedicineName:  med.MedicineName,
		BatchID:       b.ID,
		Expiry:        b.Expiry,
		Quantity:      qty,
		Price:         b.Price,
		PurchasePrice: b.PurchasePrice,
		MRP:           b.MRP,
		GSTRate:       b.GSTRate,
		HSNCode:       med.HSNCode,
		PackSize:      med.PackSize,
		IsNew:         true,
	}
}

func batchFromInput(in domain.BatchInput, index int) (domain.Batch, error) {
	required := []struct {
		name  string
		value string
	}{
		{"batch_number", in.BatchNumber},
		{"expiry_date", in.ExpiryDate},
		{"quantity", in.Quantity},
		{"purchase_price", in.PurchasePrice},
		{"selling_price", in.SellingPrice},
		{"mrp", in.MRP},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return domain.Batch{}, invalid("batch %d: %s is required", index+1, f.name)
		}
	}
	qty, ok := numtext.Int(in.Quantity)
	if !ok || qty < 0 {
		return domain.Batch{}, invalid("batch %d: quantity must be a non-negative whole number", index+1)
	}
	return domain.Batch{
		ID:            strings.TrimSpace(in.BatchNumber),
		Expiry:        strings.TrimSpace(in.ExpiryDate),
		Stock:         qty,
		Price:         numtext.DecimalOrZero(in.SellingPrice),
		PurchasePrice: numtext.DecimalOrZero(in.PurchasePrice),
		MRP:           numtext.DecimalOrZero(in.MRP),
		GSTRate:       numtext.Rate(in.GSTRate),
	}, nil
}

func (s *Service) PendingMedicine() (domain.Medicine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return domain.Medicine{}, false
	}
	return s.pending.Clone(), true
}

func (s *Service) DiscardPending() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return fmt.Errorf("%w: no pending medicine", store.ErrNotFound)
	}
	s.restock = s.restock.RemoveMedicine(s.pending.ID)
	s.pending = nil
	return nil
}

// UpdateMedicine commits a metadata edit together with the staged batch change set.
func (s *Service) UpdateMedicine(ctx context.Context, id string, req domain.MedicineUpdateRequest) (domain.MedicineUpdateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.repo.FindMedicine(ctx, id)
	if !ok {
		return domain.MedicineUpdateResponse{}, fmt.Errorf("%w: medicine %s", store.ErrNotFound, id)
	}
	meta := trimMetadata(req.Medicine)
	if meta.MedicineName == "" || meta.BrandName == "" {
		return domain.MedicineUpdateResponse{}, invalid("medicine_name and brand_name are required")
	}

	now := s.now()
	metaChanges := DiffMetadata(current.Metadata(), meta, now)
	staged, hasStaged := s.staged[id]
	if len(metaChanges) == 0 && !hasStaged {
		return domain.MedicineUpdateResponse{Medicine: current, Records: []domain.TransactionRecord{}}, nil
	}

	updated := current.Clone()
	updated.ApplyMetadata(meta)
	var history []domain.ChangeEntry
	if hasStaged {
		batches := domain.CloneBatches(staged.Batches)
		for i := range batches {
			batches[i].IsNew = false
		}
		updated.Batches = batches
		history = append(history, staged.History...)
	}
	history = append(history, metaChanges...)
	updated.MetadataHistory = append(updated.MetadataHistory, history...)

	if err := s.repo.Update(ctx, func(c *store.Catalog) error {
		return c.UpdateMedicine(updated)
	}); err != nil {
		return domain.MedicineUpdateResponse{}, err
	}
	delete(s.staged, id)
	delete(s.editors, id)

	records := make([]domain.TransactionRecord, 0, 2)
	if len(metaChanges) > 0 {
		rec := audit.NewRecord(domain.RecordMetadataEdit, "", "Metadata Update: "+updated.BrandName, audit.ZeroAmount, decimal.Zero, domain.StatusPending, now)
		records = append(records, s.audit.Append(ctx, rec))
	}
	if hasStaged && len(staged.History) > 0 {
		var rec domain.TransactionRecord
		if total := staged.Bill.Total; !total.IsZero() {
			rec = audit.NewRecord(domain.RecordBatchPriceUpdate, "", "Batch Price/Restock Update: "+updated.BrandName, audit.Debit(total), total, domain.StatusPaid, now)
		} else {
			rec = audit.NewRecord(domain.RecordBatchAdmin, "", "Batch Admin Change: "+updated.BrandName, audit.ZeroAmount, decimal.Zero, domain.StatusPending, now)
		}
		records = append(records, s.audit.Append(ctx, rec))
	}
	return domain.MedicineUpdateResponse{Medicine: updated, Records: records}, nil
}

func trimMetadata(meta domain.MedicineMetadata) domain.MedicineMetadata {
	for _, f := range []*string{
		&meta.MedicineName, &meta.BrandName, &meta.SaltComposition, &meta.Strength,
		&meta.Form, &meta.PackSize, &meta.Description, &meta.HSNCode, &meta.GTINBarcode,
		&meta.Manufacturer, &meta.MarketingCompany, &meta.Category, &meta.ABCClassification,
	} {
		*f = strings.TrimSpace(*f)
	}
	return meta
}

// DiffMetadata lists the fields that differ between old and next, comparing
// trimmed text. Booleans are rendered as Yes/No.
func DiffMetadata(old domain.MedicineMetadata, next domain.MedicineMetadata, now time.Time) []domain.ChangeEntry {
	pairs := []struct {
		label string
		old   string
		next  string
	}{
		{"Medicine Name", old.MedicineName, next.MedicineName},
		{"Brand Name", old.BrandName, next.BrandName},
		{"Salt Composition", old.SaltComposition, next.SaltComposition},
		{"Strength", old.Strength, next.Strength},
		{"Form", old.Form, next.Form},
		{"Pack Size", old.PackSize, next.PackSize},
		{"Description", old.Description, next.Description},
		{"HSN Code", old.HSNCode, next.HSNCode},
		{"GTIN/Barcode", old.GTINBarcode, next.GTINBarcode},
		{"Manufacturer", old.Manufacturer, next.Manufacturer},
		{"Marketing Company", old.MarketingCompany, next.MarketingCompany},
		{"Schedule H1", yesNo(old.IsScheduleH1), yesNo(next.IsScheduleH1)},
		{"Min Stock Level", strconv.Itoa(old.MinStockLevel), strconv.Itoa(next.MinStockLevel)},
		{"Max Stock Level", strconv.Itoa(old.MaxStockLevel), strconv.Itoa(next.MaxStockLevel)},
		{"Reorder Level", strconv.Itoa(old.ReorderLevel), strconv.Itoa(next.ReorderLevel)},
		{"Category", old.Category, next.Category},
		{"ABC Classification", old.ABCClassification, next.ABCClassification},
	}

	var changes []domain.ChangeEntry
	for _, p := range pairs {
		before, after := strings.TrimSpace(p.old), strings.TrimSpace(p.next)
		if before == after {
			continue
		}
		changes = append(changes, domain.ChangeEntry{
			Type:      domain.ChangeEdit,
			Field:     "Metadata: " + p.label,
			OldValue:  before,
			NewValue:  after,
			Timestamp: now,
		})
	}
	return changes
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func (s *Service) DeleteMedicine(ctx context.Context, id string) (domain.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed domain.Medicine
	err := s.repo.Update(ctx, func(c *store.Catalog) error {
		med, err := c.DeleteMedicine(id)
		removed = med
		return err
	})
	if err != nil {
		return domain.TransactionRecord{}, err
	}

	s.sale = s.sale.RemoveMedicine(id)
	s.restock = s.restock.RemoveMedicine(id)
	delete(s.staged, id)
	delete(s.editors, id)

	rec := audit.NewRecord(domain.RecordDeleted, "", "Medicine Deleted: "+removed.BrandName, audit.ZeroAmount, decimal.Zero, domain.StatusDeleted, s.now())
	return s.audit.Append(ctx, rec), nil
}

func (s *Service) AddInventoryBatch(ctx context.Context, medicineID string, in domain.BatchInput) (domain.Medicine, error) {
	if strings.TrimSpace(in.MRP) == "" {
		in.MRP = in.SellingPrice
	}
	if strings.TrimSpace(in.Quantity) == "" {
		in.Quantity = "0"
	}
	batch, err := batchFromInput(in, 0)
	if err != nil {
		return domain.Medicine{}, err
	}
	batch.IsNew = true

	s.mu.Lock()
	defer s.mu.Unlock()

	var med domain.Medicine
	err = s.repo.Update(ctx, func(c *store.Catalog) error {
		if err := c.AddBatch(medicineID, batch); err != nil {
			return err
		}
		med, _ = c.FindMedicine(medicineID)
		return nil
	})
	return med, err
}

// RemoveInventoryBatch only removes a committed batch once it is empty or still new.
func (s *Service) RemoveInventoryBatch(ctx context.Context, medicineID string, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if line, ok := s.restock.Find(medicineID, batchID); ok && line.IsNew {
		if _, committed := s.repo.FindBatch(ctx, medicineID, batchID); !committed {
			s.restock = s.restock.RemoveLine(medicineID, batchID)
			s.dropPendingBatch(medicineID, batchID)
			return nil
		}
	}

	if s.pending != nil && s.pending.ID == medicineID {
		s.restock = s.restock.RemoveLine(medicineID, batchID)
		s.dropPendingBatch(medicineID, batchID)
		return nil
	}

	batch, ok := s.repo.FindBatch(ctx, medicineID, batchID)
	if !ok {
		return fmt.Errorf("%w: batch %s", store.ErrNotFound, batchID)
	}
	if batch.Stock > 0 && !batch.IsNew {
		return invalid("batch %s still holds %d units", batchID, batch.Stock)
	}

	var med domain.Medicine
	if err := s.repo.Update(ctx, func(c *store.Catalog) error {
		med, _ = c.FindMedicine(medicineID)
		return c.RemoveBatch(medicineID, batchID)
	}); err != nil {
		return err
	}
	s.sale = s.sale.RemoveLine(medicineID, batchID)
	s.restock = s.restock.RemoveLine(medicineID, batchID)

	rec := audit.NewRecord(domain.RecordBatchRemoved, "", fmt.Sprintf("Batch Removed: %s (%s)", med.BrandName, batchID), audit.ZeroAmount, decimal.Zero, domain.StatusPending, s.now())
	s.audit.Append(ctx, rec)
	return nil
}
