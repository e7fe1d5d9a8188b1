package store

import (
	"fmt"

	"pharmapos/backend/internal/domain"
)

// Catalog is the ordered list of active medicines. Its methods mutate the
// receiver; callers that need isolation work on Clone().
type Catalog struct {
	Medicines []domain.Medicine
}

func NewCatalog(medicines []domain.Medicine) *Catalog {
	return &Catalog{Medicines: domain.CloneMedicines(medicines)}
}

func (c *Catalog) Clone() *Catalog {
	return NewCatalog(c.Medicines)
}

func (c *Catalog) indexOf(medicineID string) int {
	for i := range c.Medicines {
		if c.Medicines[i].ID == medicineID {
			return i
		}
	}
	return -1
}

func batchIndex(batches []domain.Batch, batchID string) int {
	for i := range batches {
		if batches[i].ID == batchID {
			return i
		}
	}
	return -1
}

func (c *Catalog) FindMedicine(id string) (domain.Medicine, bool) {
	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Medicine{}, false
	}
	return c.Medicines[idx].Clone(), true
}

func (c *Catalog) FindBatch(medicineID string, batchID string) (domain.Batch, bool) {
	idx := c.indexOf(medicineID)
	if idx < 0 {
		return domain.Batch{}, false
	}
	bIdx := batchIndex(c.Medicines[idx].Batches, batchID)
	if bIdx < 0 {
		return domain.Batch{}, false
	}
	return c.Medicines[idx].Batches[bIdx], true
}

func (c *Catalog) AddBatch(medicineID string, batch domain.Batch) error {
	idx := c.indexOf(medicineID)
	if idx < 0 {
		return fmt.Errorf("%w: medicine %s", ErrNotFound, medicineID)
	}
	if batchIndex(c.Medicines[idx].Batches, batch.ID) >= 0 {
		return fmt.Errorf("%w: batch %s already exists", ErrDuplicateBatch, batch.ID)
	}
	c.Medicines[idx].Batches = append(c.Medicines[idx].Batches, batch)
	return nil
}

func (c *Catalog) RemoveBatch(medicineID string, batchID string) error {
	idx := c.indexOf(medicineID)
	if idx < 0 {
		return fmt.Errorf("%w: medicine %s", ErrNotFound, medicineID)
	}
	batches := c.Medicines[idx].Batches
	bIdx := batchIndex(batches, batchID)
	if bIdx < 0 {
		return fmt.Errorf("%w: batch %s", ErrNotFound, batchID)
	}
	c.Medicines[idx].Batches = append(batches[:bIdx:bIdx], batches[bIdx+1:]...)
	return nil
}

// AdjustStock applies delta, flooring stock at zero.
func (c *Catalog) AdjustStock(medicineID string, batchID string, delta int) error {
	idx := c.indexOf(medicineID)
	if idx < 0 {
		return fmt.Errorf("%w: medicine %s", ErrNotFound, medicineID)
	}
	bIdx := batchIndex(c.Medicines[idx].Batches, batchID)
	if bIdx < 0 {
		return fmt.Errorf("%w: batch %s", ErrNotFound, batchID)
	}
	batch := &c.Medicines[idx].Batches[bIdx]
	batch.Stock = max(0, batch.Stock+delta)
	return nil
}

// SetBatch overwrites an existing batch in place.
func (c *Catalog) SetBatch(medicineID string, batch domain.Batch) error {
	idx := c.indexOf(medicineID)
	if idx < 0 {
		return fmt.Errorf("%w: medicine %s", ErrNotFound, medicineID)
	}
	bIdx := batchIndex(c.Medicines[idx].Batches, batch.ID)
	if bIdx < 0 {
		return fmt.Errorf("%w: batch %s", ErrNotFound, batch.ID)
	}
	c.Medicines[idx].Batches[bIdx] = batch
	return nil
}

func (c *Catalog) ReplaceBatches(medicineID string, batches []domain.Batch) error {
	idx := c.indexOf(medicineID)
	if idx < 0 {
		return fmt.Errorf("%w: medicine %s", ErrNotFound, medicineID)
	}
	c.Medicines[idx].Batches = domain.CloneBatches(batches)
	return nil
}

// PromoteMedicine appends a pending medicine to the active catalog.
func (c *Catalog) PromoteMedicine(pending domain.Medicine) error {
	if c.indexOf(pending.ID) >= 0 {
		return fmt.Errorf("%w: medicine %s already exists", ErrDuplicateMedicine, pending.ID)
	}
	promoted := pending.Clone()
	promoted.Status = domain.MedicineActive
	c.Medicines = append(c.Medicines, promoted)
	return nil
}

func (c *Catalog) UpdateMedicine(medicine domain.Medicine) error {
	idx := c.indexOf(medicine.ID)
	if idx < 0 {
		return fmt.Errorf("%w: medicine %s", ErrNotFound, medicine.ID)
	}
	c.Medicines[idx] = medicine.Clone()
	return nil
}

func (c *Catalog) DeleteMedicine(id string) (domain.Medicine, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Medicine{}, fmt.Errorf("%w: medicine %s", ErrNotFound, id)
	}
	removed := c.Medicines[idx]
	c.Medicines = append(c.Medicines[:idx:idx], c.Medicines[idx+1:]...)
	return removed, nil
}
