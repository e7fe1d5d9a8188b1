// Package cart implements the sale and restock carts.
//
// A Cart is a value: every operation returns the resulting cart and leaves the
// receiver untouched. Lines are keyed by medicine and batch id, since batch
// ids are only unique within a medicine.
package cart

import (
	"fmt"
	"strings"

	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/numtext"
	"pharmapos/backend/internal/store"
)

// Effect reports side effects the caller is responsible for.
type Effect struct {
	// FirstInsert is set when a line was inserted into an empty cart.
	FirstInsert bool
	Removed     bool
}

type Cart struct {
	mode  domain.CartMode
	lines []domain.CartLine
}

func New(mode domain.CartMode) Cart {
	return Cart{mode: mode}
}

func (c Cart) Mode() domain.CartMode { return c.mode }

func (c Cart) Len() int { return len(c.lines) }

func (c Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Lines returns a copy of the cart lines in insertion order.
func (c Cart) Lines() []domain.CartLine {
	return append([]domain.CartLine{}, c.lines...)
}

func (c Cart) View() domain.CartView {
	return domain.CartView{Mode: c.mode, Lines: c.Lines()}
}

func (c Cart) Find(medicineID string, batchID string) (domain.CartLine, bool) {
	if i := c.index(medicineID, batchID); i >= 0 {
		return c.lines[i], true
	}
	return domain.CartLine{}, false
}

func (c Cart) index(medicineID string, batchID string) int {
	for i := range c.lines {
		if c.lines[i].MedicineID == medicineID && c.lines[i].BatchID == batchID {
			return i
		}
	}
	return -1
}

func (c Cart) with(lines []domain.CartLine) Cart {
	return Cart{mode: c.mode, lines: lines}
}

func (c Cart) enforcesStock(batch domain.Batch) bool {
	return c.mode == domain.CartSale && !batch.IsNew
}

// AddOrAdjust changes the quantity of the batch's line by delta. A resulting
// quantity of zero or less removes the line. Sale carts refuse to exceed the
// stock of a committed batch.
func (c Cart) AddOrAdjust(med domain.Medicine, batch domain.Batch, delta int) (Cart, Effect, error) {
	idx := c.index(med.ID, batch.ID)
	current := 0
	if idx >= 0 {
		current = c.lines[idx].Quantity
	}
	next := current + delta

	if c.enforcesStock(batch) && next > batch.Stock {
		return c, Effect{}, fmt.Errorf("%w: batch %s has %d in stock, requested %d", store.ErrInsufficientStock, batch.ID, batch.Stock, next)
	}
	return c.put(med, batch, idx, next)
}

// SetQuantity sets the line quantity from free text. Unparseable and negative
// input become zero; sale carts clamp to the stock of a committed batch.
func (c Cart) SetQuantity(med domain.Medicine, batch domain.Batch, raw string) (Cart, Effect, error) {
	qty, ok := numtext.Int(raw)
	if !ok || qty < 0 {
		qty = 0
	}
	if c.enforcesStock(batch) && qty > batch.Stock {
		qty = batch.Stock
	}
	return c.put(med, batch, c.index(med.ID, batch.ID), qty)
}

func (c Cart) put(med domain.Medicine, batch domain.Batch, idx int, qty int) (Cart, Effect, error) {
	if qty <= 0 {
		if idx < 0 {
			return c, Effect{}, nil
		}
		lines := append(append([]domain.CartLine{}, c.lines[:idx]...), c.lines[idx+1:]...)
		return c.with(lines), Effect{Removed: true}, nil
	}

	lines := c.Lines()
	if idx >= 0 {
		lines[idx].Quantity = qty
		return c.with(lines), Effect{}, nil
	}

	lines = append(lines, Snapshot(med, batch, qty))
	return c.with(lines), Effect{FirstInsert: len(c.lines) == 0}, nil
}

// RemoveLine drops the line for the medicine's batch, if any.
func (c Cart) RemoveLine(medicineID string, batchID string) Cart {
	lines := make([]domain.CartLine, 0, len(c.lines))
	for _, line := range c.lines {
		if line.MedicineID == medicineID && line.BatchID == batchID {
			continue
		}
		lines = append(lines, line)
	}
	return c.with(lines)
}

// RemoveMedicine drops every line referencing the medicine.
func (c Cart) RemoveMedicine(medicineID string) Cart {
	lines := make([]domain.CartLine, 0, len(c.lines))
	for _, line := range c.lines {
		if line.MedicineID != medicineID {
			lines = append(lines, line)
		}
	}
	return c.with(lines)
}

func (c Cart) Clear() Cart {
	return New(c.mode)
}

// SetFreeQuantity sets promotional units on a sale line.
func (c Cart) SetFreeQuantity(medicineID string, batchID string, raw string) (Cart, error) {
	if c.mode != domain.CartSale {
		return c, fmt.Errorf("%w: free quantity applies to sale lines only", store.ErrInvalidInput)
	}
	qty, ok := numtext.Int(raw)
	if !ok {
		qty = 0
	}
	if qty < 0 {
		return c, fmt.Errorf("%w: free quantity must not be negative", store.ErrInvalidInput)
	}
	idx := c.index(medicineID, batchID)
	if idx < 0 {
		return c, fmt.Errorf("%w: batch %s of %s is not in the cart", store.ErrNotFound, batchID, medicineID)
	}
	lines := c.Lines()
	lines[idx].FreeQuantity = qty
	return c.with(lines), nil
}

// Merge adds line to the cart, summing quantity into an existing line for the same batch.
func (c Cart) Merge(line domain.CartLine) Cart {
	if line.Quantity <= 0 {
		return c
	}
	lines := c.Lines()
	if idx := c.index(line.MedicineID, line.BatchID); idx >= 0 {
		lines[idx].Quantity += line.Quantity
		return c.with(lines)
	}
	return c.with(append(lines, line))
}

// UpsertEntry records a restock batch typed into the add-batch form. The line
// is always marked new; an existing line for the batch takes the new snapshot
// and the summed quantity.
func (c Cart) UpsertEntry(med domain.Medicine, in domain.BatchInput) (Cart, Effect, error) {
	if c.mode != domain.CartRestock {
		return c, Effect{}, fmt.Errorf("%w: batch entries belong to the restock cart", store.ErrInvalidInput)
	}
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
			return c, Effect{}, fmt.Errorf("%w: %s is required", store.ErrInvalidInput, f.name)
		}
	}
	qty, ok := numtext.Int(in.Quantity)
	if !ok || qty <= 0 {
		return c, Effect{}, fmt.Errorf("%w: quantity must be a positive whole number", store.ErrInvalidInput)
	}

	line := domain.CartLine{
		MedicineID:    med.ID,
		BrandName:     med.BrandName,
		MedicineName:  med.MedicineName,
		BatchID:       strings.TrimSpace(in.BatchNumber),
		Expiry:        strings.TrimSpace(in.ExpiryDate),
		Quantity:      qty,
		Price:         numtext.DecimalOrZero(in.SellingPrice),
		PurchasePrice: numtext.DecimalOrZero(in.PurchasePrice),
		MRP:           numtext.DecimalOrZero(in.MRP),
		GSTRate:       numtext.Rate(in.GSTRate),
		HSNCode:       med.HSNCode,
		PackSize:      med.PackSize,
		IsNew:         true,
	}

	lines := c.Lines()
	if idx := c.index(med.ID, line.BatchID); idx >= 0 {
		line.Quantity += lines[idx].Quantity
		lines[idx] = line
		return c.with(lines), Effect{}, nil
	}
	return c.with(append(lines, line)), Effect{FirstInsert: len(c.lines) == 0}, nil
}

// Snapshot freezes the batch and medicine fields a line carries.
func Snapshot(med domain.Medicine, batch domain.Batch, qty int) domain.CartLine {
	mrp := batch.MRP
	if mrp.IsZero() {
		mrp = batch.Price
	}
	return domain.CartLine{
		MedicineID:    med.ID,
		BrandName:     med.BrandName,
		MedicineName:  med.MedicineName,
		BatchID:       batch.ID,
		Expiry:        batch.Expiry,
		Quantity:      qty,
		Price:         batch.Price,
		PurchasePrice: batch.PurchasePrice,
		MRP:           mrp,
		GSTRate:       batch.GSTRate,
		HSNCode:       med.HSNCode,
		PackSize:      med.PackSize,
		IsNew:         batch.IsNew,
	}
}
