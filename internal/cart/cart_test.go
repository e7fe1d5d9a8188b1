package cart

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/numtext"
	"pharmapos/backend/internal/store"
)

func testMedicine() (domain.Medicine, domain.Batch) {
	batch := domain.Batch{
		ID:            "PCMD01",
		Expiry:        "2025-01-31",
		Stock:         5,
		Price:         decimal.NewFromInt(25),
		PurchasePrice: decimal.RequireFromString("22.75"),
		MRP:           decimal.NewFromInt(25),
		GSTRate:       numtext.Rate("5"),
	}
	med := domain.Medicine{
		ID:        "MED-1001",
		BrandName: "Dolo-650",
		HSNCode:   "30049099",
		PackSize:  "15 Tablets",
		Batches:   []domain.Batch{batch},
	}
	return med, batch
}

func TestAddOrAdjustRejectsOversell(t *testing.T) {
	med, batch := testMedicine()
	c := New(domain.CartSale)

	c, effect, err := c.AddOrAdjust(med, batch, 5)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !effect.FirstInsert {
		t.Fatalf("expected first insert into empty cart to be reported")
	}

	next, _, err := c.AddOrAdjust(med, batch, 1)
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if line, _ := next.Find(med.ID, "PCMD01"); line.Quantity != 5 {
		t.Fatalf("expected rejected adjust to leave quantity at 5, got %d", line.Quantity)
	}
}

func TestAddOrAdjustAllowsNewBatchesAndRestockBeyondStock(t *testing.T) {
	med, batch := testMedicine()

	restock, _, err := New(domain.CartRestock).AddOrAdjust(med, batch, 50)
	if err != nil {
		t.Fatalf("restock add: %v", err)
	}
	if line, _ := restock.Find(med.ID, "PCMD01"); line.Quantity != 50 {
		t.Fatalf("expected restock quantity 50, got %d", line.Quantity)
	}

	batch.IsNew = true
	sale, _, err := New(domain.CartSale).AddOrAdjust(med, batch, 50)
	if err != nil {
		t.Fatalf("expected new batch to bypass stock ceiling, got %v", err)
	}
	if sale.Len() != 1 {
		t.Fatalf("expected one line")
	}
}

func TestNetZeroDeltaRestoresCart(t *testing.T) {
	med, batch := testMedicine()
	c := New(domain.CartSale)
	before := c.Lines()

	c, _, _ = c.AddOrAdjust(med, batch, 2)
	c, effect, err := c.AddOrAdjust(med, batch, -2)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if !effect.Removed {
		t.Fatalf("expected zero quantity to remove the line")
	}
	if !reflect.DeepEqual(before, c.Lines()) {
		t.Fatalf("expected cart back to its prior state, got %+v", c.Lines())
	}
}

func TestOperationsDoNotMutateReceiver(t *testing.T) {
	med, batch := testMedicine()
	original, _, _ := New(domain.CartSale).AddOrAdjust(med, batch, 1)

	_, _, _ = original.AddOrAdjust(med, batch, 2)
	_ = original.RemoveLine(med.ID, batch.ID)

	if line, _ := original.Find(med.ID, batch.ID); line.Quantity != 1 {
		t.Fatalf("expected receiver unchanged, got quantity %d", line.Quantity)
	}
}

func TestSetQuantityParsesAndClamps(t *testing.T) {
	med, batch := testMedicine()
	c := New(domain.CartSale)

	c, _, _ = c.SetQuantity(med, batch, "99")
	if line, _ := c.Find(med.ID, batch.ID); line.Quantity != 5 {
		t.Fatalf("expected clamp to stock 5, got %d", line.Quantity)
	}

	c, _, _ = c.SetQuantity(med, batch, "3abc")
	if line, _ := c.Find(med.ID, batch.ID); line.Quantity != 3 {
		t.Fatalf("expected leading digits to parse, got %d", line.Quantity)
	}

	c, effect, _ := c.SetQuantity(med, batch, "-4")
	if !effect.Removed || c.Len() != 0 {
		t.Fatalf("expected negative quantity to clamp to 0 and remove")
	}

	c, _, _ = c.SetQuantity(med, batch, "two")
	if c.Len() != 0 {
		t.Fatalf("expected non-numeric text to be treated as 0")
	}
}

func TestSnapshotFreezesBatchFields(t *testing.T) {
	med, batch := testMedicine()
	c, _, _ := New(domain.CartSale).AddOrAdjust(med, batch, 1)

	batch.Price = decimal.NewFromInt(40)
	batch.GSTRate = numtext.Rate("18")
	c, _, _ = c.AddOrAdjust(med, batch, 1)

	line, _ := c.Find(med.ID, batch.ID)
	if !line.Price.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected price snapshot 25, got %s", line.Price)
	}
	if numtext.FormatRate(line.GSTRate) != "5" {
		t.Fatalf("expected gst snapshot 5, got %s", numtext.FormatRate(line.GSTRate))
	}
	if line.HSNCode != "30049099" || line.PackSize != "15 Tablets" || line.Expiry != "2025-01-31" {
		t.Fatalf("expected medicine snapshot fields, got %+v", line)
	}
	if line.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", line.Quantity)
	}
}

func TestSnapshotFallsBackToPriceForMissingMRP(t *testing.T) {
	med, batch := testMedicine()
	batch.MRP = decimal.Zero
	line := Snapshot(med, batch, 1)
	if !line.MRP.Equal(batch.Price) {
		t.Fatalf("expected MRP to fall back to price, got %s", line.MRP)
	}
}

func TestSetFreeQuantity(t *testing.T) {
	med, batch := testMedicine()
	c, _, _ := New(domain.CartSale).AddOrAdjust(med, batch, 2)

	c, err := c.SetFreeQuantity(med.ID, batch.ID, "1")
	if err != nil {
		t.Fatalf("set free quantity: %v", err)
	}
	if line, _ := c.Find(med.ID, batch.ID); line.FreeQuantity != 1 {
		t.Fatalf("expected free quantity 1, got %d", line.FreeQuantity)
	}

	if _, err := c.SetFreeQuantity(med.ID, batch.ID, "-1"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected negative free quantity rejected, got %v", err)
	}
	if _, err := New(domain.CartRestock).SetFreeQuantity(med.ID, batch.ID, "1"); err == nil {
		t.Fatalf("expected restock cart to refuse free quantity")
	}
}

func TestUpsertEntrySumsQuantity(t *testing.T) {
	med, _ := testMedicine()
	entry := domain.BatchInput{
		BatchNumber:   " NB-77 ",
		ExpiryDate:    "2026-12-31",
		Quantity:      "10",
		PurchasePrice: "20",
		SellingPrice:  "26",
		MRP:           "28",
		GSTRate:       "12",
	}

	c, effect, err := New(domain.CartRestock).UpsertEntry(med, entry)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !effect.FirstInsert {
		t.Fatalf("expected first insert")
	}

	entry.Quantity = "5"
	entry.PurchasePrice = "21"
	c, _, err = c.UpsertEntry(med, entry)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	line, ok := c.Find(med.ID, "NB-77")
	if !ok || line.Quantity != 15 || !line.IsNew {
		t.Fatalf("expected merged new line with quantity 15, got %+v", line)
	}
	if !line.PurchasePrice.Equal(decimal.NewFromInt(21)) {
		t.Fatalf("expected latest snapshot to win, got %s", line.PurchasePrice)
	}

	entry.Quantity = "0"
	if _, _, err := c.UpsertEntry(med, entry); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected zero quantity rejected, got %v", err)
	}
	entry.Quantity = "2"
	entry.MRP = " "
	if _, _, err := c.UpsertEntry(med, entry); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected blank MRP rejected, got %v", err)
	}
}

func TestMergeSumsExistingLine(t *testing.T) {
	med, batch := testMedicine()
	c := New(domain.CartRestock).Merge(Snapshot(med, batch, 4))
	c = c.Merge(Snapshot(med, batch, 6))

	if c.Len() != 1 {
		t.Fatalf("expected single line, got %d", c.Len())
	}
	if line, _ := c.Find(med.ID, batch.ID); line.Quantity != 10 {
		t.Fatalf("expected summed quantity 10, got %d", line.Quantity)
	}
}

func TestRemoveMedicineDropsAllLines(t *testing.T) {
	med, batch := testMedicine()
	other := batch
	other.ID = "PCMD02"
	c, _, _ := New(domain.CartSale).AddOrAdjust(med, batch, 1)
	c, _, _ = c.AddOrAdjust(med, other, 1)

	if c.RemoveMedicine(med.ID).Len() != 0 {
		t.Fatalf("expected all lines removed")
	}
}

func TestSharedBatchIDKeepsMedicinesApart(t *testing.T) {
	med, batch := testMedicine()
	other := domain.Medicine{ID: "MED-2002", BrandName: "Crocin", Batches: []domain.Batch{batch}}
	otherBatch := batch
	otherBatch.Price = decimal.NewFromInt(10)

	c, _, _ := New(domain.CartSale).AddOrAdjust(med, batch, 2)
	c, _, err := c.AddOrAdjust(other, otherBatch, 3)
	if err != nil {
		t.Fatalf("add second medicine: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected separate lines per medicine, got %+v", c.Lines())
	}
	if line, _ := c.Find(med.ID, batch.ID); line.Quantity != 2 || !line.Price.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected first medicine line untouched, got %+v", line)
	}
	if line, _ := c.Find(other.ID, batch.ID); line.Quantity != 3 || !line.Price.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected second medicine line with its own snapshot, got %+v", line)
	}

	c, err = c.SetFreeQuantity(other.ID, batch.ID, "1")
	if err != nil {
		t.Fatalf("set free quantity: %v", err)
	}
	if line, _ := c.Find(med.ID, batch.ID); line.FreeQuantity != 0 {
		t.Fatalf("expected free quantity on the other medicine only, got %+v", line)
	}

	c = c.Merge(Snapshot(other, otherBatch, 4))
	if line, _ := c.Find(other.ID, batch.ID); line.Quantity != 7 {
		t.Fatalf("expected merge into the matching medicine, got %+v", line)
	}
	if c.RemoveLine(med.ID, batch.ID).Len() != 1 {
		t.Fatalf("expected only one line removed")
	}
}
