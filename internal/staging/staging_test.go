package staging

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/numtext"
	"pharmapos/backend/internal/store"
)

func committed() []domain.Batch {
	return []domain.Batch{
		{ID: "PCMD01", Expiry: "2025-01-31", Stock: 50, Price: decimal.NewFromInt(25), PurchasePrice: decimal.RequireFromString("22.75"), MRP: decimal.NewFromInt(25), GSTRate: numtext.Rate("12")},
		{ID: "PCMD02", Expiry: "2025-03-15", Stock: 120, Price: decimal.NewFromInt(24), PurchasePrice: decimal.RequireFromString("22.75"), MRP: decimal.NewFromInt(24), GSTRate: numtext.Rate("12")},
	}
}

func mustEdit(t *testing.T, e Editor, index int, field string, value string) Editor {
	t.Helper()
	next, err := e.EditField(index, field, value)
	if err != nil {
		t.Fatalf("edit %s: %v", field, err)
	}
	return next
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("expected %s=%s, got %s", name, want, got)
	}
}

func TestUnchangedEditorHasNoHistory(t *testing.T) {
	e := NewEditor(committed(), nil)
	if e.Dirty() {
		t.Fatalf("expected fresh editor to be clean, got %+v", e.History(time.Now()))
	}
	bill := e.Bill()
	assertDecimal(t, "total", bill.Total, "0")
}

func TestWhitespaceOnlyEditIsNotAChange(t *testing.T) {
	e := mustEdit(t, NewEditor(committed(), nil), 0, FieldExpiry, " 2025-01-31  ")
	if e.Dirty() {
		t.Fatalf("expected trimmed-equal value to produce no history")
	}
}

func TestStockIncreaseBill(t *testing.T) {
	e := mustEdit(t, NewEditor(committed(), nil), 0, FieldStock, "70")

	history := e.History(time.Now())
	if len(history) != 1 || history[0].Type != domain.ChangeEdit || history[0].Field != FieldStock {
		t.Fatalf("expected one stock edit, got %+v", history)
	}
	if history[0].OldValue != "50" || history[0].NewValue != "70" {
		t.Fatalf("unexpected values %+v", history[0])
	}

	bill := e.Bill()
	assertDecimal(t, "subtotal", bill.Subtotal, "455")
	assertDecimal(t, "gst", bill.GST, "54.6")
	assertDecimal(t, "total", bill.Total, "509.6")
}

func TestStockDecreaseIsNotCredited(t *testing.T) {
	e := mustEdit(t, NewEditor(committed(), nil), 0, FieldStock, "10")
	assertDecimal(t, "total", e.Bill().Total, "0")
}

func TestPurchasePriceChangeBillsOriginalStock(t *testing.T) {
	e := mustEdit(t, NewEditor(committed(), nil), 1, FieldPurchasePrice, "23.75")
	// 120 units x 1.00 = 120, gst 12% = 14.4
	bill := e.Bill()
	assertDecimal(t, "subtotal", bill.Subtotal, "120")
	assertDecimal(t, "total", bill.Total, "134.4")
}

func TestNewBatchIsCostedInFull(t *testing.T) {
	e, id := NewEditor(committed(), nil).AddBatch()
	if !strings.HasPrefix(id, "NEW-") {
		t.Fatalf("expected placeholder id, got %s", id)
	}
	e = mustEdit(t, e, 2, FieldStock, "10")
	e = mustEdit(t, e, 2, FieldPurchasePrice, "5")
	e = mustEdit(t, e, 2, FieldGSTRate, "5")

	history := e.History(time.Now())
	if len(history) != 1 || history[0].Type != domain.ChangeAdd || history[0].BatchID != id {
		t.Fatalf("expected a single add entry, got %+v", history)
	}
	bill := e.Bill()
	assertDecimal(t, "subtotal", bill.Subtotal, "50")
	assertDecimal(t, "gst", bill.GST, "2.5")
}

func TestRemovedBatchProducesDelete(t *testing.T) {
	e, err := NewEditor(committed(), nil).RemoveBatch(1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	history := e.History(time.Now())
	if len(history) != 1 || history[0].Type != domain.ChangeDelete || history[0].BatchID != "PCMD02" {
		t.Fatalf("expected delete entry for PCMD02, got %+v", history)
	}
	if len(NewEditor(committed(), nil).Batches()) != 2 {
		t.Fatalf("expected committed batches untouched")
	}
}

func TestRenamedBatchIsDeleteAndAdd(t *testing.T) {
	e := mustEdit(t, NewEditor(committed(), nil), 0, FieldID, "PCMD01-R")
	history := e.History(time.Now())
	if len(history) != 2 {
		t.Fatalf("expected delete and add, got %+v", history)
	}
	if history[0].Type != domain.ChangeDelete || history[1].Type != domain.ChangeAdd {
		t.Fatalf("expected delete before add, got %+v", history)
	}
}

func TestEditFieldRejectsUnknownFieldAndIndex(t *testing.T) {
	e := NewEditor(committed(), nil)
	if _, err := e.EditField(0, "colour", "red"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected unknown field rejected, got %v", err)
	}
	if _, err := e.EditField(9, FieldStock, "1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected bad index rejected, got %v", err)
	}
}

func TestStageTrimsAndTypes(t *testing.T) {
	e := mustEdit(t, NewEditor(committed(), nil), 0, FieldID, " PCMD01 ")
	e = mustEdit(t, e, 0, FieldGSTRate, " 18 ")
	e = mustEdit(t, e, 0, FieldStock, "75")

	batches, err := e.Stage()
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if batches[0].ID != "PCMD01" || numtext.FormatRate(batches[0].GSTRate) != "18" || batches[0].Stock != 75 {
		t.Fatalf("unexpected staged batch %+v", batches[0])
	}
}

func TestStageValidation(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value string
		index int
	}{
		{"duplicate id", FieldID, "PCMD02", 0},
		{"blank expiry", FieldExpiry, "  ", 1},
		{"negative price", FieldPrice, "-1", 0},
		{"non numeric mrp", FieldMRP, "abc", 1},
		{"fractional stock", FieldStock, "7.5", 0},
		{"exponent stock", FieldStock, "1e2", 0},
		{"leading dot stock", FieldStock, ".5", 1},
		{"blank id", FieldID, "", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := mustEdit(t, NewEditor(committed(), nil), tc.index, tc.field, tc.value)
			_, err := e.Stage()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected error on %s, got %s", tc.field, verr.Field)
			}
			if !errors.Is(err, store.ErrInvalidInput) {
				t.Fatalf("expected validation error to unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestEditorStartsFromStagedWorkingCopy(t *testing.T) {
	staged := committed()
	staged[0].Stock = 70
	e := NewEditor(committed(), staged)

	if !e.Dirty() {
		t.Fatalf("expected staged copy to differ from committed original")
	}
	assertDecimal(t, "total", e.Bill().Total, "509.6")
}

func TestStagedStockMatchesBilledStock(t *testing.T) {
	e := mustEdit(t, NewEditor(committed(), nil), 0, FieldStock, "70 units")
	batches, err := e.Stage()
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if batches[0].Stock != 70 {
		t.Fatalf("expected staged stock 70, got %d", batches[0].Stock)
	}
	assertDecimal(t, "total", e.Bill().Total, "509.6")
}
