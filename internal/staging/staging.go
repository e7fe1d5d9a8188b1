// Package staging holds in-progress edits to one medicine's batch list.
//
// An Editor keeps the committed batches as the original reference and a
// working copy that may hold invalid text while being typed. History and Bill
// describe the difference between the two; Stage validates the working copy
// and turns it into typed batches.
package staging

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/numtext"
	"pharmapos/backend/internal/store"
	"pharmapos/backend/internal/xid"
)

const (
	FieldID            = "id"
	FieldExpiry        = "expiry"
	FieldStock         = "stock"
	FieldPrice         = "price"
	FieldPurchasePrice = "purchase_price"
	FieldMRP           = "mrp"
	FieldGSTRate       = "gst_rate"
)

// fields lists the compared batch fields in display order.
var fields = []string{FieldID, FieldExpiry, FieldStock, FieldPrice, FieldPurchasePrice, FieldMRP, FieldGSTRate}

var required = []string{FieldID, FieldExpiry, FieldStock, FieldPrice, FieldPurchasePrice, FieldMRP}

var hundred = decimal.NewFromInt(100)

type ValidationError struct {
	Index   int
	BatchID string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("batch %q: %s %s", e.BatchID, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return store.ErrInvalidInput
}

type Editor struct {
	original []domain.BatchDraft
	working  []domain.BatchDraft
}

// NewEditor starts an edit of original. A nil working list starts from the
// original batches.
func NewEditor(original []domain.Batch, working []domain.Batch) Editor {
	if working == nil {
		working = original
	}
	return Editor{original: Drafts(original), working: Drafts(working)}
}

func Drafts(batches []domain.Batch) []domain.BatchDraft {
	out := make([]domain.BatchDraft, 0, len(batches))
	for _, b := range batches {
		out = append(out, DraftOf(b))
	}
	return out
}

func DraftOf(b domain.Batch) domain.BatchDraft {
	return domain.BatchDraft{
		ID:            b.ID,
		Expiry:        b.Expiry,
		Stock:         strconv.Itoa(b.Stock),
		Price:         b.Price.String(),
		PurchasePrice: b.PurchasePrice.String(),
		MRP:           b.MRP.String(),
		GSTRate:       numtext.FormatRate(b.GSTRate),
		IsNew:         b.IsNew,
	}
}

func (e Editor) Batches() []domain.BatchDraft {
	return append([]domain.BatchDraft{}, e.working...)
}

func (e Editor) Original() []domain.BatchDraft {
	return append([]domain.BatchDraft{}, e.original...)
}

func (e Editor) withWorking(working []domain.BatchDraft) Editor {
	return Editor{original: e.original, working: working}
}

// EditField sets one text field of the working batch at index. Values are
// stored verbatim.
func (e Editor) EditField(index int, field string, value string) (Editor, error) {
	if index < 0 || index >= len(e.working) {
		return e, fmt.Errorf("%w: batch index %d", store.ErrNotFound, index)
	}
	working := e.Batches()
	draft := &working[index]
	switch field {
	case FieldID:
		draft.ID = value
	case FieldExpiry:
		draft.Expiry = value
	case FieldStock:
		draft.Stock = value
	case FieldPrice:
		draft.Price = value
	case FieldPurchasePrice:
		draft.PurchasePrice = value
	case FieldMRP:
		draft.MRP = value
	case FieldGSTRate:
		draft.GSTRate = value
	default:
		return e, fmt.Errorf("%w: unknown batch field %q", store.ErrInvalidInput, field)
	}
	return e.withWorking(working), nil
}

// AddBatch appends a blank batch with a NEW-XXXXX placeholder id.
func (e Editor) AddBatch() (Editor, string) {
	id := xid.Placeholder("NEW")
	for e.hasWorkingID(id) {
		id = xid.Placeholder("NEW")
	}
	working := append(e.Batches(), domain.BatchDraft{
		ID:            id,
		Stock:         "0",
		Price:         "0",
		PurchasePrice: "0",
		MRP:           "0",
		IsNew:         true,
	})
	return e.withWorking(working), id
}

func (e Editor) hasWorkingID(id string) bool {
	for _, d := range e.working {
		if strings.TrimSpace(d.ID) == id {
			return true
		}
	}
	return false
}

func (e Editor) RemoveBatch(index int) (Editor, error) {
	if index < 0 || index >= len(e.working) {
		return e, fmt.Errorf("%w: batch index %d", store.ErrNotFound, index)
	}
	working := append(append([]domain.BatchDraft{}, e.working[:index]...), e.working[index+1:]...)
	return e.withWorking(working), nil
}

func fieldValue(d domain.BatchDraft, field string) string {
	switch field {
	case FieldID:
		return d.ID
	case FieldExpiry:
		return d.Expiry
	case FieldStock:
		return d.Stock
	case FieldPrice:
		return d.Price
	case FieldPurchasePrice:
		return d.PurchasePrice
	case FieldMRP:
		return d.MRP
	case FieldGSTRate:
		return d.GSTRate
	}
	return ""
}

func (e Editor) originalByID() map[string]domain.BatchDraft {
	byID := make(map[string]domain.BatchDraft, len(e.original))
	for _, d := range e.original {
		byID[strings.TrimSpace(d.ID)] = d
	}
	return byID
}

// History lists what the working copy changes relative to the original:
// deletions first, then additions and field edits in working order. The
// isNew flag is never compared.
func (e Editor) History(now time.Time) []domain.ChangeEntry {
	working := make(map[string]struct{}, len(e.working))
	for _, d := range e.working {
		working[strings.TrimSpace(d.ID)] = struct{}{}
	}

	history := make([]domain.ChangeEntry, 0)
	for _, orig := range e.original {
		id := strings.TrimSpace(orig.ID)
		if _, ok := working[id]; ok {
			continue
		}
		history = append(history, domain.ChangeEntry{
			Type:      domain.ChangeDelete,
			BatchID:   id,
			Field:     "batch",
			OldValue:  id,
			NewValue:  "N/A",
			Timestamp: now,
		})
	}

	originals := e.originalByID()
	for _, d := range e.working {
		id := strings.TrimSpace(d.ID)
		orig, ok := originals[id]
		if !ok {
			history = append(history, domain.ChangeEntry{
				Type:      domain.ChangeAdd,
				BatchID:   id,
				Field:     "batch",
				OldValue:  "N/A",
				NewValue:  "New Batch Added",
				Timestamp: now,
			})
			continue
		}
		for _, field := range fields {
			oldValue := strings.TrimSpace(fieldValue(orig, field))
			newValue := strings.TrimSpace(fieldValue(d, field))
			if oldValue == newValue {
				continue
			}
			history = append(history, domain.ChangeEntry{
				Type:      domain.ChangeEdit,
				BatchID:   id,
				Field:     field,
				OldValue:  fieldValue(orig, field),
				NewValue:  fieldValue(d, field),
				Timestamp: now,
			})
		}
	}
	return history
}

// Dirty reports whether the working copy differs from the original.
func (e Editor) Dirty() bool {
	return len(e.History(time.Time{})) > 0
}

// Bill prices the net new cost of the working copy. A batch without an
// original counterpart is costed in full; an existing batch is costed for its
// stock increase at the new purchase price plus the purchase price change
// applied to its original stock.
func (e Editor) Bill() domain.BillSummary {
	originals := e.originalByID()
	subtotal := decimal.Zero
	gst := decimal.Zero

	for _, d := range e.working {
		stock := decimal.NewFromInt(int64(numtext.IntOrZero(d.Stock)))
		purchase := numtext.DecimalOrZero(d.PurchasePrice)
		rate := numtext.DecimalOrZero(d.GSTRate)

		orig, ok := originals[strings.TrimSpace(d.ID)]
		var cost decimal.Decimal
		if !ok || d.IsNew {
			cost = purchase.Mul(stock)
		} else {
			oldStock := decimal.NewFromInt(int64(numtext.IntOrZero(orig.Stock)))
			oldPurchase := numtext.DecimalOrZero(orig.PurchasePrice)

			cost = decimal.Zero
			if increase := stock.Sub(oldStock); increase.IsPositive() {
				cost = cost.Add(increase.Mul(purchase))
			}
			if change := purchase.Sub(oldPurchase); !change.IsZero() {
				cost = cost.Add(oldStock.Mul(change))
			}
		}

		subtotal = subtotal.Add(cost)
		gst = gst.Add(cost.Mul(rate).Div(hundred))
	}

	return domain.BillSummary{Subtotal: subtotal, GST: gst, Total: subtotal.Add(gst)}
}

// Stage validates the working copy and returns it as typed batches with ids
// and GST rates trimmed. Any violation rejects the whole list.
func (e Editor) Stage() ([]domain.Batch, error) {
	seen := make(map[string]int, len(e.working))
	for i, d := range e.working {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			return nil, &ValidationError{Index: i, BatchID: id, Field: FieldID, Reason: "is duplicated"}
		}
		seen[id] = i
	}

	batches := make([]domain.Batch, 0, len(e.working))
	for i, d := range e.working {
		id := strings.TrimSpace(d.ID)
		for _, field := range required {
			if strings.TrimSpace(fieldValue(d, field)) == "" {
				return nil, &ValidationError{Index: i, BatchID: id, Field: field, Reason: "is required"}
			}
		}

		numbers := make(map[string]decimal.Decimal, 4)
		for _, field := range []string{FieldStock, FieldPrice, FieldPurchasePrice, FieldMRP} {
			value, ok := numtext.Decimal(fieldValue(d, field))
			if !ok || value.IsNegative() {
				return nil, &ValidationError{Index: i, BatchID: id, Field: field, Reason: "must be a valid non-negative number"}
			}
			if field == FieldStock {
				whole, _ := numtext.Int(fieldValue(d, field))
				if !value.Equal(decimal.NewFromInt(int64(whole))) {
					return nil, &ValidationError{Index: i, BatchID: id, Field: field, Reason: "must be a whole number"}
				}
			}
			numbers[field] = value
		}

		batches = append(batches, domain.Batch{
			ID:            id,
			Expiry:        d.Expiry,
			Stock:         int(numbers[FieldStock].IntPart()),
			Price:         numbers[FieldPrice],
			PurchasePrice: numbers[FieldPurchasePrice],
			MRP:           numbers[FieldMRP],
			GSTRate:       numtext.Rate(d.GSTRate),
			IsNew:         d.IsNew,
		})
	}
	return batches, nil
}
