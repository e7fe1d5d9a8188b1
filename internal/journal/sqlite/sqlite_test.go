package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	records := []domain.TransactionRecord{
		{Invoice: "#INV-00001", Kind: domain.RecordSale, Customer: "Walk-in Customer", Date: "Mar 5, 2024", Amount: "₹105.00", AmountValue: decimal.RequireFromString("105"), Status: domain.StatusPaid, CreatedAt: now},
		{Invoice: "#SUP-00002", Kind: domain.RecordSupplierPurchase, Customer: "Supplier Purchase", Date: "Mar 5, 2024", Amount: "- ₹455.00", AmountValue: decimal.RequireFromString("455"), Status: domain.StatusPaid, CreatedAt: now.Add(time.Minute)},
		{Invoice: "#DEL-00003", Kind: domain.RecordDeleted, Customer: "Medicine Deleted: Dolo-650", Date: "Mar 5, 2024", Amount: "0.00", Status: domain.StatusDeleted, CreatedAt: now.Add(2 * time.Minute)},
	}
	for _, rec := range records {
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("append %s: %v", rec.Invoice, err)
		}
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].Invoice != "#SUP-00002" || recent[1].Invoice != "#DEL-00003" {
		t.Fatalf("expected the two newest records oldest first, got %s, %s", recent[0].Invoice, recent[1].Invoice)
	}
	if !recent[0].AmountValue.Equal(decimal.NewFromInt(455)) || recent[0].Kind != domain.RecordSupplierPurchase {
		t.Fatalf("unexpected round trip %+v", recent[0])
	}
	if !recent[1].CreatedAt.Equal(now.Add(2 * time.Minute)) {
		t.Fatalf("expected created_at preserved, got %s", recent[1].CreatedAt)
	}
}

func TestRecentOnEmptyJournal(t *testing.T) {
	s := newTestStore(t)
	recent, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected no records, got %d", len(recent))
	}
}
