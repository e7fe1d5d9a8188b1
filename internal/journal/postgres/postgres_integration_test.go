package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/domain"
)

func TestAppendAndRecentRoundTrip(t *testing.T) {
	databaseURL := os.Getenv("PHARMAPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set PHARMAPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	invoice := fmt.Sprintf("#INV-IT%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transaction_records WHERE invoice = $1`, invoice)
	})

	record := domain.TransactionRecord{
		Invoice:     invoice,
		Kind:        domain.RecordSale,
		Customer:    "Walk-in Customer",
		Date:        "Mar 5, 2024",
		Amount:      "₹105.00",
		AmountValue: decimal.RequireFromString("105"),
		Status:      domain.StatusPaid,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.Append(ctx, record); err != nil {
		t.Fatalf("append: %v", err)
	}

	recent, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Invoice != invoice {
		t.Fatalf("expected latest record %s, got %+v", invoice, recent)
	}
	if !recent[0].AmountValue.Equal(record.AmountValue) || recent[0].Kind != domain.RecordSale {
		t.Fatalf("unexpected round trip %+v", recent[0])
	}
}
