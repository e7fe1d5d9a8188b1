package audit

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/numtext"
	"pharmapos/backend/internal/xid"
)

const (
	DateLayout     = "Jan 2, 2006"
	CurrencySymbol = "₹"
)

// Journal mirrors appended records to durable storage.
type Journal interface {
	Append(ctx context.Context, record domain.TransactionRecord) error
}

type NoopJournal struct{}

func (NoopJournal) Append(_ context.Context, _ domain.TransactionRecord) error { return nil }

// Log is the append-only sequence of transaction records for the process.
type Log struct {
	mu      sync.RWMutex
	records []domain.TransactionRecord
	journal Journal
}

func NewLog(journal Journal) *Log {
	if journal == nil {
		journal = NoopJournal{}
	}
	return &Log{journal: journal}
}

// Append stores record and mirrors it to the journal. Journal failures are
// logged and never undo the append.
func (l *Log) Append(ctx context.Context, record domain.TransactionRecord) domain.TransactionRecord {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if record.Date == "" {
		record.Date = record.CreatedAt.Format(DateLayout)
	}

	l.mu.Lock()
	l.records = append(l.records, record)
	l.mu.Unlock()

	if err := l.journal.Append(ctx, record); err != nil {
		log.Printf("[audit] WARN: failed to journal record invoice=%s: %v", record.Invoice, err)
	}
	return record
}

// List returns the records newest first.
func (l *Log) List() []domain.TransactionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.TransactionRecord, len(l.records))
	for i, rec := range l.records {
		out[len(l.records)-1-i] = rec
	}
	return out
}

// Restore seeds the log with previously journaled records, oldest first,
// ahead of anything appended since. Restored records are not re-journaled.
func (l *Log) Restore(records []domain.TransactionRecord) {
	if len(records) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(append([]domain.TransactionRecord{}, records...), l.records...)
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Find returns the most recent record with the invoice id.
func (l *Log) Find(invoice string) (domain.TransactionRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].Invoice == invoice {
			return l.records[i], true
		}
	}
	return domain.TransactionRecord{}, false
}

const DayLayout = "2006-01-02"

// Query narrows and orders a record listing. From and To are inclusive
// calendar days in DayLayout; either may be blank.
type Query struct {
	Text      string
	Status    string
	From      string
	To        string
	SortBy    string
	Ascending bool
}

const (
	SortByDate   = "date"
	SortByAmount = "amount"
)

// Filter keeps records whose invoice or counterparty contains q.Text, case
// insensitively, whose status matches q.Status and whose day falls within
// q.From and q.To. Records are then ordered by q.SortBy, newest or largest
// first unless q.Ascending.
func Filter(records []domain.TransactionRecord, q Query) []domain.TransactionRecord {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	status := strings.TrimSpace(q.Status)
	from := strings.TrimSpace(q.From)
	to := strings.TrimSpace(q.To)

	out := make([]domain.TransactionRecord, 0, len(records))
	for _, rec := range records {
		if status != "" && !strings.EqualFold(string(rec.Status), status) {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(rec.Invoice), text) &&
			!strings.Contains(strings.ToLower(rec.Customer), text) {
			continue
		}
		day := rec.CreatedAt.Format(DayLayout)
		if (from != "" && day < from) || (to != "" && day > to) {
			continue
		}
		out = append(out, rec)
	}

	switch strings.ToLower(strings.TrimSpace(q.SortBy)) {
	case SortByAmount:
		sort.SliceStable(out, func(i, j int) bool {
			if q.Ascending {
				return signedAmount(out[i]).LessThan(signedAmount(out[j]))
			}
			return signedAmount(out[i]).GreaterThan(signedAmount(out[j]))
		})
	case SortByDate:
		sort.SliceStable(out, func(i, j int) bool {
			if q.Ascending {
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	return out
}

// signedAmount treats debits as negative, matching the displayed amount.
func signedAmount(rec domain.TransactionRecord) decimal.Decimal {
	if strings.HasPrefix(strings.TrimSpace(rec.Amount), "-") {
		return rec.AmountValue.Abs().Neg()
	}
	return rec.AmountValue
}

// Credit formats an incoming amount, e.g. "₹45.50".
func Credit(amount decimal.Decimal) string {
	return CurrencySymbol + numtext.Money(amount)
}

// Debit formats an outgoing amount, e.g. "- ₹455.00".
func Debit(amount decimal.Decimal) string {
	return "- " + CurrencySymbol + numtext.Money(amount)
}

const ZeroAmount = "0.00"

// NewRecord builds a record whose invoice id is the kind's prefix followed by
// suffix, or by the last five millisecond digits of now when suffix is empty.
func NewRecord(kind domain.RecordKind, suffix string, customer string, amount string, value decimal.Decimal, status domain.RecordStatus, now time.Time) domain.TransactionRecord {
	if suffix == "" {
		suffix = xid.Suffix(now)
	}
	return domain.TransactionRecord{
		Invoice:     kind.InvoicePrefix() + suffix,
		Kind:        kind,
		Customer:    customer,
		Date:        now.Format(DateLayout),
		Amount:      amount,
		AmountValue: value,
		Status:      status,
		CreatedAt:   now,
	}
}
