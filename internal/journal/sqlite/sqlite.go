package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"pharmapos/backend/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS transaction_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice TEXT NOT NULL,
		kind TEXT NOT NULL,
		customer TEXT NOT NULL,
		record_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		amount_value TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	)
`

type Store struct {
	db *sqlx.DB
}

type recordRow struct {
	Invoice     string `db:"invoice"`
	Kind        string `db:"kind"`
	Customer    string `db:"customer"`
	Date        string `db:"record_date"`
	Amount      string `db:"amount"`
	AmountValue string `db:"amount_value"`
	Status      string `db:"status"`
	CreatedAt   string `db:"created_at"`
}

// New opens (or creates) the journal database at path.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Append(ctx context.Context, record domain.TransactionRecord) error {
	row := recordRow{
		Invoice:     record.Invoice,
		Kind:        string(record.Kind),
		Customer:    record.Customer,
		Date:        record.Date,
		Amount:      record.Amount,
		AmountValue: record.AmountValue.String(),
		Status:      string(record.Status),
		CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO transaction_records (invoice, kind, customer, record_date, amount, amount_value, status, created_at)
		VALUES (:invoice, :kind, :customer, :record_date, :amount, :amount_value, :status, :created_at)
	`, row)
	return err
}

// Recent returns up to limit records, oldest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.TransactionRecord, error) {
	var rows []recordRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT invoice, kind, customer, record_date, amount, amount_value, status, created_at
		FROM (
			SELECT * FROM transaction_records ORDER BY id DESC LIMIT ?
		)
		ORDER BY id ASC
	`, limit)
	if err != nil {
		return nil, err
	}

	records := make([]domain.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		value, err := decimal.NewFromString(row.AmountValue)
		if err != nil {
			value = decimal.Zero
		}
		createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
		if err != nil {
			createdAt = time.Time{}
		}
		records = append(records, domain.TransactionRecord{
			Invoice:     row.Invoice,
			Kind:        domain.RecordKind(row.Kind),
			Customer:    row.Customer,
			Date:        row.Date,
			Amount:      row.Amount,
			AmountValue: value,
			Status:      domain.RecordStatus(row.Status),
			CreatedAt:   createdAt,
		})
	}
	return records, nil
}
