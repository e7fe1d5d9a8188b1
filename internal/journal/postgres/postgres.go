package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"pharmapos/backend/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS transaction_records (
		id BIGSERIAL PRIMARY KEY,
		invoice TEXT NOT NULL,
		kind TEXT NOT NULL,
		customer TEXT NOT NULL,
		record_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		amount_value NUMERIC(14, 4) NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)
`

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
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
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transaction_records (invoice, kind, customer, record_date, amount, amount_value, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, record.Invoice, string(record.Kind), record.Customer, record.Date, record.Amount, record.AmountValue, string(record.Status), record.CreatedAt.UTC())
	return err
}

// Recent returns up to limit records, oldest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT invoice, kind, customer, record_date, amount, amount_value, status, created_at
		FROM (
			SELECT * FROM transaction_records ORDER BY id DESC LIMIT $1
		) recent
		ORDER BY id ASC
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.TransactionRecord, 0, limit)
	for rows.Next() {
		var (
			rec    domain.TransactionRecord
			kind   string
			status string
		)
		if err := rows.Scan(&rec.Invoice, &kind, &rec.Customer, &rec.Date, &rec.Amount, &rec.AmountValue, &status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Kind = domain.RecordKind(kind)
		rec.Status = domain.RecordStatus(status)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
