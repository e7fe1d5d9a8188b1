// Package journal mirrors audit records to a database so transaction history
// outlives the process.
package journal

import (
	"context"
	"fmt"
	"strings"

	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/journal/postgres"
	"pharmapos/backend/internal/journal/sqlite"
)

type Store interface {
	Append(ctx context.Context, record domain.TransactionRecord) error
	Recent(ctx context.Context, limit int) ([]domain.TransactionRecord, error)
	Close() error
}

type Noop struct{}

func (Noop) Append(_ context.Context, _ domain.TransactionRecord) error { return nil }

func (Noop) Recent(_ context.Context, _ int) ([]domain.TransactionRecord, error) { return nil, nil }

func (Noop) Close() error { return nil }

// Open selects a backend from the URL scheme: postgres:// or postgresql://
// for Postgres and sqlite:<path> for a local file. An empty URL disables the
// journal.
func Open(ctx context.Context, url string) (Store, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		return Noop{}, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		s, err := postgres.New(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("open postgres journal: %w", err)
		}
		return s, nil
	case strings.HasPrefix(url, "sqlite:"):
		s, err := sqlite.New(ctx, strings.TrimPrefix(url, "sqlite:"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite journal: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported journal url %q", url)
	}
}
