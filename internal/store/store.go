package store

import (
	"context"
	"errors"

	"pharmapos/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateBatch    = errors.New("duplicate batch")
	ErrDuplicateMedicine = errors.New("duplicate medicine")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
	ErrStaleSnapshot     = errors.New("batches changed since the edit began")
)

// Repository is the batch store shared by carts, staging and the committer.
type Repository interface {
	ListMedicines(ctx context.Context) ([]domain.Medicine, error)
	FindMedicine(ctx context.Context, id string) (domain.Medicine, bool)
	FindBatch(ctx context.Context, medicineID string, batchID string) (domain.Batch, bool)
	// Update runs fn against a private copy of the catalog and publishes the
	// copy only when fn returns nil.
	Update(ctx context.Context, fn func(c *Catalog) error) error
}
