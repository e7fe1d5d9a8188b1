package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pharmapos/backend/internal/analysis"
	"pharmapos/backend/internal/audit"
	"pharmapos/backend/internal/billing"
	"pharmapos/backend/internal/cart"
	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/invoice"
	"pharmapos/backend/internal/recommendation"
	"pharmapos/backend/internal/store"
)

type ImageAnalyzer interface {
	Analyze(ctx context.Context, front analysis.Image, back *analysis.Image) (analysis.Result, bool, error)
}

type Options struct {
	Seller   invoice.Seller
	Insights *recommendation.Engine
	Analyzer ImageAnalyzer
	Now      func() time.Time
}

// Service owns the point-of-sale session. Every state transition runs under mu.
type Service struct {
	repo       store.Repository
	audit      *audit.Log
	calculator billing.Calculator
	seller     invoice.Seller
	insights   *recommendation.Engine
	analyzer   ImageAnalyzer
	now        func() time.Time

	mu       sync.Mutex
	sale     cart.Cart
	restock  cart.Cart
	customer domain.Customer
	details  domain.InvoiceDetails
	pending  *domain.Medicine
	editors  map[string]editSession
	staged   map[string]domain.StagedChangeSet
	receipts map[string]invoice.Document
}

func New(repo store.Repository, auditLog *audit.Log, opts Options) *Service {
	if auditLog == nil {
		auditLog = audit.NewLog(nil)
	}
	if opts.Insights == nil {
		opts.Insights = recommendation.NewEngine(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if strings.TrimSpace(opts.Seller.StateCode) == "" {
		opts.Seller.StateCode = billing.DefaultSellerStateCode
	}

	return &Service{
		repo:       repo,
		audit:      auditLog,
		calculator: billing.NewCalculator(opts.Seller.StateCode),
		seller:     opts.Seller,
		insights:   opts.Insights,
		analyzer:   opts.Analyzer,
		now:        opts.Now,
		sale:       cart.New(domain.CartSale),
		restock:    cart.New(domain.CartRestock),
		details:    domain.DefaultInvoiceDetails(),
		editors:    make(map[string]editSession),
		staged:     make(map[string]domain.StagedChangeSet),
		receipts:   make(map[string]invoice.Document),
	}
}

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindUpstream   ErrorKind = "upstream"
	KindInternal   ErrorKind = "internal"
)

func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, store.ErrInvalidInput):
		return KindValidation
	case errors.Is(err, store.ErrNotFound):
		return KindNotFound
	case errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrDuplicateBatch),
		errors.Is(err, store.ErrDuplicateMedicine),
		errors.Is(err, store.ErrStaleSnapshot):
		return KindConflict
	case errors.Is(err, analysis.ErrAnalysisFailed), errors.Is(err, ErrAnalysisUnavailable):
		return KindUpstream
	default:
		return KindInternal
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (s *Service) ListMedicines(ctx context.Context) ([]domain.Medicine, error) {
	return s.repo.ListMedicines(ctx)
}

func (s *Service) GetMedicine(ctx context.Context, id string) (domain.Medicine, error) {
	med, ok := s.repo.FindMedicine(ctx, id)
	if !ok {
		return domain.Medicine{}, fmt.Errorf("%w: medicine %s", store.ErrNotFound, id)
	}
	return med, nil
}

func (s *Service) SearchMedicines(ctx context.Context, query string) ([]domain.Medicine, error) {
	medicines, err := s.repo.ListMedicines(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return medicines, nil
	}

	out := make([]domain.Medicine, 0, len(medicines))
	for _, med := range medicines {
		if matchesMedicine(med, query) {
			out = append(out, med)
		}
	}
	return out, nil
}

func matchesMedicine(med domain.Medicine, query string) bool {
	fields := []string{
		med.ID, med.MedicineName, med.BrandName, med.SaltComposition, med.Strength,
		med.Form, med.PackSize, med.Description, med.HSNCode, med.GTINBarcode,
		med.Manufacturer, med.MarketingCompany, med.Category, med.ABCClassification,
	}
	for _, b := range med.Batches {
		fields = append(fields, b.ID)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func (s *Service) StockInsights(ctx context.Context) (domain.StockInsights, error) {
	medicines, err := s.repo.ListMedicines(ctx)
	if err != nil {
		return domain.StockInsights{}, err
	}
	return s.insights.Insights(medicines, s.now()), nil
}

// Transactions lists audit records newest first unless q asks for another order.
func (s *Service) Transactions(q audit.Query) []domain.TransactionRecord {
	return audit.Filter(s.audit.List(), q)
}

func (s *Service) InvoiceDocument(invoiceID string) (invoice.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.receipts[invoiceID]
	if !ok {
		return invoice.Document{}, fmt.Errorf("%w: invoice %s", store.ErrNotFound, invoiceID)
	}
	return doc, nil
}
