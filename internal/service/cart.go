package service

import (
	"context"
	"fmt"
	"strings"

	"pharmapos/backend/internal/cart"
	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/store"
	"pharmapos/backend/internal/xid"
)

func ParseCartMode(raw string) (domain.CartMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(domain.CartSale), "checkout":
		return domain.CartSale, nil
	case string(domain.CartRestock):
		return domain.CartRestock, nil
	default:
		return "", invalid("unknown cart %q", raw)
	}
}

func (s *Service) cartFor(mode domain.CartMode) cart.Cart {
	if mode == domain.CartRestock {
		return s.restock
	}
	return s.sale
}

func (s *Service) setCart(mode domain.CartMode, next cart.Cart, effect cart.Effect) {
	if mode == domain.CartRestock {
		s.restock = next
		return
	}
	s.sale = next
	if effect.FirstInsert {
		suffix := xid.Suffix(s.now())
		s.details.RefNumber = "REF-" + suffix
		s.details.ChallanNumber = "CH-" + suffix
		s.details.PONumber = "POW-" + suffix
	}
}

func (s *Service) resolve(ctx context.Context, mode domain.CartMode, medicineID string, batchID string) (domain.Medicine, domain.Batch, error) {
	if mode == domain.CartRestock && s.pending != nil && s.pending.ID == medicineID {
		med := s.pending.Clone()
		for _, b := range med.Batches {
			if b.ID == batchID {
				return med, b, nil
			}
		}
		if line, ok := s.restock.Find(medicineID, batchID); ok {
			return med, line.AsBatch(), nil
		}
		return domain.Medicine{}, domain.Batch{}, fmt.Errorf("%w: batch %s", store.ErrNotFound, batchID)
	}

	med, ok := s.repo.FindMedicine(ctx, medicineID)
	if !ok {
		return domain.Medicine{}, domain.Batch{}, fmt.Errorf("%w: medicine %s", store.ErrNotFound, medicineID)
	}
	for _, b := range med.Batches {
		if b.ID == batchID {
			return med, b, nil
		}
	}
	if mode == domain.CartRestock {
		if line, ok := s.restock.Find(medicineID, batchID); ok {
			return med, line.AsBatch(), nil
		}
	}
	return domain.Medicine{}, domain.Batch{}, fmt.Errorf("%w: batch %s", store.ErrNotFound, batchID)
}

func (s *Service) Cart(mode domain.CartMode) domain.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartFor(mode).View()
}

func (s *Service) AdjustCart(ctx context.Context, mode domain.CartMode, req domain.CartAdjustRequest) (domain.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med, batch, err := s.resolve(ctx, mode, req.MedicineID, req.BatchID)
	if err != nil {
		return s.cartFor(mode).View(), err
	}
	next, effect, err := s.cartFor(mode).AddOrAdjust(med, batch, req.Delta)
	if err != nil {
		return s.cartFor(mode).View(), err
	}
	s.setCart(mode, next, effect)
	return next.View(), nil
}

func (s *Service) SetCartQuantity(ctx context.Context, mode domain.CartMode, req domain.CartQuantityRequest) (domain.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med, batch, err := s.resolve(ctx, mode, req.MedicineID, req.BatchID)
	if err != nil {
		return s.cartFor(mode).View(), err
	}
	next, effect, err := s.cartFor(mode).SetQuantity(med, batch, req.Quantity)
	if err != nil {
		return s.cartFor(mode).View(), err
	}
	s.setCart(mode, next, effect)
	return next.View(), nil
}

func (s *Service) RemoveCartLine(mode domain.CartMode, medicineID string, batchID string) domain.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cartFor(mode).RemoveLine(medicineID, batchID)
	s.setCart(mode, next, cart.Effect{})
	if mode == domain.CartRestock {
		s.dropPendingBatch(medicineID, batchID)
	}
	return next.View()
}

func (s *Service) dropPendingBatch(medicineID string, batchID string) {
	if s.pending == nil || s.pending.ID != medicineID {
		return
	}
	batches := make([]domain.Batch, 0, len(s.pending.Batches))
	for _, b := range s.pending.Batches {
		if b.ID != batchID {
			batches = append(batches, b)
		}
	}
	s.pending.Batches = batches
}

func (s *Service) ClearCart(mode domain.CartMode) domain.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == domain.CartRestock {
		s.restock = s.restock.Clear()
		return s.restock.View()
	}
	s.resetSale()
	return s.sale.View()
}

func (s *Service) resetSale() {
	s.sale = s.sale.Clear()
	s.customer = domain.Customer{}
	s.details = domain.DefaultInvoiceDetails()
}

func (s *Service) SetFreeQuantity(req domain.FreeQuantityRequest) (domain.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.sale.SetFreeQuantity(req.MedicineID, req.BatchID, req.FreeQuantity)
	if err != nil {
		return s.sale.View(), err
	}
	s.sale = next
	return next.View(), nil
}

func (s *Service) AddRestockEntry(ctx context.Context, req domain.RestockEntryRequest) (domain.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var med domain.Medicine
	if s.pending != nil && s.pending.ID == req.MedicineID {
		med = s.pending.Clone()
	} else {
		found, ok := s.repo.FindMedicine(ctx, req.MedicineID)
		if !ok {
			return s.restock.View(), fmt.Errorf("%w: medicine %s", store.ErrNotFound, req.MedicineID)
		}
		med = found
	}

	next, effect, err := s.restock.UpsertEntry(med, req.Batch)
	if err != nil {
		return s.restock.View(), err
	}
	s.setCart(domain.CartRestock, next, effect)
	return next.View(), nil
}

func (s *Service) SetCustomer(customer domain.Customer) domain.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customer = customer
	return s.checkoutState()
}

func (s *Service) SetInvoiceDetails(details domain.InvoiceDetails) domain.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if details.RemarkType == "" {
		details.RemarkType = domain.RemarkThankYou
	}
	s.details = details
	return s.checkoutState()
}

func (s *Service) CheckoutState() domain.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkoutState()
}

func (s *Service) checkoutState() domain.CheckoutState {
	return domain.CheckoutState{
		Customer: s.customer,
		Invoice:  s.details,
		Totals:   s.calculator.Compute(s.sale.Lines(), s.details.Discount, s.customer.StateCode),
	}
}
