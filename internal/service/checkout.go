package service

import (
	"context"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/audit"
	"pharmapos/backend/internal/cart"
	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/invoice"
	"pharmapos/backend/internal/store"
	"pharmapos/backend/internal/xid"
)

// Checkout commits the sale cart. Free quantities stay in stock.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.SaleReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sale.IsEmpty() {
		return domain.SaleReceipt{}, invalid("sale cart is empty")
	}

	lines := s.sale.Lines()
	customer := s.customer
	details := s.details
	totals := s.calculator.Compute(lines, details.Discount, customer.StateCode)
	now := s.now()

	type presale struct {
		med   domain.Medicine
		batch domain.Batch
	}
	before := make(map[lineKey]presale, len(lines))

	err := s.repo.Update(ctx, func(c *store.Catalog) error {
		for _, line := range lines {
			batch, ok := c.FindBatch(line.MedicineID, line.BatchID)
			if !ok {
				log.Printf("[service] WARN: sale line batch=%s medicine=%s no longer exists, skipped", line.BatchID, line.MedicineID)
				continue
			}
			med, _ := c.FindMedicine(line.MedicineID)
			before[keyOf(line)] = presale{med: med, batch: batch}
			if err := c.AdjustStock(line.MedicineID, line.BatchID, -line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.SaleReceipt{}, err
	}

	buyer := strings.TrimSpace(customer.Name)
	if buyer == "" {
		buyer = invoice.WalkInCustomer
	}
	record := s.audit.Append(ctx, audit.NewRecord(domain.RecordSale, "", buyer, audit.Credit(totals.FinalTotal), totals.FinalTotal, domain.StatusPaid, now))

	forwarded := 0
	for _, want := range req.RestockQuantities {
		if want.Quantity <= 0 {
			continue
		}
		snap, ok := before[lineKey{medicineID: want.MedicineID, batchID: want.BatchID}]
		if !ok {
			continue
		}
		restockLine := cart.Snapshot(snap.med, snap.batch, want.Quantity)
		restockLine.IsNew = false
		s.restock = s.restock.Merge(restockLine)
		forwarded++
	}

	s.receipts[record.Invoice] = invoice.Build(s.seller, customer, lines, record, totals, details)
	s.resetSale()

	return domain.SaleReceipt{
		Record:    record,
		Customer:  customer,
		Lines:     lines,
		Totals:    totals,
		Invoice:   details,
		Forwarded: forwarded,
	}, nil
}

// CommitRestock applies the restock cart and promotes the pending medicine.
// Units already costed by the ADD record are left out of the supplier
// purchase; extra units and extra batches of the new medicine are not.
func (s *Service) CommitRestock(ctx context.Context) (domain.RestockReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.restock.IsEmpty() && s.pending == nil {
		return domain.RestockReceipt{}, invalid("restock cart is empty and no new medicine is pending")
	}

	lines := s.restock.Lines()
	now := s.now()

	var (
		promoted *domain.Medicine
		addCost  decimal.Decimal
		cost     decimal.Decimal
		applied  int
		skipped  []string
		receipt  domain.RestockReceipt
	)

	err := s.repo.Update(ctx, func(c *store.Catalog) error {
		promoted, addCost, cost, applied, skipped = nil, decimal.Zero, decimal.Zero, 0, nil

		costed := make(map[string]int)
		if s.pending != nil {
			med := s.promotable(lines)
			if err := c.PromoteMedicine(med); err != nil {
				log.Printf("[service] WARN: pending medicine id=%s not added: %v", med.ID, err)
			} else {
				promoted = &med
				for _, b := range s.pending.Batches {
					addCost = addCost.Add(b.PurchasePrice.Mul(decimal.NewFromInt(int64(b.Stock))))
					costed[b.ID] += b.Stock
				}
			}
		}

		for _, line := range lines {
			billable := line.Quantity
			if promoted != nil && line.MedicineID == promoted.ID {
				billable -= costed[line.BatchID]
			}
			if billable > 0 {
				cost = cost.Add(line.PurchasePrice.Mul(decimal.NewFromInt(int64(billable))))
			}
			if _, ok := c.FindMedicine(line.MedicineID); !ok {
				log.Printf("[service] WARN: restock line batch=%s references missing medicine=%s, skipped", line.BatchID, line.MedicineID)
				skipped = append(skipped, line.BatchID)
				continue
			}

			batch, ok := c.FindBatch(line.MedicineID, line.BatchID)
			switch {
			case ok:
				if err := c.SetBatch(line.MedicineID, restocked(batch, line)); err != nil {
					return err
				}
			case line.IsNew:
				batch = line.AsBatch()
				batch.Stock = line.Quantity
				batch.IsNew = false
				if err := c.AddBatch(line.MedicineID, batch); err != nil {
					return err
				}
			default:
				log.Printf("[service] CRITICAL: restock line batch=%s medicine=%s is neither existing nor new, skipped", line.BatchID, line.MedicineID)
				skipped = append(skipped, line.BatchID)
				continue
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return domain.RestockReceipt{}, err
	}

	if promoted != nil {
		rec := audit.NewRecord(domain.RecordAdded, xid.Tail(promoted.ID, 5), "New Medicine Added: "+promoted.BrandName, audit.Credit(addCost), addCost, domain.StatusPaid, now)
		receipt.Records = append(receipt.Records, s.audit.Append(ctx, rec))
		receipt.PromotedMedicine = promoted.ID
	}
	if cost.IsPositive() {
		rec := audit.NewRecord(domain.RecordSupplierPurchase, "", "Supplier Purchase", audit.Debit(cost), cost, domain.StatusPaid, now)
		receipt.Records = append(receipt.Records, s.audit.Append(ctx, rec))
	}

	s.restock = s.restock.Clear()
	s.pending = nil

	receipt.AppliedLines = applied
	receipt.SkippedLines = skipped
	if receipt.SkippedLines == nil {
		receipt.SkippedLines = []string{}
	}
	if receipt.Records == nil {
		receipt.Records = []domain.TransactionRecord{}
	}
	return receipt, nil
}

func (s *Service) promotable(lines []domain.CartLine) domain.Medicine {
	med := s.pending.Clone()
	referenced := make(map[string]struct{})
	for _, line := range lines {
		if line.MedicineID == med.ID {
			referenced[line.BatchID] = struct{}{}
		}
	}
	for i := range med.Batches {
		if _, ok := referenced[med.Batches[i].ID]; ok {
			med.Batches[i].Stock = 0
		}
		med.Batches[i].IsNew = false
	}
	return med
}

func restocked(batch domain.Batch, line domain.CartLine) domain.Batch {
	batch.Stock += line.Quantity
	batch.IsNew = false
	if strings.TrimSpace(line.Expiry) != "" {
		batch.Expiry = line.Expiry
	}
	if !line.PurchasePrice.IsZero() {
		batch.PurchasePrice = line.PurchasePrice
	}
	if !line.Price.IsZero() {
		batch.Price = line.Price
	}
	if !line.MRP.IsZero() {
		batch.MRP = line.MRP
	}
	if line.GSTRate.Valid && !line.GSTRate.Decimal.IsZero() {
		batch.GSTRate = line.GSTRate
	}
	return batch
}

type lineKey struct {
	medicineID string
	batchID    string
}

func keyOf(line domain.CartLine) lineKey {
	return lineKey{medicineID: line.MedicineID, batchID: line.BatchID}
}
