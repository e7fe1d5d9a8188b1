// Package recommendation derives restock suggestions and expiry warnings from
// the current catalog.
package recommendation

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/domain"
)

const expiryLayout = "2006-01-02"

type Engine struct {
	expiryWindowDays int
}

func NewEngine(expiryWindowDays int) *Engine {
	if expiryWindowDays <= 0 {
		expiryWindowDays = 90
	}
	return &Engine{expiryWindowDays: expiryWindowDays}
}

func (e *Engine) Insights(medicines []domain.Medicine, now time.Time) domain.StockInsights {
	return domain.StockInsights{
		GeneratedAt:    now.UTC().Format(time.RFC3339),
		TotalMedicines: len(medicines),
		LowStock:       e.ReorderSuggestions(medicines),
		Expiring:       e.ExpiringBatches(medicines, now),
	}
}

// ReorderSuggestions lists medicines at or below their reorder point with the
// quantity needed to reach the maximum stock level.
func (e *Engine) ReorderSuggestions(medicines []domain.Medicine) []domain.ReorderSuggestion {
	suggestions := make([]domain.ReorderSuggestion, 0, 8)
	for _, med := range medicines {
		if med.Status == domain.MedicinePending {
			continue
		}
		current := med.TotalStock()
		reorderPoint := reorderPoint(med)
		if current > reorderPoint {
			continue
		}
		target := med.MaxStockLevel
		if target <= reorderPoint {
			target = reorderPoint * 2
		}
		recommendedQty := target - current
		if recommendedQty < 1 {
			continue
		}
		cost := lastCost(med)
		suggestions = append(suggestions, domain.ReorderSuggestion{
			MedicineID:     med.ID,
			BrandName:      med.BrandName,
			Category:       med.Category,
			CurrentStock:   current,
			ReorderLevel:   reorderPoint,
			RecommendedQty: recommendedQty,
			LastCost:       cost,
			EstimatedCost:  cost.Mul(decimal.NewFromInt(int64(recommendedQty))),
			BelowMinimum:   current < med.MinStockLevel,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].CurrentStock == suggestions[j].CurrentStock {
			return suggestions[i].EstimatedCost.GreaterThan(suggestions[j].EstimatedCost)
		}
		return suggestions[i].CurrentStock < suggestions[j].CurrentStock
	})
	return suggestions
}

// ExpiringBatches lists stocked batches that expire within the warning window,
// including batches already expired.
func (e *Engine) ExpiringBatches(medicines []domain.Medicine, now time.Time) []domain.ExpiringBatch {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]domain.ExpiringBatch, 0, 8)
	for _, med := range medicines {
		for _, batch := range med.Batches {
			if batch.Stock <= 0 {
				continue
			}
			expiry, err := time.Parse(expiryLayout, strings.TrimSpace(batch.Expiry))
			if err != nil {
				continue
			}
			daysLeft := int(expiry.Sub(today).Hours() / 24)
			if daysLeft > e.expiryWindowDays {
				continue
			}
			out = append(out, domain.ExpiringBatch{
				MedicineID: med.ID,
				BrandName:  med.BrandName,
				BatchID:    batch.ID,
				Expiry:     batch.Expiry,
				Stock:      batch.Stock,
				DaysLeft:   daysLeft,
				Expired:    daysLeft < 0,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysLeft < out[j].DaysLeft })
	return out
}

func reorderPoint(med domain.Medicine) int {
	if med.ReorderLevel > 0 {
		return med.ReorderLevel
	}
	point := 30
	switch strings.ToLower(med.Category) {
	case "antibiotic", "antidiabetic":
		point = 40
	case "analgesic", "antipyretic":
		point = 35
	}
	return point
}

// lastCost is the purchase price of the most recently added batch that has one.
func lastCost(med domain.Medicine) decimal.Decimal {
	for i := len(med.Batches) - 1; i >= 0; i-- {
		if med.Batches[i].PurchasePrice.IsPositive() {
			return med.Batches[i].PurchasePrice
		}
	}
	return decimal.Zero
}
