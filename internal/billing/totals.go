package billing

import (
	"strings"

	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/numtext"
)

const DefaultSellerStateCode = "20"

var hundred = decimal.NewFromInt(100)

type Calculator struct {
	SellerStateCode string
}

func NewCalculator(sellerStateCode string) Calculator {
	sellerStateCode = strings.TrimSpace(sellerStateCode)
	if sellerStateCode == "" {
		sellerStateCode = DefaultSellerStateCode
	}
	return Calculator{SellerStateCode: sellerStateCode}
}

// ComputeTotals uses the default seller state code.
func ComputeTotals(lines []domain.CartLine, discountText string, buyerStateCode string) domain.TotalsBreakdown {
	return NewCalculator(DefaultSellerStateCode).Compute(lines, discountText, buyerStateCode)
}

// Compute derives the bill for the paid quantities in lines. Free quantities
// never contribute to subtotal or GST.
func (c Calculator) Compute(lines []domain.CartLine, discountText string, buyerStateCode string) domain.TotalsBreakdown {
	discount := numtext.DecimalOrZero(discountText)
	keep := decimal.NewFromInt(1).Sub(discount.Div(hundred))

	subtotal := decimal.Zero
	totalGST := decimal.Zero
	for _, line := range lines {
		itemSubtotal := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(itemSubtotal)

		itemTaxable := itemSubtotal.Mul(keep)
		totalGST = totalGST.Add(itemTaxable.Mul(line.GSTPercent()).Div(hundred))
	}

	discountAmount := subtotal.Mul(discount).Div(hundred)
	taxable := subtotal.Sub(discountAmount)

	interstate := strings.TrimSpace(buyerStateCode) != c.SellerStateCode
	cgst, sgst, igst := decimal.Zero, decimal.Zero, decimal.Zero
	if interstate {
		igst = totalGST
	} else {
		cgst = totalGST.Div(decimal.NewFromInt(2))
		sgst = cgst
	}

	net := taxable.Add(totalGST)
	final := roundHalfUp(net)

	return domain.TotalsBreakdown{
		Subtotal:        subtotal,
		DiscountPercent: discount,
		DiscountAmount:  discountAmount,
		TaxableAmount:   taxable,
		TotalGST:        totalGST,
		CGSTTotal:       cgst,
		SGSTTotal:       sgst,
		IGSTTotal:       igst,
		NetTotal:        net,
		FinalTotal:      final,
		RoundOff:        final.Sub(net),
		Interstate:      interstate,
	}
}

// roundHalfUp rounds to a whole unit with ties going towards +inf.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(decimal.NewFromFloat(0.5)).Floor()
}
