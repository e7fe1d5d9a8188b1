// Package invoice assembles the GST tax invoice for a completed sale.
package invoice

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/numtext"
)

const (
	WalkInCustomer = "Walk-in Customer"
	ReturnPolicy   = "Once Goods Sold Can not be taken back."
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// Seller is the pharmacy printed in the invoice header.
type Seller struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	GSTIN        string `json:"gstin"`
	StateCode    string `json:"state_code"`
	Jurisdiction string `json:"jurisdiction"`
	BankDetails  string `json:"bank_details"`
}

type LineItem struct {
	SerialNo     int    `json:"serial_no"`
	Description  string `json:"description"`
	BatchID      string `json:"batch_id"`
	Expiry       string `json:"expiry"`
	HSNCode      string `json:"hsn_code"`
	Quantity     int    `json:"quantity"`
	FreeQuantity int    `json:"free_quantity"`
	Rate         string `json:"rate"`
	GSTRate      string `json:"gst_rate"`
	CGST         string `json:"cgst"`
	SGST         string `json:"sgst"`
	IGST         string `json:"igst"`
	Amount       string `json:"amount"`
}

// HSNRow is one hsn@rate group of the tax summary.
type HSNRow struct {
	HSNCode      string          `json:"hsn_code"`
	GSTRate      decimal.Decimal `json:"gst_rate"`
	TaxableValue decimal.Decimal `json:"taxable_value"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	IGST         decimal.Decimal `json:"igst"`
	TotalTax     decimal.Decimal `json:"total_tax"`
}

type Document struct {
	Seller        Seller                 `json:"seller"`
	BuyerName     string                 `json:"buyer_name"`
	Customer      domain.Customer        `json:"customer"`
	Invoice       string                 `json:"invoice"`
	Date          string                 `json:"date"`
	Details       domain.InvoiceDetails  `json:"invoice_details"`
	Remark        string                 `json:"remark"`
	Lines         []LineItem             `json:"lines"`
	HSNSummary    []HSNRow               `json:"hsn_summary"`
	Totals        domain.TotalsBreakdown `json:"totals"`
	AmountInWords string                 `json:"amount_in_words"`
}

// Build assembles the invoice document for a sale record.
func Build(seller Seller, customer domain.Customer, lines []domain.CartLine, record domain.TransactionRecord, totals domain.TotalsBreakdown, details domain.InvoiceDetails) Document {
	buyer := strings.TrimSpace(customer.Name)
	if buyer == "" {
		buyer = WalkInCustomer
	}

	items := make([]LineItem, 0, len(lines))
	for i, line := range lines {
		amount := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		tax := amount.Mul(line.GSTPercent()).Div(hundred)
		item := LineItem{
			SerialNo:     i + 1,
			Description:  line.BrandName,
			BatchID:      line.BatchID,
			Expiry:       orNA(line.Expiry),
			HSNCode:      orNA(line.HSNCode),
			Quantity:     line.Quantity,
			FreeQuantity: line.FreeQuantity,
			Rate:         numtext.Money(line.Price),
			GSTRate:      line.GSTPercent().String() + "%",
			CGST:         numtext.Money(decimal.Zero),
			SGST:         numtext.Money(decimal.Zero),
			IGST:         numtext.Money(decimal.Zero),
			Amount:       numtext.Money(amount),
		}
		if totals.Interstate {
			item.IGST = numtext.Money(tax)
		} else {
			item.CGST = numtext.Money(tax.Div(two))
			item.SGST = item.CGST
		}
		items = append(items, item)
	}

	return Document{
		Seller:        seller,
		BuyerName:     buyer,
		Customer:      customer,
		Invoice:       record.Invoice,
		Date:          record.Date,
		Details:       details,
		Remark:        RemarkText(details, seller),
		Lines:         items,
		HSNSummary:    Summarize(lines, totals.DiscountPercent, totals.Interstate),
		Totals:        totals,
		AmountInWords: AmountInWords(totals.FinalTotal),
	}
}

// Summarize groups taxable value and tax by HSN code and GST rate, in order of
// first appearance.
func Summarize(lines []domain.CartLine, discountPercent decimal.Decimal, interstate bool) []HSNRow {
	keep := decimal.NewFromInt(1).Sub(discountPercent.Div(hundred))
	index := make(map[string]int)
	rows := make([]HSNRow, 0)

	for _, line := range lines {
		hsn := orNA(line.HSNCode)
		rate := line.GSTPercent()
		key := hsn + "@" + rate.String()

		taxable := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Mul(keep)
		tax := taxable.Mul(rate).Div(hundred)

		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, HSNRow{HSNCode: hsn, GSTRate: rate})
		}
		row := &rows[i]
		row.TaxableValue = row.TaxableValue.Add(taxable)
		row.TotalTax = row.TotalTax.Add(tax)
		if interstate {
			row.IGST = row.IGST.Add(tax)
		} else {
			row.CGST = row.CGST.Add(tax.Div(two))
			row.SGST = row.SGST.Add(tax.Div(two))
		}
	}
	return rows
}

// RemarkText resolves the remark printed for the selected remark type.
func RemarkText(details domain.InvoiceDetails, seller Seller) string {
	switch details.RemarkType {
	case domain.RemarkThankYou, "":
		return "Thank You! Visit Again!"
	case domain.RemarkBankDetails:
		if strings.TrimSpace(seller.BankDetails) == "" {
			return ""
		}
		return "Bank Details: " + seller.BankDetails
	case domain.RemarkTermsJurisdiction:
		if strings.TrimSpace(seller.Jurisdiction) == "" {
			return ""
		}
		return "Subject To " + seller.Jurisdiction + " Jurisdiction"
	case domain.RemarkPaymentAdvance:
		return "Advance Payment before Delivery."
	case domain.RemarkPaymentReceived:
		return "Payment Received. Thank you."
	case domain.RemarkEAndOE:
		return "E&OE (Errors and Omissions Excepted)"
	case domain.RemarkNone:
		return ""
	case domain.RemarkOther:
		return details.CustomRemark
	default:
		return "Thank You! Visit Again!"
	}
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}

var (
	ones = []string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
	tens = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
)

// AmountInWords spells an amount in the Indian numbering system,
// e.g. 150075.5 is "One Lakh Fifty Thousand Seventy Five Rupees And Fifty Paise".
func AmountInWords(amount decimal.Decimal) string {
	amount = amount.Abs().Round(2)
	rupees := amount.IntPart()
	paise := amount.Sub(decimal.NewFromInt(rupees)).Mul(hundred).IntPart()

	words := spellIndian(rupees)
	if words == "" {
		words = "Zero"
	}
	out := words + " Rupees"
	if paise > 0 {
		out += " And " + spellIndian(paise) + " Paise"
	}
	return out
}

func spellIndian(n int64) string {
	if n == 0 {
		return ""
	}
	parts := make([]string, 0, 6)
	if crore := n / 10000000; crore > 0 {
		parts = append(parts, spellIndian(crore)+" Crore")
		n %= 10000000
	}
	if lakh := n / 100000; lakh > 0 {
		parts = append(parts, spellBelowHundred(lakh)+" Lakh")
		n %= 100000
	}
	if thousand := n / 1000; thousand > 0 {
		parts = append(parts, spellBelowHundred(thousand)+" Thousand")
		n %= 1000
	}
	if hundreds := n / 100; hundreds > 0 {
		parts = append(parts, ones[hundreds]+" Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, spellBelowHundred(n))
	}
	return strings.Join(parts, " ")
}

func spellBelowHundred(n int64) string {
	if n < 20 {
		return ones[n]
	}
	if n%10 == 0 {
		return tens[n/10]
	}
	return fmt.Sprintf("%s %s", tens[n/10], ones[n%10])
}

// RenderHTML renders the printable invoice.
func RenderHTML(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := invoiceHTMLTmpl.Execute(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
