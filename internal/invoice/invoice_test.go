package invoice

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/billing"
	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/numtext"
)

func saleLines() []domain.CartLine {
	return []domain.CartLine{
		{MedicineID: "MED-1001", BrandName: "Dolo-650", BatchID: "PCMD01", Expiry: "2025-01-31", Quantity: 4, Price: decimal.NewFromInt(25), GSTRate: numtext.Rate("5"), HSNCode: "30049099"},
		{MedicineID: "MED-1002", BrandName: "Moxikind-CV 625", BatchID: "PCMD03", Quantity: 2, Price: decimal.NewFromInt(15), GSTRate: numtext.Rate("12"), HSNCode: "30042019"},
		{MedicineID: "MED-1001", BrandName: "Dolo-650", BatchID: "PCMD02", Quantity: 1, Price: decimal.NewFromInt(25), GSTRate: numtext.Rate("5"), HSNCode: "30049099"},
	}
}

func TestSummarizeGroupsByHSNAndRate(t *testing.T) {
	rows := Summarize(saleLines(), decimal.NewFromInt(10), false)
	if len(rows) != 2 {
		t.Fatalf("expected 2 hsn groups, got %d", len(rows))
	}
	if rows[0].HSNCode != "30049099" {
		t.Fatalf("expected first-seen group first, got %s", rows[0].HSNCode)
	}
	// 5 x 25 = 125, less 10% = 112.5, 5% tax = 5.625
	if !rows[0].TaxableValue.Equal(decimal.RequireFromString("112.5")) {
		t.Fatalf("unexpected taxable value %s", rows[0].TaxableValue)
	}
	if !rows[0].CGST.Add(rows[0].SGST).Equal(decimal.RequireFromString("5.625")) {
		t.Fatalf("expected cgst+sgst 5.625, got %s", rows[0].TotalTax)
	}
	if !rows[0].IGST.IsZero() {
		t.Fatalf("expected no igst within state")
	}
}

func TestSummarizeInterstateUsesIGST(t *testing.T) {
	rows := Summarize(saleLines(), decimal.Zero, true)
	if !rows[1].IGST.Equal(decimal.RequireFromString("3.6")) || !rows[1].CGST.IsZero() {
		t.Fatalf("expected igst 3.6 only, got %+v", rows[1])
	}
}

func TestAmountInWords(t *testing.T) {
	cases := map[string]string{
		"0":          "Zero Rupees",
		"105":        "One Hundred Five Rupees",
		"1999":       "One Thousand Nine Hundred Ninety Nine Rupees",
		"150075.5":   "One Lakh Fifty Thousand Seventy Five Rupees And Fifty Paise",
		"23000000":   "Two Crore Thirty Lakh Rupees",
		"1210000012": "One Hundred Twenty One Crore Twelve Rupees",
	}
	for raw, want := range cases {
		if got := AmountInWords(decimal.RequireFromString(raw)); got != want {
			t.Fatalf("amount %s: expected %q, got %q", raw, want, got)
		}
	}
}

func TestRemarkText(t *testing.T) {
	seller := Seller{Jurisdiction: "Ramgarh", BankDetails: "SBI, Ac. No.: 30860782555"}
	if got := RemarkText(domain.InvoiceDetails{RemarkType: domain.RemarkTermsJurisdiction}, seller); got != "Subject To Ramgarh Jurisdiction" {
		t.Fatalf("unexpected jurisdiction remark %q", got)
	}
	if got := RemarkText(domain.InvoiceDetails{RemarkType: domain.RemarkOther, CustomRemark: "Deliver by noon"}, seller); got != "Deliver by noon" {
		t.Fatalf("unexpected custom remark %q", got)
	}
	if got := RemarkText(domain.InvoiceDetails{RemarkType: domain.RemarkNone}, seller); got != "" {
		t.Fatalf("expected empty remark, got %q", got)
	}
	if got := RemarkText(domain.InvoiceDetails{}, seller); got != "Thank You! Visit Again!" {
		t.Fatalf("expected default remark, got %q", got)
	}
}

func TestBuildAndRenderEscapesCustomerInput(t *testing.T) {
	lines := saleLines()[:1]
	totals := billing.ComputeTotals(lines, "", "20")
	record := domain.TransactionRecord{Invoice: "#INV-12345", Date: "Mar 5, 2024", Amount: "₹105.00", Status: domain.StatusPaid}
	customer := domain.Customer{Name: "<script>alert(1)</script>", StateCode: "20"}

	doc := Build(Seller{Name: "Aarogya Medical"}, customer, lines, record, totals, domain.DefaultInvoiceDetails())
	if doc.AmountInWords != "One Hundred Five Rupees" {
		t.Fatalf("unexpected amount in words %q", doc.AmountInWords)
	}
	if doc.Lines[0].CGST != "2.50" || doc.Lines[0].SGST != "2.50" {
		t.Fatalf("unexpected line tax split %+v", doc.Lines[0])
	}

	html, err := RenderHTML(doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	body := string(html)
	if strings.Contains(body, "<script>") {
		t.Fatalf("expected customer name to be escaped")
	}
	if !strings.Contains(body, "#INV-12345") || !strings.Contains(body, "105.00") {
		t.Fatalf("expected invoice id and total in output")
	}
}

func TestBuildDefaultsBuyerName(t *testing.T) {
	doc := Build(Seller{}, domain.Customer{}, nil, domain.TransactionRecord{}, billing.ComputeTotals(nil, "", ""), domain.InvoiceDetails{})
	if doc.BuyerName != WalkInCustomer {
		t.Fatalf("expected walk-in buyer, got %q", doc.BuyerName)
	}
}
