package invoice

import (
	"html/template"

	"github.com/shopspring/decimal"

	"pharmapos/backend/internal/numtext"
)

var invoiceFuncs = template.FuncMap{
	"money": numtext.Money,
	"half": func(rate decimal.Decimal) string {
		return rate.Div(two).StringFixed(1) + "%"
	},
}

// invoiceHTMLTmpl renders the printable tax invoice. User-entered fields are
// escaped by html/template.
var invoiceHTMLTmpl = template.Must(template.New("invoice").Funcs(invoiceFuncs).Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>{{.Invoice}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; font-size: 13px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 4px 6px; }
    td.num { text-align: right; }
    .header { display: flex; justify-content: space-between; }
    .muted { color: #555; }
  </style>
</head>
<body>
  <div class="header">
    <div>
      <h2>{{.Seller.Name}}</h2>
      <p>{{.Seller.Address}}</p>
      {{if .Seller.GSTIN}}<p>GSTIN: {{.Seller.GSTIN}}, Code: {{.Seller.StateCode}}</p>{{end}}
    </div>
    <div>
      <p class="muted">ORIGINAL FOR RECIPIENT</p>
      <h3>GST INVOICE</h3>
      <p>Invoice No: {{.Invoice}}</p>
      <p>Date: {{.Date}}</p>
      {{with .Details.PONumber}}<p>PO No.: {{.}}</p>{{end}}
      {{with .Details.ChallanNumber}}<p>Challan No.: {{.}}</p>{{end}}
      {{with .Details.DueDate}}<p>Due Date: {{.}}</p>{{end}}
      {{with .Details.RefNumber}}<p>Ref. No.: {{.}}</p>{{end}}
      {{with .Remark}}<p>Remark: {{.}}</p>{{end}}
    </div>
  </div>

  <h4>Details for Buyer (Billed &amp; Shipped to):</h4>
  <p>{{.BuyerName}}</p>
  {{with .Customer.Address}}<p>{{.}}</p>{{end}}
  {{with .Customer.Phone}}<p>Phone: {{.}}</p>{{end}}
  {{with .Customer.GSTIN}}<p>GSTIN: {{.}}</p>{{end}}
  {{with .Customer.DLNumber}}<p>DL No: {{.}}</p>{{end}}

  <table>
    <thead><tr><th>S.No</th><th>Item Description</th><th>Batch</th><th>Expiry</th><th>HSN</th><th>Qty</th><th>Free</th><th>MRP</th><th>GST %</th>{{if .Totals.Interstate}}<th>IGST</th>{{else}}<th>CGST</th><th>SGST</th>{{end}}<th>Amount</th></tr></thead>
    <tbody>{{range .Lines}}<tr><td>{{.SerialNo}}</td><td>{{.Description}}</td><td>{{.BatchID}}</td><td>{{.Expiry}}</td><td>{{.HSNCode}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.FreeQuantity}}</td><td class="num">{{.Rate}}</td><td class="num">{{.GSTRate}}</td>{{if $.Totals.Interstate}}<td class="num">{{.IGST}}</td>{{else}}<td class="num">{{.CGST}}</td><td class="num">{{.SGST}}</td>{{end}}<td class="num">{{.Amount}}</td></tr>{{end}}</tbody>
  </table>

  <table>
    <thead><tr><th>HSN/SAC</th><th>Taxable Value</th>{{if .Totals.Interstate}}<th>IGST Rate</th><th>IGST Amt</th>{{else}}<th>CGST Rate</th><th>CGST Amt</th><th>SGST Rate</th><th>SGST Amt</th>{{end}}<th>Total Tax</th></tr></thead>
    <tbody>{{range .HSNSummary}}<tr><td>{{.HSNCode}}</td><td class="num">{{money .TaxableValue}}</td>{{if $.Totals.Interstate}}<td class="num">{{.GSTRate}}%</td><td class="num">{{money .IGST}}</td>{{else}}<td class="num">{{half .GSTRate}}</td><td class="num">{{money .CGST}}</td><td class="num">{{half .GSTRate}}</td><td class="num">{{money .SGST}}</td>{{end}}<td class="num">{{money .TotalTax}}</td></tr>{{end}}</tbody>
  </table>

  <p><strong>Amount in Words:</strong> INR {{.AmountInWords}}</p>

  <table style="width: 40%; margin-left: auto;">
    <tr><td>Subtotal:</td><td class="num">{{money .Totals.Subtotal}}</td></tr>
    <tr><td>Discount:</td><td class="num">- {{money .Totals.DiscountAmount}}</td></tr>
    <tr><td>Taxable Amount:</td><td class="num">{{money .Totals.TaxableAmount}}</td></tr>
    {{if .Totals.Interstate}}<tr><td>IGST:</td><td class="num">{{money .Totals.IGSTTotal}}</td></tr>{{else}}<tr><td>CGST:</td><td class="num">{{money .Totals.CGSTTotal}}</td></tr>
    <tr><td>SGST:</td><td class="num">{{money .Totals.SGSTTotal}}</td></tr>{{end}}
    <tr><td>Round Off:</td><td class="num">{{money .Totals.RoundOff}}</td></tr>
    <tr><td><strong>Net Amount:</strong></td><td class="num"><strong>{{money .Totals.FinalTotal}}</strong></td></tr>
  </table>

  <p class="muted">` + ReturnPolicy + `</p>
  <p>For {{.BuyerName}}</p>
  <p style="text-align: right;"><strong>For {{.Seller.Name}}</strong><br />Authorized Signatory</p>
</body>
</html>
`))
