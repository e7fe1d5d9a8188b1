package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MedicineStatus string

const (
	MedicineActive  MedicineStatus = "active"
	MedicinePending MedicineStatus = "pending"
)

type Batch struct {
	ID            string              `json:"id"`
	Expiry        string              `json:"expiry"`
	Stock         int                 `json:"stock"`
	Price         decimal.Decimal     `json:"price"`
	PurchasePrice decimal.Decimal     `json:"purchase_price"`
	MRP           decimal.Decimal     `json:"mrp"`
	GSTRate       decimal.NullDecimal `json:"gst_rate"`
	IsNew         bool                `json:"is_new"`
}

// GSTPercent returns the GST rate, treating a blank rate as zero.
func (b Batch) GSTPercent() decimal.Decimal {
	if !b.GSTRate.Valid {
		return decimal.Zero
	}
	return b.GSTRate.Decimal
}

type Medicine struct {
	ID                string         `json:"id"`
	MedicineName      string         `json:"medicine_name"`
	BrandName         string         `json:"brand_name"`
	SaltComposition   string         `json:"salt_composition"`
	Strength          string         `json:"strength"`
	Form              string         `json:"form"`
	PackSize          string         `json:"pack_size"`
	Description       string         `json:"description"`
	HSNCode           string         `json:"hsn_code"`
	GTINBarcode       string         `json:"gtin_barcode"`
	Manufacturer      string         `json:"manufacturer"`
	MarketingCompany  string         `json:"marketing_company"`
	IsScheduleH1      bool           `json:"is_schedule_h1"`
	MinStockLevel     int            `json:"min_stock_level"`
	MaxStockLevel     int            `json:"max_stock_level"`
	ReorderLevel      int            `json:"reorder_level"`
	Category          string         `json:"category"`
	ABCClassification string         `json:"abc_classification"`
	Status            MedicineStatus `json:"status"`
	Batches           []Batch        `json:"batches"`
	MetadataHistory   []ChangeEntry  `json:"metadata_history"`
}

// Clone returns a copy that shares no slices with m.
func (m Medicine) Clone() Medicine {
	out := m
	out.Batches = CloneBatches(m.Batches)
	if m.MetadataHistory != nil {
		out.MetadataHistory = append([]ChangeEntry(nil), m.MetadataHistory...)
	}
	return out
}

func (m Medicine) TotalStock() int {
	total := 0
	for _, b := range m.Batches {
		total += b.Stock
	}
	return total
}

func CloneBatches(batches []Batch) []Batch {
	if batches == nil {
		return []Batch{}
	}
	return append([]Batch(nil), batches...)
}

func CloneMedicines(medicines []Medicine) []Medicine {
	out := make([]Medicine, len(medicines))
	for i, m := range medicines {
		out[i] = m.Clone()
	}
	return out
}

// MedicineMetadata is the editable, batch-free part of a medicine record.
type MedicineMetadata struct {
	MedicineName      string `json:"medicine_name"`
	BrandName         string `json:"brand_name"`
	SaltComposition   string `json:"salt_composition"`
	Strength          string `json:"strength"`
	Form              string `json:"form"`
	PackSize          string `json:"pack_size"`
	Description       string `json:"description"`
	HSNCode           string `json:"hsn_code"`
	GTINBarcode       string `json:"gtin_barcode"`
	Manufacturer      string `json:"manufacturer"`
	MarketingCompany  string `json:"marketing_company"`
	IsScheduleH1      bool   `json:"is_schedule_h1"`
	MinStockLevel     int    `json:"min_stock_level"`
	MaxStockLevel     int    `json:"max_stock_level"`
	ReorderLevel      int    `json:"reorder_level"`
	Category          string `json:"category"`
	ABCClassification string `json:"abc_classification"`
}

func (m Medicine) Metadata() MedicineMetadata {
	return MedicineMetadata{
		MedicineName:      m.MedicineName,
		BrandName:         m.BrandName,
		SaltComposition:   m.SaltComposition,
		Strength:          m.Strength,
		Form:              m.Form,
		PackSize:          m.PackSize,
		Description:       m.Description,
		HSNCode:           m.HSNCode,
		GTINBarcode:       m.GTINBarcode,
		Manufacturer:      m.Manufacturer,
		MarketingCompany:  m.MarketingCompany,
		IsScheduleH1:      m.IsScheduleH1,
		MinStockLevel:     m.MinStockLevel,
		MaxStockLevel:     m.MaxStockLevel,
		ReorderLevel:      m.ReorderLevel,
		Category:          m.Category,
		ABCClassification: m.ABCClassification,
	}
}

func (m *Medicine) ApplyMetadata(meta MedicineMetadata) {
	m.MedicineName = meta.MedicineName
	m.BrandName = meta.BrandName
	m.SaltComposition = meta.SaltComposition
	m.Strength = meta.Strength
	m.Form = meta.Form
	m.PackSize = meta.PackSize
	m.Description = meta.Description
	m.HSNCode = meta.HSNCode
	m.GTINBarcode = meta.GTINBarcode
	m.Manufacturer = meta.Manufacturer
	m.MarketingCompany = meta.MarketingCompany
	m.IsScheduleH1 = meta.IsScheduleH1
	m.MinStockLevel = meta.MinStockLevel
	m.MaxStockLevel = meta.MaxStockLevel
	m.ReorderLevel = meta.ReorderLevel
	m.Category = meta.Category
	m.ABCClassification = meta.ABCClassification
}

type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeEdit   ChangeType = "edit"
	ChangeDelete ChangeType = "delete"
)

type ChangeEntry struct {
	Type      ChangeType `json:"type"`
	BatchID   string     `json:"batch_id,omitempty"`
	Field     string     `json:"field"`
	OldValue  string     `json:"old_value,omitempty"`
	NewValue  string     `json:"new_value,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

type CartMode string

const (
	CartSale    CartMode = "sale"
	CartRestock CartMode = "restock"
)

type CartLine struct {
	MedicineID    string              `json:"medicine_id"`
	BrandName     string              `json:"brand_name"`
	MedicineName  string              `json:"medicine_name"`
	BatchID       string              `json:"batch_id"`
	Expiry        string              `json:"expiry"`
	Quantity      int                 `json:"quantity"`
	FreeQuantity  int                 `json:"free_quantity"`
	Price         decimal.Decimal     `json:"price"`
	PurchasePrice decimal.Decimal     `json:"purchase_price"`
	MRP           decimal.Decimal     `json:"mrp"`
	GSTRate       decimal.NullDecimal `json:"gst_rate"`
	HSNCode       string              `json:"hsn_code"`
	PackSize      string              `json:"pack_size"`
	IsNew         bool                `json:"is_new"`
}

func (l CartLine) GSTPercent() decimal.Decimal {
	if !l.GSTRate.Valid {
		return decimal.Zero
	}
	return l.GSTRate.Decimal
}

// AsBatch rebuilds a batch from the line snapshot with zero stock.
func (l CartLine) AsBatch() Batch {
	return Batch{
		ID:            l.BatchID,
		Expiry:        l.Expiry,
		Stock:         0,
		Price:         l.Price,
		PurchasePrice: l.PurchasePrice,
		MRP:           l.MRP,
		GSTRate:       l.GSTRate,
		IsNew:         true,
	}
}

type TotalsBreakdown struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxableAmount   decimal.Decimal `json:"taxable_amount"`
	TotalGST        decimal.Decimal `json:"total_gst"`
	CGSTTotal       decimal.Decimal `json:"cgst_total"`
	SGSTTotal       decimal.Decimal `json:"sgst_total"`
	IGSTTotal       decimal.Decimal `json:"igst_total"`
	NetTotal        decimal.Decimal `json:"net_total"`
	FinalTotal      decimal.Decimal `json:"final_total"`
	RoundOff        decimal.Decimal `json:"round_off"`
	Interstate      bool            `json:"interstate"`
}

type BillSummary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	GST      decimal.Decimal `json:"gst"`
	Total    decimal.Decimal `json:"total"`
}

type StagedChangeSet struct {
	MedicineID string        `json:"medicine_id"`
	Batches    []Batch       `json:"batches"`
	Original   []Batch       `json:"original"`
	Bill       BillSummary   `json:"bill"`
	History    []ChangeEntry `json:"history"`
	StagedAt   time.Time     `json:"staged_at"`
}

type RecordKind string

const (
	RecordSale             RecordKind = "sale"
	RecordSupplierPurchase RecordKind = "supplier_purchase"
	RecordBatchPriceUpdate RecordKind = "batch_price_update"
	RecordBatchAdmin       RecordKind = "batch_admin"
	RecordMetadataEdit     RecordKind = "metadata_edit"
	RecordDeleted          RecordKind = "deleted"
	RecordAdded            RecordKind = "added"
	RecordBatchRemoved     RecordKind = "batch_removed"
)

// InvoicePrefix is the invoice id prefix for the record kind.
func (k RecordKind) InvoicePrefix() string {
	switch k {
	case RecordSale:
		return "#INV-"
	case RecordSupplierPurchase, RecordBatchPriceUpdate:
		return "#SUP-"
	case RecordBatchAdmin:
		return "#BAT-"
	case RecordMetadataEdit:
		return "#MED-"
	case RecordDeleted:
		return "#DEL-"
	case RecordAdded:
		return "#ADD-"
	case RecordBatchRemoved:
		return "#REM-"
	default:
		return "#TXN-"
	}
}

type RecordStatus string

const (
	StatusPaid    RecordStatus = "Paid"
	StatusPending RecordStatus = "Pending"
	StatusDeleted RecordStatus = "Deleted"
)

type TransactionRecord struct {
	Invoice     string          `json:"invoice"`
	Kind        RecordKind      `json:"kind"`
	Customer    string          `json:"customer"`
	Date        string          `json:"date"`
	Amount      string          `json:"amount"`
	AmountValue decimal.Decimal `json:"amount_value"`
	Status      RecordStatus    `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Customer struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	GSTIN     string `json:"gstin"`
	DLNumber  string `json:"dl_number"`
	StateCode string `json:"buyer_state_code"`
}

type RemarkType string

const (
	RemarkThankYou          RemarkType = "thank_you"
	RemarkBankDetails       RemarkType = "bank_details"
	RemarkTermsJurisdiction RemarkType = "terms_jurisdiction"
	RemarkPaymentAdvance    RemarkType = "payment_advance"
	RemarkPaymentReceived   RemarkType = "payment_received"
	RemarkEAndOE            RemarkType = "e_and_oe"
	RemarkNone              RemarkType = "no_remarks"
	RemarkOther             RemarkType = "other"
)

type InvoiceDetails struct {
	DueDate       string     `json:"due_date"`
	RefNumber     string     `json:"ref_no"`
	PONumber      string     `json:"po_no"`
	ChallanNumber string     `json:"challan_no"`
	Discount      string     `json:"discount"`
	RemarkType    RemarkType `json:"remark_type"`
	CustomRemark  string     `json:"custom_remark"`
}

func DefaultInvoiceDetails() InvoiceDetails {
	return InvoiceDetails{RemarkType: RemarkThankYou}
}

// Requests

type BatchInput struct {
	BatchNumber   string `json:"batch_number"`
	ExpiryDate    string `json:"expiry_date"`
	Quantity      string `json:"quantity"`
	SellingPrice  string `json:"selling_price"`
	PurchasePrice string `json:"purchase_price"`
	MRP           string `json:"mrp"`
	GSTRate       string `json:"gst_rate"`
}

type NewMedicineRequest struct {
	Medicine MedicineMetadata `json:"medicine"`
	Batches  []BatchInput     `json:"batches"`
}

type MedicineUpdateRequest struct {
	Medicine MedicineMetadata `json:"medicine"`
}

type CartAdjustRequest struct {
	MedicineID string `json:"medicine_id"`
	BatchID    string `json:"batch_id"`
	Delta      int    `json:"delta"`
}

type CartQuantityRequest struct {
	MedicineID string `json:"medicine_id"`
	BatchID    string `json:"batch_id"`
	Quantity   string `json:"quantity"`
}

type FreeQuantityRequest struct {
	MedicineID   string `json:"medicine_id"`
	BatchID      string `json:"batch_id"`
	FreeQuantity string `json:"free_quantity"`
}

type RestockEntryRequest struct {
	MedicineID string     `json:"medicine_id"`
	Batch      BatchInput `json:"batch"`
}

// RestockQuantity asks for units of a sold batch to be reordered.
type RestockQuantity struct {
	MedicineID string `json:"medicine_id"`
	BatchID    string `json:"batch_id"`
	Quantity   int    `json:"quantity"`
}

type CheckoutRequest struct {
	RestockQuantities []RestockQuantity `json:"restock_quantities"`
}

type BatchFieldEditRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Responses

type CartView struct {
	Mode  CartMode   `json:"mode"`
	Lines []CartLine `json:"lines"`
}

type CheckoutState struct {
	Customer Customer        `json:"customer"`
	Invoice  InvoiceDetails  `json:"invoice_details"`
	Totals   TotalsBreakdown `json:"totals"`
}

type SaleReceipt struct {
	Record    TransactionRecord `json:"record"`
	Customer  Customer          `json:"customer"`
	Lines     []CartLine        `json:"lines"`
	Totals    TotalsBreakdown   `json:"totals"`
	Invoice   InvoiceDetails    `json:"invoice_details"`
	Forwarded int               `json:"restock_lines_forwarded"`
}

type RestockReceipt struct {
	Records          []TransactionRecord `json:"records"`
	PromotedMedicine string              `json:"promoted_medicine_id,omitempty"`
	AppliedLines     int                 `json:"applied_lines"`
	SkippedLines     []string            `json:"skipped_lines"`
}

type MedicineUpdateResponse struct {
	Medicine Medicine            `json:"medicine"`
	Records  []TransactionRecord `json:"records"`
}

type BatchEditView struct {
	MedicineID string           `json:"medicine_id"`
	Batches    []BatchDraft     `json:"batches"`
	History    []ChangeEntry    `json:"history"`
	Bill       BillSummary      `json:"bill"`
	Dirty      bool             `json:"dirty"`
	Staged     *StagedChangeSet `json:"staged,omitempty"`
}

// BatchDraft is a batch as typed into an edit form; fields stay as text until staged.
type BatchDraft struct {
	ID            string `json:"id"`
	Expiry        string `json:"expiry"`
	Stock         string `json:"stock"`
	Price         string `json:"price"`
	PurchasePrice string `json:"purchase_price"`
	MRP           string `json:"mrp"`
	GSTRate       string `json:"gst_rate"`
	IsNew         bool   `json:"is_new"`
}

type ReorderSuggestion struct {
	MedicineID     string          `json:"medicine_id"`
	BrandName      string          `json:"brand_name"`
	Category       string          `json:"category"`
	CurrentStock   int             `json:"current_stock"`
	ReorderLevel   int             `json:"reorder_level"`
	RecommendedQty int             `json:"recommended_qty"`
	LastCost       decimal.Decimal `json:"last_cost"`
	EstimatedCost  decimal.Decimal `json:"estimated_cost"`
	BelowMinimum   bool            `json:"below_minimum"`
}

type ExpiringBatch struct {
	MedicineID string `json:"medicine_id"`
	BrandName  string `json:"brand_name"`
	BatchID    string `json:"batch_id"`
	Expiry     string `json:"expiry"`
	Stock      int    `json:"stock"`
	DaysLeft   int    `json:"days_left"`
	Expired    bool   `json:"expired"`
}

type StockInsights struct {
	GeneratedAt    string              `json:"generated_at"`
	TotalMedicines int                 `json:"total_medicines"`
	LowStock       []ReorderSuggestion `json:"low_stock"`
	Expiring       []ExpiringBatch     `json:"expiring"`
}

// AnalysisField is one value extracted from package images.
type AnalysisField struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

// ImageAnalysis is the field map returned by the image analysis service.
type ImageAnalysis struct {
	Fields map[string]AnalysisField `json:"fields"`
}

type AnalysisPrefill struct {
	Form      NewMedicineRequest `json:"form"`
	Generated []string           `json:"generated_fields"`
	Cached    bool               `json:"cached"`
}
