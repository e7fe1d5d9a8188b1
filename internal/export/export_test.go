package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/xuri/excelize/v2"

	"pharmapos/backend/internal/domain"
)

func sampleRecords() []domain.TransactionRecord {
	return []domain.TransactionRecord{
		{Invoice: "#DEL-11111", Customer: "Medicine Deleted: Dolo-650", Date: "Mar 5, 2024", Amount: "0.00", Status: domain.StatusDeleted},
		{Invoice: "#BAT-22222", Customer: "Batch Admin Change: Dolo-650", Date: "Mar 5, 2024", Amount: "0.00", Status: domain.StatusPending},
		{Invoice: "#MED-33333", Customer: "Metadata Update: Dolo-650", Date: "Mar 5, 2024", Amount: "0.00", Status: domain.StatusPending},
		{Invoice: "#ADD-44444", Customer: "New Medicine Added: Cetzine", Date: "Mar 4, 2024", Amount: "₹600.00", Status: domain.StatusPending},
		{Invoice: "#INV-55555", Customer: "Walk-in Customer", Date: "Mar 4, 2024", Amount: "₹105.00", Status: domain.StatusPaid},
		{Invoice: "#REM-66666", Customer: "Batch Removed", Date: "Mar 3, 2024", Amount: "0.00", Status: domain.StatusPaid},
	}
}

func TestWriteCSVRelabelsAdministrativeRecords(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(rows) != 7 || rows[0][0] != "Invoice" || rows[0][4] != "Status" {
		t.Fatalf("unexpected header or row count: %v", rows)
	}

	want := [][2]string{
		{"Record Removed", "Deleted"},
		{"Batch Admin Change", "Pending"},
		{"Metadata Change", "Pending"},
		{"₹600.00", "Paid"},
		{"₹105.00", "Paid"},
		{"Batch Removed", "Pending"},
	}
	for i, w := range want {
		row := rows[i+1]
		if row[3] != w[0] || row[4] != w[1] {
			t.Fatalf("row %d: expected %v, got %v", i+1, w, row)
		}
	}
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleRecords()); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}
	if rows[1][0] != "#DEL-11111" || rows[1][3] != "Record Removed" {
		t.Fatalf("unexpected first data row %v", rows[1])
	}
}
