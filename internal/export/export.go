// Package export flattens transaction records for spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"pharmapos/backend/internal/domain"
)

var Header = []string{"Invoice", "Customer", "Date", "Amount", "Status"}

const sheetName = "Transactions"

// Display returns the amount and status shown for a record. Administrative
// records show a label in place of their zero amount.
func Display(rec domain.TransactionRecord) (amount string, status string) {
	switch {
	case strings.HasPrefix(rec.Invoice, "#BAT-"):
		return "Batch Admin Change", string(domain.StatusPending)
	case strings.HasPrefix(rec.Invoice, "#MED-"):
		return "Metadata Change", string(domain.StatusPending)
	case strings.HasPrefix(rec.Invoice, "#DEL-"):
		return "Record Removed", string(domain.StatusDeleted)
	case strings.HasPrefix(rec.Invoice, "#REM-"):
		return "Batch Removed", string(domain.StatusPending)
	case strings.HasPrefix(rec.Invoice, "#ADD-"):
		return rec.Amount, string(domain.StatusPaid)
	default:
		return rec.Amount, string(rec.Status)
	}
}

func Rows(records []domain.TransactionRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		amount, status := Display(rec)
		rows = append(rows, []string{rec.Invoice, rec.Customer, rec.Date, amount, status})
	}
	return rows
}

func WriteCSV(w io.Writer, records []domain.TransactionRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	if err := writer.WriteAll(Rows(records)); err != nil {
		return err
	}
	return writer.Error()
}

func WriteXLSX(w io.Writer, records []domain.TransactionRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, "A1", &Header); err != nil {
		return err
	}
	for i, row := range Rows(records) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(sheetName, "A", "E", 22); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}
