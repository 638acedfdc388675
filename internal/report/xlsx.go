package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"pengeluaran/internal/core"
	"pengeluaran/internal/summary"
)

const (
	SheetTransactions = "Transaksi"
	SheetSummary      = "Ringkasan"
)

var xlsxHeader = []any{"No", "Tanggal", "Pemilik", "Item", "Deskripsi", "Kategori", "Harga"}

// XLSX exports records as a workbook with a transaction sheet and a
// per-category summary sheet. Amounts are numeric cells.
func XLSX(records []core.Expense, label string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetTransactions); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"3498DB"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return nil, fmt.Errorf("amount style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"2C3E50"}, Pattern: 1},
		NumFmt: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("total style: %w", err)
	}

	s := summary.Summarize(records, label)

	// Transaction sheet.
	if err := f.SetSheetRow(SheetTransactions, "A1", &xlsxHeader); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetTransactions, "A1", "G1", headerStyle); err != nil {
		return nil, err
	}
	for i, r := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{i + 1, r.StampedAt(), r.OwnerName, r.Item, r.Desc(), string(r.Category), r.Amount}
		if err := f.SetSheetRow(SheetTransactions, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	totalRow := len(records) + 2
	if len(records) > 0 {
		if err := f.SetCellStyle(SheetTransactions, "G2", fmt.Sprintf("G%d", totalRow-1), amountStyle); err != nil {
			return nil, err
		}
	}
	f.SetCellValue(SheetTransactions, fmt.Sprintf("F%d", totalRow), "TOTAL")
	f.SetCellValue(SheetTransactions, fmt.Sprintf("G%d", totalRow), s.Total)
	if err := f.SetCellStyle(SheetTransactions, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("G%d", totalRow), totalStyle); err != nil {
		return nil, err
	}
	for col, width := range map[string]float64{"A": 6, "B": 20, "C": 16, "D": 28, "E": 28, "F": 20, "G": 16} {
		if err := f.SetColWidth(SheetTransactions, col, col, width); err != nil {
			return nil, err
		}
	}

	// Summary sheet.
	f.SetCellValue(SheetSummary, "A1", label)
	summaryRows := [][]any{
		{"Total Transaksi", s.Count},
		{"Total Pengeluaran", s.Total},
		{"Rata-rata per Transaksi", s.Average()},
		{},
		{"Kategori", "Jumlah", "Transaksi", "Persen"},
	}
	for _, c := range s.Categories {
		summaryRows = append(summaryRows, []any{string(c.Category), c.Amount, c.Count, c.PercentOneDecimal(s.Total)})
	}
	for i := range summaryRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		if err := f.SetSheetRow(SheetSummary, cell, &summaryRows[i]); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A7", "D7", headerStyle); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 28); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
