package report

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"pengeluaran/internal/core"
	"pengeluaran/internal/summary"
)

const (
	itemLimit     = 30
	categoryLimit = 28
)

var (
	colWidths = []float64{10, 35, 50, 50, 30}
	colTitles = []string{"No", "Tanggal", "Item", "Kategori", "Harga"}
)

// PDF renders an A4 expense report: summary, per-category breakdown and a
// detail table with a totals row. Figures come from summary.Summarize so they
// match the chat replies.
func PDF(records []core.Expense, label string, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.SetTextColor(33, 37, 41)
		pdf.CellFormat(0, 12, "Laporan Pengeluaran", "", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(108, 117, 125)
		pdf.CellFormat(0, 8, tr(label), "", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, "Dibuat: "+generatedAt.Format("02 January 2006, 15:04"), "", 1, "C", false, 0, "")

		pdf.SetDrawColor(52, 152, 219)
		pdf.SetLineWidth(0.8)
		y := pdf.GetY() + 3
		pdf.Line(10, y, 200, y)
		pdf.Ln(8)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 10, fmt.Sprintf("Halaman %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	if len(records) == 0 {
		pdf.SetFont("Helvetica", "I", 12)
		pdf.CellFormat(0, 20, "Tidak ada data pengeluaran untuk periode ini.", "", 0, "C", false, 0, "")
	} else {
		s := summary.Summarize(records, label)
		writeSummary(pdf, s)
		writeBreakdown(pdf, s, tr)
		writeTable(pdf, records, s.Total, tr)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(pdf *fpdf.Fpdf, s summary.Summary) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 10, "Ringkasan", "", 1, "", false, 0, "")

	line := func(label, value string, size float64, r, g, b int) {
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(33, 37, 41)
		pdf.CellFormat(60, 8, label, "", 0, "", false, 0, "")
		pdf.SetFont("Helvetica", "B", size)
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(0, 8, value, "", 1, "", false, 0, "")
	}
	line("Total Transaksi:", strconv.Itoa(s.Count)+" transaksi", 11, 33, 37, 41)
	line("Total Pengeluaran:", core.FormatRupiah(s.Total), 13, 231, 76, 60)
	line("Rata-rata per Transaksi:", core.FormatRupiah(s.Average()), 11, 33, 37, 41)
	pdf.SetTextColor(33, 37, 41)
	pdf.Ln(5)
}

func writeBreakdown(pdf *fpdf.Fpdf, s summary.Summary, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 10, "Per Kategori", "", 1, "", false, 0, "")

	for _, c := range s.Categories {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(33, 37, 41)
		pdf.CellFormat(70, 7, "  "+tr(stripEmoji(string(c.Category))), "", 0, "", false, 0, "")
		pdf.CellFormat(40, 7, core.FormatRupiah(c.Amount), "", 0, "", false, 0, "")
		pdf.SetTextColor(108, 117, 125)
		pdf.CellFormat(0, 7, "("+c.PercentOneDecimal(s.Total)+")", "", 1, "", false, 0, "")
	}
	pdf.Ln(5)
}

func writeTable(pdf *fpdf.Fpdf, records []core.Expense, total int64, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 10, "Detail Transaksi", "", 1, "", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(52, 152, 219)
	pdf.SetTextColor(255, 255, 255)
	for i, title := range colTitles {
		pdf.CellFormat(colWidths[i], 8, title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(33, 37, 41)
	for i, r := range records {
		if (i+1)%2 == 0 {
			pdf.SetFillColor(241, 245, 249)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		item := r.Item
		if r.HasDescription() {
			item += " (" + r.Desc() + ")"
		}

		pdf.CellFormat(colWidths[0], 7, strconv.Itoa(i+1), "1", 0, "C", true, 0, "")
		pdf.CellFormat(colWidths[1], 7, r.Timestamp.Format("02/01/06 15:04"), "1", 0, "C", true, 0, "")
		pdf.CellFormat(colWidths[2], 7, tr(truncate(item, itemLimit)), "1", 0, "", true, 0, "")
		pdf.CellFormat(colWidths[3], 7, tr(truncate(stripEmoji(string(r.Category)), categoryLimit)), "1", 0, "", true, 0, "")
		pdf.CellFormat(colWidths[4], 7, core.FormatRupiah(r.Amount), "1", 0, "R", true, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(44, 62, 80)
	pdf.SetTextColor(255, 255, 255)
	labelWidth := colWidths[0] + colWidths[1] + colWidths[2] + colWidths[3]
	pdf.CellFormat(labelWidth, 8, "TOTAL", "1", 0, "R", true, 0, "")
	pdf.CellFormat(colWidths[4], 8, core.FormatRupiah(total), "1", 0, "R", true, 0, "")
	pdf.Ln(-1)
}
