package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/receiptwise/receiptwise/internal/entity"
)

// PDFReport returns a PDF expense report for the report window.
func (s *Service) PDFReport(expenses []*entity.Expense, req entity.ReportRequest, generatedBy string) ([]byte, error) {
	start := time.Now()

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 12, "Expense Report", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s to %s", req.StartDate, req.EndDate), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated by: "+generatedBy, "", 1, "L", false, 0, "")
	pdf.Ln(6)

	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total Expenses: $%.2f", total), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Number of Receipts: %d", len(expenses)), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	if len(expenses) > 0 {
		widths := []float64{28, 70, 48, 30}
		headers := []string{"Date", "Vendor", "Category", "Amount"}

		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(0x1A, 0x3C, 0x34)
		pdf.SetTextColor(0xF5, 0xF5, 0xF5)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 9, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetFillColor(0xF9, 0xF9, 0xF7)
		pdf.SetTextColor(0, 0, 0)
		for _, e := range expenses {
			pdf.CellFormat(widths[0], 7, e.Date, "1", 0, "C", true, 0, "")
			pdf.CellFormat(widths[1], 7, truncate(e.Vendor, 30), "1", 0, "C", true, 0, "")
			pdf.CellFormat(widths[2], 7, e.Category, "1", 0, "C", true, 0, "")
			pdf.CellFormat(widths[3], 7, fmt.Sprintf("$%.2f", e.Amount), "1", 0, "R", true, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf write: %w", err)
	}

	s.logger.Info("export.pdf.ok",
		"rows", len(expenses),
		"generated_by", generatedBy,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
