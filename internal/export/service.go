package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/receiptwise/receiptwise/internal/entity"
)

// Service renders expense reports. It is a pure rendering façade: the
// caller queries and filters the expenses, the service produces bytes.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExcelReport returns an XLSX workbook for the report window.
func (s *Service) ExcelReport(expenses []*entity.Expense, req entity.ReportRequest, generatedBy string) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Expenses"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1A3C34"}},
	})
	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 177}) // $#,##0.00

	headers := []string{"Date", "Vendor", "Category", "Amount", "Payment Method", "Receipt #", "Notes", "Tags"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	row := 2
	var total float64
	for _, e := range expenses {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, e.Date)
		write(2, e.Vendor)
		write(3, e.Category)
		write(4, e.Amount)
		if cell, err := excelize.CoordinatesToCellName(4, row); err == nil {
			_ = f.SetCellStyle(sheet, cell, cell, moneyStyle)
		}
		write(5, deref(e.PaymentMethod))
		write(6, deref(e.ReceiptNumber))
		write(7, deref(e.Notes))
		write(8, strings.Join(e.Tags, ", "))
		total += e.Amount
		row++
	}

	// Summary row one blank line below the data
	summaryRow := row + 1
	cell, _ := excelize.CoordinatesToCellName(3, summaryRow)
	_ = f.SetCellValue(sheet, cell, "TOTAL:")
	_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	cell, _ = excelize.CoordinatesToCellName(4, summaryRow)
	_ = f.SetCellValue(sheet, cell, total)
	_ = f.SetCellStyle(sheet, cell, cell, moneyStyle)

	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "B", "B", 25)
	_ = f.SetColWidth(sheet, "C", "C", 20)
	_ = f.SetColWidth(sheet, "D", "D", 12)
	_ = f.SetColWidth(sheet, "E", "F", 15)
	_ = f.SetColWidth(sheet, "G", "G", 30)
	_ = f.SetColWidth(sheet, "H", "H", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(expenses),
		"generated_by", generatedBy,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	if n == 1 {
		return string(runes[:1])
	}
	return string(runes[:n-1]) + "…"
}
