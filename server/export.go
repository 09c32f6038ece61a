package server

import (
	"bytes"
	"fmt"

	"github.com/jrsteele09/go-accounts-dashboard/accounting"
	"github.com/jrsteele09/go-accounts-dashboard/reports"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	detailSheet  = "Profit and Loss"
)

var summaryHeader = []string{"Organisation", "Tenant ID", "Report", "Net Profit"}
var detailHeader = []string{"Organisation", "Section", "Line", "Amount"}

// buildProfitAndLossWorkbook writes one summary row per tenant and every
// report line on a second sheet. Amounts are numeric cells where the platform
// value parses; anything else is kept as text.
func buildProfitAndLossWorkbook(results []reports.Result, rng reports.Range) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summaryIndex, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(summaryIndex)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeHeader(f, summarySheet, summaryHeader, headerStyle, []float64{32, 38, 24, 16}); err != nil {
		return nil, err
	}
	if err := writeHeader(f, detailSheet, detailHeader, headerStyle, []float64{32, 28, 36, 16}); err != nil {
		return nil, err
	}

	row := 2
	for _, res := range results {
		var netProfit any = ""
		if amount, err := res.Report.NetProfit(); err == nil {
			netProfit = amount.InexactFloat64()
		}
		if err := setRow(f, summarySheet, row, res.TenantName, res.TenantID, res.Report.ReportName, netProfit); err != nil {
			return nil, err
		}
		row++
	}
	if err := setRow(f, summarySheet, row+1, "Period", rng.String()); err != nil {
		return nil, err
	}

	row = 2
	for _, res := range results {
		for _, line := range flattenRows(res.Report.Rows, "") {
			if err := setRow(f, detailSheet, row, res.TenantName, line.section, line.label, line.amount); err != nil {
				return nil, err
			}
			row++
		}
	}

	for _, sheet := range []string{summarySheet, detailSheet} {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return nil, fmt.Errorf("failed to freeze header row: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type reportLine struct {
	section string
	label   string
	amount  any
}

// flattenRows walks nested sections and keeps data and summary rows.
func flattenRows(rows []accounting.Row, section string) []reportLine {
	var out []reportLine
	for _, r := range rows {
		switch r.RowType {
		case "Section":
			title := r.Title
			if title == "" {
				title = section
			}
			out = append(out, flattenRows(r.Rows, title)...)
		case "Row", "SummaryRow":
			if len(r.Cells) == 0 {
				continue
			}
			line := reportLine{section: section, label: r.Cells[0].Value, amount: ""}
			if len(r.Cells) > 1 {
				value := r.Cells[1].Value
				line.amount = value
				if amount, err := accounting.ParseAmount(value); err == nil {
					line.amount = amount.InexactFloat64()
				}
			}
			out = append(out, line)
		}
	}
	return out
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int, widths []float64) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if col < len(widths) {
			if err := f.SetColWidth(sheet, name, name, widths[col]); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}
