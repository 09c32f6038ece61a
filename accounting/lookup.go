package accounting

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const netProfitLabel = "net profit"

// NetProfit finds the row labelled "Net Profit" and returns its first value
// column as a decimal.
func (r Report) NetProfit() (decimal.Decimal, error) {
	cell, ok := findLabelledValue(r.Rows, netProfitLabel)
	if !ok {
		return decimal.Zero, fmt.Errorf("report %q has no net profit row", r.ReportName)
	}
	amount, err := ParseAmount(cell)
	if err != nil {
		return decimal.Zero, fmt.Errorf("net profit %q: %w", cell, err)
	}
	return amount, nil
}

// OrganisationName is the second report title, e.g.
// ["Profit and Loss", "Demo Company (AU)", "1 January 2022 to 31 December 2022"].
func (r Report) OrganisationName() string {
	if len(r.ReportTitles) > 1 {
		return r.ReportTitles[1]
	}
	return ""
}

// ParseAmount reads a report cell amount; an empty cell is zero.
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

func findLabelledValue(rows []Row, label string) (string, bool) {
	for _, row := range rows {
		if len(row.Cells) > 1 && strings.EqualFold(strings.TrimSpace(row.Cells[0].Value), label) {
			return row.Cells[1].Value, true
		}
		if v, ok := findLabelledValue(row.Rows, label); ok {
			return v, true
		}
	}
	return "", false
}
