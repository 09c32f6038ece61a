package reports

import (
	"sort"

	"github.com/jrsteele09/go-accounts-dashboard/accounting"
)

// RecentLimit is how many invoices the recent sales and bills views show.
const RecentLimit = 20

// Recent keeps invoices of the given type, newest first, and returns at most
// limit of them. Fewer matches give a shorter list, never padding.
func Recent(invoices []accounting.Invoice, invoiceType string, limit int) []accounting.Invoice {
	out := make([]accounting.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Type == invoiceType {
			out = append(out, inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Sales are receivable invoices.
func Sales(invoices []accounting.Invoice) []accounting.Invoice {
	return Recent(invoices, accounting.InvoiceTypeReceivable, RecentLimit)
}

// Bills are payable invoices.
func Bills(invoices []accounting.Invoice) []accounting.Invoice {
	return Recent(invoices, accounting.InvoiceTypePayable, RecentLimit)
}
