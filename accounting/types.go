package accounting

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Invoice types
const (
	InvoiceTypeReceivable = "ACCREC" // sales
	InvoiceTypePayable    = "ACCPAY" // bills
)

// Report is a platform report (profit and loss, balance sheet). Apart from the
// lookups below its shape belongs to the platform and is passed through.
type Report struct {
	ReportID       string   `json:"ReportID,omitempty"`
	ReportName     string   `json:"ReportName,omitempty"`
	ReportType     string   `json:"ReportType,omitempty"`
	ReportTitles   []string `json:"ReportTitles,omitempty"`
	ReportDate     string   `json:"ReportDate,omitempty"`
	UpdatedDateUTC string   `json:"UpdatedDateUTC,omitempty"`
	Rows           []Row    `json:"Rows,omitempty"`
}

type Row struct {
	RowType string `json:"RowType,omitempty"` // Header, Section, Row, SummaryRow
	Title   string `json:"Title,omitempty"`
	Cells   []Cell `json:"Cells,omitempty"`
	Rows    []Row  `json:"Rows,omitempty"`
}

type Cell struct {
	Value      string      `json:"Value"`
	Attributes []Attribute `json:"Attributes,omitempty"`
}

type Attribute struct {
	ID    string `json:"Id"`
	Value string `json:"Value"`
}

type reportsEnvelope struct {
	Reports []Report `json:"Reports"`
}

// Organisation is the subset of organisation details the dashboard shows.
type Organisation struct {
	OrganisationID string `json:"OrganisationID"`
	Name           string `json:"Name"`
	LegalName      string `json:"LegalName"`
	BaseCurrency   string `json:"BaseCurrency"`
	CountryCode    string `json:"CountryCode"`
	ShortCode      string `json:"ShortCode"`
}

type organisationsEnvelope struct {
	Organisations []Organisation `json:"Organisations"`
}

// Invoice keeps every upstream attribute in Fields. Type and Date are parsed
// out for filtering and sorting; TenantID and TenantName are set locally.
type Invoice struct {
	Type       string
	Date       time.Time
	TenantID   string
	TenantName string
	Fields     map[string]any
}

func (inv *Invoice) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	fields := map[string]any{}
	if err := dec.Decode(&fields); err != nil {
		return err
	}
	inv.Fields = fields
	inv.Type, _ = fields["Type"].(string)
	inv.Date = invoiceDate(fields)
	return nil
}

func (inv Invoice) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(inv.Fields)+2)
	for k, v := range inv.Fields {
		out[k] = v
	}
	if inv.TenantID != "" {
		out["TenantID"] = inv.TenantID
	}
	if inv.TenantName != "" {
		out["TenantName"] = inv.TenantName
	}
	return json.Marshal(out)
}

// Field returns an upstream attribute rendered as text, for templates.
func (inv Invoice) Field(name string) string {
	switch v := inv.Fields[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if n, ok := v["Name"].(string); ok {
			return n
		}
	}
	b, _ := json.Marshal(inv.Fields[name])
	return string(b)
}

type invoicesEnvelope struct {
	Invoices []Invoice `json:"Invoices"`
}

var msDate = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

func invoiceDate(fields map[string]any) time.Time {
	if s, ok := fields["DateString"].(string); ok {
		if t, ok := ParseDate(s); ok {
			return t
		}
	}
	if s, ok := fields["Date"].(string); ok {
		if t, ok := ParseDate(s); ok {
			return t
		}
	}
	return time.Time{}
}

// ParseDate accepts the date forms the platform emits: 2006-01-02,
// 2006-01-02T15:04:05 (with or without zone) and /Date(1641081600000+0000)/.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if m := msDate.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
