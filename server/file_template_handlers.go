package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/accounting"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

// Page templates, each rendered inside layout.html.
const (
	pageDashboard = "dashboard.html"
	pageReconnect = "reconnect.html"
	pageReports   = "reports.html"
	pageRecent    = "recent.html"
	pageAddGroup  = "add_group.html"
	pageGroups    = "groups.html"
)

var pages = mustParsePages(pageDashboard, pageReconnect, pageReports, pageRecent, pageAddGroup, pageGroups)

var templateFuncs = template.FuncMap{
	"netProfit": func(r accounting.Report) string {
		amount, err := r.NetProfit()
		if err != nil {
			return "n/a"
		}
		return amount.StringFixed(2)
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2 Jan 2006")
	},
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout.
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(layoutTemplate).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

func mustParsePages(names ...string) map[string]*template.Template {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := ParseTemplate(name)
		if err != nil {
			panic(fmt.Sprintf("Failed to parse template %s: %v", name, err))
		}
		out[name] = t
	}
	return out
}

// render executes the page into a buffer first so a template failure never
// leaves a half-written response.
func render(w http.ResponseWriter, status int, page string, data any) {
	t, ok := pages[page]
	if !ok {
		log.Error().Str("page", page).Msg("unknown template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		log.Error().Err(err).Str("page", page).Msg("template render failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
