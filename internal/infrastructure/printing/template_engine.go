package printing

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templateFS embed.FS

const invoiceTemplateName = "invoice.html"

// InvoiceDocument is the data rendered into an invoice page.
// Invoice must have its Client and Items loaded.
type InvoiceDocument struct {
	Business identity.BusinessProfile
	Invoice  *invoice.Invoice
}

// DocumentEngine renders invoice documents with html/template.
// Every field is escaped for the context it appears in; no value
// supplied by a user is ever marked as trusted HTML.
type DocumentEngine struct {
	tmpl *template.Template
}

// NewDocumentEngine parses the embedded document templates
func NewDocumentEngine() (*DocumentEngine, error) {
	tmpl, err := template.New(invoiceTemplateName).
		Funcs(newFuncMap()).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse document templates", err)
	}
	return &DocumentEngine{tmpl: tmpl}, nil
}

// RenderInvoice renders a standalone HTML page for an invoice
func (e *DocumentEngine) RenderInvoice(ctx context.Context, doc *InvoiceDocument) (string, error) {
	if doc == nil || doc.Invoice == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "invoice document is nil", nil)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, invoiceTemplateName, doc); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute invoice template", err)
	}
	return buf.String(), nil
}

func newFuncMap() template.FuncMap {
	return template.FuncMap{
		"formatMoney":    formatMoney,
		"formatDate":     formatDate,
		"formatQuantity": formatQuantity,
		"formatRate":     formatRate,
		"statusClass":    statusClass,
		"positive":       positive,
		"lines":          lines,
	}
}

// formatMoney formats an amount as US dollars with grouping.
// Example: 1234.5 -> "$1,234.50"
func formatMoney(d decimal.Decimal) string {
	rounded := d.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	return sign + "$" + grouped(rounded, rounded.StringFixed(2))
}

// formatDate formats a date in long form
// Example: 2026-10-18 -> "October 18, 2026"
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("January 2, 2006")
}

// formatQuantity prints a quantity without trailing zeros
// Example: 1500.50 -> "1,500.5"
func formatQuantity(d decimal.Decimal) string {
	rounded := d.Round(4)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	return sign + grouped(rounded, rounded.String())
}

// grouped prints the integer part of a non-negative d with thousands
// separators, followed by the fractional digits of plain as written
func grouped(d decimal.Decimal, plain string) string {
	whole := message.NewPrinter(language.AmericanEnglish).Sprint(number.Decimal(d.IntPart()))
	if i := strings.IndexByte(plain, '.'); i >= 0 {
		return whole + plain[i:]
	}
	return whole
}

// formatRate prints a percentage rate
// Example: 8.25 -> "8.25%"
func formatRate(d decimal.Decimal) string {
	return d.String() + "%"
}

func statusClass(s invoice.Status) string {
	return strings.ToLower(string(s))
}

func positive(d decimal.Decimal) bool {
	return d.IsPositive()
}

// lines splits multi-line text so the template can join it with <br>
func lines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
