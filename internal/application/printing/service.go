package printing

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	infra "github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrPDFDisabled is returned when a PDF is requested but no renderer is configured
var ErrPDFDisabled = shared.NewDomainError(shared.CodePrecondition, "PDF output is not enabled")

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypePDF  = "application/pdf"
)

// InvoiceLoader loads an invoice with its client and items
type InvoiceLoader interface {
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*invoice.Invoice, error)
}

// UserLoader loads the issuing user's business profile
type UserLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// DocumentRenderer turns an invoice document into HTML
type DocumentRenderer interface {
	RenderInvoice(ctx context.Context, doc *infra.InvoiceDocument) (string, error)
}

// PrintService renders invoice documents as HTML and, when enabled, PDF
type PrintService struct {
	invoices    InvoiceLoader
	users       UserLoader
	engine      DocumentRenderer
	pdfRenderer infra.PDFRenderer
	logger      *zap.Logger

	businessMetrics *telemetry.BusinessMetrics
}

// PrintServiceConfig contains configuration for PrintService
type PrintServiceConfig struct {
	Invoices InvoiceLoader
	Users    UserLoader
	Engine   DocumentRenderer
	// PDFRenderer is nil when PDF output is disabled
	PDFRenderer infra.PDFRenderer
	Logger      *zap.Logger
}

// NewPrintService creates a new PrintService
func NewPrintService(cfg PrintServiceConfig) *PrintService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintService{
		invoices:    cfg.Invoices,
		users:       cfg.Users,
		engine:      cfg.Engine,
		pdfRenderer: cfg.PDFRenderer,
		logger:      logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *PrintService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// PDFEnabled reports whether PDF output is available
func (s *PrintService) PDFEnabled() bool {
	return s.pdfRenderer != nil
}

// RenderInvoice renders one of the user's invoices in the requested format
func (s *PrintService) RenderInvoice(ctx context.Context, userID, invoiceID uuid.UUID, req DocumentRequest) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "printing", "render_invoice",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID),
		telemetry.WithAttribute(telemetry.SpanAttrFormat, req.Format))
	defer span.End()

	format, err := parseFormat(req.Format)
	if err != nil {
		return nil, err
	}
	if format == FormatPDF && s.pdfRenderer == nil {
		return nil, ErrPDFDisabled
	}

	inv, err := s.invoices.FindByIDForUser(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	html, err := s.engine.RenderInvoice(ctx, &infra.InvoiceDocument{
		Business: user.Profile,
		Invoice:  inv,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to render invoice document: %w", err)
	}

	response := &DocumentResponse{
		Filename:    DocumentFilename(inv.InvoiceNumber, format),
		ContentType: contentTypeHTML,
		Body:        []byte(html),
	}

	if format == FormatPDF {
		result, err := s.pdfRenderer.Render(ctx, &infra.RenderRequest{
			HTML:      html,
			PaperSize: infra.PaperSizeLetter,
		})
		if err != nil {
			telemetry.RecordError(span, err)
			s.logger.Error("PDF rendering failed",
				zap.String("invoice_id", invoiceID.String()),
				zap.Error(err))
			return nil, fmt.Errorf("failed to render invoice PDF: %w", err)
		}
		response.ContentType = contentTypePDF
		response.Body = result.PDFData
	}

	if s.businessMetrics != nil {
		s.businessMetrics.RecordDocumentRendered(ctx, string(format), time.Since(start).Seconds())
	}
	return response, nil
}

func parseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", shared.NewValidationError("Unsupported document format. Must be one of: html, pdf")
	}
}

// DocumentFilename builds a header-safe file name from an invoice number.
// Anything outside letters, digits, dot, dash and underscore becomes an underscore.
func DocumentFilename(invoiceNumber string, format Format) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(invoiceNumber))
	name = strings.Trim(name, "._")
	if name == "" {
		name = "invoice"
	}
	return name + "." + string(format)
}
