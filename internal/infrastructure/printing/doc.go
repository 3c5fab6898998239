// Package printing renders invoice documents.
//
// This package contains:
// - DocumentEngine, which turns an invoice and the issuer's business profile
// into a standalone HTML page using html/template
// - PDFRenderer interface for converting that HTML to PDF
// - ChromedpRenderer implementation driving headless Chrome
//
// Example usage:
//
//	engine, err := NewDocumentEngine()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	html, err := engine.RenderInvoice(ctx, &InvoiceDocument{
//	    Business: user.Profile,
//	    Invoice:  inv,
//	})
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{DefaultTimeout: 30 * time.Second})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer renderer.Close()
//
//	result, err := renderer.Render(ctx, &RenderRequest{
//	    HTML:      html,
//	    PaperSize: PaperSizeLetter,
//	})
package printing
