package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	printingapp "github.com/invoicer/backend/internal/application/printing"
	"go.uber.org/zap"
)

// DocumentService renders invoice documents
type DocumentService interface {
	RenderInvoice(ctx context.Context, userID, invoiceID uuid.UUID, req printingapp.DocumentRequest) (*printingapp.DocumentResponse, error)
}

// DocumentHandler serves rendered invoices
type DocumentHandler struct {
	BaseHandler
	documentService DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler:     newBaseHandler(logger),
		documentService: documentService,
	}
}

// Render handles GET /invoices/:id/document?format=html|pdf.
// The document is written raw, outside the JSON envelope.
func (h *DocumentHandler) Render(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id", "Invoice")
	if !ok {
		return
	}

	var req printingapp.DocumentRequest
	if !h.bindQuery(c, &req) {
		return
	}

	doc, err := h.documentService.RenderInvoice(c.Request.Context(), userID, invoiceID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Filename))
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
