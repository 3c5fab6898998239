package printing

// Format is an invoice document output format
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// DocumentRequest selects the output format of an invoice document
type DocumentRequest struct {
	Format string `form:"format" binding:"omitempty,oneof=html pdf HTML PDF"`
}

// DocumentResponse is a rendered invoice ready to be written to the client
type DocumentResponse struct {
	Filename    string
	ContentType string
	Body        []byte
}
