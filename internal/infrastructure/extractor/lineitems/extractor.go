package lineitems

import (
	"context"
	"errors"
	"io"
	"mime"
	"strings"

	"github.com/facturaflow/validator/internal/core/domain"
)

const (
	mimeCSV  = "text/csv"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF  = "application/pdf"
	mimeJSON = "application/json"
)

// Extractor dispatches on the document mime type to the format-specific
// line item readers.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, mimeType string, r io.Reader) ([]domain.RawLineItem, error) {
	mediaType := mimeType
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mediaType = parsed
	}

	switch strings.ToLower(mediaType) {
	case mimeCSV:
		return extractCSV(r)
	case mimeXLSX:
		return extractXLSX(r)
	case mimePDF:
		return extractPDF(r)
	case mimeJSON:
		return extractJSON(r)
	default:
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"extract line items",
			errors.New("unsupported mime type "+mimeType),
		)
	}
}
