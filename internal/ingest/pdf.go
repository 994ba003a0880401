package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
)

// ErrUnreadablePDF signals a corrupt, protected, or otherwise unreadable file.
var ErrUnreadablePDF = errors.New("pdf file is unreadable, corrupt, or protected")

// PDFTextExtractor implements PDFExtractor with page markers between pages so
// the extracted text keeps some document structure.
type PDFTextExtractor struct{}

func (PDFTextExtractor) ExtractText(_ context.Context, data []byte) (text string, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrUnreadablePDF, r)
		}
	}()

	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
		}
		fmt.Fprintf(&b, "--- Page %d ---\n%s\n\n", i, pageText)
	}
	return strings.TrimSpace(b.String()), nil
}
