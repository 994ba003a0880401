package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hamzaa73/EduGenie/internal/quiz"
)

// Artifact is one uploaded file with its declared media type.
type Artifact struct {
	Name      string
	MediaType string
	Data      []byte
}

// PDFExtractor maps PDF bytes to plain text.
type PDFExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// OCRClient maps a base64 data URL of an image to plain text.
type OCRClient interface {
	ExtractTextFromImage(ctx context.Context, imageDataURL string, lang quiz.Language) (string, error)
}

// Coordinator dispatches an uploaded artifact to the extraction path matching
// its media type. Failures return no partial text.
type Coordinator struct {
	pdf    PDFExtractor
	ocr    OCRClient
	logger zerolog.Logger
}

func NewCoordinator(pdf PDFExtractor, ocr OCRClient, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		pdf:    pdf,
		ocr:    ocr,
		logger: logger.With().Str("component", "ingest").Logger(),
	}
}

// Extract produces the preview source text for the artifact.
func (c *Coordinator) Extract(ctx context.Context, art Artifact, lang quiz.Language) (string, error) {
	switch {
	case art.MediaType == "application/pdf":
		text, err := c.pdf.ExtractText(ctx, art.Data)
		if err != nil {
			c.logger.Warn().Err(err).Str("file", art.Name).Msg("pdf extraction failed")
			return "", fmt.Errorf("extract pdf text: %w", err)
		}
		return text, nil

	case strings.HasPrefix(art.MediaType, "image/"):
		dataURL := "data:" + art.MediaType + ";base64," + base64.StdEncoding.EncodeToString(art.Data)
		text, err := c.ocr.ExtractTextFromImage(ctx, dataURL, lang)
		if err != nil {
			c.logger.Warn().Err(err).Str("file", art.Name).Msg("image ocr failed")
			return "", fmt.Errorf("extract image text: %w", err)
		}
		return text, nil

	default:
		return string(art.Data), nil
	}
}
