package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ReadPDF liefert eine Seite pro PDF-Seite; leere Seiten werden übersprungen
func ReadPDF(r io.ReaderAt, size int64) ([]PageContent, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("fehler beim Lesen der PDF: %w", err)
	}

	var pages []PageContent
	totalPages := reader.NumPage()

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, PageContent{Number: pageNum, Content: text})
		}
	}

	return pages, nil
}

// ImagePlaceholder ersetzt OCR: eine Seite mit Anleitung für den Schüler
func ImagePlaceholder(filename string) []PageContent {
	text := fmt.Sprintf(`Image uploaded: %s

Note: This is an image file. Please describe the content of the image or ask specific questions about what you see.

To get the best help:
1. Describe what type of homework this is (math problems, reading comprehension, etc.)
2. Tell me what specific questions you need help with
3. Type out any text or problems you can see in the image

I'm ready to help you with your homework once you provide these details!`, filename)

	return []PageContent{{Number: 1, Content: text}}
}
