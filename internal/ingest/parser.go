package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrUnsupportedFormat: Dateiendung wird nicht unterstützt
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoContent: kein extrahierbarer Text
	ErrNoContent = errors.New("no text could be extracted from the document")
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// Result ist das Ergebnis der Segmentierung einer Datei
type Result struct {
	Pages []PageContent `json:"pages"`
	// Aus dem Inhalt geraten, nur als Vorschlag
	Title   string `json:"title"`
	Subject string `json:"subject,omitempty"`
}

// Parser zerlegt hochgeladene Dateien in nummerierte Seiten
type Parser struct {
	markers    []string
	textBudget int
}

// NewParser erstellt einen Parser mit den Standard-Markern
func NewParser() *Parser {
	return &Parser{
		markers:    DefaultMarkers,
		textBudget: DefaultTextBudget,
	}
}

// SupportedExtension prüft die Dateiendung vor dem Speichern
func SupportedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx", ".txt", ".pdf", ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// ParseFile liest und segmentiert eine Datei vom Dateisystem
func (p *Parser) ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("datei nicht lesbar: %w", err)
	}
	return p.Parse(filepath.Base(path), data)
}

// Parse wählt das Verfahren nach der Dateiendung
func (p *Parser) Parse(filename string, data []byte) (*Result, error) {
	res := &Result{Title: "Untitled Document"}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		doc, err := ReadDocx(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		res.Pages = SegmentParagraphs(doc.Paragraphs, p.markers)
		res.Pages = AppendTables(res.Pages, doc.Tables)
		res.Title, res.Subject = ExtractMetadata(doc.Paragraphs)

	case ".txt":
		text := string(data)
		res.Pages = SegmentPlainText(text, p.textBudget)
		res.Title, res.Subject = ExtractMetadata(strings.Split(text, "\n"))

	case ".pdf":
		pages, err := ReadPDF(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		res.Pages = pages
		if len(pages) > 0 {
			res.Title, res.Subject = ExtractMetadata(strings.Split(pages[0].Content, "\n"))
		}

	case ".png", ".jpg", ".jpeg":
		res.Pages = ImagePlaceholder(filename)
		res.Title = strings.TrimSuffix(filename, filepath.Ext(filename))

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}

	if len(res.Pages) == 0 {
		return nil, ErrNoContent
	}
	return res, nil
}

// CountWords zählt Wörter (Unicode-Buchstaben und Ziffern)
func CountWords(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// ExtractMetadata rät Titel und Fach aus den ersten Absätzen
func ExtractMetadata(paragraphs []string) (title, subject string) {
	title = "Untitled Document"

	limit := len(paragraphs)
	if limit > 5 {
		limit = 5
	}
	for _, para := range paragraphs[:limit] {
		text := strings.TrimSpace(para)
		if len([]rune(text)) <= 10 {
			continue
		}
		upper := strings.ToUpper(text)
		if strings.Contains(upper, "CHAPTER") || strings.Contains(upper, "LESSON") || strings.Contains(upper, "UNIT") {
			title = text
			break
		}
		if title == "Untitled Document" {
			if r := []rune(text); len(r) > 100 {
				title = string(r[:100]) + "..."
			} else {
				title = text
			}
		}
	}

	if len(paragraphs) > 10 {
		paragraphs = paragraphs[:10]
	}
	head := strings.ToUpper(strings.Join(paragraphs, " "))
	switch {
	case containsAny(head, "COMPUTER", "TECHNOLOGY", "PROGRAMMING"):
		subject = "IT-Computers"
	case containsAny(head, "MATH", "ALGEBRA", "GEOMETRY", "FRACTION"):
		subject = "Maths"
	case containsAny(head, "SCIENCE", "PHYSICS", "CHEMISTRY", "PLANT"):
		subject = "Science"
	}
	return title, subject
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
