package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// PageBreak ist der Absatz, den ReadDocx für harte Seitenumbrüche einfügt
const PageBreak = "\f"

// DefaultTextBudget: maximale Zeichen pro Seite bei Klartext
const DefaultTextBudget = 1000

// DefaultMarkers sind die Seitenumbruch-Indikatoren der Schulbuch-Vorlagen
var DefaultMarkers = []string{"📖 Page", "\f", "\x0c"}

var pageNumberPattern = regexp.MustCompile(`(?i)Page\s+(\d+)`)

// PageContent ist eine segmentierte Seite vor dem Speichern
type PageContent struct {
	Number  int    `json:"page_number"`
	Content string `json:"content"`
}

// SegmentParagraphs teilt Absätze an Seitenumbruch-Markern in Seiten.
// Ohne Marker wird der gesamte Inhalt zu Seite 1.
func SegmentParagraphs(paragraphs []string, markers []string) []PageContent {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}

	var pages []PageContent
	var buf []string
	current := 1
	last := 0

	flush := func() {
		content := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = nil
		if content == "" {
			return
		}
		// Seitennummern bleiben eindeutig und steigend
		if current <= last {
			current = last + 1
		}
		pages = append(pages, PageContent{Number: current, Content: content})
		last = current
	}

	for _, raw := range paragraphs {
		if isMarker(raw, markers) {
			flush()
			if n, ok := explicitPageNumber(raw); ok {
				current = n
			} else {
				current++
			}
			continue
		}
		if text := strings.TrimSpace(raw); text != "" {
			buf = append(buf, text)
		}
	}
	flush()

	return pages
}

// AppendTables hängt Tabellen zeilenweise an die letzte Seite an.
// Die Position der Tabelle im Text geht dabei verloren.
func AppendTables(pages []PageContent, tables [][][]string) []PageContent {
	for _, table := range tables {
		var rows []string
		for _, row := range table {
			var cells []string
			for _, cell := range row {
				if c := strings.TrimSpace(cell); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, " | "))
			}
		}
		if len(rows) == 0 {
			continue
		}

		text := strings.Join(rows, "\n")
		if len(pages) == 0 {
			pages = append(pages, PageContent{Number: 1, Content: "Table Content:\n" + text})
			continue
		}
		last := &pages[len(pages)-1]
		last.Content += "\n\nTable Content:\n" + text
	}
	return pages
}

// SegmentPlainText trennt an Leerzeilen und packt Blöcke bis zum Zeichenbudget
func SegmentPlainText(text string, budget int) []PageContent {
	if budget <= 0 {
		budget = DefaultTextBudget
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var pages []PageContent
	emit := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			pages = append(pages, PageContent{Number: len(pages) + 1, Content: s})
		}
	}

	current := ""
	for _, chunk := range strings.Split(text, "\n\n") {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(chunk) > budget {
			if strings.TrimSpace(current) != "" {
				emit(current)
				current = chunk
			} else {
				emit(chunk)
				current = ""
			}
			continue
		}
		if current != "" {
			current += "\n\n" + chunk
		} else {
			current = chunk
		}
	}
	emit(current)

	return pages
}

func isMarker(text string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func explicitPageNumber(text string) (int, bool) {
	m := pageNumberPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
