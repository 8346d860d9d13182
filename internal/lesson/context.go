// Package lesson baut den Textkontext, den die Prompts aus gespeicherten Seiten erhalten.
package lesson

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"tutionbuddy/internal/models"
)

// TruncationMarker wird an gekürzte Kontexte angehängt
const TruncationMarker = "\n[... truncated ...]"

var headerPattern = regexp.MustCompile(`(?m)^--- Page (\d+) ---\n`)

// Header liefert die Kopfzeile eines Seitenblocks
func Header(pageNumber int) string {
	return fmt.Sprintf("--- Page %d ---\n", pageNumber)
}

// BuildContext rendert alle Seiten in Seitenreihenfolge, getrennt durch Leerzeilen.
// Es wird nicht gekürzt.
func BuildContext(pages []models.Page) string {
	sorted := make([]models.Page, len(pages))
	copy(sorted, pages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PageNumber < sorted[j].PageNumber
	})

	blocks := make([]string, 0, len(sorted))
	for _, p := range sorted {
		blocks = append(blocks, Header(p.PageNumber)+p.Content+"\n")
	}
	return strings.Join(blocks, "\n")
}

// SplitContext ist die Umkehrung von BuildContext. Das gilt nur, solange kein
// Seiteninhalt selbst eine Zeile "--- Page N ---" enthält; eine solche Zeile
// beginnt beim Zerlegen eine neue Seite.
func SplitContext(blob string) []models.Page {
	locs := headerPattern.FindAllStringSubmatchIndex(blob, -1)
	pages := make([]models.Page, 0, len(locs))

	for i, loc := range locs {
		n, _ := strconv.Atoi(blob[loc[2]:loc[3]])
		end := len(blob)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := blob[loc[1]:end]
		// Block endet mit "\n", zwischen Blöcken steht ein weiteres "\n"
		if i+1 < len(locs) {
			body = strings.TrimSuffix(body, "\n")
		}
		body = strings.TrimSuffix(body, "\n")
		pages = append(pages, models.Page{PageNumber: n, Content: body})
	}
	return pages
}

// Truncate kürzt an einer beliebigen Zeichenposition (nicht satzgenau).
// Mitten im Satz abgeschnittener Text ist eine bekannte Einschränkung.
func Truncate(text string, budget int) string {
	if budget <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return string(runes[:budget]) + TruncationMarker
}

// QuestionContext nimmt kurze Auszüge aus den ersten Seiten mehrerer Dokumente
func QuestionContext(pagesByDocument [][]models.Page, perPage, pagesPerDocument int) string {
	var parts []string
	for _, pages := range pagesByDocument {
		sorted := make([]models.Page, len(pages))
		copy(sorted, pages)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].PageNumber < sorted[j].PageNumber
		})
		if len(sorted) > pagesPerDocument {
			sorted = sorted[:pagesPerDocument]
		}
		for _, p := range sorted {
			runes := []rune(p.Content)
			if len(runes) > perPage {
				runes = runes[:perPage]
			}
			parts = append(parts, string(runes))
		}
	}
	return strings.Join(parts, "\n\n")
}
