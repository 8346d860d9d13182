package ingest

import (
	"strings"
	"time"

	"tutionbuddy/internal/models"
)

// DocumentMeta sind die vom Nutzer angegebenen Angaben zu einer Datei
type DocumentMeta struct {
	ID               string
	Filename         string
	OriginalFilename string
	Subject          string
	LessonTitle      string
	ChapterNumber    string
	UploadedAt       time.Time
}

// Document baut das speicherbare Dokument. Fehlende Angaben werden aus dem
// Inhalt geraten.
func (r *Result) Document(meta DocumentMeta) *models.Document {
	title := strings.TrimSpace(meta.LessonTitle)
	if title == "" {
		title = r.Title
	}
	subject := strings.TrimSpace(meta.Subject)
	if subject == "" {
		subject = r.Subject
	}

	doc := &models.Document{
		ID:               meta.ID,
		Filename:         meta.Filename,
		OriginalFilename: meta.OriginalFilename,
		Subject:          subject,
		LessonTitle:      title,
		ChapterNumber:    strings.TrimSpace(meta.ChapterNumber),
		UploadedAt:       meta.UploadedAt,
		Pages:            make([]models.Page, 0, len(r.Pages)),
	}
	for _, p := range r.Pages {
		doc.Pages = append(doc.Pages, models.Page{
			PageNumber: p.Number,
			Content:    p.Content,
			WordCount:  CountWords(p.Content),
			CreatedAt:  meta.UploadedAt,
		})
	}
	doc.TotalPages = len(doc.Pages)
	return doc
}
