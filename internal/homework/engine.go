// Package homework ist die Hinweis- und Fortschrittslogik: gestufte Hinweise,
// Bewertung von Antworten, Sitzungen und Berichte. Zähler werden immer aus der
// gespeicherten Historie neu berechnet.
package homework

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tutionbuddy/internal/config"
	"tutionbuddy/internal/fallback"
	"tutionbuddy/internal/lesson"
	"tutionbuddy/internal/llm"
	"tutionbuddy/internal/logger"
	"tutionbuddy/internal/models"
	"tutionbuddy/internal/storage"
)

const (
	contextDocuments     = 5
	contextPagesPerDoc   = 2
	contextCharsPerPage  = 300
	recentActivityLength = 5
)

// Engine verwaltet Sitzungen, Hinweise und Bewertungen
type Engine struct {
	store    storage.Storage
	provider llm.Provider
	fallback *fallback.Resolver
	cfg      *config.Config
	log      *logger.Logger

	now   func() time.Time
	newID func() string
}

// NewEngine erstellt die Engine
func NewEngine(store storage.Storage, provider llm.Provider, resolver *fallback.Resolver, cfg *config.Config, log *logger.Logger) *Engine {
	if resolver == nil {
		resolver = fallback.NewResolver()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		store:    store,
		provider: provider,
		fallback: resolver,
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Tuning liefert Teilpunkte und Schwellen
func (e *Engine) Tuning() config.Tuning {
	return e.cfg.Tuning
}

// questionContext sammelt kurze Auszüge aus den neuesten Dokumenten des Fachs.
// Das Dokument der Sitzung steht vorne. Fehler ergeben leeren Kontext.
func (e *Engine) questionContext(ctx context.Context, subject, documentID string) string {
	docs, err := e.store.ListDocuments(ctx, subject)
	if err != nil {
		e.log.Warn("⚠️ [Homework] Kontext nicht geladen", "subject", subject, "error", err)
		return ""
	}

	ids := make([]string, 0, contextDocuments)
	if documentID != "" {
		ids = append(ids, documentID)
	}
	for _, d := range docs {
		if len(ids) == contextDocuments {
			break
		}
		if d.ID != documentID {
			ids = append(ids, d.ID)
		}
	}

	pagesByDoc := make([][]models.Page, 0, len(ids))
	for _, id := range ids {
		pages, err := e.store.GetPages(ctx, id)
		if err != nil {
			e.log.Warn("⚠️ [Homework] Seiten nicht geladen", "document_id", id, "error", err)
			continue
		}
		pagesByDoc = append(pagesByDoc, pages)
	}
	return lesson.QuestionContext(pagesByDoc, contextCharsPerPage, contextPagesPerDoc)
}
