package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"tutionbuddy/internal/apperr"
	"tutionbuddy/internal/cache"
	"tutionbuddy/internal/llm"
	"tutionbuddy/internal/models"
)

type askRequest struct {
	DocumentID string `json:"document_id" validate:"required"`
	Question   string `json:"question" validate:"required"`
	Narrate    bool   `json:"narrate"`
}

type askResponse struct {
	llm.Answer
	AudioURL string `json:"audio_url,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

// loadDocument liefert Dokument und Seiten oder einen NotFound-Fehler
func (h *Handler) loadDocument(r *http.Request, id string) (*models.Document, []models.Page, error) {
	doc, err := h.store.GetDocument(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	pages, err := h.store.GetPages(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	if len(pages) == 0 {
		return nil, nil, apperr.NotFound("content of document", id)
	}
	return doc, pages, nil
}

// === Frage-Antwort ===

// Ask beantwortet eine Frage zu einem Dokument. Modellfehler ergeben eine
// Ersatzantwort mit fallback=true.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := h.decode(r, &req); err != nil {
		h.failure(w, r, err)
		return
	}
	req.Question = strings.TrimSpace(req.Question)

	doc, pages, err := h.loadDocument(r, req.DocumentID)
	if err != nil {
		h.failure(w, r, err)
		return
	}

	resp := askResponse{}
	key := cache.Key("ask", doc.ID, h.llm.GetCurrentModel(), req.Question)
	if cached, ok := h.cachedAnswer(r, key); ok {
		resp.Answer = *cached
	} else {
		answer, err := h.tutor.AskQuestion(r.Context(), doc, pages, req.Question)
		if err != nil {
			h.log.Warn("⚠️ [Ask] Modell fehlgeschlagen, verwende Ersatz", "document_id", doc.ID, "error", err)
			resp.Answer = llm.Answer{
				Answer:        h.fallback.Answer(doc.Subject, req.Question),
				DocumentTitle: doc.LessonTitle,
				Subject:       doc.Subject,
				TotalPages:    len(pages),
			}
			resp.Fallback = true
		} else {
			resp.Answer = *answer
			h.storeAnswer(r, key, answer)
		}
	}

	resp.AudioURL = h.narrate(r, req.Narrate, resp.Answer.Answer, doc.Subject)
	jsonResponse(w, resp, http.StatusOK)
}

func (h *Handler) cachedAnswer(r *http.Request, key string) (*llm.Answer, bool) {
	if h.cache == nil {
		return nil, false
	}
	raw, err := h.cache.Get(r.Context(), key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			h.log.Warn("⚠️ [Cache] Lesen fehlgeschlagen", "error", err)
		}
		return nil, false
	}
	var answer llm.Answer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return nil, false
	}
	return &answer, true
}

func (h *Handler) storeAnswer(r *http.Request, key string, answer *llm.Answer) {
	if h.cache == nil {
		return
	}
	raw, err := json.Marshal(answer)
	if err != nil {
		return
	}
	if err := h.cache.Set(r.Context(), key, string(raw), h.config.CacheTTL); err != nil {
		h.log.Warn("⚠️ [Cache] Schreiben fehlgeschlagen", "error", err)
	}
}

// AskStream beantwortet eine Frage über WebSocket in Teilstücken
func (h *Handler) AskStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var req askRequest
	if err := conn.ReadJSON(&req); err != nil {
		return
	}
	if err := h.check(&req); err != nil {
		_ = conn.WriteJSON(map[string]interface{}{"error": err.Error()})
		return
	}

	doc, pages, err := h.loadDocument(r, req.DocumentID)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	chunks, err := h.tutor.AskStream(ctx, doc, pages, strings.TrimSpace(req.Question))
	if err != nil {
		h.log.Warn("⚠️ [Ask] Stream fehlgeschlagen, verwende Ersatz", "document_id", doc.ID, "error", err)
		_ = conn.WriteJSON(map[string]interface{}{
			"content":  h.fallback.Answer(doc.Subject, req.Question),
			"done":     true,
			"fallback": true,
		})
		return
	}

	for chunk := range chunks {
		if chunk.Error != nil {
			h.log.Warn("⚠️ [Ask] Stream abgebrochen", "document_id", doc.ID, "error", chunk.Error)
			_ = conn.WriteJSON(map[string]string{"error": "The answer was interrupted. Please ask again."})
			return
		}
		if err := conn.WriteJSON(map[string]interface{}{
			"content": chunk.Content,
			"done":    chunk.Done,
		}); err != nil {
			return
		}
	}
}
