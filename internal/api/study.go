package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"tutionbuddy/internal/cache"
	"tutionbuddy/internal/narration"
)

type quizRequest struct {
	NumQuestions int `json:"num_questions" validate:"omitempty,min=1,max=20"`
}

// GenerateQuiz erstellt Quizfragen zu einem Dokument
func (h *Handler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := h.decode(r, &req); err != nil {
		h.failure(w, r, err)
		return
	}
	doc, pages, err := h.loadDocument(r, mux.Vars(r)["id"])
	if err != nil {
		h.failure(w, r, err)
		return
	}

	questions, err := h.tutor.GenerateQuiz(r.Context(), doc, pages, req.NumQuestions)
	if err != nil {
		h.log.Warn("⚠️ [Quiz] Erstellung fehlgeschlagen", "document_id", doc.ID, "error", err)
		errorResponse(w, "Could not create a quiz right now. Please try again.", http.StatusServiceUnavailable)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"document_id":    doc.ID,
		"document_title": doc.LessonTitle,
		"questions":      questions,
	}, http.StatusOK)
}

type narrateRequest struct {
	Narrate bool `json:"narrate"`
}

// Summarize fasst ein Dokument kindgerecht zusammen (gecacht)
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req narrateRequest
	if err := h.decode(r, &req); err != nil {
		h.failure(w, r, err)
		return
	}
	doc, pages, err := h.loadDocument(r, mux.Vars(r)["id"])
	if err != nil {
		h.failure(w, r, err)
		return
	}

	key := cache.Key("summary", doc.ID, h.llm.GetCurrentModel())
	summary := ""
	if h.cache != nil {
		summary, _ = h.cache.Get(r.Context(), key)
	}
	if summary == "" {
		summary, err = h.tutor.Summarize(r.Context(), doc, pages)
		if err != nil {
			h.log.Warn("⚠️ [Summary] Zusammenfassung fehlgeschlagen", "document_id", doc.ID, "error", err)
			errorResponse(w, "Could not summarize this lesson right now. Please try again.", http.StatusServiceUnavailable)
			return
		}
		if h.cache != nil {
			if err := h.cache.Set(r.Context(), key, summary, h.config.CacheTTL); err != nil {
				h.log.Warn("⚠️ [Cache] Schreiben fehlgeschlagen", "error", err)
			}
		}
	}

	jsonResponse(w, map[string]interface{}{
		"document_id":    doc.ID,
		"document_title": doc.LessonTitle,
		"summary":        summary,
		"audio_url":      h.narrate(r, req.Narrate, summary, doc.Subject),
	}, http.StatusOK)
}

type readRequest struct {
	PageNumber int  `json:"page_number" validate:"required,min=1"`
	Narrate    bool `json:"narrate"`
}

type readChunk struct {
	Text     string `json:"text"`
	AudioURL string `json:"audio_url,omitempty"`
}

// ReadPage teilt eine Seite in Vorleseabschnitte, optional vertont
func (h *Handler) ReadPage(w http.ResponseWriter, r *http.Request) {
	var req readRequest
	if err := h.decode(r, &req); err != nil {
		h.failure(w, r, err)
		return
	}
	id := mux.Vars(r)["id"]
	doc, err := h.store.GetDocument(r.Context(), id)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	page, err := h.store.GetPage(r.Context(), id, req.PageNumber)
	if err != nil {
		h.failure(w, r, err)
		return
	}

	texts := narration.ReadableChunks(page.Content, narration.ReadChunkSize)
	chunks := make([]readChunk, 0, len(texts))
	for _, text := range texts {
		chunks = append(chunks, readChunk{
			Text:     text,
			AudioURL: h.narrate(r, req.Narrate, text, doc.Subject),
		})
	}

	jsonResponse(w, map[string]interface{}{
		"document_id":  doc.ID,
		"page_number":  page.PageNumber,
		"total_pages":  doc.TotalPages,
		"chunks":       chunks,
		"total_chunks": len(chunks),
	}, http.StatusOK)
}
