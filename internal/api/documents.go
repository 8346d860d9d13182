package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"tutionbuddy/internal/apperr"
	"tutionbuddy/internal/ingest"
	"tutionbuddy/internal/subjects"
)

const maxUploadSize = 50 << 20

// === Dokument Endpoints ===

func (h *Handler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject != "" {
		subject = subjects.Canonical(subject)
	}

	docs, err := h.store.ListDocuments(r.Context(), subject)
	if err != nil {
		h.failure(w, r, err)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
	}, http.StatusOK)
}

type uploadForm struct {
	Subject       string `json:"subject" validate:"required"`
	LessonTitle   string `json:"lesson_title"`
	ChapterNumber string `json:"chapter_number"`
}

// UploadDocument speichert die Datei, segmentiert sie und legt Dokument und
// Seiten an. Bei jedem Fehler wird die Datei wieder entfernt.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		errorResponse(w, "Upload could not be read", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.failure(w, r, apperr.Field("file", "is required"))
		return
	}
	defer file.Close()

	form := uploadForm{
		Subject:       strings.TrimSpace(r.FormValue("subject")),
		LessonTitle:   r.FormValue("lesson_title"),
		ChapterNumber: r.FormValue("chapter_number"),
	}
	if err := h.check(&form); err != nil {
		h.failure(w, r, err)
		return
	}
	if !ingest.SupportedExtension(header.Filename) {
		h.failure(w, r, apperr.Field("file", "unsupported file type, use .docx, .txt, .pdf, .png or .jpg"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		errorResponse(w, "Upload could not be read", http.StatusBadRequest)
		return
	}

	id := h.newID()
	filename := id + strings.ToLower(filepath.Ext(header.Filename))
	path := filepath.Join(h.config.UploadPath, filename)
	if err := os.MkdirAll(h.config.UploadPath, 0o755); err != nil {
		h.failure(w, r, err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		h.failure(w, r, err)
		return
	}

	res, err := h.parser.Parse(header.Filename, data)
	if err != nil {
		h.removeUpload(path)
		h.log.Warn("⚠️ [Upload] Datei nicht verarbeitbar", "file", header.Filename, "error", err)
		h.failure(w, r, apperr.Field("file", err.Error()))
		return
	}

	doc := res.Document(ingest.DocumentMeta{
		ID:               id,
		Filename:         filename,
		OriginalFilename: header.Filename,
		Subject:          subjects.Canonical(form.Subject),
		LessonTitle:      form.LessonTitle,
		ChapterNumber:    form.ChapterNumber,
		UploadedAt:       h.now(),
	})
	if err := h.store.CreateDocument(r.Context(), doc); err != nil {
		h.removeUpload(path)
		h.failure(w, r, err)
		return
	}

	h.log.Info("📄 [Upload] Dokument gespeichert", "document_id", doc.ID, "subject", doc.Subject, "pages", doc.TotalPages)
	jsonResponse(w, doc, http.StatusCreated)
}

func (h *Handler) removeUpload(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.log.Warn("⚠️ [Upload] Datei nicht entfernt", "path", path, "error", err)
	}
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.GetDocument(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.failure(w, r, err)
		return
	}
	jsonResponse(w, doc, http.StatusOK)
}

func (h *Handler) GetPages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.store.GetDocument(r.Context(), id); err != nil {
		h.failure(w, r, err)
		return
	}
	pages, err := h.store.GetPages(r.Context(), id)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	jsonResponse(w, map[string]interface{}{
		"document_id": id,
		"pages":       pages,
		"count":       len(pages),
	}, http.StatusOK)
}

func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number, err := strconv.Atoi(vars["page"])
	if err != nil || number < 1 {
		h.failure(w, r, apperr.Field("page", "must be a positive number"))
		return
	}
	page, err := h.store.GetPage(r.Context(), vars["id"], number)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	jsonResponse(w, page, http.StatusOK)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	doc, err := h.store.GetDocument(r.Context(), id)
	if err != nil {
		h.failure(w, r, err)
		return
	}
	if err := h.store.DeleteDocument(r.Context(), id); err != nil {
		h.failure(w, r, err)
		return
	}
	h.removeUpload(filepath.Join(h.config.UploadPath, doc.Filename))

	h.log.Info("🗑️ [API] Dokument gelöscht", "document_id", id)
	jsonResponse(w, map[string]string{"message": "Document deleted"}, http.StatusOK)
}
