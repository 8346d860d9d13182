package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	ut "github.com/go-playground/universal-translator"

	"tutionbuddy/internal/apperr"
	"tutionbuddy/internal/cache"
	"tutionbuddy/internal/config"
	"tutionbuddy/internal/fallback"
	"tutionbuddy/internal/homework"
	"tutionbuddy/internal/ingest"
	"tutionbuddy/internal/llm"
	"tutionbuddy/internal/logger"
	"tutionbuddy/internal/narration"
	"tutionbuddy/internal/storage"
)

// Handler verwaltet alle API-Endpunkte
type Handler struct {
	store    storage.Storage
	llm      llm.Provider
	tutor    *llm.Tutor
	engine   *homework.Engine
	narrator *narration.Narrator
	parser   *ingest.Parser
	fallback *fallback.Resolver
	cache    cache.Cache
	config   *config.Config
	log      *logger.Logger

	validate   *validator.Validate
	translator ut.Translator
	upgrader   websocket.Upgrader

	newID func() string
	now   func() time.Time
}

// NewHandler erstellt einen neuen API-Handler. narrator und c dürfen nil sein.
func NewHandler(store storage.Storage, provider llm.Provider, narrator *narration.Narrator, c cache.Cache, cfg *config.Config, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	resolver := fallback.NewResolver()
	validate, translator := newValidator()

	return &Handler{
		store:      store,
		llm:        provider,
		tutor:      llm.NewTutor(provider, cfg, log),
		engine:     homework.NewEngine(store, provider, resolver, cfg, log),
		narrator:   narrator,
		parser:     ingest.NewParser(),
		fallback:   resolver,
		cache:      c,
		config:     cfg,
		log:        log,
		validate:   validate,
		translator: translator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Response-Helper
func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, map[string]string{"error": message}, status)
}

// failure bildet Fehlerklassen auf Statuscodes ab; Rohfehler gehen nur ins Log
func (h *Handler) failure(w http.ResponseWriter, r *http.Request, err error) {
	if v, ok := apperr.IsValidation(err); ok {
		jsonResponse(w, v, http.StatusBadRequest)
		return
	}
	if apperr.IsNotFound(err) {
		errorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	h.log.Error("❌ [API] Anfrage fehlgeschlagen", "method", r.Method, "path", r.URL.Path, "error", err)
	errorResponse(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
}

// narrate liefert eine Audio-URL, wenn gewünscht und möglich
func (h *Handler) narrate(r *http.Request, want bool, text, subject string) string {
	if !want || h.narrator == nil {
		return ""
	}
	return h.narrator.Narrate(r.Context(), text, subject)
}
