package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"tutionbuddy/internal/narration"
)

// NewRouter erstellt den HTTP-Router mit allen Endpoints
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()

	// API-Version
	api := r.PathPrefix("/api/v1").Subrouter()

	// System
	api.HandleFunc("/health", h.HealthCheck).Methods("GET")
	api.HandleFunc("/models", h.GetModels).Methods("GET")
	api.HandleFunc("/models", h.SetModel).Methods("POST")
	api.HandleFunc("/subjects", h.GetSubjects).Methods("GET")

	// Dokumente
	api.HandleFunc("/documents", h.GetDocuments).Methods("GET")
	api.HandleFunc("/documents", h.UploadDocument).Methods("POST")
	api.HandleFunc("/documents/{id}", h.GetDocument).Methods("GET")
	api.HandleFunc("/documents/{id}", h.DeleteDocument).Methods("DELETE")
	api.HandleFunc("/documents/{id}/pages", h.GetPages).Methods("GET")
	api.HandleFunc("/documents/{id}/pages/{page}", h.GetPage).Methods("GET")

	// Lernen mit Dokumenten
	api.HandleFunc("/ask", h.Ask).Methods("POST")
	api.HandleFunc("/ask/stream", h.AskStream).Methods("GET")
	api.HandleFunc("/documents/{id}/quiz", h.GenerateQuiz).Methods("POST")
	api.HandleFunc("/documents/{id}/summary", h.Summarize).Methods("POST")
	api.HandleFunc("/documents/{id}/read", h.ReadPage).Methods("POST")

	// Hausaufgaben
	api.HandleFunc("/homework/hint", h.Hint).Methods("POST")
	api.HandleFunc("/homework/sessions", h.StartSession).Methods("POST")
	api.HandleFunc("/homework/sessions/{id}", h.GetSession).Methods("GET")
	api.HandleFunc("/homework/sessions/{id}/complete", h.CompleteSession).Methods("POST")
	api.HandleFunc("/homework/sessions/{id}/submit", h.SubmitSession).Methods("POST")
	api.HandleFunc("/homework/progress", h.GetProgressReport).Methods("GET")
	api.HandleFunc("/homework/progress/{subject}", h.GetSubjectProgress).Methods("GET")

	// Sprachausgabe
	api.HandleFunc("/audio", h.GenerateAudio).Methods("POST")

	// Erzeugte Audiodateien
	r.PathPrefix(narration.AudioURLPrefix).Handler(
		http.StripPrefix(narration.AudioURLPrefix, http.FileServer(http.Dir(h.config.AudioPath))))

	// CORS für lokale Entwicklung
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	return c.Handler(r)
}
