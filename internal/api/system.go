package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tutionbuddy/internal/subjects"
)

// === System Endpoints ===

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	jsonResponse(w, map[string]interface{}{
		"status":        "ok",
		"llm_available": h.llm.IsAvailable(ctx),
		"llm_provider":  h.llm.GetName(),
		"current_model": h.llm.GetCurrentModel(),
		"narration":     h.narrator != nil,
		"timestamp":     h.now(),
	}, http.StatusOK)
}

func (h *Handler) GetModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.llm.GetModels(r.Context())
	if err != nil {
		h.log.Warn("⚠️ [API] Modelle nicht abrufbar", "provider", h.llm.GetName(), "error", err)
		errorResponse(w, "Could not load the model list", http.StatusServiceUnavailable)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"models":        models,
		"current_model": h.llm.GetCurrentModel(),
	}, http.StatusOK)
}

type setModelRequest struct {
	Model string `json:"model" validate:"required"`
}

// SetModel ändert das aktive LLM-Modell
func (h *Handler) SetModel(w http.ResponseWriter, r *http.Request) {
	var req setModelRequest
	if err := h.decode(r, &req); err != nil {
		h.failure(w, r, err)
		return
	}

	models, err := h.llm.GetModels(r.Context())
	if err != nil {
		errorResponse(w, "Could not load the model list", http.StatusServiceUnavailable)
		return
	}

	found := false
	for _, m := range models {
		if m.Name == req.Model {
			found = true
			break
		}
	}
	if !found {
		errorResponse(w, fmt.Sprintf("Model '%s' not found", req.Model), http.StatusBadRequest)
		return
	}

	h.llm.SetModel(req.Model)
	h.log.Info("🔄 [API] Modell gewechselt", "model", req.Model)

	jsonResponse(w, map[string]interface{}{
		"message":       "Model changed",
		"current_model": req.Model,
	}, http.StatusOK)
}

// GetSubjects listet die Fächer mit Sprache und Stimme
func (h *Handler) GetSubjects(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]interface{}{
		"subjects": subjects.All(),
	}, http.StatusOK)
}
