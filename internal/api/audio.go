package api

import "net/http"

type audioRequest struct {
	Text    string `json:"text" validate:"required"`
	Subject string `json:"subject"`
}

// GenerateAudio vertont einen Text. Fehlschläge sind kein HTTP-Fehler,
// sondern success=false.
func (h *Handler) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	var req audioRequest
	if err := h.decode(r, &req); err != nil {
		h.failure(w, r, err)
		return
	}

	url := h.narrate(r, true, req.Text, req.Subject)
	if url == "" {
		jsonResponse(w, map[string]interface{}{
			"success": false,
			"message": "Audio is not available right now.",
		}, http.StatusOK)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"success":   true,
		"audio_url": url,
	}, http.StatusOK)
}
