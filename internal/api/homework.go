package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"tutionbuddy/internal/apperr"
	"tutionbuddy/internal/homework"
	"tutionbuddy/internal/models"
	"tutionbuddy/internal/subjects"
)

// === Hausaufgaben Endpoints ===

type hintRequest struct {
	SessionID       string `json:"session_id"`
	Question        string `json:"question" validate:"required"`
	QuestionType    string `json:"question_type" validate:"omitempty,oneof=multiple_choice short_answer essay math_problem"`
	Subject         string `json:"subject" validate:"required_without=SessionID"`
	HintLevel       int    `json:"hint_level"`
	StudentResponse string `json:"student_response"`
	RequestHint     bool   `json:"request_hint"`
	Narrate         bool   `json:"narrate"`
}

type hintResponse struct {
	*homework.TurnResult
	Success  bool   `json:"success"`
	AudioURL string `json:"audio_url,omitempty"`
}

// Hint verarbeitet einen Schritt: Hinweis, Bewertung oder Frage anzeigen
func (h *Handler) Hint(w http.ResponseWriter, r *http.Request) {
	var req hintRequest
	if err := h.decode(r, &req); err != nil {
		h.failure(w, r, err)
		return
	}

	res, err := h.engine.ProcessQuestion(r.Context(), homework.Turn{
		SessionID:       req.SessionID,
		Question:        req.Question,
		QuestionType:    models.QuestionType(req.QuestionType),
		Subject:         req.Subject,
		HintLevel:       req.HintLevel,
		StudentResponse: req.StudentResponse,
		RequestHint:     req.RequestHint,
	})
	if err != nil {
		h.failure(w, r, err)
		return
	}

	spoken := res.Message
	if res.Hint != nil {
		spoken = res.Hint.Text
	}
	jsonResponse(w, hintResponse{
		TurnResult: res,
		Success:    true,
		AudioURL:   h.narrate(r, req.Narrate, spoken, res.Subject),
	}, http.StatusOK)
}

type startSessionRequest struct {
	Subject         string `json:"subject" validate:"required"`
	Kind            string `json:"kind" validate:"omitempty,oneof=homework worksheet exam_prep standalone"`
	TaskDescription string `json:"task_description"`
	DocumentID      string `json:"document_id"`
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := h.decode(r, &req); err != nil {
		h.failure(w, r, err)
		return
	}

	start, err := h.engine.StartSession(r.Context(), homework.StartRequest{
		Subject:         req.Subject,
		Kind:            models.SessionKind(req.Kind),
		TaskDescription: req.TaskDescription,
		DocumentID:      req.DocumentID,
	})
	if err != nil {
		h.failure(w, r, err)
		return
	}
	jsonResponse(w, start, http.StatusCreated)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	hs, err := h.engine.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.failure(w, r, err)
		return
	}
	jsonResponse(w, hs, http.StatusOK)
}

func (h *Handler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.CompleteSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.failure(w, r, err)
		return
	}
	jsonResponse(w, res, http.StatusOK)
}

func (h *Handler) SubmitSession(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.SubmitSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.failure(w, r, err)
		return
	}
	jsonResponse(w, map[string]interface{}{
		"message": "Homework submitted!",
		"summary": summary,
	}, http.StatusOK)
}

// GetProgressReport liefert den Bericht über alle Fächer
func (h *Handler) GetProgressReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.ProgressReport(r.Context())
	if err != nil {
		h.failure(w, r, err)
		return
	}
	jsonResponse(w, report, http.StatusOK)
}

// GetSubjectProgress liefert Schwierigkeit und gespeicherten Fortschritt eines Fachs
func (h *Handler) GetSubjectProgress(w http.ResponseWriter, r *http.Request) {
	subject := subjects.Canonical(mux.Vars(r)["subject"])

	difficulty, err := h.engine.SubjectDifficulty(r.Context(), subject)
	if err != nil {
		h.failure(w, r, err)
		return
	}

	var progress *models.StudentProgress
	progress, err = h.store.GetProgress(r.Context(), subject)
	if err != nil && !apperr.IsNotFound(err) {
		h.failure(w, r, err)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"subject":          subject,
		"difficulty_level": difficulty,
		"progress":         progress,
	}, http.StatusOK)
}
