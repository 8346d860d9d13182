package homework

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"tutionbuddy/internal/apperr"
	"tutionbuddy/internal/models"
	"tutionbuddy/internal/subjects"
)

// Antworttypen eines Fragen-Schritts
const (
	TurnQuestion   = "question"
	TurnHint       = "hint"
	TurnEvaluation = "evaluation"
)

const (
	questionReadyMessage = "I'm ready to help you with this question! You can either try answering it or ask for a hint to get started."
	completedMessage     = "Great job completing your homework! Your summary is ready for review."
)

// StartRequest eröffnet eine Sitzung
type StartRequest struct {
	Subject         string
	Kind            models.SessionKind
	TaskDescription string
	DocumentID      string
}

// SessionStart ist die Antwort auf StartSession
type SessionStart struct {
	Session        *models.HomeworkSession `json:"session"`
	WelcomeMessage string                  `json:"welcome_message"`
}

// Turn ist ein Schritt zu einer Frage: anzeigen, Hinweis oder Antwort
type Turn struct {
	SessionID       string
	Question        string
	QuestionType    models.QuestionType
	Subject         string
	HintLevel       int
	StudentResponse string
	RequestHint     bool
}

// TurnResult beschreibt das Ergebnis eines Schritts
type TurnResult struct {
	Type       string      `json:"type"`
	SessionID  string      `json:"session_id"`
	QuestionID string      `json:"question_id"`
	Question   string      `json:"question"`
	Subject    string      `json:"subject"`
	Message    string      `json:"message"`
	Hint       *HintResult `json:"hint,omitempty"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
	HintsUsed  int         `json:"hints_used"`
	Attempts   int         `json:"attempts_count"`
}

func welcomeMessage(subject string, kind models.SessionKind) string {
	if kind == models.KindWorksheet {
		return fmt.Sprintf("Let's work through your %s worksheet together! I'll help you understand each question step by step. "+
			"Don't worry if something seems difficult. We'll figure it out together!", subject)
	}
	return fmt.Sprintf("Welcome to your %s %s session! I'm here to guide you through each question. "+
		"Remember, I'll help you think through the problems rather than giving direct answers. Let's start learning!",
		subject, kind.Label())
}

// StartSession eröffnet eine Sitzung. Die Schwierigkeit wird einmalig aus der
// Fachhistorie bestimmt und gilt für alle Fragen der Sitzung.
func (e *Engine) StartSession(ctx context.Context, req StartRequest) (*SessionStart, error) {
	subject := subjects.Canonical(req.Subject)
	if subject == "" {
		return nil, apperr.Field("subject", "is required")
	}
	kind := req.Kind
	if kind == "" {
		kind = models.KindHomework
	}
	if !kind.Valid() {
		return nil, apperr.Field("kind", "must be one of homework, worksheet, exam_prep, standalone")
	}
	if req.DocumentID != "" {
		if _, err := e.store.GetDocument(ctx, req.DocumentID); err != nil {
			return nil, err
		}
	}

	hs, err := e.createSession(ctx, subject, kind, strings.TrimSpace(req.TaskDescription), req.DocumentID)
	if err != nil {
		return nil, err
	}

	e.log.Info("📝 [Homework] Sitzung gestartet", "session_id", hs.ID, "subject", subject,
		"kind", kind, "difficulty", hs.DifficultyLevel)
	return &SessionStart{Session: hs, WelcomeMessage: welcomeMessage(subject, kind)}, nil
}

func (e *Engine) createSession(ctx context.Context, subject string, kind models.SessionKind, task, documentID string) (*models.HomeworkSession, error) {
	difficulty, err := e.SubjectDifficulty(ctx, subject)
	if err != nil {
		return nil, err
	}

	hs := &models.HomeworkSession{
		ID:              kind.IDPrefix() + e.newID(),
		Subject:         subject,
		Kind:            kind,
		TaskDescription: task,
		DocumentID:      documentID,
		StartedAt:       e.now(),
		Status:          models.StatusActive,
		DifficultyLevel: difficulty,
	}
	if err := e.store.CreateSession(ctx, hs); err != nil {
		return nil, err
	}
	return hs, nil
}

// resolveSession lädt die angegebene Sitzung oder die jüngste aktive
// Übungssitzung des Fachs; gibt es keine, wird eine angelegt.
func (e *Engine) resolveSession(ctx context.Context, sessionID, subject string) (*models.HomeworkSession, error) {
	if sessionID != "" {
		hs, err := e.store.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if hs.Status != models.StatusActive {
			return nil, apperr.Validation("session is "+string(hs.Status), map[string]string{
				"session_id": "session is no longer active",
			})
		}
		return hs, nil
	}

	subject = subjects.Canonical(subject)
	if subject == "" {
		return nil, apperr.Field("subject", "is required without session_id")
	}
	hs, err := e.store.LatestActiveSession(ctx, subject, models.KindStandalone)
	if err == nil {
		return hs, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}
	return e.createSession(ctx, subject, models.KindStandalone, "", "")
}

func (e *Engine) resolveQuestion(ctx context.Context, hs *models.HomeworkSession, text string, qType models.QuestionType) (*models.Question, error) {
	q, err := e.store.FindQuestion(ctx, hs.ID, text)
	if err == nil {
		return q, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	if !qType.Valid() {
		qType = models.QuestionShortAnswer
	}
	q = &models.Question{
		ID:              e.newID(),
		SessionID:       hs.ID,
		Text:            text,
		Type:            qType,
		DifficultyLevel: hs.DifficultyLevel,
		StartedAt:       e.now(),
	}
	if err := e.store.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ProcessQuestion führt einen Schritt aus. Ein Hinweiswunsch hat Vorrang vor
// einer mitgeschickten Antwort. Ohne beides wird die Frage nur angelegt.
func (e *Engine) ProcessQuestion(ctx context.Context, turn Turn) (*TurnResult, error) {
	text := strings.TrimSpace(turn.Question)
	if text == "" {
		return nil, apperr.Field("question", "is required")
	}

	hs, err := e.resolveSession(ctx, turn.SessionID, turn.Subject)
	if err != nil {
		return nil, err
	}
	q, err := e.resolveQuestion(ctx, hs, text, turn.QuestionType)
	if err != nil {
		return nil, err
	}

	result := &TurnResult{
		Type:       TurnQuestion,
		SessionID:  hs.ID,
		QuestionID: q.ID,
		Question:   q.Text,
		Subject:    hs.Subject,
		Message:    questionReadyMessage,
	}

	response := strings.TrimSpace(turn.StudentResponse)
	switch {
	case turn.RequestHint:
		err = e.giveHint(ctx, hs, q, turn.HintLevel, result)
	case response != "":
		err = e.evaluateAttempt(ctx, hs, q, response, result)
	}
	if err != nil {
		return nil, err
	}

	result.HintsUsed = q.HintsUsed
	result.Attempts = q.AttemptsCount

	if result.Type != TurnQuestion {
		if err := e.refreshSession(ctx, hs); err != nil {
			return nil, err
		}
		if _, err := e.RefreshProgress(ctx, hs.Subject); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (e *Engine) giveHint(ctx context.Context, hs *models.HomeworkSession, q *models.Question, requested int, result *TurnResult) error {
	hints, err := e.store.GetHints(ctx, q.ID)
	if err != nil {
		return err
	}
	last := 0
	for _, h := range hints {
		if h.Level > last {
			last = h.Level
		}
	}

	attempts, err := e.store.GetAttempts(ctx, q.ID)
	if err != nil {
		return err
	}
	prior := make([]string, 0, len(attempts))
	for _, a := range attempts {
		prior = append(prior, a.Response)
	}

	hint, err := e.RequestHint(ctx, HintRequest{
		Question:      q.Text,
		Subject:       hs.Subject,
		Level:         NextHintLevel(requested, last),
		Context:       e.questionContext(ctx, hs.Subject, hs.DocumentID),
		PriorAttempts: prior,
	})
	if err != nil {
		return err
	}

	if err := e.store.AddHint(ctx, &models.Hint{
		ID:         e.newID(),
		QuestionID: q.ID,
		Level:      hint.Level,
		Type:       hint.Type,
		Text:       hint.Text,
		Fallback:   hint.Fallback,
		CreatedAt:  e.now(),
	}); err != nil {
		return err
	}

	q.HintsUsed = len(hints) + 1
	if err := e.store.UpdateQuestion(ctx, q); err != nil {
		return err
	}

	e.log.Debug("💡 [Homework] Hinweis gegeben", "question_id", q.ID, "level", hint.Level, "fallback", hint.Fallback)
	result.Type = TurnHint
	result.Hint = hint
	result.Message = fmt.Sprintf("Here's hint #%d to help you think about this question.", hint.Level)
	return nil
}

func (e *Engine) evaluateAttempt(ctx context.Context, hs *models.HomeworkSession, q *models.Question, response string, result *TurnResult) error {
	eval, err := e.EvaluateResponse(ctx, EvalRequest{
		Question: q.Text,
		Answer:   response,
		Subject:  hs.Subject,
		Context:  e.questionContext(ctx, hs.Subject, hs.DocumentID),
	})
	if err != nil {
		return err
	}

	attempts, err := e.store.GetAttempts(ctx, q.ID)
	if err != nil {
		return err
	}
	now := e.now()
	number := len(attempts) + 1
	if err := e.store.AddAttempt(ctx, &models.Attempt{
		ID:         e.newID(),
		QuestionID: q.ID,
		Number:     number,
		Response:   response,
		Feedback:   eval.Feedback,
		Level:      eval.Level,
		CreatedAt:  now,
	}); err != nil {
		return err
	}

	q.AttemptsCount = number
	q.FinalAnswer = response
	if eval.Level.Terminal() {
		q.Evaluated = true
		q.IsCorrect = eval.Level == models.EvalCorrect
		q.EvaluationScore = Credit(eval.Level, e.cfg.Tuning)
		q.EndedAt = &now
	}
	if err := e.store.UpdateQuestion(ctx, q); err != nil {
		return err
	}

	e.log.Debug("✅ [Homework] Antwort bewertet", "question_id", q.ID, "attempt", number, "level", eval.Level)
	result.Type = TurnEvaluation
	result.Evaluation = eval
	result.Message = eval.Feedback
	return nil
}

// refreshSession berechnet die Zähler der Sitzung aus der Historie neu
func (e *Engine) refreshSession(ctx context.Context, hs *models.HomeworkSession) error {
	h, err := e.store.SessionHistory(ctx, hs.ID)
	if err != nil {
		return err
	}
	stats := StatsFromLevels(h.Levels, e.cfg.Tuning)

	hs.TotalQuestions = h.Questions
	hs.TotalHintsUsed = h.Hints
	hs.TotalAttempts = stats.Total
	hs.PerformanceScore = 0
	if stats.Total > 0 {
		hs.PerformanceScore = round2(stats.Correct / float64(stats.Total))
	}
	return e.store.UpdateSession(ctx, hs)
}

// GetSession lädt eine Sitzung samt Fragen, Versuchen und Hinweisen
func (e *Engine) GetSession(ctx context.Context, id string) (*models.HomeworkSession, error) {
	hs, err := e.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := e.store.GetQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		if questions[i].Attempts, err = e.store.GetAttempts(ctx, questions[i].ID); err != nil {
			return nil, err
		}
		if questions[i].Hints, err = e.store.GetHints(ctx, questions[i].ID); err != nil {
			return nil, err
		}
	}
	hs.Questions = questions
	return hs, nil
}

// CompleteResult ist die Antwort auf CompleteSession
type CompleteResult struct {
	Summary *models.SessionSummary `json:"summary"`
	Message string                 `json:"message"`
}

// CompleteSession schließt eine aktive Sitzung ab. Wiederholte Aufrufe
// ändern weder Zeitstempel noch Zähler.
func (e *Engine) CompleteSession(ctx context.Context, id string) (*CompleteResult, error) {
	hs, err := e.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if hs.Status == models.StatusActive {
		now := e.now()
		hs.Status = models.StatusCompleted
		hs.EndedAt = &now
		e.log.Info("🏁 [Homework] Sitzung abgeschlossen", "session_id", hs.ID, "subject", hs.Subject)
	}
	if err := e.refreshSession(ctx, hs); err != nil {
		return nil, err
	}
	if _, err := e.RefreshProgress(ctx, hs.Subject); err != nil {
		return nil, err
	}

	summary, err := e.summarize(ctx, hs)
	if err != nil {
		return nil, err
	}
	return &CompleteResult{Summary: summary, Message: completedMessage}, nil
}

// SubmitSession reicht eine Sitzung ein; aktive Sitzungen werden vorher abgeschlossen
func (e *Engine) SubmitSession(ctx context.Context, id string) (*models.SessionSummary, error) {
	hs, err := e.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if hs.Status == models.StatusActive {
		if _, err := e.CompleteSession(ctx, id); err != nil {
			return nil, err
		}
		if hs, err = e.store.GetSession(ctx, id); err != nil {
			return nil, err
		}
	}
	if hs.Status == models.StatusCompleted {
		hs.Status = models.StatusSubmitted
		if err := e.store.UpdateSession(ctx, hs); err != nil {
			return nil, errors.Wrap(err, "submit session")
		}
		e.log.Info("📬 [Homework] Sitzung eingereicht", "session_id", hs.ID)
	}
	return e.summarize(ctx, hs)
}

func (e *Engine) summarize(ctx context.Context, hs *models.HomeworkSession) (*models.SessionSummary, error) {
	h, err := e.store.SessionHistory(ctx, hs.ID)
	if err != nil {
		return nil, err
	}
	full, err := e.GetSession(ctx, hs.ID)
	if err != nil {
		return nil, err
	}

	end := e.now()
	if hs.EndedAt != nil {
		end = *hs.EndedAt
	}

	return &models.SessionSummary{
		SessionID:        hs.ID,
		Subject:          hs.Subject,
		Kind:             hs.Kind,
		Status:           hs.Status,
		TotalQuestions:   hs.TotalQuestions,
		TotalHintsUsed:   hs.TotalHintsUsed,
		TotalAttempts:    hs.TotalAttempts,
		CorrectAnswers:   h.Levels[models.EvalCorrect],
		PartiallyCorrect: h.Levels[models.EvalPartiallyCorrect],
		PerformanceScore: hs.PerformanceScore,
		Duration:         FormatDuration(end.Sub(hs.StartedAt)),
		PerformanceSummary: fmt.Sprintf("Completed %s %s with %d hints and %d attempts",
			hs.Subject, hs.Kind.Label(), hs.TotalHintsUsed, hs.TotalAttempts),
		ReadyForSubmission: hs.Status == models.StatusCompleted,
		Session:            *full,
	}, nil
}

// FormatDuration: "<m> minutes" oder "<h> hours <m> minutes"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	return fmt.Sprintf("%d hours %d minutes", minutes/60, minutes%60)
}
