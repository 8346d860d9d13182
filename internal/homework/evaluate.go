package homework

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"tutionbuddy/internal/apperr"
	"tutionbuddy/internal/config"
	"tutionbuddy/internal/llm"
	"tutionbuddy/internal/models"
	"tutionbuddy/internal/subjects"
)

// EvalRequest beschreibt eine zu bewertende Schülerantwort
type EvalRequest struct {
	Question string
	Answer   string
	Subject  string
	Context  string
}

// Evaluation ist das Urteil samt Rückmeldung
type Evaluation struct {
	Level     models.EvaluationLevel `json:"evaluation_level"`
	Feedback  string                 `json:"evaluation_text"`
	IsCorrect bool                   `json:"is_correct"`
	Subject   string                 `json:"subject"`
	Fallback  bool                   `json:"fallback,omitempty"`
}

var (
	verdictLine  = regexp.MustCompile(`(?im)^[^a-z\n]*evaluation[^a-z\n]*(.*)$`)
	negativeWord = regexp.MustCompile(`\b(incorrect|not correct|wrong)\b`)
	correctWord  = regexp.MustCompile(`\bcorrect\b`)
)

// ParseVerdict liest das Urteil aus der Modellantwort. Gibt es eine
// "Evaluation:"-Zeile, zählt nur diese. Nicht erkennbar ergibt incorrect.
func ParseVerdict(text string) models.EvaluationLevel {
	segment := text
	if m := verdictLine.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
		segment = m[1]
	}
	s := strings.ToLower(segment)

	switch {
	case strings.Contains(s, "partially") && strings.Contains(s, "correct"):
		return models.EvalPartiallyCorrect
	case negativeWord.MatchString(s):
		return models.EvalIncorrect
	case correctWord.MatchString(s):
		return models.EvalCorrect
	default:
		return models.EvalIncorrect
	}
}

// Credit: 1 für correct, PartialCredit für partially_correct, sonst 0
func Credit(level models.EvaluationLevel, t config.Tuning) float64 {
	switch level {
	case models.EvalCorrect:
		return 1
	case models.EvalPartiallyCorrect:
		return t.PartialCredit
	default:
		return 0
	}
}

// EvaluationPrompt baut den Bewertungsprompt mit festen Abschnitten
func EvaluationPrompt(req EvalRequest) string {
	profile := subjects.Lookup(req.Subject)
	lessonContext := strings.TrimSpace(req.Context)
	if lessonContext == "" {
		lessonContext = "None"
	}

	return fmt.Sprintf(`Subject: %s
Question: %s
Student's answer: %s
Lesson context: %s

RULES:
- This is for a 5th grade student (age 10-11)
- Give encouraging, constructive feedback
- Focus on the thinking process, not just correctness
- %s (the section headings stay in English)

Decide whether the answer is correct, partially correct or incorrect and reply in exactly this format:
**Evaluation:** [correct/partially correct/incorrect]
**What you did well:** [positive feedback]
**Areas to improve:** [constructive guidance]
**Encouragement:** [motivational message]
**Next steps:** [learning suggestions]`,
		profile.Name, req.Question, req.Answer, lessonContext, answerLanguage(profile))
}

// EvaluateResponse bewertet eine Antwort. Bei Modellfehlern ist das Urteil
// unknown mit ermutigendem Ersatztext; ein Fehler kommt nur bei leerer Eingabe.
func (e *Engine) EvaluateResponse(ctx context.Context, req EvalRequest) (*Evaluation, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, apperr.Field("question", "is required")
	}
	if strings.TrimSpace(req.Answer) == "" {
		return nil, apperr.Field("student_response", "is required")
	}

	text, err := llm.Complete(ctx, e.provider, EvaluationPrompt(req), &llm.GenerateOptions{
		Temperature: e.cfg.EvaluationTemperature,
		MaxTokens:   e.cfg.EvaluationMaxTokens,
	})
	if err != nil {
		e.log.Warn("⚠️ [Homework] Bewertung fehlgeschlagen, verwende Ersatz", "subject", req.Subject, "error", err)
		return &Evaluation{
			Level:    models.EvalUnknown,
			Feedback: e.fallback.Evaluation(req.Subject),
			Subject:  req.Subject,
			Fallback: true,
		}, nil
	}

	level := ParseVerdict(text)
	return &Evaluation{
		Level:     level,
		Feedback:  text,
		IsCorrect: level == models.EvalCorrect,
		Subject:   req.Subject,
	}, nil
}
