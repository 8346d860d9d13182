package homework

import (
	"context"
	"fmt"
	"strings"

	"tutionbuddy/internal/apperr"
	"tutionbuddy/internal/llm"
	"tutionbuddy/internal/models"
	"tutionbuddy/internal/subjects"
)

// HintRequest beschreibt eine Hinweisanfrage
type HintRequest struct {
	Question      string
	Subject       string
	Level         int
	Context       string
	PriorAttempts []string
}

// HintResult ist der erzeugte Hinweis
type HintResult struct {
	Text           string          `json:"hint_text"`
	Level          int             `json:"hint_level"`
	Type           models.HintType `json:"hint_type"`
	Subject        string          `json:"subject"`
	CanRequestNext bool            `json:"can_request_next"`
	IsFinalHint    bool            `json:"is_final_hint"`
	Fallback       bool            `json:"fallback,omitempty"`
}

// ClampLevel begrenzt eine Hinweisstufe auf 1-5
func ClampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > models.MaxHintLevel {
		return models.MaxHintLevel
	}
	return level
}

// NextHintLevel: ohne Wunschstufe die nächste Stufe, sonst die Wunschstufe,
// aber nie unter der zuletzt gegebenen
func NextHintLevel(requested, last int) int {
	if requested <= 0 {
		return ClampLevel(last + 1)
	}
	if requested < last {
		requested = last
	}
	return ClampLevel(requested)
}

var levelInstructions = [models.MaxHintLevel]string{
	`Give a very gentle hint that gets the student thinking. Point them in the right direction
without naming the concept and without giving away the answer. Ask one guiding question.
Example: "Think about what this question is really asking. What key information do you see?"`,

	`Give a conceptual hint: name the concept or method this question needs and explain WHAT kind
of problem it is, but do not solve it.
Example: "This is a [type of problem]. Remember when we learned about [concept]?"`,

	`Break the problem into logical steps, but do not work out any step. Show only the structure.
Example: "Step 1: [what to do first] Step 2: [what to do next] Try the first step and see what you get!"`,

	`Give detailed guidance: work out the first step concretely and leave the remaining steps
for the student.
Example: "Let me show you how to start: For Step 1, you need to [specific guidance]. Now you try the rest!"`,

	`Give a complete step-by-step explanation with the reasoning for every step. Explain WHY each
step is needed and how it connects to the concept, then invite the student to try a similar problem.`,
}

const hintSystemPrompt = "You are a patient tutor for a 5th grade student (age 10-11). " +
	"Guide the student's thinking and encourage independent problem-solving. " +
	"Use short sentences and simple words."

// HintPrompt baut den stufenabhängigen Prompt
func HintPrompt(req HintRequest) string {
	level := ClampLevel(req.Level)
	profile := subjects.Lookup(req.Subject)

	prior := "None"
	if len(req.PriorAttempts) > 0 {
		prior = strings.Join(req.PriorAttempts, " | ")
	}
	lessonContext := strings.TrimSpace(req.Context)
	if lessonContext == "" {
		lessonContext = "None"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", profile.Name)
	fmt.Fprintf(&b, "Question: %s\n", req.Question)
	fmt.Fprintf(&b, "Lesson context: %s\n", lessonContext)
	fmt.Fprintf(&b, "Hint level: %d (%s)\n", level, models.HintTypeFor(level))
	fmt.Fprintf(&b, "Previous attempts: %s\n\n", prior)

	b.WriteString("RULES:\n")
	b.WriteString("- This is for a 5th grade student (age 10-11)\n")
	if level < models.MaxHintLevel {
		b.WriteString("- DO NOT give the final answer\n")
	}
	b.WriteString("- Use age-appropriate language\n")
	b.WriteString("- " + answerLanguage(profile) + "\n\n")
	b.WriteString(levelInstructions[level-1])
	return b.String()
}

func answerLanguage(p subjects.Profile) string {
	if p.Native() {
		return fmt.Sprintf("Write your whole response ONLY in %s", p.LanguageName)
	}
	return "Write your whole response in English"
}

// RequestHint erzeugt einen Hinweis. Modellfehler und leere Antworten
// liefern einen Ersatzhinweis mit Fallback=true, nie einen Fehler.
func (e *Engine) RequestHint(ctx context.Context, req HintRequest) (*HintResult, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, apperr.Field("question", "is required")
	}
	level := ClampLevel(req.Level)
	req.Level = level

	result := &HintResult{
		Level:          level,
		Type:           models.HintTypeFor(level),
		Subject:        req.Subject,
		CanRequestNext: level < models.MaxHintLevel,
		IsFinalHint:    level == models.MaxHintLevel,
	}

	text, err := llm.Complete(ctx, e.provider, HintPrompt(req), &llm.GenerateOptions{
		Temperature: e.cfg.HintTemperature,
		MaxTokens:   e.cfg.HintMaxTokens,
		System:      hintSystemPrompt,
	})
	if err != nil {
		e.log.Warn("⚠️ [Homework] Hinweis vom Modell fehlgeschlagen, verwende Ersatz",
			"subject", req.Subject, "level", level, "error", err)
		result.Text = e.fallback.Hint(req.Subject, level, req.Question)
		result.Fallback = true
		return result, nil
	}

	result.Text = text
	return result, nil
}
