package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"tutionbuddy/internal/config"
	"tutionbuddy/internal/lesson"
	"tutionbuddy/internal/logger"
	"tutionbuddy/internal/models"
	"tutionbuddy/internal/subjects"
)

// ErrNoPages: das Dokument hat keine gespeicherten Seiten
var ErrNoPages = errors.New("no content found for this document")

// Tutor verwaltet die didaktische KI-Logik für Fragen, Quiz und Zusammenfassungen
type Tutor struct {
	provider Provider
	cfg      *config.Config
	log      *logger.Logger
}

// NewTutor erstellt einen neuen Tutor
func NewTutor(provider Provider, cfg *config.Config, log *logger.Logger) *Tutor {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Tutor{provider: provider, cfg: cfg, log: log}
}

// Provider liefert das aktive Backend
func (t *Tutor) Provider() Provider {
	return t.provider
}

// Answer ist die Antwort auf eine Schülerfrage zu einem Dokument
type Answer struct {
	Answer        string `json:"answer"`
	DocumentTitle string `json:"document_title"`
	Subject       string `json:"subject"`
	TotalPages    int    `json:"total_pages"`
}

const askSystemPrompt = `You are an AI tutor helping 5th grade students (age 10-11) learn from their CBSE textbooks.
Give detailed, educational answers that help students understand concepts thoroughly.

Guidelines:
- Use simple, clear language appropriate for 5th graders
- Use the lesson content as your main source and mention the page numbers where information is found
- Break complex ideas into small steps and connect them to real-life examples
- Explain WHY things work the way they do, not just WHAT they are
- Use an encouraging and patient tone
- If the question cannot be answered from the lesson, say so clearly and suggest what the lesson is about
- For poetry or literature, explain themes, meanings and the poet's message`

const mathFormat = `This is a Maths question. Use this structure, never paragraphs:

**Question:** <the question>

**Solution:**
**Step 1:** <what to do and why>
**Step 2:** <what to do and why>
(continue with numbered steps and show every calculation)

**Answer:** <the final answer>

**Explanation:** <why this method works>`

// languageRule erzwingt die Antwortsprache des Fachs
func languageRule(p subjects.Profile) string {
	if p.Native() {
		return fmt.Sprintf("LANGUAGE: The subject is %s. Respond ONLY in %s.", p.Name, p.LanguageName)
	}
	return fmt.Sprintf("LANGUAGE: The subject is %s. Respond ONLY in English.", p.Name)
}

// AskPrompt baut den Prompt für eine Frage zum Dokument
func (t *Tutor) AskPrompt(doc *models.Document, pages []models.Page, question string) (string, *GenerateOptions) {
	profile := subjects.Lookup(doc.Subject)
	content := lesson.Truncate(lesson.BuildContext(pages), t.cfg.ContextCharBudget)

	var b strings.Builder
	fmt.Fprintf(&b, "Based on the following lesson content, give a detailed answer to the student's question.\n\n")
	fmt.Fprintf(&b, "LESSON: %s\nSUBJECT: %s\n\n", doc.LessonTitle, profile.Name)
	fmt.Fprintf(&b, "CONTENT:\n%s\n\n", content)
	fmt.Fprintf(&b, "STUDENT'S QUESTION: %s\n\n", question)
	b.WriteString(languageRule(profile))
	if profile.Structured {
		b.WriteString("\n\n" + mathFormat)
	}

	return b.String(), &GenerateOptions{
		Temperature: t.cfg.AnswerTemperature,
		MaxTokens:   t.cfg.AnswerMaxTokens,
		System:      askSystemPrompt,
	}
}

// AskQuestion beantwortet eine Frage anhand aller Seiten des Dokuments
func (t *Tutor) AskQuestion(ctx context.Context, doc *models.Document, pages []models.Page, question string) (*Answer, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	prompt, opts := t.AskPrompt(doc, pages, question)
	t.log.Info("💬 [Tutor] Frage an Modell", "document_id", doc.ID, "subject", doc.Subject, "prompt_chars", len(prompt))

	text, err := Complete(ctx, t.provider, prompt, opts)
	if err != nil {
		return nil, errors.Wrap(err, "ask")
	}

	t.log.Info("✓ [Tutor] Antwort erhalten", "document_id", doc.ID, "chars", len(text))
	return &Answer{
		Answer:        MakeKidFriendly(text),
		DocumentTitle: doc.LessonTitle,
		Subject:       doc.Subject,
		TotalPages:    len(pages),
	}, nil
}

// AskStream liefert die Antwort in Teilstücken (ohne Emoji-Umschreibung)
func (t *Tutor) AskStream(ctx context.Context, doc *models.Document, pages []models.Page, question string) (<-chan StreamChunk, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	prompt, opts := t.AskPrompt(doc, pages, question)
	return t.provider.GenerateStream(ctx, prompt, opts)
}

// Quiz

var (
	quizHeader = regexp.MustCompile(`(?im)^\s*\**\s*Question\s*\d+\s*\**\s*[:.)]\s*(.+)$`)
	quizField  = regexp.MustCompile(`(?im)^\s*\**\s*(Type|Answer|Page|Options)\s*\**\s*:\s*\**\s*(.+)$`)
)

// GenerateQuiz erstellt n Quizfragen zum Dokument
func (t *Tutor) GenerateQuiz(ctx context.Context, doc *models.Document, pages []models.Page, n int) ([]models.QuizQuestion, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	if n <= 0 {
		n = 5
	}
	profile := subjects.Lookup(doc.Subject)

	prompt := fmt.Sprintf(`Based on this lesson content, create %d quiz questions for 5th grade students.

LESSON: %s
SUBJECT: %s

CONTENT:
%s

%s

Format every question exactly like this:

Question 1: [question text]
Type: [Multiple Choice/True False/Short Answer]
Options: [choices separated by " | ", only for Multiple Choice]
Answer: [correct answer]
Page: [page number where the answer is found]`,
		n, doc.LessonTitle, profile.Name,
		lesson.Truncate(lesson.BuildContext(pages), t.cfg.ContextCharBudget),
		languageRule(profile))

	text, err := Complete(ctx, t.provider, prompt, &GenerateOptions{
		Temperature: 0.5,
		MaxTokens:   1500,
		System: "You are an AI tutor creating quiz questions for 5th grade students (age 10-11). " +
			"Mix multiple choice, true/false and short answer questions about the key ideas of the lesson.",
	})
	if err != nil {
		return nil, errors.Wrap(err, "quiz")
	}

	questions := ParseQuiz(text)
	if len(questions) == 0 {
		t.log.Warn("⚠️ [Tutor] Quiz nicht lesbar", "document_id", doc.ID, "raw", text[:min(300, len(text))])
		return nil, errors.New("quiz: keine Fragen in der Antwort")
	}
	if len(questions) > n {
		questions = questions[:n]
	}
	return questions, nil
}

// ParseQuiz liest das "Question N: / Type: / Answer: / Page:" Format
func ParseQuiz(text string) []models.QuizQuestion {
	locs := quizHeader.FindAllStringSubmatchIndex(text, -1)
	questions := make([]models.QuizQuestion, 0, len(locs))

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		q := models.QuizQuestion{Question: cleanField(text[loc[2]:loc[3]])}

		for _, m := range quizField.FindAllStringSubmatch(text[loc[1]:end], -1) {
			value := cleanField(m[2])
			switch strings.ToLower(m[1]) {
			case "type":
				q.Type = value
			case "answer":
				q.Answer = value
			case "page":
				q.Page, _ = strconv.Atoi(strings.Trim(value, "[] "))
			case "options":
				for _, opt := range strings.Split(value, "|") {
					if opt = strings.TrimSpace(opt); opt != "" {
						q.Options = append(q.Options, opt)
					}
				}
			}
		}
		if q.Question != "" {
			questions = append(questions, q)
		}
	}
	return questions
}

func cleanField(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*"))
}

// Summarize fasst das Dokument kindgerecht zusammen; der Kontext wird auf summary_char_budget gekürzt
func (t *Tutor) Summarize(ctx context.Context, doc *models.Document, pages []models.Page) (string, error) {
	if len(pages) == 0 {
		return "", ErrNoPages
	}
	profile := subjects.Lookup(doc.Subject)
	content := lesson.Truncate(lesson.BuildContext(pages), t.cfg.SummaryCharBudget)

	prompt := fmt.Sprintf(`Summarize this lesson for a 5th grade student (age 10-11).

LESSON: %s
SUBJECT: %s

CONTENT:
%s

%s

Write a short introduction, then the 5 most important ideas as bullet points with page numbers,
then one sentence the student should remember.`, doc.LessonTitle, profile.Name, content, languageRule(profile))

	text, err := Complete(ctx, t.provider, prompt, &GenerateOptions{
		Temperature: 0.3,
		MaxTokens:   1200,
		System:      "You are a patient primary school tutor who writes clear, friendly lesson summaries.",
	})
	if err != nil {
		return "", errors.Wrap(err, "summary")
	}
	return MakeKidFriendly(text), nil
}

// Kindgerechte Darstellung

var (
	h3Pattern     = regexp.MustCompile(`(?m)^###\s*(.+)`)
	h2Pattern     = regexp.MustCompile(`(?m)^##\s*(.+)`)
	h1Pattern     = regexp.MustCompile(`(?m)^#\s*(.+)`)
	boldPattern   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern = regexp.MustCompile(`\*([^*\n]+)\*`)
	starBullet    = regexp.MustCompile(`(?m)^\s*\*\s+`)
	dashBullet    = regexp.MustCompile(`(?m)^\s*-\s+`)
	numberedItem  = regexp.MustCompile(`(?m)^\s*(10|[1-9])\.\s`)
)

var numberEmojis = map[string]string{
	"1": "1️⃣", "2": "2️⃣", "3": "3️⃣", "4": "4️⃣", "5": "5️⃣",
	"6": "6️⃣", "7": "7️⃣", "8": "8️⃣", "9": "9️⃣", "10": "🔟",
}

var wordEmojis = strings.NewReplacer(
	"continents", "🌍 continents",
	"oceans", "🌊 oceans",
	"Earth", "🌎 Earth",
	"planet", "🪐 planet",
	"latitude", "📏 latitude",
	"longitude", "📐 longitude",
	"कविता", "📝 कविता",
	"कहानी", "📚 कहानी",
	"कवि", "✍️ कवि",
	"కవిత", "📝 కవిత",
	"కథ", "📚 కథ",
)

// MakeKidFriendly ersetzt Markdown durch Emojis
func MakeKidFriendly(text string) string {
	text = h3Pattern.ReplaceAllString(text, "🌟 $1")
	text = h2Pattern.ReplaceAllString(text, "🎯 $1")
	text = h1Pattern.ReplaceAllString(text, "📚 $1")
	text = boldPattern.ReplaceAllString(text, "✨ $1 ✨")
	text = starBullet.ReplaceAllString(text, "🔸 ")
	text = italicPattern.ReplaceAllString(text, "💫 $1")
	text = dashBullet.ReplaceAllString(text, "🔹 ")
	text = numberedItem.ReplaceAllStringFunc(text, func(m string) string {
		n := strings.TrimSuffix(strings.TrimSpace(m), ".")
		return numberEmojis[n] + " "
	})
	return wordEmojis.Replace(text)
}
