package models

import (
	"encoding/json"
	"time"
)

// Document repräsentiert ein hochgeladenes Unterrichtsdokument
type Document struct {
	ID               string    `json:"id" db:"id"`
	Filename         string    `json:"filename" db:"filename"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	Subject          string    `json:"subject" db:"subject"`
	LessonTitle      string    `json:"lesson_title" db:"lesson_title"`
	ChapterNumber    string    `json:"chapter_number,omitempty" db:"chapter_number"`
	TotalPages       int       `json:"total_pages" db:"total_pages"`
	UploadedAt       time.Time `json:"uploaded_at" db:"uploaded_at"`
	Pages            []Page    `json:"pages,omitempty" db:"-"`
}

// Page ist ein zusammenhängender Textabschnitt eines Dokuments
type Page struct {
	ID         int64     `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	PageNumber int       `json:"page_number" db:"page_number"`
	Content    string    `json:"content" db:"content"`
	WordCount  int       `json:"word_count" db:"word_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// SessionKind: Art einer Hausaufgaben-Sitzung
type SessionKind string

const (
	KindHomework   SessionKind = "homework"
	KindWorksheet  SessionKind = "worksheet"
	KindExamPrep   SessionKind = "exam_prep"
	KindStandalone SessionKind = "standalone"
)

// SessionKinds listet alle Sitzungsarten in Anzeigereihenfolge
var SessionKinds = []SessionKind{KindHomework, KindWorksheet, KindExamPrep, KindStandalone}

// Valid prüft, ob die Sitzungsart bekannt ist
func (k SessionKind) Valid() bool {
	for _, known := range SessionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IDPrefix liefert das Präfix für Sitzungs-IDs (hw_, ws_, ex_, st_)
func (k SessionKind) IDPrefix() string {
	switch k {
	case KindWorksheet:
		return "ws_"
	case KindExamPrep:
		return "ex_"
	case KindStandalone:
		return "st_"
	default:
		return "hw_"
	}
}

// Label für Begrüßungstexte
func (k SessionKind) Label() string {
	switch k {
	case KindWorksheet:
		return "worksheet"
	case KindExamPrep:
		return "exam preparation"
	case KindStandalone:
		return "practice"
	default:
		return "homework"
	}
}

// SessionStatus: active → completed → submitted
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusSubmitted SessionStatus = "submitted"
)

// Difficulty ist die adaptive Schwierigkeitsstufe pro Fach
type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// QuestionType klassifiziert eine Hausaufgabenfrage
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionEssay          QuestionType = "essay"
	QuestionMath           QuestionType = "math_problem"
)

// Valid prüft, ob der Fragetyp bekannt ist
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionShortAnswer, QuestionEssay, QuestionMath:
		return true
	}
	return false
}

// EvaluationLevel ist das Urteil über eine Schülerantwort
type EvaluationLevel string

const (
	EvalCorrect          EvaluationLevel = "correct"
	EvalPartiallyCorrect EvaluationLevel = "partially_correct"
	EvalIncorrect        EvaluationLevel = "incorrect"
	// EvalUnknown: Modellaufruf fehlgeschlagen, kein Urteil
	EvalUnknown EvaluationLevel = "unknown"
)

// Terminal ist true für die drei echten Urteile
func (l EvaluationLevel) Terminal() bool {
	return l == EvalCorrect || l == EvalPartiallyCorrect || l == EvalIncorrect
}

// HintType gehört fest zu einer Hinweisstufe 1-5
type HintType string

const (
	HintGentleNudge         HintType = "gentle_nudge"
	HintConceptual          HintType = "conceptual_hint"
	HintStepGuidance        HintType = "step_guidance"
	HintDetailedHelp        HintType = "detailed_help"
	HintCompleteExplanation HintType = "complete_explanation"
)

// MaxHintLevel ist die letzte Hinweisstufe
const MaxHintLevel = 5

// HintTypeFor liefert den Hinweistyp zur Stufe (außerhalb 1-5 wird geklemmt)
func HintTypeFor(level int) HintType {
	switch {
	case level <= 1:
		return HintGentleNudge
	case level == 2:
		return HintConceptual
	case level == 3:
		return HintStepGuidance
	case level == 4:
		return HintDetailedHelp
	default:
		return HintCompleteExplanation
	}
}

// HomeworkSession ist ein begrenztes Arbeitsfenster zu einem Fach
type HomeworkSession struct {
	ID               string        `json:"session_id" db:"id"`
	Subject          string        `json:"subject" db:"subject"`
	Kind             SessionKind   `json:"kind" db:"kind"`
	TaskDescription  string        `json:"task_description" db:"task_description"`
	DocumentID       string        `json:"document_id,omitempty" db:"document_id"`
	StartedAt        time.Time     `json:"started_at" db:"started_at"`
	EndedAt          *time.Time    `json:"ended_at,omitempty" db:"ended_at"`
	Status           SessionStatus `json:"status" db:"status"`
	DifficultyLevel  Difficulty    `json:"difficulty_level" db:"difficulty_level"`
	TotalQuestions   int           `json:"total_questions" db:"total_questions"`
	TotalHintsUsed   int           `json:"total_hints_used" db:"total_hints_used"`
	TotalAttempts    int           `json:"total_attempts" db:"total_attempts"`
	PerformanceScore float64       `json:"performance_score" db:"performance_score"`
	Questions        []Question    `json:"questions,omitempty" db:"-"`
}

// QuestionState wird aus Hinweisen und Versuchen abgeleitet
type QuestionState string

const (
	QuestionUnstarted  QuestionState = "unstarted"
	QuestionInProgress QuestionState = "in_progress"
	QuestionEvaluated  QuestionState = "evaluated"
)

// Question innerhalb einer Sitzung
type Question struct {
	ID              string       `json:"id" db:"id"`
	SessionID       string       `json:"session_id" db:"session_id"`
	Text            string       `json:"text" db:"text"`
	Type            QuestionType `json:"question_type" db:"question_type"`
	DifficultyLevel Difficulty   `json:"difficulty_level" db:"difficulty_level"`
	HintsUsed       int          `json:"hints_used" db:"hints_used"`
	AttemptsCount   int          `json:"attempts_count" db:"attempts_count"`
	FinalAnswer     string       `json:"final_answer,omitempty" db:"final_answer"`
	IsCorrect       bool         `json:"is_correct" db:"is_correct"`
	EvaluationScore float64      `json:"evaluation_score" db:"evaluation_score"`
	Evaluated       bool         `json:"-" db:"evaluated"`
	StartedAt       time.Time    `json:"started_at" db:"started_at"`
	EndedAt         *time.Time   `json:"ended_at,omitempty" db:"ended_at"`
	Attempts        []Attempt    `json:"attempts,omitempty" db:"-"`
	Hints           []Hint       `json:"hints,omitempty" db:"-"`
}

// State leitet unstarted / in_progress / evaluated ab
func (q *Question) State() QuestionState {
	if q.Evaluated {
		return QuestionEvaluated
	}
	if q.HintsUsed > 0 || q.AttemptsCount > 0 {
		return QuestionInProgress
	}
	return QuestionUnstarted
}

// MarshalJSON gibt den abgeleiteten Zustand als "state" mit aus
func (q Question) MarshalJSON() ([]byte, error) {
	type plain Question
	return json.Marshal(struct {
		plain
		State QuestionState `json:"state"`
	}{plain(q), q.State()})
}

// Attempt ist eine unveränderliche Schülerantwort
type Attempt struct {
	ID         string          `json:"id" db:"id"`
	QuestionID string          `json:"question_id" db:"question_id"`
	Number     int             `json:"attempt_number" db:"attempt_number"`
	Response   string          `json:"response" db:"response"`
	Feedback   string          `json:"feedback" db:"feedback"`
	Level      EvaluationLevel `json:"evaluation_level" db:"evaluation_level"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Hint ist ein unveränderlicher, generierter Hinweis
type Hint struct {
	ID         string    `json:"id" db:"id"`
	QuestionID string    `json:"question_id" db:"question_id"`
	Level      int       `json:"level" db:"level"`
	Type       HintType  `json:"hint_type" db:"hint_type"`
	Text       string    `json:"text" db:"text"`
	Fallback   bool      `json:"fallback" db:"fallback"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// StudentProgress ist der aus der Historie neu berechnete Stand pro Fach
type StudentProgress struct {
	Subject                 string     `json:"subject" db:"subject"`
	TotalSessions           int        `json:"total_sessions" db:"total_sessions"`
	TotalQuestions          int        `json:"total_questions" db:"total_questions"`
	CorrectAnswers          float64    `json:"correct_answers" db:"correct_answers"`
	PartiallyCorrect        int        `json:"partially_correct" db:"partially_correct"`
	TotalAttempts           int        `json:"total_attempts" db:"total_attempts"`
	TotalHintsUsed          int        `json:"total_hints_used" db:"total_hints_used"`
	AverageHintsPerQuestion float64    `json:"average_hints_per_question" db:"average_hints_per_question"`
	SuccessRate             float64    `json:"success_rate" db:"success_rate"`
	DifficultyLevel         Difficulty `json:"difficulty_level" db:"difficulty_level"`
	LastUpdated             time.Time  `json:"last_updated" db:"last_updated"`
}

// PerformanceStats: Teilpunkte machen Correct gebrochen
type PerformanceStats struct {
	Correct float64 `json:"correct"`
	Total   int     `json:"total"`
}

// History fasst die Ereignisse einer Sitzung oder eines Fachs zusammen
type History struct {
	Sessions  int                     `json:"sessions"`
	Questions int                     `json:"questions"`
	Hints     int                     `json:"hints"`
	Levels    map[EvaluationLevel]int `json:"levels"`
}

// Attempts zählt alle Versuche, auch die ohne Urteil
func (h History) Attempts() int {
	n := 0
	for _, c := range h.Levels {
		n += c
	}
	return n
}

// SessionSummary wird beim Abschließen einer Sitzung erzeugt
type SessionSummary struct {
	SessionID          string          `json:"session_id"`
	Subject            string          `json:"subject"`
	Kind               SessionKind     `json:"kind"`
	Status             SessionStatus   `json:"status"`
	TotalQuestions     int             `json:"total_questions"`
	TotalHintsUsed     int             `json:"total_hints_used"`
	TotalAttempts      int             `json:"total_attempts"`
	CorrectAnswers     int             `json:"correct_answers"`
	PartiallyCorrect   int             `json:"partially_correct"`
	PerformanceScore   float64         `json:"performance_score"`
	Duration           string          `json:"session_duration"`
	PerformanceSummary string          `json:"performance_summary"`
	ReadyForSubmission bool            `json:"ready_for_submission"`
	Session            HomeworkSession `json:"session"`
}

// SubjectPerformance ist eine Zeile im Fortschrittsbericht
type SubjectPerformance struct {
	SuccessRate    float64 `json:"success_rate"`
	TotalAttempts  int     `json:"total_attempts"`
	CorrectAnswers float64 `json:"correct_answers"`
}

// HintUsage: Verteilung der Hinweisstufen pro Fach
type HintUsage struct {
	TotalHintsUsed int         `json:"total_hints_used"`
	Distribution   map[int]int `json:"hint_distribution"`
}

// RecentSession für die Aktivitätsliste im Bericht
type RecentSession struct {
	SessionID string        `json:"session_id"`
	Subject   string        `json:"subject"`
	Kind      SessionKind   `json:"type"`
	Date      string        `json:"date"`
	Status    SessionStatus `json:"status"`
}

// ProgressReport für Eltern und Lehrkräfte
type ProgressReport struct {
	SessionsByKind     map[SessionKind]int           `json:"sessions_by_kind"`
	SubjectPerformance map[string]SubjectPerformance `json:"subject_performance"`
	HintUsage          map[string]HintUsage          `json:"hint_usage_analysis"`
	RecentActivity     []RecentSession               `json:"recent_activity"`
	GeneratedAt        time.Time                     `json:"generated_at"`
}

// QuizQuestion ist eine generierte Quizfrage
type QuizQuestion struct {
	Question string   `json:"question"`
	Type     string   `json:"type,omitempty"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer"`
	Page     int      `json:"page,omitempty"`
}
