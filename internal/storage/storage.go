package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"tutionbuddy/internal/apperr"
	"tutionbuddy/internal/models"

	_ "modernc.org/sqlite"
)

// Storage definiert das Interface für Datenpersistenz.
// Lesen-Ändern-Schreiben ohne Sperren: bei parallelen Anfragen auf dieselbe
// Sitzung gewinnt der letzte Schreiber.
type Storage interface {
	// Dokumente
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, subject string) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// Seiten
	GetPages(ctx context.Context, documentID string) ([]models.Page, error)
	GetPage(ctx context.Context, documentID string, pageNumber int) (*models.Page, error)

	// Sitzungen
	CreateSession(ctx context.Context, s *models.HomeworkSession) error
	GetSession(ctx context.Context, id string) (*models.HomeworkSession, error)
	LatestActiveSession(ctx context.Context, subject string, kind models.SessionKind) (*models.HomeworkSession, error)
	UpdateSession(ctx context.Context, s *models.HomeworkSession) error
	ListSessions(ctx context.Context) ([]models.HomeworkSession, error)

	// Fragen
	CreateQuestion(ctx context.Context, q *models.Question) error
	FindQuestion(ctx context.Context, sessionID, text string) (*models.Question, error)
	UpdateQuestion(ctx context.Context, q *models.Question) error
	GetQuestions(ctx context.Context, sessionID string) ([]models.Question, error)

	// Versuche und Hinweise (nur anhängen)
	AddAttempt(ctx context.Context, a *models.Attempt) error
	GetAttempts(ctx context.Context, questionID string) ([]models.Attempt, error)
	AddHint(ctx context.Context, h *models.Hint) error
	GetHints(ctx context.Context, questionID string) ([]models.Hint, error)

	// Aggregate aus der Historie
	SessionHistory(ctx context.Context, sessionID string) (*models.History, error)
	SubjectHistory(ctx context.Context, subject string) (*models.History, error)
	AttemptLevelsBySubject(ctx context.Context) (map[string]map[models.EvaluationLevel]int, error)
	HintLevelsBySubject(ctx context.Context) (map[string]map[int]int, error)

	// Fortschritt (Cache)
	SaveProgress(ctx context.Context, p *models.StudentProgress) error
	GetProgress(ctx context.Context, subject string) (*models.StudentProgress, error)

	Close() error
}

// SQLiteStorage implementiert Storage mit SQLite
type SQLiteStorage struct {
	db *sqlx.DB
}

// NewSQLiteStorage erstellt eine neue SQLite-Storage-Instanz
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	sqlDB, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "sqlite öffnen")
	}
	// Eine Verbindung: SQLite serialisiert Schreiber ohnehin
	sqlDB.SetMaxOpenConns(1)

	storage := &SQLiteStorage{db: sqlx.NewDb(sqlDB, "sqlite3")}
	if err := storage.initSchema(); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "schema anlegen")
	}

	return storage, nil
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		original_filename TEXT NOT NULL,
		subject TEXT NOT NULL,
		lesson_title TEXT NOT NULL,
		chapter_number TEXT NOT NULL DEFAULT '',
		total_pages INTEGER NOT NULL DEFAULT 0,
		uploaded_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document_id TEXT NOT NULL,
		page_number INTEGER NOT NULL CHECK (page_number > 0),
		content TEXT NOT NULL CHECK (content <> ''),
		word_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		UNIQUE (document_id, page_number),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS homework_sessions (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		kind TEXT NOT NULL,
		task_description TEXT NOT NULL DEFAULT '',
		document_id TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		status TEXT NOT NULL DEFAULT 'active',
		difficulty_level TEXT NOT NULL DEFAULT 'basic',
		total_questions INTEGER NOT NULL DEFAULT 0,
		total_hints_used INTEGER NOT NULL DEFAULT 0,
		total_attempts INTEGER NOT NULL DEFAULT 0,
		performance_score REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		text TEXT NOT NULL,
		question_type TEXT NOT NULL DEFAULT 'short_answer',
		difficulty_level TEXT NOT NULL DEFAULT 'basic',
		hints_used INTEGER NOT NULL DEFAULT 0,
		attempts_count INTEGER NOT NULL DEFAULT 0,
		final_answer TEXT NOT NULL DEFAULT '',
		is_correct INTEGER NOT NULL DEFAULT 0,
		evaluation_score REAL NOT NULL DEFAULT 0,
		evaluated INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		FOREIGN KEY (session_id) REFERENCES homework_sessions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS attempts (
		id TEXT PRIMARY KEY,
		question_id TEXT NOT NULL,
		attempt_number INTEGER NOT NULL,
		response TEXT NOT NULL,
		feedback TEXT NOT NULL DEFAULT '',
		evaluation_level TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS hints (
		id TEXT PRIMARY KEY,
		question_id TEXT NOT NULL,
		level INTEGER NOT NULL CHECK (level BETWEEN 1 AND 5),
		hint_type TEXT NOT NULL,
		text TEXT NOT NULL,
		fallback INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS student_progress (
		subject TEXT PRIMARY KEY,
		total_sessions INTEGER NOT NULL DEFAULT 0,
		total_questions INTEGER NOT NULL DEFAULT 0,
		correct_answers REAL NOT NULL DEFAULT 0,
		partially_correct INTEGER NOT NULL DEFAULT 0,
		total_attempts INTEGER NOT NULL DEFAULT 0,
		total_hints_used INTEGER NOT NULL DEFAULT 0,
		average_hints_per_question REAL NOT NULL DEFAULT 0,
		success_rate REAL NOT NULL DEFAULT 0,
		difficulty_level TEXT NOT NULL DEFAULT 'basic',
		last_updated DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_subject ON documents(subject, uploaded_at);
	CREATE INDEX IF NOT EXISTS idx_pages_document ON pages(document_id, page_number);
	CREATE INDEX IF NOT EXISTS idx_sessions_subject ON homework_sessions(subject, kind, status);
	CREATE INDEX IF NOT EXISTS idx_questions_session ON questions(session_id);
	CREATE INDEX IF NOT EXISTS idx_attempts_question ON attempts(question_id);
	CREATE INDEX IF NOT EXISTS idx_hints_question ON hints(question_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(entity, id)
	}
	return apperr.Persistence("get "+entity, err)
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
