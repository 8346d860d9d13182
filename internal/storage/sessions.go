package storage

import (
	"context"

	"tutionbuddy/internal/apperr"
	"tutionbuddy/internal/models"
)

const sessionColumns = `id, subject, kind, task_description, document_id, started_at, ended_at, status,
	difficulty_level, total_questions, total_hints_used, total_attempts, performance_score`

const questionColumns = `id, session_id, text, question_type, difficulty_level, hints_used, attempts_count,
	final_answer, is_correct, evaluation_score, evaluated, started_at, ended_at`

// Sitzungen

func (s *SQLiteStorage) CreateSession(ctx context.Context, hs *models.HomeworkSession) error {
	hs.StartedAt = utc(hs.StartedAt)
	hs.EndedAt = utcPtr(hs.EndedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO homework_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, hs.ID, hs.Subject, hs.Kind, hs.TaskDescription, hs.DocumentID, hs.StartedAt, hs.EndedAt, hs.Status,
		hs.DifficultyLevel, hs.TotalQuestions, hs.TotalHintsUsed, hs.TotalAttempts, hs.PerformanceScore)
	return apperr.Persistence("create session", err)
}

func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*models.HomeworkSession, error) {
	var hs models.HomeworkSession
	err := s.db.GetContext(ctx, &hs, `SELECT `+sessionColumns+` FROM homework_sessions WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "session", id)
	}
	return &hs, nil
}

// LatestActiveSession sucht die jüngste aktive Sitzung eines Fachs und einer Art
func (s *SQLiteStorage) LatestActiveSession(ctx context.Context, subject string, kind models.SessionKind) (*models.HomeworkSession, error) {
	var hs models.HomeworkSession
	err := s.db.GetContext(ctx, &hs, `
		SELECT `+sessionColumns+` FROM homework_sessions
		WHERE subject = ? AND kind = ? AND status = ?
		ORDER BY started_at DESC, rowid DESC LIMIT 1
	`, subject, kind, models.StatusActive)
	if err != nil {
		return nil, notFound(err, "session", subject+"/"+string(kind))
	}
	return &hs, nil
}

func (s *SQLiteStorage) UpdateSession(ctx context.Context, hs *models.HomeworkSession) error {
	hs.EndedAt = utcPtr(hs.EndedAt)
	res, err := s.db.ExecContext(ctx, `
		UPDATE homework_sessions SET ended_at = ?, status = ?, total_questions = ?, total_hints_used = ?,
			total_attempts = ?, performance_score = ?
		WHERE id = ?
	`, hs.EndedAt, hs.Status, hs.TotalQuestions, hs.TotalHintsUsed, hs.TotalAttempts, hs.PerformanceScore, hs.ID)
	if err != nil {
		return apperr.Persistence("update session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("session", hs.ID)
	}
	return nil
}

// ListSessions liefert alle Sitzungen, neueste zuerst
func (s *SQLiteStorage) ListSessions(ctx context.Context) ([]models.HomeworkSession, error) {
	sessions := []models.HomeworkSession{}
	err := s.db.SelectContext(ctx, &sessions, `
		SELECT `+sessionColumns+` FROM homework_sessions ORDER BY started_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, apperr.Persistence("list sessions", err)
	}
	return sessions, nil
}

// Fragen

func (s *SQLiteStorage) CreateQuestion(ctx context.Context, q *models.Question) error {
	q.StartedAt = utc(q.StartedAt)
	q.EndedAt = utcPtr(q.EndedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.ID, q.SessionID, q.Text, q.Type, q.DifficultyLevel, q.HintsUsed, q.AttemptsCount,
		q.FinalAnswer, q.IsCorrect, q.EvaluationScore, q.Evaluated, q.StartedAt, q.EndedAt)
	return apperr.Persistence("create question", err)
}

// FindQuestion sucht eine Frage über ihren Text innerhalb der Sitzung
func (s *SQLiteStorage) FindQuestion(ctx context.Context, sessionID, text string) (*models.Question, error) {
	var q models.Question
	err := s.db.GetContext(ctx, &q, `
		SELECT `+questionColumns+` FROM questions
		WHERE session_id = ? AND text = ?
		ORDER BY started_at, rowid LIMIT 1
	`, sessionID, text)
	if err != nil {
		return nil, notFound(err, "question", text)
	}
	return &q, nil
}

func (s *SQLiteStorage) UpdateQuestion(ctx context.Context, q *models.Question) error {
	q.EndedAt = utcPtr(q.EndedAt)
	_, err := s.db.ExecContext(ctx, `
		UPDATE questions SET hints_used = ?, attempts_count = ?, final_answer = ?, is_correct = ?,
			evaluation_score = ?, evaluated = ?, ended_at = ?
		WHERE id = ?
	`, q.HintsUsed, q.AttemptsCount, q.FinalAnswer, q.IsCorrect, q.EvaluationScore, q.Evaluated, q.EndedAt, q.ID)
	return apperr.Persistence("update question", err)
}

func (s *SQLiteStorage) GetQuestions(ctx context.Context, sessionID string) ([]models.Question, error) {
	questions := []models.Question{}
	err := s.db.SelectContext(ctx, &questions, `
		SELECT `+questionColumns+` FROM questions WHERE session_id = ? ORDER BY started_at, rowid
	`, sessionID)
	if err != nil {
		return nil, apperr.Persistence("get questions", err)
	}
	return questions, nil
}

// Versuche und Hinweise

func (s *SQLiteStorage) AddAttempt(ctx context.Context, a *models.Attempt) error {
	a.CreatedAt = utc(a.CreatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (id, question_id, attempt_number, response, feedback, evaluation_level, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.QuestionID, a.Number, a.Response, a.Feedback, a.Level, a.CreatedAt)
	return apperr.Persistence("add attempt", err)
}

func (s *SQLiteStorage) GetAttempts(ctx context.Context, questionID string) ([]models.Attempt, error) {
	attempts := []models.Attempt{}
	err := s.db.SelectContext(ctx, &attempts, `
		SELECT id, question_id, attempt_number, response, feedback, evaluation_level, created_at
		FROM attempts WHERE question_id = ? ORDER BY attempt_number
	`, questionID)
	if err != nil {
		return nil, apperr.Persistence("get attempts", err)
	}
	return attempts, nil
}

func (s *SQLiteStorage) AddHint(ctx context.Context, h *models.Hint) error {
	h.CreatedAt = utc(h.CreatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hints (id, question_id, level, hint_type, text, fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, h.ID, h.QuestionID, h.Level, h.Type, h.Text, h.Fallback, h.CreatedAt)
	return apperr.Persistence("add hint", err)
}

func (s *SQLiteStorage) GetHints(ctx context.Context, questionID string) ([]models.Hint, error) {
	hints := []models.Hint{}
	err := s.db.SelectContext(ctx, &hints, `
		SELECT id, question_id, level, hint_type, text, fallback, created_at
		FROM hints WHERE question_id = ? ORDER BY created_at, rowid
	`, questionID)
	if err != nil {
		return nil, apperr.Persistence("get hints", err)
	}
	return hints, nil
}
