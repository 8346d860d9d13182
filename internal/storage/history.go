package storage

import (
	"context"
	"database/sql"
	"errors"

	"tutionbuddy/internal/apperr"
	"tutionbuddy/internal/models"
)

type levelCount struct {
	Subject string                 `db:"subject"`
	Level   models.EvaluationLevel `db:"evaluation_level"`
	Count   int                    `db:"n"`
}

type hintCount struct {
	Subject string `db:"subject"`
	Level   int    `db:"level"`
	Count   int    `db:"n"`
}

// SessionHistory zählt Fragen, Hinweise und Versuche einer Sitzung aus der Historie
func (s *SQLiteStorage) SessionHistory(ctx context.Context, sessionID string) (*models.History, error) {
	h := &models.History{Sessions: 1, Levels: map[models.EvaluationLevel]int{}}

	err := s.db.GetContext(ctx, &h.Questions, `SELECT COUNT(*) FROM questions WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, apperr.Persistence("session history", err)
	}
	err = s.db.GetContext(ctx, &h.Hints, `
		SELECT COUNT(*) FROM hints h JOIN questions q ON q.id = h.question_id
		WHERE q.session_id = ?
	`, sessionID)
	if err != nil {
		return nil, apperr.Persistence("session history", err)
	}

	var rows []levelCount
	err = s.db.SelectContext(ctx, &rows, `
		SELECT '' AS subject, a.evaluation_level, COUNT(*) AS n
		FROM attempts a JOIN questions q ON q.id = a.question_id
		WHERE q.session_id = ?
		GROUP BY a.evaluation_level
	`, sessionID)
	if err != nil {
		return nil, apperr.Persistence("session history", err)
	}
	for _, r := range rows {
		h.Levels[r.Level] = r.Count
	}
	return h, nil
}

// SubjectHistory zählt alle Ereignisse eines Fachs über alle Sitzungen
func (s *SQLiteStorage) SubjectHistory(ctx context.Context, subject string) (*models.History, error) {
	h := &models.History{Levels: map[models.EvaluationLevel]int{}}

	err := s.db.GetContext(ctx, &h.Sessions, `SELECT COUNT(*) FROM homework_sessions WHERE subject = ?`, subject)
	if err != nil {
		return nil, apperr.Persistence("subject history", err)
	}
	err = s.db.GetContext(ctx, &h.Questions, `
		SELECT COUNT(*) FROM questions q JOIN homework_sessions s ON s.id = q.session_id
		WHERE s.subject = ?
	`, subject)
	if err != nil {
		return nil, apperr.Persistence("subject history", err)
	}
	err = s.db.GetContext(ctx, &h.Hints, `
		SELECT COUNT(*) FROM hints h
		JOIN questions q ON q.id = h.question_id
		JOIN homework_sessions s ON s.id = q.session_id
		WHERE s.subject = ?
	`, subject)
	if err != nil {
		return nil, apperr.Persistence("subject history", err)
	}

	var rows []levelCount
	err = s.db.SelectContext(ctx, &rows, `
		SELECT s.subject, a.evaluation_level, COUNT(*) AS n
		FROM attempts a
		JOIN questions q ON q.id = a.question_id
		JOIN homework_sessions s ON s.id = q.session_id
		WHERE s.subject = ?
		GROUP BY s.subject, a.evaluation_level
	`, subject)
	if err != nil {
		return nil, apperr.Persistence("subject history", err)
	}
	for _, r := range rows {
		h.Levels[r.Level] = r.Count
	}
	return h, nil
}

// AttemptLevelsBySubject: Anzahl Versuche je Fach und Urteil
func (s *SQLiteStorage) AttemptLevelsBySubject(ctx context.Context) (map[string]map[models.EvaluationLevel]int, error) {
	var rows []levelCount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT s.subject, a.evaluation_level, COUNT(*) AS n
		FROM attempts a
		JOIN questions q ON q.id = a.question_id
		JOIN homework_sessions s ON s.id = q.session_id
		GROUP BY s.subject, a.evaluation_level
	`)
	if err != nil {
		return nil, apperr.Persistence("attempt levels", err)
	}

	out := make(map[string]map[models.EvaluationLevel]int)
	for _, r := range rows {
		if out[r.Subject] == nil {
			out[r.Subject] = make(map[models.EvaluationLevel]int)
		}
		out[r.Subject][r.Level] = r.Count
	}
	return out, nil
}

// HintLevelsBySubject: Anzahl Hinweise je Fach und Stufe
func (s *SQLiteStorage) HintLevelsBySubject(ctx context.Context) (map[string]map[int]int, error) {
	var rows []hintCount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT s.subject, h.level, COUNT(*) AS n
		FROM hints h
		JOIN questions q ON q.id = h.question_id
		JOIN homework_sessions s ON s.id = q.session_id
		GROUP BY s.subject, h.level
	`)
	if err != nil {
		return nil, apperr.Persistence("hint levels", err)
	}

	out := make(map[string]map[int]int)
	for _, r := range rows {
		if out[r.Subject] == nil {
			out[r.Subject] = make(map[int]int)
		}
		out[r.Subject][r.Level] = r.Count
	}
	return out, nil
}

// Fortschritt

// SaveProgress ersetzt die Fortschrittszeile eines Fachs
func (s *SQLiteStorage) SaveProgress(ctx context.Context, p *models.StudentProgress) error {
	p.LastUpdated = utc(p.LastUpdated)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO student_progress (subject, total_sessions, total_questions, correct_answers, partially_correct,
			total_attempts, total_hints_used, average_hints_per_question, success_rate, difficulty_level, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(subject) DO UPDATE SET
			total_sessions = excluded.total_sessions,
			total_questions = excluded.total_questions,
			correct_answers = excluded.correct_answers,
			partially_correct = excluded.partially_correct,
			total_attempts = excluded.total_attempts,
			total_hints_used = excluded.total_hints_used,
			average_hints_per_question = excluded.average_hints_per_question,
			success_rate = excluded.success_rate,
			difficulty_level = excluded.difficulty_level,
			last_updated = excluded.last_updated
	`, p.Subject, p.TotalSessions, p.TotalQuestions, p.CorrectAnswers, p.PartiallyCorrect,
		p.TotalAttempts, p.TotalHintsUsed, p.AverageHintsPerQuestion, p.SuccessRate, p.DifficultyLevel, p.LastUpdated)
	return apperr.Persistence("save progress", err)
}

func (s *SQLiteStorage) GetProgress(ctx context.Context, subject string) (*models.StudentProgress, error) {
	var p models.StudentProgress
	err := s.db.GetContext(ctx, &p, `
		SELECT subject, total_sessions, total_questions, correct_answers, partially_correct, total_attempts,
			total_hints_used, average_hints_per_question, success_rate, difficulty_level, last_updated
		FROM student_progress WHERE subject = ?
	`, subject)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("progress", subject)
	}
	if err != nil {
		return nil, apperr.Persistence("get progress", err)
	}
	return &p, nil
}
