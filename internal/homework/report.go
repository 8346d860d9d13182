package homework

import (
	"context"

	"tutionbuddy/internal/apperr"
	"tutionbuddy/internal/models"
	"tutionbuddy/internal/subjects"
)

// SubjectDifficulty bestimmt die aktuelle Stufe eines Fachs aus allen Versuchen
func (e *Engine) SubjectDifficulty(ctx context.Context, subject string) (models.Difficulty, error) {
	h, err := e.store.SubjectHistory(ctx, subjects.Canonical(subject))
	if err != nil {
		return "", err
	}
	return DifficultyFor(StatsFromLevels(h.Levels, e.cfg.Tuning), e.cfg.Tuning), nil
}

// RefreshProgress berechnet den Fortschritt eines Fachs aus der Historie neu
// und speichert ihn. Mehrfaches Aufrufen ergibt denselben Stand.
func (e *Engine) RefreshProgress(ctx context.Context, subject string) (*models.StudentProgress, error) {
	subject = subjects.Canonical(subject)
	if subject == "" {
		return nil, apperr.Field("subject", "is required")
	}
	h, err := e.store.SubjectHistory(ctx, subject)
	if err != nil {
		return nil, err
	}
	stats := StatsFromLevels(h.Levels, e.cfg.Tuning)

	p := &models.StudentProgress{
		Subject:          subject,
		TotalSessions:    h.Sessions,
		TotalQuestions:   h.Questions,
		CorrectAnswers:   stats.Correct,
		PartiallyCorrect: h.Levels[models.EvalPartiallyCorrect],
		TotalAttempts:    stats.Total,
		TotalHintsUsed:   h.Hints,
		SuccessRate:      SuccessRate(stats),
		DifficultyLevel:  DifficultyFor(stats, e.cfg.Tuning),
		LastUpdated:      e.now(),
	}
	if h.Questions > 0 {
		p.AverageHintsPerQuestion = round2(float64(h.Hints) / float64(h.Questions))
	}

	if err := e.store.SaveProgress(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ProgressReport fasst alle Sitzungen, Versuche und Hinweise zusammen.
// Fächer ohne Versuche fehlen in SubjectPerformance.
func (e *Engine) ProgressReport(ctx context.Context) (*models.ProgressReport, error) {
	sessions, err := e.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	attemptLevels, err := e.store.AttemptLevelsBySubject(ctx)
	if err != nil {
		return nil, err
	}
	hintLevels, err := e.store.HintLevelsBySubject(ctx)
	if err != nil {
		return nil, err
	}

	report := &models.ProgressReport{
		SessionsByKind:     make(map[models.SessionKind]int, len(models.SessionKinds)),
		SubjectPerformance: map[string]models.SubjectPerformance{},
		HintUsage:          map[string]models.HintUsage{},
		RecentActivity:     []models.RecentSession{},
		GeneratedAt:        e.now(),
	}

	for _, kind := range models.SessionKinds {
		report.SessionsByKind[kind] = 0
	}
	for _, s := range sessions {
		report.SessionsByKind[s.Kind]++
	}

	for subject, levels := range attemptLevels {
		stats := StatsFromLevels(levels, e.cfg.Tuning)
		if stats.Total == 0 {
			continue
		}
		report.SubjectPerformance[subject] = models.SubjectPerformance{
			SuccessRate:    SuccessRate(stats),
			TotalAttempts:  stats.Total,
			CorrectAnswers: stats.Correct,
		}
	}

	for subject, dist := range hintLevels {
		usage := models.HintUsage{Distribution: map[int]int{}}
		for level, n := range dist {
			usage.Distribution[level] = n
			usage.TotalHintsUsed += n
		}
		report.HintUsage[subject] = usage
	}

	for i, s := range sessions {
		if i == recentActivityLength {
			break
		}
		report.RecentActivity = append(report.RecentActivity, models.RecentSession{
			SessionID: s.ID,
			Subject:   s.Subject,
			Kind:      s.Kind,
			Date:      s.StartedAt.Format("2006-01-02"),
			Status:    s.Status,
		})
	}
	return report, nil
}
