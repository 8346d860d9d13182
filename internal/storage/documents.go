package storage

import (
	"context"
	"strconv"

	"tutionbuddy/internal/apperr"
	"tutionbuddy/internal/models"
)

// Dokumente

// CreateDocument speichert Dokument und Seiten in einer Transaktion
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *models.Document) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Persistence("create document", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	doc.UploadedAt = utc(doc.UploadedAt)
	doc.TotalPages = len(doc.Pages)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, filename, original_filename, subject, lesson_title, chapter_number, total_pages, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Filename, doc.OriginalFilename, doc.Subject, doc.LessonTitle, doc.ChapterNumber, doc.TotalPages, doc.UploadedAt)
	if err != nil {
		return apperr.Persistence("insert document", err)
	}

	for i := range doc.Pages {
		p := &doc.Pages[i]
		p.DocumentID = doc.ID
		p.CreatedAt = utc(p.CreatedAt)

		res, execErr := tx.ExecContext(ctx, `
			INSERT INTO pages (document_id, page_number, content, word_count, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, p.DocumentID, p.PageNumber, p.Content, p.WordCount, p.CreatedAt)
		if execErr != nil {
			err = apperr.Persistence("insert page", execErr)
			return err
		}
		if p.ID, execErr = res.LastInsertId(); execErr != nil {
			err = apperr.Persistence("insert page", execErr)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return apperr.Persistence("commit document", err)
	}
	return nil
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.GetContext(ctx, &doc, `
		SELECT id, filename, original_filename, subject, lesson_title, chapter_number, total_pages, uploaded_at
		FROM documents WHERE id = ?
	`, id)
	if err != nil {
		return nil, notFound(err, "document", id)
	}
	return &doc, nil
}

// ListDocuments liefert die neuesten Dokumente zuerst; subject "" = alle
func (s *SQLiteStorage) ListDocuments(ctx context.Context, subject string) ([]models.Document, error) {
	query := `
		SELECT id, filename, original_filename, subject, lesson_title, chapter_number, total_pages, uploaded_at
		FROM documents`
	var args []interface{}
	if subject != "" {
		query += ` WHERE subject = ?`
		args = append(args, subject)
	}
	query += ` ORDER BY uploaded_at DESC, rowid DESC`

	docs := []models.Document{}
	if err := s.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, apperr.Persistence("list documents", err)
	}
	return docs, nil
}

// DeleteDocument löscht das Dokument samt Seiten
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Persistence("delete document", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Seiten explizit löschen, falls foreign_keys nicht aktiv ist
	if _, err = tx.ExecContext(ctx, `DELETE FROM pages WHERE document_id = ?`, id); err != nil {
		return apperr.Persistence("delete pages", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return apperr.Persistence("delete document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Persistence("delete document", err)
	}
	if n == 0 {
		err = apperr.NotFound("document", id)
		return err
	}

	if err = tx.Commit(); err != nil {
		return apperr.Persistence("commit delete", err)
	}
	return nil
}

// Seiten

func (s *SQLiteStorage) GetPages(ctx context.Context, documentID string) ([]models.Page, error) {
	pages := []models.Page{}
	err := s.db.SelectContext(ctx, &pages, `
		SELECT id, document_id, page_number, content, word_count, created_at
		FROM pages WHERE document_id = ? ORDER BY page_number
	`, documentID)
	if err != nil {
		return nil, apperr.Persistence("get pages", err)
	}
	return pages, nil
}

func (s *SQLiteStorage) GetPage(ctx context.Context, documentID string, pageNumber int) (*models.Page, error) {
	var p models.Page
	err := s.db.GetContext(ctx, &p, `
		SELECT id, document_id, page_number, content, word_count, created_at
		FROM pages WHERE document_id = ? AND page_number = ?
	`, documentID, pageNumber)
	if err != nil {
		return nil, notFound(err, "page", documentID+"#"+strconv.Itoa(pageNumber))
	}
	return &p, nil
}
