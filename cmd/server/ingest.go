package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tutionbuddy/internal/ingest"
	"tutionbuddy/internal/subjects"
)

var (
	ingestSubject string
	ingestTitle   string
	ingestChapter string
)

// ingestCmd importiert eine Datei ohne laufenden Server
var ingestCmd = &cobra.Command{
	Use:   "ingest <datei>",
	Short: "Lernmaterial importieren",
	Long: `Segmentiert eine .docx, .txt oder .pdf Datei in Seiten und speichert sie.

Fehlen Fach oder Titel, werden sie aus dem Inhalt geraten.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestSubject, "subject", "s", "", "Fach (z.B. Maths, EVS)")
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "Titel der Lektion")
	ingestCmd.Flags().StringVar(&ingestChapter, "chapter", "", "Kapitelnummer")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	src := args[0]
	if !ingest.SupportedExtension(src) {
		return fmt.Errorf("nicht unterstütztes Dateiformat: %s", filepath.Ext(src))
	}

	res, err := ingest.NewParser().ParseFile(src)
	if err != nil {
		return fmt.Errorf("verarbeitung %s: %w", src, err)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.UploadPath, 0o755); err != nil {
		return err
	}
	id := uuid.NewString()
	filename := id + strings.ToLower(filepath.Ext(src))
	dst := filepath.Join(cfg.UploadPath, filename)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}

	subject := ingestSubject
	if subject != "" {
		subject = subjects.Canonical(subject)
	}
	doc := res.Document(ingest.DocumentMeta{
		ID:               id,
		Filename:         filename,
		OriginalFilename: filepath.Base(src),
		Subject:          subject,
		LessonTitle:      ingestTitle,
		ChapterNumber:    ingestChapter,
		UploadedAt:       time.Now().UTC(),
	})

	store, err := openStore(cfg, log)
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	defer store.Close()

	if err := store.CreateDocument(cmd.Context(), doc); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("speichern: %w", err)
	}

	log.Info("📄 Dokument importiert", "document_id", doc.ID, "subject", doc.Subject, "pages", doc.TotalPages)
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d Seiten\n", doc.ID, doc.Subject, doc.LessonTitle, doc.TotalPages)
	return nil
}
