package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tutionbuddy/internal/config"
	"tutionbuddy/internal/logger"
	"tutionbuddy/internal/storage"
)

var (
	configPath string
	verbose    bool
)

// rootCmd startet ohne Unterbefehl den Server
var rootCmd = &cobra.Command{
	Use:   "tutionbuddy",
	Short: "Lernbegleiter für Grundschulkinder",
	Long: `tutionbuddy ist ein lokaler Lernbegleiter für die Klassen 1 bis 5.

Ohne Unterbefehl wird der HTTP-Server gestartet.

Unterbefehle:
  serve  - HTTP-Server starten
  ingest - Lernmaterial aus einer Datei importieren
  report - Fortschrittsbericht als JSON ausgeben`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Pfad zur Konfigurationsdatei")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Ausführliche Entwicklungs-Logs")

	rootCmd.AddCommand(serveCmd, ingestCmd, reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

// bootstrap lädt Konfiguration und Logger für alle Befehle
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("konfiguration: %w", err)
	}

	mode := cfg.LogMode
	if verbose {
		mode = "dev"
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}

func openStore(cfg *config.Config, log *logger.Logger) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("datenbank %s: %w", cfg.DatabasePath, err)
	}
	log.Info("💾 Datenbank bereit", "path", cfg.DatabasePath)
	return store, nil
}
