package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"tutionbuddy/internal/homework"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fortschrittsbericht als JSON ausgeben",
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	// Der Bericht braucht kein Sprachmodell
	engine := homework.NewEngine(store, nil, nil, cfg, log)
	report, err := engine.ProgressReport(cmd.Context())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
