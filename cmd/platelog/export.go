package platelog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/platelog/internal/ledger"
	"github.com/saadjs/platelog/internal/report"
)

var (
	exportFormat string
	exportOut    string
	exportToday  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export meals as csv or json, or today's report as pdf",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(exportFormat))
		if format != "csv" && format != "json" && format != "pdf" {
			return fmt.Errorf("invalid --format %q (use csv|json|pdf)", exportFormat)
		}
		return withLedger(cmd, func(s *session) error {
			var w io.Writer = cmd.OutOrStdout()
			if exportOut != "" {
				if err := os.MkdirAll(filepath.Dir(exportOut), 0o755); err != nil {
					return fmt.Errorf("create export directory: %w", err)
				}
				f, err := os.Create(exportOut)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer f.Close()
				w = f
			}

			records := s.ledger.History()
			if exportToday {
				records = s.ledger.Meals()
			}
			switch format {
			case "csv":
				if err := ledger.WriteCSV(w, records); err != nil {
					return err
				}
			case "json":
				if err := ledger.WriteJSON(w, records); err != nil {
					return err
				}
			case "pdf":
				data, err := report.DailyPDF(s.ledger.Status(), s.ledger.Summary(), s.ledger.Meals())
				if err != nil {
					return err
				}
				if _, err := w.Write(data); err != nil {
					return fmt.Errorf("write pdf: %w", err)
				}
			}
			if exportOut != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", format, exportOut)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Export format: csv|json|pdf")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default stdout)")
	exportCmd.Flags().BoolVar(&exportToday, "today", false, "Only export today's meals (csv/json)")
}
