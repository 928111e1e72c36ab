package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"growthcheck/internal/analysis"
	"growthcheck/internal/growth"
	"growthcheck/internal/report"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	analyzeSex   string
	analyzeSheet string
	analyzeOut   string
	analyzeOpen  bool
	analyzeJSON  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <workbook.xlsx>",
	Short: "Validate a field workbook and write the audit outputs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sexRaw := analyzeSex
		if sexRaw == "" {
			sexRaw = cfg.DefaultSex
		}
		sex, ok := growth.ParseSex(sexRaw)
		if !ok {
			return fmt.Errorf("invalid default sex %q (use L or P)", sexRaw)
		}

		svc := service
		if analyzeOut != "" {
			svc = analysis.NewService(repo, service.Table(), analyzeOut, cfg.Workers)
		}

		res, err := svc.AnalyzeFile(cmd.Context(), args[0], analysis.Options{DefaultSex: sex, Sheet: analyzeSheet})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if analyzeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res.Job)
		}
		printSummary(cmd, res)

		if analyzeOpen {
			if err := browser.OpenFile(res.Job.Outputs.Workbook); err != nil {
				log.Warn().Err(err).Str("path", res.Job.Outputs.Workbook).Msg("Failed to open workbook")
			}
		}
		return nil
	},
}

func printSummary(cmd *cobra.Command, res *analysis.Result) {
	out := cmd.OutOrStdout()
	s := res.Report.Summary

	fmt.Fprintf(out, "Job %s (%s)\n", res.Job.ID, res.Job.Status)
	fmt.Fprintf(out, "Anak: %d (ditolak %d)\n", s.TotalChildren, s.Rejected)
	fmt.Fprintf(out, "Pengukuran: %d  VALID %d  WARNING %d  ERROR %d  MISSING %d\n",
		s.TotalRecords, s.Valid, s.Warning, s.Error, s.Missing)

	for _, c := range res.Report.Children {
		if c.Status == report.ChildValid {
			continue
		}
		fmt.Fprintf(out, "  %-8s %s\n", c.Status, strings.TrimSpace(c.Name))
	}

	fmt.Fprintf(out, "Workbook: %s\n", res.Job.Outputs.Workbook)
	fmt.Fprintf(out, "Laporan:  %s\n", res.Job.Outputs.Narrative)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSex, "sex", "", "default sex for blank or unknown cells (L or P)")
	analyzeCmd.Flags().StringVar(&analyzeSheet, "sheet", "", "sheet name; defaults to the first sheet")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "output directory; defaults to OUTPUT_DIR")
	analyzeCmd.Flags().BoolVar(&analyzeOpen, "open", false, "open the audit workbook when done")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the job record as JSON")
}
