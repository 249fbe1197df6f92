package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"bankmerge/internal/analyze"
)

func newAnalyzeCommand(configPath *string) *cobra.Command {
	var templateName string
	var threshold float64
	var workers int

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Probe spreadsheet columns and propose a template mapping",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, reg, err := loadSetup(*configPath)
			if err != nil {
				return err
			}
			tmpl, err := reg.Get(templateName)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Match.Threshold
			}

			reports := analyze.Files(cmd.Context(), nil, args, tmpl, threshold, workers)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(reports); err != nil {
				return fmt.Errorf("encode reports: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&templateName, "template", "", "template to map against (default: configured default)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.6, "minimum similarity for a fuzzy column match")
	cmd.Flags().IntVar(&workers, "workers", 4, "files analyzed concurrently")

	return cmd
}
