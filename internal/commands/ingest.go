package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bankmerge/internal/ingest"
	"bankmerge/internal/metrics"
	"bankmerge/internal/store"
)

func newIngestCommand(configPath *string) *cobra.Command {
	var sinkLocation string
	var templateName string
	var mappingsPath string

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest spreadsheets into the sink, recording rejections",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, reg, err := loadSetup(*configPath)
			if err != nil {
				return err
			}
			if sinkLocation == "" {
				sinkLocation = cfg.Sink
			}
			if sinkLocation == "" {
				return fmt.Errorf("no sink: pass --sink or set it in the config")
			}

			mappings, err := loadMappings(mappingsPath)
			if err != nil {
				return err
			}

			st, err := store.Open(cmd.Context(), sinkLocation)
			if err != nil {
				return err
			}
			defer st.Close()
			defer metrics.Flush()

			coord := ingest.New(reg, st, cfg.Ingest, nil)
			coord.TouchRecent(sinkLocation)
			sum, err := coord.Run(cmd.Context(), args, mappings, templateName)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}

	cmd.Flags().StringVar(&sinkLocation, "sink", "", "sink location: sqlite path or postgres:// URL")
	cmd.Flags().StringVar(&templateName, "template", "", "template name (default: configured default)")
	cmd.Flags().StringVar(&mappingsPath, "mappings", "", "JSON file of per-file column mappings (required)")
	_ = cmd.MarkFlagRequired("mappings")

	return cmd
}

// loadMappings reads a JSON object keyed by file path (or base name, or "*")
// whose values map original column names to canonical field names.
func loadMappings(path string) (ingest.Mappings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mappings: %w", err)
	}
	var m ingest.Mappings
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mappings %s: %w", path, err)
	}
	return m, nil
}
