package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"bankmerge/internal/store"
)

func newStatsCommand(configPath *string) *cobra.Command {
	var sinkLocation string
	var templateName string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the sink: row counts, date range, top accounts",
		Args:  cobra.NoArgs,
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
			tmpl, err := reg.Get(templateName)
			if err != nil {
				return err
			}

			st, err := store.Open(cmd.Context(), sinkLocation)
			if err != nil {
				return err
			}
			defer st.Close()

			sum, err := st.Summarize(cmd.Context(), tmpl, cfg.AccountField)
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

	return cmd
}
