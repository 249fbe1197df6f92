package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bankmerge/internal/ingest"
	"bankmerge/internal/store"
)

func newResolveCommand(configPath *string) *cobra.Command {
	var sinkLocation string
	var templateName string
	var action string
	var sets []string
	var maps []string

	cmd := &cobra.Command{
		Use:   "resolve <rejection-id>",
		Short: "Repair or discard a rejected row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("rejection id %q: %w", args[0], err)
			}

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

			fixed, err := parsePairs(sets, "--set")
			if err != nil {
				return err
			}
			userMappings, err := parsePairs(maps, "--map")
			if err != nil {
				return err
			}

			st, err := store.Open(cmd.Context(), sinkLocation)
			if err != nil {
				return err
			}
			defer st.Close()

			coord := ingest.New(reg, st, cfg.Ingest, nil)
			if err := coord.Resolve(cmd.Context(), id, fixed, ingest.Action(action), templateName, userMappings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rejection %d resolved (%s)\n", id, action)
			return nil
		},
	}

	cmd.Flags().StringVar(&sinkLocation, "sink", "", "sink location: sqlite path or postgres:// URL")
	cmd.Flags().StringVar(&templateName, "template", "", "template name (default: configured default)")
	cmd.Flags().StringVar(&action, "action", "save", "save or delete")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "fixed value as field=value (repeatable)")
	cmd.Flags().StringArrayVar(&maps, "map", nil, "column mapping as column=field for rebuilding the row (repeatable)")

	return cmd
}

func parsePairs(pairs []string, flag string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%s %q: want key=value", flag, p)
		}
		out[k] = v
	}
	return out, nil
}
