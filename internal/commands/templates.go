package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newTemplatesCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect configured templates",
	}
	cmd.AddCommand(newTemplatesListCommand(configPath))
	cmd.AddCommand(newTemplatesShowCommand(configPath))
	return cmd
}

func newTemplatesListCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List template names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := loadSetup(*configPath)
			if err != nil {
				return err
			}
			def := reg.DefaultName()
			for _, name := range reg.Names() {
				marker := " "
				if name == def {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		},
	}
}

func newTemplatesShowCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Print a template as JSON (default template when no name given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := loadSetup(*configPath)
			if err != nil {
				return err
			}
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			tmpl, err := reg.Get(name)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tmpl)
		},
	}
}
