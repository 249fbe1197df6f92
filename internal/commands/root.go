// Package commands wires the CLI surface: each subcommand loads
// configuration, opens the sink it needs, and delegates to the internal
// packages. No business logic lives here.
package commands

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"bankmerge/internal/config"
	"bankmerge/internal/metrics"
	"bankmerge/internal/metrics/datadog"
	"bankmerge/internal/schema"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "bankmerge",
		Short: "Merge heterogeneous bank statement spreadsheets into one relational store",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (JSON)")

	rootCmd.AddCommand(newAnalyzeCommand(&configPath))
	rootCmd.AddCommand(newIngestCommand(&configPath))
	rootCmd.AddCommand(newResolveCommand(&configPath))
	rootCmd.AddCommand(newTemplatesCommand(&configPath))
	rootCmd.AddCommand(newStatsCommand(&configPath))

	return rootCmd
}

// loadSetup loads config (defaults when no path given), lints it, builds the
// template registry and installs the metrics backend. Lint warnings are
// logged; errors abort.
func loadSetup(configPath string) (config.Config, *schema.Registry, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return cfg, nil, err
		}
	}

	issues := config.Validate(cfg)
	bad := false
	for _, is := range issues {
		log.Printf("config: %s", is.Error())
		if is.Severity == config.SeverityError {
			bad = true
		}
	}
	if bad {
		return cfg, nil, fmt.Errorf("config %s: %d error(s)", configPath, countErrors(issues))
	}

	reg, err := cfg.Registry()
	if err != nil {
		return cfg, nil, err
	}
	if err := installMetrics(cfg); err != nil {
		return cfg, nil, err
	}
	return cfg, reg, nil
}

func countErrors(issues []config.Issue) int {
	n := 0
	for _, is := range issues {
		if is.Severity == config.SeverityError {
			n++
		}
	}
	return n
}

func installMetrics(cfg config.Config) error {
	switch cfg.Metrics.Backend {
	case "", "none":
		return nil
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:      cfg.Metrics.Addr,
			Namespace: cfg.Metrics.Namespace,
		})
		if err != nil {
			return fmt.Errorf("metrics backend: %w", err)
		}
		metrics.SetBackend(b)
		return nil
	default:
		return fmt.Errorf("unknown metrics backend %q", cfg.Metrics.Backend)
	}
}
