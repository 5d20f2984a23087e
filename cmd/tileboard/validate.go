package main

import (
	"fmt"

	"github.com/jpalmerr/tileboard"
	"github.com/jpalmerr/tileboard/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a TileBoard configuration file without starting the server.

This command parses the YAML, expands environment variables, validates all
fields and expands grids. It's useful for CI/CD pipelines or pre-deployment
checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  tileboard validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	widgets, err := config.BuildWidgets(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	// task ids must also be unique across grids
	if _, err := tileboard.New(tileboard.WithWidgets(widgets...)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	byType := make(map[tileboard.WidgetType]int)
	for _, w := range widgets {
		byType[w.Type()]++
	}
	fromGrids := len(widgets) - len(cfg.Widgets)

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:    %d\n", cfg.Port)
	fmt.Printf("  Widgets: %d direct + %d from grids = %d total\n",
		len(cfg.Widgets), fromGrids, len(widgets))
	fmt.Printf("  By type: health=%d tcp=%d rss=%d weather=%d\n",
		byType[tileboard.WidgetHealth], byType[tileboard.WidgetTCP],
		byType[tileboard.WidgetRSS], byType[tileboard.WidgetWeather])

	return nil
}
