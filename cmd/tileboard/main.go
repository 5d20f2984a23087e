// Package main is the entry point for the tileboard CLI.
//
// TileBoard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	tileboard serve -c config.yaml    # Start the dashboard
//	tileboard validate -c config.yaml # Validate configuration
//	tileboard check https://host/health
//	tileboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd only displays help; functionality lives in subcommands.
var rootCmd = &cobra.Command{
	Use:   "tileboard",
	Short: "A self-hosted widget dashboard",
	Long: `TileBoard is a self-hosted widget dashboard.

It polls health checks, TCP ports, RSS feeds and weather forecasts in the
background and pushes updates to a web UI over Server-Sent Events.

Quick start:
  1. Create a config file (tileboard.yaml)
  2. Run: tileboard serve -c tileboard.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  widgets:
    - id: github
      type: health
      url: https://api.github.com
    - id: home
      type: weather
      location: Berlin`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this tileboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tileboard %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
