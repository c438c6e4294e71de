// Package main provides the entry point for the pCloudy MCP server.
//
// The server exposes the pCloudy mobile device cloud (device booking, file
// upload, ADB execution, screenshots) as tools AI agents can call via the
// Model Context Protocol.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version information set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pcloudy-mcp",
	Short: "MCP server for the pCloudy device cloud",
	Long: `pcloudy-mcp exposes the pCloudy mobile device cloud as MCP tools.

Agents can list and book real Android devices, upload and install apps,
run ADB commands, capture screenshots, and release devices when done.

Authentication:
  Set PCLOUDY_USERNAME and PCLOUDY_API_KEY in the environment or a .env file.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		if debug {
			log.SetLevel(log.DebugLevel)
			log.Debug("Debug logging enabled")
		}
	},
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pcloudy-mcp %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(devicesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
