// Package cli provides the httpstub commands.
package cli

import (
	"github.com/spf13/cobra"
)

// BuildInfo carries version metadata injected at build time.
type BuildInfo struct {
	Version string
	Commit  string
}

var rootCmd = &cobra.Command{
	Use:   "httpstub",
	Short: "Programmable stub HTTP server for test suites",
	Long: `httpstub serves pre-configured responses over real TCP connections.

Stubs are declared in a YAML or JSON collection file; the server answers
matching requests with the configured status, headers and body, and can keep
connections open as push streams.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute(info BuildInfo) error {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd(info))
	return rootCmd.Execute()
}
