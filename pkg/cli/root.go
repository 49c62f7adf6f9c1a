// Package cli implements the textmock command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "textmock",
	Short: "textmock serves HTTP mocks defined in plain text files",
	Long: `textmock is a mock HTTP server driven by a plain-text definition format.
A mock file pairs request patterns with response templates:

    GET /users/{id}

    HTTP 200
    Content-Type: application/json
    ` + "`" + `{"id": "{{id}}"}` + "`" + `

Run 'textmock serve mocks.mock' to serve a file, or 'textmock validate'
to check files without starting a server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
