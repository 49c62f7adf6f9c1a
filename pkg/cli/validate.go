package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/textmock/textmock/pkg/engine"
)

var validateCmd = &cobra.Command{
	Use:   "validate <mock-file>...",
	Short: "Check mock files for syntax errors",
	Long: `Parse the given mock files without starting a server. Errors are
reported with file, line, and column; the command exits non-zero if any
file fails to parse.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed++
			continue
		}
		reg, err := engine.Load(path, string(src))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed++
			continue
		}
		fmt.Printf("%s: %d definition(s)\n", path, reg.Len())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", failed, len(args))
	}
	return nil
}
