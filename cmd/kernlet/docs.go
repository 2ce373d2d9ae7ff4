// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"kernlet/docs"
)

// newDocsCommand creates the `kernlet docs` command: renders the embedded
// console reference.
func newDocsCommand(app *App) *cobra.Command {
	var plain bool

	docsCmd := &cobra.Command{
		Use:   "docs",
		Short: "Show the console reference",
		Long: `Render the embedded console reference: the command line grammar,
the verbs and their edge cases, and the sandbox backends.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if plain {
				fmt.Fprint(app.stdout, docs.Console)
				return nil
			}

			renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
			if err != nil {
				return fmt.Errorf("building renderer: %w", err)
			}
			out, err := renderer.Render(docs.Console)
			if err != nil {
				return fmt.Errorf("rendering docs: %w", err)
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}

	docsCmd.Flags().BoolVar(&plain, "plain", false, "print raw markdown without styling")

	return docsCmd
}
