// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"kernlet/internal/issue"
)

// formatErrorForDisplay formats an error for user display. Issue errors
// render with their fix hints below the message, and with the full cause
// chain in verbose mode.
func formatErrorForDisplay(err error, verbose bool) string {
	var ierr *issue.Error
	if errors.As(err, &ierr) {
		return ierr.Error() + ierr.Details(verbose)
	}
	return err.Error()
}

// renderIssueHelp writes the guidance attached to err below the error
// line the CLI has already printed: first the fix hints (and, verbose,
// the cause chain), then the catalog help page when the error references
// one. Errors that carry no issue context produce no output.
func renderIssueHelp(stderr io.Writer, err error, verbose bool) {
	var ierr *issue.Error
	if !errors.As(err, &ierr) {
		return
	}

	if details := ierr.Details(verbose); details != "" {
		fmt.Fprintln(stderr, details)
	}

	page := issue.Get(ierr.Ref)
	if page == nil {
		return
	}
	rendered, renderErr := page.Render("dark")
	if renderErr != nil {
		log.Warn("failed to render help page", "issue", ierr.Ref, "err", renderErr)
		return
	}
	fmt.Fprint(stderr, rendered)
}
