// SPDX-License-Identifier: MPL-2.0

package doctor

import (
	"fmt"
	"io"
	"strings"
)

// Report summarizes the results of a doctor run.
type Report struct {
	// Passed is the number of checks with StatusOK, fixed ones included.
	Passed int
	// Warned is the number of checks with StatusWarning.
	Warned int
	// Failed is the number of checks with StatusError.
	Failed int
	// Fixed is the number of checks remediated during the run.
	Fixed int
}

// Doctor runs registered health checks and reports results.
type Doctor struct {
	checks []Check
}

// Register adds a check to the run list. Checks execute in
// registration order.
func (d *Doctor) Register(c Check) {
	d.checks = append(d.checks, c)
}

// Run executes every registered check, streaming one result line to w
// as each completes. When fix is true, checks that fail and support
// remediation are fixed and re-run; only a verified re-run counts as
// fixed. The returned report tallies the final statuses.
func (d *Doctor) Run(ctx *CheckContext, w io.Writer, fix bool) *Report {
	report := &Report{}
	for _, c := range d.checks {
		result := c.Run(ctx)

		if fix && result.Status != StatusOK && c.CanFix() {
			if err := c.Fix(ctx); err == nil {
				result = c.Run(ctx)
				if result.Status == StatusOK {
					result.Fixed = true
				}
			}
		}

		printResult(w, result, ctx.Verbose)

		switch {
		case result.Fixed:
			report.Fixed++
			report.Passed++
		case result.Status == StatusOK:
			report.Passed++
		case result.Status == StatusWarning:
			report.Warned++
		case result.Status == StatusError:
			report.Failed++
		}
	}
	return report
}

// printResult writes a single check result line to w.
func printResult(w io.Writer, r *CheckResult, verbose bool) {
	icon := "✓"
	switch {
	case r.Fixed:
		// A fixed check shows as a pass.
	case r.Status == StatusWarning:
		icon = "⚠"
	case r.Status == StatusError:
		icon = "✗"
	}

	suffix := ""
	if r.Fixed {
		suffix = " (fixed)"
	}
	fmt.Fprintf(w, "  %s %s: %s%s\n", icon, r.Name, r.Message, suffix) //nolint:errcheck // best-effort output
	if verbose {
		for _, d := range r.Details {
			fmt.Fprintf(w, "      %s\n", d) //nolint:errcheck // best-effort output
		}
	}
	if r.FixHint != "" && r.Status != StatusOK && !r.Fixed {
		fmt.Fprintf(w, "      hint: %s\n", r.FixHint) //nolint:errcheck // best-effort output
	}
}

// PrintSummary writes the final summary line to w.
func PrintSummary(w io.Writer, r *Report) {
	var parts []string
	if r.Passed > 0 {
		parts = append(parts, fmt.Sprintf("%d passed", r.Passed))
	}
	if r.Warned > 0 {
		parts = append(parts, fmt.Sprintf("%d warnings", r.Warned))
	}
	if r.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", r.Failed))
	}
	if r.Fixed > 0 {
		parts = append(parts, fmt.Sprintf("%d fixed", r.Fixed))
	}
	if len(parts) == 0 {
		fmt.Fprintln(w, "\nNo checks ran.") //nolint:errcheck // best-effort output
		return
	}
	fmt.Fprintf(w, "\n%s\n", strings.Join(parts, ", ")) //nolint:errcheck // best-effort output
}
