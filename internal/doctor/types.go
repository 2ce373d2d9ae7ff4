// SPDX-License-Identifier: MPL-2.0

package doctor

// CheckStatus is the outcome of a single health check.
type CheckStatus int

const (
	// StatusOK means the check passed.
	StatusOK CheckStatus = iota
	// StatusWarning means the environment is usable but degraded.
	StatusWarning
	// StatusError means the kernel cannot run until the problem is resolved.
	StatusError
)

// CheckContext carries run-wide settings into each check.
type CheckContext struct {
	// Verbose includes per-check detail lines in the output.
	Verbose bool
}

// CheckResult is the outcome of one check run.
type CheckResult struct {
	// Name identifies the check that produced this result.
	Name string
	// Status is the outcome.
	Status CheckStatus
	// Message is the one-line summary printed next to the status icon.
	Message string
	// Details are extra lines shown in verbose mode.
	Details []string
	// FixHint suggests a manual remediation for failing checks.
	FixHint string
	// Fixed is set by the runner when a fix was applied and verified.
	Fixed bool
}

// Check is a single environment health check.
type Check interface {
	// Name identifies the check in output.
	Name() string
	// Run executes the check and reports its result.
	Run(ctx *CheckContext) *CheckResult
	// CanFix reports whether Fix can remediate a failing run.
	CanFix() bool
	// Fix attempts remediation. Only called when CanFix is true.
	Fix(ctx *CheckContext) error
}
