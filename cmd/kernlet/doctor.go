// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"kernlet/internal/config"
	"kernlet/internal/doctor"
)

// newDoctorCommand creates the `kernlet doctor` command: host environment
// health checks.
func newDoctorCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var fix bool

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the host environment",
		Long: `Run health checks against the host: configuration resolves, the
sandbox root mounts and locks, the telemetry collector answers, and
the host has memory headroom for the in-memory backend. With --fix,
problems that can be remediated safely (a missing sandbox root) are
fixed in place and re-checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), app, flags, fix)
		},
	}

	doctorCmd.Flags().BoolVar(&fix, "fix", false, "attempt to fix failed checks")

	return doctorCmd
}

// runDoctor registers and runs the checks. The sandbox and telemetry
// checks need a resolved configuration; when resolution fails, the config
// check explains the failure on its own and the host checks still run.
func runDoctor(ctx context.Context, app *App, flags *rootFlagValues, fix bool) error {
	opts := config.LoadOptions{ConfigFilePath: flags.configPath}

	d := &doctor.Doctor{}
	d.Register(doctor.NewConfigCheck(opts))
	if cfg, _, err := config.Resolve(ctx, opts); err == nil {
		d.Register(doctor.NewSandboxRootCheck(cfg.Filesystem))
		d.Register(doctor.NewSandboxLockCheck(cfg.Filesystem))
		d.Register(doctor.NewTelemetryCheck(cfg.Telemetry, nil))
	}
	d.Register(doctor.NewHostMemoryCheck(nil))
	d.Register(doctor.NewHostInfoCheck(nil))

	fmt.Fprintln(app.stdout, TitleStyle.Render("kernlet doctor"))
	fmt.Fprintln(app.stdout)

	checkCtx := &doctor.CheckContext{Verbose: flags.verbose}
	report := d.Run(checkCtx, app.stdout, fix)
	doctor.PrintSummary(app.stdout, report)

	if report.Failed > 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("%d check(s) failed", report.Failed)}
	}
	return nil
}
