// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kernlet/pkg/kernel"
)

// newFsCommand creates the `kernlet fs` command tree: the passthrough
// filesystem surface, bypassing the console dispatcher. Unlike dispatched
// command lines, these operations never touch the kernel's last status;
// failures surface as ordinary process exit codes.
func newFsCommand(app *App, flags *rootFlagValues) *cobra.Command {
	fsCmd := &cobra.Command{
		Use:   "fs",
		Short: "Direct sandbox filesystem operations",
		Long: `Operate on the sandbox filesystem directly, bypassing the console
dispatcher. Each invocation boots a kernel per the resolved
configuration, performs one operation, and shuts down. Useful with
the host backend, where the sandbox outlives the process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	fsCmd.AddCommand(&cobra.Command{
		Use:   "read <path>",
		Short: "Print a sandbox file's exact contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd.Context(), app, flags, func(ctx context.Context, k *kernel.Kernel) error {
				buf, err := k.ReadFile(ctx, args[0])
				if err != nil {
					return err
				}
				// Exact contents, no trailing-newline guarantee: this is
				// the passthrough surface, not the console.
				_, werr := app.stdout.Write(buf.Bytes())
				_ = buf.Release() //nolint:errcheck // Single release; cannot fail here
				return werr
			})
		},
	})

	fsCmd.AddCommand(&cobra.Command{
		Use:   "write <path> [content]",
		Short: "Write a sandbox file from the argument or stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content []byte
			if len(args) == 2 {
				content = []byte(args[1])
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				content = data
			}
			return withKernel(cmd.Context(), app, flags, func(ctx context.Context, k *kernel.Kernel) error {
				if err := k.WriteFile(ctx, args[0], content); err != nil {
					return err
				}
				fmt.Fprintf(app.stdout, "%s Wrote %d bytes to %s\n", SuccessStyle.Render("✓"), len(content), args[0])
				return nil
			})
		},
	})

	fsCmd.AddCommand(&cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a sandbox file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd.Context(), app, flags, func(ctx context.Context, k *kernel.Kernel) error {
				if err := k.DeleteFile(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(app.stdout, "%s Removed %s\n", SuccessStyle.Render("✓"), args[0])
				return nil
			})
		},
	})

	fsCmd.AddCommand(&cobra.Command{
		Use:   "ls [path]",
		Short: "List a sandbox directory as bare names",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			return withKernel(cmd.Context(), app, flags, func(ctx context.Context, k *kernel.Kernel) error {
				buf, err := k.ListDirectory(ctx, path)
				if err != nil {
					return err
				}
				printBuffer(app.stdout, buf)
				return nil
			})
		},
	})

	fsCmd.AddCommand(&cobra.Command{
		Use:   "exists <path>",
		Short: "Report whether a sandbox path exists",
		Long: `Print "true" and exit 0 when the path exists, or print "false" and
exit 1 when it does not, so shell conditionals can branch on it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd.Context(), app, flags, func(ctx context.Context, k *kernel.Kernel) error {
				if k.Exists(ctx, args[0]) {
					fmt.Fprintln(app.stdout, "true")
					return nil
				}
				fmt.Fprintln(app.stdout, "false")
				return &ExitError{Code: 1, Err: fmt.Errorf("%s does not exist in the sandbox", args[0])}
			})
		},
	})

	return fsCmd
}

// withKernel boots a kernel for one passthrough operation and closes it
// afterwards.
func withKernel(ctx context.Context, app *App, flags *rootFlagValues, fn func(context.Context, *kernel.Kernel) error) error {
	cfg, err := app.loadConfigOrDefaults(ctx, flags)
	if err != nil {
		return err
	}
	defer setupTelemetry(ctx, app, cfg)()

	k, err := bootKernel(ctx, cfg, kernelLogger(app.stderr, cfg.Console.Level))
	if err != nil {
		return err
	}
	defer func() { _ = k.Close() }() // Invocation teardown; error non-critical

	return fn(ctx, k)
}
