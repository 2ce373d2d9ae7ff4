// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kernlet/internal/config"
)

// newConfigCommand creates the `kernlet config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage kernlet configuration",
		Long: `Manage kernlet configuration.

Configuration layers, lowest to highest precedence:
  - built-in defaults
  - global config.cue in the kernlet config directory
  - kernlet.toml in the working directory
  - KERNLET_* environment variables

--config PATH replaces the global and local files with one explicit file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, flags)
		},
	})

	var initLocal bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile(app, initLocal)
		},
	}
	initCmd.Flags().BoolVar(&initLocal, "local", false, "write a kernlet.toml override in the working directory instead")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a value in the global configuration file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd.Context(), app, args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the resolved configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfigOrDefaults(cmd.Context(), flags)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Output the configuration JSON Schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.JSONSchema()
			if err != nil {
				return err
			}
			_, err = app.stdout.Write(data)
			return err
		},
	})

	return cfgCmd
}

// showConfig prints the resolved configuration with its source file.
func showConfig(ctx context.Context, app *App, flags *rootFlagValues) error {
	cfg, path, err := config.Resolve(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(app.stdout)

	if path == "" {
		fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("Config file"), path)
	}
	fmt.Fprintln(app.stdout)

	fmt.Fprintf(app.stdout, "%s:\n", keyStyle.Render("console"))
	fmt.Fprintf(app.stdout, "  level: %s\n", valueStyle.Render(string(cfg.Console.Level)))

	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s:\n", keyStyle.Render("filesystem"))
	fmt.Fprintf(app.stdout, "  backend: %s\n", valueStyle.Render(string(cfg.Filesystem.Backend)))
	if cfg.Filesystem.Root == "" {
		fmt.Fprintf(app.stdout, "  root: %s\n", SubtitleStyle.Render("(not set)"))
	} else {
		fmt.Fprintf(app.stdout, "  root: %s\n", valueStyle.Render(cfg.Filesystem.Root))
	}
	fmt.Fprintf(app.stdout, "  read_only: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Filesystem.ReadOnly)))
	fmt.Fprintf(app.stdout, "  lock: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Filesystem.Lock)))
	if cfg.Filesystem.Seed == "" {
		fmt.Fprintf(app.stdout, "  seed: %s\n", SubtitleStyle.Render("(none)"))
	} else {
		fmt.Fprintf(app.stdout, "  seed: %s\n", valueStyle.Render(cfg.Filesystem.Seed))
	}

	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s:\n", keyStyle.Render("telemetry"))
	if cfg.Telemetry.Endpoint == "" {
		fmt.Fprintf(app.stdout, "  endpoint: %s\n", SubtitleStyle.Render("(export disabled)"))
	} else {
		fmt.Fprintf(app.stdout, "  endpoint: %s\n", valueStyle.Render(cfg.Telemetry.Endpoint))
	}
	fmt.Fprintf(app.stdout, "  insecure: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Telemetry.Insecure)))

	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s:\n", keyStyle.Render("repl"))
	fmt.Fprintf(app.stdout, "  prompt: %s\n", valueStyle.Render(fmt.Sprintf("%q", cfg.REPL.Prompt)))
	fmt.Fprintf(app.stdout, "  history: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.REPL.History)))

	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%s:\n", keyStyle.Render("ssh"))
	fmt.Fprintf(app.stdout, "  addr: %s\n", valueStyle.Render(cfg.SSH.Addr))
	if cfg.SSH.HostKey == "" {
		fmt.Fprintf(app.stdout, "  host_key: %s\n", SubtitleStyle.Render("(ephemeral)"))
	} else {
		fmt.Fprintf(app.stdout, "  host_key: %s\n", valueStyle.Render(cfg.SSH.HostKey))
	}

	return nil
}

// initConfigFile writes a starter configuration: the commented global
// config.cue, or with --local a kernlet.toml override in the working
// directory. Existing files are left alone.
func initConfigFile(app *App, local bool) error {
	if local {
		if _, err := os.Stat(config.LocalConfigFileName); err == nil {
			return fmt.Errorf("%s already exists", config.LocalConfigFileName)
		}
		content := config.GenerateTOML(config.DefaultConfig())
		if err := os.WriteFile(config.LocalConfigFileName, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", config.LocalConfigFileName, err)
		}
		fmt.Fprintf(app.stdout, "%s Created local override %s\n", SuccessStyle.Render("✓"), config.LocalConfigFileName)
		return nil
	}

	cfgPath, err := config.GlobalConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Fprintf(app.stdout, "Configuration already exists at %s\n", cfgPath)
		return nil
	}
	if err := config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), cfgPath)
	return nil
}

// showConfigPath prints where configuration is looked up.
func showConfigPath(app *App) error {
	cfgDir, err := config.Dir()
	if err != nil {
		return err
	}
	cfgPath, err := config.GlobalConfigPath()
	if err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(app.stdout, "Global config:    %s\n", cfgPath)
	fmt.Fprintf(app.stdout, "Local override:   ./%s\n", config.LocalConfigFileName)
	return nil
}

// setConfigValue updates one key in the global configuration file. Save
// validates the whole config first, so an invalid enum value is rejected
// with its field error rather than written out.
func setConfigValue(ctx context.Context, app *App, key, value string) error {
	cfg, _, err := config.Resolve(ctx, config.LoadOptions{})
	if err != nil {
		return err
	}

	switch key {
	case "console.level":
		cfg.Console.Level = config.Level(value)
	case "filesystem.backend":
		cfg.Filesystem.Backend = config.Backend(value)
	case "filesystem.root":
		cfg.Filesystem.Root = value
	case "filesystem.read_only":
		cfg.Filesystem.ReadOnly = parseBoolValue(value)
	case "filesystem.lock":
		cfg.Filesystem.Lock = parseBoolValue(value)
	case "filesystem.seed":
		cfg.Filesystem.Seed = value
	case "telemetry.endpoint":
		cfg.Telemetry.Endpoint = value
	case "telemetry.insecure":
		cfg.Telemetry.Insecure = parseBoolValue(value)
	case "repl.prompt":
		cfg.REPL.Prompt = value
	case "repl.history":
		cfg.REPL.History = parseBoolValue(value)
	case "ssh.addr":
		cfg.SSH.Addr = value
	case "ssh.host_key":
		cfg.SSH.HostKey = value
	default:
		return fmt.Errorf("unknown configuration key: %s\nValid keys: console.level, filesystem.backend, filesystem.root, filesystem.read_only, filesystem.lock, filesystem.seed, telemetry.endpoint, telemetry.insecure, repl.prompt, repl.history, ssh.addr, ssh.host_key", key)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(app.stdout, "%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}

// parseBoolValue interprets "true" and "1" as true, everything else as false.
func parseBoolValue(value string) bool {
	return value == "true" || value == "1"
}
