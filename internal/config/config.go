// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"kernlet/internal/issue"
	"kernlet/pkg/cueutil"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "kernlet"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFileName is the per-directory override file looked up in
	// the current working directory and merged over the global config.
	LocalConfigFileName = "kernlet.toml"
	// EnvPrefix is the prefix for environment overrides, e.g.
	// KERNLET_CONSOLE_LEVEL=debug.
	EnvPrefix = "KERNLET"
)

//go:embed config_schema.cue
var schemaSrc string

// configSchema is compiled once; every config file decodes against it.
var configSchema = cueutil.MustLoad(schemaSrc, "#Config")

// dirOverride redirects Dir for tests. os.UserHomeDir ignores a repointed
// HOME on some platforms, so t.Setenv alone cannot isolate a test from the
// developer's real config.
var dirOverride string

// OverrideDir points the package at dir until the returned restore function
// runs. Test-only.
func OverrideDir(dir string) (restore func()) {
	prev := dirOverride
	dirOverride = dir
	return func() { dirOverride = prev }
}

// Dir returns the kernlet configuration directory: %APPDATA%\kernlet on
// Windows, ~/Library/Application Support/kernlet on macOS, and
// $XDG_CONFIG_HOME/kernlet (default ~/.config/kernlet) elsewhere.
func Dir() (string, error) {
	if dirOverride != "" {
		return dirOverride, nil
	}
	base, err := userConfigRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

// userConfigRoot resolves the platform's per-user configuration root.
func userConfigRoot() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return appData, nil
		}
		return filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming"), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, ".config"), nil
	}
}

// GlobalConfigPath returns the full path of the global config file.
func GlobalConfigPath() (string, error) {
	cfgDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state. Precedence, lowest to highest: defaults, global
// config.cue, local kernlet.toml, KERNLET_* environment variables. When
// opts.ConfigFilePath is set it is used exclusively and the global and
// local files are skipped.
//
// The returned string is the path of the primary config file that was read,
// or "" when only defaults and environment variables applied.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, "", err
	}

	v := viper.New()

	// Register the full key set up front so Unmarshal and AutomaticEnv see
	// every key even when no config file is present.
	defaults := DefaultConfig()
	for key, val := range map[string]any{
		"console.level":        string(defaults.Console.Level),
		"filesystem.backend":   string(defaults.Filesystem.Backend),
		"filesystem.root":      defaults.Filesystem.Root,
		"filesystem.read_only": defaults.Filesystem.ReadOnly,
		"filesystem.lock":      defaults.Filesystem.Lock,
		"filesystem.seed":      defaults.Filesystem.Seed,
		"telemetry.endpoint":   defaults.Telemetry.Endpoint,
		"telemetry.insecure":   defaults.Telemetry.Insecure,
		"repl.prompt":          defaults.REPL.Prompt,
		"repl.history":         defaults.REPL.History,
		"ssh.addr":             defaults.SSH.Addr,
		"ssh.host_key":         defaults.SSH.HostKey,
	} {
		v.SetDefault(key, val)
	}

	// Environment overrides beat every file layer.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	switch {
	case opts.ConfigFilePath != "":
		// An explicit --config file is used exclusively.
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.New("load configuration").
				At(opts.ConfigFilePath).
				Hint("Verify the file path is correct",
					"Check that the file exists and is readable",
					"Use 'kernlet config show' to see the default configuration").
				See(issue.ConfigLoadFailed).
				Because(errors.New("config file not found"))
		}
		if err := loadFileIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", issue.New("load configuration").
				At(opts.ConfigFilePath).
				Hint("Check that the file contains valid CUE or TOML syntax",
					"Use 'kernlet config schema' to see the expected fields").
				See(issue.ConfigLoadFailed).
				Because(err)
		}
		resolvedPath = opts.ConfigFilePath

	default:
		cfgDir := opts.ConfigDirPath
		if cfgDir == "" {
			var err error
			if cfgDir, err = Dir(); err != nil {
				return nil, "", err
			}
		}

		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", issue.New("load configuration").
					At(cuePath).
					Hint("Check that the file contains valid CUE syntax",
						"Use 'kernlet config schema' to see the expected fields").
					See(issue.ConfigLoadFailed).
					Because(err)
			}
			resolvedPath = cuePath
		}

		// A kernlet.toml in the working directory overrides the global file.
		if localPath, ok := localConfigPath(); ok {
			if err := loadTOMLIntoViper(v, localPath); err != nil {
				return nil, "", issue.New("load configuration").
					At(localPath).
					Hint("Check that the file contains valid TOML syntax",
						"Use 'kernlet config schema' to see the expected fields").
					See(issue.ConfigLoadFailed).
					Because(err)
			}
			if resolvedPath == "" {
				resolvedPath = localPath
			}
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate constraints the file layers cannot express, such as the host
	// backend requiring a sandbox root.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.New("validate configuration").
			At(resolvedPath).
			Hint("Use 'kernlet config show' to inspect the effective configuration",
				"Use 'kernlet config init' to regenerate a default config file").
			See(issue.ConfigInvalid).
			Because(errors.Join(errs...))
	}

	return cfg, resolvedPath, nil
}

// localConfigPath reports the kernlet.toml in the current working
// directory, if one exists.
func localConfigPath() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	p := filepath.Join(cwd, LocalConfigFileName)
	if !fileExists(p) {
		return "", false
	}
	return p, true
}

// loadFileIntoViper dispatches on the file extension so --config accepts
// either format.
func loadFileIntoViper(v *viper.Viper, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return loadTOMLIntoViper(v, path)
	}
	return loadCUEIntoViper(v, path)
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper. Validation is non-concrete because every
// config field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	fields, err := cueutil.Decode[map[string]any](configSchema, data,
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*fields); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// loadTOMLIntoViper decodes a TOML override file and merges its contents into
// Viper. Unknown keys are carried through harmlessly; invalid values surface
// via Config.IsValid after Unmarshal.
func loadTOMLIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckSize(path, data, cueutil.DefaultMaxFileSize); err != nil {
		return err
	}

	configMap := map[string]any{}
	if err := toml.Unmarshal(data, &configMap); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	cfgDir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// writeGlobal renders cfg as CUE and writes it to the global config path,
// creating the config directory as needed.
func writeGlobal(cfg *Config) error {
	cfgPath, err := GlobalConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateDefaultConfig writes a default global config file. An existing file
// is left untouched so user edits survive repeated `kernlet config init`.
func CreateDefaultConfig() error {
	cfgPath, err := GlobalConfigPath()
	if err != nil {
		return err
	}
	if fileExists(cfgPath) {
		return nil
	}
	return writeGlobal(DefaultConfig())
}

// Save writes the current configuration to the global config file.
func Save(cfg *Config) error {
	if valid, errs := cfg.IsValid(); !valid {
		return fmt.Errorf("refusing to save invalid config: %w", errors.Join(errs...))
	}
	return writeGlobal(cfg)
}

// GenerateCUE renders cfg as a commented CUE document, the format written
// by `kernlet config init` and `kernlet config set`.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// kernlet configuration file.\n")
	sb.WriteString("// Omitted fields use built-in defaults. A kernlet.toml in the working\n")
	sb.WriteString("// directory overrides this file; KERNLET_* env vars override both.\n\n")

	fmt.Fprintf(&sb, "console: {\n\tlevel: %q\n}\n", cfg.Console.Level)

	sb.WriteString("\nfilesystem: {\n")
	fmt.Fprintf(&sb, "\tbackend: %q\n", cfg.Filesystem.Backend)
	if cfg.Filesystem.Root != "" {
		fmt.Fprintf(&sb, "\troot: %q\n", cfg.Filesystem.Root)
	} else {
		sb.WriteString("\t// root: \"/var/lib/kernlet/sandbox\" // required by the host backend\n")
	}
	fmt.Fprintf(&sb, "\tread_only: %v\n", cfg.Filesystem.ReadOnly)
	fmt.Fprintf(&sb, "\tlock: %v\n", cfg.Filesystem.Lock)
	if cfg.Filesystem.Seed != "" {
		fmt.Fprintf(&sb, "\tseed: %q\n", cfg.Filesystem.Seed)
	}
	sb.WriteString("}\n")

	sb.WriteString("\ntelemetry: {\n")
	if cfg.Telemetry.Endpoint != "" {
		fmt.Fprintf(&sb, "\tendpoint: %q\n", cfg.Telemetry.Endpoint)
	} else {
		sb.WriteString("\t// endpoint: \"localhost:4318\" // empty disables export\n")
	}
	fmt.Fprintf(&sb, "\tinsecure: %v\n", cfg.Telemetry.Insecure)
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nrepl: {\n\tprompt: %q\n\thistory: %v\n}\n", cfg.REPL.Prompt, cfg.REPL.History)

	sb.WriteString("\nssh: {\n")
	fmt.Fprintf(&sb, "\taddr: %q\n", cfg.SSH.Addr)
	if cfg.SSH.HostKey != "" {
		fmt.Fprintf(&sb, "\thost_key: %q\n", cfg.SSH.HostKey)
	}
	sb.WriteString("}\n")

	return sb.String()
}

// GenerateTOML renders cfg as a TOML document, suitable as a per-directory
// kernlet.toml override file. Only the sections that make sense as local
// overrides are emitted.
func GenerateTOML(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("# kernlet per-directory overrides.\n")
	sb.WriteString("# Values here take precedence over the global config.cue.\n\n")

	fmt.Fprintf(&sb, "[console]\nlevel = %q\n", cfg.Console.Level)

	sb.WriteString("\n[filesystem]\n")
	fmt.Fprintf(&sb, "backend = %q\n", cfg.Filesystem.Backend)
	if cfg.Filesystem.Root != "" {
		fmt.Fprintf(&sb, "root = %q\n", cfg.Filesystem.Root)
	}
	fmt.Fprintf(&sb, "read_only = %v\n", cfg.Filesystem.ReadOnly)
	fmt.Fprintf(&sb, "lock = %v\n", cfg.Filesystem.Lock)
	if cfg.Filesystem.Seed != "" {
		fmt.Fprintf(&sb, "seed = %q\n", cfg.Filesystem.Seed)
	}

	fmt.Fprintf(&sb, "\n[repl]\nprompt = %q\nhistory = %v\n", cfg.REPL.Prompt, cfg.REPL.History)

	return sb.String()
}
