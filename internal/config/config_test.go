// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupDirs points the global config lookup at a fresh temp directory and
// moves the working directory somewhere without a kernlet.toml. Returns the
// config directory.
func setupDirs(t *testing.T) string {
	t.Helper()
	cfgDir := t.TempDir()
	t.Cleanup(OverrideDir(cfgDir))
	t.Chdir(t.TempDir())
	return cfgDir
}

func writeGlobalCUE(t *testing.T, cfgDir, content string) string {
	t.Helper()
	path := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func writeLocalTOML(t *testing.T, content string) string {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory: %v", err)
	}
	path := filepath.Join(cwd, LocalConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing local config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	setupDirs(t)

	cfg, path, err := Resolve(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Resolve() with no config files failed: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty when no file was read", path)
	}
	if cfg.Console.Level != LevelInfo {
		t.Errorf("Console.Level = %q, want default %q", cfg.Console.Level, LevelInfo)
	}
	if cfg.Filesystem.Backend != BackendMemory {
		t.Errorf("Filesystem.Backend = %q, want default %q", cfg.Filesystem.Backend, BackendMemory)
	}
}

func TestLoad_GlobalCUE(t *testing.T) {
	cfgDir := setupDirs(t)
	want := writeGlobalCUE(t, cfgDir, `
console: level: "debug"
filesystem: {
	backend: "host"
	root:    "/tmp/sandbox"
	lock:    false
}
repl: prompt: "$ "
`)

	cfg, path, err := Resolve(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}
	if cfg.Console.Level != LevelDebug {
		t.Errorf("Console.Level = %q, want %q", cfg.Console.Level, LevelDebug)
	}
	if cfg.Filesystem.Backend != BackendHost {
		t.Errorf("Filesystem.Backend = %q, want %q", cfg.Filesystem.Backend, BackendHost)
	}
	if cfg.Filesystem.Root != "/tmp/sandbox" {
		t.Errorf("Filesystem.Root = %q, want %q", cfg.Filesystem.Root, "/tmp/sandbox")
	}
	if cfg.Filesystem.Lock {
		t.Error("Filesystem.Lock = true, want false from config file")
	}
	if cfg.REPL.Prompt != "$ " {
		t.Errorf("REPL.Prompt = %q, want %q", cfg.REPL.Prompt, "$ ")
	}
	// Untouched sections keep their defaults.
	if cfg.SSH.Addr != ":2222" {
		t.Errorf("SSH.Addr = %q, want default %q", cfg.SSH.Addr, ":2222")
	}
}

func TestLoad_InvalidCUESyntax(t *testing.T) {
	cfgDir := setupDirs(t)
	writeGlobalCUE(t, cfgDir, `console: { level: "info"`)

	_, _, err := Resolve(context.Background(), LoadOptions{})
	if err == nil {
		t.Fatal("Resolve() should fail on malformed CUE")
	}
	if !strings.Contains(err.Error(), "config.cue") {
		t.Errorf("error should mention the file, got: %v", err)
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	cfgDir := setupDirs(t)
	// "trace" is not an allowed console level.
	writeGlobalCUE(t, cfgDir, `console: level: "trace"`)

	_, _, err := Resolve(context.Background(), LoadOptions{})
	if err == nil {
		t.Fatal("Resolve() should fail when a value violates the schema")
	}
}

func TestLoad_LocalTOMLOverridesGlobal(t *testing.T) {
	cfgDir := setupDirs(t)
	globalPath := writeGlobalCUE(t, cfgDir, `
console: level: "warn"
repl: prompt: "cue> "
`)
	writeLocalTOML(t, `
[console]
level = "debug"
`)

	cfg, path, err := Resolve(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if path != globalPath {
		t.Errorf("resolved path = %q, want global %q", path, globalPath)
	}
	if cfg.Console.Level != LevelDebug {
		t.Errorf("Console.Level = %q, want %q from local override", cfg.Console.Level, LevelDebug)
	}
	// Keys absent from the local file keep the global values.
	if cfg.REPL.Prompt != "cue> " {
		t.Errorf("REPL.Prompt = %q, want %q from global file", cfg.REPL.Prompt, "cue> ")
	}
}

func TestLoad_LocalTOMLOnly(t *testing.T) {
	setupDirs(t)
	localPath := writeLocalTOML(t, `
[filesystem]
read_only = true
`)

	cfg, path, err := Resolve(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if path != localPath {
		t.Errorf("resolved path = %q, want local %q", path, localPath)
	}
	if !cfg.Filesystem.ReadOnly {
		t.Error("Filesystem.ReadOnly = false, want true from local file")
	}
}

func TestLoad_InvalidTOMLSyntax(t *testing.T) {
	setupDirs(t)
	writeLocalTOML(t, `[console`)

	_, _, err := Resolve(context.Background(), LoadOptions{})
	if err == nil {
		t.Fatal("Resolve() should fail on malformed TOML")
	}
	if !strings.Contains(err.Error(), LocalConfigFileName) {
		t.Errorf("error should mention %s, got: %v", LocalConfigFileName, err)
	}
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	cfgDir := setupDirs(t)
	writeGlobalCUE(t, cfgDir, `console: level: "warn"`)
	writeLocalTOML(t, "[console]\nlevel = \"error\"\n")
	t.Setenv("KERNLET_CONSOLE_LEVEL", "debug")

	cfg, _, err := Resolve(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if cfg.Console.Level != LevelDebug {
		t.Errorf("Console.Level = %q, want %q from environment", cfg.Console.Level, LevelDebug)
	}
}

func TestLoad_EnvBool(t *testing.T) {
	setupDirs(t)
	t.Setenv("KERNLET_FILESYSTEM_READ_ONLY", "true")

	cfg, _, err := Resolve(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if !cfg.Filesystem.ReadOnly {
		t.Error("Filesystem.ReadOnly = false, want true from environment")
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	setupDirs(t)

	_, _, err := Resolve(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil {
		t.Fatal("Resolve() should fail when the explicit config file is missing")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error should indicate a missing file, got: %v", err)
	}
}

func TestLoad_ExplicitPathSkipsOtherLayers(t *testing.T) {
	cfgDir := setupDirs(t)
	writeGlobalCUE(t, cfgDir, `console: level: "error"`)
	writeLocalTOML(t, "[console]\nlevel = \"warn\"\n")

	custom := filepath.Join(t.TempDir(), "custom.cue")
	if err := os.WriteFile(custom, []byte(`console: level: "debug"`), 0o644); err != nil {
		t.Fatalf("writing custom config: %v", err)
	}

	cfg, path, err := Resolve(context.Background(), LoadOptions{ConfigFilePath: custom})
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if path != custom {
		t.Errorf("resolved path = %q, want %q", path, custom)
	}
	if cfg.Console.Level != LevelDebug {
		t.Errorf("Console.Level = %q, want %q from the explicit file only", cfg.Console.Level, LevelDebug)
	}
}

func TestLoad_ExplicitTOMLPath(t *testing.T) {
	setupDirs(t)

	custom := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(custom, []byte("[repl]\nprompt = \"toml> \"\n"), 0o644); err != nil {
		t.Fatalf("writing custom config: %v", err)
	}

	cfg, _, err := Resolve(context.Background(), LoadOptions{ConfigFilePath: custom})
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if cfg.REPL.Prompt != "toml> " {
		t.Errorf("REPL.Prompt = %q, want %q", cfg.REPL.Prompt, "toml> ")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	cfgDir := setupDirs(t)
	// host backend without a root passes the CUE schema but fails Go-side
	// validation.
	writeGlobalCUE(t, cfgDir, `filesystem: backend: "host"`)

	_, _, err := Resolve(context.Background(), LoadOptions{})
	if err == nil {
		t.Fatal("Resolve() should fail when host backend has no root")
	}
	if !errors.Is(err, ErrInvalidSandboxRoot) {
		t.Errorf("error should wrap ErrInvalidSandboxRoot, got: %v", err)
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	setupDirs(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Resolve(ctx, LoadOptions{})
	if err == nil {
		t.Fatal("Resolve() should fail with a canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got: %v", err)
	}
}

func TestDir_Override(t *testing.T) {
	t.Cleanup(OverrideDir("/custom/dir"))

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() failed: %v", err)
	}
	if dir != "/custom/dir" {
		t.Errorf("Dir() = %q, want %q", dir, "/custom/dir")
	}
}

func TestGlobalConfigPath(t *testing.T) {
	cfgDir := setupDirs(t)

	path, err := GlobalConfigPath()
	if err != nil {
		t.Fatalf("GlobalConfigPath() failed: %v", err)
	}
	want := filepath.Join(cfgDir, "config.cue")
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	cfgDir := setupDirs(t)

	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() failed: %v", err)
	}

	path := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	if !strings.Contains(string(data), `backend: "memory"`) {
		t.Errorf("default config should contain the default backend, got:\n%s", data)
	}

	// A second call must not clobber user edits.
	if err := os.WriteFile(path, []byte(`console: level: "debug"`), 0o644); err != nil {
		t.Fatalf("editing config: %v", err)
	}
	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() second call failed: %v", err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading config after second call: %v", err)
	}
	if string(data) != `console: level: "debug"` {
		t.Error("CreateDefaultConfig() overwrote an existing config file")
	}

	// The generated file must load cleanly.
	if err := os.Remove(path); err != nil {
		t.Fatalf("removing config: %v", err)
	}
	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() failed: %v", err)
	}
	if _, _, err := Resolve(context.Background(), LoadOptions{}); err != nil {
		t.Errorf("generated default config does not load: %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	setupDirs(t)

	cfg := DefaultConfig()
	cfg.Console.Level = LevelDebug
	cfg.Filesystem.Backend = BackendHost
	cfg.Filesystem.Root = "/srv/sandbox"
	cfg.Filesystem.Seed = "seed.cue"
	cfg.SSH.HostKey = "/etc/kernlet/hostkey"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, _, err := Resolve(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Resolve() after Save() failed: %v", err)
	}
	if loaded.Console.Level != LevelDebug {
		t.Errorf("Console.Level = %q, want %q", loaded.Console.Level, LevelDebug)
	}
	if loaded.Filesystem.Root != "/srv/sandbox" {
		t.Errorf("Filesystem.Root = %q, want %q", loaded.Filesystem.Root, "/srv/sandbox")
	}
	if loaded.Filesystem.Seed != "seed.cue" {
		t.Errorf("Filesystem.Seed = %q, want %q", loaded.Filesystem.Seed, "seed.cue")
	}
	if loaded.SSH.HostKey != "/etc/kernlet/hostkey" {
		t.Errorf("SSH.HostKey = %q, want %q", loaded.SSH.HostKey, "/etc/kernlet/hostkey")
	}
}

func TestSave_RejectsInvalidConfig(t *testing.T) {
	setupDirs(t)

	cfg := DefaultConfig()
	cfg.Filesystem.Backend = "floppy"

	if err := Save(cfg); err == nil {
		t.Fatal("Save() should reject an invalid config")
	}
}

func TestGenerateTOML(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Console.Level = LevelWarn
	out := GenerateTOML(cfg)

	for _, want := range []string{"[console]", `level = "warn"`, "[filesystem]", `backend = "memory"`, "[repl]"} {
		if !strings.Contains(out, want) {
			t.Errorf("GenerateTOML() output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateCUE_RoundTripsThroughSchema(t *testing.T) {
	cfgDir := setupDirs(t)

	cfg := DefaultConfig()
	cfg.Telemetry.Endpoint = "localhost:4318"
	cfg.Telemetry.Insecure = true

	out := GenerateCUE(cfg)
	writeGlobalCUE(t, cfgDir, out)

	loaded, _, err := Resolve(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("generated CUE does not load: %v\n%s", err, out)
	}
	if loaded.Telemetry.Endpoint != "localhost:4318" {
		t.Errorf("Telemetry.Endpoint = %q, want %q", loaded.Telemetry.Endpoint, "localhost:4318")
	}
	if !loaded.Telemetry.Insecure {
		t.Error("Telemetry.Insecure = false, want true")
	}
}
