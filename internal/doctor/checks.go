// SPDX-License-Identifier: MPL-2.0

package doctor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"kernlet/internal/config"
	"kernlet/pkg/vfs"
)

// --- Config checks ---

// ConfigCheck verifies the configuration resolves from its file,
// environment, and default layers.
type ConfigCheck struct {
	opts config.LoadOptions
}

// NewConfigCheck creates a check that resolves the configuration with
// the given load options.
func NewConfigCheck(opts config.LoadOptions) *ConfigCheck {
	return &ConfigCheck{opts: opts}
}

// Name returns the check identifier.
func (c *ConfigCheck) Name() string { return "config" }

// Run resolves the configuration and reports which file applied.
func (c *ConfigCheck) Run(_ *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	_, path, err := config.Resolve(context.Background(), c.opts)
	if err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("resolve failed: %v", err)
		r.FixHint = "run kernlet config init to write a valid starter file"
		return r
	}
	r.Status = StatusOK
	if path == "" {
		r.Message = "built-in defaults (no config file found)"
	} else {
		r.Message = fmt.Sprintf("loaded %s", path)
	}
	return r
}

// CanFix returns false. Config files are written by kernlet config init.
func (c *ConfigCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *ConfigCheck) Fix(_ *CheckContext) error { return nil }

// --- Sandbox mount checks ---

// SandboxRootCheck verifies the host backend root exists and accepts
// writes. The memory backend has nothing to mount and always passes.
type SandboxRootCheck struct {
	fs config.FilesystemConfig
}

// NewSandboxRootCheck creates a check for the configured sandbox root.
func NewSandboxRootCheck(fs config.FilesystemConfig) *SandboxRootCheck {
	return &SandboxRootCheck{fs: fs}
}

// Name returns the check identifier.
func (c *SandboxRootCheck) Name() string { return "sandbox-root" }

// Run stats the root and probes it with a throwaway file.
func (c *SandboxRootCheck) Run(_ *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	if c.fs.Backend != config.BackendHost {
		r.Status = StatusOK
		r.Message = "memory backend (nothing to mount)"
		return r
	}
	root := c.fs.Root
	if strings.TrimSpace(root) == "" {
		r.Status = StatusError
		r.Message = "host backend with no root configured"
		r.FixHint = "set filesystem.root to the directory to jail"
		return r
	}

	fi, err := os.Stat(root)
	if err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("root %s does not exist", root)
		r.FixHint = "create the directory, or rerun with --fix"
		return r
	}
	if !fi.IsDir() {
		r.Status = StatusError
		r.Message = fmt.Sprintf("root %s is not a directory", root)
		return r
	}
	if c.fs.ReadOnly {
		r.Status = StatusOK
		r.Message = fmt.Sprintf("%s mounted read-only", root)
		return r
	}

	f, err := os.CreateTemp(root, ".kernlet-doctor-*")
	if err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("root %s is not writable: %v", root, err)
		return r
	}
	name := f.Name()
	f.Close()       //nolint:errcheck // probe file, removed next
	os.Remove(name) //nolint:errcheck // best-effort cleanup
	r.Status = StatusOK
	r.Message = fmt.Sprintf("%s exists and accepts writes", root)
	r.Details = []string{fmt.Sprintf("mode %s", fi.Mode().Perm())}
	return r
}

// CanFix returns true. A missing root can be created.
func (c *SandboxRootCheck) CanFix() bool { return true }

// Fix creates the root directory for the host backend.
func (c *SandboxRootCheck) Fix(_ *CheckContext) error {
	if c.fs.Backend != config.BackendHost || strings.TrimSpace(c.fs.Root) == "" {
		return nil
	}
	return os.MkdirAll(c.fs.Root, 0o755)
}

// SandboxLockCheck verifies the advisory sandbox lock can be taken.
type SandboxLockCheck struct {
	fs config.FilesystemConfig
}

// NewSandboxLockCheck creates a check for the sandbox lock file.
func NewSandboxLockCheck(fs config.FilesystemConfig) *SandboxLockCheck {
	return &SandboxLockCheck{fs: fs}
}

// Name returns the check identifier.
func (c *SandboxLockCheck) Name() string { return "sandbox-lock" }

// Run acquires and immediately releases the lock. A held lock is a
// warning, not an error: another kernel on the same root is a valid
// state, it just means this process would refuse to boot.
func (c *SandboxLockCheck) Run(_ *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	if c.fs.Backend != config.BackendHost {
		r.Status = StatusOK
		r.Message = "memory backend (no lock file)"
		return r
	}
	if !c.fs.Lock {
		r.Status = StatusOK
		r.Message = "locking disabled"
		return r
	}

	lock, err := vfs.AcquireLock(c.fs.Root)
	if errors.Is(err, vfs.ErrLocked) {
		r.Status = StatusWarning
		r.Message = "held by another process"
		r.FixHint = "stop the other kernlet, or set filesystem.lock = false"
		return r
	}
	if err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("probe failed: %v", err)
		return r
	}
	path := lock.Path()
	_ = lock.Release()
	r.Status = StatusOK
	r.Message = fmt.Sprintf("%s acquirable", path)
	return r
}

// CanFix returns false. A held lock belongs to a live process.
func (c *SandboxLockCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *SandboxLockCheck) Fix(_ *CheckContext) error { return nil }

// --- Telemetry checks ---

// DialFunc is the function used to probe the collector. Defaults to
// net.DialTimeout. Tests can override it.
type DialFunc func(network, addr string, timeout time.Duration) (net.Conn, error)

// TelemetryCheck verifies the OTLP collector is reachable when an
// endpoint is configured.
type TelemetryCheck struct {
	tc   config.TelemetryConfig
	dial DialFunc
}

// NewTelemetryCheck creates a check for the telemetry endpoint.
// A nil dial uses net.DialTimeout.
func NewTelemetryCheck(tc config.TelemetryConfig, dial DialFunc) *TelemetryCheck {
	if dial == nil {
		dial = net.DialTimeout
	}
	return &TelemetryCheck{tc: tc, dial: dial}
}

// Name returns the check identifier.
func (c *TelemetryCheck) Name() string { return "telemetry" }

// Run dials the collector over TCP. An unreachable collector is a
// warning: the kernel still runs, the exporters just drop their data.
func (c *TelemetryCheck) Run(_ *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	if c.tc.Endpoint == "" {
		r.Status = StatusOK
		r.Message = "export disabled (no endpoint set)"
		return r
	}
	conn, err := c.dial("tcp", c.tc.Endpoint, 2*time.Second)
	if err != nil {
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("collector %s not reachable: %v", c.tc.Endpoint, err)
		r.FixHint = "start the collector, or clear telemetry.endpoint"
		return r
	}
	conn.Close() //nolint:errcheck // best-effort close
	r.Status = StatusOK
	r.Message = fmt.Sprintf("collector reachable at %s", c.tc.Endpoint)
	return r
}

// CanFix returns false.
func (c *TelemetryCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *TelemetryCheck) Fix(_ *CheckContext) error { return nil }

// --- Host checks ---

// minMemoryHeadroom is the available-memory floor below which the
// doctor warns. The memory backend keeps every sandbox file resident,
// so low headroom caps sandbox capacity.
const minMemoryHeadroom = 256 << 20

// MemFunc reports host virtual memory. Defaults to mem.VirtualMemory.
// Tests can override it.
type MemFunc func() (*mem.VirtualMemoryStat, error)

// HostMemoryCheck warns when available host memory is low.
type HostMemoryCheck struct {
	virtualMemory MemFunc
}

// NewHostMemoryCheck creates a host memory headroom check.
// A nil vm uses mem.VirtualMemory.
func NewHostMemoryCheck(vm MemFunc) *HostMemoryCheck {
	if vm == nil {
		vm = mem.VirtualMemory
	}
	return &HostMemoryCheck{virtualMemory: vm}
}

// Name returns the check identifier.
func (c *HostMemoryCheck) Name() string { return "host-memory" }

// Run reads host memory and compares available bytes to the floor.
func (c *HostMemoryCheck) Run(_ *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	vm, err := c.virtualMemory()
	if err != nil {
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("probe failed: %v", err)
		return r
	}
	r.Message = fmt.Sprintf("%s available of %s (%.0f%% used)",
		fmtBytes(vm.Available), fmtBytes(vm.Total), vm.UsedPercent)
	r.Details = []string{fmt.Sprintf("used %s", fmtBytes(vm.Used))}
	if vm.Available < minMemoryHeadroom {
		r.Status = StatusWarning
		r.FixHint = "free host memory; the memory backend keeps sandbox files resident"
		return r
	}
	r.Status = StatusOK
	return r
}

// CanFix returns false.
func (c *HostMemoryCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *HostMemoryCheck) Fix(_ *CheckContext) error { return nil }

// HostFunc reports host platform information. Defaults to host.Info.
// Tests can override it.
type HostFunc func() (*host.InfoStat, error)

// HostInfoCheck is informational: it reports the host platform the
// sandbox runs on.
type HostInfoCheck struct {
	hostInfo HostFunc
}

// NewHostInfoCheck creates an informational host platform check.
// A nil hi uses host.Info.
func NewHostInfoCheck(hi HostFunc) *HostInfoCheck {
	if hi == nil {
		hi = host.Info
	}
	return &HostInfoCheck{hostInfo: hi}
}

// Name returns the check identifier.
func (c *HostInfoCheck) Name() string { return "host-info" }

// Run reports platform and kernel. Always OK when the probe succeeds.
func (c *HostInfoCheck) Run(_ *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	info, err := c.hostInfo()
	if err != nil {
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("probe failed: %v", err)
		return r
	}
	r.Status = StatusOK
	r.Message = fmt.Sprintf("%s %s (kernel %s)", info.Platform, info.PlatformVersion, info.KernelVersion)
	r.Details = []string{
		fmt.Sprintf("hostname %s", info.Hostname),
		fmt.Sprintf("up %s", time.Duration(info.Uptime)*time.Second),
	}
	return r
}

// CanFix returns false.
func (c *HostInfoCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *HostInfoCheck) Fix(_ *CheckContext) error { return nil }

// fmtBytes renders a byte count with a binary unit suffix.
func fmtBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
