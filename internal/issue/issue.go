// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"

	"github.com/charmbracelet/glamour"
)

// ID names an entry in the help page catalog.
type ID int

const (
	ConfigLoadFailed ID = iota + 1
	ConfigInvalid
	SandboxRootNotFound
	SandboxLocked
	SeedParseError
	ConsoleServerStartFailed
)

// Page is one catalog entry: a markdown help page for a failure class the
// CLI can hit. Pages are rendered to the terminal after the error line, so
// they lead with what went wrong and move straight to fixes.
type Page struct {
	id   ID
	body string
}

// ID returns the catalog id of the page.
func (p *Page) ID() ID { return p.id }

// Markdown returns the raw markdown body.
func (p *Page) Markdown() string { return p.body }

// Render returns the page rendered for the terminal with the given glamour
// style.
func (p *Page) Render(style string) (string, error) {
	return render(p.body, style)
}

// render is swappable in tests.
var render = glamour.Render

var catalog = map[ID]*Page{
	ConfigLoadFailed: {
		id: ConfigLoadFailed,
		body: `
# Failed to load configuration!

Could not load the kernlet configuration file.

## Configuration file locations:
- Linux: ~/.config/kernlet/config.cue
- macOS: ~/Library/Application Support/kernlet/config.cue
- Windows: %APPDATA%\kernlet\config.cue
- Project-local overrides: ./kernlet.toml

## Things you can try:
- Regenerate a default configuration:
~~~
$ kernlet config init
~~~

- Print the schema and check your file against it:
~~~
$ kernlet config schema
~~~

- Delete the file to fall back to built-in defaults:
~~~
$ rm ~/.config/kernlet/config.cue
~~~

## Example configuration:
~~~cue
console: {
  level: "info"
}

filesystem: {
  backend: "memory"
}
~~~`,
	},

	ConfigInvalid: {
		id: ConfigInvalid,
		body: `
# Invalid configuration!

Your configuration file parsed but contains values kernlet cannot use.

## Common issues:
- Unknown filesystem backend (valid: "memory", "host")
- Unknown console level (valid: "debug", "info", "warn", "error")
- A "host" backend without a filesystem root

## Things you can try:
- Check the error message above for the exact field
- Print the effective configuration:
~~~
$ kernlet config show
~~~

- Start over from defaults:
~~~
$ kernlet config init
~~~

## Example of a valid host mount:
~~~cue
filesystem: {
  backend: "host"
  root:    "/var/lib/kernlet/sandbox"
  lock:    true
}
~~~`,
	},

	SandboxRootNotFound: {
		id: SandboxRootNotFound,
		body: `
# Sandbox root not found!

The "host" filesystem backend needs an existing directory to mount as the
sandbox root, and the configured path is missing or not a directory.

## Things you can try:
- Create the directory:
~~~
$ mkdir -p /var/lib/kernlet/sandbox
~~~

- Let kernlet create it for you:
~~~
$ kernlet doctor --fix
~~~

- Point the config at a directory that exists:
~~~cue
filesystem: {
  backend: "host"
  root:    "/path/that/exists"
}
~~~

- Or switch to the in-memory backend, which needs no host directory:
~~~cue
filesystem: {
  backend: "memory"
}
~~~`,
	},

	SandboxLocked: {
		id: SandboxLocked,
		body: `
# Sandbox is locked!

Another kernlet process is already running against this sandbox root.
The lock prevents two kernels from mutating the same host directory.

## Things you can try:
- Find the other kernlet process and stop it
- Wait for the other process to finish
- Use a different sandbox root
- If no other process is running, remove a stale lock file:
~~~
$ rm <sandbox-root>/.kernlet.lock
~~~

- Or disable locking (unsafe with concurrent kernels):
~~~cue
filesystem: {
  lock: false
}
~~~`,
	},

	SeedParseError: {
		id: SeedParseError,
		body: `
# Failed to parse seed manifest!

The seed manifest describes files to create in the sandbox before boot,
and the one you pointed kernlet at contains errors.

## Common issues:
- Invalid CUE syntax (missing quotes, braces, etc.)
- Relative paths (all seed paths must start with "/")
- Non-string file contents

## Example of a valid seed manifest:
~~~cue
dirs: ["/home/user", "/etc"]

files: {
	"/etc/motd":          "welcome to kernlet\n"
	"/home/user/hello":   "hi\n"
}
~~~`,
	},

	ConsoleServerStartFailed: {
		id: ConsoleServerStartFailed,
		body: `
# Console server failed to start!

The SSH console server could not bind its listen address.

## Common causes:
- The address is already in use
- The port needs elevated privileges (ports below 1024)
- The host key path is not writable

## Things you can try:
- Pick a different address:
~~~cue
ssh: {
  addr: ":2222"
}
~~~

- Check for another listener:
~~~
$ ss -tlnp | grep 2222
~~~`,
	},
}

// Get returns the catalog page for id, or nil for an unknown id.
func Get(id ID) *Page {
	return catalog[id]
}

// All returns every catalog page in id order.
func All() []*Page {
	pages := make([]*Page, 0, len(catalog))
	for _, p := range catalog {
		pages = append(pages, p)
	}
	slices.SortFunc(pages, func(a, b *Page) int { return int(a.id) - int(b.id) })
	return pages
}
