// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"fmt"
	"sort"

	"github.com/spf13/afero"
)

// Registry maps verbs to their Command implementations. The mapping is
// fixed at construction and never mutated afterwards, which makes the
// Registry safe for concurrent use without locking.
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates a Registry holding exactly the given commands.
// Panics if a command has an empty name or a name registered twice;
// the command set is wired at startup and a bad set is a programming
// error, not a runtime condition.
func NewRegistry(cmds ...Command) *Registry {
	r := &Registry{
		commands: make(map[string]Command, len(cmds)),
	}
	for _, cmd := range cmds {
		name := cmd.Name()
		if name == "" {
			panic("builtin: cannot register command with empty name")
		}
		if _, exists := r.commands[name]; exists {
			panic(fmt.Sprintf("builtin: command %q already registered", name))
		}
		r.commands[name] = cmd
	}
	return r
}

// Defaults creates the standard console registry over the given sandbox
// filesystem: ls, cat, echo, rm.
func Defaults(fsys afero.Fs) *Registry {
	return NewRegistry(
		newLsCommand(fsys),
		newCatCommand(fsys),
		newEchoCommand(fsys),
		newRmCommand(fsys),
	)
}

// Lookup retrieves a command by verb.
// Returns nil, false if the verb is not registered.
func (r *Registry) Lookup(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns the verbs of all registered commands in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
