// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"context"
	"strings"
)

// Dispatcher routes command lines to the commands of a Registry. It is
// stateless; the same Dispatcher may serve any number of concurrent
// callers.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Execute parses a single command line and runs the matching builtin.
// The line is split on the first space into verb and argument; the
// argument keeps any remaining whitespace untouched. An unknown verb
// fails with "Unknown command" and invokes nothing.
func (d *Dispatcher) Execute(ctx context.Context, line string) Result {
	verb, arg, _ := strings.Cut(line, " ")
	cmd, ok := d.registry.Lookup(verb)
	if !ok {
		return Fail("Unknown command")
	}
	return cmd.Run(ctx, arg)
}

// Names returns the verbs the dispatcher recognizes in sorted order.
func (d *Dispatcher) Names() []string {
	return d.registry.Names()
}
