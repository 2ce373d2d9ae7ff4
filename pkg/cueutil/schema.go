// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Schema is a compiled CUE schema rooted at one definition, ready to
// validate and decode documents with Decode. Compile once, typically at
// package init from an embedded source, and reuse across calls.
type Schema struct {
	root cue.Value
}

// Load compiles src and looks up the root definition, such as "#Seed".
func Load(src string, root CUEPath) (*Schema, error) {
	if err := root.Validate(); err != nil {
		return nil, err
	}

	v := cuecontext.New().CompileString(src)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	def := v.LookupPath(cue.ParsePath(root.String()))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("schema has no %s definition: %w", root, err)
	}

	return &Schema{root: def}, nil
}

// MustLoad is Load for embedded schemas, panicking on error. A failure
// here is a build defect, not a runtime condition.
func MustLoad(src string, root CUEPath) *Schema {
	s, err := Load(src, root)
	if err != nil {
		panic("cueutil: " + err.Error())
	}
	return s
}
