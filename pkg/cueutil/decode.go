// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"cuelang.org/go/cue"
)

// Decode compiles data, unifies it with the schema root, validates the
// result, and decodes it into T. Validation requires concrete values
// unless WithConcrete(false) is given; error messages name the file set
// with WithFilename and the offending field in JSON path notation.
func Decode[T any](s *Schema, data []byte, opts ...Option) (*T, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	name := options.filename
	if name == "" {
		name = "<input>"
	}

	// Reject absurd inputs before handing them to the evaluator.
	if err := CheckSize(name, data, options.maxFileSize); err != nil {
		return nil, err
	}

	doc := s.root.Context().CompileBytes(data, cue.Filename(name))
	if err := doc.Err(); err != nil {
		return nil, describe(err, name)
	}

	unified := s.root.Unify(doc)
	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return nil, describe(err, name)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, describe(err, name)
	}

	return &out, nil
}
