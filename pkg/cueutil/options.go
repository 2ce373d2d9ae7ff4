// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize is the largest CUE input Decode accepts unless
// overridden with WithMaxFileSize. Config files and seed manifests are tiny;
// anything near this limit is almost certainly a mistake.
const DefaultMaxFileSize int64 = 1 << 20 // 1 MiB

type parseOptions struct {
	filename    string
	maxFileSize int64
	concrete    bool
}

func defaultOptions() parseOptions {
	return parseOptions{
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
	}
}

// Option configures a Decode call.
type Option func(*parseOptions)

// WithFilename sets the filename used in error messages.
// Defaults to "<input>" when unset.
func WithFilename(name string) Option {
	return func(o *parseOptions) {
		o.filename = name
	}
}

// WithMaxFileSize overrides the maximum accepted input size in bytes.
func WithMaxFileSize(n int64) Option {
	return func(o *parseOptions) {
		o.maxFileSize = n
	}
}

// WithConcrete controls whether validation requires all values to be concrete.
// It defaults to true; pass false for documents where optional fields may be
// left open.
func WithConcrete(concrete bool) Option {
	return func(o *parseOptions) {
		o.concrete = concrete
	}
}
