// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCUEPath is the sentinel error wrapped by invalid CUEPath values.
var ErrInvalidCUEPath = errors.New("invalid CUE path")

// CUEPath identifies a value inside a CUE document, such as a schema root
// definition ("#Config") or a field location reported in an error
// ("files[0].path"). A valid path must be non-empty and not whitespace-only.
type CUEPath string

// String returns the string representation of the CUEPath.
func (p CUEPath) String() string { return string(p) }

// Validate reports whether the path is usable as a CUE lookup path.
func (p CUEPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return fmt.Errorf("%w: must be non-empty", ErrInvalidCUEPath)
	}
	return nil
}
