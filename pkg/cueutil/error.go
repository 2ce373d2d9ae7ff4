// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// describe flattens a CUE error into "file: path: message" form, one line
// per problem. CUE reports field locations as flat string slices; these
// come out in JSON path notation (files[0].path) instead. Errors from
// outside the evaluator pass through with just the filename prefix.
func describe(err error, filename string) error {
	var cueErr cueerrors.Error
	if !errors.As(err, &cueErr) {
		return fmt.Errorf("%s: %w", filename, err)
	}

	list := cueerrors.Errors(err)
	lines := make([]string, 0, len(list))
	for _, e := range list {
		lines = append(lines, problemLine(e))
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filename, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filename, strings.Join(lines, "\n  "))
}

// problemLine renders one CUE error as "path: message", dropping the path
// prefix CUE sometimes repeats inside the message itself.
func problemLine(e cueerrors.Error) string {
	path := jsonPath(cueerrors.Path(e))
	msg := e.Error()

	if path == "" {
		return msg
	}
	if rest, ok := strings.CutPrefix(msg, path); ok {
		msg = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	}
	return path + ": " + msg
}

// jsonPath joins CUE path elements with dots, rendering numeric elements
// as array indices: ["files", "0", "path"] becomes "files[0].path".
func jsonPath(parts []string) string {
	var b strings.Builder
	for i, part := range parts {
		if _, err := strconv.Atoi(part); err == nil && i > 0 {
			b.WriteByte('[')
			b.WriteString(part)
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

// CheckSize rejects inputs larger than max bytes. Decode applies it to
// CUE documents; it is exported so callers can guard non-CUE reads, such
// as the TOML override file, with the same limit.
func CheckSize(filename string, data []byte, max int64) error {
	if int64(len(data)) > max {
		return fmt.Errorf("%s: %d byte input exceeds the %d byte limit", filename, len(data), max)
	}
	return nil
}
