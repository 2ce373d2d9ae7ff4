// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates and decodes CUE documents against embedded
// schemas. The config package uses it for global config files and the
// seedfile package for sandbox seed manifests; both follow the same
// pattern of compiling the schema once and decoding per input:
//
//	//go:embed seed_schema.cue
//	var schemaSrc string
//
//	var seedSchema = cueutil.MustLoad(schemaSrc, "#Seed")
//
//	func parse(data []byte, path string) (*Seed, error) {
//	    return cueutil.Decode[Seed](seedSchema, data, cueutil.WithFilename(path))
//	}
//
// Decode errors name the offending field in JSON path notation, so a bad
// entry reads "seed.cue: files[0].path: invalid value".
package cueutil
