// SPDX-License-Identifier: MPL-2.0

// Package seedfile parses and applies seed manifests.
//
// A seed manifest is a CUE document describing the initial contents of a
// sandbox filesystem: directories to create and files to write before the
// kernel boots. Manifests are validated against an embedded schema; every
// path must be absolute and slash-separated.
//
//	dirs: ["/home/user"]
//
//	files: {
//		"/etc/motd": "welcome\n"
//	}
package seedfile
