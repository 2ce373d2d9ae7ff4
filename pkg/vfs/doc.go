// SPDX-License-Identifier: MPL-2.0

// Package vfs provides the sandbox filesystems kernlet boots over.
//
// Two backends exist: an in-memory filesystem seeded with the standard
// scratch directories, and a jailed view of a host directory. Both are
// plain afero.Fs values, so the console builtins and the kernel
// passthrough operations run identically on either. A host mount is
// guarded by an advisory lock file so two kernels never mutate the same
// root concurrently.
package vfs
