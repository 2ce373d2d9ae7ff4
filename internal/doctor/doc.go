// SPDX-License-Identifier: MPL-2.0

// Package doctor runs environment health checks for the sandbox
// runtime: configuration resolves, a host sandbox root can be mounted
// and locked, the telemetry collector is reachable, and the host has
// memory headroom for the in-memory backend. Results stream to a
// writer as each check completes; fixable problems can be remediated
// in place.
package doctor
