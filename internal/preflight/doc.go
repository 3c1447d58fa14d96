// Package preflight provides readiness checks for the filesystem paths and
// external binaries mgdl depends on.
//
// The CLI "mgdl doctor" command runs RunAll and CheckSystemDeps and prints
// each result. Commands that fetch pages call RequireFetcher first so a
// missing gallery-dl fails fast instead of after the provider round trip.
package preflight
