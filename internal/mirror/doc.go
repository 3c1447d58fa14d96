// Package mirror plans and runs the reconciliation between the provider, the
// catalog, and the on-disk library.
//
// A Mirror resolves manga through the catalog, computes the resume point
// from existing chapter directories, asks the fetch tool for anything newer,
// and hands the result to the organizer. Sweep drives Update across every
// ongoing manga and reports per-manga outcomes instead of stopping at the
// first failure. Work on a single manga directory is serialized across
// processes with a file lock in the state directory.
package mirror
