// Package organizer canonicalizes freshly fetched page files into the
// library layout:
//
//	<manga_dir>/<normalized_name>/chapter_<major>-<minor>/<page>.<ext>
//
// Work is split in two. Plan is pure: it maps a directory listing onto a
// list of moves and per-file FormatErrors without touching disk. Apply
// performs those moves, creating chapter directories as needed, and keeps
// going past individual failures. Only the top level of a manga directory
// is inspected, so running the organizer over an already organized tree
// plans nothing.
package organizer
