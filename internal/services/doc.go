// Package services defines shared utilities consumed by the catalog, the
// organizer, the mirror planner, and the external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and manga names for
//     logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (not found, format, source, consistency) with errors.Is.
//
// Subpackages wrap the external collaborators: the gallery-dl fetch tool and
// the weebcentral metadata provider.
package services
