// Package textutil provides text processing utilities for manga names.
//
// The primary use cases are:
//   - Normalizing display names into filesystem/URL-safe keys
//   - Sanitizing filenames for safe filesystem use
//   - Ranking catalog names by similarity to suggest a match for a typo
//
// Similarity uses term-frequency fingerprints over normalized tokens.
package textutil
