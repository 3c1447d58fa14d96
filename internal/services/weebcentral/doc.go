// Package weebcentral is the metadata provider adapter. It scrapes a series
// page for manga identity and the full chapter list page for chapter
// numbers and hashes. Page bytes are never fetched here; gallery-dl does
// that.
package weebcentral
