// Package gallerydl drives the external gallery-dl executable that
// materializes raw page files for a manga into a target directory.
//
// Incremental fetches pass gallery-dl's --chapter-filter so only chapters
// above a resume point are requested. Command execution goes through an
// Executor so tests can replace the process with a scripted fake.
package gallerydl
