// Package acquire turns a source URL into a local file.
//
// Selector applies a fixed precedence: a registered site adapter for the
// domain, then the generic downloader for allow-listed domains, then a plain
// unauthenticated transfer. Transfers stream to a ".part" file that is renamed
// into place on success. Nothing in this package retries; a failed
// acquisition fails the episode for the current pass.
package acquire
