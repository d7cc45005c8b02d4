// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Streams carry their codec type and language tag; untagged streams report
// "und". Parse decodes output captured by whatever executor ran ffprobe.
package ffprobe
