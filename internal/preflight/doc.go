// Package preflight provides readiness checks for the binaries, directories
// and chat API reelpost depends on.
//
// The daemon runs RunAll once at startup and logs failures; the CLI "deps"
// command renders the same results as a table.
package preflight
