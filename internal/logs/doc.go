// Package logs reads the daemon log file for the "reelpost logs" command.
//
// Last returns the trailing lines with bounded memory; Follow polls from an
// offset until the context ends. A Filter narrows output to one series or
// episode by decoding JSON log lines and falls back to substring matching for
// console-format lines.
package logs
