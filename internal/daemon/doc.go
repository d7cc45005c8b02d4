// Package daemon runs the scheduler loop of the long-running reelpost
// process.
//
// A flock-guarded lock file under paths.data_dir keeps a single scheduler
// per host. Each tick polls the intake feed when one is configured and then
// runs one pipeline pass; passes started from the CLI coexist with the
// scheduler because episodes are claimed individually.
package daemon
