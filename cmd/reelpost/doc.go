// Command reelpost is the admin CLI and daemon entry point for the episode
// acquisition and publishing pipeline.
//
// "reelpost run" starts the scheduler loop; the remaining commands open the
// queue database directly, so they work with or without a running daemon.
package main
