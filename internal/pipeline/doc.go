// Package pipeline runs passes over the episode queue.
//
// A pass lists unprocessed episodes, claims each one with a lease owned by
// the pass, and drives it through acquisition, transcoding, storage, link
// shortening and publishing. Success is recorded with a single conditional
// UPDATE; any failure is recorded against the episode and the pass moves on.
//
// Collaborators are supplied as a Registry value built once at startup, so
// tests substitute fakes without touching global state.
package pipeline
