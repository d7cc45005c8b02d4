// Package storage publishes rendered variants to the configured backend and
// returns a reference the shortener chain and publish step can link to.
//
// Backends are registered once at startup from storage.backends; the
// pipeline only ever talks to the active one. A failed Store leaves any
// variants already stored for the same episode in place.
package storage
