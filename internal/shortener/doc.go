// Package shortener turns storage references into short links.
//
// A Chain tries the preferred provider first and then each fallback once,
// in order. Shortening never fails the pipeline: when every provider errors
// the original reference is returned unchanged.
package shortener
