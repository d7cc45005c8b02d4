// Package language normalizes the language codes found in media stream tags
// and in configuration allow-lists so both sides compare in one canonical form.
package language
