// Package credentials maps source URLs to stored per-domain site credentials
// and decrypts them on demand.
package credentials
