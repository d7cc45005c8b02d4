// Package sites defines the site adapter protocol and the registry that maps
// media domains to adapters.
//
// An adapter turns a public media URL plus an optional stored login into a
// DownloadTask: a temporary direct URL with the headers and cookies the
// transfer must send. The registry is built once at startup and read-only
// afterwards.
package sites
