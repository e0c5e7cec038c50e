// Package file provides the TOML configuration store and the typed feed
// settings read from it.
package file
