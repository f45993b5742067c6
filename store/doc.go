// Package store persists encrypted snapshots of the table catalog.
//
// A snapshot is the JSON-encoded catalog sealed with AES-256-GCM under
// a key derived from the password with scrypt. The blob layout is
// salt(16) || nonce(12) || ciphertext, with a fresh salt and nonce per
// save.
//
// Snapshots can be written to local paths, file:// and s3:// URLs, and
// read back additionally from http(s):// URLs.
package store
